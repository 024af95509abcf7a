// Copyright 2026 The relayshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shim implements the wire format of the link adaptation layer that
// carries tunnel signaling and tunneled payload between neighbors.
//
// Every adaptation packet is a single TLV of type 600 whose value holds a
// PacketType element followed by the elements of that kind:
//
//	TunnelRequest: PacketType(601) LinkID(602) HopLimit(603)
//	TunnelAck:     PacketType(601) LinkID(602)
//	LinkPayload:   PacketType(601) TunnelID(604) Payload(605)
//
// Types and lengths use the NDN variable size number encoding. The layer is
// registered with gopacket, so a raw packet can be parsed with
//
//	gopacket.NewPacket(raw, shim.LayerTypeAdaptation, gopacket.Default)
package shim

import (
	"github.com/gopacket/gopacket"
)

var (
	LayerTypeAdaptation = gopacket.RegisterLayerType(
		1600,
		gopacket.LayerTypeMetadata{
			Name:    "Adaptation",
			Decoder: gopacket.DecodeFunc(decodeAdaptation),
		},
	)
	LayerClassAdaptation gopacket.LayerClass = LayerTypeAdaptation
)
