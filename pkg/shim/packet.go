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

package shim

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gopacket/gopacket"

	"github.com/relayshim/relayshim/pkg/private/serrors"
)

// LinkID identifies a direct link between two interfaces. Once the link
// breaks it doubles as the identifier of the tunnel that replaces it.
type LinkID string

// MakeLinkID derives the LinkID of the direct link between the interfaces with
// hardware addresses a and b. Both endpoints must pass the addresses in the
// same order to agree on the identifier.
func MakeLinkID(a, b net.HardwareAddr) LinkID {
	return LinkID(a.String() + "-" + b.String())
}

// Second reports whether addr is the second address id was made from, i.e.
// whether id equals MakeLinkID(x, addr) for some x.
func (id LinkID) Second(addr net.HardwareAddr) bool {
	if len(addr) == 0 {
		return false
	}
	suffix := "-" + addr.String()
	return len(id) > len(suffix) && strings.HasSuffix(string(id), suffix)
}

// PacketType is the kind of an adaptation packet.
type PacketType uint8

const (
	LinkPayload   PacketType = 0
	TunnelRequest PacketType = 1
	TunnelAck     PacketType = 2
)

func (t PacketType) String() string {
	switch t {
	case LinkPayload:
		return "LinkPayload"
	case TunnelRequest:
		return "TunnelRequest"
	case TunnelAck:
		return "TunnelAck"
	default:
		return "PacketType(" + strconv.Itoa(int(t)) + ")"
	}
}

// Envelope is the decoded content of an adaptation packet. Which fields are
// meaningful depends on Type.
type Envelope struct {
	Type PacketType
	// LinkID is set for TunnelRequest and TunnelAck.
	LinkID LinkID
	// HopLimit is set for TunnelRequest.
	HopLimit uint64
	// TunnelID is set for LinkPayload.
	TunnelID LinkID
	// Inner is the carried network-layer packet of a LinkPayload. A decoded
	// Inner shares the memory of the decoded buffer.
	Inner []byte
}

// NewRequest returns a TunnelRequest envelope.
func NewRequest(id LinkID, hopLimit uint64) Envelope {
	return Envelope{Type: TunnelRequest, LinkID: id, HopLimit: hopLimit}
}

// NewAck returns a TunnelAck envelope.
func NewAck(id LinkID) Envelope {
	return Envelope{Type: TunnelAck, LinkID: id}
}

// NewPayload returns a LinkPayload envelope carrying inner through tunnel id.
func NewPayload(id LinkID, inner []byte) Envelope {
	return Envelope{Type: LinkPayload, TunnelID: id, Inner: inner}
}

// BaseLayer holds the raw bytes of the decoded layer.
type BaseLayer struct {
	Contents []byte
	Payload  []byte
}

// LayerContents returns the bytes of the packet layer.
func (b *BaseLayer) LayerContents() []byte { return b.Contents }

// LayerPayload returns the bytes contained within the packet layer.
func (b *BaseLayer) LayerPayload() []byte { return b.Payload }

// AdaptationPacket is the gopacket layer of an adaptation packet. For a
// LinkPayload the layer payload is the inner packet.
type AdaptationPacket struct {
	BaseLayer
	Envelope
}

func (a *AdaptationPacket) LayerType() gopacket.LayerType {
	return LayerTypeAdaptation
}

func (a *AdaptationPacket) CanDecode() gopacket.LayerClass {
	return LayerClassAdaptation
}

func (a *AdaptationPacket) NextLayerType() gopacket.LayerType {
	if a.Type == LinkPayload {
		return gopacket.LayerTypePayload
	}
	return gopacket.LayerTypeZero
}

// DecodeFromBytes implements the gopacket.DecodingLayer.DecodeFromBytes method.
// The decoded fields alias data.
func (a *AdaptationPacket) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	outer, n, err := readElement(data)
	if err != nil {
		df.SetTruncated()
		return serrors.JoinNoStack(ErrCodec, err)
	}
	if outer.Type != TypeAdaptationPacket {
		return serrors.JoinNoStack(ErrCodec, errOuterType, "type", outer.Type)
	}
	if n != len(data) {
		return serrors.JoinNoStack(ErrCodec, errTrailing, "extra", len(data)-n)
	}
	env, err := decodeElements(outer.Value)
	if err != nil {
		return serrors.JoinNoStack(ErrCodec, err)
	}
	a.Envelope = env
	a.BaseLayer = BaseLayer{Contents: data}
	if env.Type == LinkPayload {
		a.BaseLayer.Payload = env.Inner
	}
	return nil
}

func decodeElements(b []byte) (Envelope, error) {
	var env Envelope
	seen := make(map[uint64]bool, 3)
	for len(b) > 0 {
		e, n, err := readElement(b)
		if err != nil {
			return Envelope{}, err
		}
		b = b[n:]
		switch e.Type {
		case TypePacketType, TypeLinkID, TypeHopLimit, TypeTunnelID, TypePayload:
		default:
			if isCritical(e.Type) {
				return Envelope{}, serrors.WrapNoStack("decoding", errCritical, "type", e.Type)
			}
			continue
		}
		if seen[e.Type] {
			return Envelope{}, serrors.WrapNoStack("decoding", errDuplicate, "type", e.Type)
		}
		seen[e.Type] = true
		switch e.Type {
		case TypePacketType:
			v, err := readNonNegInt(e.Value)
			if err != nil {
				return Envelope{}, serrors.WrapNoStack("decoding packet type", err)
			}
			if v > uint64(TunnelAck) {
				return Envelope{}, serrors.WrapNoStack("decoding", errUnknownKind, "value", v)
			}
			env.Type = PacketType(v)
		case TypeHopLimit:
			v, err := readNonNegInt(e.Value)
			if err != nil {
				return Envelope{}, serrors.WrapNoStack("decoding hop limit", err)
			}
			env.HopLimit = v
		case TypeLinkID, TypeTunnelID:
			if !utf8.Valid(e.Value) {
				return Envelope{}, serrors.WrapNoStack("decoding", errInvalidUTF8, "type", e.Type)
			}
			if e.Type == TypeLinkID {
				env.LinkID = LinkID(e.Value)
			} else {
				env.TunnelID = LinkID(e.Value)
			}
		case TypePayload:
			env.Inner = e.Value
		}
	}
	if !seen[TypePacketType] {
		return Envelope{}, serrors.WrapNoStack("decoding", errMissing, "type", TypePacketType)
	}
	required, allowed := kindElements(env.Type)
	for _, typ := range required {
		if !seen[typ] {
			return Envelope{}, serrors.WrapNoStack("decoding", errMissing,
				"type", typ, "kind", env.Type)
		}
	}
	for typ := range seen {
		if !allowed[typ] {
			return Envelope{}, serrors.WrapNoStack("decoding", errUnexpected,
				"type", typ, "kind", env.Type)
		}
	}
	return env, nil
}

// kindElements returns the element types a packet of kind t must carry, in
// encoding order, and the set of all element types it may carry.
func kindElements(t PacketType) ([]uint64, map[uint64]bool) {
	var required []uint64
	switch t {
	case TunnelRequest:
		required = []uint64{TypeLinkID, TypeHopLimit}
	case TunnelAck:
		required = []uint64{TypeLinkID}
	case LinkPayload:
		required = []uint64{TypeTunnelID, TypePayload}
	}
	allowed := map[uint64]bool{TypePacketType: true}
	for _, typ := range required {
		allowed[typ] = true
	}
	return required, allowed
}

// SerializeTo implements the gopacket.SerializableLayer.SerializeTo method.
// The inner packet of a LinkPayload is taken from Inner, not from the buffer,
// so the layer must be serialized into an empty buffer.
func (a *AdaptationPacket) SerializeTo(b gopacket.SerializeBuffer,
	opts gopacket.SerializeOptions) error {

	if a.Type > TunnelAck {
		return serrors.JoinNoStack(ErrCodec, errUnknownKind, "value", a.Type)
	}
	valueLen := a.valueLen()
	buf, err := b.PrependBytes(elementLen(TypeAdaptationPacket, valueLen))
	if err != nil {
		return err
	}
	n := putElementHeader(buf, TypeAdaptationPacket, valueLen)
	n += putElementHeader(buf[n:], TypePacketType, 1)
	n += putNonNegInt(buf[n:], uint64(a.Type))
	switch a.Type {
	case TunnelRequest:
		n += putString(buf[n:], TypeLinkID, a.LinkID)
		n += putElementHeader(buf[n:], TypeHopLimit, nonNegIntLen(a.HopLimit))
		putNonNegInt(buf[n:], a.HopLimit)
	case TunnelAck:
		putString(buf[n:], TypeLinkID, a.LinkID)
	case LinkPayload:
		n += putString(buf[n:], TypeTunnelID, a.TunnelID)
		n += putElementHeader(buf[n:], TypePayload, len(a.Inner))
		copy(buf[n:], a.Inner)
	}
	return nil
}

func (a *AdaptationPacket) valueLen() int {
	l := elementLen(TypePacketType, 1)
	switch a.Type {
	case TunnelRequest:
		l += elementLen(TypeLinkID, len(a.LinkID))
		l += elementLen(TypeHopLimit, nonNegIntLen(a.HopLimit))
	case TunnelAck:
		l += elementLen(TypeLinkID, len(a.LinkID))
	case LinkPayload:
		l += elementLen(TypeTunnelID, len(a.TunnelID))
		l += elementLen(TypePayload, len(a.Inner))
	}
	return l
}

func putString(b []byte, typ uint64, s LinkID) int {
	n := putElementHeader(b, typ, len(s))
	return n + copy(b[n:], s)
}

func (a *AdaptationPacket) String() string {
	switch a.Type {
	case TunnelRequest:
		return fmt.Sprintf("Type=%s, LinkID=%s, HopLimit=%d", a.Type, a.LinkID, a.HopLimit)
	case TunnelAck:
		return fmt.Sprintf("Type=%s, LinkID=%s", a.Type, a.LinkID)
	default:
		return fmt.Sprintf("Type=%s, TunnelID=%s, Len=%d", a.Type, a.TunnelID, len(a.Inner))
	}
}

func decodeAdaptation(data []byte, pb gopacket.PacketBuilder) error {
	a := &AdaptationPacket{}
	err := a.DecodeFromBytes(data, pb)
	pb.AddLayer(a)
	if err != nil {
		return err
	}
	if a.Type != LinkPayload {
		return nil
	}
	return pb.NextDecoder(gopacket.LayerTypePayload)
}

// Encode serializes env into a new buffer.
func Encode(env Envelope) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	a := &AdaptationPacket{Envelope: env}
	if err := a.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses raw into an Envelope. All errors satisfy
// errors.Is(err, ErrCodec).
func Decode(raw []byte) (Envelope, error) {
	var a AdaptationPacket
	if err := a.DecodeFromBytes(raw, gopacket.NilDecodeFeedback); err != nil {
		return Envelope{}, err
	}
	return a.Envelope, nil
}

// IsAdaptation reports whether raw starts with the adaptation packet type. It
// does not validate the rest of the packet.
func IsAdaptation(raw []byte) bool {
	typ, _, err := readVarNumber(raw)
	return err == nil && typ == TypeAdaptationPacket
}
