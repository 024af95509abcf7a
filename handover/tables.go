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

package handover

import (
	"errors"
	"fmt"
	"time"
)

// Tunnel is the tunnel information of a link at one node: the two interfaces
// the tunnel passes through here. A zero side marks this node as an endpoint
// of the tunnel.
type Tunnel struct {
	A, B uint16
}

// NextHop returns the interface on which payload originated at this node is
// sent.
func (t Tunnel) NextHop() uint16 {
	if t.A != 0 {
		return t.A
	}
	return t.B
}

// IsEndpoint reports whether this node is an endpoint of the tunnel.
func (t Tunnel) IsEndpoint() bool {
	return t.A == 0 || t.B == 0
}

// other returns the side opposite of ifID. It reports false if ifID is not a
// side of the tunnel.
func (t Tunnel) other(ifID uint16) (uint16, bool) {
	switch ifID {
	case t.A:
		return t.B, true
	case t.B:
		return t.A, true
	}
	return 0, false
}

func (t Tunnel) String() string {
	return fmt.Sprintf("(%s, %s)", side(t.A), side(t.B))
}

func side(ifID uint16) string {
	if ifID == 0 {
		return "-"
	}
	return fmt.Sprint(ifID)
}

type tunnelEntry struct {
	Tunnel
	lastUsed time.Time
}

// pendingEntry records where a tunnel request came from. A zero hop marks
// this node as the origin of the search. A waiting origin has not flooded yet
// and answers the other endpoint's request.
type pendingEntry struct {
	hop     uint16
	since   time.Time
	waiting bool
}

// DropReason labels why a packet was discarded.
type DropReason string

const (
	DropMalformed      DropReason = "malformed"
	DropLoop           DropReason = "loop"
	DropUnsolicitedAck DropReason = "unsolicited_ack"
	DropNoTunnel       DropReason = "no_tunnel"
	DropOffPath        DropReason = "off_path"
	DropBufferOverflow DropReason = "buffer_overflow"
	DropHopLimit       DropReason = "hop_limit"
	DropNoInterface    DropReason = "no_interface"
	DropSendFailed     DropReason = "send_failed"
)

var (
	errEmptyValue = errors.New("empty value")
	errAlreadySet = errors.New("already set")

	errMalformed      = errors.New("malformed adaptation packet")
	errLoop           = errors.New("duplicate tunnel request")
	errUnsolicitedAck = errors.New("unsolicited tunnel ack")
	errNoTunnel       = errors.New("no active tunnel")
	errOffPath        = errors.New("interface not on tunnel path")
	errBufferOverflow = errors.New("pending buffer full")
	errHopLimit       = errors.New("hop limit reached")
	errNoInterface    = errors.New("unknown interface")
	errSendFailed     = errors.New("send failed")
)

var dropReasons = []struct {
	err    error
	reason DropReason
}{
	{errMalformed, DropMalformed},
	{errLoop, DropLoop},
	{errUnsolicitedAck, DropUnsolicitedAck},
	{errNoTunnel, DropNoTunnel},
	{errOffPath, DropOffPath},
	{errBufferOverflow, DropBufferOverflow},
	{errHopLimit, DropHopLimit},
	{errNoInterface, DropNoInterface},
	{errSendFailed, DropSendFailed},
}

func reasonOf(err error) DropReason {
	for _, r := range dropReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return DropSendFailed
}

const (
	tableTIB    = "tib"
	tablePRT    = "prt"
	tableBuffer = "buffer"
)

// Stats are the protocol counters of a Manager.
type Stats struct {
	InRequests  uint64
	OutRequests uint64
	InAcks      uint64
	OutAcks     uint64
	InPayloads  uint64
	OutPayloads uint64
	Drops       map[DropReason]uint64
	// Tunnels, Pending and Buffered are the current table sizes.
	Tunnels  int
	Pending  int
	Buffered int
}

// ExpireStats counts the entries removed by one Expire sweep.
type ExpireStats struct {
	Tunnels int
	Pending int
	Buffers int
}
