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

// This file defines the boundary between the Manager and the per-interface
// link transports.

package handover

import (
	"errors"

	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/pkg/shim"
)

// LinkScope describes the scope of a link: local or remote.
type LinkScope int

const (
	Remote LinkScope = iota // to/from a neighbor node
	Local                   // to/from an application on this node
)

func (s LinkScope) String() string {
	if s == Local {
		return "local"
	}
	return "remote"
}

// InnerPacket is a network-layer packet as handed to or received from the
// local stack. The Manager never looks inside it.
type InnerPacket []byte

// LinkTransport is the Manager's view of one local interface.
type LinkTransport interface {
	// IfID returns the interface identifier. It must not be zero.
	IfID() uint16
	Scope() LinkScope
	// Emit sends an encoded adaptation packet on the medium.
	Emit(raw []byte) error
	// Inject hands p to the local stack as if it had arrived on this
	// interface.
	Inject(p InnerPacket)
	// IsGone reports whether the direct link served by this interface broke.
	IsGone() bool
	// LinkID returns the identifier of the direct link served by this
	// interface, or the empty LinkID.
	LinkID() shim.LinkID
}

// Device is the medium below a Transport.
type Device interface {
	Send(raw []byte) error
}

// Stack is the local network layer above a Transport.
type Stack interface {
	Receive(ifID uint16, p InnerPacket)
}

// Tunneler takes over traffic of a Transport whose link broke and receives
// adaptation packets. *Manager implements it.
type Tunneler interface {
	TunnelPacket(p InnerPacket, id shim.LinkID)
	ProcessPacket(raw []byte, lasthop uint16)
}

var errLinkGone = errors.New("link gone")

// TransportConfig holds the collaborators of a Transport.
type TransportConfig struct {
	IfID   uint16
	Scope  LinkScope
	Device Device
	Stack  Stack
	// Manager receives adaptation packets and the traffic of a broken link.
	Manager Tunneler
	// Disabled turns the shim off for this interface: traffic of a broken
	// link and received adaptation packets are discarded.
	Disabled bool
	Logger   log.Logger
}

// Transport is the LinkTransport of an interface with a Device below and a
// Stack above it. It is not safe for concurrent use.
type Transport struct {
	cfg    TransportConfig
	gone   bool
	linkID shim.LinkID
	logger log.Logger
}

// NewTransport creates a Transport. The Manager is usually registered with
// the returned Transport via Manager.AddInterface afterwards.
func NewTransport(cfg TransportConfig) (*Transport, error) {
	if cfg.IfID == 0 || cfg.Device == nil || cfg.Stack == nil || cfg.Manager == nil {
		return nil, serrors.JoinNoStack(errEmptyValue, nil, "ifid", cfg.IfID)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Transport{
		cfg:    cfg,
		logger: logger.New("ifid", cfg.IfID),
	}, nil
}

func (t *Transport) IfID() uint16 {
	return t.cfg.IfID
}

func (t *Transport) Scope() LinkScope {
	return t.cfg.Scope
}

// Emit sends raw on the device. It fails once the link is gone.
func (t *Transport) Emit(raw []byte) error {
	if t.gone {
		return errLinkGone
	}
	return t.cfg.Device.Send(raw)
}

func (t *Transport) Inject(p InnerPacket) {
	t.cfg.Stack.Receive(t.cfg.IfID, p)
}

func (t *Transport) IsGone() bool {
	return t.gone
}

func (t *Transport) LinkID() shim.LinkID {
	return t.linkID
}

// SetLinkID associates the transport with the direct link it serves. The
// association can be set once.
func (t *Transport) SetLinkID(id shim.LinkID) error {
	if id == "" {
		return errEmptyValue
	}
	if t.linkID != "" && t.linkID != id {
		return serrors.JoinNoStack(errAlreadySet, nil,
			"ifid", t.cfg.IfID, "link_id", t.linkID, "new", id)
	}
	t.linkID = id
	return nil
}

// MarkGone records that the direct link broke. From now on ordinary traffic
// is tunneled.
func (t *Transport) MarkGone() {
	if !t.gone {
		t.logger.Debug("Link gone", "link_id", t.linkID)
	}
	t.gone = true
}

// Send sends an ordinary packet. If the link is gone the packet is handed to
// the Manager for tunneling, or discarded if the shim is disabled or the
// transport has no LinkID.
func (t *Transport) Send(p InnerPacket) error {
	if !t.gone {
		return t.cfg.Device.Send(p)
	}
	if t.cfg.Disabled || t.linkID == "" {
		t.logger.Debug("Link gone, discarding packet", "link_id", t.linkID)
		return errLinkGone
	}
	t.cfg.Manager.TunnelPacket(p, t.linkID)
	return nil
}

// Receive handles raw as received from the device. Adaptation packets go to
// the Manager, everything else goes to the stack.
func (t *Transport) Receive(raw []byte) {
	if !shim.IsAdaptation(raw) {
		t.cfg.Stack.Receive(t.cfg.IfID, raw)
		return
	}
	if t.cfg.Disabled {
		t.logger.Debug("Shim disabled, discarding adaptation packet")
		return
	}
	t.cfg.Manager.ProcessPacket(raw, t.cfg.IfID)
}
