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

package handover_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayshim/relayshim/handover"
	"github.com/relayshim/relayshim/handover/config"
	"github.com/relayshim/relayshim/handover/mock_handover"
	"github.com/relayshim/relayshim/pkg/metrics"
	"github.com/relayshim/relayshim/pkg/shim"
)

const linkID shim.LinkID = "02:00:00:00:00:01-02:00:00:00:00:02"

// fakeLink records what the Manager emits and injects.
type fakeLink struct {
	ifID     uint16
	scope    handover.LinkScope
	gone     bool
	linkID   shim.LinkID
	err      error
	sent     [][]byte
	injected []handover.InnerPacket
}

func (l *fakeLink) IfID() uint16                  { return l.ifID }
func (l *fakeLink) Scope() handover.LinkScope     { return l.scope }
func (l *fakeLink) IsGone() bool                  { return l.gone }
func (l *fakeLink) LinkID() shim.LinkID           { return l.linkID }
func (l *fakeLink) Inject(p handover.InnerPacket) { l.injected = append(l.injected, p) }

func (l *fakeLink) Emit(raw []byte) error {
	if l.err != nil {
		return l.err
	}
	l.sent = append(l.sent, raw)
	return nil
}

func (l *fakeLink) envelopes(t *testing.T) []shim.Envelope {
	t.Helper()
	var r []shim.Envelope
	for _, raw := range l.sent {
		env, err := shim.Decode(raw)
		require.NoError(t, err)
		r = append(r, env)
	}
	return r
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newManager returns a Manager with one fakeLink per given interface ID.
func newManager(t *testing.T, cfg config.Shim, c *clock,
	ifIDs ...uint16) (*handover.Manager, map[uint16]*fakeLink) {

	t.Helper()
	m := handover.NewManager(cfg, handover.WithName("r"), handover.WithClock(c.Now),
		handover.WithTracer(mocktracer.New()))
	links := make(map[uint16]*fakeLink)
	for _, id := range ifIDs {
		l := &fakeLink{ifID: id}
		require.NoError(t, m.AddInterface(l))
		links[id] = l
	}
	return m, links
}

func encode(t *testing.T, env shim.Envelope) []byte {
	t.Helper()
	raw, err := shim.Encode(env)
	require.NoError(t, err)
	return raw
}

func TestManagerAddInterface(t *testing.T) {
	testCases := map[string]struct {
		Setup     func(m *handover.Manager)
		Transport handover.LinkTransport
		Assertion assert.ErrorAssertionFunc
	}{
		"valid": {
			Transport: &fakeLink{ifID: 1},
			Assertion: assert.NoError,
		},
		"zero ifid": {
			Transport: &fakeLink{},
			Assertion: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorIs(t, err, handover.ErrEmptyValue)
			},
		},
		"duplicate": {
			Setup: func(m *handover.Manager) {
				_ = m.AddInterface(&fakeLink{ifID: 1})
			},
			Transport: &fakeLink{ifID: 1},
			Assertion: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorIs(t, err, handover.ErrAlreadySet)
			},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			m := handover.NewManager(config.Shim{})
			if tc.Setup != nil {
				tc.Setup(m)
			}
			tc.Assertion(t, m.AddInterface(tc.Transport))
		})
	}
}

func TestManagerAddUserLink(t *testing.T) {
	m, _ := newManager(t, config.Shim{}, &clock{}, 1, 2)

	assert.ErrorIs(t, m.AddUserLink("", 1), handover.ErrEmptyValue)
	assert.ErrorIs(t, m.AddUserLink(linkID, 7), handover.ErrNoInterface)
	require.NoError(t, m.AddUserLink(linkID, 1))
	require.NoError(t, m.AddUserLink(linkID, 1))
	assert.ErrorIs(t, m.AddUserLink(linkID, 2), handover.ErrAlreadySet)

	ifID, ok := m.UserLink(linkID)
	assert.True(t, ok)
	assert.Equal(t, uint16(1), ifID)

	m.RemoveUserLink(linkID)
	_, ok = m.UserLink(linkID)
	assert.False(t, ok)
}

func TestManagerBroadcastRequest(t *testing.T) {
	t.Run("origin floods remote live interfaces", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2, 3)
		local := &fakeLink{ifID: 4, scope: handover.Local}
		require.NoError(t, m.AddInterface(local))
		links[2].gone = true

		m.BroadcastRequest(linkID, 0, 0)

		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 2)}, links[1].envelopes(t))
		assert.Empty(t, links[2].sent)
		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 2)}, links[3].envelopes(t))
		assert.Empty(t, local.sent)
		hop, ok := m.PendingHop(linkID)
		assert.True(t, ok)
		assert.Zero(t, hop)
		assert.Equal(t, uint64(2), m.Stats().OutRequests)
	})
	t.Run("flood local", func(t *testing.T) {
		m, _ := newManager(t, config.Shim{FloodLocal: true}, &clock{}, 1)
		local := &fakeLink{ifID: 4, scope: handover.Local}
		require.NoError(t, m.AddInterface(local))
		m.BroadcastRequest(linkID, 0, 0)
		assert.Len(t, local.sent, 1)
	})
	t.Run("relay skips lasthop", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		m.BroadcastRequest(linkID, 2, 1)
		assert.Empty(t, links[1].sent)
		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 1)}, links[2].envelopes(t))
		_, ok := m.PendingHop(linkID)
		assert.False(t, ok, "relays record the pending entry on receipt")
	})
	t.Run("exhausted hop limit", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		m.BroadcastRequest(linkID, 1, 1)
		m.BroadcastRequest(linkID, 0, 1)
		assert.Empty(t, links[2].sent)
		assert.Equal(t, uint64(2), m.Stats().Drops[handover.DropHopLimit])
	})
}

func TestManagerProcessRequest(t *testing.T) {
	t.Run("relay records and forwards", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2, 3)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 1)

		hop, ok := m.PendingHop(linkID)
		require.True(t, ok)
		assert.Equal(t, uint16(1), hop)
		assert.Empty(t, links[1].sent)
		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 1)}, links[2].envelopes(t))
		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 1)}, links[3].envelopes(t))
	})
	t.Run("last hop records without forwarding", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 1)
		hop, ok := m.PendingHop(linkID)
		require.True(t, ok)
		assert.Equal(t, uint16(1), hop)
		assert.Empty(t, links[2].sent)
	})
	t.Run("duplicate is dropped", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2, 3)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 1)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 2)
		hop, _ := m.PendingHop(linkID)
		assert.Equal(t, uint16(1), hop)
		assert.Len(t, links[3].sent, 1)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropLoop])
	})
	t.Run("own request is dropped", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		m.BroadcastRequest(linkID, 0, 0)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 2)
		assert.Len(t, links[1].sent, 1)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropLoop])
	})
	t.Run("endpoint answers", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2, 3)
		require.NoError(t, m.AddUserLink(linkID, 3))
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 2)

		tun, ok := m.Tunnel(linkID)
		require.True(t, ok)
		assert.Equal(t, handover.Tunnel{B: 2}, tun)
		assert.True(t, tun.IsEndpoint())
		assert.Equal(t, []shim.Envelope{shim.NewAck(linkID)}, links[2].envelopes(t))
		assert.Empty(t, links[1].sent)
		assert.Empty(t, links[3].sent)
		_, pending := m.PendingHop(linkID)
		assert.False(t, pending)

		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 1)
		assert.Empty(t, links[1].sent)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropLoop])
	})
}

func TestManagerProcessAck(t *testing.T) {
	t.Run("unsolicited", func(t *testing.T) {
		m, _ := newManager(t, config.Shim{}, &clock{}, 1)
		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 1)
		assert.False(t, m.HasTunnel(linkID))
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropUnsolicitedAck])
	})
	t.Run("relay forwards on reverse path", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2, 3)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 1)
		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 3)

		assert.Equal(t, []shim.Envelope{shim.NewAck(linkID)}, links[1].envelopes(t))
		tun, ok := m.Tunnel(linkID)
		require.True(t, ok)
		assert.Equal(t, handover.Tunnel{A: 3, B: 1}, tun)
		assert.False(t, tun.IsEndpoint())
		_, pending := m.PendingHop(linkID)
		assert.False(t, pending)

		// The second ack finds no pending entry.
		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 2)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropUnsolicitedAck])
	})
	t.Run("ack from lasthop", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 1)
		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 1)
		assert.False(t, m.HasTunnel(linkID))
		assert.Len(t, links[2].sent, 1)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropOffPath])
	})
	t.Run("origin drains buffer", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		m.TunnelPacket(handover.InnerPacket("p1"), linkID)
		m.TunnelPacket(handover.InnerPacket("p2"), linkID)
		assert.Equal(t, 2, m.Buffered(linkID))
		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 2)}, links[2].envelopes(t))

		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 2)

		tun, ok := m.Tunnel(linkID)
		require.True(t, ok)
		assert.Equal(t, handover.Tunnel{A: 2}, tun)
		assert.Zero(t, m.Buffered(linkID))
		assert.Equal(t, []shim.Envelope{
			shim.NewRequest(linkID, 2),
			shim.NewPayload(linkID, []byte("p1")),
			shim.NewPayload(linkID, []byte("p2")),
		}, links[2].envelopes(t))
		assert.Len(t, links[1].sent, 1)
	})
}

func TestManagerProcessPayload(t *testing.T) {
	establishRelay := func(t *testing.T) (*handover.Manager, map[uint16]*fakeLink) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2, 3)
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 1)
		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 3)
		links[1].sent, links[2].sent, links[3].sent = nil, nil, nil
		return m, links
	}
	t.Run("relay forwards unchanged", func(t *testing.T) {
		m, links := establishRelay(t)
		raw := encode(t, shim.NewPayload(linkID, []byte("from origin")))
		m.ProcessPacket(raw, 1)
		assert.Equal(t, [][]byte{raw}, links[3].sent)

		back := encode(t, shim.NewPayload(linkID, []byte("from target")))
		m.ProcessPacket(back, 3)
		assert.Equal(t, [][]byte{back}, links[1].sent)
		assert.Empty(t, links[2].sent)
	})
	t.Run("off path", func(t *testing.T) {
		m, links := establishRelay(t)
		m.ProcessPacket(encode(t, shim.NewPayload(linkID, []byte("x"))), 2)
		assert.Empty(t, links[1].sent)
		assert.Empty(t, links[3].sent)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropOffPath])
	})
	t.Run("no tunnel", func(t *testing.T) {
		m, _ := newManager(t, config.Shim{}, &clock{}, 1)
		m.ProcessPacket(encode(t, shim.NewPayload(linkID, []byte("x"))), 1)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropNoTunnel])
	})
	t.Run("endpoint injects on registered interface", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		require.NoError(t, m.AddUserLink(linkID, 1))
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 2)
		m.ProcessPacket(encode(t, shim.NewPayload(linkID, []byte("inner"))), 2)
		assert.Equal(t, []handover.InnerPacket{handover.InnerPacket("inner")}, links[1].injected)
		assert.Empty(t, links[2].injected)
		assert.Equal(t, uint64(1), m.Stats().InPayloads)
	})
	t.Run("endpoint injects a copy of the frame", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1, 2)
		require.NoError(t, m.AddUserLink(linkID, 1))
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 2)
		raw := encode(t, shim.NewPayload(linkID, []byte("inner")))
		m.ProcessPacket(raw, 2)
		for i := range raw {
			raw[i] = 0
		}
		assert.Equal(t, []handover.InnerPacket{handover.InnerPacket("inner")}, links[1].injected)
	})
	t.Run("malformed", func(t *testing.T) {
		m, _ := newManager(t, config.Shim{}, &clock{}, 1)
		m.ProcessPacket([]byte{0xfd, 0x02, 0x58, 0x05, 0x00}, 1)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropMalformed])
	})
	t.Run("unknown interface", func(t *testing.T) {
		m, _ := newManager(t, config.Shim{}, &clock{}, 1)
		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 9)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropNoInterface])
	})
}

func TestManagerTunnelPacket(t *testing.T) {
	t.Run("single search for many packets", func(t *testing.T) {
		m, links := newManager(t, config.Shim{}, &clock{}, 1)
		for range 5 {
			m.TunnelPacket(handover.InnerPacket("p"), linkID)
		}
		assert.Len(t, links[1].sent, 1)
		assert.Equal(t, 5, m.Buffered(linkID))
	})
	t.Run("buffer overflow evicts oldest", func(t *testing.T) {
		m, links := newManager(t, config.Shim{MaxBuffered: 2}, &clock{}, 1)
		m.TunnelPacket(handover.InnerPacket("p1"), linkID)
		m.TunnelPacket(handover.InnerPacket("p2"), linkID)
		m.TunnelPacket(handover.InnerPacket("p3"), linkID)
		assert.Equal(t, 2, m.Buffered(linkID))
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropBufferOverflow])

		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 1)
		assert.Equal(t, []shim.Envelope{
			shim.NewRequest(linkID, 2),
			shim.NewPayload(linkID, []byte("p2")),
			shim.NewPayload(linkID, []byte("p3")),
		}, links[1].envelopes(t))
	})
	t.Run("emit failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		link := mock_handover.NewMockLinkTransport(ctrl)
		link.EXPECT().IfID().Return(uint16(1)).AnyTimes()
		link.EXPECT().IsGone().Return(false).AnyTimes()
		link.EXPECT().Scope().Return(handover.Remote).AnyTimes()
		link.EXPECT().Emit(gomock.Any()).Return(errors.New("device down"))

		m := handover.NewManager(config.Shim{})
		require.NoError(t, m.AddInterface(link))
		m.TunnelPacket(handover.InnerPacket("p"), linkID)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropSendFailed])
		assert.Zero(t, m.Stats().OutRequests)
	})
}

func TestManagerResend(t *testing.T) {
	tracer := mocktracer.New()
	c := &clock{}
	m := handover.NewManager(config.Shim{MaxRetries: 1},
		handover.WithClock(c.Now), handover.WithTracer(tracer))
	link := &fakeLink{ifID: 1}
	require.NoError(t, m.AddInterface(link))

	assert.False(t, m.Resend(linkID), "no search started")
	m.TunnelPacket(handover.InnerPacket("p"), linkID)
	c.Advance(m.SearchTimeout())
	assert.True(t, m.Resend(linkID))
	assert.Len(t, link.sent, 2)
	assert.Empty(t, tracer.FinishedSpans())

	c.Advance(m.SearchTimeout())
	assert.False(t, m.Resend(linkID))
	assert.Len(t, link.sent, 2)
	assert.Zero(t, m.Buffered(linkID))
	_, pending := m.PendingHop(linkID)
	assert.False(t, pending)
	assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropNoTunnel])

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "shim.search", spans[0].OperationName)
	assert.Equal(t, string(linkID), spans[0].Tag("link_id"))
	assert.Equal(t, false, spans[0].Tag("established"))
	assert.Equal(t, true, spans[0].Tag("error"))
	logs := spans[0].Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, "Repeating tunnel search", logs[0].Fields[1].ValueString)
	assert.Equal(t, "Tunnel search failed", logs[1].Fields[1].ValueString)

	// A new packet starts a fresh search.
	m.TunnelPacket(handover.InnerPacket("p"), linkID)
	assert.Len(t, link.sent, 3)
}

func TestManagerSearchSpanFinishesOnAck(t *testing.T) {
	tracer := mocktracer.New()
	m := handover.NewManager(config.Shim{}, handover.WithTracer(tracer))
	require.NoError(t, m.AddInterface(&fakeLink{ifID: 1}))
	m.Discover(linkID)
	m.Discover(linkID)
	m.ProcessPacket(encode(t, shim.NewAck(linkID)), 1)
	m.Discover(linkID)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, true, spans[0].Tag("established"))
	assert.Equal(t, uint64(1), m.Stats().OutRequests)
	assert.False(t, m.Resend(linkID))
}

func TestManagerEndpointRoles(t *testing.T) {
	first := net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	second := net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}
	require.Equal(t, linkID, shim.MakeLinkID(first, second))

	// endpoint returns a Manager that is an endpoint of linkID with addr. The
	// user link on interface 1 is gone, interface 2 leads to a relay.
	endpoint := func(t *testing.T, addr net.HardwareAddr) (*handover.Manager,
		*fakeLink, *mocktracer.MockTracer, *clock) {

		t.Helper()
		tracer, c := mocktracer.New(), &clock{}
		m := handover.NewManager(config.Shim{}, handover.WithAddr(addr),
			handover.WithClock(c.Now), handover.WithTracer(tracer))
		require.NoError(t, m.AddInterface(&fakeLink{ifID: 1, gone: true}))
		relay := &fakeLink{ifID: 2}
		require.NoError(t, m.AddInterface(relay))
		require.NoError(t, m.AddUserLink(linkID, 1))
		return m, relay, tracer, c
	}

	t.Run("first endpoint floods at once", func(t *testing.T) {
		m, relay, _, _ := endpoint(t, first)
		m.TunnelPacket(handover.InnerPacket("p"), linkID)
		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 2)}, relay.envelopes(t))

		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 2)
		assert.False(t, m.HasTunnel(linkID))
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropLoop])
	})
	t.Run("second endpoint answers while waiting", func(t *testing.T) {
		m, relay, tracer, c := endpoint(t, second)
		m.TunnelPacket(handover.InnerPacket("p"), linkID)
		assert.Empty(t, relay.sent)
		hop, ok := m.PendingHop(linkID)
		require.True(t, ok)
		assert.Zero(t, hop)

		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 2)
		tun, ok := m.Tunnel(linkID)
		require.True(t, ok)
		assert.Equal(t, handover.Tunnel{B: 2}, tun)
		assert.Equal(t, []shim.Envelope{
			shim.NewAck(linkID),
			shim.NewPayload(linkID, []byte("p")),
		}, relay.envelopes(t))
		_, pending := m.PendingHop(linkID)
		assert.False(t, pending)
		assert.Empty(t, m.Stats().Drops)

		spans := tracer.FinishedSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, true, spans[0].Tag("established"))
		c.Advance(m.SearchTimeout())
		assert.False(t, m.Resend(linkID))
		assert.Len(t, relay.sent, 2)
	})
	t.Run("second endpoint floods after waiting", func(t *testing.T) {
		m, relay, tracer, c := endpoint(t, second)
		m.TunnelPacket(handover.InnerPacket("p"), linkID)
		c.Advance(m.SearchTimeout())
		assert.Equal(t, handover.ExpireStats{}, m.Expire(c.now))
		assert.True(t, m.Resend(linkID))
		assert.Equal(t, []shim.Envelope{shim.NewRequest(linkID, 2)}, relay.envelopes(t))

		// Flooding, a request cannot be told apart from the own one.
		m.ProcessPacket(encode(t, shim.NewRequest(linkID, 1)), 2)
		assert.Equal(t, uint64(1), m.Stats().Drops[handover.DropLoop])

		m.ProcessPacket(encode(t, shim.NewAck(linkID)), 2)
		tun, ok := m.Tunnel(linkID)
		require.True(t, ok)
		assert.Equal(t, handover.Tunnel{A: 2}, tun)
		require.Len(t, tracer.FinishedSpans(), 1)
		assert.Equal(t, uint64(1), m.Stats().OutRequests)
	})
	t.Run("second endpoint waits again before a retry", func(t *testing.T) {
		tracer, c := mocktracer.New(), &clock{}
		m := handover.NewManager(config.Shim{MaxRetries: 1}, handover.WithAddr(second),
			handover.WithClock(c.Now), handover.WithTracer(tracer))
		require.NoError(t, m.AddInterface(&fakeLink{ifID: 1, gone: true}))
		relay := &fakeLink{ifID: 2}
		require.NoError(t, m.AddInterface(relay))
		require.NoError(t, m.AddUserLink(linkID, 1))

		m.Discover(linkID)
		assert.True(t, m.Resend(linkID), "flood after waiting")
		assert.True(t, m.Resend(linkID), "retry waits")
		assert.Len(t, relay.sent, 1)
		assert.True(t, m.Resend(linkID), "flood after waiting")
		assert.Len(t, relay.sent, 2)
		assert.False(t, m.Resend(linkID), "retries used up")
		_, pending := m.PendingHop(linkID)
		assert.False(t, pending)
	})
}

func TestManagerExpire(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	cfg := config.Shim{}
	cfg.TunnelIdleTimeout.Duration = time.Second
	m, links := newManager(t, cfg, c, 1, 2, 3)

	m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 1)
	m.ProcessPacket(encode(t, shim.NewAck(linkID)), 3)
	const other shim.LinkID = "02:00:00:00:00:03-02:00:00:00:00:04"
	m.ProcessPacket(encode(t, shim.NewRequest(other, 2)), 1)

	assert.Equal(t, handover.ExpireStats{}, m.Expire(c.now))

	c.Advance(m.SearchTimeout() + time.Millisecond)
	m.ProcessPacket(encode(t, shim.NewPayload(linkID, []byte("keepalive"))), 1)
	assert.Len(t, links[3].sent, 3)
	assert.Equal(t, handover.ExpireStats{Pending: 1}, m.Expire(c.now))
	assert.Empty(t, m.Pending())
	assert.True(t, m.HasTunnel(linkID))

	c.Advance(2 * time.Second)
	assert.Equal(t, handover.ExpireStats{Tunnels: 1}, m.Expire(c.now))
	assert.Empty(t, m.Tunnels())
}

func TestManagerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mm := handover.NewMetrics(metrics.New(metrics.WithRegistry(reg)))
	m := handover.NewManager(config.Shim{}, handover.WithName("n1"), handover.WithMetrics(mm),
		handover.WithTracer(mocktracer.New()))
	require.NoError(t, m.AddInterface(&fakeLink{ifID: 1}))

	m.TunnelPacket(handover.InnerPacket("p"), linkID)
	m.ProcessPacket(encode(t, shim.NewAck(linkID)), 1)
	m.ProcessPacket(encode(t, shim.NewAck(linkID)), 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		mm.OutputPacketsTotal.WithLabelValues("n1", shim.TunnelRequest.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		mm.OutputPacketsTotal.WithLabelValues("n1", shim.LinkPayload.String())))
	assert.Equal(t, 2.0, testutil.ToFloat64(
		mm.InputPacketsTotal.WithLabelValues("n1", shim.TunnelAck.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		mm.DroppedPacketsTotal.WithLabelValues("n1", string(handover.DropUnsolicitedAck))))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.SearchesTotal.WithLabelValues("n1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.Tunnels.WithLabelValues("n1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(mm.BufferedPackets.WithLabelValues("n1")))
}

func TestManagerRepeatedSearchReplacesStaleEntry(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	m, links := newManager(t, config.Shim{}, c, 1, 2, 3)
	m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 1)
	c.Advance(time.Millisecond)
	m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 2)
	assert.Len(t, links[3].sent, 1)

	c.Advance(m.SearchTimeout())
	m.ProcessPacket(encode(t, shim.NewRequest(linkID, 2)), 2)
	hop, ok := m.PendingHop(linkID)
	require.True(t, ok)
	assert.Equal(t, uint16(2), hop)
	assert.Len(t, links[1].sent, 1)
	assert.Len(t, links[3].sent, 2)
}
