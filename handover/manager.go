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

// Package handover implements tunnel discovery and relay for direct links that
// broke, e.g. because one endpoint moved.
//
// When the transport of a broken link is asked to send, the traffic is handed
// to the node's Manager. The Manager floods a TunnelRequest for the link up to
// a hop limit. Every relay records where the request came from (the pending
// request table). The other endpoint of the link recognizes the link in its
// registry and answers with a TunnelAck that travels the recorded reverse
// path. Each node the ack passes installs the tunnel information: the two
// interfaces between which payload of the link is relayed. Payload buffered
// during the search is then sent through the tunnel as LinkPayload and handed
// to the local stack at the far endpoint.
//
// A Manager is driven by events and is not safe for concurrent use.
package handover

import (
	"bytes"
	"net"
	"sort"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/relayshim/relayshim/handover/config"
	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/pkg/metrics"
	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/pkg/shim"
)

type options struct {
	name    string
	addr    net.HardwareAddr
	metrics *Metrics
	logger  log.Logger
	tracer  opentracing.Tracer
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*options)

// WithName sets the node name used in logs and as metrics label.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithAddr sets the hardware address the node's user links are identified
// by. The second endpoint of a link (see shim.LinkID.Second) waits for the
// first endpoint's request before it floods its own.
func WithAddr(addr net.HardwareAddr) Option {
	return func(o *options) {
		o.addr = addr
	}
}

// WithMetrics makes the Manager report to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer that records one span per originated search.
// By default the global tracer is used.
func WithTracer(t opentracing.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithClock sets the clock used to age table entries. Simulations pass their
// virtual clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Manager runs the tunnel protocol of one node.
type Manager struct {
	cfg        config.Shim
	name       string
	addr       net.HardwareAddr
	interfaces map[uint16]LinkTransport
	ifIDs      []uint16

	// links is the local link registry: the interface that served each
	// direct link this node is an endpoint of.
	links    map[shim.LinkID]uint16
	prt      map[shim.LinkID]pendingEntry
	tib      map[shim.LinkID]*tunnelEntry
	buffers  map[shim.LinkID][]InnerPacket
	retries  map[shim.LinkID]int
	searches map[shim.LinkID]opentracing.Span

	stats   Stats
	metrics nodeMetrics
	logger  log.Logger
	tracer  opentracing.Tracer
	now     func() time.Time
}

// NewManager creates a Manager. Unset fields of cfg take their defaults.
func NewManager(cfg config.Shim, opts ...Option) *Manager {
	cfg.InitDefaults()
	o := options{
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = opentracing.GlobalTracer()
	}
	return &Manager{
		cfg:        cfg,
		name:       o.name,
		addr:       o.addr,
		interfaces: make(map[uint16]LinkTransport),
		links:      make(map[shim.LinkID]uint16),
		prt:        make(map[shim.LinkID]pendingEntry),
		tib:        make(map[shim.LinkID]*tunnelEntry),
		buffers:    make(map[shim.LinkID][]InnerPacket),
		retries:    make(map[shim.LinkID]int),
		searches:   make(map[shim.LinkID]opentracing.Span),
		stats:      Stats{Drops: make(map[DropReason]uint64)},
		metrics:    o.metrics.forNode(o.name),
		logger:     o.logger.New("node", o.name),
		tracer:     o.tracer,
		now:        o.now,
	}
}

// Name returns the node name of the Manager.
func (m *Manager) Name() string {
	return m.name
}

// AddInterface adds a local interface. Requests are flooded over interfaces in
// ascending IfID order.
func (m *Manager) AddInterface(t LinkTransport) error {
	if t == nil || t.IfID() == 0 {
		return errEmptyValue
	}
	ifID := t.IfID()
	if _, exists := m.interfaces[ifID]; exists {
		return serrors.JoinNoStack(errAlreadySet, nil, "ifid", ifID)
	}
	m.interfaces[ifID] = t
	i := sort.Search(len(m.ifIDs), func(i int) bool { return m.ifIDs[i] >= ifID })
	m.ifIDs = append(m.ifIDs, 0)
	copy(m.ifIDs[i+1:], m.ifIDs[i:])
	m.ifIDs[i] = ifID
	return nil
}

// RemoveInterface removes a local interface. Tunnels through it stay until
// they expire; packets for them are dropped.
func (m *Manager) RemoveInterface(ifID uint16) {
	if _, exists := m.interfaces[ifID]; !exists {
		return
	}
	delete(m.interfaces, ifID)
	i := sort.Search(len(m.ifIDs), func(i int) bool { return m.ifIDs[i] >= ifID })
	m.ifIDs = append(m.ifIDs[:i], m.ifIDs[i+1:]...)
}

// AddUserLink records that this node is an endpoint of the direct link id,
// which was served by interface ifID. Both endpoints of a link call it when
// the link is provisioned.
func (m *Manager) AddUserLink(id shim.LinkID, ifID uint16) error {
	if id == "" {
		return errEmptyValue
	}
	if _, exists := m.interfaces[ifID]; !exists {
		return serrors.JoinNoStack(errNoInterface, nil, "ifid", ifID)
	}
	if cur, exists := m.links[id]; exists && cur != ifID {
		return serrors.JoinNoStack(errAlreadySet, nil, "link_id", id, "ifid", cur)
	}
	m.links[id] = ifID
	return nil
}

// RemoveUserLink retires the registry entry of id, e.g. once the direct link
// is re-established or decommissioned.
func (m *Manager) RemoveUserLink(id shim.LinkID) {
	delete(m.links, id)
}

// TunnelPacket sends p through the tunnel that replaces link id. Without a
// tunnel the packet is buffered and, unless one is already pending, a search
// is started. The Manager owns p afterwards.
func (m *Manager) TunnelPacket(p InnerPacket, id shim.LinkID) {
	defer m.updateGauges()
	if e, ok := m.tib[id]; ok {
		e.lastUsed = m.now()
		m.sendPayload(id, p, e.NextHop())
		return
	}
	m.enqueue(id, p)
	if _, pending := m.prt[id]; !pending {
		m.logger.Debug("Tunnel not established, searching", "link_id", id)
		m.search(id)
	}
}

func (m *Manager) sendPayload(id shim.LinkID, p InnerPacket, ifID uint16) {
	raw, err := shim.Encode(shim.NewPayload(id, p))
	if err != nil {
		m.drop(serrors.JoinNoStack(errMalformed, err), id, ifID)
		return
	}
	if err := m.emit(ifID, raw, shim.LinkPayload); err != nil {
		m.drop(err, id, ifID)
	}
}

func (m *Manager) enqueue(id shim.LinkID, p InnerPacket) {
	buf := m.buffers[id]
	if len(buf) >= m.cfg.MaxBuffered {
		copy(buf, buf[1:])
		buf = buf[:len(buf)-1]
		m.drop(errBufferOverflow, id, 0)
	}
	m.buffers[id] = append(buf, p)
}

// drain sends the payload buffered for id through its tunnel.
func (m *Manager) drain(id shim.LinkID) {
	buf, ok := m.buffers[id]
	if !ok {
		return
	}
	delete(m.buffers, id)
	m.logger.Debug("Sending buffered payload", "link_id", id, "count", len(buf))
	for _, p := range buf {
		m.TunnelPacket(p, id)
	}
}

// Discover starts a search for the tunnel of link id unless a tunnel exists
// or a search is pending. A node calls it right after a handover to set up the
// tunnel before traffic needs it.
func (m *Manager) Discover(id shim.LinkID) {
	defer m.updateGauges()
	if _, ok := m.tib[id]; ok {
		return
	}
	if _, ok := m.prt[id]; ok {
		return
	}
	delete(m.retries, id)
	m.search(id)
}

// search starts a search for the tunnel of id. If both endpoints of a link
// flood at the same time, relays drop each request as a loop of the other.
// The second endpoint therefore first waits a search timeout for the request
// of the first one and answers it; the following Resend floods.
func (m *Manager) search(id shim.LinkID) {
	if _, registered := m.links[id]; !registered || !id.Second(m.addr) {
		m.BroadcastRequest(id, 0, 0)
		return
	}
	m.logger.Debug("Waiting for tunnel request", "link_id", id)
	m.prt[id] = pendingEntry{since: m.now(), waiting: true}
	m.openSpan(id)
}

// BroadcastRequest floods a TunnelRequest for id over all eligible interfaces
// except lasthop. A relay passes the received hop limit and the interface the
// request arrived on; the request is sent on with the limit decremented, and
// not at all once it reaches zero. The origin of a search passes zero for both
// and becomes the pending entry's owner.
func (m *Manager) BroadcastRequest(id shim.LinkID, hopLimit uint64, lasthop uint16) {
	origin := lasthop == 0
	if hopLimit == 0 {
		if !origin {
			m.drop(errHopLimit, id, lasthop)
			return
		}
		hopLimit = m.cfg.HopLimit + 1
	}
	if hopLimit-1 == 0 {
		m.drop(errHopLimit, id, lasthop)
		return
	}
	raw, err := shim.Encode(shim.NewRequest(id, hopLimit-1))
	if err != nil {
		m.drop(serrors.JoinNoStack(errMalformed, err), id, lasthop)
		return
	}
	m.logger.Debug("Broadcasting tunnel request", "link_id", id, "hop_limit", hopLimit-1)
	for _, ifID := range m.ifIDs {
		if ifID == lasthop {
			continue
		}
		t := m.interfaces[ifID]
		if t.IsGone() || (t.Scope() == Local && !m.cfg.FloodLocal) {
			continue
		}
		if err := m.emit(ifID, raw, shim.TunnelRequest); err != nil {
			m.drop(err, id, ifID)
		}
	}
	if origin {
		m.prt[id] = pendingEntry{since: m.now()}
		m.startSearch(id)
	}
}

// ProcessPacket handles an adaptation packet received on interface lasthop.
// Packets that cannot be handled are dropped and counted.
func (m *Manager) ProcessPacket(raw []byte, lasthop uint16) {
	defer m.updateGauges()
	if _, ok := m.interfaces[lasthop]; !ok {
		m.drop(serrors.JoinNoStack(errNoInterface, nil, "ifid", lasthop), "", lasthop)
		return
	}
	env, err := shim.Decode(raw)
	if err != nil {
		m.drop(serrors.JoinNoStack(errMalformed, err), "", lasthop)
		return
	}
	m.countIn(env.Type)
	var id shim.LinkID
	switch env.Type {
	case shim.LinkPayload:
		id = env.TunnelID
		err = m.handlePayload(id, env.Inner, raw, lasthop)
	case shim.TunnelRequest:
		id = env.LinkID
		err = m.handleRequest(id, env.HopLimit, lasthop)
	case shim.TunnelAck:
		id = env.LinkID
		err = m.handleAck(id, raw, lasthop)
	}
	if err != nil {
		m.drop(err, id, lasthop)
	}
}

func (m *Manager) handlePayload(id shim.LinkID, inner, raw []byte, lasthop uint16) error {
	e, ok := m.tib[id]
	if !ok {
		return errNoTunnel
	}
	next, onPath := e.other(lasthop)
	if !onPath {
		return serrors.JoinNoStack(errOffPath, nil, "tunnel", e.Tunnel)
	}
	e.lastUsed = m.now()
	if next != 0 {
		return m.emit(next, raw, shim.LinkPayload)
	}
	ifID, ok := m.links[id]
	if !ok {
		return serrors.JoinNoStack(errNoInterface, nil, "registered", false)
	}
	t, ok := m.interfaces[ifID]
	if !ok {
		return serrors.JoinNoStack(errNoInterface, nil, "registered", ifID)
	}
	// inner points into the received frame.
	t.Inject(InnerPacket(bytes.Clone(inner)))
	return nil
}

func (m *Manager) handleRequest(id shim.LinkID, hopLimit uint64, lasthop uint16) error {
	pe, pending := m.prt[id]
	if _, endpoint := m.links[id]; endpoint {
		if pending && !pe.waiting {
			// Our own search came back around, or the other endpoint floods
			// at the same time. The second endpoint answers once it waits
			// again.
			return errLoop
		}
		return m.answerRequest(id, lasthop)
	}
	if pending && m.stale(pe, m.now()) {
		// A repeated search from the origin replaces what is left of the
		// previous one.
		delete(m.prt, id)
		pending = false
	}
	if pending {
		return errLoop
	}
	m.prt[id] = pendingEntry{hop: lasthop, since: m.now()}
	m.BroadcastRequest(id, hopLimit, lasthop)
	return nil
}

// answerRequest terminates a search at the sought endpoint. The ack leaves
// before the buffered payload so that relays know the tunnel when the payload
// reaches them.
func (m *Manager) answerRequest(id shim.LinkID, lasthop uint16) error {
	if _, ok := m.tib[id]; ok {
		return errLoop
	}
	m.tib[id] = &tunnelEntry{Tunnel: Tunnel{B: lasthop}, lastUsed: m.now()}
	delete(m.prt, id)
	delete(m.retries, id)
	m.finishSearch(id, true)
	m.logger.Debug("Tunnel endpoint reached", "link_id", id, "ifid", lasthop)
	raw, err := shim.Encode(shim.NewAck(id))
	if err != nil {
		return serrors.JoinNoStack(errMalformed, err)
	}
	err = m.emit(lasthop, raw, shim.TunnelAck)
	m.drain(id)
	return err
}

func (m *Manager) handleAck(id shim.LinkID, raw []byte, lasthop uint16) error {
	pe, ok := m.prt[id]
	if !ok {
		return errUnsolicitedAck
	}
	delete(m.prt, id)
	if pe.hop == lasthop {
		return serrors.JoinNoStack(errOffPath, nil, "reverse", pe.hop)
	}
	var err error
	if pe.hop != 0 {
		err = m.emit(pe.hop, raw, shim.TunnelAck)
	}
	m.tib[id] = &tunnelEntry{Tunnel: Tunnel{A: lasthop, B: pe.hop}, lastUsed: m.now()}
	if pe.hop == 0 {
		m.logger.Debug("Tunnel established", "link_id", id, "ifid", lasthop)
		delete(m.retries, id)
		m.finishSearch(id, true)
	}
	m.drain(id)
	return err
}

func (m *Manager) emit(ifID uint16, raw []byte, typ shim.PacketType) error {
	t, ok := m.interfaces[ifID]
	if !ok {
		return serrors.JoinNoStack(errNoInterface, nil, "ifid", ifID)
	}
	if err := t.Emit(raw); err != nil {
		return serrors.JoinNoStack(errSendFailed, err, "ifid", ifID)
	}
	m.countOut(typ)
	return nil
}

// SearchTimeout is the time after which the origin of a search should call
// Resend.
func (m *Manager) SearchTimeout() time.Duration {
	return m.cfg.SearchTimeout()
}

// Resend repeats the search for id if this node originated it and no tunnel
// was established. A waiting second endpoint floods its first request
// instead. Once the retries are used up the search is given up and its
// buffered payload is discarded. Resend reports whether the search goes on,
// i.e. whether it should be called again after SearchTimeout.
func (m *Manager) Resend(id shim.LinkID) bool {
	defer m.updateGauges()
	if _, ok := m.tib[id]; ok {
		delete(m.retries, id)
		return false
	}
	if _, searching := m.searches[id]; !searching {
		return false
	}
	pe, ok := m.prt[id]
	if ok && pe.hop != 0 {
		return false
	}
	delete(m.prt, id)
	logger := m.searchLogger(id)
	if ok && pe.waiting {
		logger.Debug("No tunnel request received, flooding")
		m.BroadcastRequest(id, 0, 0)
		return true
	}
	if m.retries[id] >= m.cfg.MaxRetries {
		delete(m.retries, id)
		logger.Info("Tunnel search failed", "retries", m.cfg.MaxRetries)
		metrics.CounterInc(m.metrics.failures)
		m.discard(id)
		m.finishSearch(id, false)
		return false
	}
	m.retries[id]++
	logger.Debug("Repeating tunnel search", "retry", m.retries[id])
	m.search(id)
	return true
}

// discard drops the payload buffered for id.
func (m *Manager) discard(id shim.LinkID) {
	for range m.buffers[id] {
		m.drop(errNoTunnel, id, 0)
	}
	delete(m.buffers, id)
}

// Expire removes stale entries: tunnels idle for longer than the tunnel idle
// timeout, pending entries older than the pending timeout and buffers that no
// search serves anymore.
func (m *Manager) Expire(now time.Time) ExpireStats {
	defer m.updateGauges()
	var s ExpireStats
	if idle := m.cfg.TunnelIdleTimeout.Duration; idle > 0 {
		for id, e := range m.tib {
			if now.Sub(e.lastUsed) > idle {
				delete(m.tib, id)
				s.Tunnels++
				m.logger.Debug("Tunnel expired", "link_id", id, "tunnel", e.Tunnel)
			}
		}
	}
	for id, pe := range m.prt {
		if !pe.waiting && m.stale(pe, now) {
			delete(m.prt, id)
			s.Pending++
		}
	}
	for id := range m.buffers {
		_, established := m.tib[id]
		_, pending := m.prt[id]
		_, searching := m.searches[id]
		if established || pending || searching {
			continue
		}
		m.discard(id)
		s.Buffers++
	}
	metrics.CounterAdd(m.metrics.expired[tableTIB], float64(s.Tunnels))
	metrics.CounterAdd(m.metrics.expired[tablePRT], float64(s.Pending))
	metrics.CounterAdd(m.metrics.expired[tableBuffer], float64(s.Buffers))
	return s
}

// stale reports whether pe is older than the pending timeout.
func (m *Manager) stale(pe pendingEntry, now time.Time) bool {
	timeout := m.cfg.PendingTimeout.Duration
	if timeout == 0 {
		timeout = m.cfg.SearchTimeout()
	}
	return now.Sub(pe.since) >= timeout
}

func (m *Manager) startSearch(id shim.LinkID) {
	metrics.CounterInc(m.metrics.searches)
	m.openSpan(id)
}

// openSpan starts the span of the search for id unless it is open already.
func (m *Manager) openSpan(id shim.LinkID) {
	if _, ok := m.searches[id]; ok {
		return
	}
	span := m.tracer.StartSpan("shim.search")
	span.SetTag("link_id", string(id))
	m.searches[id] = span
}

// searchLogger returns a logger that also records on the span of the search
// for id.
func (m *Manager) searchLogger(id shim.LinkID) log.Logger {
	logger := m.logger.New("link_id", id)
	if span, ok := m.searches[id]; ok {
		return log.Span{Logger: logger, Span: span}
	}
	return logger
}

func (m *Manager) finishSearch(id shim.LinkID, established bool) {
	span, ok := m.searches[id]
	if !ok {
		return
	}
	delete(m.searches, id)
	span.SetTag("established", established)
	if !established {
		ext.Error.Set(span, true)
	}
	span.Finish()
}

// HasTunnel reports whether a tunnel for id is established at this node.
func (m *Manager) HasTunnel(id shim.LinkID) bool {
	_, ok := m.tib[id]
	return ok
}

// Tunnel returns the tunnel information of id.
func (m *Manager) Tunnel(id shim.LinkID) (Tunnel, bool) {
	e, ok := m.tib[id]
	if !ok {
		return Tunnel{}, false
	}
	return e.Tunnel, true
}

// Tunnels returns a copy of the tunnel information base.
func (m *Manager) Tunnels() map[shim.LinkID]Tunnel {
	r := make(map[shim.LinkID]Tunnel, len(m.tib))
	for id, e := range m.tib {
		r[id] = e.Tunnel
	}
	return r
}

// PendingHop returns the interface the pending request for id came from. Zero
// means this node originated the search.
func (m *Manager) PendingHop(id shim.LinkID) (uint16, bool) {
	pe, ok := m.prt[id]
	return pe.hop, ok
}

// Pending returns a copy of the pending request table.
func (m *Manager) Pending() map[shim.LinkID]uint16 {
	r := make(map[shim.LinkID]uint16, len(m.prt))
	for id, pe := range m.prt {
		r[id] = pe.hop
	}
	return r
}

// Buffered returns the number of payloads buffered for id.
func (m *Manager) Buffered(id shim.LinkID) int {
	return len(m.buffers[id])
}

// UserLink returns the interface registered for the direct link id.
func (m *Manager) UserLink(id shim.LinkID) (uint16, bool) {
	ifID, ok := m.links[id]
	return ifID, ok
}

// Stats returns a snapshot of the protocol counters.
func (m *Manager) Stats() Stats {
	s := m.stats
	s.Drops = make(map[DropReason]uint64, len(m.stats.Drops))
	for r, n := range m.stats.Drops {
		s.Drops[r] = n
	}
	s.Tunnels = len(m.tib)
	s.Pending = len(m.prt)
	s.Buffered = m.bufferedTotal()
	return s
}

func (m *Manager) bufferedTotal() int {
	n := 0
	for _, buf := range m.buffers {
		n += len(buf)
	}
	return n
}

func (m *Manager) drop(err error, id shim.LinkID, ifID uint16) {
	reason := reasonOf(err)
	m.stats.Drops[reason]++
	metrics.CounterInc(m.metrics.drops[reason])
	if m.logger.Enabled(log.DebugLevel) {
		m.logger.Debug("Dropping packet", "reason", reason, "link_id", id, "ifid", ifID,
			"err", err)
	}
}

func (m *Manager) countIn(t shim.PacketType) {
	switch t {
	case shim.TunnelRequest:
		m.stats.InRequests++
	case shim.TunnelAck:
		m.stats.InAcks++
	case shim.LinkPayload:
		m.stats.InPayloads++
	}
	metrics.CounterInc(m.metrics.in[t])
}

func (m *Manager) countOut(t shim.PacketType) {
	switch t {
	case shim.TunnelRequest:
		m.stats.OutRequests++
	case shim.TunnelAck:
		m.stats.OutAcks++
	case shim.LinkPayload:
		m.stats.OutPayloads++
	}
	metrics.CounterInc(m.metrics.out[t])
}

func (m *Manager) updateGauges() {
	metrics.GaugeSet(m.metrics.tunnels, float64(len(m.tib)))
	metrics.GaugeSet(m.metrics.pending, float64(len(m.prt)))
	metrics.GaugeSet(m.metrics.buffered, float64(m.bufferedTotal()))
}
