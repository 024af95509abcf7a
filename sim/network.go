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

package sim

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/relayshim/relayshim/handover"
	"github.com/relayshim/relayshim/handover/config"
	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/pkg/shim"
)

var (
	errUnknownNode = errors.New("unknown node")
	errUnknownLink = errors.New("unknown link")
	errDuplicate   = errors.New("duplicate")
	errLinkDown    = errors.New("link down")
)

// Delivery is an inner packet handed to the stack of a node.
type Delivery struct {
	At     time.Time
	IfID   uint16
	Packet handover.InnerPacket
}

// Node is a simulated node. Its stack records every delivered packet.
type Node struct {
	Name    string
	Addr    net.HardwareAddr
	Manager *handover.Manager

	net       *Network
	ports     map[uint16]*port
	nextIfID  uint16
	received  []Delivery
	resending map[shim.LinkID]bool
}

// Receive implements handover.Stack.
func (n *Node) Receive(ifID uint16, p handover.InnerPacket) {
	n.received = append(n.received, Delivery{
		At:     n.net.sched.Now(),
		IfID:   ifID,
		Packet: bytes.Clone(p),
	})
}

// Received returns the packets delivered to the stack of n, in order.
func (n *Node) Received() []Delivery {
	return append([]Delivery(nil), n.received...)
}

// IfIDTo returns the interface of n that connects to the node peer.
func (n *Node) IfIDTo(peer string) (uint16, bool) {
	for ifID, p := range n.ports {
		if p.peer.node.Name == peer {
			return ifID, true
		}
	}
	return 0, false
}

// port is one end of a Link. It is the Device below the node's Transport.
type port struct {
	node      *Node
	ifID      uint16
	link      *Link
	peer      *port
	transport *handover.Transport
}

// Send implements handover.Device.
func (p *port) Send(raw []byte) error {
	if p.link.broken {
		return errLinkDown
	}
	p.node.net.transmit(p, raw)
	return nil
}

// Link is a point-to-point link between two nodes.
type Link struct {
	// ID is set for user links, whose endpoints keep it in their link
	// registry.
	ID    shim.LinkID
	Delay time.Duration
	Scope handover.LinkScope

	a, b   *port
	broken bool
}

// Name returns "<a>-<b>" with the node names of both ends.
func (l *Link) Name() string {
	return l.a.node.Name + "-" + l.b.node.Name
}

// Broken reports whether the link was torn down.
func (l *Link) Broken() bool {
	return l.broken
}

// LinkOptions are the properties of a link besides its delay.
type LinkOptions struct {
	// Local gives both ends local scope.
	Local bool
	// User makes the link a direct user link: both ends register it in their
	// link registry.
	User bool
}

// NetworkOption configures a Network.
type NetworkOption func(*Network)

// WithMetrics makes the Managers of the network report to m.
func WithMetrics(m *handover.Metrics) NetworkOption {
	return func(n *Network) {
		n.metrics = m
	}
}

// WithLogger sets the logger of the network and its nodes.
func WithLogger(l log.Logger) NetworkOption {
	return func(n *Network) {
		n.logger = l
	}
}

// WithTracer sets the tracer of the Managers.
func WithTracer(t opentracing.Tracer) NetworkOption {
	return func(n *Network) {
		n.tracer = t
	}
}

// WithTrace captures every frame put on the medium to t.
func WithTrace(t *Trace) NetworkOption {
	return func(n *Network) {
		n.trace = t
	}
}

// Network is a set of nodes connected by point-to-point links. Frames on a
// link are delivered after the link delay, in the order they were sent.
type Network struct {
	cfg     config.Shim
	sched   *Scheduler
	nodes   map[string]*Node
	order   []*Node
	links   map[string]*Link
	metrics *handover.Metrics
	tracer  opentracing.Tracer
	trace   *Trace
	logger  log.Logger
	lost    int
}

// NewNetwork creates an empty network whose nodes run the shim with cfg.
func NewNetwork(cfg config.Shim, sched *Scheduler, opts ...NetworkOption) *Network {
	cfg.InitDefaults()
	n := &Network{
		cfg:    cfg,
		sched:  sched,
		nodes:  make(map[string]*Node),
		links:  make(map[string]*Link),
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Scheduler returns the scheduler driving the network.
func (n *Network) Scheduler() *Scheduler {
	return n.sched
}

// AddNode adds a node. Nodes get hardware addresses in the order they are
// added.
func (n *Network) AddNode(name string) (*Node, error) {
	if name == "" {
		return nil, serrors.New("node name must be set")
	}
	if _, ok := n.nodes[name]; ok {
		return nil, serrors.JoinNoStack(errDuplicate, nil, "node", name)
	}
	idx := len(n.order) + 1
	addr := net.HardwareAddr{0x02, 0, 0, 0, byte(idx >> 8), byte(idx)}
	opts := []handover.Option{
		handover.WithName(name),
		handover.WithAddr(addr),
		handover.WithClock(n.sched.Now),
		handover.WithMetrics(n.metrics),
		handover.WithLogger(n.logger),
	}
	if n.tracer != nil {
		opts = append(opts, handover.WithTracer(n.tracer))
	}
	node := &Node{
		Name:      name,
		Addr:      addr,
		Manager:   handover.NewManager(n.cfg, opts...),
		net:       n,
		ports:     make(map[uint16]*port),
		resending: make(map[shim.LinkID]bool),
	}
	n.nodes[name] = node
	n.order = append(n.order, node)
	return node, nil
}

// Node returns the node called name.
func (n *Network) Node(name string) (*Node, bool) {
	node, ok := n.nodes[name]
	return node, ok
}

// Nodes returns the nodes in the order they were added.
func (n *Network) Nodes() []*Node {
	return append([]*Node(nil), n.order...)
}

// Connect links the nodes a and b. Each node gets a new interface for the
// link, numbered from 1 in the order of Connect calls.
func (n *Network) Connect(a, b string, delay time.Duration, opts LinkOptions) (*Link, error) {
	na, ok := n.nodes[a]
	if !ok {
		return nil, serrors.JoinNoStack(errUnknownNode, nil, "node", a)
	}
	nb, ok := n.nodes[b]
	if !ok {
		return nil, serrors.JoinNoStack(errUnknownNode, nil, "node", b)
	}
	if a == b {
		return nil, serrors.New("link must connect two nodes", "node", a)
	}
	if _, ok := n.Link(a, b); ok {
		return nil, serrors.JoinNoStack(errDuplicate, nil, "link", a+"-"+b)
	}
	if delay < 0 {
		return nil, serrors.New("negative link delay", "link", a+"-"+b, "delay", delay)
	}
	l := &Link{Delay: delay}
	if opts.Local {
		l.Scope = handover.Local
	}
	pa, err := n.attach(na, l)
	if err != nil {
		return nil, err
	}
	pb, err := n.attach(nb, l)
	if err != nil {
		return nil, err
	}
	l.a, l.b = pa, pb
	pa.peer, pb.peer = pb, pa
	n.links[l.Name()] = l

	if opts.User {
		l.ID = shim.MakeLinkID(na.Addr, nb.Addr)
		for _, p := range []*port{pa, pb} {
			if err := p.transport.SetLinkID(l.ID); err != nil {
				return nil, err
			}
			if err := p.node.Manager.AddUserLink(l.ID, p.ifID); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

func (n *Network) attach(node *Node, l *Link) (*port, error) {
	node.nextIfID++
	p := &port{node: node, ifID: node.nextIfID, link: l}
	t, err := handover.NewTransport(handover.TransportConfig{
		IfID:     p.ifID,
		Scope:    l.Scope,
		Device:   p,
		Stack:    node,
		Manager:  node.Manager,
		Disabled: n.cfg.Disabled,
		Logger:   n.logger.New("node", node.Name),
	})
	if err != nil {
		return nil, err
	}
	p.transport = t
	if err := node.Manager.AddInterface(t); err != nil {
		return nil, err
	}
	node.ports[p.ifID] = p
	return p, nil
}

// Link returns the link between a and b, in either direction.
func (n *Network) Link(a, b string) (*Link, bool) {
	if l, ok := n.links[a+"-"+b]; ok {
		return l, true
	}
	l, ok := n.links[b+"-"+a]
	return l, ok
}

// Links returns all links sorted by name.
func (n *Network) Links() []*Link {
	r := make([]*Link, 0, len(n.links))
	for _, l := range n.links {
		r = append(r, l)
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Name() < r[j].Name() })
	return r
}

// Break tears the link between a and b down. Frames in flight are lost and
// both transports are marked gone.
func (n *Network) Break(a, b string) error {
	l, ok := n.Link(a, b)
	if !ok {
		return serrors.JoinNoStack(errUnknownLink, nil, "link", a+"-"+b)
	}
	l.broken = true
	l.a.transport.MarkGone()
	l.b.transport.MarkGone()
	n.logger.Debug("Link broken", "link", l.Name(), "link_id", l.ID)
	return nil
}

// Send hands p to the stack of from for transmission on the link to to. If
// the link is gone, the packet is tunneled.
func (n *Network) Send(from, to string, p handover.InnerPacket) error {
	node, pt, err := n.endpoint(from, to)
	if err != nil {
		return err
	}
	if err := pt.transport.Send(p); err != nil {
		return serrors.Wrap("sending packet", err, "node", from, "ifid", pt.ifID)
	}
	n.watchSearch(node, pt.link.ID)
	return nil
}

// Discover makes from search a tunnel for its user link to to.
func (n *Network) Discover(from, to string) error {
	node, pt, err := n.endpoint(from, to)
	if err != nil {
		return err
	}
	if pt.link.ID == "" {
		return serrors.New("not a user link", "link", pt.link.Name())
	}
	node.Manager.Discover(pt.link.ID)
	n.watchSearch(node, pt.link.ID)
	return nil
}

func (n *Network) endpoint(from, to string) (*Node, *port, error) {
	node, ok := n.nodes[from]
	if !ok {
		return nil, nil, serrors.JoinNoStack(errUnknownNode, nil, "node", from)
	}
	ifID, ok := node.IfIDTo(to)
	if !ok {
		return nil, nil, serrors.JoinNoStack(errUnknownLink, nil, "link", from+"-"+to)
	}
	return node, node.ports[ifID], nil
}

// watchSearch schedules the search timeout check if node originated a search
// for id that is not yet watched.
func (n *Network) watchSearch(node *Node, id shim.LinkID) {
	if id == "" || node.resending[id] {
		return
	}
	if hop, ok := node.Manager.PendingHop(id); !ok || hop != 0 {
		return
	}
	node.resending[id] = true
	var check func()
	check = func() {
		if node.Manager.Resend(id) {
			n.sched.After(node.Manager.SearchTimeout(), check)
			return
		}
		delete(node.resending, id)
	}
	n.sched.After(node.Manager.SearchTimeout(), check)
}

func (n *Network) transmit(from *port, raw []byte) {
	if n.trace != nil {
		if err := n.trace.Capture(n.sched.Now(), from.ifID, raw); err != nil {
			n.logger.Error("Capturing frame failed", "err", err)
		}
	}
	frame := bytes.Clone(raw)
	to := from.peer
	n.sched.After(from.link.Delay, func() {
		if from.link.broken {
			n.lost++
			return
		}
		to.transport.Receive(frame)
	})
}

// Lost returns the number of frames lost in flight on broken links.
func (n *Network) Lost() int {
	return n.lost
}

// Expire runs the table expiry sweep on every node.
func (n *Network) Expire() {
	now := n.sched.Now()
	for _, node := range n.order {
		s := node.Manager.Expire(now)
		if s != (handover.ExpireStats{}) {
			n.logger.Debug("Expired entries", "node", node.Name, "tunnels", s.Tunnels,
				"pending", s.Pending, "buffers", s.Buffers)
		}
	}
}

// TunnelState is the state of one link ID at one node.
type TunnelState struct {
	Node       string
	LinkID     shim.LinkID
	Tunnel     handover.Tunnel
	HasTunnel  bool
	PendingHop uint16
	HasPending bool
	Buffered   int
	// Registered is set at the endpoints of the link.
	Registered bool
}

func (s TunnelState) String() string {
	tunnel, pending := "none", "none"
	if s.HasTunnel {
		tunnel = s.Tunnel.String()
	}
	if s.HasPending {
		pending = fmt.Sprint(s.PendingHop)
	}
	return fmt.Sprintf("%s %s tunnel=%s pending=%s buffered=%d",
		s.Node, s.LinkID, tunnel, pending, s.Buffered)
}

// States returns the state of every link ID known at any node, ordered by
// node and link ID.
func (n *Network) States() []TunnelState {
	var r []TunnelState
	for _, node := range n.order {
		ids := make(map[shim.LinkID]struct{})
		for id := range node.Manager.Tunnels() {
			ids[id] = struct{}{}
		}
		for id := range node.Manager.Pending() {
			ids[id] = struct{}{}
		}
		for _, p := range node.ports {
			if p.link.ID != "" {
				ids[p.link.ID] = struct{}{}
			}
		}
		sorted := make([]shim.LinkID, 0, len(ids))
		for id := range ids {
			sorted = append(sorted, id)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, id := range sorted {
			s := TunnelState{Node: node.Name, LinkID: id, Buffered: node.Manager.Buffered(id)}
			s.Tunnel, s.HasTunnel = node.Manager.Tunnel(id)
			s.PendingHop, s.HasPending = node.Manager.PendingHop(id)
			_, s.Registered = node.Manager.UserLink(id)
			r = append(r, s)
		}
	}
	return r
}
