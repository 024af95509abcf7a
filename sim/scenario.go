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
	"context"
	"fmt"
	"time"

	"github.com/relayshim/relayshim/handover"
	hconfig "github.com/relayshim/relayshim/handover/config"
	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/private/config"
)

// EventKind is the kind of a scenario event.
type EventKind string

const (
	// EventBreak tears the link between From and To down.
	EventBreak EventKind = "break"
	// EventSend sends Count packets from From on its link to To.
	EventSend EventKind = "send"
	// EventDiscover makes From search the tunnel of its user link to To.
	EventDiscover EventKind = "discover"
)

// Scenario describes a topology and the events played on it. It is read from
// a TOML file:
//
//	[[node]]
//	name = "u"
//
//	[[link]]
//	a = "u"
//	b = "s1"
//	delay = "10ms"
//	user = true
//
//	[[event]]
//	at = "100ms"
//	kind = "break"
//	from = "u"
//	to = "s1"
type Scenario struct {
	Nodes  []NodeSpec  `toml:"node"`
	Links  []LinkSpec  `toml:"link"`
	Events []EventSpec `toml:"event"`
}

type NodeSpec struct {
	Name string `toml:"name"`
}

type LinkSpec struct {
	A string `toml:"a"`
	B string `toml:"b"`
	// Delay is the one-way delay. It defaults to the per hop delay of the
	// shim configuration.
	Delay config.Duration `toml:"delay,omitempty"`
	Local bool            `toml:"local,omitempty"`
	User  bool            `toml:"user,omitempty"`
}

type EventSpec struct {
	At   config.Duration `toml:"at"`
	Kind EventKind       `toml:"kind"`
	From string          `toml:"from"`
	To   string          `toml:"to"`
	// Payload of sent packets. Repeated packets get a sequence suffix.
	Payload string `toml:"payload,omitempty"`
	// Count of packets to send. (default 1)
	Count int `toml:"count,omitempty"`
	// Interval between repeated packets.
	Interval config.Duration `toml:"interval,omitempty"`
}

// LoadScenario reads and validates the scenario in file.
func LoadScenario(file string) (Scenario, error) {
	var s Scenario
	if err := config.LoadFile(file, &s); err != nil {
		return Scenario{}, err
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, serrors.Wrap("validating scenario", err, "file", file)
	}
	return s, nil
}

// Validate checks that the scenario is consistent.
func (s *Scenario) Validate() error {
	if len(s.Nodes) == 0 {
		return serrors.New("scenario has no nodes")
	}
	nodes := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.Name == "" {
			return serrors.New("node name must be set")
		}
		if nodes[n.Name] {
			return serrors.JoinNoStack(errDuplicate, nil, "node", n.Name)
		}
		nodes[n.Name] = true
	}
	for _, l := range s.Links {
		if !nodes[l.A] || !nodes[l.B] {
			return serrors.JoinNoStack(errUnknownNode, nil, "link", l.A+"-"+l.B)
		}
	}
	for i, e := range s.Events {
		if !nodes[e.From] || !nodes[e.To] {
			return serrors.JoinNoStack(errUnknownNode, nil, "event", i, "from", e.From, "to", e.To)
		}
		switch e.Kind {
		case EventBreak, EventSend, EventDiscover:
		default:
			return serrors.New("unknown event kind", "event", i, "kind", e.Kind)
		}
		if e.At.Duration < 0 || e.Count < 0 || e.Interval.Duration < 0 {
			return serrors.New("negative event setting", "event", i)
		}
	}
	return nil
}

// Build creates the network described by s and schedules its events relative
// to the current time of sched.
func Build(s Scenario, cfg hconfig.Shim, sched *Scheduler,
	opts ...NetworkOption) (*Network, error) {

	cfg.InitDefaults()
	n := NewNetwork(cfg, sched, opts...)
	for _, spec := range s.Nodes {
		if _, err := n.AddNode(spec.Name); err != nil {
			return nil, err
		}
	}
	for _, spec := range s.Links {
		delay := spec.Delay.Duration
		if delay == 0 {
			delay = cfg.PerHopDelay.Duration
		}
		_, err := n.Connect(spec.A, spec.B, delay, LinkOptions{Local: spec.Local, User: spec.User})
		if err != nil {
			return nil, err
		}
	}
	for _, e := range s.Events {
		n.schedule(e)
	}
	return n, nil
}

func (n *Network) schedule(e EventSpec) {
	switch e.Kind {
	case EventBreak:
		n.sched.After(e.At.Duration, func() {
			n.report(e, n.Break(e.From, e.To))
		})
	case EventDiscover:
		n.sched.After(e.At.Duration, func() {
			n.report(e, n.Discover(e.From, e.To))
		})
	case EventSend:
		count := max(e.Count, 1)
		for i := range count {
			p := e.Payload
			if p == "" {
				p = fmt.Sprintf("%s->%s", e.From, e.To)
			}
			if count > 1 {
				p = fmt.Sprintf("%s#%d", p, i)
			}
			at := e.At.Duration + time.Duration(i)*e.Interval.Duration
			n.sched.After(at, func() {
				n.report(e, n.Send(e.From, e.To, handover.InnerPacket(p)))
			})
		}
	}
}

func (n *Network) report(e EventSpec, err error) {
	if err != nil {
		n.logger.Info("Scenario event failed", "kind", e.Kind, "from", e.From, "to", e.To,
			"err", err)
	}
}

// Run plays the network for d of virtual time and sweeps the tables of all
// nodes every sweep.
func (n *Network) Run(ctx context.Context, d, sweep time.Duration) error {
	if sweep > 0 {
		n.sched.Every(sweep, n.Expire)
	}
	return n.sched.Run(ctx, n.sched.Now().Add(d))
}
