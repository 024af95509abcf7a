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

// Package sim is a small discrete-event harness for the tunnel shim. Nodes
// run a handover.Manager each and exchange frames over point-to-point links
// of a simulated medium. All events run on a single goroutine in virtual time.
package sim

import (
	"container/heap"
	"context"
	"time"

	"github.com/relayshim/relayshim/pkg/private/serrors"
)

// ctxCheckInterval is the number of events between two context checks.
const ctxCheckInterval = 1024

// Scheduler is a virtual clock with an event queue. Events with the same
// timestamp run in the order they were scheduled.
type Scheduler struct {
	now   time.Time
	seq   uint64
	queue eventQueue
}

// NewScheduler returns a scheduler whose clock starts at start.
func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// At schedules fn at t. Times in the past are clamped to now.
func (s *Scheduler) At(t time.Time, fn func()) {
	if t.Before(s.now) {
		t = s.now
	}
	s.seq++
	heap.Push(&s.queue, &event{at: t, seq: s.seq, fn: fn})
}

// After schedules fn d after now.
func (s *Scheduler) After(d time.Duration, fn func()) {
	s.At(s.now.Add(d), fn)
}

// Every schedules fn every period starting one period from now, until the
// scheduler is no longer run.
func (s *Scheduler) Every(period time.Duration, fn func()) {
	var tick func()
	tick = func() {
		fn()
		s.After(period, tick)
	}
	s.After(period, tick)
}

// Pending returns the number of scheduled events.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Step runs the next event. It reports false if the queue is empty.
func (s *Scheduler) Step() bool {
	if len(s.queue) == 0 {
		return false
	}
	e := heap.Pop(&s.queue).(*event)
	s.now = e.at
	e.fn()
	return true
}

// Run runs all events scheduled up to and including until and then advances
// the clock to until. It returns early if ctx is done.
func (s *Scheduler) Run(ctx context.Context, until time.Time) error {
	for n := 0; len(s.queue) > 0 && !s.queue[0].at.After(until); n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return serrors.Wrap("simulation interrupted", err, "now", s.now)
			}
		}
		s.Step()
	}
	if until.After(s.now) {
		s.now = until
	}
	return nil
}

type event struct {
	at  time.Time
	seq uint64
	fn  func()
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
