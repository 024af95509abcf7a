// Copyright 2020 Anapaya Systems
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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relayshim/relayshim/pkg/metrics"
	"github.com/relayshim/relayshim/pkg/shim"
)

// Metrics defines the tunnel shim metrics. One Metrics instance is shared by
// all Managers of a process; every series is labeled with the manager name.
type Metrics struct {
	InputPacketsTotal   *prometheus.CounterVec
	OutputPacketsTotal  *prometheus.CounterVec
	DroppedPacketsTotal *prometheus.CounterVec
	ExpiredEntriesTotal *prometheus.CounterVec
	SearchesTotal       *prometheus.CounterVec
	SearchFailuresTotal *prometheus.CounterVec
	Tunnels             *prometheus.GaugeVec
	PendingSearches     *prometheus.GaugeVec
	BufferedPackets     *prometheus.GaugeVec
}

// NewMetrics creates the shim metrics and registers them with the registry of
// f.
func NewMetrics(f metrics.Factory) *Metrics {
	gaugeVec := func(name, help string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"node"})
	}
	return &Metrics{
		InputPacketsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shim_input_pkts_total",
				Help: "Total number of adaptation packets received.",
			},
			[]string{"node", "type"},
		),
		OutputPacketsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shim_output_pkts_total",
				Help: "Total number of adaptation packets sent.",
			},
			[]string{"node", "type"},
		),
		DroppedPacketsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shim_dropped_pkts_total",
				Help: "Total number of packets dropped by the shim.",
			},
			[]string{"node", "reason"},
		),
		ExpiredEntriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shim_expired_entries_total",
				Help: "Total number of table entries removed by the expiry sweep.",
			},
			[]string{"node", "table"},
		),
		SearchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shim_searches_total",
				Help: "Total number of tunnel searches originated.",
			},
			[]string{"node"},
		),
		SearchFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shim_search_failures_total",
				Help: "Total number of tunnel searches given up after all retries.",
			},
			[]string{"node"},
		),
		Tunnels:         gaugeVec("shim_tunnels", "Number of established tunnel entries."),
		PendingSearches: gaugeVec("shim_pending_searches", "Number of pending search entries."),
		BufferedPackets: gaugeVec("shim_buffered_pkts", "Number of payloads awaiting a tunnel."),
	}
}

// nodeMetrics holds the series of one Manager. All fields may be nil.
type nodeMetrics struct {
	in       map[shim.PacketType]prometheus.Counter
	out      map[shim.PacketType]prometheus.Counter
	drops    map[DropReason]prometheus.Counter
	expired  map[string]prometheus.Counter
	searches prometheus.Counter
	failures prometheus.Counter
	tunnels  prometheus.Gauge
	pending  prometheus.Gauge
	buffered prometheus.Gauge
}

func (m *Metrics) forNode(node string) nodeMetrics {
	if m == nil {
		return nodeMetrics{}
	}
	nm := nodeMetrics{
		in:       make(map[shim.PacketType]prometheus.Counter),
		out:      make(map[shim.PacketType]prometheus.Counter),
		drops:    make(map[DropReason]prometheus.Counter),
		expired:  make(map[string]prometheus.Counter),
		searches: m.SearchesTotal.WithLabelValues(node),
		failures: m.SearchFailuresTotal.WithLabelValues(node),
		tunnels:  m.Tunnels.WithLabelValues(node),
		pending:  m.PendingSearches.WithLabelValues(node),
		buffered: m.BufferedPackets.WithLabelValues(node),
	}
	for _, t := range []shim.PacketType{shim.LinkPayload, shim.TunnelRequest, shim.TunnelAck} {
		nm.in[t] = m.InputPacketsTotal.WithLabelValues(node, t.String())
		nm.out[t] = m.OutputPacketsTotal.WithLabelValues(node, t.String())
	}
	for _, r := range dropReasons {
		nm.drops[r.reason] = m.DroppedPacketsTotal.WithLabelValues(node, string(r.reason))
	}
	for _, table := range []string{tableTIB, tablePRT, tableBuffer} {
		nm.expired[table] = m.ExpiredEntriesTotal.WithLabelValues(node, table)
	}
	return nm
}
