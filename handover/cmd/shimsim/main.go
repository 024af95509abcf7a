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

// Shimsim plays a scenario of moving users and breaking links on a simulated
// network of tunnel shim nodes and reports the resulting tunnel state.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/relayshim/relayshim/handover"
	"github.com/relayshim/relayshim/handover/config"
	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/pkg/metrics"
	"github.com/relayshim/relayshim/private/app/command"
	"github.com/relayshim/relayshim/private/app/launcher"
	"github.com/relayshim/relayshim/sim"
)

var globalCfg config.Config

func main() {
	application := launcher.Application{
		TOMLConfig: &globalCfg,
		ShortName:  "Shim Simulator",
		Samplers: []func(command.Pather) *cobra.Command{
			command.NewSampleString("scenario", "Display sample scenario file",
				sim.SampleScenario),
		},
		Main: realMain,
	}
	application.Run()
}

func realMain(ctx context.Context) error {
	return run(ctx, &globalCfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer,
		os.Stdout)
}

func run(ctx context.Context, cfg *config.Config, reg prometheus.Registerer,
	gatherer prometheus.Gatherer, w io.Writer) error {

	g, errCtx := errgroup.WithContext(ctx)
	exportCtx, stopExport := context.WithCancel(errCtx)
	defer stopExport()

	g.Go(func() error {
		defer log.HandlePanic()
		return cfg.Metrics.ServePrometheus(exportCtx, gatherer)
	})
	g.Go(func() error {
		defer log.HandlePanic()
		defer stopExport()
		return simulate(errCtx, cfg, reg, w)
	})
	return g.Wait()
}

func simulate(ctx context.Context, cfg *config.Config, reg prometheus.Registerer,
	w io.Writer) error {

	ctx, logger := log.WithLabels(ctx, "scenario", cfg.Scenario.File)
	scenario, err := sim.LoadScenario(cfg.Scenario.File)
	if err != nil {
		return err
	}
	opts := []sim.NetworkOption{
		sim.WithLogger(logger),
		sim.WithMetrics(handover.NewMetrics(metrics.New(metrics.WithRegistry(reg)))),
	}
	if cfg.Scenario.Pcap != "" {
		trace, err := sim.CreateTrace(cfg.Scenario.Pcap)
		if err != nil {
			return err
		}
		defer func() {
			if err := trace.Close(); err != nil {
				logger.Error("Closing trace", "file", cfg.Scenario.Pcap, "err", err)
			}
		}()
		opts = append(opts, sim.WithTrace(trace))
	}

	sched := sim.NewScheduler(time.Unix(0, 0).UTC())
	network, err := sim.Build(scenario, cfg.Shim, sched, opts...)
	if err != nil {
		return err
	}
	logger.Info("Running scenario", "nodes", len(network.Nodes()),
		"links", len(network.Links()), "duration", cfg.Scenario.Duration.Duration)
	err = network.Run(ctx, cfg.Scenario.Duration.Duration, cfg.Scenario.SweepInterval.Duration)
	if err != nil {
		return err
	}
	logger.Info("Scenario finished", "lost", network.Lost())
	report(w, network)
	return nil
}

func report(w io.Writer, network *sim.Network) {
	var rows [][]string
	for _, s := range network.States() {
		tunnel, pending := "-", "-"
		if s.HasTunnel {
			tunnel = s.Tunnel.String()
		}
		if s.HasPending {
			pending = fmt.Sprint(s.PendingHop)
		}
		rows = append(rows, []string{
			s.Node,
			string(s.LinkID),
			tunnel,
			pending,
			fmt.Sprint(s.Buffered),
		})
	}
	table := newTable(w)
	table.SetHeader([]string{"NODE", "LINK", "TUNNEL", "PENDING", "BUFFERED"})
	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintln(w)
	rows = rows[:0]
	for _, node := range network.Nodes() {
		rows = append(rows, []string{
			node.Name,
			node.Addr.String(),
			fmt.Sprint(len(node.Received())),
		})
	}
	table = newTable(w)
	table.SetHeader([]string{"NODE", "ADDRESS", "DELIVERED"})
	table.AppendBulk(rows)
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}
