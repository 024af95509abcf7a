// Copyright 2018 ETH Zurich, Anapaya Systems
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

// Package env contains configuration blocks and initialization code shared by
// all relayshim binaries. Anything specific to one binary belongs with that
// binary.
package env

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/private/config"
)

const (
	// ShutdownGraceInterval is the time binaries wait after a clean shutdown
	// was requested, before tearing down forcefully.
	ShutdownGraceInterval = 5 * time.Second

	// HandlerTimeout is the time after which the metrics handler gives up on
	// a request and returns an error instead.
	HandlerTimeout = time.Minute
)

var _ config.Config = (*General)(nil)

// General holds the settings every binary has.
type General struct {
	// ID identifies this instance in logs and file names.
	ID string `toml:"id,omitempty"`
}

// InitDefaults is a no-op; the ID has no default.
func (cfg *General) InitDefaults() {}

// Validate checks that an ID is set.
func (cfg *General) Validate() error {
	if cfg.ID == "" {
		return serrors.New("no instance id specified")
	}
	return nil
}

// Sample writes the sample configuration to dst.
func (cfg *General) Sample(dst io.Writer, _ config.Path, ctx config.CtxMap) {
	config.WriteString(dst, fmt.Sprintf(generalSample, ctx[config.ID]))
}

// ConfigName returns the name of this config.
func (cfg *General) ConfigName() string {
	return "general"
}

var _ config.Config = (*Metrics)(nil)

// Metrics configures the prometheus endpoint.
type Metrics struct {
	config.NoDefaulter
	config.NoValidator
	// Prometheus is the address to export prometheus metrics on. If not set,
	// metrics are not exported.
	Prometheus string `toml:"prometheus,omitempty"`
}

// Sample writes the sample configuration to dst.
func (cfg *Metrics) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, metricsSample)
}

// ConfigName returns the name of this config.
func (cfg *Metrics) ConfigName() string {
	return "metrics"
}

// ServePrometheus serves the metrics of gatherer on /metrics until ctx is
// done. It returns immediately if no address is configured.
func (cfg *Metrics) ServePrometheus(ctx context.Context, gatherer prometheus.Gatherer) error {
	if cfg.Prometheus == "" {
		return nil
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		Timeout: HandlerTimeout,
	}))
	log.Info("Exporting prometheus metrics", "addr", cfg.Prometheus)

	server := &http.Server{Addr: cfg.Prometheus, Handler: mux}
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		server.Close()
	}()
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return serrors.Wrap("serving prometheus metrics", err)
	}
	return nil
}

// LogAppStarted logs the start of a binary together with its build version.
func LogAppStarted(name, id string) {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	log.Info(fmt.Sprintf("=====================> %s started", name),
		"id", id, "version", version, "pid", os.Getpid())
}

// LogAppStopped logs the end of a binary.
func LogAppStopped(name, id string) {
	log.Info(fmt.Sprintf("=====================> %s stopped", name), "id", id)
}
