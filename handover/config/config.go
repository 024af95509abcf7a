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

// Package config contains the configuration of a tunnel shim node and of the
// shimsim simulator.
package config

import (
	"io"
	"time"

	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/private/config"
	"github.com/relayshim/relayshim/private/env"
)

const (
	// DefaultHopLimit bounds the flooding radius of a tunnel search.
	DefaultHopLimit = 2
	// DefaultPerHopDelay is the expected one-way delay of a single hop.
	DefaultPerHopDelay = 10 * time.Millisecond
	// DefaultSearchMargin is added to the round trip of a search before it is
	// considered failed.
	DefaultSearchMargin = 5 * time.Millisecond
	// DefaultMaxBuffered is the number of payloads buffered per link while
	// the tunnel is being searched.
	DefaultMaxBuffered = 64
	// DefaultSweepInterval is the period of the table expiry sweep in the
	// simulator.
	DefaultSweepInterval = 100 * time.Millisecond
	// DefaultDuration is the simulated time a scenario runs for.
	DefaultDuration = 10 * time.Second
)

var _ config.Config = (*Config)(nil)

// Config is the configuration of the shimsim binary.
type Config struct {
	General  env.General `toml:"general,omitempty"`
	Log      log.Config  `toml:"log,omitempty"`
	Metrics  env.Metrics `toml:"metrics,omitempty"`
	Shim     Shim        `toml:"shim,omitempty"`
	Scenario Scenario    `toml:"scenario,omitempty"`
}

func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Log,
		&cfg.Metrics,
		&cfg.Shim,
		&cfg.Scenario,
	)
}

func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Log,
		&cfg.Metrics,
		&cfg.Shim,
		&cfg.Scenario,
	)
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: idSample},
		&cfg.General,
		&cfg.Log,
		&cfg.Metrics,
		&cfg.Shim,
		&cfg.Scenario,
	)
}

func (cfg *Config) ConfigName() string {
	return "shimsim_config"
}

// Logging returns the logging block, including the file sink.
func (cfg *Config) Logging() log.Config {
	return cfg.Log
}

var _ config.Config = (*Shim)(nil)

// Shim configures the tunnel discovery and relay protocol of one node.
type Shim struct {
	// Disabled turns the shim off: traffic for a broken link is discarded and
	// adaptation packets are ignored.
	Disabled bool `toml:"disabled,omitempty"`
	// HopLimit is the maximum number of hops a tunnel request travels.
	// (default 2)
	HopLimit uint64 `toml:"hop_limit,omitempty"`
	// PerHopDelay is the expected one-way delay of one hop. (default 10ms)
	PerHopDelay config.Duration `toml:"per_hop_delay,omitempty"`
	// SearchMargin is added to the search round trip. (default 5ms)
	SearchMargin config.Duration `toml:"search_margin,omitempty"`
	// MaxBuffered is the number of payloads kept per link while its tunnel
	// is searched. The oldest payload is evicted on overflow. (default 64)
	MaxBuffered int `toml:"max_buffered,omitempty"`
	// TunnelIdleTimeout retires tunnels that carried no payload for this
	// long. Zero keeps tunnels forever. (default 0)
	TunnelIdleTimeout config.Duration `toml:"tunnel_idle_timeout,omitempty"`
	// PendingTimeout retires pending search entries older than this. Zero
	// uses the search timeout. (default 0)
	PendingTimeout config.Duration `toml:"pending_timeout,omitempty"`
	// FloodLocal includes interfaces of local scope in request flooding.
	FloodLocal bool `toml:"flood_local,omitempty"`
	// MaxRetries is the number of times the origin repeats a failed search.
	// (default 0)
	MaxRetries int `toml:"max_retries,omitempty"`
}

func (cfg *Shim) InitDefaults() {
	if cfg.HopLimit == 0 {
		cfg.HopLimit = DefaultHopLimit
	}
	if cfg.PerHopDelay.Duration == 0 {
		cfg.PerHopDelay.Duration = DefaultPerHopDelay
	}
	if cfg.SearchMargin.Duration == 0 {
		cfg.SearchMargin.Duration = DefaultSearchMargin
	}
	if cfg.MaxBuffered == 0 {
		cfg.MaxBuffered = DefaultMaxBuffered
	}
}

func (cfg *Shim) Validate() error {
	switch {
	case cfg.HopLimit == 0:
		return serrors.New("hop_limit must be positive")
	case cfg.PerHopDelay.Duration <= 0:
		return serrors.New("per_hop_delay must be positive",
			"per_hop_delay", cfg.PerHopDelay.Duration)
	case cfg.SearchMargin.Duration < 0:
		return serrors.New("search_margin must not be negative",
			"search_margin", cfg.SearchMargin.Duration)
	case cfg.MaxBuffered <= 0:
		return serrors.New("max_buffered must be positive", "max_buffered", cfg.MaxBuffered)
	case cfg.TunnelIdleTimeout.Duration < 0:
		return serrors.New("tunnel_idle_timeout must not be negative",
			"tunnel_idle_timeout", cfg.TunnelIdleTimeout.Duration)
	case cfg.PendingTimeout.Duration < 0:
		return serrors.New("pending_timeout must not be negative",
			"pending_timeout", cfg.PendingTimeout.Duration)
	case cfg.MaxRetries < 0:
		return serrors.New("max_retries must not be negative", "max_retries", cfg.MaxRetries)
	}
	return nil
}

// SearchTimeout is the time after which the origin of a search gives up on
// an acknowledgment: a full round trip at the hop limit plus the margin.
func (cfg *Shim) SearchTimeout() time.Duration {
	return time.Duration(cfg.HopLimit)*cfg.PerHopDelay.Duration*2 + cfg.SearchMargin.Duration
}

func (cfg *Shim) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, shimSample)
}

func (cfg *Shim) ConfigName() string {
	return "shim"
}

var _ config.Config = (*Scenario)(nil)

// Scenario selects the simulated scenario and how it is run.
type Scenario struct {
	// File is the scenario file. Relative paths are resolved against the
	// working directory. (required)
	File string `toml:"file,omitempty"`
	// Duration is the simulated time to run for. (default 10s)
	Duration config.Duration `toml:"duration,omitempty"`
	// SweepInterval is the period of the table expiry sweep. (default 100ms)
	SweepInterval config.Duration `toml:"sweep_interval,omitempty"`
	// Pcap is the file every frame put on the simulated medium is captured
	// to. Empty disables the capture.
	Pcap string `toml:"pcap,omitempty"`
}

func (cfg *Scenario) InitDefaults() {
	if cfg.Duration.Duration == 0 {
		cfg.Duration.Duration = DefaultDuration
	}
	if cfg.SweepInterval.Duration == 0 {
		cfg.SweepInterval.Duration = DefaultSweepInterval
	}
}

func (cfg *Scenario) Validate() error {
	if cfg.File == "" {
		return serrors.New("scenario file must be set")
	}
	if cfg.Duration.Duration <= 0 || cfg.SweepInterval.Duration <= 0 {
		return serrors.New("scenario durations must be positive",
			"duration", cfg.Duration.Duration, "sweep_interval", cfg.SweepInterval.Duration)
	}
	return nil
}

func (cfg *Scenario) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, scenarioSample)
}

func (cfg *Scenario) ConfigName() string {
	return "scenario"
}
