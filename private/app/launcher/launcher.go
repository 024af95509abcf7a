// Copyright 2020 Anapaya Systems
// Copyright 2024 OVGU Magdeburg
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

// Package launcher contains the harness every relayshim binary runs in. It
// parses the command line, loads the TOML configuration, sets up logging and
// then hands control to the application.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/pkg/metrics"
	"github.com/relayshim/relayshim/pkg/private/prom"
	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/private/app/command"
	libconfig "github.com/relayshim/relayshim/private/config"
	"github.com/relayshim/relayshim/private/env"
)

// Configuration keys read by the launcher itself.
const (
	cfgConfigFile       = "config"
	cfgGeneralID        = "general.id"
	cfgLogConsoleLevel  = "log.console.level"
	cfgLogConsoleFormat = "log.console.format"
)

// LoggingConfig is implemented by application configs that carry a complete
// logging block. Without it, only the console settings are read from the
// config file.
type LoggingConfig interface {
	Logging() log.Config
}

// Application models a relayshim binary.
type Application struct {
	// TOMLConfig holds the Go data structure for the application-specific
	// TOML configuration. If it implements LoggingConfig, logging is set up
	// from it.
	TOMLConfig libconfig.Config

	// Samplers contains additional samplers listed under the sample
	// subcommand next to the config sampler.
	Samplers []func(command.Pather) *cobra.Command

	// ShortName is the short name of the application. If empty, the
	// executable name is used.
	ShortName string

	// Main is the custom logic of the application. If nil, only the
	// setup/teardown harness runs. If Main returns an error, Run exits with a
	// non-zero exit code.
	Main func(ctx context.Context) error

	// Registerer receives the log entry counters. If nil, the default
	// prometheus registerer is used.
	Registerer prometheus.Registerer

	// ErrorWriter specifies where error output should be printed. If nil,
	// os.Stderr is used.
	ErrorWriter io.Writer

	cmd    *cobra.Command
	config *viper.Viper
}

// Run sets up the common harness and then passes control to the Main
// function. It reads the command line from os.Args and exits the process on
// a fatal error.
func (a *Application) Run() {
	if err := a.run(os.Args[1:]); err != nil {
		fmt.Fprintf(a.getErrorWriter(), "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func (a *Application) run(args []string) error {
	executable := filepath.Base(os.Args[0])
	shortName := a.getShortName(executable)

	a.cmd = newCommandTemplate(executable, shortName, a.TOMLConfig, a.Samplers...)
	a.cmd.SetArgs(args)
	a.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.executeCommand(cmd.Context(), shortName)
	}
	a.config = viper.New()
	a.config.SetDefault(cfgLogConsoleLevel, log.DefaultConsoleLevel)
	a.config.SetDefault(cfgLogConsoleFormat, "human")
	a.config.SetDefault(cfgGeneralID, executable)
	// The config file location is only known once the flags are parsed.
	if err := a.config.BindPFlag(cfgConfigFile, a.cmd.Flags().Lookup(cfgConfigFile)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.cmd.ExecuteContext(ctx)
}

func (a *Application) getShortName(executable string) string {
	if a.ShortName != "" {
		return a.ShortName
	}
	return executable
}

func (a *Application) executeCommand(ctx context.Context, shortName string) error {
	os.Setenv("TZ", "UTC")

	// Launcher settings come from the same file as the application config.
	file := a.config.GetString(cfgConfigFile)
	a.config.SetConfigType("toml")
	a.config.SetConfigFile(file)
	if err := a.config.ReadInConfig(); err != nil {
		return serrors.Wrap("loading generic config from file", err, "file", file)
	}
	if err := libconfig.LoadFile(file, a.TOMLConfig); err != nil {
		return serrors.Wrap("loading config from file", err, "file", file)
	}
	a.TOMLConfig.InitDefaults()

	logEntriesTotal := metrics.New(metrics.WithRegistry(a.Registerer)).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lib_log_emitted_entries_total",
			Help: "Total number of log entries emitted.",
		},
		[]string{"level"},
	)
	opt := log.WithEntriesCounter(log.EntriesCounter{
		Debug: logEntriesTotal.With(prometheus.Labels{"level": "debug"}),
		Info:  logEntriesTotal.With(prometheus.Labels{"level": "info"}),
		Error: logEntriesTotal.With(prometheus.Labels{"level": "error"}),
	})
	if err := log.Setup(a.getLogging(), opt); err != nil {
		return serrors.Wrap("initialize logging", err)
	}
	defer log.Flush()

	id := a.config.GetString(cfgGeneralID)
	env.LogAppStarted(shortName, id)
	defer env.LogAppStopped(shortName, id)
	defer log.HandlePanic()

	prom.ExportBuildInfo(a.Registerer)
	prom.ExportElementID(a.Registerer, id)
	if err := a.TOMLConfig.Validate(); err != nil {
		return serrors.Wrap("validate config", err)
	}
	if a.Main == nil {
		return nil
	}
	return a.Main(ctx)
}

func (a *Application) getLogging() log.Config {
	if lc, ok := a.TOMLConfig.(LoggingConfig); ok {
		return lc.Logging()
	}
	return log.Config{
		Console: log.ConsoleConfig{
			Level:  a.config.GetString(cfgLogConsoleLevel),
			Format: a.config.GetString(cfgLogConsoleFormat),
		},
	}
}

func (a *Application) getErrorWriter() io.Writer {
	if a.ErrorWriter != nil {
		return a.ErrorWriter
	}
	return os.Stderr
}
