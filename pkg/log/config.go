// Copyright 2019 Anapaya Systems
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

package log

import (
	"fmt"
	"io"

	"github.com/relayshim/relayshim/pkg/private/serrors"
	"github.com/relayshim/relayshim/private/config"
)

const (
	// DefaultConsoleLevel is the default log level for the console.
	DefaultConsoleLevel = "info"
	// DefaultFileLevel is the default log level for the log file.
	DefaultFileLevel = "debug"
	// DefaultFileSizeMiB is the default rotation size of the log file.
	DefaultFileSizeMiB = 50
	// DefaultFileMaxAgeDays is the default age after which a rotated file is removed.
	DefaultFileMaxAgeDays = 7
	// DefaultFileMaxBackups is the default number of rotated files that are kept.
	DefaultFileMaxBackups = 10
)

var _ config.Config = (*Config)(nil)

// Config is the configuration for the logger.
type Config struct {
	// Console is the configuration for the console logging.
	Console ConsoleConfig `toml:"console,omitempty"`
	// File is the configuration for the rotating file sink. Disabled if the
	// path is empty.
	File FileConfig `toml:"file,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values (if they
// have one).
func (c *Config) InitDefaults() {
	c.Console.InitDefaults()
	c.File.InitDefaults()
}

// Validate checks both sinks.
func (c *Config) Validate() error {
	return config.ValidateAll(&c.Console, &c.File)
}

// Sample writes the sample configuration to the dst writer.
func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Console, &c.File)
}

// ConfigName returns the name of this config.
func (c *Config) ConfigName() string {
	return "log"
}

// ConsoleConfig is the config for the console logger.
type ConsoleConfig struct {
	// Level of console logging (defaults to DefaultConsoleLevel).
	Level string `toml:"level,omitempty"`
	// Format of the console logging. (human|json)
	Format string `toml:"format,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values (if they
// have one).
func (c *ConsoleConfig) InitDefaults() {
	if c.Level == "" {
		c.Level = DefaultConsoleLevel
	}
	if c.Format == "" {
		c.Format = "human"
	}
}

// Validate checks level and format.
func (c *ConsoleConfig) Validate() error {
	return validateSink(c.Level, c.Format)
}

// Sample writes the sample configuration to the dst writer.
func (c *ConsoleConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, consoleSample)
}

// ConfigName returns the name of this config.
func (c *ConsoleConfig) ConfigName() string {
	return "console"
}

// FileConfig is the config for the rotating file logger.
type FileConfig struct {
	// Path of the log file. Empty disables file logging.
	Path string `toml:"path,omitempty"`
	// Level of file logging (defaults to DefaultFileLevel).
	Level string `toml:"level,omitempty"`
	// Format of the file logging. (human|json)
	Format string `toml:"format,omitempty"`
	// Size is the size in MiB at which the file is rotated.
	Size int `toml:"size,omitempty"`
	// MaxAge is the number of days rotated files are kept.
	MaxAge int `toml:"max_age,omitempty"`
	// MaxBackups is the number of rotated files that are kept.
	MaxBackups int `toml:"max_backups,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values (if they
// have one).
func (c *FileConfig) InitDefaults() {
	if c.Level == "" {
		c.Level = DefaultFileLevel
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Size == 0 {
		c.Size = DefaultFileSizeMiB
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultFileMaxAgeDays
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = DefaultFileMaxBackups
	}
}

// Validate checks level, format and the rotation limits.
func (c *FileConfig) Validate() error {
	if c.Size < 0 || c.MaxAge < 0 || c.MaxBackups < 0 {
		return serrors.New("negative log file rotation setting",
			"size", c.Size, "max_age", c.MaxAge, "max_backups", c.MaxBackups)
	}
	return validateSink(c.Level, c.Format)
}

// Sample writes the sample configuration to the dst writer.
func (c *FileConfig) Sample(dst io.Writer, _ config.Path, ctx config.CtxMap) {
	config.WriteString(dst, fmt.Sprintf(fileSample, ctx[config.ID]))
}

// ConfigName returns the name of this config.
func (c *FileConfig) ConfigName() string {
	return "file"
}

func validateSink(level, format string) error {
	if _, err := parseLevel(level); err != nil {
		return err
	}
	switch format {
	case "human", "json":
		return nil
	default:
		return serrors.New("unsupported log format", "format", format)
	}
}

const consoleSample = `
# Console logging level (debug|info|error) (default info)
level = "info"

# Logging format (human|json) (default human)
format = "human"
`

const fileSample = `
# Location of the logging file. If not specified, logging to file is disabled.
path = "/var/log/relayshim/%s.log"

# File logging level (debug|info|error) (default debug)
level = "debug"

# Logging format (human|json) (default json)
format = "json"

# Max size of log file in MiB. (default 50)
size = 50

# Max age of log file in days. (default 7)
max_age = 7

# Maximum number of log files to retain. (default 10)
max_backups = 10
`
