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

package launcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayshim/relayshim/pkg/log"
	"github.com/relayshim/relayshim/private/config"
)

type testConfig struct {
	General struct {
		ID string `toml:"id"`
	} `toml:"general"`
	Log struct {
		Console log.ConsoleConfig `toml:"console"`
	} `toml:"log"`
	Value int `toml:"value"`

	initialized bool
}

func (c *testConfig) InitDefaults() {
	c.initialized = true
	if c.Value == 0 {
		c.Value = 7
	}
}

func (c *testConfig) Validate() error {
	if c.Value < 0 {
		return errors.New("negative value")
	}
	return nil
}

func (c *testConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, "value = 7\n")
}

func (c *testConfig) ConfigName() string {
	return "test"
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestApplicationRun(t *testing.T) {
	testCases := map[string]struct {
		Content   string
		MainErr   error
		WantValue int
		WantMain  bool
		WantErr   bool
	}{
		"defaults applied": {
			Content:   "[general]\nid = \"app-1\"\n",
			WantValue: 7,
			WantMain:  true,
		},
		"explicit value": {
			Content:   "value = 3\n[log.console]\nlevel = \"debug\"\n",
			WantValue: 3,
			WantMain:  true,
		},
		"invalid config": {
			Content:   "value = -1\n",
			WantValue: -1,
			WantErr:   true,
		},
		"unknown key": {
			Content: "bogus = true\n",
			WantErr: true,
		},
		"main error": {
			Content:   "",
			MainErr:   errors.New("main failed"),
			WantValue: 7,
			WantMain:  true,
			WantErr:   true,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var cfg testConfig
			var called bool
			app := Application{
				TOMLConfig: &cfg,
				ShortName:  "Test App",
				Registerer: prometheus.NewRegistry(),
				Main: func(ctx context.Context) error {
					called = true
					assert.NotNil(t, ctx)
					return tc.MainErr
				},
			}
			err := app.run([]string{"--config", writeConfig(t, tc.Content)})
			if tc.WantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.WantMain, called)
			assert.Equal(t, tc.WantValue, cfg.Value)
		})
	}
}

func TestApplicationRequiresConfig(t *testing.T) {
	var cfg testConfig
	app := Application{TOMLConfig: &cfg, Registerer: prometheus.NewRegistry()}
	assert.Error(t, app.run([]string{}))
	assert.False(t, cfg.initialized)

	err := app.run([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}

func TestApplicationCountsLogEntries(t *testing.T) {
	reg := prometheus.NewRegistry()
	var cfg testConfig
	app := Application{
		TOMLConfig: &cfg,
		Registerer: reg,
		Main: func(context.Context) error {
			log.Info("hello")
			return nil
		},
	}
	require.NoError(t, app.run([]string{"--config", writeConfig(t, "")}))

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "lib_log_emitted_entries_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			counts[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	// started, hello and stopped
	assert.Equal(t, map[string]float64{"debug": 0, "info": 3, "error": 0}, counts)
}

func TestSampleCommand(t *testing.T) {
	cmd := newCommandTemplate("app", "Test App", &testConfig{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sample", "config"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "value = 7\n", out.String())
}
