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

package command

import (
	"github.com/spf13/cobra"

	"github.com/relayshim/relayshim/private/config"
)

// NewSample creates the sample command. The sample command has one
// subcommand per sampler, each writing a commented example file to stdout.
func NewSample(pather Pather, samplers ...func(Pather) *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display sample files",
		Args:  cobra.NoArgs,
	}
	for _, f := range samplers {
		cmd.AddCommand(f(StringPather(pather.CommandPath() + " sample")))
	}
	return cmd
}

// NewSampleConfig returns a sampler for the application TOML config.
func NewSampleConfig(sampler config.Sampler) func(Pather) *cobra.Command {
	return func(pather Pather) *cobra.Command {
		return &cobra.Command{
			Use:     "config",
			Short:   "Display sample configuration file",
			Example: "  " + pather.CommandPath() + " config",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				sampler.Sample(cmd.OutOrStdout(), nil, nil)
				return nil
			},
		}
	}
}

// NewSampleString returns a sampler that prints a fixed document, e.g. an
// example scenario.
func NewSampleString(use, short, text string) func(Pather) *cobra.Command {
	return func(pather Pather) *cobra.Command {
		return &cobra.Command{
			Use:     use,
			Short:   short,
			Example: "  " + pather.CommandPath() + " " + use,
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := cmd.OutOrStdout().Write([]byte(text))
				return err
			},
		}
	}
}
