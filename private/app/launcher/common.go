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

package launcher

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relayshim/relayshim/private/app/command"
	libconfig "github.com/relayshim/relayshim/private/config"
)

func newCommandTemplate(
	executable string,
	shortName string,
	config libconfig.Sampler,
	samplers ...func(command.Pather) *cobra.Command,
) *cobra.Command {

	cmd := &cobra.Command{
		Use:           executable,
		Short:         shortName,
		Example:       fmt.Sprintf("  %[1]s --config %[1]s.toml", executable),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
	}
	samplers = append([]func(command.Pather) *cobra.Command{
		command.NewSampleConfig(config),
	}, samplers...)
	cmd.AddCommand(
		command.NewCompletion(cmd),
		command.NewSample(cmd, samplers...),
		command.NewGendocs(cmd),
	)
	cmd.Flags().String(cfgConfigFile, "", "Configuration file (required)")
	cmd.MarkFlagRequired(cfgConfigFile)
	return cmd
}
