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

package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayshim/relayshim/private/config"
	"github.com/relayshim/relayshim/sim"
)

func TestSampleScenario(t *testing.T) {
	var s sim.Scenario
	require.NoError(t, config.Decode([]byte(sim.SampleScenario), &s))
	require.NoError(t, s.Validate())
	assert.Len(t, s.Nodes, 3)
	assert.Len(t, s.Links, 3)
	assert.Len(t, s.Events, 2)
}
