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

package sim

// SampleScenario is a small scenario: the user u loses its direct link to
// the satellite s1 and reaches it through s2.
const SampleScenario = `# Nodes of the simulated network.
[[node]]
name = "u"

[[node]]
name = "s1"

[[node]]
name = "s2"

# Links between nodes. The delay defaults to the per hop delay of the shim.
# A user link is registered at both ends and gets a tunnel when it breaks.
# Local links are only flooded if flood_local is set.
[[link]]
a = "u"
b = "s1"
delay = "10ms"
user = true

[[link]]
a = "u"
b = "s2"

[[link]]
a = "s1"
b = "s2"

# Events relative to the start of the simulation. The kind is one of
# break, send and discover.
[[event]]
at = "100ms"
kind = "break"
from = "u"
to = "s1"

[[event]]
at = "150ms"
kind = "send"
from = "u"
to = "s1"
count = 3
interval = "5ms"
`
