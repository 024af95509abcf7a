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

package config

const idSample = "shimsim-1"

const shimSample = `
# Disable the tunnel shim. Traffic for a broken link is discarded. (default false)
disabled = false

# Maximum number of hops a tunnel request travels. (default 2)
hop_limit = 2

# Expected one-way delay of a single hop. (default 10ms)
per_hop_delay = "10ms"

# Margin added to the search round trip before a search is considered
# failed. (default 5ms)
search_margin = "5ms"

# Payloads buffered per link while its tunnel is searched. The oldest payload
# is evicted on overflow. (default 64)
max_buffered = 64

# Retire tunnels that carried no payload for this long. "0s" keeps tunnels
# forever. (default "0s")
tunnel_idle_timeout = "0s"

# Retire pending search entries older than this. "0s" uses the search
# timeout. (default "0s")
pending_timeout = "0s"

# Flood tunnel requests over interfaces of local scope. (default false)
flood_local = false

# Number of times the origin repeats a failed search. (default 0)
max_retries = 0
`

const scenarioSample = `
# Scenario file describing nodes, links and events. (required)
file = "scenario.toml"

# Simulated time to run for. (default 10s)
duration = "10s"

# Period of the table expiry sweep. (default 100ms)
sweep_interval = "100ms"

# Capture every frame put on the simulated medium to this pcap file. If not
# specified, no capture is written.
# pcap = "shimsim.pcap"
`
