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

// Package command contains cobra subcommands shared by the relayshim binaries.
package command

// Pather returns the full command path, e.g. "shimsim sample config".
type Pather interface {
	CommandPath() string
}

// StringPather is a Pather that returns a fixed path.
type StringPather string

func (s StringPather) CommandPath() string {
	return string(s)
}
