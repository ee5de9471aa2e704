// Copyright 2026 Foreman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shared holds state common to all CLI commands: build metadata
// and the assembled engine.
package shared

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// SetVersion stores build metadata injected via ldflags.
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// GetVersion returns the build metadata.
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}
