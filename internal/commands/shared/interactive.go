// Copyright 2025 Tom Barlow
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

package shared

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvNonInteractive disables prompts when set to a true value.
const EnvNonInteractive = "HEALTHVAULT_NON_INTERACTIVE"

// ciMarkers are environment variables set by common CI systems. Any non-empty
// value other than "false" or "0" counts.
var ciMarkers = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "JENKINS_HOME", "BUILDKITE"}

// IsNonInteractive reports whether hvctl must not prompt: prompts are
// disabled explicitly, a CI system is detected, or stdin is not a terminal.
// Commands then read secrets such as the session token from flags or stdin.
func IsNonInteractive() bool {
	return nonInteractive(os.Getenv, term.IsTerminal(int(os.Stdin.Fd())))
}

func nonInteractive(getenv func(string) string, stdinTTY bool) bool {
	if truthy(getenv(EnvNonInteractive)) {
		return true
	}
	for _, name := range ciMarkers {
		if truthy(getenv(name)) {
			return true
		}
	}
	return !stdinTTY
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no":
		return false
	}
	return true
}
