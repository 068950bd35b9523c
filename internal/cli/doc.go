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

/*
Package cli provides the root command for hvctl.

This package creates the Cobra command tree root and handles global concerns
like version information, persistent flags and exit codes. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	hvctl
	├── get       Read things from a record
	├── remove    Remove things by key
	├── types     List registered thing types
	├── login     Store a session token
	├── logout    Forget the session token
	├── config    Show, locate or initialize configuration
	├── cache     Inspect or clear the local thing cache
	└── version   Show version

# Global Flags

	--config   Path to config file (default: ~/.config/healthvault/config.yaml)
	--record   Health record id (overrides record_id in the config file)
	--json     Output in JSON format
	--trace    Print client spans to stderr
	-v         Verbose logging
	-q         Errors only
*/
package cli
