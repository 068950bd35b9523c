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

package main

import (
	"github.com/tombee/healthvault/internal/cli"
	"github.com/tombee/healthvault/internal/commands/auth"
	"github.com/tombee/healthvault/internal/commands/cache"
	"github.com/tombee/healthvault/internal/commands/config"
	"github.com/tombee/healthvault/internal/commands/things"
	"github.com/tombee/healthvault/internal/commands/types"
	versioncmd "github.com/tombee/healthvault/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Thing commands
	rootCmd.AddCommand(things.NewGetCommand())
	rootCmd.AddCommand(things.NewAddCommand())
	rootCmd.AddCommand(things.NewUpdateCommand())
	rootCmd.AddCommand(things.NewRemoveCommand())
	rootCmd.AddCommand(types.NewTypesCommand())

	// Credentials and configuration
	rootCmd.AddCommand(auth.NewLoginCommand())
	rootCmd.AddCommand(auth.NewLogoutCommand())
	rootCmd.AddCommand(config.NewConfigCommand())
	rootCmd.AddCommand(cache.NewCacheCommand())

	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
