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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/healthvault/internal/cli/prompt"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/internal/config"
	"github.com/tombee/healthvault/pkg/cryptoconfig"
	"github.com/tombee/healthvault/pkg/httpclient"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
		Long: `View and manage hvctl configuration.

Subcommands:
  show - Display current configuration
  path - Show config file location
  init - Create a configuration file`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigInitCommand(prompt.NewSurveyPrompter(!shared.IsNonInteractive())))

	// If no subcommand provided, default to 'show'
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd, args)
	}

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration: the config file with defaults
filled in and HEALTHVAULT_* environment overrides applied.

Use --json for machine-readable output.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file location",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfgPath, err := shared.ConfigFile()
	if err != nil {
		return err
	}

	cfg, err := config.Read(cfgPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if shared.GetJSON() {
		resp := struct {
			shared.JSONResponse
			Path   string         `json:"path"`
			Config *config.Config `json:"config"`
			Valid  bool           `json:"valid"`
		}{
			JSONResponse: shared.NewJSONResponse("config show"),
			Path:         cfgPath,
			Config:       cfg,
			Valid:        cfg.Validate() == nil,
		}
		return shared.EmitJSON(out, resp)
	}

	fmt.Fprintln(out, shared.RenderField("Configuration:", cfgPath))
	fmt.Fprintln(out, strings.Repeat("=", 50))

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(out)
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintln(out, shared.RenderWarn(line))
		}
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfgPath, err := shared.ConfigFile()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
	return nil
}

type initOptions struct {
	url         string
	appID       string
	recordID    string
	compression string
	hash        string
	force       bool
}

func newConfigInitCommand(p prompt.Prompter) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Write a configuration file for a platform and application.

Values not given as flags are prompted for when running interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, p, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Platform endpoint URL")
	cmd.Flags().StringVar(&opts.appID, "app-id", "", "Application id")
	cmd.Flags().StringVar(&opts.recordID, "default-record", "", "Default health record id")
	cmd.Flags().StringVar(&opts.compression, "compression", "", "Request compression: none, gzip or deflate")
	cmd.Flags().StringVar(&opts.hash, "hash", "", "Hash algorithm: "+strings.Join(cryptoconfig.Supported(), ", "))
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, p prompt.Prompter, opts initOptions) error {
	cfgPath, err := shared.ConfigFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil && !opts.force {
		return shared.NewUsageError(fmt.Sprintf("%s already exists", cfgPath), errors.New("pass --force to overwrite"))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Default()
	cfg.URL = opts.url
	cfg.AppID = opts.appID
	cfg.RecordID = opts.recordID
	if opts.compression != "" {
		cfg.Transport.Compression = opts.compression
	}
	if opts.hash != "" {
		cfg.Crypto.HashAlgorithm = opts.hash
	}

	if cfg.URL == "" {
		if cfg.URL, err = ask(ctx, p, "url", "Platform endpoint URL"); err != nil {
			return err
		}
	}
	if cfg.AppID == "" {
		if cfg.AppID, err = ask(ctx, p, "app_id", "Application id"); err != nil {
			return err
		}
	}
	if opts.compression == "" && p.IsInteractive() {
		options := []string{
			string(httpclient.CompressionNone),
			string(httpclient.CompressionGzip),
			string(httpclient.CompressionDeflate),
		}
		if cfg.Transport.Compression, err = p.PromptEnum(ctx, "compression", "Request compression", options, cfg.Transport.Compression); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	if !shared.GetQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("wrote "+cfgPath))
	}
	return nil
}

func ask(ctx context.Context, p prompt.Prompter, name, desc string) (string, error) {
	v, err := p.PromptString(ctx, name, desc, "")
	if errors.Is(err, prompt.ErrNonInteractive) {
		return "", shared.NewUsageError("missing --"+strings.ReplaceAll(name, "_", "-"), err)
	}
	return v, err
}
