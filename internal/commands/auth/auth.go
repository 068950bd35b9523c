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

// Package auth implements the hvctl login and logout commands.
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tombee/healthvault/internal/cli/prompt"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/internal/secrets"
	"golang.org/x/oauth2"
)

type loginResponse struct {
	shared.JSONResponse
	AppID   string     `json:"app_id"`
	Backend string     `json:"backend"`
	Expiry  *time.Time `json:"expiry,omitempty"`
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	return newLoginCommand(prompt.NewSurveyPrompter(!shared.IsNonInteractive()))
}

func newLoginCommand(p prompt.Prompter) *cobra.Command {
	var (
		token     string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a session token for the configured application",
		Long: `Store the session token used to sign requests.

The token is read from --token, from an interactive prompt, or from the
first line of standard input when it is not a terminal. It is kept in the
configured secrets backend under the application id.`,
		Example: `  hvctl login
  echo "$TOKEN" | hvctl login --expires-in 8h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.ReadConfig()
			if err != nil {
				return err
			}
			tokens, err := shared.Tokens(cfg)
			if err != nil {
				return err
			}

			if token == "" {
				token, err = readToken(cmd.Context(), p, cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			tok := &oauth2.Token{AccessToken: strings.TrimSpace(token)}
			if expiresIn > 0 {
				tok.Expiry = time.Now().Add(expiresIn).UTC()
			}

			if err := tokens.Save(cmd.Context(), tok); err != nil {
				if errors.Is(err, secrets.ErrReadOnlyBackend) {
					return shared.NewUsageError("the env secrets backend is read-only", fmt.Errorf("set %s instead", secrets.EnvAuthToken))
				}
				return fmt.Errorf("store session token: %w", err)
			}

			resp := loginResponse{
				JSONResponse: shared.NewJSONResponse("login"),
				AppID:        cfg.AppID,
				Backend:      cfg.Secrets.Backend,
			}
			if !tok.Expiry.IsZero() {
				resp.Expiry = &tok.Expiry
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, resp)
			}
			fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("session token stored for %s (%s)", cfg.AppID, cfg.Secrets.Backend)))
			if resp.Expiry != nil {
				fmt.Fprintln(out, shared.RenderField("Expires:", resp.Expiry.Format(time.RFC3339)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Session token (visible in shell history; prefer the prompt or stdin)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Token lifetime; the token is refused locally after it")

	return cmd
}

func readToken(ctx context.Context, p prompt.Prompter, in io.Reader) (string, error) {
	if p.IsInteractive() {
		tok, err := p.PromptSecret(ctx, "token", "Session token")
		if err != nil {
			return "", err
		}
		if err := prompt.ValidateRequired(tok); err != nil {
			return "", shared.NewUsageError("no session token given", err)
		}
		return tok, nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		if tok := strings.TrimSpace(scanner.Text()); tok != "" {
			return tok, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return "", shared.NewUsageError("no session token given", errors.New("pass --token or pipe the token on stdin"))
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.ReadConfig()
			if err != nil {
				return err
			}
			tokens, err := shared.Tokens(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = tokens.Clear(cmd.Context())
			switch {
			case errors.Is(err, secrets.ErrSecretNotFound):
				fmt.Fprintln(out, shared.RenderWarn("no session token stored for "+cfg.AppID))
				return nil
			case errors.Is(err, secrets.ErrReadOnlyBackend):
				return shared.NewUsageError("the env secrets backend is read-only", fmt.Errorf("unset %s instead", secrets.EnvAuthToken))
			case err != nil:
				return fmt.Errorf("remove session token: %w", err)
			}
			fmt.Fprintln(out, shared.RenderOK("session token removed for "+cfg.AppID))
			return nil
		},
	}
}
