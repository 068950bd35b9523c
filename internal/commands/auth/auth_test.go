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

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tombee/healthvault/internal/cli/prompt"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/internal/secrets"
	"github.com/zalando/go-keyring"
)

func setup(t *testing.T, appID string) {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("HEALTHVAULT_APP_ID", appID)
	t.Setenv("HEALTHVAULT_SECRETS_BACKEND", "")
	shared.SetConfigPathForTest(filepath.Join(dir, "config.yaml"))
	t.Cleanup(func() { shared.SetConfigPathForTest("") })
}

func stored(t *testing.T, appID string) string {
	t.Helper()
	v, err := secrets.NewKeychainBackend().Get(context.Background(), secrets.TokenKey(appID))
	if err != nil {
		t.Fatalf("token not stored: %v", err)
	}
	return v
}

func TestLogin_FromFlag(t *testing.T) {
	setup(t, "app-1")

	cmd := newLoginCommand(prompt.NewMockPrompter(false))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--token", "tok-123", "--expires-in", "1h"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	raw := stored(t, "app-1")
	if !strings.Contains(raw, `"access_token":"tok-123"`) || !strings.Contains(raw, `"expiry"`) {
		t.Errorf("unexpected stored token %s", raw)
	}
	if !strings.Contains(out.String(), "app-1") {
		t.Errorf("unexpected output %q", out.String())
	}

	tok, err := secrets.NewSessionTokens(secrets.NewKeychainBackend(), secrets.TokenKey("app-1"), nil).Token()
	if err != nil {
		t.Fatalf("stored token unusable: %v", err)
	}
	if tok.AccessToken != "tok-123" || time.Until(tok.Expiry) <= 0 {
		t.Errorf("unexpected token %+v", tok)
	}
}

func TestLogin_FromPrompt(t *testing.T) {
	setup(t, "app-2")

	p := prompt.NewMockPrompter(true, "prompted-token")
	cmd := newLoginCommand(p)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if raw := stored(t, "app-2"); !strings.Contains(raw, "prompted-token") {
		t.Errorf("unexpected stored token %s", raw)
	}
	if log := p.CallLog(); len(log) != 1 || log[0] != "PromptSecret(token)" {
		t.Errorf("unexpected prompts %v", log)
	}
}

func TestLogin_FromStdin(t *testing.T) {
	setup(t, "app-3")
	shared.SetJSONForTest(true)
	defer shared.SetJSONForTest(false)

	cmd := newLoginCommand(prompt.NewMockPrompter(false))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("piped-token\n"))
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if raw := stored(t, "app-3"); !strings.Contains(raw, "piped-token") {
		t.Errorf("unexpected stored token %s", raw)
	}
	var resp loginResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.AppID != "app-3" || resp.Backend != "keychain" || resp.Expiry != nil {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestLogin_Errors(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		setup(t, "app-1")
		cmd := newLoginCommand(prompt.NewMockPrompter(false))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader(""))
		cmd.SetArgs([]string{})
		if code := shared.ExitCodeFor(cmd.Execute()); code != shared.ExitUsage {
			t.Errorf("exit code = %d, want usage", code)
		}
	})

	t.Run("no app id", func(t *testing.T) {
		setup(t, "")
		cmd := newLoginCommand(prompt.NewMockPrompter(false))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--token", "x"})
		if code := shared.ExitCodeFor(cmd.Execute()); code != shared.ExitUsage {
			t.Errorf("exit code = %d, want usage", code)
		}
	})

	t.Run("read-only backend", func(t *testing.T) {
		setup(t, "app-1")
		t.Setenv("HEALTHVAULT_SECRETS_BACKEND", "env")
		cmd := newLoginCommand(prompt.NewMockPrompter(false))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--token", "x"})
		if code := shared.ExitCodeFor(cmd.Execute()); code != shared.ExitUsage {
			t.Errorf("exit code = %d, want usage", code)
		}
	})
}

func TestLogout(t *testing.T) {
	setup(t, "app-1")
	if err := secrets.NewKeychainBackend().Set(context.Background(), secrets.TokenKey("app-1"), "tok"); err != nil {
		t.Fatal(err)
	}

	cmd := NewLogoutCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !strings.Contains(out.String(), "removed") {
		t.Errorf("unexpected output %q", out.String())
	}
	if _, err := secrets.NewKeychainBackend().Get(context.Background(), secrets.TokenKey("app-1")); err == nil {
		t.Error("token still stored after logout")
	}

	// A second logout has nothing to remove and still succeeds.
	out.Reset()
	cmd = NewLogoutCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	if !strings.Contains(out.String(), "no session token") {
		t.Errorf("unexpected output %q", out.String())
	}
}
