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
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tombee/healthvault/internal/cli/prompt"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/internal/config"
)

func useConfigPath(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"HEALTHVAULT_URL", "HEALTHVAULT_APP_ID", "HEALTHVAULT_COMPRESSION", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "config.yaml")
	shared.SetConfigPathForTest(path)
	t.Cleanup(func() { shared.SetConfigPathForTest("") })
	return path
}

func TestConfigInit_FromFlags(t *testing.T) {
	path := useConfigPath(t)

	cmd := newConfigInitCommand(prompt.NewMockPrompter(false))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--url", "https://platform.example.com/wildcat.ashx", "--app-id", "app-1", "--compression", "gzip"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("expected output to name %s, got %q", path, out.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.AppID != "app-1" || cfg.Transport.Compression != "gzip" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestConfigInit_Prompts(t *testing.T) {
	path := useConfigPath(t)

	p := prompt.NewMockPrompter(true, "https://platform.example.com/wildcat.ashx", "app-2", "deflate")
	cmd := newConfigInitCommand(p)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	want := []string{"PromptString(url)", "PromptString(app_id)", "PromptEnum(compression)"}
	if got := p.CallLog(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("prompts = %v, want %v", got, want)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppID != "app-2" || cfg.Transport.Compression != "deflate" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestConfigInit_NonInteractiveMissingValue(t *testing.T) {
	useConfigPath(t)

	cmd := newConfigInitCommand(prompt.NewMockPrompter(false))
	cmd.SetArgs([]string{"--app-id", "app-1"})

	err := cmd.Execute()
	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != shared.ExitUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "--url") {
		t.Errorf("expected the missing flag to be named, got %v", err)
	}
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	path := useConfigPath(t)
	if err := os.WriteFile(path, []byte("url: x\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := newConfigInitCommand(prompt.NewMockPrompter(false))
	cmd.SetArgs([]string{"--url", "https://platform.example.com/wildcat.ashx", "--app-id", "app-1"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for existing file")
	}

	cmd = newConfigInitCommand(prompt.NewMockPrompter(false))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", "https://platform.example.com/wildcat.ashx", "--app-id", "app-1", "--force"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("--force failed: %v", err)
	}
}

func TestConfigInit_InvalidValue(t *testing.T) {
	useConfigPath(t)

	cmd := newConfigInitCommand(prompt.NewMockPrompter(false))
	cmd.SetArgs([]string{"--url", "https://platform.example.com/wildcat.ashx", "--app-id", "app-1", "--hash", "md5"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "hash_algorithm") {
		t.Fatalf("expected hash error, got %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	path := useConfigPath(t)
	content := "url: https://platform.example.com/wildcat.ashx\napp_id: app-1\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("yaml", func(t *testing.T) {
		cmd := newConfigShowCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out.String(), "app_id: app-1") {
			t.Errorf("expected yaml output, got %s", out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		shared.SetJSONForTest(true)
		defer shared.SetJSONForTest(false)

		cmd := newConfigShowCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("show failed: %v", err)
		}

		var resp struct {
			Path   string `json:"path"`
			Valid  bool   `json:"valid"`
			Config struct {
				AppID string `json:"app_id"`
			} `json:"config"`
		}
		if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v\n%s", err, out.String())
		}
		if resp.Path != path || !resp.Valid || resp.Config.AppID != "app-1" {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestConfigShow_WarnsWhenInvalid(t *testing.T) {
	useConfigPath(t)

	cmd := newConfigShowCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out.String(), "url") {
		t.Errorf("expected a warning about url, got %s", out.String())
	}
}

func TestConfigPath(t *testing.T) {
	path := useConfigPath(t)

	cmd := newConfigPathCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != path {
		t.Errorf("expected %s, got %s", path, out.String())
	}
}
