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

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/internal/thingcache"
	"github.com/tombee/healthvault/pkg/itemtypes"
	"github.com/tombee/healthvault/pkg/thing"
)

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "things.db")
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("HEALTHVAULT_CACHE_PATH", path)
	t.Setenv("HEALTHVAULT_RECORD_ID", "rec-1")
	shared.SetConfigPathForTest(filepath.Join(dir, "config.yaml"))
	t.Cleanup(func() { shared.SetConfigPathForTest("") })

	c, err := thingcache.Open(thingcache.Config{Path: path})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	w := itemtypes.NewWeight()
	w.SetWhen(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	w.SetKilograms(70.5)
	w.BindKey(thing.Key{ID: "w-1", VersionStamp: "v1"})

	bp := itemtypes.NewBloodPressure()
	bp.SetWhen(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))
	bp.SetReading(120, 80)
	bp.BindKey(thing.Key{ID: "bp-1", VersionStamp: "v4"})

	if err := c.Save(context.Background(), "rec-1", []thing.Thing{w, bp}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCacheCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCacheList(t *testing.T) {
	seed(t)

	out, err := run(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"Weight", "w-1", "Blood Pressure", "bp-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "list", "--type", "weight")
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if strings.Contains(out, "bp-1") || !strings.Contains(out, "w-1") {
		t.Errorf("type filter not applied:\n%s", out)
	}
}

func TestCacheList_JSON(t *testing.T) {
	path := seed(t)
	shared.SetJSONForTest(true)
	defer shared.SetJSONForTest(false)

	out, err := run(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var resp listResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Path != path || resp.RecordID != "rec-1" || len(resp.Entries) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestCacheShow(t *testing.T) {
	seed(t)

	out, err := run(t, "show", "bp-1")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"bp-1", "v4", "<systolic>120</systolic>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, err = run(t, "show", "missing")
	if code := shared.ExitCodeFor(err); code != shared.ExitUsage {
		t.Errorf("exit code = %d (%v), want usage", code, err)
	}
}

func TestCacheClear(t *testing.T) {
	seed(t)

	out, err := run(t, "clear")
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !strings.Contains(out, "removed 2") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = run(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No cached things") {
		t.Errorf("cache not empty after clear:\n%s", out)
	}
}

func TestCache_NoRecord(t *testing.T) {
	seed(t)
	t.Setenv("HEALTHVAULT_RECORD_ID", "")

	_, err := run(t, "list")
	if code := shared.ExitCodeFor(err); code != shared.ExitUsage {
		t.Errorf("exit code = %d (%v), want usage", code, err)
	}
}
