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
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tombee/healthvault/internal/config"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/httpclient"
	"github.com/tombee/healthvault/pkg/itemtypes"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "exit error", err: NewAuthError("no token", nil), want: ExitAuth},
		{name: "validation", err: &hverrors.ValidationError{Field: "items", Message: "empty"}, want: ExitUsage},
		{name: "config", err: &hverrors.ConfigError{Key: "url", Reason: "is required"}, want: ExitUsage},
		{name: "access denied", err: &hverrors.ServiceError{Code: hverrors.StatusAccessDenied}, want: ExitAuth},
		{name: "session expired", err: &hverrors.ServiceError{Code: hverrors.StatusSessionTokenExpired}, want: ExitAuth},
		{name: "other service error", err: &hverrors.ServiceError{Code: hverrors.StatusInvalidFilter}, want: ExitService},
		{name: "protocol", err: &hverrors.ProtocolError{Method: "PutThings", Message: "count"}, want: ExitService},
		{name: "transport auth", err: &httpclient.TransportError{Type: httpclient.ErrorTypeAuth}, want: ExitAuth},
		{name: "transport server", err: &httpclient.TransportError{Type: httpclient.ErrorTypeServer}, want: ExitTransport},
		{name: "wrapped", err: errors.Join(errors.New("ctx"), &httpclient.TransportError{Type: httpclient.ErrorTypeConnection}), want: ExitTransport},
		{name: "plain", err: errors.New("boom"), want: ExitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReportError_Suggestion(t *testing.T) {
	var buf strings.Builder
	code := reportError(&buf, &hverrors.ServiceError{Code: hverrors.StatusSessionTokenExpired, Message: "expired"})

	if code != ExitAuth {
		t.Errorf("code = %d, want %d", code, ExitAuth)
	}
	if !strings.Contains(buf.String(), "hvctl login") {
		t.Errorf("expected login suggestion, got %q", buf.String())
	}
}

func TestResolveTypeID(t *testing.T) {
	reg := itemtypes.DefaultRegistry()

	id, err := ResolveTypeID(reg, "weight")
	if err != nil || id != itemtypes.WeightTypeID {
		t.Errorf("ResolveTypeID(weight) = %q, %v", id, err)
	}
	id, err = ResolveTypeID(reg, itemtypes.BloodPressureTypeID)
	if err != nil || id != itemtypes.BloodPressureTypeID {
		t.Errorf("ResolveTypeID(id) = %q, %v", id, err)
	}
	unregistered := "0a1b2c3d-0000-1111-2222-333344445555"
	if id, err = ResolveTypeID(reg, unregistered); err != nil || id != unregistered {
		t.Errorf("ResolveTypeID(unregistered) = %q, %v", id, err)
	}
	if _, err = ResolveTypeID(reg, "bogus"); ExitCodeFor(err) != ExitUsage {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestEmitJSON_Filter(t *testing.T) {
	SetJQForTest(".command")
	defer SetJQForTest("")

	if !GetJSON() {
		t.Error("--jq should imply JSON output")
	}

	var buf strings.Builder
	if err := EmitJSON(&buf, NewJSONResponse("get")); err != nil {
		t.Fatalf("EmitJSON() error = %v", err)
	}
	if buf.String() != "\"get\"\n" {
		t.Errorf("EmitJSON() = %q", buf.String())
	}

	SetJQForTest(".[")
	if err := EmitJSON(&buf, NewJSONResponse("get")); ExitCodeFor(err) != ExitUsage {
		t.Errorf("expected usage error for a bad filter, got %v", err)
	}
}

func TestNewTracer(t *testing.T) {
	cfg := config.Default()
	tp, err := newTracer(cfg)
	if err != nil || tp != nil {
		t.Fatalf("tracing should be off by default, got %v, %v", tp, err)
	}

	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.Endpoint = "127.0.0.1:1"
	cfg.Tracing.Insecure = true
	tp, err = newTracer(cfg)
	if err != nil || tp == nil {
		t.Fatalf("expected otlp provider, got %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestRecordIDFor(t *testing.T) {
	cfg := config.Default()
	if _, err := RecordIDFor(cfg); ExitCodeFor(err) != ExitUsage {
		t.Errorf("expected usage error without a record, got %v", err)
	}

	cfg.RecordID = "from-config"
	if id, _ := RecordIDFor(cfg); id != "from-config" {
		t.Errorf("RecordIDFor() = %q", id)
	}

	recordFlag = "from-flag"
	defer func() { recordFlag = "" }()
	if id, _ := RecordIDFor(cfg); id != "from-flag" {
		t.Errorf("RecordIDFor() = %q, want the flag value", id)
	}
}

func TestNonInteractive(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		want bool
	}{
		{name: "terminal", tty: true, want: false},
		{name: "no terminal", tty: false, want: true},
		{name: "explicit", env: map[string]string{EnvNonInteractive: "true"}, tty: true, want: true},
		{name: "explicit off", env: map[string]string{EnvNonInteractive: "0"}, tty: true, want: false},
		{name: "ci", env: map[string]string{"GITHUB_ACTIONS": "true"}, tty: true, want: true},
		{name: "jenkins path", env: map[string]string{"JENKINS_HOME": "/var/jenkins"}, tty: true, want: true},
		{name: "ci false", env: map[string]string{"CI": "false"}, tty: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			if got := nonInteractive(getenv, tt.tty); got != tt.want {
				t.Errorf("nonInteractive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	if got := RenderOK("saved"); !strings.HasSuffix(got, " saved") || !strings.Contains(got, "✓") {
		t.Errorf("RenderOK() = %q", got)
	}
	if got := RenderStatus(Level(99), "plain"); got != "plain" {
		t.Errorf("unknown level should render the message only, got %q", got)
	}
	if got := RenderField("Expires:", "soon"); !strings.Contains(got, "Expires:") || !strings.HasSuffix(got, " soon") {
		t.Errorf("RenderField() = %q", got)
	}
}
