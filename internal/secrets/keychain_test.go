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

package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeychainBackend_RoundTrip(t *testing.T) {
	keyring.MockInit()

	backend := NewKeychainBackend()
	if !backend.Available() {
		t.Fatal("mock keychain should be available")
	}
	if backend.Name() != "keychain" {
		t.Errorf("Name() = %v, want keychain", backend.Name())
	}

	ctx := context.Background()
	key := TokenKey("app-1")

	if _, err := backend.Get(ctx, key); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("Get() before Set error = %v, want ErrSecretNotFound", err)
	}

	if err := backend.Set(ctx, key, "token-1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := backend.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "token-1" {
		t.Errorf("Get() = %v, want token-1", got)
	}

	if err := backend.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := backend.Delete(ctx, key); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Delete() non-existent error = %v, want ErrSecretNotFound", err)
	}
}

func TestKeychainBackend_Unavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: connection refused"))
	t.Cleanup(keyring.MockInit)

	backend := NewKeychainBackend()
	if backend.Available() {
		t.Fatal("expected keychain to be unavailable")
	}
	if _, err := backend.Get(context.Background(), "k"); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Get() error = %v, want ErrBackendUnavailable", err)
	}
	if err := backend.Set(context.Background(), "k", "v"); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Set() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestIsKeychainUnavailableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "locked keychain", err: errors.New("keychain is locked"), want: true},
		{name: "permission denied", err: errors.New("permission denied"), want: true},
		{name: "dbus error", err: errors.New("failed to connect to dbus"), want: true},
		{name: "other error", err: errors.New("some other error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isKeychainUnavailableError(tt.err); got != tt.want {
				t.Errorf("isKeychainUnavailableError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewBackend(t *testing.T) {
	keyring.MockInit()

	for _, name := range []string{"keychain", "env"} {
		b, err := NewBackend(name)
		if err != nil {
			t.Fatalf("NewBackend(%q) error = %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("NewBackend(%q).Name() = %v", name, b.Name())
		}
	}
	if _, err := NewBackend("vault"); err == nil {
		t.Error("expected error for unknown backend")
	}
}
