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
	"fmt"
	"os"
	"strings"
)

const (
	envSecretPrefix = "HEALTHVAULT_SECRET_"

	// EnvAuthToken supplies the session token for any application.
	EnvAuthToken = "HEALTHVAULT_AUTH_TOKEN"
)

// EnvBackend provides read-only access to secrets via environment variables.
// A key such as "session/app-1" is read from HEALTHVAULT_SECRET_SESSION_APP_1;
// session keys also fall back to HEALTHVAULT_AUTH_TOKEN.
type EnvBackend struct{}

// NewEnvBackend creates a new environment variable backend.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

// Name returns the backend identifier.
func (e *EnvBackend) Name() string {
	return "env"
}

// Get retrieves a secret from environment variables.
func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	if value := os.Getenv(normalizeKey(key)); value != "" {
		return value, nil
	}
	if strings.HasPrefix(key, sessionPrefix) {
		if value := os.Getenv(EnvAuthToken); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s not set", ErrSecretNotFound, normalizeKey(key))
}

// Set returns ErrReadOnlyBackend.
func (e *EnvBackend) Set(ctx context.Context, key string, value string) error {
	return ErrReadOnlyBackend
}

// Delete returns ErrReadOnlyBackend.
func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

// Available returns true as environment variables are always available.
func (e *EnvBackend) Available() bool {
	return true
}

// normalizeKey converts a secret key to an environment variable name.
// Example: "session/app-1" -> "HEALTHVAULT_SECRET_SESSION_APP_1"
func normalizeKey(key string) string {
	var b strings.Builder
	b.WriteString(envSecretPrefix)
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
