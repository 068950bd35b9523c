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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const sessionPrefix = "session/"

// TokenKey returns the secret key under which the session token for appID is
// stored.
func TokenKey(appID string) string {
	return sessionPrefix + appID
}

// SessionTokens is an oauth2.TokenSource backed by a SecretBackend. Tokens
// are read from the backend on first use and cached until they expire or
// Invalidate is called. When the backend has no valid token, the optional
// refresher mints one and the result is written back.
type SessionTokens struct {
	backend   SecretBackend
	key       string
	refresher oauth2.TokenSource

	mu      sync.Mutex
	current *oauth2.Token
}

// NewSessionTokens creates a token source for key. refresher may be nil.
func NewSessionTokens(backend SecretBackend, key string, refresher oauth2.TokenSource) *SessionTokens {
	return &SessionTokens{backend: backend, key: key, refresher: refresher}
}

// Token implements oauth2.TokenSource.
func (s *SessionTokens) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Valid() {
		return s.current, nil
	}

	ctx := context.Background()
	tok, loadErr := s.load(ctx)
	if loadErr == nil && tok.Valid() {
		s.current = tok
		return tok, nil
	}

	if s.refresher == nil {
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, fmt.Errorf("session token %s has expired", s.key)
	}

	tok, err := s.refresher.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh session token: %w", err)
	}
	// A read-only backend still hands out the refreshed token.
	if err := s.store(ctx, tok); err != nil && !errors.Is(err, ErrReadOnlyBackend) {
		return nil, err
	}
	s.current = tok
	return tok, nil
}

// Invalidate drops the cached token and removes it from the backend so the
// next Token call refreshes.
func (s *SessionTokens) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	_ = s.backend.Delete(context.Background(), s.key)
}

// Save stores tok as the current session token.
func (s *SessionTokens) Save(ctx context.Context, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store(ctx, tok); err != nil {
		return err
	}
	s.current = tok
	return nil
}

// Clear removes the stored session token.
func (s *SessionTokens) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	return s.backend.Delete(ctx, s.key)
}

// storedToken is the serialized form kept in the backend.
type storedToken struct {
	AccessToken string     `json:"access_token"`
	Expiry      *time.Time `json:"expiry,omitempty"`
}

func (s *SessionTokens) load(ctx context.Context) (*oauth2.Token, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	return decodeToken(raw)
}

func (s *SessionTokens) store(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("session token is empty")
	}
	st := storedToken{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		st.Expiry = &tok.Expiry
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key, string(data))
}

// decodeToken accepts the JSON form written by Save or a bare token string,
// which is what environment variables usually carry.
func decodeToken(raw string) (*oauth2.Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty session token", ErrSecretNotFound)
	}
	if !strings.HasPrefix(raw, "{") {
		return &oauth2.Token{AccessToken: raw}, nil
	}

	var st storedToken
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode session token: %w", err)
	}
	tok := &oauth2.Token{AccessToken: st.AccessToken}
	if st.Expiry != nil {
		tok.Expiry = *st.Expiry
	}
	return tok, nil
}
