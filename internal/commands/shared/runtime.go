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
	"fmt"
	"log/slog"

	"github.com/tombee/healthvault/internal/config"
	"github.com/tombee/healthvault/internal/log"
	"github.com/tombee/healthvault/internal/secrets"
	"github.com/tombee/healthvault/internal/thingcache"
	"github.com/tombee/healthvault/internal/tracing"
	"github.com/tombee/healthvault/pkg/client"
	"github.com/tombee/healthvault/pkg/connection"
	"github.com/tombee/healthvault/pkg/httpclient"
)

// Session bundles what a command needs to talk to the platform.
type Session struct {
	Config *config.Config
	Logger *slog.Logger
	Client *client.ThingClient

	// Cache is nil when the local cache is disabled or failed to open.
	Cache *thingcache.Cache

	tracer *tracing.Provider
}

var sessionFactory = openSession

// SetSessionFactoryForTest replaces the session constructor and returns a
// function restoring the original.
func SetSessionFactoryForTest(f func() (*Session, error)) func() {
	prev := sessionFactory
	sessionFactory = f
	return func() { sessionFactory = prev }
}

// OpenSession loads configuration and wires the transport, connection,
// token storage, cache and thing client.
func OpenSession() (*Session, error) {
	return sessionFactory()
}

// ConfigFile returns the path named by --config, or the default config path.
func ConfigFile() (string, error) {
	if path := GetConfigPath(); path != "" {
		return path, nil
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", fmt.Errorf("locate config: %w", err)
	}
	return path, nil
}

// LoadConfig loads and validates the config file.
func LoadConfig() (*config.Config, error) {
	path, err := ConfigFile()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// ReadConfig loads the config file without validating it, for commands
// that only need part of it.
func ReadConfig() (*config.Config, error) {
	path, err := ConfigFile()
	if err != nil {
		return nil, err
	}
	return config.Read(path)
}

// NewLogger builds the CLI logger, honoring --verbose and --quiet.
func NewLogger(cfg *config.Config) *slog.Logger {
	lc := cfg.LogConfig()
	if GetVerbose() {
		lc.Level = "debug"
	}
	if GetQuiet() {
		lc.Level = "error"
	}
	return log.New(lc)
}

// Tokens returns the session token store for cfg.
func Tokens(cfg *config.Config) (*secrets.SessionTokens, error) {
	if cfg.AppID == "" {
		return nil, NewUsageError("no application id configured", errors.New("run 'hvctl config init' or set HEALTHVAULT_APP_ID"))
	}
	backend, err := secrets.NewBackend(cfg.Secrets.Backend)
	if err != nil {
		return nil, err
	}
	if !backend.Available() {
		return nil, NewAuthError("secret storage unavailable", secrets.ErrBackendUnavailable)
	}
	return secrets.NewSessionTokens(backend, secrets.TokenKey(cfg.AppID), nil), nil
}

func openSession() (*Session, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg)
	s := &Session{Config: cfg, Logger: logger}

	tp, err := newTracer(cfg)
	if err != nil {
		return nil, err
	}
	s.tracer = tp

	httpClient, err := httpclient.New(cfg.HTTPClientConfig(), httpclient.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	crypto, err := cfg.CryptoConfiguration()
	if err != nil {
		return nil, err
	}
	tokens, err := Tokens(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := connection.NewHTTPConnection(httpClient, connection.Options{
		URL:      cfg.URL,
		AppID:    cfg.AppID,
		Tokens:   tokens,
		Crypto:   crypto,
		Limiter:  cfg.Limiter(),
		Language: cfg.Language,
		Country:  cfg.Country,
		Version:  "hvctl/" + version,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	opts := []client.Option{client.WithLogger(logger)}
	if s.tracer != nil {
		opts = append(opts, client.WithTracer(s.tracer.Tracer("hvctl")))
	}
	if cfg.Cache.Enabled && cfg.Cache.Path != "" {
		cache, err := thingcache.Open(thingcache.Config{Path: cfg.Cache.Path, Logger: logger})
		if err != nil {
			logger.Warn("local cache disabled", slog.String("path", cfg.Cache.Path), slog.Any("error", err))
		} else {
			s.Cache = cache
			opts = append(opts, client.WithStore(cache))
		}
	}
	s.Client = client.New(conn, opts...)
	return s, nil
}

// WithSession opens a session, resolves the selected record and runs fn.
// The session is closed when fn returns.
func WithSession(ctx context.Context, fn func(ctx context.Context, s *Session, recordID string) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(context.Background()); cerr != nil && err == nil {
			s.Logger.Warn("closing session", slog.Any("error", cerr))
		}
	}()

	recordID, err := s.RecordID()
	if err != nil {
		return err
	}
	return fn(ctx, s, recordID)
}

// newTracer returns the span exporter selected by the config, console
// output for --trace, or nil when tracing is off.
func newTracer(cfg *config.Config) (*tracing.Provider, error) {
	tc := tracing.Config{ServiceName: "hvctl", ServiceVersion: version}
	switch {
	case cfg.Tracing.Exporter == "otlp":
		return tracing.NewOTLPProvider(context.Background(), tc, cfg.OTLPConfig())
	case GetTrace() || cfg.Tracing.Exporter == "console":
		tc.PrettyPrint = true
		return tracing.NewConsoleProvider(tc)
	}
	return nil, nil
}

// RecordID returns the record from --record or the config file.
func (s *Session) RecordID() (string, error) {
	return RecordIDFor(s.Config)
}

// RecordIDFor returns the record from --record, falling back to cfg.
func RecordIDFor(cfg *config.Config) (string, error) {
	if id := GetRecordID(); id != "" {
		return id, nil
	}
	if cfg != nil && cfg.RecordID != "" {
		return cfg.RecordID, nil
	}
	return "", NewUsageError("no record selected", errors.New("pass --record or set record_id in the config file"))
}

// Close flushes spans and closes the cache.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.tracer != nil {
		errs = append(errs, s.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
