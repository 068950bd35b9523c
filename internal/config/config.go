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

// Package config loads hvctl and SDK settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/tombee/healthvault/internal/log"
	"github.com/tombee/healthvault/internal/tracing"
	"github.com/tombee/healthvault/pkg/cryptoconfig"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/httpclient"
)

// Config is the complete client configuration.
type Config struct {
	// URL is the platform endpoint that receives request envelopes.
	URL string `yaml:"url" json:"url"`

	// AppID identifies the calling application.
	AppID string `yaml:"app_id" json:"app_id"`

	// RecordID is the default health record used by hvctl commands.
	RecordID string `yaml:"record_id,omitempty" json:"record_id,omitempty"`

	// Language and Country are sent in every request header.
	Language string `yaml:"language" json:"language"`
	Country  string `yaml:"country" json:"country"`

	Transport TransportConfig `yaml:"transport" json:"transport"`
	Crypto    CryptoConfig    `yaml:"crypto" json:"crypto"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Secrets   SecretsConfig   `yaml:"secrets" json:"secrets"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
}

// TransportConfig configures the HTTP transport.
type TransportConfig struct {
	// Compression applied to request bodies: none, gzip or deflate.
	Compression string `yaml:"compression" json:"compression"`

	// RetryCount is the number of retries after an HTTP 500.
	RetryCount int `yaml:"retry_count" json:"retry_count"`

	// RetrySleepSeconds is the fixed delay between attempts.
	RetrySleepSeconds float64 `yaml:"retry_sleep_seconds" json:"retry_sleep_seconds"`

	// Timeout bounds one call including retries.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	UserAgent string `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ProxyURL  string `yaml:"proxy_url,omitempty" json:"proxy_url,omitempty"`

	// RateLimit caps outgoing calls per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	RateBurst int     `yaml:"rate_burst,omitempty" json:"rate_burst,omitempty"`
}

// CryptoConfig selects the hash and HMAC algorithms.
type CryptoConfig struct {
	HashAlgorithm string `yaml:"hash_algorithm" json:"hash_algorithm"`
}

// CacheConfig configures the local thing cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// SecretsConfig selects where session tokens are stored.
type SecretsConfig struct {
	// Backend is "keychain" or "env".
	Backend string `yaml:"backend" json:"backend"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// TracingConfig selects where client spans are exported.
type TracingConfig struct {
	// Exporter is "none", "console" or "otlp". --trace forces console
	// output when this is "none".
	Exporter string `yaml:"exporter" json:"exporter"`

	// Protocol is the OTLP transport, "http" or "grpc".
	Protocol string `yaml:"protocol,omitempty" json:"protocol,omitempty"`

	// Endpoint is the collector's host:port.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	Insecure bool              `yaml:"insecure,omitempty" json:"insecure,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Default returns the built-in defaults.
func Default() *Config {
	transport := httpclient.DefaultConfig()
	return &Config{
		Language: "en",
		Country:  "US",
		Transport: TransportConfig{
			Compression:       transport.Compression,
			RetryCount:        transport.RetryCount,
			RetrySleepSeconds: transport.RetrySleep.Seconds(),
			Timeout:           transport.Timeout,
			UserAgent:         transport.UserAgent,
		},
		Crypto: CryptoConfig{
			HashAlgorithm: "sha256",
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Secrets: SecretsConfig{
			Backend: "keychain",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: string(log.FormatText),
		},
		Tracing: TracingConfig{
			Exporter: "none",
		},
	}
}

// Load reads configPath (when non-empty and present), fills defaults,
// applies environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for displaying or editing a partial
// configuration.
func Read(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &hverrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Language == "" {
		c.Language = defaults.Language
	}
	if c.Country == "" {
		c.Country = defaults.Country
	}
	if c.Transport.Compression == "" {
		c.Transport.Compression = defaults.Transport.Compression
	}
	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = defaults.Transport.Timeout
	}
	if c.Transport.UserAgent == "" {
		c.Transport.UserAgent = defaults.Transport.UserAgent
	}
	if c.Crypto.HashAlgorithm == "" {
		c.Crypto.HashAlgorithm = defaults.Crypto.HashAlgorithm
	}
	if c.Secrets.Backend == "" {
		c.Secrets.Backend = defaults.Secrets.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = defaults.Tracing.Exporter
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		if dir, err := DataDir(); err == nil {
			c.Cache.Path = filepath.Join(dir, "things.db")
		}
	}
}

// loadFromFile overlays the YAML file onto c. A missing file is not an error.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func (c *Config) loadFromEnv() error {
	if val := os.Getenv("HEALTHVAULT_URL"); val != "" {
		c.URL = val
	}
	if val := os.Getenv("HEALTHVAULT_APP_ID"); val != "" {
		c.AppID = val
	}
	if val := os.Getenv("HEALTHVAULT_RECORD_ID"); val != "" {
		c.RecordID = val
	}
	if val := os.Getenv("HEALTHVAULT_COMPRESSION"); val != "" {
		c.Transport.Compression = strings.ToLower(val)
	}
	if val := os.Getenv("HEALTHVAULT_RETRY_COUNT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return envError("HEALTHVAULT_RETRY_COUNT", val, err)
		}
		c.Transport.RetryCount = n
	}
	if val := os.Getenv("HEALTHVAULT_RETRY_SLEEP_SECONDS"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return envError("HEALTHVAULT_RETRY_SLEEP_SECONDS", val, err)
		}
		c.Transport.RetrySleepSeconds = f
	}
	if val := os.Getenv("HEALTHVAULT_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return envError("HEALTHVAULT_TIMEOUT", val, err)
		}
		c.Transport.Timeout = d
	}
	if val := os.Getenv("HEALTHVAULT_PROXY_URL"); val != "" {
		c.Transport.ProxyURL = val
	}
	if val := os.Getenv("HEALTHVAULT_RATE_LIMIT"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return envError("HEALTHVAULT_RATE_LIMIT", val, err)
		}
		c.Transport.RateLimit = f
	}
	if val := os.Getenv("HEALTHVAULT_HASH_ALGORITHM"); val != "" {
		c.Crypto.HashAlgorithm = val
	}
	if val := os.Getenv("HEALTHVAULT_CACHE_PATH"); val != "" {
		c.Cache.Path = val
		c.Cache.Enabled = true
	}
	if val := os.Getenv("HEALTHVAULT_SECRETS_BACKEND"); val != "" {
		c.Secrets.Backend = strings.ToLower(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Exporter = "otlp"
		c.Tracing.Endpoint = val
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); val != "" {
		// The OpenTelemetry variable spells HTTP as http/protobuf.
		c.Tracing.Protocol = strings.TrimSuffix(strings.ToLower(val), "/protobuf")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	return nil
}

func envError(name, val string, err error) error {
	return &hverrors.ConfigError{
		Key:    name,
		Reason: fmt.Sprintf("invalid value %q", val),
		Cause:  err,
	}
}

// Validate checks the configuration. Every problem is reported as a
// *errors.ConfigError; several problems are joined.
func (c *Config) Validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, &hverrors.ConfigError{Key: "url", Reason: "is required"})
	} else if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, &hverrors.ConfigError{Key: "url", Reason: fmt.Sprintf("invalid URL %q", c.URL), Cause: err})
	}
	if c.AppID == "" {
		errs = append(errs, &hverrors.ConfigError{Key: "app_id", Reason: "is required"})
	}
	if _, err := language.ParseBase(c.Language); err != nil {
		errs = append(errs, &hverrors.ConfigError{Key: "language", Reason: fmt.Sprintf("invalid ISO 639 language %q", c.Language), Cause: err})
	}
	if _, err := language.ParseRegion(c.Country); err != nil {
		errs = append(errs, &hverrors.ConfigError{Key: "country", Reason: fmt.Sprintf("invalid ISO 3166 country %q", c.Country), Cause: err})
	}

	transport := c.HTTPClientConfig()
	if err := transport.Validate(); err != nil {
		errs = append(errs, prefixKey("transport", err))
	}
	if c.Transport.RateLimit < 0 {
		errs = append(errs, &hverrors.ConfigError{Key: "transport.rate_limit", Reason: fmt.Sprintf("must be >= 0, got %v", c.Transport.RateLimit)})
	}

	if _, err := cryptoconfig.New(c.Crypto.HashAlgorithm); err != nil {
		errs = append(errs, err)
	}

	switch c.Secrets.Backend {
	case "keychain", "env":
	default:
		errs = append(errs, &hverrors.ConfigError{Key: "secrets.backend", Reason: fmt.Sprintf("must be one of [keychain, env], got %q", c.Secrets.Backend)})
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, &hverrors.ConfigError{Key: "log.level", Reason: fmt.Sprintf("must be one of [trace, debug, info, warn, error], got %q", c.Log.Level)})
	}
	if c.Log.Format != string(log.FormatJSON) && c.Log.Format != string(log.FormatText) {
		errs = append(errs, &hverrors.ConfigError{Key: "log.format", Reason: fmt.Sprintf("must be one of [json, text], got %q", c.Log.Format)})
	}

	switch c.Tracing.Exporter {
	case "none", "console":
	case "otlp":
		if err := c.OTLPConfig().Validate(); err != nil {
			errs = append(errs, &hverrors.ConfigError{Key: "tracing", Reason: err.Error()})
		}
	default:
		errs = append(errs, &hverrors.ConfigError{Key: "tracing.exporter", Reason: fmt.Sprintf("must be one of [none, console, otlp], got %q", c.Tracing.Exporter)})
	}

	return errors.Join(errs...)
}

func prefixKey(prefix string, err error) error {
	var cfgErr *hverrors.ConfigError
	if errors.As(err, &cfgErr) {
		return &hverrors.ConfigError{Key: prefix + "." + cfgErr.Key, Reason: cfgErr.Reason, Cause: cfgErr.Cause}
	}
	return err
}

// HTTPClientConfig converts the transport section for httpclient.New.
func (c *Config) HTTPClientConfig() httpclient.Config {
	return httpclient.Config{
		Timeout:     c.Transport.Timeout,
		RetryCount:  c.Transport.RetryCount,
		RetrySleep:  time.Duration(c.Transport.RetrySleepSeconds * float64(time.Second)),
		Compression: c.Transport.Compression,
		UserAgent:   c.Transport.UserAgent,
		ProxyURL:    c.Transport.ProxyURL,
	}
}

// CryptoConfiguration returns the configured hash and HMAC algorithms.
func (c *Config) CryptoConfiguration() (cryptoconfig.Configuration, error) {
	return cryptoconfig.New(c.Crypto.HashAlgorithm)
}

// Limiter returns a rate limiter for outgoing calls, or nil when limiting
// is disabled.
func (c *Config) Limiter() *rate.Limiter {
	if c.Transport.RateLimit <= 0 {
		return nil
	}
	burst := c.Transport.RateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.Transport.RateLimit), burst)
}

// OTLPConfig returns the collector settings for the otlp exporter.
func (c *Config) OTLPConfig() tracing.OTLPConfig {
	return tracing.OTLPConfig{
		Protocol: c.Tracing.Protocol,
		Endpoint: c.Tracing.Endpoint,
		Insecure: c.Tracing.Insecure,
		Headers:  c.Tracing.Headers,
	}
}

// LogConfig returns the logger settings.
func (c *Config) LogConfig() *log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = log.Format(c.Log.Format)
	return cfg
}

// Save writes cfg to path as YAML using an atomic rename.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
