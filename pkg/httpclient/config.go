package httpclient

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	hverrors "github.com/tombee/healthvault/pkg/errors"
)

// Compression selects how request bodies are encoded.
type Compression string

const (
	CompressionNone    Compression = "none"
	CompressionGzip    Compression = "gzip"
	CompressionDeflate Compression = "deflate"
)

// ParseCompression maps a configuration value to a Compression. The empty
// string means none. Anything else is a *errors.ConfigError.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionDeflate:
		return c, nil
	}
	return "", &hverrors.ConfigError{
		Key:    "compression",
		Reason: fmt.Sprintf("unsupported compression method %q (supported: none, gzip, deflate)", s),
	}
}

// Config configures the transport.
type Config struct {
	// Timeout bounds a single call, retries included.
	// Default: 2m. Must be > 0.
	Timeout time.Duration

	// RetryCount is the number of extra attempts made after an HTTP 500
	// (0 = no retries). A call makes at most RetryCount+1 attempts.
	// Default: 2. Must be >= 0.
	RetryCount int

	// RetrySleep is the fixed delay between attempts.
	// Default: 1s. Must be >= 0.
	RetrySleep time.Duration

	// Compression is applied to request bodies: none, gzip or deflate.
	// Responses in either encoding are always accepted.
	Compression string

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string

	// ProxyURL routes requests through an HTTP proxy when set.
	ProxyURL string
}

// DefaultConfig returns a Config with the platform's usual settings.
func DefaultConfig() Config {
	return Config{
		Timeout:     2 * time.Minute,
		RetryCount:  2,
		RetrySleep:  time.Second,
		Compression: string(CompressionNone),
		UserAgent:   "healthvault-go/1.0",
	}
}

// Validate checks the configuration. Every failure is a *errors.ConfigError
// so no request is ever attempted with an invalid setup.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return &hverrors.ConfigError{Key: "timeout", Reason: fmt.Sprintf("must be > 0, got %v", c.Timeout)}
	}
	if c.RetryCount < 0 {
		return &hverrors.ConfigError{Key: "retry_count", Reason: fmt.Sprintf("must be >= 0, got %d", c.RetryCount)}
	}
	if c.RetrySleep < 0 {
		return &hverrors.ConfigError{Key: "retry_sleep_seconds", Reason: fmt.Sprintf("must be >= 0, got %v", c.RetrySleep)}
	}
	if _, err := ParseCompression(c.Compression); err != nil {
		return err
	}
	if c.UserAgent == "" {
		return &hverrors.ConfigError{Key: "user_agent", Reason: "is required and must be non-empty"}
	}
	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &hverrors.ConfigError{Key: "proxy_url", Reason: fmt.Sprintf("invalid URL %q", c.ProxyURL), Cause: err}
		}
	}
	return nil
}
