package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tombee/healthvault/internal/metrics"
	"github.com/tombee/healthvault/internal/tracing"
)

// loggingTransport wraps an http.RoundTripper to add:
// - Request logging with sanitized URLs
// - User-Agent header injection
// - Correlation ID propagation
// - Per-attempt metrics
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

// newLoggingTransport creates a new logging transport that wraps the base transport.
func newLoggingTransport(base http.RoundTripper, userAgent string, logger *slog.Logger) *loggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &loggingTransport{
		base:      base,
		userAgent: userAgent,
		logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper.
// Every attempt is logged with method, URL (sanitized), status/error, and duration.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	tracing.InjectIntoRequest(req.Context(), req)

	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	logURL := sanitizeURL(req.URL)
	if err != nil {
		metrics.RecordHTTPAttempt(req.Method, "error", elapsed)
		t.logger.Warn("http request failed",
			"method", req.Method,
			"url", logURL,
			"duration_ms", elapsed.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	metrics.RecordHTTPAttempt(req.Method, http.StatusText(resp.StatusCode), elapsed)
	level := slog.LevelDebug
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	t.logger.Log(req.Context(), level, "http request",
		"method", req.Method,
		"url", logURL,
		"status", resp.StatusCode,
		"content_encoding", resp.Header.Get("Content-Encoding"),
		"duration_ms", elapsed.Milliseconds(),
	)
	return resp, nil
}
