package httpclient

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tombee/healthvault/internal/metrics"
)

// retryTransport resends a request after an HTTP 500 response, sleeping a
// fixed interval between attempts. No other status and no network error is
// retried.
type retryTransport struct {
	base        http.RoundTripper
	maxAttempts int
	sleep       time.Duration
	logger      *slog.Logger
}

// newRetryTransport creates a retry transport that wraps the base transport.
func newRetryTransport(base http.RoundTripper, cfg Config, logger *slog.Logger) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &retryTransport{
		base:        base,
		maxAttempts: cfg.RetryCount + 1, // +1 because attempts include initial try
		sleep:       cfg.RetrySleep,
		logger:      logger,
	}
}

// RoundTrip implements http.RoundTripper with retry logic.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			metrics.RecordHTTPRetry(req.Method)
			t.logger.Debug("retrying after server error",
				"attempt", attempt,
				"max_attempts", t.maxAttempts,
				"sleep", t.sleep,
			)

			// Wait with context cancellation support
			select {
			case <-time.After(t.sleep):
			case <-ctx.Done():
				return nil, &TransportError{
					Type:     ErrorTypeCancelled,
					Message:  "request cancelled while waiting to retry",
					Attempts: attempt - 1,
					Cause:    ctx.Err(),
				}
			}

			var err error
			if req, err = rewind(req); err != nil {
				return nil, &TransportError{Type: ErrorTypeInvalidReq, Message: "request body cannot be replayed", Cause: err}
			}
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusInternalServerError {
			return resp, nil
		}

		// The 500 response is never handed back, so close it now.
		drain(resp)

		if attempt >= t.maxAttempts {
			return nil, &TransportError{
				Type:       ErrorTypeServer,
				StatusCode: http.StatusInternalServerError,
				Message:    "server error persisted after all retries",
				Attempts:   attempt,
				Retryable:  true,
			}
		}
	}
}

// rewind returns a copy of req with a fresh body for the next attempt.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errNoGetBody
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next := req.Clone(req.Context())
	next.Body = body
	return next, nil
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
