// Package httpclient is the HTTP transport for HealthVault platform calls.
//
// A Client sends one logical call as one or more HTTP requests:
//   - GET when there is no body, POST otherwise
//   - request bodies compressed with gzip or deflate when configured
//   - Accept-Encoding: gzip, deflate on every request, with both decoded
//   - HTTP 500 retried up to RetryCount times with a fixed RetrySleep delay
//   - every other non-2xx status returned at once as a *TransportError
//
// # Usage
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Compression = "gzip"
//	c, err := httpclient.New(cfg, httpclient.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	resp, err := c.Send(ctx, "https://platform.healthvault.com/platform/wildcat.ashx", body, nil)
//
// # Retry Behavior
//
// Only status 500 is retried. Network errors, 4xx and the other 5xx codes
// fail immediately. A call makes at most RetryCount+1 attempts; when they are
// all answered with 500 the result is a TransportError of type server. The
// sleep between attempts ends early when the context is cancelled, yielding
// a TransportError of type cancelled that unwraps to the context error.
//
// # Observability
//
// Each attempt is logged through the configured *slog.Logger with the
// sanitized URL, status and duration, and counted in the
// healthvault_http_* Prometheus metrics. A correlation id stored in the
// context with tracing.ToContext is sent as X-Correlation-ID.
package httpclient
