package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Option customizes a Client.
type Option func(*options)

type options struct {
	logger *slog.Logger
	base   http.RoundTripper
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBaseTransport replaces the network transport under the retry,
// decompression and logging layers.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// Client sends one platform call, retrying server errors according to its
// Config.
type Client struct {
	http        *http.Client
	compression Compression
	logger      *slog.Logger
}

// New creates a client with the given configuration. The transport stack is,
// from the outside in: retry, response decompression, logging, network.
//
// Returns a *errors.ConfigError if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	compression, _ := ParseCompression(cfg.Compression)

	base := o.base
	if base == nil {
		t := &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: cfg.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
			Proxy:                 http.ProxyFromEnvironment,
		}
		if cfg.ProxyURL != "" {
			proxy, _ := url.Parse(cfg.ProxyURL)
			t.Proxy = http.ProxyURL(proxy)
		}
		base = t
	}

	var rt http.RoundTripper = newLoggingTransport(base, cfg.UserAgent, o.logger)
	rt = newDecompressTransport(rt)
	rt = newRetryTransport(rt, cfg, o.logger)

	return &Client{
		http: &http.Client{
			Transport: rt,
			Timeout:   cfg.Timeout,
		},
		compression: compression,
		logger:      o.logger,
	}, nil
}

// Send issues the call: GET when body is nil, POST otherwise, with header
// attached. The returned response has a 2xx status and a decoded body the
// caller must close. Every other outcome is a *TransportError.
func (c *Client) Send(ctx context.Context, target string, body []byte, header http.Header) (*http.Response, error) {
	method := http.MethodGet
	var reader io.Reader
	if body != nil {
		method = http.MethodPost
		encoded, err := compressBody(c.compression, body)
		if err != nil {
			return nil, &TransportError{Type: ErrorTypeInvalidReq, Message: "compressing request body", Cause: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &TransportError{Type: ErrorTypeInvalidReq, Message: "building request", Cause: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "text/xml; charset=utf-8")
		}
		if c.compression != CompressionNone {
			req.Header.Set("Content-Encoding", string(c.compression))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		drain(resp)
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

// classify turns an error from http.Client.Do into a *TransportError.
func classify(ctx context.Context, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TransportError{Type: ErrorTypeTimeout, Message: "deadline exceeded", Cause: err}
		}
		return &TransportError{Type: ErrorTypeCancelled, Message: "request cancelled", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Type: ErrorTypeTimeout, Message: "request timed out", Retryable: true, Cause: err}
	}
	return &TransportError{Type: ErrorTypeConnection, Message: "request failed", Retryable: true, Cause: err}
}
