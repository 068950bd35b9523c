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

// Package connection sends platform method calls. Connection is the seam the
// thing client depends on; HTTPConnection is the production implementation.
package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tombee/healthvault/internal/tracing"
	"github.com/tombee/healthvault/pkg/cryptoconfig"
	"github.com/tombee/healthvault/pkg/envelope"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/httpclient"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of a reply is read into memory.
const maxResponseBytes = 64 << 20

// Call is one platform method invocation.
type Call struct {
	Method   string
	Version  int
	RecordID string

	// Info is the content of the request's <info> element.
	Info []byte

	// CorrelationID, when valid, replaces any id already carried by the
	// context for this call.
	CorrelationID tracing.CorrelationID
}

// Connection executes calls. Implementations return a *errors.ServiceError
// when the platform reports a non-zero status.
type Connection interface {
	Execute(ctx context.Context, call Call) (*envelope.Response, error)
}

// Func adapts a function to the Connection interface.
type Func func(ctx context.Context, call Call) (*envelope.Response, error)

// Execute implements Connection.
func (f Func) Execute(ctx context.Context, call Call) (*envelope.Response, error) {
	return f(ctx, call)
}

// Invalidator is implemented by token sources that can drop a cached session
// token. HTTPConnection uses it to retry once after the platform reports an
// expired session.
type Invalidator interface {
	Invalidate()
}

// Options configures an HTTPConnection.
type Options struct {
	// URL is the platform endpoint, e.g.
	// https://platform.healthvault.com/platform/wildcat.ashx.
	URL string

	AppID string

	// Tokens supplies the user session token. Nil means application-only
	// authentication.
	Tokens oauth2.TokenSource

	// SharedSecret signs the header when set.
	SharedSecret []byte

	// Crypto picks the hash and HMAC algorithms (default SHA-256).
	Crypto cryptoconfig.Configuration

	// Limiter throttles calls when set.
	Limiter *rate.Limiter

	Language string
	Country  string

	// Version is written to the request header to identify the client.
	Version string

	Logger *slog.Logger
}

// HTTPConnection signs calls and posts them through an httpclient.Client.
type HTTPConnection struct {
	client *httpclient.Client
	opts   Options
	logger *slog.Logger
}

// NewHTTPConnection validates opts and returns a connection using client.
func NewHTTPConnection(client *httpclient.Client, opts Options) (*HTTPConnection, error) {
	if client == nil {
		return nil, &hverrors.ValidationError{Field: "client", Message: "must not be nil"}
	}
	if strings.TrimSpace(opts.URL) == "" {
		return nil, &hverrors.ConfigError{Key: "url", Reason: "platform URL is required"}
	}
	if opts.AppID == "" && opts.Tokens == nil {
		return nil, &hverrors.ConfigError{Key: "app_id", Reason: "an application id or a session token source is required"}
	}
	if opts.Crypto == nil {
		opts.Crypto = cryptoconfig.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPConnection{
		client: client,
		opts:   opts,
		logger: logger.With(slog.String("component", "connection")),
	}, nil
}

// Execute implements Connection.
func (c *HTTPConnection) Execute(ctx context.Context, call Call) (*envelope.Response, error) {
	if strings.TrimSpace(call.Method) == "" {
		return nil, &hverrors.ValidationError{Field: "method", Message: "must not be empty"}
	}
	if call.CorrelationID.IsValid() {
		ctx = tracing.ToContext(ctx, call.CorrelationID)
	}
	ctx, cid := tracing.Ensure(ctx)

	resp, err := c.execute(ctx, call)
	var svcErr *hverrors.ServiceError
	if errors.As(err, &svcErr) && svcErr.Code == hverrors.StatusSessionTokenExpired {
		if inv, ok := c.opts.Tokens.(Invalidator); ok {
			c.logger.Info("session token expired, refreshing",
				"method", call.Method,
				"correlation_id", cid.String(),
			)
			inv.Invalidate()
			resp, err = c.execute(ctx, call)
		}
	}
	return resp, err
}

func (c *HTTPConnection) execute(ctx context.Context, call Call) (*envelope.Response, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, &httpclient.TransportError{Type: httpclient.ErrorTypeCancelled, Message: "waiting for rate limiter", Cause: err}
		}
	}

	var authToken string
	if c.opts.Tokens != nil {
		tok, err := c.opts.Tokens.Token()
		if err != nil {
			return nil, &httpclient.TransportError{Type: httpclient.ErrorTypeAuth, Message: "obtaining session token", Cause: err}
		}
		authToken = tok.AccessToken
	}

	req := envelope.Request{
		Method:        call.Method,
		MethodVersion: call.Version,
		RecordID:      call.RecordID,
		AppID:         c.opts.AppID,
		AuthToken:     authToken,
		SharedSecret:  c.opts.SharedSecret,
		Language:      c.opts.Language,
		Country:       c.opts.Country,
		Version:       c.opts.Version,
		Info:          call.Info,
	}
	body, err := req.Marshal(c.opts.Crypto)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", "text/xml; charset=utf-8")
	resp, err := c.client.Send(ctx, c.opts.URL, body, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &httpclient.TransportError{Type: httpclient.ErrorTypeConnection, Message: "reading response", Cause: err}
	}
	parsed, err := envelope.ParseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", call.Method, err)
	}
	if err := parsed.Err(call.Method); err != nil {
		c.logger.Debug("platform returned error status",
			"method", call.Method,
			"code", int(parsed.Code),
			"message", parsed.Message,
		)
		return nil, err
	}
	return parsed, nil
}
