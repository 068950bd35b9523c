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

// Package client provides ThingClient, the typed API for reading and writing
// things in a HealthVault record.
//
// Reads materialize items through a thing.Registry. Writes reconcile the
// keys the platform assigns back onto the caller's items: the n-th
// <thing-id> in a PutThings reply belongs to the n-th item written. Only
// dirty or never round-tripped items are sent on update, and an update with
// nothing to send makes no call at all.
package client

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tombee/healthvault/internal/metrics"
	"github.com/tombee/healthvault/internal/tracing"
	"github.com/tombee/healthvault/pkg/connection"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/itemtypes"
	"github.com/tombee/healthvault/pkg/thing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Platform method names and the versions this client speaks.
const (
	MethodGetThings    = "GetThings"
	MethodPutThings    = "PutThings"
	MethodRemoveThings = "RemoveThings"

	getThingsVersion    = 3
	putThingsVersion    = 2
	removeThingsVersion = 1
)

// Store receives the last known state of things after successful calls.
// Store failures are logged and never fail the call.
type Store interface {
	Save(ctx context.Context, recordID string, items []thing.Thing) error
	Delete(ctx context.Context, recordID string, keys []thing.Key) error
}

// Option configures a ThingClient.
type Option func(*ThingClient)

// WithRegistry sets the registry used to decode items (default
// itemtypes.DefaultRegistry()).
func WithRegistry(r *thing.Registry) Option {
	return func(c *ThingClient) { c.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *ThingClient) { c.logger = l }
}

// WithStore writes results through to s.
func WithStore(s Store) Option {
	return func(c *ThingClient) { c.store = s }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *ThingClient) { c.tracer = t }
}

// ThingClient issues thing calls over a Connection. It holds no per-call
// state and is safe for concurrent use; the items passed to it are not.
type ThingClient struct {
	conn     connection.Connection
	registry *thing.Registry
	logger   *slog.Logger
	store    Store
	tracer   trace.Tracer
}

// New returns a client sending calls over conn.
func New(conn connection.Connection, opts ...Option) *ThingClient {
	c := &ThingClient{conn: conn}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = itemtypes.DefaultRegistry()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slog.String("component", "thing_client"))
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracing.InstrumentationName)
	}
	return c
}

// Registry returns the registry used to decode items.
func (c *ThingClient) Registry() *thing.Registry {
	return c.registry
}

// begin opens the span for one operation and returns the function that
// closes it, records metrics and logs the outcome.
func (c *ThingClient) begin(ctx context.Context, op, recordID string, items int) (context.Context, func(err error)) {
	start := time.Now()
	ctx, cid := tracing.Ensure(ctx)
	ctx, span := c.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("healthvault.method", op),
			attribute.String("healthvault.record_id", recordID),
			attribute.Int("healthvault.items", items),
			attribute.String("correlation_id", cid.String()),
		),
	)
	return ctx, func(err error) {
		elapsed := time.Since(start)
		result := "success"
		if err != nil {
			result = hverrors.Classify(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("thing operation failed",
				"operation", op,
				"correlation_id", cid.String(),
				"duration_ms", elapsed.Milliseconds(),
				"error", err,
			)
		} else {
			c.logger.Debug("thing operation",
				"operation", op,
				"correlation_id", cid.String(),
				"items", items,
				"duration_ms", elapsed.Milliseconds(),
			)
		}
		metrics.RecordOperation(op, result, elapsed)
		span.End()
	}
}

func requireRecordID(recordID string) error {
	if strings.TrimSpace(recordID) == "" {
		return &hverrors.ValidationError{Field: "recordID", Message: "must not be empty"}
	}
	return nil
}

func (c *ThingClient) saveToStore(ctx context.Context, recordID string, items []thing.Thing) {
	if c.store == nil || len(items) == 0 {
		return
	}
	if err := c.store.Save(ctx, recordID, items); err != nil {
		c.logger.Warn("failed to cache things", "count", len(items), "error", err)
	}
}

func (c *ThingClient) deleteFromStore(ctx context.Context, recordID string, keys []thing.Key) {
	if c.store == nil || len(keys) == 0 {
		return
	}
	if err := c.store.Delete(ctx, recordID, keys); err != nil {
		c.logger.Warn("failed to evict cached things", "count", len(keys), "error", err)
	}
}
