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

package tracing

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// OTLP protocols.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// OTLPConfig selects a collector for span export.
type OTLPConfig struct {
	// Protocol is "http" (default) or "grpc".
	Protocol string

	// Endpoint is host:port of the collector.
	Endpoint string

	// URLPath overrides the HTTP traces path (default /v1/traces).
	URLPath string

	// Insecure disables TLS.
	Insecure bool

	// Headers are sent with every export request.
	Headers map[string]string
}

// Validate checks the exporter settings.
func (c OTLPConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("otlp endpoint is required")
	}
	switch c.protocol() {
	case ProtocolHTTP, ProtocolGRPC:
		return nil
	}
	return fmt.Errorf("unsupported otlp protocol %q (want %s or %s)", c.Protocol, ProtocolHTTP, ProtocolGRPC)
}

func (c OTLPConfig) protocol() string {
	if c.Protocol == "" {
		return ProtocolHTTP
	}
	return strings.ToLower(c.Protocol)
}

// NewOTLPProvider batches spans to an OTLP collector and installs the
// provider globally.
func NewOTLPProvider(ctx context.Context, cfg Config, otlp OTLPConfig) (*Provider, error) {
	if err := otlp.Validate(); err != nil {
		return nil, err
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch otlp.protocol() {
	case ProtocolGRPC:
		exporter, err = newGRPCExporter(ctx, otlp)
	default:
		exporter, err = newHTTPExporter(ctx, otlp)
	}
	if err != nil {
		return nil, err
	}
	return NewProvider(cfg, sdktrace.WithBatcher(exporter))
}

func newHTTPExporter(ctx context.Context, cfg OTLPConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.URLPath != "" {
		opts = append(opts, otlptracehttp.WithURLPath(cfg.URLPath))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	} else {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}
	return exporter, nil
}

func newGRPCExporter(ctx context.Context, cfg OTLPConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
	}
	return exporter, nil
}
