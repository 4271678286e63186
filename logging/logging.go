// Copyright 2026 The Lattice Authors
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

// Package logging provides slog-based structured logging with trace
// correlation for the request pipeline.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// Semantic field names for trace correlation.
const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// HandlerType selects the slog handler implementation.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
)

type config struct {
	handler HandlerType
	level   slog.Level
	output  io.Writer
}

// Option configures [New].
type Option func(*config)

// WithHandler selects the handler type. Default is [JSONHandler].
func WithHandler(h HandlerType) Option {
	return func(c *config) { c.handler = h }
}

// WithLevel sets the minimum level. Default is [slog.LevelInfo].
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithOutput sets the destination. Default is os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// New creates a configured *slog.Logger.
//
// Example:
//
//	logger := logging.New(logging.WithHandler(logging.TextHandler), logging.WithLevel(slog.LevelDebug))
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		handler: JSONHandler,
		level:   slog.LevelInfo,
		output:  os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}

	var handler slog.Handler
	switch cfg.handler {
	case TextHandler:
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}

	return slog.New(handler)
}

type contextKey struct{}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in the context, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithTrace returns the logger enriched with trace_id and span_id when the
// context carries an active OpenTelemetry span, or unchanged otherwise.
// Attaching the IDs once per request keeps every later log line correlated
// without threading them manually.
func WithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !sc.IsValid() {
		return logger
	}

	return logger.With(
		fieldTraceID, sc.TraceID().String(),
		fieldSpanID, sc.SpanID().String(),
	)
}
