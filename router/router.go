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

package router

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Router matches requests against registered routes and drives the hook
// lifecycle. It implements http.Handler.
//
// The root Scope is embedded: hooks, decorations, and routes registered
// directly on the router belong to the root scope. Registration is not
// safe for concurrent use with serving; configure first, then serve.
type Router struct {
	*Scope

	tree *node
	pool sync.Pool

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics

	notFound      HandlerFunc
	errorHandlers []ErrorHandler
	requestID     bool
}

// Option configures a Router at construction.
type Option func(*Router)

// WithLogger sets the base logger for request-scoped logging. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithTracer enables a server span per request with the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) { r.tracer = tracer }
}

// WithMetrics registers request counters and duration histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Router) { r.metrics = newMetrics(reg) }
}

// WithNotFound replaces the default 404 handler.
func WithNotFound(handler HandlerFunc) Option {
	return func(r *Router) { r.notFound = handler }
}

// WithRequestID toggles per-request id generation. Enabled by default; the
// id is exposed via [Context.RequestID] and the X-Request-ID header.
func WithRequestID(enabled bool) Option {
	return func(r *Router) { r.requestID = enabled }
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{
		tree:      &node{},
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("lattice.dev/lattice/router"),
		requestID: true,
	}
	r.Scope = &Scope{router: r}
	r.pool.New = func() any { return &Context{} }

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnError appends error handlers tried in order when an error escapes the
// pipeline. Error handlers are router-wide; scopes cannot shadow them.
func (r *Router) OnError(handlers ...ErrorHandler) {
	r.errorHandlers = append(r.errorHandlers, handlers...)
}

// Lookup matches a method and path without running the lifecycle, binding
// path parameters into c when a context is supplied. Mainly for tests and
// introspection.
func (r *Router) Lookup(method, path string, c *Context) *Route {
	if c == nil {
		c = &Context{}
	}
	return r.tree.match(method, splitPath(path), c)
}

func (r *Router) acquireContext() *Context {
	return r.pool.Get().(*Context)
}

func (r *Router) releaseContext(c *Context) {
	// Background handlers hold the context past ServeHTTP; those contexts
	// are simply not pooled.
	c.reset(nil, nil, nil)
	r.pool.Put(c)
}
