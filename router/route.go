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
	"lattice.dev/lattice/chain"
	"lattice.dev/lattice/validation"
)

// RouteKind classifies how the lifecycle treats the handler.
type RouteKind int

const (
	// KindOrdinary is a request-response handler whose result is
	// serialized by the lifecycle.
	KindOrdinary RouteKind = iota

	// KindLongLived marks a handler that takes over the connection
	// (streaming, server-sent events). The lifecycle runs the hook phases
	// up to the handler and then leaves the response to it.
	KindLongLived

	// KindBackground detaches the handler onto its own goroutine and
	// replies 202 Accepted immediately. Background handlers must not
	// touch the response writer.
	KindBackground
)

// Route is an immutable registered route. It is created at registration
// time, never mutated afterward, and lives for the lifetime of the router.
//
// The hook lists are frozen snapshots of the owning scope's hooks at the
// moment of registration, with route-specific hooks appended after the
// inherited ones. Hooks added to the scope later do not apply to routes
// registered earlier; register hooks before routes.
type Route struct {
	// Methods lists every HTTP method the route was registered for.
	Methods []string
	// Pattern is the registered path pattern, including the scope prefix.
	Pattern string
	// Kind selects the lifecycle treatment of the handler.
	Kind RouteKind

	handler HandlerFunc

	hooks  [numPhases][]HandlerFunc
	phases [numPhases]chain.Handler[*Context]

	params   validation.Schema
	query    validation.Schema
	body     validation.Schema
	response validation.Schema

	decorations        map[string]any
	requestDecorations map[string]func(c *Context) any
}

// compile precomposes the per-phase hook chains. onResponse hooks are run
// individually (fire-and-forget), so that phase is left uncomposed.
func (rt *Route) compile() {
	for p := PhaseOnRequest; p < PhaseOnResponse; p++ {
		rt.phases[p] = composePhase(rt.hooks[p])
	}
}

// routeConfig collects per-route options before the Route is frozen.
type routeConfig struct {
	kind             RouteKind
	params           validation.Schema
	query            validation.Schema
	body             validation.Schema
	response         validation.Schema
	onRequest        []HandlerFunc
	preHandler       []HandlerFunc
	preSerialization []HandlerFunc
}

// RouteOption configures a single route at registration.
type RouteOption func(*routeConfig)

// WithKind sets the route kind. Default is [KindOrdinary].
func WithKind(kind RouteKind) RouteOption {
	return func(cfg *routeConfig) { cfg.kind = kind }
}

// WithParams attaches a validator for the extracted path parameters.
func WithParams(schema validation.Schema) RouteOption {
	return func(cfg *routeConfig) { cfg.params = schema }
}

// WithQuery attaches a validator for the query parameters.
func WithQuery(schema validation.Schema) RouteOption {
	return func(cfg *routeConfig) { cfg.query = schema }
}

// WithBody attaches a validator for the parsed request body. The validator's
// normalized output replaces Context.Body.
func WithBody(schema validation.Schema) RouteOption {
	return func(cfg *routeConfig) { cfg.body = schema }
}

// WithResponse attaches a validator for the handler result. A failing result
// is treated as a server bug: the request fails with status 500 and the
// result is discarded.
func WithResponse(schema validation.Schema) RouteOption {
	return func(cfg *routeConfig) { cfg.response = schema }
}

// WithOnRequest appends route-specific onRequest hooks, after the hooks
// inherited from the scope.
func WithOnRequest(hooks ...HandlerFunc) RouteOption {
	return func(cfg *routeConfig) { cfg.onRequest = append(cfg.onRequest, hooks...) }
}

// WithPreHandler appends route-specific preHandler hooks, after the hooks
// inherited from the scope.
func WithPreHandler(hooks ...HandlerFunc) RouteOption {
	return func(cfg *routeConfig) { cfg.preHandler = append(cfg.preHandler, hooks...) }
}

// WithPreSerialization appends route-specific preSerialization hooks, after
// the hooks inherited from the scope.
func WithPreSerialization(hooks ...HandlerFunc) RouteOption {
	return func(cfg *routeConfig) { cfg.preSerialization = append(cfg.preSerialization, hooks...) }
}
