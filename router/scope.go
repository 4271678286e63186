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
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Plugin installs routes, hooks, and decorations onto a scope.
type Plugin func(s *Scope)

// Scope is an encapsulated registration context. Hooks and decorations
// added to a scope apply to routes registered on it and on its child
// scopes, but never leak back to the parent or to siblings.
//
// A child scope starts as a copy of its parent: it sees everything the
// parent had at the moment [Scope.Register] was called, and anything the
// parent adds afterwards is invisible to it. Scopes are a configuration
// mechanism only; per-request flow never consults them.
type Scope struct {
	router *Router
	prefix string

	hooks [numPhases][]HandlerFunc

	decorations        map[string]any
	requestDecorations map[string]func(c *Context) any
}

// Register mounts a plugin under a child scope with the given path prefix.
// The plugin receives a copy of this scope's hooks and decorations and may
// extend them freely without affecting this scope.
func (s *Scope) Register(prefix string, plugin Plugin) {
	child := &Scope{
		router:             s.router,
		prefix:             joinPaths(s.prefix, prefix),
		decorations:        maps.Clone(s.decorations),
		requestDecorations: maps.Clone(s.requestDecorations),
	}
	for p := range numPhases {
		child.hooks[p] = slices.Clone(s.hooks[p])
	}
	plugin(child)
}

// AddHook appends hooks to a lifecycle phase of this scope. The hooks apply
// only to routes registered on this scope (or children created) afterwards.
func (s *Scope) AddHook(phase Phase, hooks ...HandlerFunc) {
	if phase < 0 || phase >= numPhases {
		panic("router: unknown hook phase")
	}
	s.hooks[phase] = append(s.hooks[phase], hooks...)
}

// Decorate binds a named value visible via [Context.Get] to every route
// registered on this scope and its children afterwards.
func (s *Scope) Decorate(name string, value any) {
	if s.decorations == nil {
		s.decorations = make(map[string]any, 4)
	}
	s.decorations[name] = value
}

// DecorateRequest registers a per-request value factory. The factory runs
// once per request before the onRequest hooks and its result is stored
// under name via [Context.Set].
func (s *Scope) DecorateRequest(name string, factory func(c *Context) any) {
	if s.requestDecorations == nil {
		s.requestDecorations = make(map[string]func(c *Context) any, 4)
	}
	s.requestDecorations[name] = factory
}

// GET registers a GET route.
func (s *Scope) GET(path string, handler HandlerFunc, opts ...RouteOption) *Route {
	return s.Route([]string{http.MethodGet}, path, handler, opts...)
}

// POST registers a POST route.
func (s *Scope) POST(path string, handler HandlerFunc, opts ...RouteOption) *Route {
	return s.Route([]string{http.MethodPost}, path, handler, opts...)
}

// PUT registers a PUT route.
func (s *Scope) PUT(path string, handler HandlerFunc, opts ...RouteOption) *Route {
	return s.Route([]string{http.MethodPut}, path, handler, opts...)
}

// DELETE registers a DELETE route.
func (s *Scope) DELETE(path string, handler HandlerFunc, opts ...RouteOption) *Route {
	return s.Route([]string{http.MethodDelete}, path, handler, opts...)
}

// PATCH registers a PATCH route.
func (s *Scope) PATCH(path string, handler HandlerFunc, opts ...RouteOption) *Route {
	return s.Route([]string{http.MethodPatch}, path, handler, opts...)
}

// HEAD registers a HEAD route.
func (s *Scope) HEAD(path string, handler HandlerFunc, opts ...RouteOption) *Route {
	return s.Route([]string{http.MethodHead}, path, handler, opts...)
}

// OPTIONS registers an OPTIONS route.
func (s *Scope) OPTIONS(path string, handler HandlerFunc, opts ...RouteOption) *Route {
	return s.Route([]string{http.MethodOptions}, path, handler, opts...)
}

// Route registers a handler for one or more methods under the scope prefix.
//
// The returned Route is frozen: the scope's hooks and decorations are
// snapshotted into it at this moment, with route-specific hooks from opts
// appended after the inherited ones. Registering the same method and
// pattern twice overwrites the earlier route.
func (s *Scope) Route(methods []string, path string, handler HandlerFunc, opts ...RouteOption) *Route {
	if handler == nil {
		panic("router: nil handler")
	}
	if len(methods) == 0 {
		panic("router: no methods")
	}

	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	pattern := joinPaths(s.prefix, path)
	rt := &Route{
		Methods:            slices.Clone(methods),
		Pattern:            pattern,
		Kind:               cfg.kind,
		handler:            handler,
		params:             cfg.params,
		query:              cfg.query,
		body:               cfg.body,
		response:           cfg.response,
		decorations:        maps.Clone(s.decorations),
		requestDecorations: maps.Clone(s.requestDecorations),
	}

	for p := range numPhases {
		rt.hooks[p] = slices.Clone(s.hooks[p])
	}
	rt.hooks[PhaseOnRequest] = append(rt.hooks[PhaseOnRequest], cfg.onRequest...)
	rt.hooks[PhasePreHandler] = append(rt.hooks[PhasePreHandler], cfg.preHandler...)
	rt.hooks[PhasePreSerialization] = append(rt.hooks[PhasePreSerialization], cfg.preSerialization...)
	rt.compile()

	for _, method := range methods {
		s.router.tree.addRoute(method, pattern, rt)
	}
	return rt
}

// joinPaths concatenates a prefix and a path, normalizing slashes.
func joinPaths(prefix, path string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if path == "" || path == "/" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return prefix + path
}
