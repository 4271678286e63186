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

package rpc

import (
	"log/slog"
	"net/http"
)

// Call is the per-dispatch context handed to middleware and procedure
// handlers. It carries the transport request plus whatever the context
// factory and middleware attach.
type Call struct {
	// Request is the underlying transport request, nil for direct
	// (non-HTTP) invocations in tests.
	Request *http.Request

	// Path is the dotted procedure path being dispatched.
	Path string

	logger *slog.Logger
	values map[string]any
}

// Set attaches a named value for later middleware and the handler.
func (c *Call) Set(name string, value any) {
	if c.values == nil {
		c.values = make(map[string]any, 4)
	}
	c.values[name] = value
}

// Get returns a value attached by the context factory or earlier middleware.
func (c *Call) Get(name string) (any, bool) {
	if c.values == nil {
		return nil, false
	}
	value, ok := c.values[name]
	return value, ok
}

// Logger returns the dispatch-scoped logger.
func (c *Call) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// ContextFactory seeds a [Call] once per dispatch, before any middleware
// runs. Typical use is extracting auth material from the request.
type ContextFactory func(c *Call)
