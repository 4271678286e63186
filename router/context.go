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
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spf13/cast"
)

// maxInlineParams is the number of path parameters stored in the
// pre-allocated arrays before spilling to the overflow map.
const maxInlineParams = 8

// Context is the per-request composite passed to hooks and handlers: the
// transport request plus extracted parameters, the parsed body, response
// state, and the decorations of the route's scope. It replaces prototypal
// request augmentation with one explicit structure built per request.
//
// A Context is owned by a single request flow and must not be retained
// after the handler returns; the router recycles it.
type Context struct {
	// Request is the underlying transport request.
	Request *http.Request
	// Writer is the underlying response writer. Ordinary handlers should
	// return values instead of writing directly; long-lived handlers own
	// it.
	Writer http.ResponseWriter

	// Body is the parsed request body: map[string]any for JSON objects
	// and form bodies, *multipart.Form for multipart, string for text,
	// or nil when absent or unparseable.
	Body any

	// Params holds path parameters beyond the inline capacity. Use
	// [Context.Param] for lookups.
	Params map[string]string

	router *Router
	route  *Route
	logger *slog.Logger

	paramKeys    [maxInlineParams]string
	paramValues  [maxInlineParams]string
	paramCount   int
	overflowKeys []string

	queryCache url.Values

	values map[string]any

	status    int
	sent      bool
	payload   []byte
	requestID string
}

// reset prepares a pooled context for a new request.
func (c *Context) reset(w http.ResponseWriter, r *http.Request, router *Router) {
	c.Request = r
	c.Writer = w
	c.Body = nil
	c.Params = nil
	c.router = router
	c.route = nil
	c.logger = nil
	c.paramCount = 0
	c.overflowKeys = c.overflowKeys[:0]
	c.queryCache = nil
	c.values = nil
	c.status = 0
	c.sent = false
	c.payload = nil
	c.requestID = ""
}

// Context returns the request's context.
func (c *Context) Context() context.Context {
	return c.Request.Context()
}

// Route returns the matched route, or nil before matching (not-found
// handlers).
func (c *Context) Route() *Route {
	return c.route
}

// Method returns the request method.
func (c *Context) Method() string {
	return c.Request.Method
}

// Path returns the request path.
func (c *Context) Path() string {
	return c.Request.URL.Path
}

// paramsMark snapshots the parameter bindings for backtracking.
type paramsMark struct {
	count    int
	overflow int
}

func (c *Context) paramsMark() paramsMark {
	return paramsMark{count: c.paramCount, overflow: len(c.overflowKeys)}
}

func (c *Context) paramsReset(mark paramsMark) {
	c.paramCount = mark.count
	for _, key := range c.overflowKeys[mark.overflow:] {
		delete(c.Params, key)
	}
	c.overflowKeys = c.overflowKeys[:mark.overflow]
}

func (c *Context) setParam(key, value string) {
	for i := range c.paramCount {
		if c.paramKeys[i] == key {
			c.paramValues[i] = value
			return
		}
	}
	if c.paramCount < maxInlineParams {
		c.paramKeys[c.paramCount] = key
		c.paramValues[c.paramCount] = value
		c.paramCount++
		return
	}

	// Routes with more than 8 parameters are rare; spill to a map.
	if c.Params == nil {
		c.Params = make(map[string]string, 2)
	}
	c.Params[key] = value
	c.overflowKeys = append(c.overflowKeys, key)
}

// Param returns the path parameter bound to name, or "".
func (c *Context) Param(name string) string {
	for i := range c.paramCount {
		if c.paramKeys[i] == name {
			return c.paramValues[i]
		}
	}
	if c.Params != nil {
		return c.Params[name]
	}
	return ""
}

// ParamInt parses a path parameter as an int.
func (c *Context) ParamInt(name string) (int, error) {
	return cast.ToIntE(c.Param(name))
}

// ParamInt64 parses a path parameter as an int64.
func (c *Context) ParamInt64(name string) (int64, error) {
	return cast.ToInt64E(c.Param(name))
}

// paramsAsMap materializes the bindings for schema validation.
func (c *Context) paramsAsMap() map[string]any {
	out := make(map[string]any, c.paramCount+len(c.Params))
	for i := range c.paramCount {
		out[c.paramKeys[i]] = c.paramValues[i]
	}
	for key, value := range c.Params {
		out[key] = value
	}
	return out
}

func (c *Context) queryValues() url.Values {
	if c.queryCache == nil {
		c.queryCache = c.Request.URL.Query()
	}
	return c.queryCache
}

// Query returns the first value of a query parameter, or "".
func (c *Context) Query(name string) string {
	return c.queryValues().Get(name)
}

// QueryDefault returns the first value of a query parameter, or def when
// absent.
func (c *Context) QueryDefault(name, def string) string {
	if values, ok := c.queryValues()[name]; ok && len(values) > 0 {
		return values[0]
	}
	return def
}

// QueryInt parses a query parameter as an int.
func (c *Context) QueryInt(name string) (int, error) {
	return cast.ToIntE(c.Query(name))
}

// QueryBool parses a query parameter as a bool ("1", "t", "true", ...).
func (c *Context) QueryBool(name string) (bool, error) {
	return cast.ToBoolE(c.Query(name))
}

// queryAsMap materializes query parameters for schema validation: single
// values as strings, repeated values as string slices.
func (c *Context) queryAsMap() map[string]any {
	values := c.queryValues()
	out := make(map[string]any, len(values))
	for key, vs := range values {
		if len(vs) == 1 {
			out[key] = vs[0]
		} else {
			sliced := make([]any, len(vs))
			for i, v := range vs {
				sliced[i] = v
			}
			out[key] = sliced
		}
	}
	return out
}

// Set stores a per-request value. Values set here are visible to later
// hooks and the handler of this request only.
func (c *Context) Set(name string, value any) {
	if c.values == nil {
		c.values = make(map[string]any, 4)
	}
	c.values[name] = value
}

// Get returns a per-request value, falling back to the scope decorations
// frozen into the route.
func (c *Context) Get(name string) (any, bool) {
	if c.values != nil {
		if value, ok := c.values[name]; ok {
			return value, true
		}
	}
	if c.route != nil {
		if value, ok := c.route.decorations[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// SetStatus records the response status used when the response is
// eventually produced. It does not write anything by itself.
func (c *Context) SetStatus(status int) {
	c.status = status
}

// Status returns the recorded response status, or 0 if none was set.
func (c *Context) Status() int {
	return c.status
}

// MarkSent records that the response was produced out-of-band (for example
// written directly to [Context.Writer]) with the given status. When the
// handler then returns no value, the lifecycle synthesizes a response from
// the recorded status instead of defaulting to 204.
func (c *Context) MarkSent(status int) {
	c.status = status
	c.sent = true
}

// Payload returns the serialized response payload during the onSend phase.
func (c *Context) Payload() []byte {
	return c.payload
}

// RequestID returns the request id assigned by the router, or "" when
// request id generation is disabled.
func (c *Context) RequestID() string {
	return c.requestID
}

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Response gives a handler full control of status, content type, and body.
type Response struct {
	// Status overrides the response status when non-zero.
	Status int
	// ContentType overrides the Content-Type header when non-empty.
	ContentType string
	// Body is serialized by the usual rules: []byte and string pass
	// through, anything else is JSON-encoded, nil means an empty body.
	Body any
}
