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
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lattice.dev/lattice/errors"
	"lattice.dev/lattice/logging"
)

// ServeHTTP drives the full request lifecycle:
//
//	onRequest -> preParsing -> parse body -> preValidation -> validate ->
//	preHandler -> handler -> preSerialization -> serialize -> onSend ->
//	write -> onResponse
//
// A hook producing a value or an error short-circuits every remaining
// phase; errors go through the registered error handlers before the
// fallback JSON error body.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	c := r.acquireContext()
	c.reset(w, req, r)

	if r.requestID {
		c.requestID = uuid.NewString()
		w.Header().Set("X-Request-ID", c.requestID)
		c.logger = r.logger.With("request_id", c.requestID)
	} else {
		c.logger = r.logger
	}

	ctx, span := r.tracer.Start(req.Context(), req.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		))
	c.logger = logging.WithTrace(ctx, c.logger)
	c.Request = req.WithContext(logging.WithContext(ctx, c.logger))

	rt := r.tree.match(req.Method, splitPath(req.URL.Path), c)
	if rt == nil {
		r.serveNotFound(c)
		span.SetStatus(codes.Error, "not found")
		span.End()
		r.observe(req.Method, req.URL.Path, http.StatusNotFound, start)
		r.releaseContext(c)
		return
	}
	c.route = rt
	span.SetName(req.Method + " " + rt.Pattern)
	span.SetAttributes(attribute.String("http.route", rt.Pattern))

	if rt.Kind == KindBackground {
		// The context outlives ServeHTTP, so it is not pooled.
		detached := c
		go func() {
			defer func() { _ = recover() }()
			_, _, _ = r.execute(detached)
		}()
		w.WriteHeader(http.StatusAccepted)
		span.End()
		r.observe(req.Method, rt.Pattern, http.StatusAccepted, start)
		return
	}

	status := r.serve(c)

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	span.End()
	r.observe(req.Method, rt.Pattern, status, start)
	r.releaseContext(c)
}

func (r *Router) observe(method, route string, status int, start time.Time) {
	if r.metrics != nil {
		r.metrics.observe(method, route, status, time.Since(start))
	}
}

// serve runs the pipeline for a matched ordinary or long-lived route and
// returns the status written.
func (r *Router) serve(c *Context) int {
	result, short, err := r.executeRecovered(c)
	if err != nil {
		result = r.recoverError(c, err)
		// Error responses serialize directly; the pre-send hooks belong
		// to the successful path.
		short = true
	}

	rt := c.route
	if rt.Kind == KindLongLived && result == nil && err == nil {
		// The handler owns the connection; nothing to write.
		r.runOnResponse(c)
		if c.status != 0 {
			return c.status
		}
		return http.StatusOK
	}

	if !short && rt.response != nil && result != nil {
		validated, verr := rt.response.Validate(c.Context(), result)
		if verr != nil {
			c.Logger().Error("response validation failed",
				"route", rt.Pattern, "error", verr)
			result = r.recoverError(c, errors.New(http.StatusInternalServerError,
				"INTERNAL_SERVER_ERROR", "response serialization failed"))
			short = true
		} else {
			result = validated
		}
	}

	status := r.send(c, result, short)
	r.runOnResponse(c)
	return status
}

// executeRecovered converts handler and hook panics into errors.
func (r *Router) executeRecovered(c *Context) (result any, short bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.Logger().Error("panic in request pipeline",
				"route", c.route.Pattern, "panic", rec)
			result, short = nil, false
			err = errors.Newf(http.StatusInternalServerError,
				"INTERNAL_SERVER_ERROR", "panic: %v", rec)
		}
	}()
	result, short, err = r.execute(c)
	return
}

// execute runs request decorations, the pre-handler hook phases with their
// fixed parse and validate steps, and the handler. short reports whether a
// hook (rather than the handler) produced the result, which skips the
// pre-send phases.
func (r *Router) execute(c *Context) (any, bool, error) {
	rt := c.route
	ctx := c.Context()

	for name, factory := range rt.requestDecorations {
		c.Set(name, factory(c))
	}

	if h := rt.phases[PhaseOnRequest]; h != nil {
		if result, err := h(ctx, c); err != nil || result != nil {
			return result, true, err
		}
	}

	if h := rt.phases[PhasePreParsing]; h != nil {
		if result, err := h(ctx, c); err != nil || result != nil {
			return result, true, err
		}
	}

	parseBody(c)

	if h := rt.phases[PhasePreValidation]; h != nil {
		if result, err := h(ctx, c); err != nil || result != nil {
			return result, true, err
		}
	}

	if err := r.validate(c); err != nil {
		return nil, false, err
	}

	if h := rt.phases[PhasePreHandler]; h != nil {
		if result, err := h(ctx, c); err != nil || result != nil {
			return result, true, err
		}
	}

	result, err := rt.handler(c)
	return result, false, err
}

// validate runs the route's attached schemas against params, query, and
// body, in that order, stopping at the first failure. Normalized outputs
// replace the originals so the handler sees coerced values.
func (r *Router) validate(c *Context) error {
	rt := c.route
	ctx := c.Context()

	if rt.params != nil {
		normalized, err := rt.params.Validate(ctx, c.paramsAsMap())
		if err != nil {
			return err
		}
		if m, ok := normalized.(map[string]any); ok {
			for key, value := range m {
				if s, ok := value.(string); ok {
					c.setParam(key, s)
				}
			}
		}
	}

	if rt.query != nil {
		if _, err := rt.query.Validate(ctx, c.queryAsMap()); err != nil {
			return err
		}
	}

	if rt.body != nil {
		normalized, err := rt.body.Validate(ctx, c.Body)
		if err != nil {
			return err
		}
		c.Body = normalized
	}

	return nil
}

// recoverError walks the registered error handlers in order. A handler
// returning a value wins; one returning an error or (nil, nil) is skipped.
// When none produce a value the fallback JSON error body is synthesized
// from the error's status and message.
func (r *Router) recoverError(c *Context, err error) any {
	for _, handler := range r.errorHandlers {
		result, herr := handler(c, err)
		if herr != nil {
			c.Logger().Warn("error handler failed", "error", herr)
			continue
		}
		if result != nil {
			return result
		}
	}

	status := errors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Error("request failed", "route", c.route.Pattern, "error", err)
	}
	body := map[string]any{
		"error":      err.Error(),
		"statusCode": status,
	}
	if code := errors.CodeOf(err); code != "" {
		body["code"] = code
	}
	if details := errors.DetailsOf(err); details != nil {
		body["details"] = details
	}
	return &Response{Status: status, Body: body}
}

// send serializes the result and writes the response. When short is true
// the preSerialization and onSend phases are skipped: the value came from
// a short-circuiting hook or the error path, not the handler.
func (r *Router) send(c *Context, result any, short bool) int {
	ctx := c.Context()
	rt := c.route

	if !short {
		if h := rt.phases[PhasePreSerialization]; h != nil {
			replaced, err := h(ctx, c)
			if err != nil {
				result = r.recoverError(c, err)
				short = true
			} else if replaced != nil {
				result = replaced
			}
		}
	}

	status, contentType, payload, err := serialize(c, result)
	if err != nil {
		c.Logger().Error("response serialization failed",
			"route", rt.Pattern, "error", err)
		status = http.StatusInternalServerError
		contentType = "application/json; charset=utf-8"
		payload = []byte(`{"error":"response serialization failed","statusCode":500}`)
		short = true
	}
	c.payload = payload

	if !short {
		if h := rt.phases[PhaseOnSend]; h != nil {
			replaced, herr := h(ctx, c)
			if herr == nil {
				switch v := replaced.(type) {
				case []byte:
					c.payload = v
				case string:
					c.payload = []byte(v)
				}
			}
		}
	}

	if c.payload != nil && contentType != "" {
		c.Writer.Header().Set("Content-Type", contentType)
	}
	c.Writer.WriteHeader(status)
	if len(c.payload) > 0 {
		if _, werr := c.Writer.Write(c.payload); werr != nil {
			c.Logger().Warn("response write failed", "error", werr)
		}
	}
	return status
}

// serialize turns a handler result into status, content type, and payload.
//
// Rules, in order: a nil result yields the recorded sent status or 204 with
// an empty body; *Response unwraps with its own overrides; []byte passes
// through as application/octet-stream; string as text/plain; everything
// else is JSON-encoded. A status recorded via [Context.SetStatus] applies
// when the result carries no explicit one.
func serialize(c *Context, result any) (int, string, []byte, error) {
	status := c.status

	if resp, ok := result.(*Response); ok {
		if resp.Status != 0 {
			status = resp.Status
		}
		contentType := resp.ContentType
		inner, ct, payload, err := serializeBody(resp.Body)
		if err != nil {
			return 0, "", nil, err
		}
		if status == 0 {
			status = inner
		}
		if contentType == "" {
			contentType = ct
		}
		return status, contentType, payload, nil
	}

	if result == nil {
		if c.sent && status != 0 {
			return status, "", nil, nil
		}
		return http.StatusNoContent, "", nil, nil
	}

	inner, contentType, payload, err := serializeBody(result)
	if err != nil {
		return 0, "", nil, err
	}
	if status == 0 {
		status = inner
	}
	return status, contentType, payload, nil
}

func serializeBody(body any) (int, string, []byte, error) {
	switch v := body.(type) {
	case nil:
		return http.StatusNoContent, "", nil, nil
	case []byte:
		return http.StatusOK, "application/octet-stream", v, nil
	case string:
		return http.StatusOK, "text/plain; charset=utf-8", []byte(v), nil
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return 0, "", nil, fmt.Errorf("encode response: %w", err)
		}
		return http.StatusOK, "application/json; charset=utf-8", payload, nil
	}
}

// runOnResponse fires the onResponse hooks after the response is written.
// Results and errors are discarded and panics contained; nothing here can
// affect the response.
func (r *Router) runOnResponse(c *Context) {
	for _, hook := range c.route.hooks[PhaseOnResponse] {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					c.Logger().Warn("panic in onResponse hook", "panic", rec)
				}
			}()
			if _, err := hook(c); err != nil {
				c.Logger().Warn("onResponse hook failed", "error", err)
			}
		}()
	}
}

// serveNotFound writes the 404 response, through the custom handler when
// one is installed.
func (r *Router) serveNotFound(c *Context) {
	if r.notFound != nil {
		result, err := r.notFound(c)
		if err == nil && result != nil {
			status, contentType, payload, serr := serialize(c, result)
			if serr == nil {
				if contentType != "" {
					c.Writer.Header().Set("Content-Type", contentType)
				}
				c.Writer.WriteHeader(status)
				_, _ = c.Writer.Write(payload)
				return
			}
		}
	}
	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Writer.WriteHeader(http.StatusNotFound)
	_, _ = c.Writer.Write([]byte(`{"error":"not found","statusCode":404}`))
}
