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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"lattice.dev/lattice/validation"
	"lattice.dev/lattice/wire"
)

// Routes is a nested procedure tree. Keys are path segments; values are
// either *Procedure leaves or nested Routes. The tree is flattened into
// dotted paths at handler construction:
//
//	rpc.Routes{
//		"user": rpc.Routes{
//			"get":    getUser,    // dispatches as "user.get"
//			"update": updateUser, // dispatches as "user.update"
//		},
//	}
type Routes map[string]any

// flatten walks the tree depth-first and produces the dotted-path map.
// Leaves must be *Procedure; anything else is a configuration error.
func flatten(routes Routes) (map[string]*Procedure, error) {
	out := make(map[string]*Procedure)
	if err := flattenInto(out, "", routes); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out map[string]*Procedure, prefix string, routes Routes) error {
	for segment, value := range routes {
		if segment == "" || strings.Contains(segment, ".") || strings.Contains(segment, "/") {
			return fmt.Errorf("rpc: invalid route segment %q", segment)
		}
		path := segment
		if prefix != "" {
			path = prefix + "." + segment
		}

		switch v := value.(type) {
		case *Procedure:
			out[path] = v
		case Routes:
			if err := flattenInto(out, path, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("rpc: route %q is %T, want *Procedure or Routes", path, value)
		}
	}
	return nil
}

// maxMultipartMemory bounds in-memory multipart buffering for upload
// mutations.
const maxMultipartMemory = 32 << 20

// reserved document paths under the mount prefix.
const (
	docOpenAPIJSON = "openapi.json"
	docOpenAPIYAML = "openapi.yaml"
	docManifest    = "manifest.json"
)

// Handler dispatches HTTP requests to a flattened procedure tree. It
// implements http.Handler and is safe for concurrent use once built.
type Handler struct {
	prefix     string
	procedures map[string]*Procedure
	paths      []string

	logger  *slog.Logger
	tracer  trace.Tracer
	factory ContextFactory
	info    Info
}

// HandlerOption configures a [Handler].
type HandlerOption func(*Handler)

// WithPrefix sets the mount prefix. Default "/rpc".
func WithPrefix(prefix string) HandlerOption {
	return func(h *Handler) { h.prefix = strings.TrimSuffix(prefix, "/") }
}

// WithLogger sets the dispatch logger. Default slog.Default().
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// WithContextFactory installs a factory run once per dispatch before any
// middleware.
func WithContextFactory(factory ContextFactory) HandlerOption {
	return func(h *Handler) { h.factory = factory }
}

// WithTracer enables a span per dispatched procedure.
func WithTracer(tracer trace.Tracer) HandlerOption {
	return func(h *Handler) { h.tracer = tracer }
}

// WithInfo sets the title and version reported by the generated documents.
func WithInfo(info Info) HandlerOption {
	return func(h *Handler) { h.info = info }
}

// Info names the procedure tree in its generated documents.
type Info struct {
	Title   string
	Version string
}

// NewHandler flattens the route tree and returns the dispatching handler.
func NewHandler(routes Routes, opts ...HandlerOption) (*Handler, error) {
	procedures, err := flatten(routes)
	if err != nil {
		return nil, err
	}

	for _, doc := range []string{docOpenAPIJSON, docOpenAPIYAML, docManifest} {
		if _, clash := procedures[doc]; clash {
			return nil, fmt.Errorf("rpc: route %q collides with a reserved document path", doc)
		}
	}

	paths := make([]string, 0, len(procedures))
	for path := range procedures {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	h := &Handler{
		prefix:     "/rpc",
		procedures: procedures,
		paths:      paths,
		logger:     slog.Default(),
		tracer:     noop.NewTracerProvider().Tracer("lattice.dev/lattice/rpc"),
		info:       Info{Title: "rpc", Version: "0.0.0"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// MustHandler is NewHandler that panics on configuration errors.
func MustHandler(routes Routes, opts ...HandlerOption) *Handler {
	h, err := NewHandler(routes, opts...)
	if err != nil {
		panic(err)
	}
	return h
}

// Procedure returns the procedure mounted at the dotted path, or nil.
func (h *Handler) Procedure(path string) *Procedure {
	return h.procedures[path]
}

// Paths returns all dotted procedure paths in sorted order.
func (h *Handler) Paths() []string {
	return h.paths
}

// ServeHTTP dispatches one call: resolve the dotted path, check the
// method against the procedure kind, decode the input from the query
// string or body, and run the procedure. Success writes a result envelope,
// failure an error envelope; either way the response is JSON.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, ok := h.stripPrefix(r.URL.Path)
	if !ok || path == "" {
		h.writeError(w, &Error{
			Message: "procedure not found",
			ErrCode: CodeNotFound,
			Status:  http.StatusNotFound,
		})
		return
	}

	if r.Method == http.MethodGet {
		switch path {
		case docOpenAPIJSON:
			h.serveOpenAPIJSON(w)
			return
		case docOpenAPIYAML:
			h.serveOpenAPIYAML(w)
			return
		case docManifest:
			h.serveManifest(w)
			return
		}
	}

	proc := h.procedures[path]
	if proc == nil {
		h.writeError(w, &Error{
			Message: fmt.Sprintf("no procedure at %q", path),
			ErrCode: CodeNotFound,
			Status:  http.StatusNotFound,
		})
		return
	}

	if want := methodFor(proc.kind); r.Method != want {
		w.Header().Set("Allow", want)
		h.writeError(w, &Error{
			Message: fmt.Sprintf("%s requires %s", proc.kind, want),
			ErrCode: CodeMethodNotAllowed,
			Status:  http.StatusMethodNotAllowed,
		})
		return
	}

	input, perr := h.readInput(r, proc.kind)
	if perr != nil {
		h.writeError(w, perr)
		return
	}

	c := &Call{
		Request: r,
		Path:    path,
		logger:  h.logger.With("procedure", path),
	}
	if h.factory != nil {
		h.factory(c)
	}

	result, err := h.invoke(c, proc, input)
	if err != nil {
		derr := Classify(err)
		if derr.HTTPStatus() >= http.StatusInternalServerError {
			c.Logger().Error("procedure failed", "error", err)
		}
		h.writeError(w, derr)
		return
	}

	encoded, eerr := wire.Encode(result)
	if eerr != nil {
		c.Logger().Error("result encoding failed", "error", eerr)
		h.writeError(w, &Error{
			Message: "internal server error",
			ErrCode: CodeInternalError,
			Status:  http.StatusInternalServerError,
		})
		return
	}
	h.writeResult(w, encoded)
}

// invoke runs the procedure inside a span with panic containment.
func (h *Handler) invoke(c *Call, proc *Procedure, input any) (result any, err error) {
	ctx, span := h.tracer.Start(c.Request.Context(), "rpc."+c.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.procedure", c.Path),
			attribute.String("rpc.kind", proc.kind.String()),
		))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			c.Logger().Error("panic in procedure", "panic", rec)
			span.SetStatus(codes.Error, "panic")
			result = nil
			err = &Error{
				Message: "internal server error",
				ErrCode: CodeInternalError,
				Status:  http.StatusInternalServerError,
			}
		}
	}()

	result, err = proc.Call(ctx, c, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (h *Handler) stripPrefix(urlPath string) (string, bool) {
	if h.prefix == "" {
		return strings.Trim(urlPath, "/"), true
	}
	if !strings.HasPrefix(urlPath, h.prefix) {
		return "", false
	}
	rest := urlPath[len(h.prefix):]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return strings.Trim(rest, "/"), true
}

func methodFor(kind Kind) string {
	if kind == KindMutation {
		return http.MethodPost
	}
	return http.MethodGet
}

// readInput extracts and decodes the call input. Queries carry it as the
// "input" query parameter holding a JSON document; mutations as the JSON
// request body. Multipart mutation bodies skip decoding entirely and hand
// the raw form to the handler for file uploads.
func (h *Handler) readInput(r *http.Request, kind Kind) (any, *Error) {
	if kind == KindQuery {
		raw := r.URL.Query().Get("input")
		if raw == "" {
			return nil, nil
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, &Error{
				Message: "malformed input parameter",
				ErrCode: CodeParseError,
				Status:  http.StatusBadRequest,
			}
		}
		return wire.Decode(parsed), nil
	}

	contentType := r.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil &&
		strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, &Error{
				Message: "malformed multipart body",
				ErrCode: CodeParseError,
				Status:  http.StatusBadRequest,
			}
		}
		return r.MultipartForm, nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &Error{
			Message: "unreadable request body",
			ErrCode: CodeParseError,
			Status:  http.StatusBadRequest,
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{
			Message: "malformed request body",
			ErrCode: CodeParseError,
			Status:  http.StatusBadRequest,
		}
	}
	return wire.Decode(parsed), nil
}

// resultEnvelope and errorEnvelope are the only two response shapes.
type resultEnvelope struct {
	Result any `json:"result"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string             `json:"message"`
	Code    string             `json:"code"`
	Issues  []validation.Issue `json:"issues,omitempty"`
}

func (h *Handler) writeResult(w http.ResponseWriter, encoded any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resultEnvelope{Result: encoded}); err != nil {
		h.logger.Warn("result write failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, derr *Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(derr.HTTPStatus())
	envelope := errorEnvelope{Error: errorBody{
		Message: derr.Message,
		Code:    derr.ErrCode,
		Issues:  derr.Issues,
	}}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.logger.Warn("error write failed", "error", err)
	}
}
