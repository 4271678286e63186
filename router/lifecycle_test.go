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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lattice.dev/lattice/errors"
	"lattice.dev/lattice/validation"
)

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPhaseOrder(t *testing.T) {
	var order []string
	r := New(WithRequestID(false))
	r.AddHook(PhaseOnRequest, markHook(&order, "onRequest"))
	r.AddHook(PhasePreParsing, markHook(&order, "preParsing"))
	r.AddHook(PhasePreValidation, markHook(&order, "preValidation"))
	r.AddHook(PhasePreHandler, markHook(&order, "preHandler"))
	r.AddHook(PhasePreSerialization, markHook(&order, "preSerialization"))
	r.AddHook(PhaseOnSend, markHook(&order, "onSend"))
	r.AddHook(PhaseOnResponse, markHook(&order, "onResponse"))
	r.GET("/ping", func(c *Context) (any, error) {
		order = append(order, "handler")
		return map[string]any{"ok": true}, nil
	})

	rec := doRequest(r, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{
		"onRequest", "preParsing", "preValidation", "preHandler",
		"handler", "preSerialization", "onSend", "onResponse",
	}, order)
}

func TestHookShortCircuitSkipsEverything(t *testing.T) {
	var order []string
	r := New(WithRequestID(false))
	r.AddHook(PhaseOnRequest, func(c *Context) (any, error) {
		order = append(order, "onRequest")
		c.SetStatus(http.StatusUnauthorized)
		return map[string]any{"error": "unauthorized"}, nil
	})
	r.AddHook(PhasePreSerialization, markHook(&order, "preSerialization"))
	r.AddHook(PhaseOnSend, markHook(&order, "onSend"))
	r.AddHook(PhaseOnResponse, markHook(&order, "onResponse"))
	r.GET("/secret", markHook(&order, "handler"))

	rec := doRequest(r, http.MethodGet, "/secret")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// The pre-send phases belong to the handler path; onResponse still runs.
	assert.Equal(t, []string{"onRequest", "onResponse"}, order)
	assert.Equal(t, "unauthorized", decodeJSON(t, rec)["error"])
}

func TestJSONBodyParsing(t *testing.T) {
	r := New(WithRequestID(false))
	var seen any
	r.POST("/echo", func(c *Context) (any, error) {
		seen = c.Body
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"ada"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, map[string]any{"name": "ada"}, seen)
}

func TestMalformedBodySwallowed(t *testing.T) {
	r := New(WithRequestID(false))
	var seen any = "sentinel"
	r.POST("/echo", func(c *Context) (any, error) {
		seen = c.Body
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)
}

func TestFormBodyParsing(t *testing.T) {
	r := New(WithRequestID(false))
	var seen any
	r.POST("/form", func(c *Context) (any, error) {
		seen = c.Body
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/form",
		strings.NewReader("name=ada&tag=x&tag=y"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.IsType(t, map[string]any{}, seen)
	body := seen.(map[string]any)
	assert.Equal(t, "ada", body["name"])
	assert.Equal(t, []string{"x", "y"}, body["tag"])
}

func TestBodyIgnoredForGET(t *testing.T) {
	r := New(WithRequestID(false))
	var seen any = "sentinel"
	r.GET("/echo", func(c *Context) (any, error) {
		seen = c.Body
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/echo", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Nil(t, seen)
}

func TestBodyValidationFailure(t *testing.T) {
	schema := validation.Func(func(ctx context.Context, value any) (any, error) {
		verr := &validation.Error{}
		verr.Add("name is required", "name")
		return nil, verr
	}, nil)

	r := New(WithRequestID(false))
	r.POST("/users", func(c *Context) (any, error) {
		t.Fatal("handler must not run on validation failure")
		return nil, nil
	}, WithBody(schema))

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.NotNil(t, body["details"])
}

func TestBodyValidationNormalizesBody(t *testing.T) {
	schema := validation.Func(func(ctx context.Context, value any) (any, error) {
		return map[string]any{"normalized": true}, nil
	}, nil)

	r := New(WithRequestID(false))
	var seen any
	r.POST("/n", func(c *Context) (any, error) {
		seen = c.Body
		return nil, nil
	}, WithBody(schema))

	req := httptest.NewRequest(http.MethodPost, "/n", strings.NewReader(`{"raw":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, map[string]any{"normalized": true}, seen)
}

func TestResponseValidationFailureIs500(t *testing.T) {
	schema := validation.Func(func(ctx context.Context, value any) (any, error) {
		verr := &validation.Error{}
		verr.Add("bad shape")
		return nil, verr
	}, nil)

	r := New(WithRequestID(false))
	r.GET("/broken", func(c *Context) (any, error) {
		return map[string]any{"unexpected": true}, nil
	}, WithResponse(schema))

	rec := doRequest(r, http.MethodGet, "/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "unexpected")
}

func TestDefaultNoContent(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/nothing", func(c *Context) (any, error) { return nil, nil })

	rec := doRequest(r, http.MethodGet, "/nothing")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMarkSentStatus(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/created", func(c *Context) (any, error) {
		c.MarkSent(http.StatusCreated)
		return nil, nil
	})

	rec := doRequest(r, http.MethodGet, "/created")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSetStatusAppliesToResult(t *testing.T) {
	r := New(WithRequestID(false))
	r.POST("/items", func(c *Context) (any, error) {
		c.SetStatus(http.StatusCreated)
		return map[string]any{"id": 1}, nil
	})

	rec := doRequest(r, http.MethodPost, "/items")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestResponseStructOverrides(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/custom", func(c *Context) (any, error) {
		return &Response{Status: http.StatusTeapot, ContentType: "application/vnd.tea", Body: "steep"}, nil
	})

	rec := doRequest(r, http.MethodGet, "/custom")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/vnd.tea", rec.Header().Get("Content-Type"))
	assert.Equal(t, "steep", rec.Body.String())
}

func TestStringAndBytesSerialization(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/text", func(c *Context) (any, error) { return "hello", nil })
	r.GET("/raw", func(c *Context) (any, error) { return []byte{0x1, 0x2}, nil })

	rec := doRequest(r, http.MethodGet, "/text")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hello", rec.Body.String())

	rec = doRequest(r, http.MethodGet, "/raw")
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x1, 0x2}, rec.Body.Bytes())
}

func TestPreSerializationReplacesResult(t *testing.T) {
	r := New(WithRequestID(false))
	r.AddHook(PhasePreSerialization, func(c *Context) (any, error) {
		return map[string]any{"wrapped": true}, nil
	})
	r.GET("/wrap", func(c *Context) (any, error) {
		return map[string]any{"inner": true}, nil
	})

	rec := doRequest(r, http.MethodGet, "/wrap")
	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["wrapped"])
	assert.NotContains(t, body, "inner")
}

func TestOnSendReplacesPayload(t *testing.T) {
	r := New(WithRequestID(false))
	r.AddHook(PhaseOnSend, func(c *Context) (any, error) {
		assert.NotEmpty(t, c.Payload())
		return "replaced", nil
	})
	r.GET("/swap", func(c *Context) (any, error) {
		return map[string]any{"original": true}, nil
	})

	rec := doRequest(r, http.MethodGet, "/swap")
	assert.Equal(t, "replaced", rec.Body.String())
}

func TestErrorHandlerOrdering(t *testing.T) {
	r := New(WithRequestID(false))
	r.OnError(
		func(c *Context, err error) (any, error) {
			return nil, nil // passes
		},
		func(c *Context, err error) (any, error) {
			return nil, assert.AnError // skipped
		},
		func(c *Context, err error) (any, error) {
			c.SetStatus(http.StatusBadGateway)
			return map[string]any{"handled": err.Error()}, nil
		},
	)
	r.GET("/fail", func(c *Context) (any, error) {
		return nil, errors.New(http.StatusServiceUnavailable, "UPSTREAM", "upstream down")
	})

	rec := doRequest(r, http.MethodGet, "/fail")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream down", decodeJSON(t, rec)["handled"])
}

func TestErrorFallbackBody(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/fail", func(c *Context) (any, error) {
		return nil, errors.New(http.StatusConflict, "CONFLICT", "already exists")
	})

	rec := doRequest(r, http.MethodGet, "/fail")
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "already exists", body["error"])
	assert.Equal(t, float64(http.StatusConflict), body["statusCode"])
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestPlainErrorDefaultsTo500(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/fail", func(c *Context) (any, error) {
		return nil, assert.AnError
	})

	rec := doRequest(r, http.MethodGet, "/fail")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPanicRecovered(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/boom", func(c *Context) (any, error) {
		panic("kaput")
	})

	rec := doRequest(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "kaput")
}

func TestOnResponseFailuresIgnored(t *testing.T) {
	r := New(WithRequestID(false))
	r.AddHook(PhaseOnResponse, func(c *Context) (any, error) {
		return nil, assert.AnError
	})
	r.AddHook(PhaseOnResponse, func(c *Context) (any, error) {
		panic("late panic")
	})
	r.GET("/fine", func(c *Context) (any, error) { return "ok", nil })

	rec := doRequest(r, http.MethodGet, "/fine")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestNotFound(t *testing.T) {
	r := New(WithRequestID(false))

	rec := doRequest(r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "not found", body["error"])
}

func TestCustomNotFound(t *testing.T) {
	r := New(WithRequestID(false), WithNotFound(func(c *Context) (any, error) {
		c.SetStatus(http.StatusNotFound)
		return map[string]any{"custom": true}, nil
	}))

	rec := doRequest(r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["custom"])
}

func TestRequestIDHeader(t *testing.T) {
	r := New()
	r.GET("/id", func(c *Context) (any, error) {
		return c.RequestID(), nil
	})

	rec := doRequest(r, http.MethodGet, "/id")
	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, id, rec.Body.String())
}

func TestBackgroundRouteReturns202(t *testing.T) {
	r := New(WithRequestID(false))
	done := make(chan struct{})
	var once sync.Once
	r.POST("/jobs", func(c *Context) (any, error) {
		once.Do(func() { close(done) })
		return nil, nil
	}, WithKind(KindBackground))

	rec := doRequest(r, http.MethodPost, "/jobs")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background handler did not run")
	}
}

func TestLongLivedHandlerOwnsWriter(t *testing.T) {
	r := New(WithRequestID(false))
	r.GET("/stream", func(c *Context) (any, error) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.WriteHeader(http.StatusOK)
		_, _ = c.Writer.Write([]byte("data: tick\n\n"))
		c.MarkSent(http.StatusOK)
		return nil, nil
	}, WithKind(KindLongLived))

	rec := doRequest(r, http.MethodGet, "/stream")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data: tick\n\n", rec.Body.String())
}
