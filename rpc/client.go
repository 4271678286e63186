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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lattice.dev/lattice/wire"
)

// Client calls a remote procedure tree over HTTP. Call sites name the
// target procedure explicitly:
//
//	client := rpc.NewClient("https://api.example.com/rpc")
//	user, err := client.Proc("user", "get").Query(ctx, map[string]any{"id": 42})
//
// There is no dynamic interception or code generation; an explicit call
// builder keeps every remote call greppable.
type Client struct {
	baseURL string
	http    *http.Client
	headers http.Header
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithHeader adds a header to every request, typically authorization.
func WithHeader(name, value string) ClientOption {
	return func(c *Client) { c.headers.Set(name, value) }
}

// NewClient creates a client for the procedure tree mounted at baseURL
// (including the mount prefix, e.g. "https://api.example.com/rpc").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Proc builds a call target from procedure path segments. Segments join
// with dots: Proc("user", "get") targets "user.get".
func (c *Client) Proc(segments ...string) Target {
	return Target{client: c, path: strings.Join(segments, ".")}
}

// Target is one addressable remote procedure.
type Target struct {
	client *Client
	path   string
}

// Path returns the dotted procedure path.
func (t Target) Path() string {
	return t.path
}

// CacheKey derives a stable key for caching query results: the procedure
// path plus the canonical JSON of the encoded input.
func (t Target) CacheKey(input any) (string, error) {
	if input == nil {
		return t.path, nil
	}
	raw, err := encodeInput(input)
	if err != nil {
		return "", err
	}
	return t.path + "?" + string(raw), nil
}

// Query invokes a read procedure over GET, carrying the input as the
// "input" query parameter.
func (t Target) Query(ctx context.Context, input any) (any, error) {
	u := t.client.baseURL + "/" + t.path
	if input != nil {
		raw, err := encodeInput(input)
		if err != nil {
			return nil, err
		}
		u += "?input=" + url.QueryEscape(string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return t.client.do(req)
}

// Mutate invokes a write procedure over POST with a JSON body.
func (t Target) Mutate(ctx context.Context, input any) (any, error) {
	var body io.Reader
	if input != nil {
		raw, err := encodeInput(input)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.client.baseURL+"/"+t.path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return t.client.do(req)
}

// Fetcher adapts a query target to a parameterless fetch function, the
// shape cache and singleflight layers expect.
func (t Target) Fetcher(input any) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return t.Query(ctx, input)
	}
}

func encodeInput(input any) ([]byte, error) {
	encoded, err := wire.Encode(input)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode input: %w", err)
	}
	return json.Marshal(encoded)
}

func (c *Client) do(req *http.Request) (any, error) {
	for name, values := range c.headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Result any        `json:"result"`
		Error  *errorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("rpc: malformed response (status %d)", resp.StatusCode)
	}

	if envelope.Error != nil {
		return nil, &Error{
			Message: envelope.Error.Message,
			ErrCode: envelope.Error.Code,
			Status:  resp.StatusCode,
			Issues:  envelope.Error.Issues,
		}
	}
	return wire.Decode(envelope.Result), nil
}
