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
	"io"
	"mime"
	"net/http"
	"strings"
)

// maxMultipartMemory bounds in-memory multipart buffering; larger parts
// spill to temporary files.
const maxMultipartMemory = 32 << 20

// hasBody reports whether the method conventionally carries a request body.
func hasBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodConnect:
		return false
	}
	return true
}

// parseBody decodes the request body into c.Body by content type.
//
// Parse failures are swallowed: a malformed body leaves c.Body nil and the
// pipeline continues, so that the attached body schema (if any) rejects the
// request with a validation error instead of a transport-level parse error.
func parseBody(c *Context) {
	r := c.Request
	if !hasBody(r.Method) || r.Body == nil {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		raw, err := io.ReadAll(r.Body)
		if err != nil || len(raw) == 0 {
			return
		}
		var parsed any
		if json.Unmarshal(raw, &parsed) == nil {
			c.Body = parsed
		}

	case mediaType == "application/x-www-form-urlencoded":
		if r.ParseForm() == nil {
			c.Body = formToMap(r.PostForm)
		}

	case strings.HasPrefix(mediaType, "multipart/"):
		// Multipart bodies pass through raw; file handling is the
		// handler's concern.
		if r.ParseMultipartForm(maxMultipartMemory) == nil {
			c.Body = r.MultipartForm
		}

	case strings.HasPrefix(mediaType, "text/"):
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return
		}
		c.Body = string(raw)
	}
}

// formToMap flattens url-encoded form values: single values as strings,
// repeated fields as string slices.
func formToMap(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, vs := range values {
		if len(vs) == 1 {
			out[key] = vs[0]
		} else {
			out[key] = vs
		}
	}
	return out
}
