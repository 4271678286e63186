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

package validation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Schema is the single validation capability consumed by the router and the
// RPC layer. Implementations are explicit adapters chosen at configuration
// time ([CompileJSONSchema], [Struct], [Func]); the framework never probes a
// value's shape to guess which validation library produced it.
type Schema interface {
	// Validate checks value and returns the normalized output on success.
	// Adapters that coerce (for example into a typed struct) return the
	// coerced value; others return the input unchanged. Failures are
	// reported as *Error.
	Validate(ctx context.Context, value any) (any, error)

	// JSONSchema returns the JSON-schema-shaped descriptor of the accepted
	// input, or nil when the adapter cannot describe itself.
	JSONSchema() map[string]any
}

// Issue is a single validation finding.
type Issue struct {
	Message string `json:"message"`
	// Path locates the failing value: object keys as strings, array
	// indices as ints. Empty for whole-value issues.
	Path []any `json:"path,omitempty"`
}

// Error collects the issues of a failed validation. It declares a 400
// status and a VALIDATION_ERROR code through the duck-typed discovery
// interfaces in lattice.dev/lattice/errors.
type Error struct {
	Issues []Issue
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0].Message
	}

	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// HTTPStatus implements lattice.dev/lattice/errors.ErrorType.
func (e *Error) HTTPStatus() int {
	return http.StatusBadRequest
}

// Code implements lattice.dev/lattice/errors.ErrorCode.
func (e *Error) Code() string {
	return "VALIDATION_ERROR"
}

// Details implements lattice.dev/lattice/errors.ErrorDetails.
func (e *Error) Details() any {
	return e.Issues
}

// Add appends an issue.
func (e *Error) Add(message string, path ...any) {
	e.Issues = append(e.Issues, Issue{Message: message, Path: path})
}
