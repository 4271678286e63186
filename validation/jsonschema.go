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
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// jsonSchemaAdapter validates against a compiled JSON schema.
type jsonSchemaAdapter struct {
	compiled *jsonschema.Schema
	doc      map[string]any
}

// CompileJSONSchema builds a [Schema] from a JSON Schema document. The id
// names the schema resource for error reporting; pass "" for an anonymous
// schema.
//
// Example:
//
//	schema, err := validation.CompileJSONSchema("user", `{
//	    "type": "object",
//	    "properties": {"name": {"type": "string"}},
//	    "required": ["name"]
//	}`)
func CompileJSONSchema(id, schemaJSON string) (Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("validation: invalid schema JSON: %w", err)
	}

	url := id
	if url == "" {
		url = "schema.json"
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}

	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}

	descriptor, _ := doc.(map[string]any)

	return &jsonSchemaAdapter{compiled: compiled, doc: descriptor}, nil
}

// MustJSONSchema is like [CompileJSONSchema] but panics on compile errors.
// Intended for schemas defined as literals at startup.
func MustJSONSchema(id, schemaJSON string) Schema {
	schema, err := CompileJSONSchema(id, schemaJSON)
	if err != nil {
		panic(err)
	}
	return schema
}

// Validate implements [Schema]. The value must be JSON-native (the result of
// decoding a JSON document); validated values pass through unchanged.
func (a *jsonSchemaAdapter) Validate(_ context.Context, value any) (any, error) {
	if err := a.compiled.Validate(value); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			out := &Error{}
			collectSchemaIssues(verr, out)
			return nil, out
		}
		return nil, &Error{Issues: []Issue{{Message: err.Error()}}}
	}

	return value, nil
}

// JSONSchema implements [Schema].
func (a *jsonSchemaAdapter) JSONSchema() map[string]any {
	return a.doc
}

// collectSchemaIssues flattens the validation error tree into leaf issues.
func collectSchemaIssues(verr *jsonschema.ValidationError, out *Error) {
	if verr == nil {
		return
	}

	if len(verr.Causes) == 0 {
		out.Issues = append(out.Issues, Issue{
			Message: verr.Error(),
			Path:    instancePath(verr.InstanceLocation),
		})
		return
	}

	for _, cause := range verr.Causes {
		collectSchemaIssues(cause, out)
	}
}

// instancePath converts a schema instance location into an issue path,
// turning array indices into ints.
func instancePath(location []string) []any {
	if len(location) == 0 {
		return nil
	}

	path := make([]any, 0, len(location))
	for _, segment := range location {
		if idx, err := strconv.Atoi(segment); err == nil {
			path = append(path, idx)
		} else {
			path = append(path, segment)
		}
	}
	return path
}
