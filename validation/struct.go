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
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Shared struct validator. Field names in issues follow `json` tags.
var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func getStructValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structValidator
}

// structAdapter validates against a Go struct type using `validate` tags.
type structAdapter[T any] struct{}

// Struct builds a [Schema] for the struct type T using go-playground
// validator tags. JSON-native input is coerced into T before validation, and
// the normalized output is the typed T value.
//
// Example:
//
//	type CreateUser struct {
//	    Name  string `json:"name"  validate:"required"`
//	    Email string `json:"email" validate:"required,email"`
//	}
//
//	schema := validation.Struct[CreateUser]()
func Struct[T any]() Schema {
	return structAdapter[T]{}
}

// Validate implements [Schema].
func (structAdapter[T]) Validate(ctx context.Context, value any) (any, error) {
	target, err := coerce[T](value)
	if err != nil {
		return nil, &Error{Issues: []Issue{{Message: err.Error()}}}
	}

	if err := getStructValidator().StructCtx(ctx, target); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return nil, structIssues(verrs)
		}
		return nil, &Error{Issues: []Issue{{Message: err.Error()}}}
	}

	return target, nil
}

// coerce converts an arbitrary value into T: typed values pass through,
// anything else goes through a JSON round-trip.
func coerce[T any](value any) (T, error) {
	switch v := value.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}

	var target T
	raw, err := json.Marshal(value)
	if err != nil {
		return target, fmt.Errorf("input is not coercible: %w", err)
	}
	if err := json.Unmarshal(raw, &target); err != nil {
		return target, fmt.Errorf("input does not match %T: %w", target, err)
	}
	return target, nil
}

// structIssues converts validator errors into an [*Error]. The namespace
// (minus the root struct name) becomes the issue path.
func structIssues(verrs validator.ValidationErrors) *Error {
	out := &Error{}
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		message := fmt.Sprintf("failed '%s' validation", fe.Tag())
		if fe.Param() != "" {
			message = fmt.Sprintf("failed '%s=%s' validation", fe.Tag(), fe.Param())
		}
		out.Issues = append(out.Issues, Issue{Message: message, Path: path})
	}
	return out
}

// fieldPath drops the leading struct name from a namespace like
// "CreateUser.address.city" and splits the rest into path segments.
func fieldPath(namespace string) []any {
	_, rest, found := strings.Cut(namespace, ".")
	if !found || rest == "" {
		return nil
	}

	segments := strings.Split(rest, ".")
	path := make([]any, 0, len(segments))
	for _, segment := range segments {
		path = append(path, segment)
	}
	return path
}

// JSONSchema implements [Schema] with a descriptor derived from T's fields.
func (structAdapter[T]) JSONSchema() map[string]any {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil
	}
	return structDescriptor(rt)
}

func structDescriptor(rt reflect.Type) map[string]any {
	properties := make(map[string]any, rt.NumField())
	var required []string

	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		properties[name] = typeDescriptor(field.Type)

		if tags := field.Tag.Get("validate"); tags != "" {
			for _, tag := range strings.Split(tags, ",") {
				if tag == "required" {
					required = append(required, name)
					break
				}
			}
		}
	}

	descriptor := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		descriptor["required"] = required
	}
	return descriptor
}

var timeType = reflect.TypeOf(time.Time{})

func typeDescriptor(rt reflect.Type) map[string]any {
	if rt == timeType {
		return map[string]any{"type": "string", "format": "date-time"}
	}

	switch rt.Kind() {
	case reflect.Pointer:
		return typeDescriptor(rt.Elem())
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": typeDescriptor(rt.Elem())}
	case reflect.Struct:
		return structDescriptor(rt)
	case reflect.Map:
		return map[string]any{"type": "object"}
	}

	return map[string]any{}
}
