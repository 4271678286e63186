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

import "context"

// funcAdapter wraps an arbitrary validation function.
type funcAdapter struct {
	fn         func(ctx context.Context, value any) (any, error)
	descriptor map[string]any
}

// Func builds a [Schema] from a validation function. The optional descriptor
// is returned from JSONSchema; pass nil for an undescribed schema. The
// function should return *Error for validation findings; any other error is
// wrapped into one.
func Func(fn func(ctx context.Context, value any) (any, error), descriptor map[string]any) Schema {
	if fn == nil {
		panic("validation: nil function passed to Func")
	}
	return &funcAdapter{fn: fn, descriptor: descriptor}
}

// Validate implements [Schema].
func (a *funcAdapter) Validate(ctx context.Context, value any) (any, error) {
	out, err := a.fn(ctx, value)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, &Error{Issues: []Issue{{Message: err.Error()}}}
	}
	return out, nil
}

// JSONSchema implements [Schema].
func (a *funcAdapter) JSONSchema() map[string]any {
	return a.descriptor
}
