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

// Package validation defines the validator capability consumed by the
// router and RPC layers, with explicit adapters per validation library.
//
// The capability is a single interface, [Schema], pairing Validate with a
// JSON-schema descriptor. Adapters are selected explicitly at configuration
// time, in this documented priority when several could serve:
//
//  1. [CompileJSONSchema] — JSON Schema documents
//     (github.com/santhosh-tekuri/jsonschema).
//  2. [Struct] — Go struct types with `validate` tags
//     (github.com/go-playground/validator).
//  3. [Func] — arbitrary validation functions.
//
// The framework never inspects a validator value's shape at runtime to
// guess its library; a value is whatever adapter constructed it.
package validation
