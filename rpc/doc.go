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

// Package rpc provides typed remote procedures dispatched over plain HTTP.
//
// Procedures are built with an immutable [Builder], composed into a nested
// [Routes] tree, and flattened into dotted paths at mount time:
//
//	handler := rpc.MustHandler(rpc.Routes{
//		"user": rpc.Routes{
//			"get": rpc.NewBuilder().
//				WithInput(getUserInput).
//				Query(getUser),
//		},
//	})
//	http.Handle("/rpc/", handler)
//
// Queries dispatch over GET with the input as a JSON "input" query
// parameter; mutations over POST with a JSON body. Inputs and results pass
// through the lattice.dev/lattice/wire codec, so dates, big integers,
// sets, maps, and regexps survive the JSON transport. Every response is a
// {"result": ...} or {"error": {...}} envelope.
//
// The handler also serves generated documents under its mount prefix:
// openapi.json, openapi.yaml, and manifest.json.
package rpc
