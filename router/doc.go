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

// Package router provides a segment-based radix tree router with an
// ordered hook lifecycle and encapsulated plugin scopes.
//
// Matching precedence at every tree node is literal, then parameter, then
// catch-all, with full backtracking: a literal branch that dead-ends deeper
// in the tree rolls back its parameter bindings and yields to the parameter
// branch. Registration order never affects matching.
//
// Handlers return values instead of writing to the response writer:
//
//	r := router.New()
//	r.GET("/users/:id", func(c *router.Context) (any, error) {
//		return map[string]any{"id": c.Param("id")}, nil
//	})
//
// Hooks attach to lifecycle phases on a scope and are frozen into each
// route at registration. Plugins registered via [Scope.Register] get a
// child scope whose hooks and decorations never leak back out.
package router
