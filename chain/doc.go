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

// Package chain provides a generic continuation-passing middleware executor.
//
// A chain is an ordered middleware list folded around a terminal handler.
// Each middleware receives the shared call value and a next continuation;
// invoking next runs the rest of the chain, while returning without calling
// next short-circuits it. Execution order is strictly declaration order.
//
// The same executor backs both the HTTP request lifecycle (hooks adapted as
// middleware) and the RPC middleware chain.
package chain
