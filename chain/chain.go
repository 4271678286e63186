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

package chain

import "context"

// Handler is the terminal computation of a chain. It receives the shared
// per-call value C and produces a result.
type Handler[C any] func(ctx context.Context, c C) (any, error)

// Middleware wraps a [Handler]. A middleware must call next to continue the
// chain, or return its own result (or error) to short-circuit everything
// after it.
type Middleware[C any] func(ctx context.Context, c C, next Handler[C]) (any, error)

// Compose folds an ordered middleware list around a terminal handler and
// returns a single handler. The first middleware in the list is outermost:
// it is the first to see the call and the last to see the result.
//
// Compose copies nothing from the slice; callers must not mutate middleware
// after composing.
//
// Example:
//
//	h := chain.Compose([]chain.Middleware[*Call]{auth, audit}, terminal)
//	result, err := h(ctx, call)
func Compose[C any](middleware []Middleware[C], terminal Handler[C]) Handler[C] {
	if terminal == nil {
		panic("chain: nil terminal handler passed to Compose")
	}

	h := terminal
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		if mw == nil {
			panic("chain: nil middleware passed to Compose")
		}

		next := h
		h = func(ctx context.Context, c C) (any, error) {
			return mw(ctx, c, next)
		}
	}

	return h
}

// Run composes and immediately invokes the chain. It is a convenience for
// one-shot execution where the composed handler is not reused.
func Run[C any](ctx context.Context, c C, middleware []Middleware[C], terminal Handler[C]) (any, error) {
	return Compose(middleware, terminal)(ctx, c)
}
