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
	"context"

	"lattice.dev/lattice/chain"
)

// Phase identifies a stage of the request lifecycle. Hooks registered for a
// phase run in registration order; body parsing between [PhasePreParsing]
// and [PhasePreValidation] and schema validation between
// [PhasePreValidation] and [PhasePreHandler] are fixed steps, not phases.
type Phase int

const (
	// PhaseOnRequest runs first, before anything touches the request.
	PhaseOnRequest Phase = iota
	// PhasePreParsing runs before the body is parsed.
	PhasePreParsing
	// PhasePreValidation runs after body parsing, before schema validation.
	PhasePreValidation
	// PhasePreHandler runs last before the route handler.
	PhasePreHandler
	// PhasePreSerialization runs on the handler result before it is
	// serialized; a hook's return value replaces the result.
	PhasePreSerialization
	// PhaseOnSend runs on the serialized payload just before it is
	// written; a hook returning a []byte or string replaces the payload.
	PhaseOnSend
	// PhaseOnResponse runs after the response is written. Hooks are
	// fire-and-forget: their results and errors are discarded.
	PhaseOnResponse

	numPhases
)

// String returns the lifecycle name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseOnRequest:
		return "onRequest"
	case PhasePreParsing:
		return "preParsing"
	case PhasePreValidation:
		return "preValidation"
	case PhasePreHandler:
		return "preHandler"
	case PhasePreSerialization:
		return "preSerialization"
	case PhaseOnSend:
		return "onSend"
	case PhaseOnResponse:
		return "onResponse"
	}
	return "unknown"
}

// HandlerFunc is the signature shared by hooks and route handlers. Returning
// a non-nil value produces the response: for a hook this short-circuits every
// remaining phase including the handler, for the handler it is the normal
// outcome. Returning (nil, nil) lets the pipeline continue.
type HandlerFunc func(c *Context) (any, error)

// ErrorHandler recovers from an error escaping the pipeline. Returning a
// non-nil value produces the response; returning (nil, nil) or an error
// passes control to the next registered handler.
type ErrorHandler func(c *Context, err error) (any, error)

// composePhase folds a phase's hook list into a single chain handler. Each
// hook becomes a middleware that short-circuits when the hook produces a
// value or fails, so one composed handler per phase is built once at route
// registration instead of per request.
func composePhase(hooks []HandlerFunc) chain.Handler[*Context] {
	if len(hooks) == 0 {
		return nil
	}

	middleware := make([]chain.Middleware[*Context], len(hooks))
	for i, hook := range hooks {
		middleware[i] = func(ctx context.Context, c *Context, next chain.Handler[*Context]) (any, error) {
			result, err := hook(c)
			if err != nil || result != nil {
				return result, err
			}
			return next(ctx, c)
		}
	}

	return chain.Compose(middleware, func(context.Context, *Context) (any, error) {
		return nil, nil
	})
}
