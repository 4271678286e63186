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

package rpc

import (
	"context"
	"net/http"
	"slices"

	"lattice.dev/lattice/chain"
	"lattice.dev/lattice/validation"
)

// Kind distinguishes read procedures from write procedures. Queries
// dispatch over GET with the input in the query string; mutations over
// POST with the input in the body.
type Kind int

const (
	// KindQuery is a read procedure.
	KindQuery Kind = iota
	// KindMutation is a write procedure.
	KindMutation
)

// String returns "query" or "mutation".
func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// HandlerFunc is the terminal function of a procedure. input is the
// decoded, validated input value (nil when the procedure declares no input
// schema and the caller sent nothing).
type HandlerFunc func(ctx context.Context, c *Call, input any) (any, error)

// Middleware wraps procedure dispatch. It shares the composition machinery
// of lattice.dev/lattice/chain with the router's hook phases.
type Middleware = chain.Middleware[*Call]

// Builder accumulates procedure configuration. It has value semantics:
// every method returns a new Builder and never mutates its receiver, so a
// shared base builder can be branched freely:
//
//	base := rpc.NewBuilder().Use(authenticate)
//	get := base.WithOutput(userSchema).Query(getUser)
//	del := base.Mutation(deleteUser) // unaffected by WithOutput
type Builder struct {
	input      validation.Schema
	output     validation.Schema
	middleware []Middleware
}

// NewBuilder returns an empty procedure builder.
func NewBuilder() Builder {
	return Builder{}
}

// WithInput returns a builder that validates inputs against schema before
// the handler runs.
func (b Builder) WithInput(schema validation.Schema) Builder {
	b.input = schema
	return b
}

// WithOutput returns a builder that validates handler results against
// schema before they are encoded.
func (b Builder) WithOutput(schema validation.Schema) Builder {
	b.output = schema
	return b
}

// Use returns a builder with the middleware appended. The middleware slice
// is copied, so builders branched from the same base never share growth.
func (b Builder) Use(mw ...Middleware) Builder {
	combined := make([]Middleware, 0, len(b.middleware)+len(mw))
	combined = append(combined, b.middleware...)
	combined = append(combined, mw...)
	b.middleware = combined
	return b
}

// Query finalizes the builder into a read procedure.
func (b Builder) Query(handler HandlerFunc) *Procedure {
	return b.finalize(KindQuery, handler)
}

// Mutation finalizes the builder into a write procedure.
func (b Builder) Mutation(handler HandlerFunc) *Procedure {
	return b.finalize(KindMutation, handler)
}

func (b Builder) finalize(kind Kind, handler HandlerFunc) *Procedure {
	if handler == nil {
		panic("rpc: nil procedure handler")
	}
	p := &Procedure{
		kind:       kind,
		input:      b.input,
		output:     b.output,
		middleware: slices.Clone(b.middleware),
		handler:    handler,
	}
	p.compile()
	return p
}

// Query builds a read procedure with no input or output schema and no
// middleware. Shorthand for NewBuilder().Query(handler).
func Query(handler HandlerFunc) *Procedure {
	return NewBuilder().Query(handler)
}

// Mutation builds a write procedure with no input or output schema and no
// middleware. Shorthand for NewBuilder().Mutation(handler).
func Mutation(handler HandlerFunc) *Procedure {
	return NewBuilder().Mutation(handler)
}

// Procedure is a finalized, immutable remote procedure. Procedures are the
// leaves of a [Routes] tree; everything else in the tree is nesting.
type Procedure struct {
	kind       Kind
	input      validation.Schema
	output     validation.Schema
	middleware []Middleware
	handler    HandlerFunc

	invoke chain.Handler[*Call]
}

// Kind reports whether the procedure is a query or a mutation.
func (p *Procedure) Kind() Kind {
	return p.kind
}

// InputSchema returns the input validator, or nil.
func (p *Procedure) InputSchema() validation.Schema {
	return p.input
}

// OutputSchema returns the output validator, or nil.
func (p *Procedure) OutputSchema() validation.Schema {
	return p.output
}

// compile precomposes the middleware chain around the handler. The composed
// chain expects the decoded input under the inputKey call value.
func (p *Procedure) compile() {
	p.invoke = chain.Compose(p.middleware, func(ctx context.Context, c *Call) (any, error) {
		input, _ := c.Get(inputKey)
		return p.handler(ctx, c, input)
	})
}

// inputKey is the call value under which the decoded input travels through
// the middleware chain.
const inputKey = "rpc.input"

// Call validates the input, runs the middleware chain and handler, and
// validates the output. It performs no transport work and is usable
// directly in tests.
func (p *Procedure) Call(ctx context.Context, c *Call, input any) (any, error) {
	if p.input != nil {
		validated, err := p.input.Validate(ctx, input)
		if err != nil {
			return nil, err
		}
		input = validated
	}

	c.Set(inputKey, input)
	result, err := p.invoke(ctx, c)
	if err != nil {
		return nil, err
	}

	if p.output != nil {
		validated, err := p.output.Validate(ctx, result)
		if err != nil {
			verr := &validation.Error{}
			if ve, ok := err.(*validation.Error); ok {
				verr = ve
			}
			return nil, &Error{
				Message: "output validation failed",
				ErrCode: CodeOutputValidationError,
				Status:  http.StatusInternalServerError,
				Issues:  verr.Issues,
			}
		}
		result = validated
	}

	return result, nil
}
