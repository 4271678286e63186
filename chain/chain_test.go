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

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	events []string
}

func record(log *callLog, name string) Middleware[*callLog] {
	return func(ctx context.Context, c *callLog, next Handler[*callLog]) (any, error) {
		c.events = append(c.events, name+"-before")
		result, err := next(ctx, c)
		c.events = append(c.events, name+"-after")
		return result, err
	}
}

func TestComposeOrder(t *testing.T) {
	log := &callLog{}
	middleware := []Middleware[*callLog]{record(log, "m1"), record(log, "m2")}

	terminal := func(ctx context.Context, c *callLog) (any, error) {
		c.events = append(c.events, "handler")
		return "done", nil
	}

	result, err := Compose(middleware, terminal)(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}, log.events)
}

func TestComposeEmpty(t *testing.T) {
	terminal := func(ctx context.Context, c *callLog) (any, error) {
		return 42, nil
	}

	result, err := Compose(nil, terminal)(context.Background(), &callLog{})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestComposeShortCircuit(t *testing.T) {
	log := &callLog{}

	stop := func(ctx context.Context, c *callLog, next Handler[*callLog]) (any, error) {
		c.events = append(c.events, "stop")
		return "intercepted", nil
	}

	middleware := []Middleware[*callLog]{record(log, "m1"), stop, record(log, "m2")}
	terminal := func(ctx context.Context, c *callLog) (any, error) {
		c.events = append(c.events, "handler")
		return "done", nil
	}

	result, err := Compose(middleware, terminal)(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, "intercepted", result)
	assert.Equal(t, []string{"m1-before", "stop", "m1-after"}, log.events)
}

func TestComposeErrorPropagation(t *testing.T) {
	log := &callLog{}
	boom := errors.New("boom")

	middleware := []Middleware[*callLog]{record(log, "m1")}
	terminal := func(ctx context.Context, c *callLog) (any, error) {
		return nil, boom
	}

	result, err := Compose(middleware, terminal)(context.Background(), log)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, result)
	// The wrapping middleware still observes the unwind.
	assert.Equal(t, []string{"m1-before", "m1-after"}, log.events)
}

func TestRun(t *testing.T) {
	result, err := Run(context.Background(), &callLog{}, nil, func(ctx context.Context, c *callLog) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestComposeNilMiddlewarePanics(t *testing.T) {
	terminal := func(ctx context.Context, c *callLog) (any, error) { return nil, nil }

	assert.Panics(t, func() {
		Compose([]Middleware[*callLog]{nil}, terminal)
	})
	assert.Panics(t, func() {
		Compose[*callLog](nil, nil)
	})
}
