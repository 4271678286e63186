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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientServer(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()

	routes := Routes{
		"ping": Query(func(ctx context.Context, c *Call, input any) (any, error) {
			return "pong", nil
		}),
		"user": Routes{
			"get": Query(func(ctx context.Context, c *Call, input any) (any, error) {
				m := input.(map[string]any)
				return map[string]any{"name": m["name"], "since": time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
			}),
			"create": NewBuilder().WithInput(nameSchema()).
				Mutation(func(ctx context.Context, c *Call, input any) (any, error) {
					return input, nil
				}),
		},
	}
	server := httptest.NewServer(MustHandler(routes))
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/rpc"), server
}

func TestClientQuery(t *testing.T) {
	client, _ := clientServer(t)

	result, err := client.Proc("user", "get").Query(context.Background(),
		map[string]any{"name": "ada"})
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, "ada", m["name"])
	// The tagged datetime in the envelope decodes back to time.Time.
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), m["since"])
}

func TestClientQueryWithoutInput(t *testing.T) {
	client, _ := clientServer(t)

	result, err := client.Proc("ping").Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}

func TestClientMutate(t *testing.T) {
	client, _ := clientServer(t)

	result, err := client.Proc("user", "create").Mutate(context.Background(),
		map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada", result.(map[string]any)["name"])
}

func TestClientErrorEnvelope(t *testing.T) {
	client, _ := clientServer(t)

	_, err := client.Proc("user", "create").Mutate(context.Background(),
		map[string]any{"name": 42})

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeValidationError, derr.ErrCode)
	assert.Equal(t, 400, derr.Status)
	require.Len(t, derr.Issues, 1)
	assert.Equal(t, "Expected string, received number", derr.Issues[0].Message)
}

func TestClientNotFound(t *testing.T) {
	client, _ := clientServer(t)

	_, err := client.Proc("nope").Query(context.Background(), nil)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeNotFound, derr.ErrCode)
}

func TestClientHeaders(t *testing.T) {
	var seen string
	routes := Routes{
		"ping": Query(func(ctx context.Context, c *Call, input any) (any, error) {
			seen = c.Request.Header.Get("Authorization")
			return nil, nil
		}),
	}
	server := httptest.NewServer(MustHandler(routes))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/rpc", WithHeader("Authorization", "Bearer tok"))
	_, err := client.Proc("ping").Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", seen)
}

func TestCacheKey(t *testing.T) {
	client := NewClient("http://example.test/rpc")
	target := client.Proc("user", "get")

	empty, err := target.CacheKey(nil)
	require.NoError(t, err)
	assert.Equal(t, "user.get", empty)

	keyed, err := target.CacheKey(map[string]any{"id": 7})
	require.NoError(t, err)
	assert.Equal(t, `user.get?{"id":7}`, keyed)
}

func TestFetcher(t *testing.T) {
	client, _ := clientServer(t)

	fetch := client.Proc("ping").Fetcher(nil)
	result, err := fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}
