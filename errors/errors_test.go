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

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "user 42 not found")

	assert.Equal(t, "user 42 not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
	assert.Equal(t, "NOT_FOUND", err.Code())
	assert.Nil(t, err.Details())
}

func TestNewf(t *testing.T) {
	err := Newf(http.StatusBadRequest, "PARSE_ERROR", "bad token at %d", 7)
	assert.Equal(t, "bad token at 7", err.Error())
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, http.StatusBadGateway, "UPSTREAM")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))

	assert.Nil(t, Wrap(nil, http.StatusBadGateway, "UPSTREAM"))
}

func TestWithDetails(t *testing.T) {
	err := New(http.StatusConflict, "CONFLICT", "duplicate").WithDetails(map[string]any{"id": 1})
	assert.Equal(t, map[string]any{"id": 1}, DetailsOf(err))
}

func TestStatusOfDefaults(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(stderrors.New("plain")))
	assert.Empty(t, CodeOf(stderrors.New("plain")))
	assert.Nil(t, DetailsOf(stderrors.New("plain")))
}

func TestDiscoveryThroughWrapping(t *testing.T) {
	inner := New(http.StatusForbidden, "FORBIDDEN", "no access")
	outer := fmt.Errorf("handling request: %w", inner)

	assert.Equal(t, http.StatusForbidden, StatusOf(outer))
	assert.Equal(t, "FORBIDDEN", CodeOf(outer))
}
