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

package wire

import (
	"encoding/json"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonRoundTrip pushes an encoded value through encoding/json, mirroring the
// transport boundary the codec is designed for.
func jsonRoundTrip(t *testing.T, encoded any) any {
	t.Helper()

	raw, err := json.Marshal(encoded)
	require.NoError(t, err)

	var out any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestPrimitivesPassThrough(t *testing.T) {
	for _, v := range []any{nil, true, false, "hello", 42, 3.14} {
		encoded, err := Encode(v)
		require.NoError(t, err)
		assert.Equal(t, v, encoded)
		assert.Equal(t, v, Decode(encoded))
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 8, 24, 12, 30, 45, 123_000_000, time.UTC)

	encoded, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$type": "datetime", "$value": "2026-08-24T12:30:45.123Z"}, encoded)

	out, ok := Decode(jsonRoundTrip(t, encoded)).(time.Time)
	require.True(t, ok)
	assert.True(t, in.Equal(out))
}

func TestDateTimeNormalizesZone(t *testing.T) {
	zone := time.FixedZone("CEST", 2*3600)
	in := time.Date(2026, 8, 24, 14, 30, 45, 0, zone)

	encoded, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24T12:30:45.000Z", encoded.(map[string]any)["$value"])
}

func TestBigIntRoundTrip(t *testing.T) {
	in, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	encoded, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$type": "bigint", "$value": "123456789012345678901234567890"}, encoded)

	out, ok := Decode(jsonRoundTrip(t, encoded)).(*big.Int)
	require.True(t, ok)
	assert.Zero(t, in.Cmp(out))
}

func TestUndefinedRoundTrip(t *testing.T) {
	encoded, err := Encode(Undefined{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$type": "undefined", "$value": ""}, encoded)

	_, ok := Decode(jsonRoundTrip(t, encoded)).(Undefined)
	assert.True(t, ok)
}

func TestSetRoundTrip(t *testing.T) {
	in := Set{"a", "b", float64(3)}

	encoded, err := Encode(in)
	require.NoError(t, err)

	out, ok := Decode(jsonRoundTrip(t, encoded)).(Set)
	require.True(t, ok)
	assert.ElementsMatch(t, []any(in), []any(out))
}

func TestSetWithTaggedElements(t *testing.T) {
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := Set{stamp}

	encoded, err := Encode(in)
	require.NoError(t, err)

	out, ok := Decode(jsonRoundTrip(t, encoded)).(Set)
	require.True(t, ok)
	require.Len(t, out, 1)
	decoded, ok := out[0].(time.Time)
	require.True(t, ok)
	assert.True(t, stamp.Equal(decoded))
}

func TestMapRoundTrip(t *testing.T) {
	in := Map{
		{Key: float64(1), Value: "one"},
		{Key: "two", Value: float64(2)},
	}

	encoded, err := Encode(in)
	require.NoError(t, err)

	out, ok := Decode(jsonRoundTrip(t, encoded)).(Map)
	require.True(t, ok)
	assert.ElementsMatch(t, []Entry(in), []Entry(out))
}

func TestRegexpRoundTrip(t *testing.T) {
	in := regexp.MustCompile(`^user-[0-9]+$`)

	encoded, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$type": "regexp", "$value": `^user-[0-9]+$`}, encoded)

	out, ok := Decode(jsonRoundTrip(t, encoded)).(*regexp.Regexp)
	require.True(t, ok)
	assert.Equal(t, in.String(), out.String())
}

func TestUnknownTagReturnsContainerUnchanged(t *testing.T) {
	container := map[string]any{"$type": "hologram", "$value": "whatever"}
	assert.Equal(t, container, Decode(container))
}

func TestMalformedPayloadReturnsContainerUnchanged(t *testing.T) {
	for _, container := range []map[string]any{
		{"$type": "datetime", "$value": "not a date"},
		{"$type": "bigint", "$value": "12x"},
		{"$type": "set", "$value": "{"},
		{"$type": "regexp", "$value": "("},
	} {
		assert.Equal(t, container, Decode(container))
	}
}

func TestPlainObjectWithTwoKeysIsNotTagged(t *testing.T) {
	in := map[string]any{"a": "x", "b": "y"}
	assert.Equal(t, in, Decode(in))

	// $type present but payload is not a string: plain object.
	odd := map[string]any{"$type": "bigint", "$value": float64(1)}
	assert.Equal(t, odd, Decode(odd))
}

func TestNestedStructures(t *testing.T) {
	stamp := time.Date(2025, 12, 31, 23, 59, 59, 999_000_000, time.UTC)
	in := map[string]any{
		"name":    "report",
		"created": stamp,
		"rows":    []any{float64(1), Undefined{}, "three"},
	}

	encoded, err := Encode(in)
	require.NoError(t, err)
	decoded, ok := Decode(jsonRoundTrip(t, encoded)).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "report", decoded["name"])
	created, ok := decoded["created"].(time.Time)
	require.True(t, ok)
	assert.True(t, stamp.Equal(created))

	rows, ok := decoded["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 3)
	assert.Equal(t, float64(1), rows[0])
	assert.IsType(t, Undefined{}, rows[1])
	assert.Equal(t, "three", rows[2])
}

func TestStructEncoding(t *testing.T) {
	type record struct {
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		Internal  string    `json:"-"`
		Empty     string    `json:"empty,omitempty"`
		hidden    int
	}

	_ = record{hidden: 1}.hidden

	stamp := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	encoded, err := Encode(record{Name: "a", CreatedAt: stamp, Internal: "x"})
	require.NoError(t, err)

	m, ok := encoded.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", m["name"])
	assert.NotContains(t, m, "Internal")
	assert.NotContains(t, m, "empty")
	assert.Equal(t, "2026-08-24T00:00:00.000Z", m["created_at"].(map[string]any)["$value"])
}

func TestEncodeRejectsNonStringMapKeys(t *testing.T) {
	_, err := Encode(map[int]string{1: "one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wire.Map")
}

func TestEncodeTypedSliceAndPointer(t *testing.T) {
	encoded, err := Encode([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, encoded)

	s := "ptr"
	encoded, err = Encode(&s)
	require.NoError(t, err)
	assert.Equal(t, "ptr", encoded)

	var nilPtr *string
	encoded, err = Encode(nilPtr)
	require.NoError(t, err)
	assert.Nil(t, encoded)
}
