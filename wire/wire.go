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
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// Reserved keys of the tagged container. A JSON object carrying exactly
// these two keys is interpreted as a tagged value during decoding.
const (
	typeKey  = "$type"
	valueKey = "$value"
)

// Type tags for values JSON cannot represent natively.
const (
	// TagUndefined marks an absent value ([Undefined]).
	TagUndefined = "undefined"
	// TagDateTime marks a timestamp, encoded as UTC RFC 3339 with
	// millisecond precision.
	TagDateTime = "datetime"
	// TagBigInt marks an arbitrary-precision integer, encoded as its
	// decimal string form.
	TagBigInt = "bigint"
	// TagSet marks a unique-element collection, encoded as the JSON
	// string of its encoded elements.
	TagSet = "set"
	// TagMap marks a key-value collection, encoded as the JSON string of
	// its [encodedKey, encodedValue] pairs.
	TagMap = "map"
	// TagRegexp marks a pattern object, encoded as its source string.
	TagRegexp = "regexp"
)

// datetimeLayout is RFC 3339 truncated to millisecond precision. Encoded
// timestamps are always normalized to UTC first, so the zone renders as "Z".
const datetimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Undefined is the sentinel for an absent value, distinct from JSON null.
type Undefined struct{}

// Set is a unique-element collection. Element uniqueness is the caller's
// contract; Set preserves insertion order so encode output is deterministic.
type Set []any

// Map is an ordered key-value collection whose keys may be any encodable
// value, not just strings.
type Map []Entry

// Entry is a single key-value pair of a [Map].
type Entry struct {
	Key   any
	Value any
}

// tagged builds the reserved two-key container for a tag and payload.
func tagged(tag, payload string) map[string]any {
	return map[string]any{typeKey: tag, valueKey: payload}
}

// Encode converts a value into a JSON-safe representation. Primitives pass
// through unchanged, sequences encode element-wise, keyed structures encode
// value-wise, and values JSON cannot express natively become tagged
// containers (see the Tag constants).
//
// Structs are encoded field-wise using `json` tag names so that nested
// timestamps and big integers keep their tags instead of degrading to the
// encoding/json default forms.
func Encode(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Undefined:
		return tagged(TagUndefined, ""), nil
	case time.Time:
		return tagged(TagDateTime, t.UTC().Truncate(time.Millisecond).Format(datetimeLayout)), nil
	case *big.Int:
		if t == nil {
			return nil, nil
		}
		return tagged(TagBigInt, t.String()), nil
	case *regexp.Regexp:
		if t == nil {
			return nil, nil
		}
		return tagged(TagRegexp, t.String()), nil
	case Set:
		elements := make([]any, 0, len(t))
		for _, element := range t {
			encoded, err := Encode(element)
			if err != nil {
				return nil, err
			}
			elements = append(elements, encoded)
		}
		payload, err := json.Marshal(elements)
		if err != nil {
			return nil, fmt.Errorf("wire: encode set: %w", err)
		}
		return tagged(TagSet, string(payload)), nil
	case Map:
		pairs := make([][2]any, 0, len(t))
		for _, entry := range t {
			key, err := Encode(entry.Key)
			if err != nil {
				return nil, err
			}
			value, err := Encode(entry.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, [2]any{key, value})
		}
		payload, err := json.Marshal(pairs)
		if err != nil {
			return nil, fmt.Errorf("wire: encode map: %w", err)
		}
		return tagged(TagMap, string(payload)), nil
	case bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	case []any:
		return encodeSlice(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, value := range t {
			encoded, err := Encode(value)
			if err != nil {
				return nil, err
			}
			out[key] = encoded
		}
		return out, nil
	}

	return encodeReflect(reflect.ValueOf(v))
}

func encodeSlice(values []any) (any, error) {
	out := make([]any, len(values))
	for i, value := range values {
		encoded, err := Encode(value)
		if err != nil {
			return nil, err
		}
		out[i] = encoded
	}
	return out, nil
}

// encodeReflect handles typed slices, maps with string keys, structs, and
// pointers that did not match a concrete case in Encode.
func encodeReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Encode(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			encoded, err := Encode(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("wire: cannot encode map with %s keys, use wire.Map", rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			encoded, err := Encode(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = encoded
		}
		return out, nil

	case reflect.Struct:
		return encodeStruct(rv)
	}

	return nil, fmt.Errorf("wire: cannot encode value of type %s", rv.Type())
}

func encodeStruct(rv reflect.Value) (any, error) {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())

	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		omitEmpty := false
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, opts, _ := strings.Cut(tag, ",")
			if tagName == "-" && opts == "" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
			omitEmpty = strings.Contains(opts, "omitempty")
		}

		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}

		encoded, err := Encode(fv.Interface())
		if err != nil {
			return nil, err
		}
		out[name] = encoded
	}

	return out, nil
}

// Decode is the inverse of [Encode]. Primitives pass through, sequences
// decode element-wise, and a keyed structure carrying exactly the two
// reserved container keys is reconstructed per its tag. An unrecognized tag
// returns the container unchanged so newer peers can introduce tags without
// breaking older decoders; a malformed payload of a known tag is treated the
// same way. Decode never fails.
func Decode(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, element := range t {
			out[i] = Decode(element)
		}
		return out

	case map[string]any:
		if decoded, ok := decodeTagged(t); ok {
			return decoded
		}
		out := make(map[string]any, len(t))
		for key, value := range t {
			out[key] = Decode(value)
		}
		return out
	}

	return v
}

// decodeTagged reconstructs a tagged container. The second return is false
// when the map is not a well-formed container at all; a well-formed
// container with an unknown tag or a malformed payload is returned as-is
// with ok=true so callers do not re-descend into the reserved keys.
func decodeTagged(m map[string]any) (any, bool) {
	if len(m) != 2 {
		return nil, false
	}
	tag, ok := m[typeKey].(string)
	if !ok {
		return nil, false
	}
	payload, ok := m[valueKey].(string)
	if !ok {
		return nil, false
	}

	switch tag {
	case TagUndefined:
		return Undefined{}, true

	case TagDateTime:
		t, err := time.Parse(datetimeLayout, payload)
		if err != nil {
			return m, true
		}
		return t.UTC(), true

	case TagBigInt:
		n, ok := new(big.Int).SetString(payload, 10)
		if !ok {
			return m, true
		}
		return n, true

	case TagSet:
		var elements []any
		if err := json.Unmarshal([]byte(payload), &elements); err != nil {
			return m, true
		}
		set := make(Set, len(elements))
		for i, element := range elements {
			set[i] = Decode(element)
		}
		return set, true

	case TagMap:
		var pairs [][]any
		if err := json.Unmarshal([]byte(payload), &pairs); err != nil {
			return m, true
		}
		out := make(Map, 0, len(pairs))
		for _, pair := range pairs {
			if len(pair) != 2 {
				return m, true
			}
			out = append(out, Entry{Key: Decode(pair[0]), Value: Decode(pair[1])})
		}
		return out, true

	case TagRegexp:
		re, err := regexp.Compile(payload)
		if err != nil {
			return m, true
		}
		return re, true
	}

	// Forward-compatibility escape hatch: unknown tags round-trip untouched.
	return m, true
}
