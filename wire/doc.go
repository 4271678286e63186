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

// Package wire implements the tagged-value encoding used on the RPC wire.
//
// JSON cannot natively express timestamps, arbitrary-precision integers,
// absent values, unique-element collections, key-value collections with
// non-string keys, or pattern objects. The codec wraps each of these in a
// small container of two reserved keys, "$type" and "$value", carrying a
// type tag and a string-encoded payload. Everything else passes through as
// plain JSON.
//
// Decoding an unknown tag returns the container unchanged rather than
// failing, so old decoders tolerate new tags. For every supported type,
// Decode(Encode(x)) is observably equal to x.
package wire
