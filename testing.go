// Copyright 2025 The Rivaas Authors
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

package classjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertRoundTrip encodes v, decodes the result with reg and requires the
// decoded value to equal v. v should be a pointer to a record, the shape the
// decoder produces. It returns the encoded JSON.
//
// Example:
//
//	func TestKnight(t *testing.T) {
//	    classjson.AssertRoundTrip(t, reg, &Knight{Name: "Lancelot"})
//	}
func AssertRoundTrip(t testing.TB, reg *Registry, v any, opts ...Option) []byte {
	t.Helper()

	data, err := Marshal(v, append([]Option{WithRegistry(reg)}, opts...)...)
	require.NoError(t, err, "AssertRoundTrip: encode %T", v)

	got, err := Unmarshal(data, reg, opts...)
	require.NoError(t, err, "AssertRoundTrip: decode %s", data)
	require.Equal(t, v, got, "AssertRoundTrip: %s", data)

	return data
}

// MustEncodeString encodes v and fails the test on error.
//
// Example:
//
//	assert.JSONEq(t, `{"__class__":"Point","x":1,"y":2}`, classjson.MustEncodeString(t, Point{1, 2}))
func MustEncodeString(t testing.TB, v any, opts ...Option) string {
	t.Helper()

	data, err := Marshal(v, opts...)
	if err != nil {
		t.Fatalf("MustEncodeString[%T]: %v", v, err)
	}

	return string(data)
}
