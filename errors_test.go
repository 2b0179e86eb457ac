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

//go:build !integration

package classjson

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "rivaas.dev/errors"
)

func TestErrors_Messages(t *testing.T) {
	t.Parallel()

	pointType := reflect.TypeFor[Point]()

	tests := []struct {
		name   string
		err    error
		msg    string
		status int
		code   string
	}{
		{
			name:   "duplicate name",
			err:    &DuplicateNameError{Name: "P", First: pointType, Other: reflect.TypeFor[Knight]()},
			msg:    `duplicate class name "P": classjson.Point and classjson.Knight`,
			status: http.StatusInternalServerError, code: "duplicate_class_name",
		},
		{
			name:   "not a record",
			err:    &NotARecordTypeError{Type: reflect.TypeFor[int]()},
			msg:    `int is not a record type (want struct, got int)`,
			status: http.StatusInternalServerError, code: "not_a_record_type",
		},
		{
			name:   "nil record type",
			err:    &NotARecordTypeError{},
			msg:    `<nil> is not a record type`,
			status: http.StatusInternalServerError, code: "not_a_record_type",
		},
		{
			name:   "reserved field",
			err:    &ReservedFieldError{Type: pointType, Field: "Tag"},
			msg:    `field classjson.Point.Tag uses reserved key "__class__"`,
			status: http.StatusInternalServerError, code: "reserved_field",
		},
		{
			name:   "duplicate field",
			err:    &DuplicateFieldError{Type: pointType, Name: "x"},
			msg:    `duplicate field name "x" in classjson.Point`,
			status: http.StatusInternalServerError, code: "duplicate_field",
		},
		{
			name:   "tag type",
			err:    &TagTypeError{Path: "$.a", Found: "number"},
			msg:    `$.a: invalid type for class name (__class__): expected string, found number`,
			status: http.StatusBadRequest, code: "invalid_class_tag",
		},
		{
			name:   "unregistered without path",
			err:    &UnregisteredTypeError{Name: "Hexagon"},
			msg:    `class "Hexagon" not registered for deserialization`,
			status: http.StatusBadRequest, code: "unregistered_class",
		},
		{
			name:   "unregistered",
			err:    &UnregisteredTypeError{Path: "$[0]", Name: "Hexagon"},
			msg:    `$[0]: class "Hexagon" not registered for deserialization`,
			status: http.StatusBadRequest, code: "unregistered_class",
		},
		{
			name:   "missing field",
			err:    &MissingFieldError{Class: "Point", Field: "y"},
			msg:    `$: field "y" not specified for class Point`,
			status: http.StatusBadRequest, code: "missing_field",
		},
		{
			name:   "extraneous fields",
			err:    &ExtraneousFieldError{Path: "$.p", Class: "Point", Fields: []string{"a", "z"}},
			msg:    `$.p: extraneous values specified for class Point: a z`,
			status: http.StatusBadRequest, code: "extraneous_fields",
		},
		{
			name:   "construction",
			err:    &ConstructionError{Class: "Rect", Err: errNegativeSize},
			msg:    `$: instantiation of class Rect failed: negative size`,
			status: http.StatusUnprocessableEntity, code: "construction_failed",
		},
		{
			name:   "resolver",
			err:    &ResolverError{Path: "$.when", Err: io.ErrUnexpectedEOF},
			msg:    `$.when: resolver failed: unexpected EOF`,
			status: http.StatusBadRequest, code: "resolver_failed",
		},
		{
			name:   "encode",
			err:    &EncodeError{Path: "$.f", Type: reflect.TypeFor[func()](), Reason: "unsupported kind func"},
			msg:    `$.f: cannot encode func(): unsupported kind func`,
			status: http.StatusInternalServerError, code: "encode_failed",
		},
		{
			name:   "syntax",
			err:    &SyntaxError{Offset: 3, Err: io.ErrUnexpectedEOF},
			msg:    `invalid JSON at offset 3: unexpected EOF`,
			status: http.StatusBadRequest, code: "invalid_json",
		},
		{
			name:   "schema",
			err:    &SchemaError{Violations: []string{"one", "two"}},
			msg:    `schema validation failed: one; two`,
			status: http.StatusUnprocessableEntity, code: "schema_violation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.EqualError(t, tt.err, tt.msg)

			var typed rerrors.ErrorType
			require.ErrorAs(t, tt.err, &typed)
			assert.Equal(t, tt.status, typed.HTTPStatus())

			var coded rerrors.ErrorCode
			require.ErrorAs(t, tt.err, &coded)
			assert.Equal(t, tt.code, coded.Code())
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	assert.ErrorIs(t, &ConstructionError{Err: cause}, cause)
	assert.ErrorIs(t, &ResolverError{Err: cause}, cause)
	assert.ErrorIs(t, &EncodeError{Err: cause}, cause)
	assert.ErrorIs(t, &SyntaxError{Err: cause}, cause)
	assert.ErrorIs(t, &SchemaError{Err: cause}, cause)
	assert.ErrorIs(t, &FieldTypeError{Err: cause}, cause)

	fte := &FieldTypeError{Field: "x", Type: reflect.TypeFor[int](), Found: "string"}
	ce := &ConstructionError{Class: "Point", Err: fte}
	var got *FieldTypeError
	require.ErrorAs(t, ce, &got)
	assert.Same(t, fte, got)
	assert.EqualError(t, ce, `$: instantiation of class Point failed: field "x": cannot use string as int`)
}

// The error types plug into the rivaas.dev/errors formatters.
func TestErrors_Formatter(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte(`{"__class__":"Point","x":1,"y":2,"z":3,"a":4}`), shapesRegistry())
	require.Error(t, err)

	resp := rerrors.NewSimple().Format(nil, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	body, ok := resp.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "extraneous_fields", body["code"])
	assert.Equal(t, []string{"a", "z"}, body["details"])
	assert.Equal(t, "$: extraneous values specified for class Point: a z", body["error"])

	_, err = Unmarshal([]byte(`{"__class__":"Rect","w":-1,"h":2}`), shapesRegistry())
	resp = rerrors.NewSimple().Format(nil, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.ErrorIs(t, err, errNegativeSize)
}
