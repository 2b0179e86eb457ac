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

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/classjson"
)

type knight struct {
	Name  string `json:"name" validate:"required,min=3"`
	Quest string `json:"quest" validate:"oneof=grail shrubbery"`
	Age   int    `json:"age" validate:"max=120"`
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     any
		wantPaths []string
	}{
		{
			name:  "valid record",
			value: &knight{Name: "Lancelot", Quest: "grail", Age: 30},
		},
		{
			name:      "missing name",
			value:     &knight{Quest: "grail"},
			wantPaths: []string{"name"},
		},
		{
			name:      "several failures sorted by path",
			value:     &knight{Name: "Al", Quest: "cheese", Age: 500},
			wantPaths: []string{"age", "name", "quest"},
		},
		{
			name:  "non-struct passes",
			value: 42,
		},
		{
			name:  "nil pointer passes",
			value: (*knight)(nil),
		},
	}

	v := MustNew()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tt.value)
			if len(tt.wantPaths) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *Error
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, len(tt.wantPaths))
			for i, p := range tt.wantPaths {
				assert.Equal(t, p, verr.Fields[i].Path)
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidator_Messages(t *testing.T) {
	t.Parallel()

	err := MustNew().Validate(&knight{Name: "Al", Quest: "grail"})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "tag.min", verr.Fields[0].Code)
	assert.Equal(t, "must be at least 3 characters", verr.Fields[0].Message)
	assert.Equal(t, "name: must be at least 3 characters", err.Error())
	assert.Equal(t, 422, verr.HTTPStatus())
	assert.Equal(t, "validation_failed", verr.Code())
	assert.True(t, verr.Has("name"))
}

func TestValidator_MaxErrors(t *testing.T) {
	t.Parallel()

	v := MustNew(WithMaxErrors(1))
	err := v.Validate(&knight{Quest: "cheese", Age: 500})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 1)
	assert.True(t, verr.Truncated)
	assert.Equal(t, verr.Fields[0].Error()+" (truncated)", err.Error())

	full := &Error{Fields: []FieldError{{Path: "name", Code: "tag.required", Message: "is required"}}}
	assert.Equal(t, "name: is required", full.Error())
	full.Truncated = true
	assert.Equal(t, "name: is required (truncated)", full.Error())
}

func TestValidator_CustomTag(t *testing.T) {
	t.Parallel()

	type squire struct {
		Name string `json:"name" validate:"knightly"`
	}

	v, err := New(WithCustomTag("knightly", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "Sir ")
	}))
	require.NoError(t, err)

	require.NoError(t, v.Validate(&squire{Name: "Sir Robin"}))

	err = v.Validate(&squire{Name: "Patsy"})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tag.knightly", verr.Fields[0].Code)
	assert.Equal(t, "failed validation (knightly)", verr.Fields[0].Message)
}

func TestValidator_WithDecoder(t *testing.T) {
	t.Parallel()

	reg := classjson.MustRegistry(classjson.MustTypeOf[knight](classjson.WithName("Knight")))
	dec := classjson.NewDecoder(reg, classjson.WithValidator(MustNew()))

	v, err := dec.Decode([]byte(`{"__class__":"Knight","name":"Galahad","quest":"grail","age":20}`))
	require.NoError(t, err)
	assert.Equal(t, &knight{Name: "Galahad", Quest: "grail", Age: 20}, v)

	_, err = dec.Decode([]byte(`[{"__class__":"Knight","name":"Galahad","quest":"cheese","age":20}]`))
	var cerr *classjson.ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Knight", cerr.Class)
	assert.Equal(t, "$[0]", cerr.Path)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("quest"))
	assert.True(t, errors.Is(err, ErrValidation))
}
