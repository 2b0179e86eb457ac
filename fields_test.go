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
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	return names
}

func TestFields_DeclarationOrder(t *testing.T) {
	t.Parallel()

	fields, err := Fields(Drawing{})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "shapes", "origin", "tags"}, fieldNames(fields))

	// Pointers and reflect.Type give the same list.
	byPtr, err := Fields(&Drawing{})
	require.NoError(t, err)
	assert.Equal(t, fields, byPtr)

	byType, err := Fields(reflect.TypeFor[Drawing]())
	require.NoError(t, err)
	assert.Equal(t, fields, byType)
}

func TestFields_Participation(t *testing.T) {
	t.Parallel()

	type mixed struct {
		A       int `json:"a"`
		hidden  int
		Skipped int `json:"-"`
		Derived int `classjson:"derived"`
		Dash    int `classjson:"-"`
		E       int `json:",omitempty"`
		F       int
	}
	_ = mixed{hidden: 0}

	rt, err := TypeOf[mixed]()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "E", "F"}, fieldNames(rt.Fields()))

	all := rt.AllFields()
	assert.Equal(t, []string{"a", "Skipped", "Derived", "Dash", "E", "F"}, fieldNames(all))
	participates := make([]bool, len(all))
	for i, f := range all {
		participates[i] = f.Participates
	}
	assert.Equal(t, []bool{true, false, false, false, true, true}, participates)
}

func TestFields_Embedded(t *testing.T) {
	t.Parallel()

	type named struct {
		Base `json:"base"`
		Name string `json:"name"`
	}
	type derivedBase struct {
		Base `classjson:"derived"`
		Name string `json:"name"`
	}

	user, err := Fields(User{})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, fieldNames(user))
	assert.Equal(t, []int{0, 0}, user[0].Index)
	assert.Equal(t, "ID", user[0].GoName)

	n, err := Fields(named{})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "name"}, fieldNames(n))

	d, err := Fields(derivedBase{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, fieldNames(d))
}

func TestFields_Invalid(t *testing.T) {
	t.Parallel()

	type reserved struct {
		Tag string `json:"__class__"`
	}
	// The collision only appears once the embedded struct is flattened.
	type inner struct {
		A int `json:"x"`
	}
	type dup struct {
		inner
		B int `json:"x"`
	}
	type ignoredReserved struct {
		Tag string `json:"__class__" classjson:"derived"`
	}

	_, err := TypeOf[reserved]()
	var rfe *ReservedFieldError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "Tag", rfe.Field)

	_, err = TypeOf[dup]()
	var dfe *DuplicateFieldError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, "x", dfe.Name)

	_, err = TypeOf[ignoredReserved]()
	assert.NoError(t, err)

	_, err = Fields(42)
	var nre *NotARecordTypeError
	assert.ErrorAs(t, err, &nre)
}

func TestTypeInfoCache_Concurrent(t *testing.T) {
	t.Parallel()

	type cached struct {
		A int `json:"a"`
	}
	typ := reflect.TypeFor[cached]()

	results := make([]*typeInfo, 64)
	var wg sync.WaitGroup
	for i := range results {
		wg.Go(func() {
			results[i] = getTypeInfo(typ)
		})
	}
	wg.Wait()

	for _, ti := range results {
		assert.Same(t, results[0], ti)
	}
}

func TestWarmupCache(t *testing.T) {
	t.Parallel()

	type warm struct {
		A int `json:"a"`
	}

	WarmupCache(warm{}, &Circle{}, 42, nil)

	m := typeInfoCachePtr.Load()
	_, ok := (*m)[reflect.TypeFor[warm]()]
	assert.True(t, ok)
	_, ok = (*m)[reflect.TypeFor[int]()]
	assert.False(t, ok)
}
