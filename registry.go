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
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Registry maps class names to record types. It is built once by
// [NewRegistry] and never modified, so a single Registry can be shared by any
// number of concurrent encoders and decoders.
type Registry struct {
	byName map[string]*RecordType
	byType map[reflect.Type]*RecordType
	names  []string // registration order

	// Compiled lazily for WithSchemaValidation.
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
}

// NewRegistry builds a registry from record types. Each input may be a
// [*RecordType], a [reflect.Type], or a sample struct value or pointer.
//
// Errors:
//   - [NotARecordTypeError]: an input is not a struct
//   - [DuplicateNameError]: two inputs resolve to the same class name
//   - [ReservedFieldError], [DuplicateFieldError]: a type's fields are invalid
//
// Example:
//
//	reg, err := classjson.NewRegistry(Knight{}, Viking{}, Parrot{})
func NewRegistry(types ...any) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*RecordType, len(types)),
		byType: make(map[reflect.Type]*RecordType, len(types)),
		names:  make([]string, 0, len(types)),
	}

	for _, t := range types {
		rt, ok := t.(*RecordType)
		if !ok {
			var err error
			if rt, err = TypeFor(t); err != nil {
				return nil, err
			}
		}
		if prev, dup := r.byName[rt.name]; dup {
			return nil, &DuplicateNameError{Name: rt.name, First: prev.typ, Other: rt.typ}
		}
		r.byName[rt.name] = rt
		if _, seen := r.byType[rt.typ]; !seen {
			r.byType[rt.typ] = rt
		}
		r.names = append(r.names, rt.name)
	}

	return r, nil
}

// MustRegistry is like [NewRegistry] but panics on error. Use it for
// registries declared as package variables.
func MustRegistry(types ...any) *Registry {
	r, err := NewRegistry(types...)
	if err != nil {
		panic(fmt.Sprintf("classjson: MustRegistry: %v", err))
	}

	return r
}

// Lookup returns the record type registered under name.
// It returns an [UnregisteredTypeError] if there is none.
func (r *Registry) Lookup(name string) (*RecordType, error) {
	if r != nil {
		if rt, ok := r.byName[name]; ok {
			return rt, nil
		}
	}

	return nil, &UnregisteredTypeError{Name: name}
}

// LookupType returns the record type registered for t (or *t). When one Go
// type is registered under several names the first registration wins.
func (r *Registry) LookupType(t reflect.Type) (*RecordType, bool) {
	if r == nil || t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	rt, ok := r.byType[t]

	return rt, ok
}

// Names returns the registered class names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	return slices.Clone(r.names)
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.names)
}
