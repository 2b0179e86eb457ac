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
	"maps"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	// ClassKey is the reserved JSON key that carries a record's class name.
	ClassKey = "__class__"

	// TagJSON names a field's JSON key, as with encoding/json.
	TagJSON = "json"

	// TagClass carries codec-specific field flags. The only flag is
	// "derived" (or "-"), which excludes a field from construction.
	TagClass = "classjson"
)

// Field describes one exported field of a record type.
type Field struct {
	Name         string       // JSON key
	GoName       string       // Go struct field name
	Index        []int        // Index path, longer than one for promoted fields
	Type         reflect.Type // Field type
	Participates bool         // Whether the field is supplied at construction
}

// typeInfo is the cached introspection result for one struct type.
type typeInfo struct {
	all    []Field // every exported field, declaration order
	fields []Field // participating subset, declaration order
	err    error   // ReservedFieldError or DuplicateFieldError
}

var (
	// RCU pattern: atomic pointer to immutable map
	typeInfoCachePtr atomic.Pointer[map[reflect.Type]*typeInfo]

	// Write-side lock (only for cache updates)
	typeInfoCacheMu sync.Mutex
)

func init() {
	m := make(map[reflect.Type]*typeInfo)
	typeInfoCachePtr.Store(&m)
}

// getTypeInfo returns the introspection result for a struct type, parsing it
// at most once. Reads are lock-free; concurrent misses for the same type
// parse it once (double-check locking).
func getTypeInfo(typ reflect.Type) *typeInfo {
	m := typeInfoCachePtr.Load()
	if ti, ok := (*m)[typ]; ok {
		return ti
	}

	typeInfoCacheMu.Lock()
	defer typeInfoCacheMu.Unlock()

	m = typeInfoCachePtr.Load()
	if ti, ok := (*m)[typ]; ok {
		return ti
	}

	ti := parseTypeInfo(typ)

	newMap := make(map[reflect.Type]*typeInfo, len(*m)+1)
	maps.Copy(newMap, *m)
	newMap[typ] = ti
	typeInfoCachePtr.Store(&newMap)

	return ti
}

// parseTypeInfo walks the fields of a struct type in declaration order.
func parseTypeInfo(typ reflect.Type) *typeInfo {
	ti := &typeInfo{}
	ti.all = collectFields(typ, nil, true)

	seen := make(map[string]bool, len(ti.all))
	for _, f := range ti.all {
		if !f.Participates {
			continue
		}
		if f.Name == ClassKey {
			ti.err = &ReservedFieldError{Type: typ, Field: f.GoName}
			return ti
		}
		if seen[f.Name] {
			ti.err = &DuplicateFieldError{Type: typ, Name: f.Name}
			return ti
		}
		seen[f.Name] = true
		ti.fields = append(ti.fields, f)
	}

	return ti
}

// collectFields returns the exported fields of typ, flattening embedded
// structs that carry no JSON name of their own.
func collectFields(typ reflect.Type, parent []int, participates bool) []Field {
	var out []Field
	for i := range typ.NumField() {
		sf := typ.Field(i)
		name, jsonSkip := jsonName(sf)
		derived := isDerived(sf)

		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && name == "" && !jsonSkip {
			out = append(out, collectFields(sf.Type, index, participates && !derived)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		out = append(out, Field{
			Name:         name,
			GoName:       sf.Name,
			Index:        index,
			Type:         sf.Type,
			Participates: participates && !jsonSkip && !derived,
		})
	}

	return out
}

// jsonName extracts the key from a json tag. skip is true for `json:"-"`.
func jsonName(sf reflect.StructField) (name string, skip bool) {
	tag, ok := sf.Tag.Lookup(TagJSON)
	if !ok {
		return "", false
	}
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")

	return name, false
}

// isDerived reports whether the classjson tag marks the field as computed.
func isDerived(sf reflect.StructField) bool {
	tag := sf.Tag.Get(TagClass)
	for opt := range strings.SplitSeq(tag, ",") {
		if opt == "derived" || opt == "-" {
			return true
		}
	}

	return false
}

// WarmupCache pre-parses record types so the first encode or decode of each
// does not pay for reflection. Non-struct inputs are skipped.
//
// Example:
//
//	classjson.WarmupCache(Circle{}, Square{})
func WarmupCache(samples ...any) {
	for _, s := range samples {
		typ := reflect.TypeOf(s)
		if typ == nil {
			continue
		}
		if typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ.Kind() != reflect.Struct {
			continue
		}
		getTypeInfo(typ)
	}
}
