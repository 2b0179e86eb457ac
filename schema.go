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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	schemaDraft = "https://json-schema.org/draft/2020-12/schema"
	schemaURL   = "classjson-registry.json"

	defValue  = "__value"
	defRecord = "__record"
)

// JSONSchema returns a draft 2020-12 JSON Schema for documents this registry
// can decode: arbitrary JSON in which every object carrying a class tag is a
// registered record with exactly its participating fields.
//
// Each class is described under "$defs/<name>". Field types are mapped from
// their Go types; fields of interface type accept any value.
func (r *Registry) JSONSchema() ([]byte, error) {
	return json.Marshal(r.schemaDoc())
}

func (r *Registry) schemaDoc() map[string]any {
	defs := map[string]any{}

	var records []any
	for _, name := range r.Names() {
		rt := r.byName[name]
		defs[name] = r.recordSchema(rt)
		records = append(records, ref(name))
	}

	record := map[string]any{"not": map[string]any{}}
	if len(records) > 0 {
		record = map[string]any{"anyOf": records}
	}
	defs[defRecord] = record
	defs[defValue] = map[string]any{
		"anyOf": []any{
			ref(defRecord),
			map[string]any{"type": "array", "items": ref(defValue)},
			map[string]any{
				"type":                 "object",
				"not":                  map[string]any{"required": []any{ClassKey}},
				"additionalProperties": ref(defValue),
			},
			map[string]any{"type": []any{"string", "number", "boolean", "null"}},
		},
	}

	return map[string]any{
		"$schema": schemaDraft,
		"$ref":    "#/$defs/" + defValue,
		"$defs":   defs,
	}
}

func (r *Registry) recordSchema(rt *RecordType) map[string]any {
	props := map[string]any{
		ClassKey: map[string]any{"const": rt.name},
	}
	required := []any{ClassKey}
	for _, f := range rt.Fields() {
		props[f.Name] = r.typeSchema(f.Type)
		required = append(required, f.Name)
	}

	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// typeSchema maps a field type to a schema. Unknown shapes fall back to the
// permissive value schema.
func (r *Registry) typeSchema(t reflect.Type) map[string]any {
	switch {
	case t == valueType:
		return map[string]any{}
	case t.Kind() == reflect.Pointer:
		return map[string]any{"anyOf": []any{r.typeSchema(t.Elem()), map[string]any{"type": "null"}}}
	case t.Kind() == reflect.Interface:
		return ref(defValue)
	case isMarshaler(t) || implementsUnmarshaler(t):
		return map[string]any{}
	}

	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": []any{"string", "null"}}
		}
		return map[string]any{"type": []any{"array", "null"}, "items": r.typeSchema(t.Elem())}
	case reflect.Array:
		return map[string]any{
			"type":     "array",
			"items":    r.typeSchema(t.Elem()),
			"minItems": t.Len(),
			"maxItems": t.Len(),
		}
	case reflect.Map:
		return map[string]any{"type": []any{"object", "null"}, "additionalProperties": r.typeSchema(t.Elem())}
	case reflect.Struct:
		if rt, ok := r.LookupType(t); ok {
			return ref(rt.name)
		}
		return ref(defValue)
	default:
		return ref(defValue)
	}
}

func ref(def string) map[string]any {
	return map[string]any{"$ref": "#/$defs/" + escapePointer(def)}
}

// escapePointer escapes a JSON pointer token (RFC 6901).
func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

// compiledSchema compiles the registry schema once.
func (r *Registry) compiledSchema() (*jsonschema.Schema, error) {
	r.schemaOnce.Do(func() {
		raw, err := r.JSONSchema()
		if err != nil {
			r.schemaErr = err
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			r.schemaErr = err
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			r.schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		r.schema, r.schemaErr = compiler.Compile(schemaURL)
	})

	return r.schema, r.schemaErr
}

// validateSchema checks raw JSON against the registry schema.
func (r *Registry) validateSchema(data []byte) error {
	if r == nil {
		r = emptyRegistry
	}
	sch, err := r.compiledSchema()
	if err != nil {
		return &SchemaError{Err: err}
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &SyntaxError{Err: err}
	}

	if err := sch.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return &SchemaError{Err: err}
		}
		se := &SchemaError{Err: err}
		collectViolations(verr, se)
		return se
	}

	return nil
}

// collectViolations flattens the leaves of a validation error tree.
func collectViolations(verr *jsonschema.ValidationError, se *SchemaError) {
	if len(verr.Causes) == 0 {
		se.Violations = append(se.Violations, verr.Error())
		return
	}
	for _, cause := range verr.Causes {
		collectViolations(cause, se)
	}
}

var emptyRegistry = &Registry{
	byName: map[string]*RecordType{},
	byType: map[reflect.Type]*RecordType{},
}
