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
	"io"
	"maps"
	"reflect"
	"slices"
)

// Decoder turns tagged JSON back into record instances using a [Registry].
// A Decoder is immutable and safe for concurrent use.
type Decoder struct {
	reg *Registry
	cfg *Options
}

// NewDecoder returns a Decoder resolving class names against reg.
// A nil registry resolves nothing: every tagged object is then an
// [UnregisteredTypeError].
func NewDecoder(reg *Registry, opts ...Option) *Decoder {
	return &Decoder{reg: reg, cfg: applyOptions(opts)}
}

// Decode parses data and resolves every tagged object, innermost first.
// Records are returned as pointers to their struct type, plain objects as
// map[string]any and arrays as []any. Numbers outside record fields are
// float64 unless [WithUseNumber] is set.
//
// Errors:
//   - [SyntaxError]: data is not a single well-formed JSON value
//   - [SchemaError]: [WithSchemaValidation] is set and data does not conform
//   - [TagTypeError], [UnregisteredTypeError]: the class tag is unusable
//   - [MissingFieldError], [ExtraneousFieldError]: the key set does not match
//   - [ConstructionError]: the record could not be built
//   - [ResolverError]: a delegate resolver failed
func (d *Decoder) Decode(data []byte) (any, error) {
	s := newSession(d.cfg)
	v, err := d.decode(s, data)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	return untyped(v, d.cfg), nil
}

// DecodeReader reads all of r and decodes it. See [Decoder.Decode].
func (d *Decoder) DecodeReader(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return d.Decode(data)
}

// DecodeInto decodes data and stores the result in the value pointed to by
// out. A decoded *T is stored into a T, a *T or an interface T satisfies.
//
// Example:
//
//	var shapes []Shape
//	err := dec.DecodeInto(data, &shapes)
func (d *Decoder) DecodeInto(data []byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrOutMustBePointer
	}

	s := newSession(d.cfg)
	v, err := d.decode(s, data)
	if err == nil {
		err = convertValue(rv.Elem(), v, "$", d.cfg)
	}
	s.finish(err)

	return err
}

func (d *Decoder) decode(s *session, data []byte) (any, error) {
	if d.cfg.SchemaValidation {
		if err := d.reg.validateSchema(data); err != nil {
			return nil, err
		}
	}

	ds := &decodeState{
		s:   s,
		reg: d.reg,
		tr:  newTokenReader(bytes.NewReader(data), d.cfg.MaxDepth),
	}
	tok, err := ds.tr.next()
	if err != nil {
		return nil, err
	}
	v, err := ds.value(tok, 0)
	if err != nil {
		return nil, err
	}
	if err := ds.tr.end(); err != nil {
		return nil, err
	}

	return v, nil
}

// Unmarshal decodes tagged JSON using reg. See [Decoder.Decode].
//
// Example:
//
//	v, err := classjson.Unmarshal(data, reg)
//	knight := v.(*Knight)
func Unmarshal(data []byte, reg *Registry, opts ...Option) (any, error) {
	return NewDecoder(reg, opts...).Decode(data)
}

// Decode decodes tagged JSON into a T.
//
// Example:
//
//	knight, err := classjson.Decode[*Knight](data, reg)
//	shapes, err := classjson.Decode[[]Shape](data, reg)
func Decode[T any](data []byte, reg *Registry, opts ...Option) (T, error) {
	var out T
	err := NewDecoder(reg, opts...).DecodeInto(data, &out)

	return out, err
}

// decodeState holds the state of one decode pass.
type decodeState struct {
	s    *session
	reg  *Registry
	tr   *tokenReader
	path pathStack
}

func (ds *decodeState) value(tok json.Token, depth int) (any, error) {
	switch t := tok.(type) {
	case nil, bool, string:
		return t, nil
	case json.Number:
		return ds.number(t)
	case json.Delim:
		if err := ds.tr.enter(depth+1, &ds.path); err != nil {
			return nil, err
		}
		if t == '[' {
			return ds.array(depth + 1)
		}
		return ds.object(depth + 1)
	default:
		return nil, ds.tr.syntaxError(fmt.Errorf("unexpected token %v", tok))
	}
}

// number keeps the literal so typed fields receive it exactly. Values that
// end up untyped become float64 later, so those must fit one.
func (ds *decodeState) number(n json.Number) (any, error) {
	if !ds.s.cfg.UseNumber {
		if _, err := n.Float64(); err != nil {
			return nil, &FieldTypeError{Field: ds.path.String(), Type: float64Type, Found: "number " + n.String(), Err: err}
		}
	}

	return n, nil
}

func (ds *decodeState) array(depth int) (any, error) {
	items := []any{}
	for ds.tr.more() {
		tok, err := ds.tr.next()
		if err != nil {
			return nil, err
		}
		ds.path.pushIndex(len(items))
		v, err := ds.value(tok, depth)
		ds.path.pop()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := ds.tr.next(); err != nil {
		return nil, err
	}

	return items, nil
}

// object reads the members of an object and then resolves it. Member values
// are complete, so nested records always resolve before their container.
func (ds *decodeState) object(depth int) (any, error) {
	obj := make(map[string]any)
	for ds.tr.more() {
		key, err := readKey(ds.tr)
		if err != nil {
			return nil, err
		}
		tok, err := ds.tr.next()
		if err != nil {
			return nil, err
		}
		ds.path.pushKey(key)
		v, err := ds.value(tok, depth)
		ds.path.pop()
		if err != nil {
			return nil, err
		}
		obj[key] = v
	}
	if _, err := ds.tr.next(); err != nil {
		return nil, err
	}
	ds.s.stats.ObjectsParsed++

	return ds.resolve(obj)
}

// resolve turns a parsed object into its final value: a resolver's
// replacement, a record instance, or the object itself.
func (ds *decodeState) resolve(obj map[string]any) (any, error) {
	cfg := ds.s.cfg

	view := obj
	if len(cfg.Resolvers) > 0 {
		view, _ = untyped(obj, cfg).(map[string]any)
	}
	for _, fn := range cfg.Resolvers {
		v, replaced, err := fn(view)
		if err != nil {
			return nil, &ResolverError{Path: ds.path.String(), Err: err}
		}
		if replaced {
			ds.s.stats.Delegated++
			cfg.Logger.Debug("object delegated", "path", ds.path.String())
			if cfg.Events.Delegated != nil {
				cfg.Events.Delegated(ds.path.String())
			}
			return v, nil
		}
	}

	raw, tagged := obj[ClassKey]
	if !tagged {
		return obj, nil
	}
	delete(obj, ClassKey)

	name, ok := raw.(string)
	if !ok {
		return nil, &TagTypeError{Path: ds.path.String(), Found: describe(raw)}
	}

	rt, err := ds.reg.Lookup(name)
	if err != nil {
		var unreg *UnregisteredTypeError
		if errors.As(err, &unreg) {
			unreg.Path = ds.path.String()
		}
		return nil, err
	}

	fields := rt.Fields()
	values := make([]any, len(fields))
	for i, f := range fields {
		v, ok := obj[f.Name]
		if !ok {
			return nil, &MissingFieldError{Path: ds.path.String(), Class: name, Field: f.Name}
		}
		values[i] = v
		delete(obj, f.Name)
	}
	if len(obj) > 0 {
		return nil, &ExtraneousFieldError{
			Path:   ds.path.String(),
			Class:  name,
			Fields: slices.Sorted(maps.Keys(obj)),
		}
	}

	inst, err := rt.newInstance(values, cfg)
	if err == nil && cfg.Validator != nil {
		err = cfg.Validator.Validate(inst)
	}
	if err != nil {
		return nil, &ConstructionError{Path: ds.path.String(), Class: name, Err: err}
	}

	ds.s.stats.RecordsDecoded++
	cfg.Logger.Debug("record resolved", "class", name, "path", ds.path.String())
	if cfg.Events.Resolved != nil {
		cfg.Events.Resolved(name, ds.path.String())
	}

	return inst, nil
}
