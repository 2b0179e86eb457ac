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
	"encoding"
	"encoding/json"
	"io"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Type references for special type handling.
var (
	valueType         = reflect.TypeFor[Value]()
	numberType        = reflect.TypeFor[json.Number]()
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// Encoder converts object graphs into tagged JSON. An Encoder is immutable
// and safe for concurrent use.
type Encoder struct {
	cfg *Options
}

// NewEncoder returns an Encoder configured by opts.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{cfg: applyOptions(opts)}
}

// Encode converts v into a [Value]:
//   - a struct (or pointer to one) becomes an object whose first member is
//     the class tag, followed by its participating fields in declaration order
//   - a map becomes an object with keys sorted
//   - a slice or array becomes an array
//   - anything else is serialized as a JSON primitive via encoding/json,
//     including values implementing json.Marshaler or encoding.TextMarshaler
//
// Unnamed struct types carry no class and are written as plain objects.
//
// Errors:
//   - [EncodeError]: v contains a value JSON cannot represent
func (e *Encoder) Encode(v any) (Value, error) {
	s := newSession(e.cfg)
	es := &encodeState{s: s, reg: e.cfg.Registry}
	out, err := es.encode(reflect.ValueOf(v), 0)
	s.finish(err)

	return out, err
}

// Marshal encodes v and returns its JSON text.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	val, err := e.Encode(v)
	if err != nil {
		return nil, err
	}
	b := val.AppendJSON(nil)
	if e.cfg.Prefix == "" && e.cfg.Indent == "" {
		return b, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, b, e.cfg.Prefix, e.cfg.Indent); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// EncodeTo writes the JSON text of v to w, followed by a newline.
func (e *Encoder) EncodeTo(w io.Writer, v any) error {
	b, err := e.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))

	return err
}

// Encode converts v into a [Value]. See [Encoder.Encode].
func Encode(v any, opts ...Option) (Value, error) {
	return NewEncoder(opts...).Encode(v)
}

// Marshal returns the tagged JSON text of v.
//
// Example:
//
//	data, err := classjson.Marshal(&Knight{Name: "Lancelot", Quest: "grail"})
//	// {"__class__":"Knight","name":"Lancelot","quest":"grail"}
func Marshal(v any, opts ...Option) ([]byte, error) {
	return NewEncoder(opts...).Marshal(v)
}

// encodeState walks one object graph.
type encodeState struct {
	s    *session
	reg  *Registry
	path pathStack
}

func (es *encodeState) fail(t reflect.Type, reason string, err error) error {
	return &EncodeError{Path: es.path.String(), Type: t, Reason: reason, Err: err}
}

func (es *encodeState) encode(rv reflect.Value, depth int) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}
	if depth > es.s.cfg.MaxDepth {
		return Value{}, es.fail(rv.Type(), "", ErrMaxDepthExceeded)
	}

	t := rv.Type()
	switch t {
	case valueType:
		return rv.Interface().(Value), nil
	case numberType:
		return es.primitive(rv)
	}

	switch t.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return es.encode(rv.Elem(), depth)
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
	}

	if isMarshaler(t) {
		return es.primitive(rv)
	}

	switch t.Kind() {
	case reflect.Pointer:
		return es.encode(rv.Elem(), depth+1)
	case reflect.Struct:
		return es.record(rv, depth)
	case reflect.Map:
		return es.object(rv, depth)
	case reflect.Slice:
		if rv.IsNil() {
			return Null(), nil
		}
		if t.Elem().Kind() == reflect.Uint8 && !isMarshaler(t.Elem()) {
			return es.primitive(rv)
		}
		return es.array(rv, depth)
	case reflect.Array:
		return es.array(rv, depth)
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		v, ok := Float(rv.Float(), t.Bits())
		if !ok {
			return Value{}, es.fail(t, "unsupported value "+strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil)
		}
		return v, nil
	default:
		return Value{}, es.fail(t, "unsupported kind "+t.Kind().String(), nil)
	}
}

// record writes a struct as a tagged object.
func (es *encodeState) record(rv reflect.Value, depth int) (Value, error) {
	t := rv.Type()
	info := getTypeInfo(t)
	if info.err != nil {
		return Value{}, es.fail(t, "", info.err)
	}

	name := t.Name()
	if rt, ok := es.reg.LookupType(t); ok {
		name = rt.name
	}

	members := make([]Member, 0, len(info.fields)+1)
	if name != "" {
		members = append(members, Member{Key: ClassKey, Value: String(name)})
	}
	for _, f := range info.fields {
		es.path.pushKey(f.Name)
		fv, err := es.encode(rv.FieldByIndex(f.Index), depth+1)
		es.path.pop()
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: f.Name, Value: fv})
	}

	if name != "" {
		es.s.stats.RecordsEncoded++
		if es.s.cfg.Events.Encoded != nil {
			es.s.cfg.Events.Encoded(name)
		}
	}

	return Object(members...), nil
}

// object writes a map with its keys stringified and sorted.
func (es *encodeState) object(rv reflect.Value, depth int) (Value, error) {
	if rv.IsNil() {
		return Null(), nil
	}

	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := es.mapKey(iter.Key())
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, entry{key: key, val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.key, b.key)
	})

	members := make([]Member, 0, len(entries))
	for _, e := range entries {
		es.path.pushKey(e.key)
		v, err := es.encode(e.val, depth+1)
		es.path.pop()
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: e.key, Value: v})
	}

	return Object(members...), nil
}

func (es *encodeState) mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		if k.Kind() == reflect.Pointer && k.IsNil() {
			return "", nil
		}
		b, err := tm.MarshalText()
		if err != nil {
			return "", es.fail(k.Type(), "map key", err)
		}
		return string(b), nil
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	default:
		return "", es.fail(k.Type(), "unsupported map key type", nil)
	}
}

func (es *encodeState) array(rv reflect.Value, depth int) (Value, error) {
	items := make([]Value, rv.Len())
	for i := range rv.Len() {
		es.path.pushIndex(i)
		v, err := es.encode(rv.Index(i), depth+1)
		es.path.pop()
		if err != nil {
			return Value{}, err
		}
		items[i] = v
	}

	return Array(items...), nil
}

// primitive delegates to encoding/json and re-reads the result as a Value.
func (es *encodeState) primitive(rv reflect.Value) (Value, error) {
	v := rv.Interface()
	t := rv.Type()
	if t.Kind() != reflect.Pointer && !t.Implements(jsonMarshalerType) &&
		!t.Implements(textMarshalerType) && isMarshaler(t) {
		// Pointer-receiver marshalers need an addressable copy.
		ptr := reflect.New(t)
		ptr.Elem().Set(rv)
		v = ptr.Interface()
	}

	b, err := json.Marshal(v)
	if err != nil {
		return Value{}, es.fail(t, "", err)
	}
	out, err := ParseValue(b)
	if err != nil {
		return Value{}, es.fail(t, "", err)
	}

	return out, nil
}

// isMarshaler reports whether t or *t serializes itself.
func isMarshaler(t reflect.Type) bool {
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return true
	}
	if t.Kind() != reflect.Pointer {
		pt := reflect.PointerTo(t)
		return pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType)
	}

	return false
}
