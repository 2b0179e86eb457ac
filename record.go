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
	"errors"
	"fmt"
	"reflect"
)

// ErrAnonymousType is returned for unnamed struct types registered without
// [WithName].
var ErrAnonymousType = errors.New("anonymous struct type requires WithName")

// Initializer is implemented by record types that finish construction
// themselves, typically computing derived fields or checking that
// construction-only requirements are met. Init runs on the freshly populated
// *T; a non-nil error fails the decode with a [ConstructionError].
type Initializer interface {
	Init() error
}

// Constructor builds a record instance from the field values extracted from
// a tagged object. It must return a T or *T for the record type T it is
// attached to.
type Constructor func(args Args) (any, error)

// Args exposes the extracted field values of one tagged object to a
// [Constructor], in introspector order.
type Args struct {
	fields []Field
	values []any
	cfg    *Options
}

// Len returns the number of participating fields.
func (a Args) Len() int {
	return len(a.fields)
}

// Field returns the i-th participating field.
func (a Args) Field(i int) Field {
	return a.fields[i]
}

// Value returns the decoded value for the field named name, shaped as
// [Decoder.Decode] returns it. Use [Args.Decode] for exact numbers.
func (a Args) Value(name string) (any, bool) {
	v, ok := a.raw(name)
	if !ok {
		return nil, false
	}

	return untyped(v, a.cfg), true
}

func (a Args) raw(name string) (any, bool) {
	for i, f := range a.fields {
		if f.Name == name {
			return a.values[i], true
		}
	}

	return nil, false
}

// Decode converts the value of the field named name into out, which must be
// a non-nil pointer.
func (a Args) Decode(name string, out any) error {
	v, ok := a.raw(name)
	if !ok {
		return fmt.Errorf("no field %q", name)
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrOutMustBePointer
	}

	return convertValue(rv.Elem(), v, name, a.cfg)
}

// RecordType pairs a struct type with its class name, its participating
// fields and its constructor. A RecordType is immutable.
type RecordType struct {
	name      string
	typ       reflect.Type
	info      *typeInfo
	construct Constructor
}

// TypeOption configures a [RecordType].
type TypeOption func(*typeOptions)

type typeOptions struct {
	name      string
	construct Constructor
}

// WithName overrides the class name, which defaults to the Go type name.
// It is the way to register two types that share a Go name.
func WithName(name string) TypeOption {
	return func(o *typeOptions) {
		o.name = name
	}
}

// WithConstructor replaces reflective construction. Use it for types that
// need construction-only inputs which never appear in JSON.
//
// Example:
//
//	classjson.TypeOf[Session](classjson.WithConstructor(func(a classjson.Args) (any, error) {
//	    var id string
//	    if err := a.Decode("id", &id); err != nil {
//	        return nil, err
//	    }
//	    return NewSession(id, signingKey)
//	}))
func WithConstructor(c Constructor) TypeOption {
	return func(o *typeOptions) {
		o.construct = c
	}
}

// TypeOf returns the record type for struct type T.
func TypeOf[T any](opts ...TypeOption) (*RecordType, error) {
	return newRecordType(reflect.TypeFor[T](), opts)
}

// MustTypeOf is like [TypeOf] but panics on error.
func MustTypeOf[T any](opts ...TypeOption) *RecordType {
	rt, err := TypeOf[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("classjson: MustTypeOf: %v", err))
	}

	return rt
}

// TypeFor returns the record type of sample, which may be a struct value, a
// pointer to one, or a [reflect.Type] of either.
func TypeFor(sample any, opts ...TypeOption) (*RecordType, error) {
	if t, ok := sample.(reflect.Type); ok {
		return newRecordType(t, opts)
	}

	return newRecordType(reflect.TypeOf(sample), opts)
}

func newRecordType(typ reflect.Type, opts []TypeOption) (*RecordType, error) {
	if typ == nil {
		return nil, &NotARecordTypeError{}
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, &NotARecordTypeError{Type: typ}
	}

	o := &typeOptions{name: typ.Name()}
	for _, opt := range opts {
		opt(o)
	}
	if o.name == "" {
		return nil, fmt.Errorf("%s: %w", typ, ErrAnonymousType)
	}

	info := getTypeInfo(typ)
	if info.err != nil {
		return nil, info.err
	}

	return &RecordType{
		name:      o.name,
		typ:       typ,
		info:      info,
		construct: o.construct,
	}, nil
}

// Name returns the class name written to and matched against the tag.
func (rt *RecordType) Name() string {
	return rt.name
}

// Type returns the struct type (never a pointer type).
func (rt *RecordType) Type() reflect.Type {
	return rt.typ
}

// Fields returns the participating fields in declaration order. The
// returned slice must not be modified.
func (rt *RecordType) Fields() []Field {
	return rt.info.fields
}

// AllFields returns every exported field, participating or not.
func (rt *RecordType) AllFields() []Field {
	return rt.info.all
}

// Fields returns the participating fields of the struct type of sample in
// declaration order, the same list the encoder writes and the decoder
// requires.
func Fields(sample any) ([]Field, error) {
	rt, err := TypeFor(sample)
	if err != nil {
		return nil, err
	}

	return rt.Fields(), nil
}

// newInstance constructs a *T from ordered field values. Any failure,
// including a panic inside a user constructor, is returned as the cause for
// a ConstructionError.
func (rt *RecordType) newInstance(values []any, cfg *Options) (inst any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during construction: %v", r)
		}
	}()

	if rt.construct != nil {
		return rt.callConstructor(values, cfg)
	}

	ptr := reflect.New(rt.typ)
	elem := ptr.Elem()
	for i, f := range rt.info.fields {
		if err := convertValue(elem.FieldByIndex(f.Index), values[i], f.Name, cfg); err != nil {
			return nil, err
		}
	}
	if in, ok := ptr.Interface().(Initializer); ok {
		if err := in.Init(); err != nil {
			return nil, err
		}
	}

	return ptr.Interface(), nil
}

func (rt *RecordType) callConstructor(values []any, cfg *Options) (any, error) {
	res, err := rt.construct(Args{fields: rt.info.fields, values: values, cfg: cfg})
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(res)
	switch {
	case !rv.IsValid():
		return nil, ErrNilValue
	case rv.Type() == reflect.PointerTo(rt.typ):
		if rv.IsNil() {
			return nil, ErrNilValue
		}
		return res, nil
	case rv.Type() == rt.typ:
		ptr := reflect.New(rt.typ)
		ptr.Elem().Set(rv)
		return ptr.Interface(), nil
	default:
		return nil, fmt.Errorf("constructor returned %s, want *%s", rv.Type(), rt.typ)
	}
}
