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
	"encoding"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

var (
	float64Type         = reflect.TypeFor[float64]()
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// errNotIntegral is reported for numbers with a fraction stored into
// integer fields.
var errNotIntegral = errors.New("number has a fractional part")

// convertValue stores a decoded value (nil, bool, json.Number, float64,
// string, []any, map[string]any or a record pointer) into dst. field names
// the destination in errors. Numbers keep their literal until they reach a
// typed field.
func convertValue(dst reflect.Value, src any, field string, cfg *Options) error {
	t := dst.Type()

	if src == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			dst.SetZero()
			return nil
		}
		if !implementsUnmarshaler(t) {
			return typeError(field, t, src, nil)
		}
	}

	if src != nil {
		sv := reflect.ValueOf(src)
		if sv.Type().AssignableTo(t) {
			if k := t.Kind(); k == reflect.Interface || k == reflect.Slice || k == reflect.Map {
				if uv := reflect.ValueOf(untyped(src, cfg)); uv.Type().AssignableTo(t) {
					sv = uv
				}
			}
			dst.Set(sv)
			return nil
		}
		// A decoded record *T stored into a T field.
		if sv.Kind() == reflect.Pointer && sv.Type().Elem().AssignableTo(t) && !sv.IsNil() {
			dst.Set(sv.Elem())
			return nil
		}
	}

	if t == valueType || implementsUnmarshaler(t) {
		return unmarshalInto(dst, src, field, cfg)
	}

	switch t.Kind() {
	case reflect.Bool:
		b, ok := src.(bool)
		if !ok {
			return typeError(field, t, src, nil)
		}
		dst.SetBool(b)
		return nil

	case reflect.String:
		s, ok := src.(string)
		if !ok {
			return typeError(field, t, src, nil)
		}
		dst.SetString(s)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src)
		if err != nil {
			return typeError(field, t, src, err)
		}
		if dst.OverflowInt(n) {
			return typeError(field, t, src, fmt.Errorf("%d overflows %s", n, t))
		}
		dst.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toUint64(src)
		if err != nil {
			return typeError(field, t, src, err)
		}
		if dst.OverflowUint(n) {
			return typeError(field, t, src, fmt.Errorf("%d overflows %s", n, t))
		}
		dst.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(src)
		if err != nil {
			return typeError(field, t, src, err)
		}
		if dst.OverflowFloat(f) {
			return typeError(field, t, src, fmt.Errorf("%g overflows %s", f, t))
		}
		dst.SetFloat(f)
		return nil

	case reflect.Pointer:
		ptr := reflect.New(t.Elem())
		if err := convertValue(ptr.Elem(), src, field, cfg); err != nil {
			return err
		}
		dst.Set(ptr)
		return nil

	case reflect.Slice:
		return convertSlice(dst, src, field, cfg)

	case reflect.Array:
		items, ok := src.([]any)
		if !ok {
			return typeError(field, t, src, nil)
		}
		if len(items) != t.Len() {
			return typeError(field, t, src, fmt.Errorf("want %d elements, got %d", t.Len(), len(items)))
		}
		for i, item := range items {
			if err := convertValue(dst.Index(i), item, indexPath(field, i), cfg); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		return convertMap(dst, src, field, cfg)

	case reflect.Struct:
		obj, ok := src.(map[string]any)
		if !ok {
			return typeError(field, t, src, nil)
		}
		return convertStruct(dst, obj, field, cfg)

	default:
		// Interfaces the value does not implement, chans, funcs, complex.
		return typeError(field, t, src, nil)
	}
}

func convertSlice(dst reflect.Value, src any, field string, cfg *Options) error {
	t := dst.Type()

	if s, ok := src.(string); ok && t.Elem().Kind() == reflect.Uint8 {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return typeError(field, t, src, err)
		}
		dst.SetBytes(b)
		return nil
	}

	items, ok := src.([]any)
	if !ok {
		return typeError(field, t, src, nil)
	}
	out := reflect.MakeSlice(t, len(items), len(items))
	for i, item := range items {
		if err := convertValue(out.Index(i), item, indexPath(field, i), cfg); err != nil {
			return err
		}
	}
	dst.Set(out)

	return nil
}

func convertMap(dst reflect.Value, src any, field string, cfg *Options) error {
	t := dst.Type()
	obj, ok := src.(map[string]any)
	if !ok {
		return typeError(field, t, src, nil)
	}

	out := reflect.MakeMapWithSize(t, len(obj))
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		key, err := mapKey(t.Key(), k)
		if err != nil {
			return typeError(keyPath(field, k), t.Key(), k, err)
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := convertValue(elem, obj[k], keyPath(field, k), cfg); err != nil {
			return err
		}
		out.SetMapIndex(key, elem)
	}
	dst.Set(out)

	return nil
}

// mapKey converts an object key into a map key of type kt.
func mapKey(kt reflect.Type, k string) (reflect.Value, error) {
	if reflect.PointerTo(kt).Implements(textUnmarshalerType) {
		key := reflect.New(kt)
		if err := key.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(k)); err != nil {
			return reflect.Value{}, err
		}
		return key.Elem(), nil
	}

	switch kt.Kind() {
	case reflect.String:
		return reflect.ValueOf(k).Convert(kt), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(k, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(kt), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(k, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(kt), nil
	default:
		return reflect.Value{}, fmt.Errorf("unsupported map key type %s", kt)
	}
}

// convertStruct fills a struct that is not a registered record from a plain
// object, matching keys against json tags.
func convertStruct(dst reflect.Value, obj map[string]any, field string, cfg *Options) error {
	ptr := reflect.New(dst.Type())
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     TagJSON,
		ErrorUnused: true,
		Squash:      true,
		Result:      ptr.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			untypedHook(cfg),
		),
	})
	if err != nil {
		return typeError(field, dst.Type(), obj, err)
	}
	if err := dec.Decode(obj); err != nil {
		return typeError(field, dst.Type(), obj, err)
	}
	dst.Set(ptr.Elem())

	return nil
}

// unmarshalInto hands a decoded value to a type that decodes itself. The
// value is re-encoded with class tags intact.
func unmarshalInto(dst reflect.Value, src any, field string, cfg *Options) error {
	t := dst.Type()
	val, err := reencode(src, cfg)
	if err != nil {
		return typeError(field, t, src, err)
	}
	if t == valueType {
		dst.Set(reflect.ValueOf(val))
		return nil
	}

	ptr := reflect.New(t)
	if u, ok := ptr.Interface().(json.Unmarshaler); ok {
		if err := u.UnmarshalJSON(val.AppendJSON(nil)); err != nil {
			return typeError(field, t, src, err)
		}
		dst.Set(ptr.Elem())
		return nil
	}

	s, ok := src.(string)
	if !ok {
		return typeError(field, t, src, nil)
	}
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return typeError(field, t, src, err)
	}
	dst.Set(ptr.Elem())

	return nil
}

// untypedHook applies untyped to values stored into interface fields of
// plain structs.
func untypedHook(cfg *Options) mapstructure.DecodeHookFuncType {
	return func(_, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.Interface {
			return data, nil
		}

		return untyped(data, cfg), nil
	}
}

// untyped prepares a decoded value for a place without a Go type: unless
// UseNumber is set, json.Number becomes float64. Arrays and plain objects are
// copied; records are left as they are.
func untyped(v any, cfg *Options) any {
	if cfg.UseNumber {
		return v
	}

	switch v := v.(type) {
	case json.Number:
		// Range was checked while parsing.
		f, _ := v.Float64()
		return f
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = untyped(item, cfg)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = untyped(item, cfg)
		}
		return out
	default:
		return v
	}
}

// reencode turns a decoded value back into a Value without firing events.
func reencode(src any, cfg *Options) (Value, error) {
	quiet := *cfg
	quiet.Events = Events{}
	es := &encodeState{s: newSession(&quiet), reg: quiet.Registry}

	return es.encode(reflect.ValueOf(src), 0)
}

func implementsUnmarshaler(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	pt := reflect.PointerTo(t)

	return pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType)
}

func toInt64(src any) (int64, error) {
	switch n := src.(type) {
	case json.Number:
		if i, err := cast.ToInt64E(n.String()); err == nil {
			return i, nil
		}
		f, err := cast.ToFloat64E(n.String())
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	default:
		return 0, errNotANumber
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, errNotIntegral
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%g overflows int64", f)
	}

	return int64(f), nil
}

func toUint64(src any) (uint64, error) {
	if n, ok := src.(json.Number); ok {
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, nil
		}
	}
	i, err := toInt64(src)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("%d is negative", i)
	}

	return uint64(i), nil
}

func toFloat64(src any) (float64, error) {
	switch n := src.(type) {
	case json.Number:
		return cast.ToFloat64E(n.String())
	case float64:
		return n, nil
	default:
		return 0, errNotANumber
	}
}

var errNotANumber = errors.New("not a number")

func typeError(field string, t reflect.Type, src any, err error) error {
	return &FieldTypeError{Field: field, Type: t, Found: describe(src), Err: err}
}

// describe names the JSON kind of a decoded value.
func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(v).String()
	}
}

func indexPath(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}

func keyPath(field, key string) string {
	return field + "[" + strconv.Quote(key) + "]"
}
