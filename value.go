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
	"encoding/json"
	"math"
	"strconv"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON value: null, bool, number, string, array or object.
// Objects keep their members in insertion order, which is what makes the
// encoder's output deterministic per record type.
//
// The zero Value is null.
type Value struct {
	kind    Kind
	boolVal bool
	text    string // number literal or string contents
	items   []Value
	members []Member
}

// Member is a single key/value pair of an object [Value].
type Member struct {
	Key   string
	Value Value
}

// Null returns the JSON null value.
func Null() Value {
	return Value{}
}

// Bool returns a JSON boolean.
func Bool(b bool) Value {
	return Value{kind: KindBool, boolVal: b}
}

// Number returns a JSON number from its literal text.
// The literal is not validated; use [Int], [Uint] or [Float] to build
// numbers from Go values.
func Number(n json.Number) Value {
	return Value{kind: KindNumber, text: string(n)}
}

// Int returns a JSON number holding i.
func Int(i int64) Value {
	return Value{kind: KindNumber, text: strconv.FormatInt(i, 10)}
}

// Uint returns a JSON number holding u.
func Uint(u uint64) Value {
	return Value{kind: KindNumber, text: strconv.FormatUint(u, 10)}
}

// Float returns a JSON number holding f, formatted the way encoding/json
// formats floats of the given bit size (32 or 64).
// It reports false for NaN and infinities, which JSON cannot represent.
func Float(f float64, bits int) (Value, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, false
	}

	return Value{kind: KindNumber, text: formatFloat(f, bits)}, true
}

// String returns a JSON string.
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Array returns a JSON array of the given items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{kind: KindArray, items: items}
}

// Object returns a JSON object with members in the given order.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}

	return Value{kind: KindObject, members: members}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Boolean returns the boolean held by v.
func (v Value) Boolean() (bool, bool) {
	return v.boolVal, v.kind == KindBool
}

// Text returns the literal of a number or the contents of a string.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindNumber || v.kind == KindString
}

// Items returns the elements of an array, or nil.
func (v Value) Items() []Value {
	return v.items
}

// Members returns the members of an object in order, or nil.
func (v Value) Members() []Member {
	return v.members
}

// Len returns the number of elements or members; zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	default:
		return 0
	}
}

// Get returns the member value for key. Lookup is linear, objects produced by
// the encoder are small.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}

	return Value{}, false
}

// Class returns the class tag of a tagged object.
func (v Value) Class() (string, bool) {
	if v.kind != KindObject || len(v.members) == 0 {
		return "", false
	}
	first := v.members[0]
	if first.Key != ClassKey || first.Value.kind != KindString {
		return "", false
	}

	return first.Value.text, true
}

// Interface converts v into the shapes produced by encoding/json when
// unmarshaling into an empty interface, except that numbers stay
// [json.Number] to keep their literal.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolVal
	case KindNumber:
		return json.Number(v.text)
	case KindString:
		return v.text
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements [json.Marshaler].
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil), nil
}

// UnmarshalJSON implements [json.Unmarshaler] using [ParseValue], so record
// fields of type Value receive the raw JSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	pv, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = pv

	return nil
}

// AppendJSON appends the compact JSON encoding of v to dst.
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(dst, v.boolVal)
	case KindNumber:
		return append(dst, v.text...)
	case KindString:
		return appendString(dst, v.text)
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = item.AppendJSON(dst)
		}
		return append(dst, ']')
	case KindObject:
		dst = append(dst, '{')
		for i, m := range v.members {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendString(dst, m.Key)
			dst = append(dst, ':')
			dst = m.Value.AppendJSON(dst)
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

// appendString appends s as a quoted JSON string.
func appendString(dst []byte, s string) []byte {
	// Marshaling a string cannot fail.
	b, _ := json.Marshal(s)
	return append(dst, b...)
}

// formatFloat formats f like encoding/json: plain notation for moderate
// magnitudes, exponent notation with a trimmed exponent otherwise.
func formatFloat(f float64, bits int) string {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	b := strconv.AppendFloat(nil, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}

	return string(b)
}
