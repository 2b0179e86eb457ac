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
	"strings"

	rerrors "rivaas.dev/errors"
)

// Static errors for codec operations.
var (
	ErrMaxDepthExceeded = errors.New("exceeded maximum nesting depth")
	ErrOutMustBePointer = errors.New("out must be a non-nil pointer")
	ErrNilValue         = errors.New("nil record value")
)

// Compile-time checks against the rivaas.dev/errors formatter interfaces.
var (
	_ rerrors.ErrorType    = (*MissingFieldError)(nil)
	_ rerrors.ErrorCode    = (*MissingFieldError)(nil)
	_ rerrors.ErrorDetails = (*ExtraneousFieldError)(nil)
	_ rerrors.ErrorType    = (*ConstructionError)(nil)
	_ rerrors.ErrorCode    = (*EncodeError)(nil)
	_ rerrors.ErrorDetails = (*SchemaError)(nil)
)

// pathOrRoot renders an empty path as the document root.
func pathOrRoot(path string) string {
	if path == "" {
		return "$"
	}

	return path
}

// DuplicateNameError is returned by [NewRegistry] when two record types
// resolve to the same class name.
type DuplicateNameError struct {
	Name  string       // The colliding class name
	First reflect.Type // Type registered first
	Other reflect.Type // Type that collided
}

// Error returns a formatted error message.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate class name %q: %s and %s", e.Name, e.First, e.Other)
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *DuplicateNameError) HTTPStatus() int {
	return 500
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *DuplicateNameError) Code() string {
	return "duplicate_class_name"
}

// NotARecordTypeError is returned when a registry input carries no field
// metadata, i.e. it is not a struct or pointer to struct.
type NotARecordTypeError struct {
	Type reflect.Type // nil when the input itself was nil
}

// Error returns a formatted error message.
func (e *NotARecordTypeError) Error() string {
	if e.Type == nil {
		return "<nil> is not a record type"
	}

	return fmt.Sprintf("%s is not a record type (want struct, got %s)", e.Type, e.Type.Kind())
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *NotARecordTypeError) HTTPStatus() int {
	return 500
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *NotARecordTypeError) Code() string {
	return "not_a_record_type"
}

// ReservedFieldError is returned when a record type declares a field whose
// JSON name collides with the class tag key.
type ReservedFieldError struct {
	Type  reflect.Type
	Field string // Go field name
}

// Error returns a formatted error message.
func (e *ReservedFieldError) Error() string {
	return fmt.Sprintf("field %s.%s uses reserved key %q", e.Type, e.Field, ClassKey)
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *ReservedFieldError) HTTPStatus() int {
	return 500
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *ReservedFieldError) Code() string {
	return "reserved_field"
}

// DuplicateFieldError is returned when two participating fields of one
// record type share a JSON name.
type DuplicateFieldError struct {
	Type reflect.Type
	Name string
}

// Error returns a formatted error message.
func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field name %q in %s", e.Name, e.Type)
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *DuplicateFieldError) HTTPStatus() int {
	return 500
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *DuplicateFieldError) Code() string {
	return "duplicate_field"
}

// TagTypeError is returned when the class tag of an object is not a string.
type TagTypeError struct {
	Path  string // JSON path of the offending object
	Found string // JSON kind that was found instead
}

// Error returns a formatted error message.
func (e *TagTypeError) Error() string {
	return fmt.Sprintf("%s: invalid type for class name (%s): expected string, found %s",
		pathOrRoot(e.Path), ClassKey, e.Found)
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *TagTypeError) HTTPStatus() int {
	return 400
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *TagTypeError) Code() string {
	return "invalid_class_tag"
}

// UnregisteredTypeError is returned when an object's class tag names a type
// the registry does not know.
type UnregisteredTypeError struct {
	Path string
	Name string
}

// Error returns a formatted error message.
func (e *UnregisteredTypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("class %q not registered for deserialization", e.Name)
	}

	return fmt.Sprintf("%s: class %q not registered for deserialization", e.Path, e.Name)
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *UnregisteredTypeError) HTTPStatus() int {
	return 400
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *UnregisteredTypeError) Code() string {
	return "unregistered_class"
}

// MissingFieldError is returned when a tagged object lacks a key for one of
// its type's participating fields.
//
// Use [errors.As] to inspect it:
//
//	var missing *classjson.MissingFieldError
//	if errors.As(err, &missing) {
//	    fmt.Println(missing.Class, missing.Field)
//	}
type MissingFieldError struct {
	Path  string
	Class string
	Field string
}

// Error returns a formatted error message.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: field %q not specified for class %s", pathOrRoot(e.Path), e.Field, e.Class)
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *MissingFieldError) HTTPStatus() int {
	return 400
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *MissingFieldError) Code() string {
	return "missing_field"
}

// ExtraneousFieldError is returned when a tagged object carries keys that are
// not participating fields of its type. Fields lists every leftover key in
// sorted order.
type ExtraneousFieldError struct {
	Path   string
	Class  string
	Fields []string
}

// Error returns a formatted error message.
func (e *ExtraneousFieldError) Error() string {
	return fmt.Sprintf("%s: extraneous values specified for class %s: %s",
		pathOrRoot(e.Path), e.Class, strings.Join(e.Fields, " "))
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *ExtraneousFieldError) HTTPStatus() int {
	return 400
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *ExtraneousFieldError) Code() string {
	return "extraneous_fields"
}

// Details implements rivaas.dev/errors.ErrorDetails.
func (e *ExtraneousFieldError) Details() any {
	return e.Fields
}

// ConstructionError is returned when a record could not be constructed from
// its extracted field values. The cause is preserved and reachable
// through [errors.Unwrap], [errors.Is] and [errors.As].
type ConstructionError struct {
	Path  string
	Class string
	Err   error
}

// Error returns a formatted error message.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: instantiation of class %s failed: %v", pathOrRoot(e.Path), e.Class, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *ConstructionError) HTTPStatus() int {
	return 422
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *ConstructionError) Code() string {
	return "construction_failed"
}

// ResolverError is returned when a delegate resolver fails.
type ResolverError struct {
	Path string
	Err  error
}

// Error returns a formatted error message.
func (e *ResolverError) Error() string {
	return fmt.Sprintf("%s: resolver failed: %v", pathOrRoot(e.Path), e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolverError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *ResolverError) HTTPStatus() int {
	return 400
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *ResolverError) Code() string {
	return "resolver_failed"
}

// FieldTypeError reports a decoded value that cannot be stored in a field of
// the given Go type. It is usually wrapped by [ConstructionError].
type FieldTypeError struct {
	Field string       // JSON field name, or element path below it
	Type  reflect.Type // Target Go type
	Found string       // Description of the decoded value
	Err   error        // Optional underlying conversion error
}

// Error returns a formatted error message.
func (e *FieldTypeError) Error() string {
	msg := fmt.Sprintf("field %q: cannot use %s as %s", e.Field, e.Found, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *FieldTypeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when a value is neither a record instance, a
// supported container, nor a JSON primitive.
type EncodeError struct {
	Path   string
	Type   reflect.Type
	Reason string
	Err    error
}

// Error returns a formatted error message.
func (e *EncodeError) Error() string {
	typeName := "<nil>"
	if e.Type != nil {
		typeName = e.Type.String()
	}
	msg := fmt.Sprintf("%s: cannot encode %s", pathOrRoot(e.Path), typeName)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *EncodeError) HTTPStatus() int {
	return 500
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *EncodeError) Code() string {
	return "encode_failed"
}

// SyntaxError wraps a malformed-JSON error from the tokenizer.
type SyntaxError struct {
	Offset int64 // Input offset at which the error was detected
	Err    error
}

// Error returns a formatted error message.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *SyntaxError) HTTPStatus() int {
	return 400
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *SyntaxError) Code() string {
	return "invalid_json"
}

// SchemaError is returned when [WithSchemaValidation] is enabled and the
// input does not conform to the registry's JSON Schema.
type SchemaError struct {
	Violations []string // Flattened "location: message" entries
	Err        error
}

// Error returns a formatted error message.
func (e *SchemaError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("schema validation failed: %v", e.Err)
	}

	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *SchemaError) HTTPStatus() int {
	return 422
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *SchemaError) Code() string {
	return "schema_violation"
}

// Details implements rivaas.dev/errors.ErrorDetails.
func (e *SchemaError) Details() any {
	return e.Violations
}
