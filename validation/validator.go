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

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/classjson"
)

var _ classjson.Validator = (*Validator)(nil)

// Validator checks decoded records against their `validate` struct tags.
// It is safe for concurrent use.
type Validator struct {
	tags      *validator.Validate
	maxErrors int
}

// Option configures a [Validator].
type Option func(*options)

type options struct {
	maxErrors  int
	customTags []customTag
}

type customTag struct {
	name string
	fn   validator.Func
}

// WithMaxErrors caps the number of field errors reported per record.
// Zero means unlimited.
func WithMaxErrors(n int) Option {
	return func(o *options) {
		o.maxErrors = n
	}
}

// WithCustomTag registers a custom validation tag.
//
// Example:
//
//	validation.New(validation.WithCustomTag("knightly", func(fl validator.FieldLevel) bool {
//	    return strings.HasPrefix(fl.Field().String(), "Sir ")
//	}))
func WithCustomTag(name string, fn validator.Func) Option {
	return func(o *options) {
		o.customTags = append(o.customTags, customTag{name: name, fn: fn})
	}
}

// New returns a Validator. Field paths in errors use json tag names.
func New(opts ...Option) (*Validator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tags := validator.New(validator.WithRequiredStructEnabled())
	tags.RegisterTagNameFunc(jsonFieldName)
	for _, ct := range o.customTags {
		if err := tags.RegisterValidation(ct.name, ct.fn); err != nil {
			return nil, fmt.Errorf("register custom tag %q: %w", ct.name, err)
		}
	}

	return &Validator{tags: tags, maxErrors: o.maxErrors}, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.MustNew: %v", err))
	}

	return v
}

// Validate implements classjson.Validator. Values that are not structs or
// pointers to structs pass unchecked.
func (v *Validator) Validate(val any) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := v.tags.Struct(val)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Fields: []FieldError{{Code: "tag_error", Message: err.Error()}}}
	}

	result := &Error{}
	for _, e := range verrs {
		if v.maxErrors > 0 && len(result.Fields) >= v.maxErrors {
			result.Truncated = true
			break
		}
		result.Fields = append(result.Fields, FieldError{
			Path:    fieldPath(e.Namespace()),
			Code:    "tag." + e.Tag(),
			Message: tagMessage(e),
		})
	}
	result.sort()

	return result
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	_, path, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}

	return path
}

func jsonFieldName(fld reflect.StructField) string {
	name := fld.Tag.Get("json")
	if name == "-" {
		return "-"
	}
	name, _, _ = strings.Cut(name, ",")
	if name == "" {
		return fld.Name
	}

	return name
}

func tagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}
