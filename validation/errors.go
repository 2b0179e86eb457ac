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
	"slices"
	"strings"
)

// ErrValidation is a sentinel error for validation failures.
// Use errors.Is(err, ErrValidation) to check if an error is a validation error.
var ErrValidation = errors.New("validation")

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Path    string `json:"path"`    // Field path below the record (e.g., "crew[2].name")
	Code    string `json:"code"`    // Stable code (e.g., "tag.required")
	Message string `json:"message"` // Human-readable message
}

// Error returns a formatted error message as "path: message" or just
// "message" if path is empty.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns [ErrValidation] for errors.Is compatibility.
func (e FieldError) Unwrap() error {
	return ErrValidation
}

// Error collects the field errors of one record.
//
// Example:
//
//	var verr *validation.Error
//	if errors.As(err, &verr) {
//	    for _, fe := range verr.Fields {
//	        fmt.Printf("%s: %s\n", fe.Path, fe.Message)
//	    }
//	}
type Error struct {
	Fields    []FieldError `json:"errors"`
	Truncated bool         `json:"truncated,omitempty"` // More errors than WithMaxErrors allowed
}

// Error returns a formatted error message.
func (v *Error) Error() string {
	suffix := ""
	if v.Truncated {
		suffix = " (truncated)"
	}

	switch len(v.Fields) {
	case 0:
		return ""
	case 1:
		return v.Fields[0].Error() + suffix
	}

	msgs := make([]string, 0, len(v.Fields))
	for _, fe := range v.Fields {
		msgs = append(msgs, fe.Error())
	}

	return fmt.Sprintf("validation failed: %s%s", strings.Join(msgs, "; "), suffix)
}

// Unwrap returns [ErrValidation].
func (v *Error) Unwrap() error {
	return ErrValidation
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (v *Error) HTTPStatus() int {
	return 422
}

// Code implements rivaas.dev/errors.ErrorCode.
func (v *Error) Code() string {
	return "validation_failed"
}

// Details implements rivaas.dev/errors.ErrorDetails.
func (v *Error) Details() any {
	return v.Fields
}

// Has reports whether a field error exists for path.
func (v *Error) Has(path string) bool {
	return slices.ContainsFunc(v.Fields, func(fe FieldError) bool {
		return fe.Path == path
	})
}

// sort orders the errors by path, then code.
func (v *Error) sort() {
	slices.SortStableFunc(v.Fields, func(a, b FieldError) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	})
}
