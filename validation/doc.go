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

// Package validation checks decoded records with go-playground/validator
// struct tags.
//
// A [Validator] plugs into the decoder through classjson.WithValidator; every
// record is validated right after construction, and a failure aborts the
// decode with a classjson.ConstructionError wrapping an [*Error]:
//
//	type Knight struct {
//	    Name  string `json:"name" validate:"required"`
//	    Quest string `json:"quest" validate:"oneof=grail shrubbery"`
//	}
//
//	dec := classjson.NewDecoder(reg, classjson.WithValidator(validation.MustNew()))
//	_, err := dec.Decode(data)
//
//	var verr *validation.Error
//	if errors.As(err, &verr) {
//	    for _, fe := range verr.Fields {
//	        fmt.Println(fe.Path, fe.Code) // quest tag.oneof
//	    }
//	}
package validation
