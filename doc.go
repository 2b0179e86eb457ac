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

// Package classjson encodes Go structs as JSON objects tagged with their
// class name and decodes such objects back into the right concrete type.
//
// The tag is the reserved "__class__" key, written first:
//
//	{"__class__":"Circle","radius":2}
//
// This makes heterogeneous collections, such as a []Shape holding *Circle
// and *Square, survive a trip through JSON without a separate schema.
//
// # Quick Start
//
//	type Circle struct {
//	    Radius float64 `json:"radius"`
//	}
//
//	data, err := classjson.Marshal(&Circle{Radius: 2})
//
//	reg := classjson.MustRegistry(Circle{}, Square{})
//	v, err := classjson.Unmarshal(data, reg)      // *Circle, as any
//	c, err := classjson.Decode[*Circle](data, reg) // typed
//
// # Fields
//
// A record's fields are its exported struct fields in declaration order.
// The JSON key comes from the json tag, or the Go field name. Fields tagged
// json:"-" or classjson:"derived" do not participate: they are neither
// written nor expected, and are typically computed by [Initializer]:
//
//	type Rect struct {
//	    W    float64 `json:"w"`
//	    H    float64 `json:"h"`
//	    Area float64 `json:"area" classjson:"derived"`
//	}
//
//	func (r *Rect) Init() error {
//	    r.Area = r.W * r.H
//	    return nil
//	}
//
// # Decoding
//
// Decoding is bottom-up: every JSON object is fully parsed, including any
// records nested in it, before it is resolved itself. Resolution tries the
// delegate resolvers first (see [WithResolvers]), then looks the class tag up
// in the [Registry]. A tagged object must carry exactly the participating
// fields of its type; missing and extraneous keys are errors.
//
// # Configuration
//
//	dec := classjson.NewDecoder(reg,
//	    classjson.WithUseNumber(true),
//	    classjson.WithMaxDepth(64),
//	    classjson.WithValidator(validation.MustNew()),
//	    classjson.WithSchemaValidation(),
//	)
//
// # Error Handling
//
// All errors are typed and carry the JSON path of the failing object:
//
//	_, err := dec.Decode(data)
//	var missing *classjson.MissingFieldError
//	if errors.As(err, &missing) {
//	    fmt.Println(missing.Path, missing.Field) // $.shapes[1] radius
//	}
//
// They implement the rivaas.dev/errors formatter interfaces, so HTTP handlers
// can pass them to any rivaas formatter unchanged.
//
// # Observability
//
// [Events] hooks report resolutions and per-call [Stats]. The metrics
// sub-package turns them into OpenTelemetry counters.
package classjson
