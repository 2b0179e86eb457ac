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

//go:build !integration

package classjson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssertRoundTrip(t *testing.T) {
	t.Parallel()

	reg := MustRegistry(Drawing{}, Circle{}, Square{}, Point{}, Event{}, Node{}, Big{},
		MustTypeOf[Knight](WithName("Sir")))

	data := AssertRoundTrip(t, reg, sampleDrawing())
	assert.Equal(t, sampleDrawingJSON, string(data))

	AssertRoundTrip(t, reg, &Knight{Name: "Bedivere"})
	AssertRoundTrip(t, reg, &Event{Name: "launch", At: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
	AssertRoundTrip(t, reg, &Node{Value: 1, Next: &Node{Value: 2}})
	AssertRoundTrip(t, reg, &Big{N: 1 << 60}, WithUseNumber(true))
	AssertRoundTrip(t, reg, map[string]any{"list": []any{"a", true, nil}})
}

func TestMustEncodeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"__class__":"Point","x":1,"y":2}`, MustEncodeString(t, Point{X: 1, Y: 2}))
	assert.Equal(t, "[\n  1\n]", MustEncodeString(t, []int{1}, WithIndent("", "  ")))
}
