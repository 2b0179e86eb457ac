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
	"errors"
	"math"
	"time"
)

// Test fixtures shared by the package tests.

type Shape interface {
	Area() float64
}

type Circle struct {
	Radius float64 `json:"radius"`
}

func (c *Circle) Area() float64 {
	return math.Pi * c.Radius * c.Radius
}

type Square struct {
	Side float64 `json:"side"`
}

func (s *Square) Area() float64 {
	return s.Side * s.Side
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Drawing struct {
	Title  string            `json:"title"`
	Shapes []Shape           `json:"shapes"`
	Origin *Point            `json:"origin"`
	Tags   map[string]string `json:"tags"`
}

var errNegativeSize = errors.New("negative size")

// Rect computes Area after construction.
type Rect struct {
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Area float64 `json:"area" classjson:"derived"`
}

func (r *Rect) Init() error {
	if r.W < 0 || r.H < 0 {
		return errNegativeSize
	}
	r.Area = r.W * r.H

	return nil
}

type Knight struct {
	Name  string `json:"name"`
	Quest string `json:"quest"`
}

type Base struct {
	ID string `json:"id"`
}

type User struct {
	Base
	Name string `json:"name"`
}

type Node struct {
	Value int   `json:"value"`
	Next  *Node `json:"next"`
}

type Event struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

type Envelope struct {
	Payload Value `json:"payload"`
}

type Big struct {
	N int64 `json:"n"`
}

// Counter mixes exact integer fields with an untyped one.
type Counter struct {
	Hits  int64   `json:"hits"`
	Total uint64  `json:"total"`
	Extra any     `json:"extra"`
	Marks []any   `json:"marks"`
	Ratio float64 `json:"ratio"`
}

func shapesRegistry() *Registry {
	return MustRegistry(Drawing{}, Circle{}, Square{}, Point{}, Rect{})
}

func sampleDrawing() *Drawing {
	return &Drawing{
		Title:  "sketch",
		Shapes: []Shape{&Circle{Radius: 1.5}, &Square{Side: 2}},
		Origin: &Point{X: 1, Y: 2},
		Tags:   map[string]string{"author": "ada"},
	}
}

const sampleDrawingJSON = `{"__class__":"Drawing","title":"sketch",` +
	`"shapes":[{"__class__":"Circle","radius":1.5},{"__class__":"Square","side":2}],` +
	`"origin":{"__class__":"Point","x":1,"y":2},"tags":{"author":"ada"}}`
