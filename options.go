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
	"log/slog"
	"time"
)

// DefaultMaxDepth is the default maximum nesting depth of arrays, objects and
// records. It bounds recursion on hostile input and on cyclic pointers
// during encode.
const DefaultMaxDepth = 1000

// ResolverFunc is a delegate hook run on every parsed JSON object before
// registry resolution. Returning replaced=true makes v the decoded value of
// the object as-is; the object's class tag is then ignored. Returning
// replaced=false passes the object on to the next resolver.
//
// The object's values are already decoded; nested records are constructed.
type ResolverFunc func(obj map[string]any) (v any, replaced bool, err error)

// Validator validates a constructed record. A non-nil error fails the decode
// with a [ConstructionError] wrapping it.
type Validator interface {
	Validate(v any) error
}

// ValidatorFunc adapts a function to [Validator].
type ValidatorFunc func(v any) error

// Validate calls f(v).
func (f ValidatorFunc) Validate(v any) error {
	return f(v)
}

// Events provides hooks for observability without coupling.
type Events struct {
	// Resolved is called after a tagged object was turned into a record.
	// path is the JSON path of the object.
	Resolved func(class, path string)

	// Delegated is called when a resolver replaced an object.
	Delegated func(path string)

	// Encoded is called after a record was encoded as a tagged object.
	Encoded func(class string)

	// Done is called at the end of every Encode or Decode call, even on error.
	Done func(stats Stats)
}

// Stats tracks the work done by one Encode or Decode call.
type Stats struct {
	ObjectsParsed     int           // JSON objects seen by the parser
	RecordsDecoded    int           // Records constructed
	RecordsEncoded    int           // Records written as tagged objects
	Delegated         int           // Objects replaced by a resolver
	ErrorsEncountered int           // Zero or one; calls stop at the first error
	Duration          time.Duration // Wall time of the call
}

// Options configures encoding and decoding.
//
// Options are applied once, when an [Encoder] or [Decoder] is created, and are
// read-only afterwards.
type Options struct {
	MaxDepth  int            // Max nesting depth of containers and records
	UseNumber bool           // Keep json.Number where values land untyped
	Resolvers []ResolverFunc // Delegate hooks, tried in order
	Validator Validator      // Validates each constructed record
	Logger    *slog.Logger   // Debug logging of resolutions
	Events    Events         // Observability hooks

	// Encoder only
	Registry *Registry // Source of registered class names
	Prefix   string    // Indentation prefix for Marshal
	Indent   string    // Indentation step for Marshal

	// Decoder only
	SchemaValidation bool // Validate input against Registry.JSONSchema first
}

// Option configures encoding and decoding.
type Option func(*Options)

// WithMaxDepth sets the maximum nesting depth.
// When exceeded, the call fails with ErrMaxDepthExceeded.
// The default is DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

// WithUseNumber keeps json.Number instead of float64 wherever a number lands
// untyped: the decode result, any fields and resolver views. Typed fields
// always receive the exact literal.
func WithUseNumber(enabled bool) Option {
	return func(o *Options) {
		o.UseNumber = enabled
	}
}

// WithResolvers appends delegate hooks. They run before registry resolution
// and the first one that replaces an object wins.
//
// Example:
//
//	// Decode {"$date": "..."} objects as time.Time
//	dates := func(obj map[string]any) (any, bool, error) {
//	    s, ok := obj["$date"].(string)
//	    if !ok || len(obj) != 1 {
//	        return nil, false, nil
//	    }
//	    t, err := time.Parse(time.RFC3339, s)
//	    return t, err == nil, err
//	}
//	dec := classjson.NewDecoder(reg, classjson.WithResolvers(dates))
func WithResolvers(fns ...ResolverFunc) Option {
	return func(o *Options) {
		o.Resolvers = append(o.Resolvers, fns...)
	}
}

// WithValidator validates every constructed record.
func WithValidator(v Validator) Option {
	return func(o *Options) {
		o.Validator = v
	}
}

// WithLogger sets the logger used for debug records. By default nothing is
// logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithEvents sets observability hooks.
//
// Example:
//
//	WithEvents(Events{
//		Resolved: func(class, path string) {
//			log.Printf("decoded %s at %s", class, path)
//		},
//		Done: func(stats Stats) {
//			log.Printf("%d records", stats.RecordsDecoded)
//		},
//	})
func WithEvents(events Events) Option {
	return func(o *Options) {
		o.Events = events
	}
}

// WithRegistry makes the encoder write registered class names, so that types
// registered under [WithName] round-trip.
func WithRegistry(reg *Registry) Option {
	return func(o *Options) {
		o.Registry = reg
	}
}

// WithIndent makes Marshal produce indented output, as json.MarshalIndent.
func WithIndent(prefix, indent string) Option {
	return func(o *Options) {
		o.Prefix = prefix
		o.Indent = indent
	}
}

// WithSchemaValidation validates the raw input against the registry's JSON
// Schema before decoding. Violations fail with a [SchemaError].
func WithSchemaValidation() Option {
	return func(o *Options) {
		o.SchemaValidation = true
	}
}

// defaultOptions returns default options.
func defaultOptions() *Options {
	return &Options{
		MaxDepth: DefaultMaxDepth,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// applyOptions applies options to default options.
func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}

	return o
}

// session carries the per-call state of one Encode or Decode.
type session struct {
	cfg   *Options
	stats Stats
	start time.Time
}

func newSession(cfg *Options) *session {
	return &session{cfg: cfg, start: time.Now()}
}

// finish records the outcome and emits the Done event.
func (s *session) finish(err error) {
	if err != nil {
		s.stats.ErrorsEncountered++
	}
	s.stats.Duration = time.Since(s.start)
	if s.cfg.Events.Done != nil {
		s.cfg.Events.Done(s.stats)
	}
}
