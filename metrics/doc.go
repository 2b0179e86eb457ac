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

// Package metrics records classjson activity as OpenTelemetry metrics.
//
// A [Recorder] provides [classjson.Events] hooks that count decoded, encoded
// and delegated objects per class, count failed calls, and time every call:
//
//	recorder := metrics.MustNew()
//	defer recorder.Shutdown(context.Background())
//
//	dec := classjson.NewDecoder(reg,
//	    classjson.WithEvents(recorder.Events(classjson.Events{})),
//	)
//
// By default the Recorder exports to a private Prometheus registry, which an
// HTTP server can expose with promhttp.HandlerFor(recorder.PrometheusRegistry(), ...).
// Use [WithMeterProvider] to record into an existing provider instead.
package metrics
