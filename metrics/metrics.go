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

package metrics

import (
	"context"
	"fmt"
	"log/slog"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/classjson"
)

// Instrument names, as exported to Prometheus.
const (
	RecordsDecoded   = "classjson_records_decoded_total"
	RecordsEncoded   = "classjson_records_encoded_total"
	ObjectsDelegated = "classjson_objects_delegated_total"
	DecodeErrors     = "classjson_errors_total"
	CallDuration     = "classjson_call_duration_seconds"
)

const meterName = "rivaas.dev/classjson"

// Recorder turns classjson [classjson.Events] into OpenTelemetry
// instruments. It is safe for concurrent use.
type Recorder struct {
	meterProvider      metric.MeterProvider
	sdkProvider        *sdkmetric.MeterProvider // set when the Recorder owns the provider
	prometheusRegistry *promclient.Registry
	logger             *slog.Logger

	recordsDecoded   metric.Int64Counter
	recordsEncoded   metric.Int64Counter
	objectsDelegated metric.Int64Counter
	errorCount       metric.Int64Counter
	callDuration     metric.Float64Histogram
}

// Option configures a [Recorder].
type Option func(*Recorder)

// WithMeterProvider records into provider instead of a private Prometheus
// registry. The caller keeps ownership of the provider.
//
// Example:
//
//	reader := sdkmetric.NewManualReader()
//	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
//	recorder := metrics.MustNew(metrics.WithMeterProvider(mp))
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
	}
}

// WithLogger sets the logger for internal debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// New creates a Recorder. Without [WithMeterProvider] it exports to a
// private Prometheus registry, available from [Recorder.PrometheusRegistry].
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}

	if r.meterProvider == nil {
		if err := r.initPrometheusProvider(); err != nil {
			return nil, err
		}
	}
	if err := r.initializeMetrics(r.meterProvider.Meter(meterName)); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("metrics.MustNew: %v", err))
	}

	return r
}

func (r *Recorder) initPrometheusProvider() error {
	// A private registry avoids conflicts with the global one.
	r.prometheusRegistry = promclient.NewRegistry()

	exporter, err := prometheus.New(
		prometheus.WithRegisterer(r.prometheusRegistry),
	)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	r.sdkProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	r.meterProvider = r.sdkProvider
	r.logger.Debug("metrics provider initialized", "provider", "prometheus")

	return nil
}

func (r *Recorder) initializeMetrics(meter metric.Meter) error {
	var err error

	r.recordsDecoded, err = meter.Int64Counter(RecordsDecoded,
		metric.WithDescription("Records constructed from tagged objects"))
	if err != nil {
		return fmt.Errorf("failed to create records decoded counter: %w", err)
	}

	r.recordsEncoded, err = meter.Int64Counter(RecordsEncoded,
		metric.WithDescription("Records written as tagged objects"))
	if err != nil {
		return fmt.Errorf("failed to create records encoded counter: %w", err)
	}

	r.objectsDelegated, err = meter.Int64Counter(ObjectsDelegated,
		metric.WithDescription("Objects replaced by a delegate resolver"))
	if err != nil {
		return fmt.Errorf("failed to create objects delegated counter: %w", err)
	}

	r.errorCount, err = meter.Int64Counter(DecodeErrors,
		metric.WithDescription("Encode and decode calls that failed"))
	if err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	r.callDuration, err = meter.Float64Histogram(CallDuration,
		metric.WithDescription("Duration of encode and decode calls in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("failed to create call duration histogram: %w", err)
	}

	return nil
}

// Events returns hooks for classjson.WithEvents. Hooks already set in base
// run before the recorder's own.
//
// Example:
//
//	recorder := metrics.MustNew()
//	dec := classjson.NewDecoder(reg, classjson.WithEvents(recorder.Events(classjson.Events{})))
func (r *Recorder) Events(base classjson.Events) classjson.Events {
	ctx := context.Background()

	return classjson.Events{
		Resolved: func(class, path string) {
			if base.Resolved != nil {
				base.Resolved(class, path)
			}
			r.recordsDecoded.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
		},
		Delegated: func(path string) {
			if base.Delegated != nil {
				base.Delegated(path)
			}
			r.objectsDelegated.Add(ctx, 1)
		},
		Encoded: func(class string) {
			if base.Encoded != nil {
				base.Encoded(class)
			}
			r.recordsEncoded.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
		},
		Done: func(stats classjson.Stats) {
			if base.Done != nil {
				base.Done(stats)
			}
			if stats.ErrorsEncountered > 0 {
				r.errorCount.Add(ctx, int64(stats.ErrorsEncountered))
			}
			r.callDuration.Record(ctx, stats.Duration.Seconds())
		},
	}
}

// PrometheusRegistry returns the private Prometheus registry, or nil when
// the Recorder was created with [WithMeterProvider].
func (r *Recorder) PrometheusRegistry() *promclient.Registry {
	return r.prometheusRegistry
}

// Shutdown flushes and stops the meter provider if the Recorder created it.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.sdkProvider == nil {
		return nil
	}
	if err := r.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down meter provider: %w", err)
	}

	return nil
}
