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

package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"rivaas.dev/classjson"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// collect sums every int64 counter data point by instrument name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}

	return out
}

func newManualRecorder(t *testing.T) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})

	return MustNew(WithMeterProvider(mp)), reader
}

func TestRecorder_DecodeCounters(t *testing.T) {
	t.Parallel()

	recorder, reader := newManualRecorder(t)
	reg := classjson.MustRegistry(point{})

	var delegated int
	events := recorder.Events(classjson.Events{
		Delegated: func(string) { delegated++ },
	})
	dates := func(obj map[string]any) (any, bool, error) {
		s, ok := obj["$date"].(string)
		return s, ok, nil
	}
	dec := classjson.NewDecoder(reg, classjson.WithEvents(events), classjson.WithResolvers(dates))

	_, err := dec.Decode([]byte(`[
		{"__class__":"point","x":1,"y":2},
		{"__class__":"point","x":3,"y":4},
		{"$date":"2025-01-01"}
	]`))
	require.NoError(t, err)

	_, err = dec.Decode([]byte(`{"__class__":"point","x":1}`))
	require.Error(t, err)

	counts := collect(t, reader)
	assert.Equal(t, int64(2), counts[RecordsDecoded])
	assert.Equal(t, int64(1), counts[ObjectsDelegated])
	assert.Equal(t, int64(1), counts[DecodeErrors])
	assert.Equal(t, 1, delegated, "base hooks still run")
}

func TestRecorder_EncodeCounters(t *testing.T) {
	t.Parallel()

	recorder, reader := newManualRecorder(t)
	enc := classjson.NewEncoder(classjson.WithEvents(recorder.Events(classjson.Events{})))

	_, err := enc.Marshal([]any{point{1, 2}, &point{3, 4}, map[string]any{"p": point{}}})
	require.NoError(t, err)

	_, err = enc.Marshal(make(chan int))
	require.Error(t, err)

	counts := collect(t, reader)
	assert.Equal(t, int64(3), counts[RecordsEncoded])
	assert.Equal(t, int64(1), counts[DecodeErrors])
}

func TestRecorder_Prometheus(t *testing.T) {
	t.Parallel()

	recorder := MustNew()
	t.Cleanup(func() {
		_ = recorder.Shutdown(context.Background())
	})
	require.NotNil(t, recorder.PrometheusRegistry())

	reg := classjson.MustRegistry(point{})
	_, err := classjson.Unmarshal([]byte(`{"__class__":"point","x":1,"y":2}`), reg,
		classjson.WithEvents(recorder.Events(classjson.Events{})))
	require.NoError(t, err)

	families, err := recorder.PrometheusRegistry().Gather()
	require.NoError(t, err)

	byName := make(map[string]int, len(families))
	for i, mf := range families {
		byName[mf.GetName()] = i
	}

	i, ok := byName[RecordsDecoded]
	require.True(t, ok, "records decoded counter exported as %s", RecordsDecoded)
	decoded := families[i]
	require.NotEmpty(t, decoded.GetMetric())
	assert.InDelta(t, 1.0, decoded.GetMetric()[0].GetCounter().GetValue(), 0)

	i, ok = byName[CallDuration]
	require.True(t, ok, "call duration histogram exported as %s", CallDuration)
	duration := families[i]
	require.NotEmpty(t, duration.GetMetric())
	assert.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestRecorder_CustomProviderHasNoRegistry(t *testing.T) {
	t.Parallel()

	recorder, _ := newManualRecorder(t)
	assert.Nil(t, recorder.PrometheusRegistry())
	assert.NoError(t, recorder.Shutdown(context.Background()))
}
