// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package metrics

import (
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func fieldNames(rec Record) []string {
	var names []string
	for _, f := range rec.Fields() {
		names = append(names, f.Name)
	}
	return names
}

func TestRecordFieldPresence(t *testing.T) {
	distribution := []string{"min", "max", "mean", "stddev", "p50", "p75", "p95", "p98", "p99", "p999"}
	rates := []string{"m1_rate", "m5_rate", "m15_rate", "mean_rate"}

	clk := clock.NewMock()
	r := NewRegistry(WithRegistryClock(clk))
	_, err := r.NewCounter("counter")
	require.NoError(t, err)
	require.NoError(t, r.RegisterNamed(NewSimpleGauge("gauge")))
	_, err = r.NewHistogram("histogram")
	require.NoError(t, err)
	_, err = r.NewMeter("meter")
	require.NoError(t, err)
	_, err = r.NewTimer("timer")
	require.NoError(t, err)

	expected := map[string][]string{
		"counter":   {"count"},
		"gauge":     {"value"},
		"histogram": append([]string{"count"}, distribution...),
		"meter":     append([]string{"count"}, rates...),
		"timer":     append(append([]string{"count"}, distribution...), rates...),
	}

	for e := range r.Metrics() {
		rec, ok := NewRecord(e, clk.Now(), nil, 0)
		require.True(t, ok)
		assert.Equal(t, e.Name, string(rec.Type))
		assert.Equal(t, expected[e.Name], fieldNames(rec), e.Name)
	}
}

func TestRecordTimerDurationUnit(t *testing.T) {
	clk := clock.NewMock()
	r := NewRegistry(WithRegistryClock(clk))
	tm, err := r.NewTimer("timer", WithReservoirKind(UniformKind))
	require.NoError(t, err)
	require.NoError(t, tm.Update(1500*time.Millisecond))
	clk.Add(time.Second)

	var entry Entry
	for e := range r.Metrics() {
		entry = e
	}

	rec, _ := NewRecord(entry, clk.Now(), nil, 0)
	assert.Equal(t, 1500.0, rec.Distribution.Max)
	assert.Equal(t, 1500.0, rec.Distribution.P50)
	assert.Equal(t, int64(1), rec.Count)
	assert.InDelta(t, 1.0, rec.Rates.Mean, 1e-9)

	rec, _ = NewRecord(entry, clk.Now(), nil, time.Second)
	assert.Equal(t, 1.5, rec.Distribution.Max)
}

func TestRecordTags(t *testing.T) {
	r := NewRegistry(WithRegistryTags(map[string]string{"application": "app", "mode": "dev"}))
	_, err := r.NewCounter("c", WithTags(map[string]string{"mode": "test", "component": "main"}))
	require.NoError(t, err)

	for e := range r.Metrics() {
		rec, ok := NewRecord(e, time.Unix(0, 0), map[string]string{"host": "a", "application": "reporter"}, 0)
		require.True(t, ok)
		assert.Equal(t, map[string]string{
			"host":        "a",
			"application": "app",
			"mode":        "test",
			"component":   "main",
		}, rec.Tags)
	}
}

func TestRecordUnsupportedMetric(t *testing.T) {
	_, ok := NewRecord(Entry{Name: "x", Metric: &TagSet{}}, time.Now(), nil, 0)
	assert.False(t, ok)
}

func TestRecordMarshalLogObject(t *testing.T) {
	rec := Record{
		Measurement: "latency",
		Type:        TimerType,
		Timestamp:   time.Unix(1, 500*int64(time.Millisecond)),
		Tags:        map[string]string{"mode": "test"},
		Count:       3,
		Distribution: &Distribution{
			Min: 1, Max: 3, Mean: 2, StdDev: 1,
			P50: 2, P75: 2.5, P95: 2.9, P98: 2.96, P99: 2.98, P999: 2.998,
		},
		Rates: &Rates{M1: 0.1, M5: 0.2, M15: 0.3, Mean: 0.4},
	}

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, rec.MarshalLogObject(enc))

	assert.Equal(t, map[string]interface{}{
		"measurement":      "latency",
		"measurement_type": "timer",
		"timestamp":        int64(1500),
		"tags":             map[string]interface{}{"mode": "test"},
		"count":            int64(3),
		"min":              1.0,
		"max":              3.0,
		"mean":             2.0,
		"stddev":           1.0,
		"p50":              2.0,
		"p75":              2.5,
		"p95":              2.9,
		"p98":              2.96,
		"p99":              2.98,
		"p999":             2.998,
		"m1_rate":          0.1,
		"m5_rate":          0.2,
		"m15_rate":         0.3,
		"mean_rate":        0.4,
	}, enc.Fields)
}

func TestRecordMarshalGauge(t *testing.T) {
	rec := Record{Measurement: "g", Type: GaugeType, Timestamp: time.Unix(0, 0), Value: 4.5}
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, rec.MarshalLogObject(enc))

	assert.Equal(t, 4.5, enc.Fields["value"])
	assert.Equal(t, int64(0), enc.Fields["timestamp"])
	assert.NotContains(t, enc.Fields, "count")
	assert.Equal(t, map[string]interface{}{}, enc.Fields["tags"])
}

func TestRecordStringGauge(t *testing.T) {
	r := NewRegistry()
	state := "starting"
	require.NoError(t, r.RegisterNamed(NewFuncStringGauge("state", func() string { return state })))
	state = "ready"

	var entries []Entry
	for e := range r.Metrics() {
		entries = append(entries, e)
	}
	require.Len(t, entries, 1)
	assert.Equal(t, GaugeType, entries[0].Type)

	rec, ok := NewRecord(entries[0], time.Unix(0, 0), nil, 0)
	require.True(t, ok)
	assert.True(t, rec.HasStringValue())
	assert.False(t, rec.HasValue())
	assert.False(t, rec.HasCount())
	assert.Equal(t, "ready", rec.StringValue)
	assert.Empty(t, rec.Fields())

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, rec.MarshalLogObject(enc))
	assert.Equal(t, "ready", enc.Fields["value"])
	assert.Equal(t, "gauge", enc.Fields["measurement_type"])
}
