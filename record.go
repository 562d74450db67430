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
	"time"

	"go.uber.org/zap/zapcore"
)

// Record is the flattened state of one metric at one report tick. Which
// fields are meaningful depends on Type:
//
//	counter:   Count
//	gauge:     Value, or StringValue for string gauges
//	histogram: Count, Distribution
//	meter:     Count, Rates
//	timer:     Count, Distribution, Rates
type Record struct {
	Measurement string
	Type        MetricType
	Timestamp   time.Time
	Tags        map[string]string

	Count        int64
	Value        float64
	StringValue  string
	Distribution *Distribution
	Rates        *Rates

	stringValued bool
}

// Distribution summarises the sample of a histogram or a timer.
type Distribution struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	P50    float64
	P75    float64
	P95    float64
	P98    float64
	P99    float64
	P999   float64
}

// Rates are the per second rates of a meter or a timer.
type Rates struct {
	M1   float64
	M5   float64
	M15  float64
	Mean float64
}

// Field is one numeric value of a record under its wire name.
type Field struct {
	Name  string
	Value float64
}

// DistributionQuantiles are the quantiles reported for every distribution,
// in the order of the Distribution percentile fields.
var DistributionQuantiles = []float64{0.5, 0.75, 0.95, 0.98, 0.99, 0.999}

// HasCount reports whether the record carries a count.
func (r Record) HasCount() bool {
	return r.Type != GaugeType
}

// HasValue reports whether the record carries a single numeric value.
func (r Record) HasValue() bool {
	return r.Type == GaugeType && !r.stringValued
}

// HasStringValue reports whether the record comes from a StringGauge. Its
// value is not part of Fields, sinks that only handle numbers skip it.
func (r Record) HasStringValue() bool {
	return r.Type == GaugeType && r.stringValued
}

// Fields returns the numeric fields present for the record type, in wire
// order.
func (r Record) Fields() []Field {
	fields := make([]Field, 0, 15)
	if r.HasCount() {
		fields = append(fields, Field{"count", float64(r.Count)})
	}
	if r.HasValue() {
		fields = append(fields, Field{"value", r.Value})
	}
	if d := r.Distribution; d != nil {
		fields = append(fields,
			Field{"min", d.Min},
			Field{"max", d.Max},
			Field{"mean", d.Mean},
			Field{"stddev", d.StdDev},
			Field{"p50", d.P50},
			Field{"p75", d.P75},
			Field{"p95", d.P95},
			Field{"p98", d.P98},
			Field{"p99", d.P99},
			Field{"p999", d.P999},
		)
	}
	if rt := r.Rates; rt != nil {
		fields = append(fields,
			Field{"m1_rate", rt.M1},
			Field{"m5_rate", rt.M5},
			Field{"m15_rate", rt.M15},
			Field{"mean_rate", rt.Mean},
		)
	}
	return fields
}

// MarshalLogObject writes the record with its wire field names. The
// timestamp is written as milliseconds since the Unix epoch.
func (r Record) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("measurement", r.Measurement)
	enc.AddString("measurement_type", r.Type.String())
	enc.AddInt64("timestamp", r.Timestamp.UnixMilli())
	if err := enc.AddObject("tags", tagsMarshaler(r.Tags)); err != nil {
		return err
	}
	for _, f := range r.Fields() {
		if f.Name == "count" {
			enc.AddInt64(f.Name, r.Count)
			continue
		}
		enc.AddFloat64(f.Name, f.Value)
	}
	if r.HasStringValue() {
		enc.AddString("value", r.StringValue)
	}
	return nil
}

type tagsMarshaler map[string]string

func (m tagsMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for k, v := range m {
		enc.AddString(k, v)
	}
	return nil
}

func newDistribution(s Sample, scale float64) *Distribution {
	ps := s.Percentiles(DistributionQuantiles)
	return &Distribution{
		Min:    s.Min() / scale,
		Max:    s.Max() / scale,
		Mean:   s.Mean() / scale,
		StdDev: s.StdDev() / scale,
		P50:    ps[0] / scale,
		P75:    ps[1] / scale,
		P95:    ps[2] / scale,
		P98:    ps[3] / scale,
		P99:    ps[4] / scale,
		P999:   ps[5] / scale,
	}
}

func newRates(s MeterSnapshot) *Rates {
	return &Rates{
		M1:   s.Rate1,
		M5:   s.Rate5,
		M15:  s.Rate15,
		Mean: s.RateMean,
	}
}

// NewRecord flattens e into a record stamped with ts. Timer durations are
// expressed in durationUnit, a zero unit means milliseconds. Tags are the
// entry tags laid over baseTags.
func NewRecord(e Entry, ts time.Time, baseTags map[string]string, durationUnit time.Duration) (Record, bool) {
	rec := Record{
		Measurement: e.Name,
		Type:        e.Type,
		Timestamp:   ts,
		Tags:        MergeTags(baseTags, e.Tags),
	}

	switch m := e.Metric.(type) {
	case *Counter:
		rec.Count = m.Count()
	case *MonotoneCounter:
		rec.Count = m.Count()
	case *Histogram:
		s := m.Snapshot()
		rec.Count = s.Count
		rec.Distribution = newDistribution(s.Sample, 1)
	case *Meter:
		s := m.Snapshot()
		rec.Count = s.Count
		rec.Rates = newRates(s)
	case *Timer:
		if durationUnit <= 0 {
			durationUnit = time.Millisecond
		}
		s := m.Snapshot()
		rec.Count = s.Histogram.Count
		rec.Distribution = newDistribution(s.Histogram.Sample, float64(durationUnit))
		rec.Rates = newRates(s.Rates)
	case Gauge:
		rec.Value = m.Value()
	case StringGauge:
		rec.StringValue = m.StringValue()
		rec.stringValued = true
	default:
		return Record{}, false
	}
	return rec, true
}
