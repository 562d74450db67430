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

import "time"

// MetricType names the kind of an instrument as it appears on the wire.
type MetricType string

const (
	// CounterType is the type of Counter and MonotoneCounter instruments.
	CounterType MetricType = "counter"
	// GaugeType is the type of Gauge instruments.
	GaugeType MetricType = "gauge"
	// HistogramType is the type of Histogram instruments.
	HistogramType MetricType = "histogram"
	// MeterType is the type of Meter instruments.
	MeterType MetricType = "meter"
	// TimerType is the type of Timer instruments.
	TimerType MetricType = "timer"
)

func (t MetricType) String() string {
	return string(t)
}

// Metric is anything a Registry can hold. Every instrument carries its own
// tag set.
type Metric interface {
	Taggable
}

// NamedMetric is a Metric that knows the name it should be registered under.
type NamedMetric interface {
	Metric

	// Name returns the registration name of the metric.
	Name() string
}

// Gauge is the capability of reporting a value that is read fresh on every
// report. The registry stores the gauge itself, never a sampled number.
type Gauge interface {
	Metric

	// Value returns the current value of the gauge.
	Value() float64
}

// StringGauge is the capability of reporting a textual value, such as a
// version or a state name, read fresh on every report. A metric that is
// both a Gauge and a StringGauge is reported as a numeric gauge.
type StringGauge interface {
	Metric

	// StringValue returns the current value of the gauge.
	StringValue() string
}

// TypeOf returns the MetricType of m, or false if m is not one of the
// supported instruments.
func TypeOf(m Metric) (MetricType, bool) {
	switch m.(type) {
	case *Counter, *MonotoneCounter:
		return CounterType, true
	case *Histogram:
		return HistogramType, true
	case *Meter:
		return MeterType, true
	case *Timer:
		return TimerType, true
	case Gauge, StringGauge:
		return GaugeType, true
	default:
		return "", false
	}
}

// StopwatchRecorder is a recorder that is called when a stopwatch is
// stopped with Stop().
type StopwatchRecorder interface {
	RecordStopwatch(stopwatchStart time.Time)
}

// Stopwatch is a helper for simpler tracking of elapsed time.
type Stopwatch struct {
	start    time.Time
	recorder StopwatchRecorder
}

// NewStopwatch creates a new immutable stopwatch for recording the start
// time to a stopwatch reporter.
func NewStopwatch(start time.Time, r StopwatchRecorder) Stopwatch {
	return Stopwatch{start: start, recorder: r}
}

// Stop reports time elapsed since the stopwatch start to the recorder.
func (sw Stopwatch) Stop() {
	if sw.recorder == nil {
		return
	}
	sw.recorder.RecordStopwatch(sw.start)
}
