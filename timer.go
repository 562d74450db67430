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
	"fmt"
	"time"

	"github.com/facebookgo/clock"
)

// Timer measures both the rate at which an operation is called and the
// distribution of its duration. Durations are recorded in nanoseconds.
type Timer struct {
	TagSet

	clock     clock.Clock
	meter     *Meter
	histogram *Histogram
}

// TimerSnapshot is a point in time copy of a timer.
type TimerSnapshot struct {
	Histogram HistogramSnapshot
	Rates     MeterSnapshot
}

var _ StopwatchRecorder = (*Timer)(nil)

// NewTimer creates a timer using c to measure time and r to sample
// durations. Nil arguments fall back to the wall clock and a uniform
// reservoir.
func NewTimer(c clock.Clock, r Reservoir) *Timer {
	c = clockOrDefault(c)
	return &Timer{
		clock:     c,
		meter:     NewMeter(c),
		histogram: NewHistogram(r),
	}
}

// Update records one call that took d. Negative durations are rejected.
func (t *Timer) Update(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: timer updated with negative duration %v", ErrInvalidValue, d)
	}
	if err := t.histogram.Update(float64(d)); err != nil {
		return err
	}
	return t.meter.Mark(1)
}

// Time runs fn and records how long it took.
func (t *Timer) Time(fn func()) {
	sw := t.Start()
	defer sw.Stop()
	fn()
}

// Start returns a stopwatch which records its elapsed time when stopped.
func (t *Timer) Start() Stopwatch {
	return NewStopwatch(t.clock.Now(), t)
}

// RecordStopwatch records the time elapsed since start.
func (t *Timer) RecordStopwatch(start time.Time) {
	d := t.clock.Now().Sub(start)
	if d < 0 {
		d = 0
	}
	_ = t.Update(d)
}

// Count returns the number of recorded calls.
func (t *Timer) Count() int64 {
	return t.histogram.Count()
}

// Snapshot returns the duration distribution and the call rates.
func (t *Timer) Snapshot() TimerSnapshot {
	return TimerSnapshot{
		Histogram: t.histogram.Snapshot(),
		Rates:     t.meter.Snapshot(),
	}
}
