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
	"go.uber.org/atomic"
)

// Meter measures the rate of events: a total count, the mean rate since
// creation and 1, 5 and 15 minute exponentially weighted moving averages.
//
// A Meter runs no goroutine. Its averages are ticked lazily: every Mark and
// every rate read first applies one Tick per DefaultTickInterval elapsed
// since the last tick. Rates are therefore exact at read time only, a meter
// that is never marked or read keeps its last computed rates in memory.
type Meter struct {
	TagSet

	clock    clock.Clock
	start    time.Time
	lastTick atomic.Int64
	count    atomic.Int64

	m1, m5, m15 *EWMA
}

// MeterSnapshot is a point in time copy of a meter's rates, in events per
// second.
type MeterSnapshot struct {
	Count    int64
	Rate1    float64
	Rate5    float64
	Rate15   float64
	RateMean float64
}

// NewMeter creates a meter using c to measure time, nil means the wall
// clock.
func NewMeter(c clock.Clock) *Meter {
	c = clockOrDefault(c)
	m := &Meter{
		clock: c,
		start: c.Now(),
		m1:    NewEWMA1(),
		m5:    NewEWMA5(),
		m15:   NewEWMA15(),
	}
	m.lastTick.Store(m.start.UnixNano())
	return m
}

// Mark records n events. Negative n is rejected.
func (m *Meter) Mark(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: meter marked with %d", ErrInvalidDelta, n)
	}
	m.tickIfNecessary()
	m.count.Add(n)
	m.m1.Update(n)
	m.m5.Update(n)
	m.m15.Update(n)
	return nil
}

// Count returns the number of events ever marked.
func (m *Meter) Count() int64 {
	return m.count.Load()
}

// Rate1 returns the one minute moving average rate.
func (m *Meter) Rate1() float64 {
	m.tickIfNecessary()
	return m.m1.Rate()
}

// Rate5 returns the five minute moving average rate.
func (m *Meter) Rate5() float64 {
	m.tickIfNecessary()
	return m.m5.Rate()
}

// Rate15 returns the fifteen minute moving average rate.
func (m *Meter) Rate15() float64 {
	m.tickIfNecessary()
	return m.m15.Rate()
}

// RateMean returns the mean rate since the meter was created.
func (m *Meter) RateMean() float64 {
	elapsed := m.clock.Now().Sub(m.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.count.Load()) / elapsed
}

// Snapshot returns the count and all rates.
func (m *Meter) Snapshot() MeterSnapshot {
	m.tickIfNecessary()
	return MeterSnapshot{
		Count:    m.count.Load(),
		Rate1:    m.m1.Rate(),
		Rate5:    m.m5.Rate(),
		Rate15:   m.m15.Rate(),
		RateMean: m.RateMean(),
	}
}

// tickIfNecessary applies the ticks missed since the last one. Only the
// caller winning the swap of lastTick performs the catch up, events marked
// in between are folded into the first tick.
func (m *Meter) tickIfNecessary() {
	interval := int64(DefaultTickInterval)
	old := m.lastTick.Load()
	now := m.clock.Now().UnixNano()
	age := now - old
	if age < interval {
		return
	}
	if !m.lastTick.CompareAndSwap(old, now-age%interval) {
		return
	}
	for i := age / interval; i > 0; i-- {
		m.m1.Tick()
		m.m5.Tick()
		m.m15.Tick()
	}
}
