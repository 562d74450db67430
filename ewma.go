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
	"math"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// DefaultTickInterval is the interval at which meter EWMAs are ticked.
const DefaultTickInterval = 5 * time.Second

// EWMA is an exponentially weighted moving average of a rate. Tick must be
// called once per interval, Update may be called at any time.
type EWMA struct {
	uncounted atomic.Int64
	alpha     float64
	interval  time.Duration

	mu          sync.Mutex
	rate        float64
	initialized bool
}

// NewEWMA creates an EWMA with the given smoothing constant, ticked every
// interval.
func NewEWMA(alpha float64, interval time.Duration) *EWMA {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &EWMA{alpha: alpha, interval: interval}
}

// NewEWMA1 creates an EWMA modelling a one minute load average.
func NewEWMA1() *EWMA {
	return NewEWMA(EWMAAlpha(DefaultTickInterval, time.Minute), DefaultTickInterval)
}

// NewEWMA5 creates an EWMA modelling a five minute load average.
func NewEWMA5() *EWMA {
	return NewEWMA(EWMAAlpha(DefaultTickInterval, 5*time.Minute), DefaultTickInterval)
}

// NewEWMA15 creates an EWMA modelling a fifteen minute load average.
func NewEWMA15() *EWMA {
	return NewEWMA(EWMAAlpha(DefaultTickInterval, 15*time.Minute), DefaultTickInterval)
}

// EWMAAlpha returns the smoothing constant of an EWMA ticked every interval
// that averages over window.
func EWMAAlpha(interval, window time.Duration) float64 {
	return 1 - math.Exp(-interval.Seconds()/window.Seconds())
}

// Update adds n uncounted events.
func (e *EWMA) Update(n int64) {
	e.uncounted.Add(n)
}

// Tick folds the events counted since the last tick into the average. The
// first tick initializes the rate with the instant rate.
func (e *EWMA) Tick() {
	count := e.uncounted.Swap(0)
	instant := float64(count) / e.interval.Seconds()

	e.mu.Lock()
	if e.initialized {
		e.rate += e.alpha * (instant - e.rate)
	} else {
		e.rate = instant
		e.initialized = true
	}
	e.mu.Unlock()
}

// Rate returns the moving average in events per second.
func (e *EWMA) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}
