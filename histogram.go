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
	"math"

	"go.uber.org/atomic"
)

// Histogram measures the distribution of values in a stream, backed by a
// Reservoir which bounds its memory use.
type Histogram struct {
	TagSet

	reservoir Reservoir
	sum       atomic.Float64
}

// HistogramSnapshot is a point in time copy of a histogram. Count and Sum
// cover every value ever recorded, the embedded Sample only the retained
// ones.
type HistogramSnapshot struct {
	Sample

	Count int64
	Sum   float64
}

// NewHistogram creates a histogram backed by r, a nil reservoir means a
// uniform reservoir of DefaultReservoirSize.
func NewHistogram(r Reservoir) *Histogram {
	if r == nil {
		r = NewUniformReservoir(DefaultReservoirSize)
	}
	return &Histogram{reservoir: r}
}

// Update records v. NaN and infinite values are rejected.
func (h *Histogram) Update(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: histogram updated with %v", ErrInvalidValue, v)
	}
	h.reservoir.Update(v)
	h.sum.Add(v)
	return nil
}

// Count returns the number of values ever recorded.
func (h *Histogram) Count() int64 {
	return h.reservoir.Count()
}

// Sum returns the sum of all values ever recorded.
func (h *Histogram) Sum() float64 {
	return h.sum.Load()
}

// Snapshot returns the distribution of the retained values.
func (h *Histogram) Snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Sample: h.reservoir.Snapshot(),
		Count:  h.reservoir.Count(),
		Sum:    h.sum.Load(),
	}
}
