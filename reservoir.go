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
	"sort"
	"time"

	"github.com/facebookgo/clock"
)

const (
	// DefaultReservoirSize is the capacity of reservoirs created by the
	// registry. It offers a 99.9% confidence level with a 5% margin of error
	// assuming a normal distribution.
	DefaultReservoirSize = 1028

	// DefaultExpDecayAlpha heavily biases an exponentially decaying
	// reservoir to the past 5 minutes of measurements.
	DefaultExpDecayAlpha = 0.015

	// DefaultRescaleInterval is how often an exponentially decaying
	// reservoir rescales its priorities.
	DefaultRescaleInterval = time.Hour
)

// Reservoir is a fixed capacity statistical sample of an unbounded stream
// of values. Implementations must be safe for concurrent use.
type Reservoir interface {
	// Update adds a value to the stream.
	Update(v float64)

	// Count returns the number of values ever added, including the ones
	// that are no longer retained.
	Count() int64

	// Size returns the number of values currently retained.
	Size() int

	// Snapshot returns an immutable copy of the retained values.
	Snapshot() Sample
}

// ReservoirKind selects one of the built in reservoirs.
type ReservoirKind int

const (
	// ExpDecayKind selects an exponentially decaying reservoir, biased
	// towards recent values.
	ExpDecayKind ReservoirKind = iota
	// UniformKind selects a uniform reservoir.
	UniformKind
)

func (k ReservoirKind) String() string {
	switch k {
	case UniformKind:
		return "uniform"
	case ExpDecayKind:
		return "exp-decay"
	default:
		return "unknown"
	}
}

func (k ReservoirKind) newReservoir(c clock.Clock) Reservoir {
	if k == UniformKind {
		return NewUniformReservoir(DefaultReservoirSize)
	}
	return NewExpDecayReservoir(DefaultReservoirSize, DefaultExpDecayAlpha, WithExpDecayClock(c))
}

// Sample is an immutable, sorted view of the values retained by a
// reservoir. All statistics of an empty sample are zero.
type Sample struct {
	values []float64
}

// newSample takes ownership of values.
func newSample(values []float64) Sample {
	sort.Float64s(values)
	return Sample{values: values}
}

// Size returns the number of values in the sample.
func (s Sample) Size() int {
	return len(s.values)
}

// Values returns a sorted copy of the values.
func (s Sample) Values() []float64 {
	values := make([]float64, len(s.values))
	copy(values, s.values)
	return values
}

// Min returns the smallest value.
func (s Sample) Min() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[0]
}

// Max returns the largest value.
func (s Sample) Max() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Mean returns the arithmetic mean.
func (s Sample) Mean() float64 {
	if len(s.values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.values {
		sum += v
	}
	return sum / float64(len(s.values))
}

// StdDev returns the sample standard deviation.
func (s Sample) StdDev() float64 {
	n := len(s.values)
	if n <= 1 {
		return 0
	}
	mean := s.Mean()
	var sum float64
	for _, v := range s.values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Percentile returns the value at quantile q, in [0, 1], linearly
// interpolating between the closest ranks.
func (s Sample) Percentile(q float64) float64 {
	n := len(s.values)
	if n == 0 {
		return 0
	}
	switch {
	case q <= 0 || math.IsNaN(q):
		return s.values[0]
	case q >= 1:
		return s.values[n-1]
	}

	pos := q * float64(n-1)
	lower := math.Floor(pos)
	idx := int(lower)
	if pos == lower {
		return s.values[idx]
	}
	return s.values[idx] + (pos-lower)*(s.values[idx+1]-s.values[idx])
}

// Percentiles returns the values at each of the quantiles qs.
func (s Sample) Percentiles(qs []float64) []float64 {
	result := make([]float64, len(qs))
	for i, q := range qs {
		result[i] = s.Percentile(q)
	}
	return result
}
