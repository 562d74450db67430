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
	"math/rand"
	"sync"
)

// UniformReservoir keeps a uniform random sample of the stream using
// Vitter's Algorithm R: every value seen so far has the same probability of
// being retained.
type UniformReservoir struct {
	mu       sync.Mutex
	rand     *rand.Rand
	capacity int
	count    int64
	values   []float64
}

var _ Reservoir = (*UniformReservoir)(nil)

// NewUniformReservoir creates a uniform reservoir holding at most capacity
// values, DefaultReservoirSize is used for non positive capacities.
func NewUniformReservoir(capacity int) *UniformReservoir {
	if capacity <= 0 {
		capacity = DefaultReservoirSize
	}
	return &UniformReservoir{
		rand:     rand.New(rand.NewSource(rand.Int63())),
		capacity: capacity,
		values:   make([]float64, 0, capacity),
	}
}

// Update adds v to the reservoir.
func (r *UniformReservoir) Update(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.count++
	if len(r.values) < r.capacity {
		r.values = append(r.values, v)
		return
	}
	if idx := r.rand.Int63n(r.count); idx < int64(r.capacity) {
		r.values[idx] = v
	}
}

// Count returns the number of values ever added.
func (r *UniformReservoir) Count() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Size returns the number of retained values.
func (r *UniformReservoir) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Snapshot returns a sorted copy of the retained values.
func (r *UniformReservoir) Snapshot() Sample {
	r.mu.Lock()
	values := make([]float64, len(r.values))
	copy(values, r.values)
	r.mu.Unlock()
	return newSample(values)
}
