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
	"container/heap"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// ExpDecayReservoir is an exponentially decaying reservoir, biased towards
// recent values. Each value is stored with priority
// exp(alpha*(t-landmark))/u, u uniform in (0, 1]. Once the reservoir is full
// the lowest priority value is evicted by every insert, so the newest value
// is always retained right after it is added.
//
// Priorities grow exponentially with time, so the landmark is moved forward
// every rescale interval and all priorities are scaled down by the same
// factor, which keeps their order.
type ExpDecayReservoir struct {
	mu              sync.Mutex
	clock           clock.Clock
	rand            *rand.Rand
	alpha           float64
	capacity        int
	rescaleInterval time.Duration
	landmark        time.Time
	count           int64
	samples         expDecaySampleHeap
}

var _ Reservoir = (*ExpDecayReservoir)(nil)

// ExpDecayOption configures an ExpDecayReservoir.
type ExpDecayOption func(*ExpDecayReservoir)

// WithExpDecayClock sets the clock used to weight values.
func WithExpDecayClock(c clock.Clock) ExpDecayOption {
	return func(r *ExpDecayReservoir) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithRescaleInterval sets how often priorities are rescaled.
func WithRescaleInterval(d time.Duration) ExpDecayOption {
	return func(r *ExpDecayReservoir) {
		if d > 0 {
			r.rescaleInterval = d
		}
	}
}

// NewExpDecayReservoir creates an exponentially decaying reservoir holding
// at most capacity values with decay rate alpha per second. Non positive
// arguments fall back to DefaultReservoirSize and DefaultExpDecayAlpha.
func NewExpDecayReservoir(capacity int, alpha float64, opts ...ExpDecayOption) *ExpDecayReservoir {
	if capacity <= 0 {
		capacity = DefaultReservoirSize
	}
	if alpha <= 0 || math.IsNaN(alpha) {
		alpha = DefaultExpDecayAlpha
	}
	r := &ExpDecayReservoir{
		clock:           globalClock,
		rand:            rand.New(rand.NewSource(rand.Int63())),
		alpha:           alpha,
		capacity:        capacity,
		rescaleInterval: DefaultRescaleInterval,
		samples:         make(expDecaySampleHeap, 0, capacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.landmark = r.clock.Now()
	return r
}

// Update adds v to the reservoir, rescaling first if the rescale interval
// has elapsed.
func (r *ExpDecayReservoir) Update(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if now.Sub(r.landmark) >= r.rescaleInterval {
		r.rescaleLocked(now)
	}

	r.count++
	s := expDecaySample{
		priority: r.weight(now) / (1 - r.rand.Float64()),
		value:    v,
	}
	if len(r.samples) < r.capacity {
		heap.Push(&r.samples, s)
		return
	}
	r.samples[0] = s
	heap.Fix(&r.samples, 0)
}

// Rescale moves the landmark to now and scales every priority down
// accordingly. It is called automatically by Update.
func (r *ExpDecayReservoir) Rescale(now time.Time) {
	r.mu.Lock()
	r.rescaleLocked(now)
	r.mu.Unlock()
}

func (r *ExpDecayReservoir) rescaleLocked(now time.Time) {
	if !now.After(r.landmark) {
		return
	}
	factor := math.Exp(-r.alpha * now.Sub(r.landmark).Seconds())
	// Scaling every element by the same positive factor keeps the heap
	// ordered, no re-heapify needed.
	for i := range r.samples {
		r.samples[i].priority *= factor
	}
	r.landmark = now
}

func (r *ExpDecayReservoir) weight(t time.Time) float64 {
	return math.Exp(r.alpha * t.Sub(r.landmark).Seconds())
}

// Count returns the number of values ever added.
func (r *ExpDecayReservoir) Count() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Size returns the number of retained values.
func (r *ExpDecayReservoir) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Snapshot returns a sorted copy of the retained values.
func (r *ExpDecayReservoir) Snapshot() Sample {
	r.mu.Lock()
	values := make([]float64, len(r.samples))
	for i, s := range r.samples {
		values[i] = s.value
	}
	r.mu.Unlock()
	return newSample(values)
}

type expDecaySample struct {
	priority float64
	value    float64
}

// expDecaySampleHeap is a min-heap of samples ordered by priority.
type expDecaySampleHeap []expDecaySample

func (h expDecaySampleHeap) Len() int           { return len(h) }
func (h expDecaySampleHeap) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h expDecaySampleHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expDecaySampleHeap) Push(x interface{}) {
	*h = append(*h, x.(expDecaySample))
}

func (h *expDecaySampleHeap) Pop() interface{} {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[:n-1]
	return s
}
