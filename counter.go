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

	"go.uber.org/atomic"
)

// Counter is a signed counter that can go up and down.
type Counter struct {
	TagSet

	value atomic.Int64
}

// NewCounter creates a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.value.Inc()
}

// Dec decrements the counter by one.
func (c *Counter) Dec() {
	c.value.Dec()
}

// Add adds delta, which may be negative, to the counter.
func (c *Counter) Add(delta int64) {
	c.value.Add(delta)
}

// Count returns the current value.
func (c *Counter) Count() int64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *Counter) Reset() {
	c.value.Store(0)
}

// MonotoneCounter is a counter that only ever goes up.
type MonotoneCounter struct {
	TagSet

	value atomic.Int64
}

// NewMonotoneCounter creates a monotone counter starting at zero.
func NewMonotoneCounter() *MonotoneCounter {
	return &MonotoneCounter{}
}

// Inc increments the counter by one.
func (c *MonotoneCounter) Inc() {
	c.value.Inc()
}

// Add adds delta to the counter. A negative delta is rejected with
// ErrInvalidDelta and leaves the counter unchanged.
func (c *MonotoneCounter) Add(delta int64) error {
	if delta < 0 {
		return fmt.Errorf("%w: monotone counter incremented by %d", ErrInvalidDelta, delta)
	}
	c.value.Add(delta)
	return nil
}

// Count returns the current value.
func (c *MonotoneCounter) Count() int64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *MonotoneCounter) Reset() {
	c.value.Store(0)
}
