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

package cache

import (
	"sync"
)

// NameCache memoizes the sanitised form of metric names and label keys.
type NameCache struct {
	entries  map[string]string
	mtx      sync.RWMutex
	sanitise func(string) string
}

// NewNameCache creates a new NameCache applying sanitise to misses.
func NewNameCache(sanitise func(string) string) *NameCache {
	return &NameCache{
		entries:  make(map[string]string),
		sanitise: sanitise,
	}
}

// Get returns the sanitised form of s.
func (c *NameCache) Get(s string) string {
	c.mtx.RLock()
	x, ok := c.entries[s]
	c.mtx.RUnlock()

	if ok {
		return x
	}

	x = c.sanitise(s)

	c.mtx.Lock()
	c.entries[s] = x
	c.mtx.Unlock()

	return x
}
