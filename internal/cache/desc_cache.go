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
	"slices"
	"sync"

	"github.com/inspector-go/metrics/internal/identity"
	prom "github.com/prometheus/client_golang/prometheus"
)

// DescCache is an identity.Accumulator-based cache of Prometheus
// descriptors, keyed by metric name and label keys.
type DescCache struct {
	entries map[uint64][]descEntry
	mtx     sync.RWMutex
}

type descEntry struct {
	name string
	keys []string
	desc *prom.Desc
}

// NewDescCache creates a new DescCache.
func NewDescCache() *DescCache {
	return &DescCache{
		entries: make(map[uint64][]descEntry),
	}
}

// Get returns the descriptor for name with the variable labels keys,
// creating it with help if needed. Keys must be sorted.
func (c *DescCache) Get(name, help string, keys []string) *prom.Desc {
	key := identity.NameAndKeys(name, keys)

	c.mtx.RLock()
	desc, ok := lookup(c.entries[key], name, keys)
	c.mtx.RUnlock()

	if ok {
		return desc
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if desc, ok := lookup(c.entries[key], name, keys); ok {
		return desc
	}

	desc = prom.NewDesc(name, help, keys, nil)
	c.entries[key] = append(c.entries[key], descEntry{
		name: name,
		keys: slices.Clone(keys),
		desc: desc,
	})
	return desc
}

// Len returns the number of cached descriptors.
func (c *DescCache) Len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}

func lookup(bucket []descEntry, name string, keys []string) (*prom.Desc, bool) {
	for _, e := range bucket {
		if e.name == name && slices.Equal(e.keys, keys) {
			return e.desc, true
		}
	}
	return nil, false
}
