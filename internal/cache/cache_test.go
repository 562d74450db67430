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
	"testing"

	"github.com/inspector-go/metrics/internal/identity"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestDescCache(t *testing.T) {
	c := NewDescCache()

	a := c.Get("requests", "help", []string{"component", "mode"})
	b := c.Get("requests", "other help", []string{"component", "mode"})
	require.Same(t, a, b)
	assert.Equal(t, 1, c.Len())

	other := c.Get("requests", "help", []string{"mode"})
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, c.Len())
}

func TestDescCacheVerifiesBucketEntries(t *testing.T) {
	c := NewDescCache()
	key := identity.NameAndKeys("requests", nil)
	impostor := prom.NewDesc("impostor", "help", nil, nil)
	c.entries[key] = []descEntry{{name: "impostor", desc: impostor}}

	desc := c.Get("requests", "help", nil)
	assert.NotSame(t, impostor, desc)
	assert.Len(t, c.entries[key], 2)
	assert.Same(t, desc, c.Get("requests", "help", nil))
}

func TestNameCache(t *testing.T) {
	var calls atomic.Int32
	c := NewNameCache(func(s string) string {
		calls.Inc()
		return s + "_sanitised"
	})

	assert.Equal(t, "a_sanitised", c.Get("a"))
	assert.Equal(t, "a_sanitised", c.Get("a"))
	assert.Equal(t, int32(1), calls.Load())
}
