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
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformReservoirPercentiles(t *testing.T) {
	r := NewUniformReservoir(100)
	for i := 1; i <= 100; i++ {
		r.Update(float64(i))
	}

	assert.Equal(t, int64(100), r.Count())
	assert.Equal(t, 100, r.Size())

	s := r.Snapshot()
	assert.Equal(t, 1.0, s.Min())
	assert.Equal(t, 100.0, s.Max())
	assert.Equal(t, 50.5, s.Mean())
	assert.InDelta(t, 50.5, s.Percentile(0.5), 1e-9)
	assert.InDelta(t, 75.25, s.Percentile(0.75), 1e-9)
	assert.InDelta(t, 99.01, s.Percentile(0.99), 1e-9)
	assert.InDelta(t, math.Sqrt(100*101/12.0), s.StdDev(), 1e-9)
	assert.Equal(t, 1.0, s.Percentile(0))
	assert.Equal(t, 100.0, s.Percentile(1))
	assert.Equal(t, 1.0, s.Percentile(-1))
	assert.Equal(t, 100.0, s.Percentile(2))
}

func TestUniformReservoirBounded(t *testing.T) {
	r := NewUniformReservoir(10)
	for i := 0; i < 1000; i++ {
		r.Update(float64(i))
	}
	assert.Equal(t, int64(1000), r.Count())
	assert.Equal(t, 10, r.Size())
	for _, v := range r.Snapshot().Values() {
		assert.True(t, v >= 0 && v < 1000)
	}
}

func TestUniformReservoirDefaults(t *testing.T) {
	r := NewUniformReservoir(0)
	assert.Equal(t, DefaultReservoirSize, r.capacity)
}

func TestEmptySample(t *testing.T) {
	s := NewUniformReservoir(10).Snapshot()
	assert.Equal(t, 0, s.Size())
	assert.Equal(t, 0.0, s.Min())
	assert.Equal(t, 0.0, s.Max())
	assert.Equal(t, 0.0, s.Mean())
	assert.Equal(t, 0.0, s.StdDev())
	assert.Equal(t, 0.0, s.Percentile(0.5))
	assert.Equal(t, []float64{0, 0}, s.Percentiles([]float64{0.5, 0.99}))
}

func TestSingleValueSample(t *testing.T) {
	r := NewUniformReservoir(10)
	r.Update(7)
	s := r.Snapshot()
	assert.Equal(t, 0.0, s.StdDev())
	assert.Equal(t, 7.0, s.Percentile(0.999))
}

func TestSampleIsImmutable(t *testing.T) {
	r := NewUniformReservoir(10)
	r.Update(3)
	r.Update(1)
	s := r.Snapshot()

	values := s.Values()
	assert.Equal(t, []float64{1, 3}, values)
	values[0] = 100
	r.Update(2)
	assert.Equal(t, []float64{1, 3}, s.Values())
}

func TestExpDecayReservoirUnderCapacity(t *testing.T) {
	r := NewExpDecayReservoir(100, 0.99, WithExpDecayClock(clock.NewMock()))
	for i := 0; i < 10; i++ {
		r.Update(float64(i))
	}
	assert.Equal(t, int64(10), r.Count())
	assert.Equal(t, 10, r.Size())
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, r.Snapshot().Values())
}

func TestExpDecayReservoirBounded(t *testing.T) {
	r := NewExpDecayReservoir(100, 0.99, WithExpDecayClock(clock.NewMock()))
	for i := 0; i < 1000; i++ {
		r.Update(float64(i))
	}
	assert.Equal(t, int64(1000), r.Count())
	assert.Equal(t, 100, r.Size())
}

func TestExpDecayReservoirNewestPresentAcrossRescales(t *testing.T) {
	clk := clock.NewMock()
	r := NewExpDecayReservoir(10, 0.015, WithExpDecayClock(clk), WithRescaleInterval(time.Minute))

	const n = 500
	for i := 0; i < n; i++ {
		clk.Add(7 * time.Second)
		r.Update(float64(i))

		require.LessOrEqual(t, r.Size(), 10)
		require.Contains(t, r.Snapshot().Values(), float64(i))
	}
	assert.Equal(t, int64(n), r.Count())
	assert.Equal(t, 10, r.Size())
}

func TestExpDecayReservoirBiasedTowardsRecentValues(t *testing.T) {
	clk := clock.NewMock()
	r := NewExpDecayReservoir(1000, 0.01, WithExpDecayClock(clk))

	// 1000 old values followed by 1000 recent ones, 100 minutes later.
	for i := 0; i < 1000; i++ {
		r.Update(1000 + float64(i))
	}
	clk.Add(100 * time.Minute)
	for i := 0; i < 1000; i++ {
		r.Update(2000 + float64(i))
	}

	assert.Equal(t, 1000, r.Size())
	recent := 0
	for _, v := range r.Snapshot().Values() {
		if v >= 2000 {
			recent++
		}
	}
	assert.Greater(t, recent, 990)
}

func TestExpDecayReservoirRescalePreservesOrder(t *testing.T) {
	clk := clock.NewMock()
	r := NewExpDecayReservoir(10, 0.015, WithExpDecayClock(clk))
	for i := 0; i < 10; i++ {
		clk.Add(time.Second)
		r.Update(float64(i))
	}

	before := make(expDecaySampleHeap, len(r.samples))
	copy(before, r.samples)
	snapshot := r.Snapshot().Values()

	clk.Add(2 * time.Hour)
	r.Rescale(clk.Now())

	assert.Equal(t, snapshot, r.Snapshot().Values())
	require.Len(t, r.samples, len(before))
	for i := range before {
		assert.Equal(t, before[i].value, r.samples[i].value)
		assert.Less(t, r.samples[i].priority, before[i].priority)
	}
	assert.Equal(t, clk.Now(), r.landmark)

	// A landmark in the past is ignored.
	r.Rescale(clk.Now().Add(-time.Hour))
	assert.Equal(t, clk.Now(), r.landmark)
}

func TestExpDecayReservoirConcurrent(t *testing.T) {
	r := NewExpDecayReservoir(50, DefaultExpDecayAlpha, WithExpDecayClock(clock.NewMock()))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				r.Update(float64(j))
				_ = r.Snapshot()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(4000), r.Count())
	assert.Equal(t, 50, r.Size())
}

func TestReservoirKind(t *testing.T) {
	assert.Equal(t, "uniform", UniformKind.String())
	assert.Equal(t, "exp-decay", ExpDecayKind.String())
	assert.Equal(t, "unknown", ReservoirKind(9).String())

	assert.IsType(t, &UniformReservoir{}, UniformKind.newReservoir(nil))
	assert.IsType(t, &ExpDecayReservoir{}, ExpDecayKind.newReservoir(clock.NewMock()))
}
