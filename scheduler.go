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
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// Scheduler runs a tick function every interval until the returned cancel
// function is called. Cancel must be safe to call more than once.
type Scheduler interface {
	Schedule(tick func(), interval time.Duration) (cancel func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(tick func(), interval time.Duration) func()

// Schedule calls f(tick, interval).
func (f SchedulerFunc) Schedule(tick func(), interval time.Duration) func() {
	return f(tick, interval)
}

type tickerScheduler struct {
	clock clock.Clock
}

// NewTickerScheduler returns a Scheduler driving each schedule with its own
// goroutine and clock ticker. Ticks run on that goroutine one at a time, a
// tick that fires while the previous one is still running is dropped.
func NewTickerScheduler(c clock.Clock) Scheduler {
	return tickerScheduler{clock: clockOrDefault(c)}
}

func (s tickerScheduler) Schedule(tick func(), interval time.Duration) func() {
	ticker := s.clock.Ticker(interval)
	quit := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick()
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
	}
}
