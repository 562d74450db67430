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
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sink receives the records produced by a Reporter.
type Sink interface {
	// Report handles one record. Errors are logged by the reporter and do
	// not stop reporting.
	Report(ctx context.Context, rec Record) error
}

// Flusher is implemented by sinks that buffer records. Flush is called
// once at the end of every report tick.
type Flusher interface {
	Flush(ctx context.Context) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, rec Record) error

// Report calls f(ctx, rec).
func (f SinkFunc) Report(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// ReporterOptions is a set of options for a Reporter.
type ReporterOptions struct {
	// Sink receives one record per metric per tick. Required.
	Sink Sink
	// Interval between two ticks. Required.
	Interval time.Duration
	// Tags are merged under registry and instrument tags.
	Tags map[string]string
	// Clock stamps records and drives the default scheduler.
	Clock clock.Clock
	// Scheduler runs the ticks, defaults to a ticker scheduler on Clock.
	Scheduler Scheduler
	// DurationUnit is the unit of reported timer distributions, defaults to
	// time.Millisecond. Rates are always per second.
	DurationUnit time.Duration
	// Logger receives sink failures, defaults to a no-op logger.
	Logger *zap.Logger
}

// Reporter periodically turns the metrics of its registries into records
// and hands them to a Sink.
//
// A Reporter is either stopped or scheduled. Ticks never overlap and a tick
// that fires after Stop returned is ignored. A tick already dispatching
// when Stop is called is allowed to finish.
type Reporter struct {
	sink         Sink
	interval     time.Duration
	tags         map[string]string
	clock        clock.Clock
	scheduler    Scheduler
	durationUnit time.Duration
	logger       *zap.Logger

	mu         sync.Mutex
	registries []*Registry
	cancel     func()
	running    atomic.Bool

	tickMu sync.Mutex
}

// NewReporter creates a stopped reporter.
func NewReporter(opts ReporterOptions) (*Reporter, error) {
	if opts.Sink == nil {
		return nil, ErrNilSink
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, opts.Interval)
	}

	r := &Reporter{
		sink:         opts.Sink,
		interval:     opts.Interval,
		tags:         copyStringMap(opts.Tags),
		clock:        clockOrDefault(opts.Clock),
		scheduler:    opts.Scheduler,
		durationUnit: opts.DurationUnit,
		logger:       opts.Logger,
	}
	if r.scheduler == nil {
		r.scheduler = NewTickerScheduler(r.clock)
	}
	if r.durationUnit <= 0 {
		r.durationUnit = time.Millisecond
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// AddRegistry adds reg to the reported registries. Adding a registry twice
// has no effect.
func (r *Reporter) AddRegistry(reg *Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.registries {
		if existing == reg {
			return
		}
	}
	r.registries = append(r.registries, reg)
}

// RemoveRegistry stops reporting reg. Removing an unknown registry has no
// effect.
func (r *Reporter) RemoveRegistry(reg *Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.registries {
		if existing == reg {
			r.registries = append(r.registries[:i], r.registries[i+1:]...)
			return
		}
	}
}

// Start schedules the reporter. It is a no-op when already scheduled. The
// schedule is created even when no registry has been added.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	r.running.Store(true)
	r.cancel = r.scheduler.Schedule(r.tick, r.interval)
}

// Stop cancels the schedule. It is a no-op when already stopped.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.running.Store(false)
	r.cancel()
	r.cancel = nil
}

// IsRunning reports whether the reporter is scheduled.
func (r *Reporter) IsRunning() bool {
	return r.running.Load()
}

// Close stops the reporter and closes the sink if it is an io.Closer.
func (r *Reporter) Close() error {
	r.Stop()
	if closer, ok := r.sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Report runs one report synchronously, whether the reporter is scheduled
// or not, and returns the combined sink errors.
func (r *Reporter) Report(ctx context.Context) error {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()
	return r.reportLocked(ctx)
}

func (r *Reporter) tick() {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	// A tick may already be queued by the scheduler when Stop runs.
	if !r.running.Load() {
		return
	}
	if err := r.reportLocked(context.Background()); err != nil {
		r.logger.Warn("metrics report finished with errors", zap.Error(err))
	}
}

func (r *Reporter) reportLocked(ctx context.Context) error {
	r.mu.Lock()
	registries := make([]*Registry, len(r.registries))
	copy(registries, r.registries)
	r.mu.Unlock()

	now := r.clock.Now()

	var errs error
	for _, reg := range registries {
		for e := range reg.Metrics() {
			rec, ok := NewRecord(e, now, r.tags, r.durationUnit)
			if !ok {
				continue
			}
			if err := r.dispatch(ctx, rec); err != nil {
				r.logger.Warn("failed to report metric",
					zap.String("measurement", rec.Measurement),
					zap.Stringer("type", rec.Type),
					zap.Error(err),
				)
				errs = multierr.Append(errs, err)
			}
		}
	}

	if flusher, ok := r.sink.(Flusher); ok {
		if err := r.flush(ctx, flusher); err != nil {
			r.logger.Warn("failed to flush metrics sink", zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (r *Reporter) dispatch(ctx context.Context, rec Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panicked: %v", p)
		}
	}()
	return r.sink.Report(ctx, rec)
}

func (r *Reporter) flush(ctx context.Context, f Flusher) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink flush panicked: %v", p)
		}
	}()
	return f.Flush(ctx)
}
