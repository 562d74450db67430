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
	"iter"
	"sync"

	"github.com/facebookgo/clock"
)

// Registry is a collection of named, tagged metrics. A name holds at most
// one metric. Registry tags are merged under the tags of each metric when
// the registry is iterated.
//
// A Registry has no background activity and needs no shutdown, create one
// at process start (or per test) and hand it to the reporters that should
// report it.
type Registry struct {
	TagSet

	mu      sync.RWMutex
	clock   clock.Clock
	metrics map[string]Metric
	names   []string
}

// Entry is one metric of a registry as seen by reporters.
type Entry struct {
	Name   string
	Type   MetricType
	Metric Metric
	// Tags holds the registry tags overlaid by the metric tags.
	Tags map[string]string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryClock sets the clock handed to instruments created by the
// registry.
func WithRegistryClock(c clock.Clock) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithRegistryTags sets the initial registry tags.
func WithRegistryTags(tags map[string]string) RegistryOption {
	return func(r *Registry) {
		r.setTags(tags)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		clock:   globalClock,
		metrics: make(map[string]Metric),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// InstrumentOption configures instruments created through a Registry.
// Options only apply when the instrument is created, they are ignored when
// an existing instrument is returned.
type InstrumentOption func(*instrumentConfig)

type instrumentConfig struct {
	reservoir func() Reservoir
	kind      ReservoirKind
	tags      map[string]string
}

// WithReservoir sets the factory of the reservoir backing a histogram or a
// timer.
func WithReservoir(factory func() Reservoir) InstrumentOption {
	return func(c *instrumentConfig) { c.reservoir = factory }
}

// WithReservoirKind selects a built in reservoir for a histogram or a timer.
func WithReservoirKind(kind ReservoirKind) InstrumentOption {
	return func(c *instrumentConfig) { c.kind = kind }
}

// WithTags sets the initial tags of the instrument.
func WithTags(tags map[string]string) InstrumentOption {
	return func(c *instrumentConfig) {
		if len(tags) == 0 {
			return
		}
		if c.tags == nil {
			c.tags = make(map[string]string, len(tags))
		}
		for k, v := range tags {
			c.tags[k] = v
		}
	}
}

func (c instrumentConfig) newReservoir(clk clock.Clock) Reservoir {
	if c.reservoir != nil {
		if r := c.reservoir(); r != nil {
			return r
		}
	}
	return c.kind.newReservoir(clk)
}

// NewCounter returns the counter registered under name, creating it if
// needed.
func (r *Registry) NewCounter(name string, opts ...InstrumentOption) (*Counter, error) {
	return getOrCreate(r, name, opts, func(instrumentConfig, clock.Clock) *Counter {
		return NewCounter()
	})
}

// NewMonotoneCounter returns the monotone counter registered under name,
// creating it if needed.
func (r *Registry) NewMonotoneCounter(name string, opts ...InstrumentOption) (*MonotoneCounter, error) {
	return getOrCreate(r, name, opts, func(instrumentConfig, clock.Clock) *MonotoneCounter {
		return NewMonotoneCounter()
	})
}

// NewHistogram returns the histogram registered under name, creating it if
// needed. New histograms use an exponentially decaying reservoir unless
// configured otherwise.
func (r *Registry) NewHistogram(name string, opts ...InstrumentOption) (*Histogram, error) {
	return getOrCreate(r, name, opts, func(cfg instrumentConfig, clk clock.Clock) *Histogram {
		return NewHistogram(cfg.newReservoir(clk))
	})
}

// NewMeter returns the meter registered under name, creating it if needed.
func (r *Registry) NewMeter(name string, opts ...InstrumentOption) (*Meter, error) {
	return getOrCreate(r, name, opts, func(_ instrumentConfig, clk clock.Clock) *Meter {
		return NewMeter(clk)
	})
}

// NewTimer returns the timer registered under name, creating it if needed.
func (r *Registry) NewTimer(name string, opts ...InstrumentOption) (*Timer, error) {
	return getOrCreate(r, name, opts, func(cfg instrumentConfig, clk clock.Clock) *Timer {
		return NewTimer(clk, cfg.newReservoir(clk))
	})
}

func getOrCreate[T Metric](
	r *Registry,
	name string,
	opts []InstrumentOption,
	create func(instrumentConfig, clock.Clock) T,
) (T, error) {
	r.mu.RLock()
	existing, ok := r.metrics[name]
	r.mu.RUnlock()
	if ok {
		return asMetric[T](name, existing)
	}

	var cfg instrumentConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.metrics[name]; ok {
		return asMetric[T](name, existing)
	}

	m := create(cfg, r.clock)
	for k, v := range cfg.tags {
		m.SetTag(k, v)
	}
	r.insertLocked(name, m)
	return m, nil
}

func asMetric[T Metric](name string, m Metric) (T, error) {
	t, ok := m.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q is a %T", ErrMetricTypeMismatch, name, m)
	}
	return t, nil
}

// Register adds a metric built outside of the registry, such as a custom
// Gauge. Registering the same instance twice is a no-op, registering a
// different instance under a used name fails with ErrNameAlreadyUsed.
func (r *Registry) Register(name string, m Metric) error {
	if m == nil {
		return fmt.Errorf("%w: nil metric for %q", ErrUnsupportedMetric, name)
	}
	if _, ok := TypeOf(m); !ok {
		return fmt.Errorf("%w: %q is a %T", ErrUnsupportedMetric, name, m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.metrics[name]; ok {
		if existing == m {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrNameAlreadyUsed, name)
	}
	r.insertLocked(name, m)
	return nil
}

// RegisterNamed registers m under its own name.
func (r *Registry) RegisterNamed(m NamedMetric) error {
	if m == nil {
		return fmt.Errorf("%w: nil metric", ErrUnsupportedMetric)
	}
	return r.Register(m.Name(), m)
}

func (r *Registry) insertLocked(name string, m Metric) {
	r.metrics[name] = m
	r.names = append(r.names, name)
}

// Get returns the metric registered under name.
func (r *Registry) Get(name string) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	return m, ok
}

// Remove removes the metric registered under name and reports whether it
// was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.metrics[name]; !ok {
		return false
	}
	delete(r.metrics, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered metrics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Metrics returns the registered metrics in registration order. The
// sequence is lazy and can be ranged over repeatedly, every iteration
// starts from the metrics registered at that time.
func (r *Registry) Metrics() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		r.mu.RLock()
		names := make([]string, len(r.names))
		copy(names, r.names)
		metrics := make([]Metric, len(names))
		for i, name := range names {
			metrics[i] = r.metrics[name]
		}
		r.mu.RUnlock()

		registryTags := r.Tags()
		for i, m := range metrics {
			typ, _ := TypeOf(m)
			e := Entry{
				Name:   names[i],
				Type:   typ,
				Metric: m,
				Tags:   MergeTags(registryTags, m.Tags()),
			}
			if !yield(e) {
				return
			}
		}
	}
}

// SetDefaultClock sets the clock handed to instruments created from now on.
// Existing instruments keep their clock.
func (r *Registry) SetDefaultClock(c clock.Clock) {
	r.mu.Lock()
	r.clock = clockOrDefault(c)
	r.mu.Unlock()
}
