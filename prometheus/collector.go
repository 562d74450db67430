// Package prometheus exposes registries to Prometheus scrapes.
package prometheus

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/inspector-go/metrics"
	"github.com/inspector-go/metrics/internal/cache"
	"github.com/inspector-go/metrics/internal/identity"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultSanitiseOptions restricts names and label keys to the Prometheus
// data model.
var DefaultSanitiseOptions = metrics.SanitiseOptions{
	ValidNameCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: []rune{'_', ':'},
	},
	ValidKeyCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: metrics.UnderscoreCharacters,
	},
	ValidValueCharacters: metrics.ValidCharacters{
		Ranges: []metrics.SanitiseRange{{0, 0x10FFFF}},
	},
	ReplacementCharacter: metrics.DefaultReplacementCharacter,
}

// Options is a set of options for a Collector.
type Options struct {
	// Namespace prefixes every metric name.
	Namespace string
	// Tags are constant labels merged under registry and instrument tags.
	Tags map[string]string
}

var _ prom.Collector = (*Collector)(nil)

// Collector turns the metrics of its registries into Prometheus metrics on
// every scrape:
//
//	Counter          gauge <name>
//	MonotoneCounter  counter <name>_total
//	Gauge            gauge <name>
//	Histogram        summary <name>
//	Meter            counter <name>_total, gauges <name>_m1_rate ... <name>_mean_rate
//	Timer            summary <name>_seconds and the meter metrics
//
// Summaries carry the reservoir quantiles. It is an unchecked collector:
// label sets follow the instrument tags as they change. When several
// registries yield the same metric name with the same labels, only the
// first one, in the order registries were added, is exposed.
type Collector struct {
	tags     map[string]string
	names    *cache.NameCache
	keys     *cache.NameCache
	descs    *cache.DescCache
	registry *prom.Registry

	mu         sync.RWMutex
	registries []*metrics.Registry
}

// NewCollector creates a collector registered in its own Prometheus
// registry, served by HTTPHandler. It can also be registered elsewhere.
func NewCollector(opts Options) *Collector {
	sanitiser := metrics.NewSanitiser(DefaultSanitiseOptions)
	prefix := ""
	if opts.Namespace != "" {
		prefix = sanitiser.Name(opts.Namespace) + "_"
	}

	c := &Collector{
		tags: sanitiser.Tags(opts.Tags),
		names: cache.NewNameCache(func(s string) string {
			return validName(prefix + sanitiser.Name(s))
		}),
		keys: cache.NewNameCache(func(s string) string {
			return validName(sanitiser.Key(s))
		}),
		descs:    cache.NewDescCache(),
		registry: prom.NewRegistry(),
	}
	c.registry.MustRegister(c)
	return c
}

// validName makes sure a sanitised name does not start with a digit.
func validName(s string) string {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return "_" + s
	}
	return s
}

// AddRegistry adds reg to the collected registries. Adding a registry twice
// has no effect.
func (c *Collector) AddRegistry(reg *metrics.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.registries {
		if existing == reg {
			return
		}
	}
	c.registries = append(c.registries, reg)
}

// RemoveRegistry stops collecting reg.
func (c *Collector) RemoveRegistry(reg *metrics.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.registries {
		if existing == reg {
			c.registries = append(c.registries[:i], c.registries[i+1:]...)
			return
		}
	}
}

// Gatherer returns the Prometheus registry the collector is registered in.
func (c *Collector) Gatherer() prom.Gatherer {
	return c.registry
}

// HTTPHandler returns the handler serving the collector in the text
// exposition format.
func (c *Collector) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Describe sends no descriptors, which makes the collector unchecked.
func (c *Collector) Describe(chan<- *prom.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	c.mu.RLock()
	registries := make([]*metrics.Registry, len(c.registries))
	copy(registries, c.registries)
	c.mu.RUnlock()

	seen := make(map[uint64]struct{})
	for _, reg := range registries {
		for e := range reg.Metrics() {
			c.collect(ch, seen, e)
		}
	}
}

type series struct {
	c        *Collector
	ch       chan<- prom.Metric
	seen     map[uint64]struct{}
	name     string
	help     string
	keys     []string
	values   []string
	labelsID uint64
}

func (c *Collector) collect(ch chan<- prom.Metric, seen map[uint64]struct{}, e metrics.Entry) {
	tags := metrics.MergeTags(c.tags, e.Tags)
	labels := make(map[string]string, len(tags))
	for k, v := range tags {
		labels[c.keys.Get(k)] = v
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = labels[k]
	}

	s := series{
		c:        c,
		ch:       ch,
		seen:     seen,
		name:     c.names.Get(e.Name),
		help:     e.Name + " " + e.Type.String(),
		keys:     keys,
		values:   values,
		labelsID: identity.StringStringMap(labels),
	}

	switch m := e.Metric.(type) {
	case *metrics.Counter:
		s.value("", prom.GaugeValue, float64(m.Count()))
	case *metrics.MonotoneCounter:
		s.value("_total", prom.CounterValue, float64(m.Count()))
	case *metrics.Histogram:
		snap := m.Snapshot()
		s.summary("", snap.Count, snap.Sum, snap.Sample, 1)
	case *metrics.Meter:
		s.rates(m.Snapshot())
	case *metrics.Timer:
		snap := m.Snapshot()
		scale := float64(time.Second)
		s.summary("_seconds", snap.Histogram.Count, snap.Histogram.Sum/scale, snap.Histogram.Sample, scale)
		s.rates(snap.Rates)
	case metrics.Gauge:
		s.value("", prom.GaugeValue, m.Value())
	}
}

func (s series) desc(suffix string) *prom.Desc {
	return s.c.descs.Get(s.name+suffix, s.help, s.keys)
}

// first reports whether name has not been sent yet with the series labels
// during the current collection, and marks it as sent.
func (s series) first(name string) bool {
	id := identity.NewAccumulatorWithSeed(s.labelsID).AddString(name).Value()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

func (s series) send(desc *prom.Desc, m prom.Metric, err error) {
	if err != nil {
		s.ch <- prom.NewInvalidMetric(desc, err)
		return
	}
	s.ch <- m
}

func (s series) value(suffix string, typ prom.ValueType, v float64) {
	if !s.first(s.name + suffix) {
		return
	}
	desc := s.desc(suffix)
	m, err := prom.NewConstMetric(desc, typ, v, s.values...)
	s.send(desc, m, err)
}

func (s series) summary(suffix string, count int64, sum float64, sample metrics.Sample, scale float64) {
	if !s.first(s.name + suffix) {
		return
	}
	quantiles := make(map[float64]float64, len(metrics.DistributionQuantiles))
	for i, v := range sample.Percentiles(metrics.DistributionQuantiles) {
		quantiles[metrics.DistributionQuantiles[i]] = v / scale
	}
	desc := s.desc(suffix)
	m, err := prom.NewConstSummary(desc, uint64(count), sum, quantiles, s.values...)
	s.send(desc, m, err)
}

func (s series) rates(snap metrics.MeterSnapshot) {
	s.value("_total", prom.CounterValue, float64(snap.Count))
	s.value("_m1_rate", prom.GaugeValue, snap.Rate1)
	s.value("_m5_rate", prom.GaugeValue, snap.Rate5)
	s.value("_m15_rate", prom.GaugeValue, snap.Rate15)
	s.value("_mean_rate", prom.GaugeValue, snap.RateMean)
}

// MetricName returns the exposed name of a registry metric, without the
// type suffix.
func (c *Collector) MetricName(name string) string {
	return c.names.Get(name)
}
