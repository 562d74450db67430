// Package statsd reports metric records to a statsd daemon.
package statsd

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/inspector-go/metrics"
	"go.uber.org/multierr"
)

var errNilStatter = errors.New("statsd sink requires a statter")

var _ metrics.Sink = (*Sink)(nil)

// Sink sends every numeric field of a record as a statsd gauge named
// <measurement>.<field>. Counts are sent as integer gauges since records
// carry cumulative values.
type Sink struct {
	statter    statsd.Statter
	sampleRate float32
	sanitiser  metrics.Sanitiser
}

// NewSink wraps statter. Nil options mean NewOptions().
func NewSink(statter statsd.Statter, opts Options) (*Sink, error) {
	if statter == nil {
		return nil, errNilStatter
	}
	if opts == nil {
		opts = NewOptions()
	}
	return &Sink{
		statter:    statter,
		sampleRate: opts.SampleRate(),
		sanitiser:  opts.Sanitiser(),
	}, nil
}

// Report sends the fields of rec. Every field is attempted, the errors are
// combined.
func (s *Sink) Report(_ context.Context, rec metrics.Record) error {
	name := s.sanitiser.Name(rec.Measurement)
	tags := s.tags(rec.Tags)

	var err error
	for _, f := range rec.Fields() {
		stat := name + "." + f.Name
		if f.Name == "count" {
			err = multierr.Append(err, s.statter.Gauge(stat, rec.Count, s.sampleRate, tags...))
			continue
		}
		err = multierr.Append(err, s.statter.GaugeFloat(stat, safeFloat(f.Value), s.sampleRate, tags...))
	}
	return err
}

// Close closes the statter.
func (s *Sink) Close() error {
	return s.statter.Close()
}

func (s *Sink) tags(tags map[string]string) []statsd.Tag {
	if len(tags) == 0 {
		return nil
	}
	sanitised := s.sanitiser.Tags(tags)
	keys := make([]string, 0, len(sanitised))
	for k := range sanitised {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]statsd.Tag, 0, len(keys))
	for _, k := range keys {
		result = append(result, statsd.Tag{k, sanitised[k]})
	}
	return result
}

// safeFloat replaces values statsd can not represent with zero.
func safeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
