// Package datadog posts metric records to the Datadog series API.
package datadog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/inspector-go/metrics"
	"go.elastic.co/fastjson"
	"go.uber.org/multierr"
)

const (
	// DefaultBufferSize contains the number of points the sink will buffer
	// before forcing a flush.
	DefaultBufferSize = 512
	// DefaultAttempts is the number of times a batch is posted before it
	// is dropped.
	DefaultAttempts = 3
	// DefaultEndpoint is the series endpoint of the Datadog API.
	DefaultEndpoint = "https://app.datadoghq.com/api/v1/series"
)

const (
	typeGauge = "gauge"
	typeRate  = "rate"
)

var errClosed = errors.New("datadog sink is closed")

// Datadog metric names are alphanumerics, underscores and periods. Tags are
// sent as given.
var nameSanitiseOptions = metrics.SanitiseOptions{
	ValidNameCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: []rune{'.', '_'},
	},
	ValidKeyCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: metrics.UnderscoreDashDotCharacters,
	},
	ValidValueCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: metrics.UnderscoreDashDotCharacters,
	},
}

type point struct {
	name      string
	kind      string
	timestamp int64
	value     float64
	tags      []string
}

func (p *point) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawString(`{"metric":`)
	w.String(p.name)
	w.RawString(`,"type":`)
	w.String(p.kind)
	w.RawString(`,"points":[[`)
	w.Int64(p.timestamp)
	w.RawByte(',')
	w.Float64(p.value)
	w.RawString(`]]`)
	if len(p.tags) > 0 {
		w.RawString(`,"tags":[`)
		for i, t := range p.tags {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(t)
		}
		w.RawByte(']')
	}
	w.RawByte('}')
	return nil
}

type series []*point

func (s series) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawString(`{"series":[`)
	for i, p := range s {
		if i > 0 {
			w.RawByte(',')
		}
		if err := p.MarshalFastJSON(w); err != nil {
			return err
		}
	}
	w.RawString(`]}`)
	return nil
}

var _ interface {
	metrics.Sink
	metrics.Flusher
	io.Closer
} = (*Sink)(nil)

// Sink buffers the fields of every record as Datadog points and posts them
// when the buffer is full or when the reporter flushes at the end of a
// tick.
type Sink struct {
	endpoint    string
	apiKey      string
	bufSize     int
	attempts    int
	handlerFunc func(*http.Request) (*http.Response, error)
	sanitiser   metrics.Sanitiser

	mu     sync.Mutex
	points []*point
	closed bool
}

type options struct {
	bufferSize  int
	attempts    int
	endpoint    string
	handlerFunc func(req *http.Request) (*http.Response, error)
}

// Option provides functional arguments to the sink.
type Option func(*options)

// BufferSize specifies the number of points buffered before they are
// posted.
func BufferSize(n int) Option {
	return func(o *options) {
		o.bufferSize = n
	}
}

// Attempts specifies how many times a batch is posted before giving up.
func Attempts(n int) Option {
	return func(o *options) {
		o.attempts = n
	}
}

// Endpoint overrides the series endpoint, e.g. for the EU site.
func Endpoint(url string) Option {
	return func(o *options) {
		o.endpoint = url
	}
}

// HandlerFunc allows the http transport to be overridden; useful for testing
func HandlerFunc(h func(req *http.Request) (*http.Response, error)) Option {
	return func(o *options) {
		o.handlerFunc = h
	}
}

// New returns a sink posting with apiKey.
func New(apiKey string, opts ...Option) (*Sink, error) {
	if apiKey == "" {
		return nil, errors.New("datadog sink requires an api key")
	}
	o := options{
		bufferSize:  DefaultBufferSize,
		attempts:    DefaultAttempts,
		endpoint:    DefaultEndpoint,
		handlerFunc: http.DefaultTransport.RoundTrip,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bufferSize <= 0 {
		o.bufferSize = DefaultBufferSize
	}
	if o.attempts <= 0 {
		o.attempts = 1
	}

	return &Sink{
		endpoint:    o.endpoint,
		apiKey:      apiKey,
		bufSize:     o.bufferSize,
		attempts:    o.attempts,
		handlerFunc: o.handlerFunc,
		sanitiser:   metrics.NewSanitiser(nameSanitiseOptions),
		points:      make([]*point, 0, o.bufferSize),
	}, nil
}

// Report buffers one point per field of rec, named <measurement>.<field>.
func (s *Sink) Report(ctx context.Context, rec metrics.Record) error {
	name := s.sanitiser.Name(rec.Measurement)
	tags := formatTags(rec.Tags)
	ts := rec.Timestamp.Unix()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	var err error
	for _, f := range rec.Fields() {
		s.points = append(s.points, &point{
			name:      name + "." + f.Name,
			kind:      kindOf(f.Name),
			timestamp: ts,
			value:     safeFloat(f.Value),
			tags:      tags,
		})
		if len(s.points) >= s.bufSize {
			err = multierr.Append(err, s.flushLocked(ctx))
		}
	}
	return err
}

// Flush posts the buffered points.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// Close posts what is left and rejects further records.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.flushLocked(context.Background())
}

// flushLocked assumes the caller holds s.mu. The buffer is emptied whether
// or not the post succeeds.
func (s *Sink) flushLocked(ctx context.Context) error {
	if len(s.points) == 0 {
		return nil
	}
	batch := series(s.points)
	s.points = make([]*point, 0, s.bufSize)

	var w fastjson.Writer
	if err := batch.MarshalFastJSON(&w); err != nil {
		return err
	}
	return s.submit(ctx, w.Bytes())
}

// submit posts data, retrying up to the configured number of attempts.
func (s *Sink) submit(ctx context.Context, data []byte) error {
	var errs error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		err := s.post(ctx, data)
		if err == nil {
			return nil
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (s *Sink) post(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", s.apiKey)

	resp, err := s.handlerFunc(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("datadog responded %s", resp.Status)
	}
	return nil
}

// kindOf maps a record field to a Datadog type. Records carry cumulative
// counts, which Datadog would sum across intervals if sent as "count", so
// counts are sent as gauges like every other non rate field.
func kindOf(field string) string {
	if strings.HasSuffix(field, "_rate") {
		return typeRate
	}
	return typeGauge
}

func formatTags(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	result := make([]string, 0, len(tags))
	for k, v := range tags {
		result = append(result, k+":"+v)
	}
	sort.Strings(result)
	return result
}

func safeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
