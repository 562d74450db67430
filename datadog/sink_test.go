package datadog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/inspector-go/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonMetric struct {
	Name   string      `json:"metric"`
	Points [][]float64 `json:"points"`
	Type   string      `json:"type"`
	Tags   []string    `json:"tags,omitempty"`
}

type jsonSeries struct {
	Metrics []jsonMetric `json:"series"`
}

type capture struct {
	mu       sync.Mutex
	batches  [][]jsonMetric
	keys     []string
	status   int
	failures int
}

func (c *capture) handler(t *testing.T) func(req *http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		defer req.Body.Close()
		data, err := io.ReadAll(req.Body)
		require.NoError(t, err)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.failures > 0 {
			c.failures--
			return nil, errors.New("connection refused")
		}

		var s jsonSeries
		require.NoError(t, json.Unmarshal(data, &s))
		c.batches = append(c.batches, s.Metrics)
		c.keys = append(c.keys, req.Header.Get("DD-API-KEY"))

		w := httptest.NewRecorder()
		status := c.status
		if status == 0 {
			status = http.StatusAccepted
		}
		w.WriteHeader(status)
		return w.Result(), nil
	}
}

func record(typ metrics.MetricType) metrics.Record {
	return metrics.Record{
		Measurement: "http requests",
		Type:        typ,
		Timestamp:   time.Unix(1600000000, 0),
		Tags:        map[string]string{"hello": "world", "a": "b"},
	}
}

func TestCounter(t *testing.T) {
	c := &capture{}
	sink, err := New("blah", HandlerFunc(c.handler(t)))
	require.NoError(t, err)

	rec := record(metrics.CounterType)
	rec.Count = 2
	require.NoError(t, sink.Report(context.Background(), rec))
	assert.Empty(t, c.batches)

	require.NoError(t, sink.Flush(context.Background()))
	require.Len(t, c.batches, 1)
	assert.Equal(t, []string{"blah"}, c.keys)

	got := c.batches[0]
	require.Len(t, got, 1)
	assertMetric(t, got[0], "http_requests.count", typeGauge, 2, "a:b", "hello:world")
}

func TestCounterIsCumulativeAcrossTicks(t *testing.T) {
	c := &capture{}
	sink, err := New("blah", HandlerFunc(c.handler(t)))
	require.NoError(t, err)

	clk := clock.NewMock()
	reporter, err := metrics.NewReporter(metrics.ReporterOptions{Sink: sink, Interval: time.Second, Clock: clk})
	require.NoError(t, err)
	registry := metrics.NewRegistry(metrics.WithRegistryClock(clk))
	counter, err := registry.NewCounter("requests")
	require.NoError(t, err)
	reporter.AddRegistry(registry)

	counter.Add(5)
	require.NoError(t, reporter.Report(context.Background()))
	require.NoError(t, reporter.Report(context.Background()))
	counter.Add(-8)
	require.NoError(t, reporter.Report(context.Background()))

	require.Len(t, c.batches, 3)
	var values []float64
	for _, batch := range c.batches {
		require.Len(t, batch, 1)
		assert.Equal(t, "requests.count", batch[0].Name)
		assert.Equal(t, typeGauge, batch[0].Type, "cumulative counts must not be summed by Datadog")
		values = append(values, batch[0].Points[0][1])
	}
	assert.Equal(t, []float64{5, 5, -3}, values)
}

func TestGaugeAndMeter(t *testing.T) {
	c := &capture{}
	sink, err := New("blah", HandlerFunc(c.handler(t)))
	require.NoError(t, err)

	gauge := record(metrics.GaugeType)
	gauge.Value = 1.5
	meter := record(metrics.MeterType)
	meter.Count = 10
	meter.Rates = &metrics.Rates{M1: 1, M5: 2, M15: 3, Mean: 4}

	require.NoError(t, sink.Report(context.Background(), gauge))
	require.NoError(t, sink.Report(context.Background(), meter))
	require.NoError(t, sink.Flush(context.Background()))

	require.Len(t, c.batches, 1)
	got := c.batches[0]
	require.Len(t, got, 6)
	assertMetric(t, got[0], "http_requests.value", typeGauge, 1.5)
	assertMetric(t, got[1], "http_requests.count", typeGauge, 10)
	assertMetric(t, got[2], "http_requests.m1_rate", typeRate, 1)
	assertMetric(t, got[5], "http_requests.mean_rate", typeRate, 4)
}

func TestBufferSize(t *testing.T) {
	c := &capture{}
	sink, err := New("blah", HandlerFunc(c.handler(t)), BufferSize(1))
	require.NoError(t, err)

	rec := record(metrics.CounterType)
	require.NoError(t, sink.Report(context.Background(), rec))
	require.Len(t, c.batches, 1)

	// Nothing left to post.
	require.NoError(t, sink.Flush(context.Background()))
	assert.Len(t, c.batches, 1)
}

func TestRetries(t *testing.T) {
	c := &capture{failures: 2}
	sink, err := New("blah", HandlerFunc(c.handler(t)))
	require.NoError(t, err)

	require.NoError(t, sink.Report(context.Background(), record(metrics.CounterType)))
	require.NoError(t, sink.Flush(context.Background()))
	assert.Len(t, c.batches, 1)

	c.failures = 5
	require.NoError(t, sink.Report(context.Background(), record(metrics.CounterType)))
	err = sink.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 2, c.failures)
}

func TestErrorStatus(t *testing.T) {
	c := &capture{status: http.StatusForbidden}
	sink, err := New("blah", HandlerFunc(c.handler(t)), Attempts(1))
	require.NoError(t, err)

	require.NoError(t, sink.Report(context.Background(), record(metrics.CounterType)))
	err = sink.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClose(t *testing.T) {
	c := &capture{}
	sink, err := New("blah", HandlerFunc(c.handler(t)))
	require.NoError(t, err)

	require.NoError(t, sink.Report(context.Background(), record(metrics.CounterType)))
	require.NoError(t, sink.Close())
	assert.Len(t, c.batches, 1)

	assert.ErrorIs(t, sink.Report(context.Background(), record(metrics.CounterType)), errClosed)
	assert.NoError(t, sink.Close())
}

func TestWithReporter(t *testing.T) {
	c := &capture{}
	sink, err := New("blah", HandlerFunc(c.handler(t)))
	require.NoError(t, err)

	clk := clock.NewMock()
	clk.Add(1600000000 * time.Second)
	reporter, err := metrics.NewReporter(metrics.ReporterOptions{Sink: sink, Interval: time.Second, Clock: clk})
	require.NoError(t, err)
	registry := metrics.NewRegistry(metrics.WithRegistryClock(clk))
	timer, err := registry.NewTimer("latency")
	require.NoError(t, err)
	require.NoError(t, timer.Update(time.Second))
	reporter.AddRegistry(registry)

	require.NoError(t, reporter.Report(context.Background()))
	require.Len(t, c.batches, 1)
	assert.Len(t, c.batches[0], 15)
	assertMetric(t, c.batches[0][1], "latency.min", typeGauge, 1000)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	t.Run("BufferSize", func(t *testing.T) {
		opts := options{}
		BufferSize(123)(&opts)
		assert.EqualValues(t, 123, opts.bufferSize)
	})

	t.Run("Endpoint", func(t *testing.T) {
		opts := options{}
		Endpoint("https://api.datadoghq.eu/api/v1/series")(&opts)
		assert.Equal(t, "https://api.datadoghq.eu/api/v1/series", opts.endpoint)
	})
}

func assertMetric(t *testing.T, m jsonMetric, name, metricType string, value float64, tags ...string) {
	t.Helper()
	assert.Equal(t, name, m.Name)
	assert.Equal(t, metricType, m.Type)
	if len(tags) > 0 {
		assert.Equal(t, tags, m.Tags)
	}
	require.Len(t, m.Points, 1)
	require.Len(t, m.Points[0], 2)
	assert.Equal(t, float64(1600000000), m.Points[0][0])
	assert.Equal(t, value, m.Points[0][1])
}

func TestLive(t *testing.T) {
	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		t.SkipNow()
	}

	sink, err := New(apiKey)
	require.NoError(t, err)
	require.NoError(t, sink.Report(context.Background(), record(metrics.CounterType)))
	require.NoError(t, sink.Close())
}
