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

package prometheus

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inspector-go/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfiguration(t *testing.T) {
	cfg, err := ParseConfiguration([]byte(`
handlerPath: /stats
listenAddress: 127.0.0.1:0
namespace: svc
tags:
  region: eu
`))
	require.NoError(t, err)
	assert.Equal(t, Configuration{
		HandlerPath:   "/stats",
		ListenAddress: "127.0.0.1:0",
		Namespace:     "svc",
		Tags:          map[string]string{"region": "eu"},
	}, cfg)

	_, err = ParseConfiguration([]byte("namespace: bad-namespace\n"))
	require.Error(t, err)

	_, err = ParseConfiguration([]byte("unknown: 1\n"))
	require.Error(t, err)
}

func TestNewServerMountsOnMux(t *testing.T) {
	mux := http.NewServeMux()
	s, err := Configuration{}.NewServer(ConfigurationOptions{Mux: mux})
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()
	assert.Equal(t, "/metrics", s.Path())
	assert.Nil(t, s.Addr())

	registry := metrics.NewRegistry()
	counter, err := registry.NewCounter("requests")
	require.NoError(t, err)
	counter.Add(7)
	s.AddRegistry(registry)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requests 7")
}

func TestNewServerListens(t *testing.T) {
	s, err := Configuration{
		HandlerPath:   "/stats",
		ListenAddress: "127.0.0.1:0",
	}.NewServer(ConfigurationOptions{})
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	registry := metrics.NewRegistry()
	gauge := metrics.NewSimpleGauge("temperature")
	gauge.Set(3)
	require.NoError(t, registry.RegisterNamed(gauge))
	s.AddRegistry(registry)

	resp, err := http.Get("http://" + s.Addr().String() + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "temperature 3")
}

func TestNewServerListenError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()

	_, err = Configuration{ListenAddress: listener.Addr().String()}.NewServer(ConfigurationOptions{})
	require.Error(t, err)
}
