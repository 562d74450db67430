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
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	validator "gopkg.in/validator.v2"
	yaml "gopkg.in/yaml.v2"
)

const defaultHandlerPath = "/metrics"

// Configuration is a configuration for a Prometheus collector.
type Configuration struct {
	// HandlerPath if specified will be used instead of using the default
	// HTTP handler path "/metrics".
	HandlerPath string `yaml:"handlerPath"`

	// ListenAddress if specified starts an HTTP server serving the handler,
	// otherwise the handler is only mounted on the configured mux.
	ListenAddress string `yaml:"listenAddress"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" validate:"regexp=^[a-zA-Z_]*$"`

	// Tags are constant labels added to every metric.
	Tags map[string]string `yaml:"tags"`
}

// ConfigurationOptions carries the dependencies that can not be expressed in
// YAML.
type ConfigurationOptions struct {
	// Mux receives the handler when set.
	Mux *http.ServeMux
	// OnError is called when the HTTP server stops with an error.
	OnError func(e error)
}

// Server is a collector together with the HTTP server exposing it.
type Server struct {
	*Collector

	path     string
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// ParseConfiguration decodes and validates a YAML configuration.
func ParseConfiguration(data []byte) (Configuration, error) {
	var c Configuration
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Configuration{}, fmt.Errorf("decoding prometheus configuration: %w", err)
	}
	if err := validator.Validate(c); err != nil {
		return Configuration{}, fmt.Errorf("invalid prometheus configuration: %w", err)
	}
	return c, nil
}

// NewServer creates a collector from this configuration and exposes it.
func (c Configuration) NewServer(configOpts ConfigurationOptions) (*Server, error) {
	if err := validator.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid prometheus configuration: %w", err)
	}

	collector := NewCollector(Options{
		Namespace: c.Namespace,
		Tags:      c.Tags,
	})

	path := defaultHandlerPath
	if handlerPath := strings.TrimSpace(c.HandlerPath); handlerPath != "" {
		path = handlerPath
	}

	s := &Server{Collector: collector, path: path}

	if configOpts.Mux != nil {
		configOpts.Mux.Handle(path, collector.HTTPHandler())
	}

	if addr := strings.TrimSpace(c.ListenAddress); addr != "" {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("listening on %s: %w", addr, err)
		}

		mux := http.NewServeMux()
		mux.Handle(path, collector.HTTPHandler())
		s.listener = listener
		s.server = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.done = make(chan struct{})

		go func() {
			defer close(s.done)
			if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				if configOpts.OnError != nil {
					configOpts.OnError(err)
				}
			}
		}()
	}

	return s, nil
}

// Path returns the HTTP path of the handler.
func (s *Server) Path() string {
	return s.path
}

// Addr returns the address the server listens on, nil when no listen
// address was configured.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the HTTP server and waits for it to exit.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	<-s.done
	return err
}
