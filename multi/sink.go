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

// Package multi fans records out to several sinks.
package multi

import (
	"context"
	"io"

	"github.com/inspector-go/metrics"
	"go.uber.org/multierr"
)

type multi struct {
	sinks []metrics.Sink
}

var (
	_ metrics.Sink    = (*multi)(nil)
	_ metrics.Flusher = (*multi)(nil)
	_ io.Closer       = (*multi)(nil)
)

// NewMultiSink creates a sink reporting every record to each of sinks in
// order. A failing sink does not prevent the others from receiving the
// record, errors are combined.
func NewMultiSink(sinks ...metrics.Sink) metrics.Sink {
	return &multi{sinks: sinks}
}

func (m *multi) Report(ctx context.Context, rec metrics.Record) error {
	var err error
	for _, s := range m.sinks {
		err = multierr.Append(err, s.Report(ctx, rec))
	}
	return err
}

// Flush flushes the sinks implementing metrics.Flusher.
func (m *multi) Flush(ctx context.Context) error {
	var err error
	for _, s := range m.sinks {
		if f, ok := s.(metrics.Flusher); ok {
			err = multierr.Append(err, f.Flush(ctx))
		}
	}
	return err
}

// Close closes the sinks implementing io.Closer.
func (m *multi) Close() error {
	var err error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
