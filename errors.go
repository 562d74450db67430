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

import "errors"

var (
	// ErrMetricTypeMismatch is returned when a get-or-create call names a
	// metric that is already registered with a different type.
	ErrMetricTypeMismatch = errors.New("metric registered with a different type")

	// ErrNameAlreadyUsed is returned when Register is called with a name that
	// already holds a different instance.
	ErrNameAlreadyUsed = errors.New("metric name already in use")

	// ErrUnsupportedMetric is returned when registering a value that is not
	// one of the known instrument kinds.
	ErrUnsupportedMetric = errors.New("unsupported metric")

	// ErrInvalidDelta is returned for negative deltas on monotone instruments.
	ErrInvalidDelta = errors.New("invalid delta")

	// ErrInvalidValue is returned for values that would corrupt statistics,
	// such as NaN or negative durations.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNilSink is returned when a reporter is constructed without a sink.
	ErrNilSink = errors.New("reporter requires a sink")

	// ErrInvalidInterval is returned when a reporter interval is not positive.
	ErrInvalidInterval = errors.New("report interval must be positive")
)
