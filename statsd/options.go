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

package statsd

import "github.com/inspector-go/metrics"

const (
	defaultSampleRate = 1.0
)

// DefaultSanitiseOptions keeps names and values to alphanumerics, dots,
// dashes and underscores, which every statsd daemon accepts.
var DefaultSanitiseOptions = metrics.SanitiseOptions{
	ValidNameCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: metrics.UnderscoreDashDotCharacters,
	},
	ValidKeyCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: metrics.UnderscoreDashCharacters,
	},
	ValidValueCharacters: metrics.ValidCharacters{
		Ranges:     metrics.AlphanumericRange,
		Characters: metrics.UnderscoreDashDotCharacters,
	},
	ReplacementCharacter: metrics.DefaultReplacementCharacter,
}

// Options represents a set of statsd sink options
type Options interface {
	// SampleRate returns the sample rate
	SampleRate() float32

	// SetSampleRate sets the sample rate and returns new options with the value set
	SetSampleRate(value float32) Options

	// Sanitiser returns the sanitiser applied to names and tags
	Sanitiser() metrics.Sanitiser

	// SetSanitiser sets the sanitiser and returns new options with the value set
	SetSanitiser(value metrics.Sanitiser) Options
}

// NewOptions creates a new set of statsd sink options
func NewOptions() Options {
	return &options{
		sampleRate: defaultSampleRate,
		sanitiser:  metrics.NewSanitiser(DefaultSanitiseOptions),
	}
}

type options struct {
	sampleRate float32
	sanitiser  metrics.Sanitiser
}

func (o *options) SampleRate() float32 {
	return o.sampleRate
}

func (o *options) SetSampleRate(value float32) Options {
	opts := *o
	opts.sampleRate = value
	return &opts
}

func (o *options) Sanitiser() metrics.Sanitiser {
	return o.sanitiser
}

func (o *options) SetSanitiser(value metrics.Sanitiser) Options {
	opts := *o
	if value == nil {
		value = metrics.NewNoOpSanitiser()
	}
	opts.sanitiser = value
	return &opts
}
