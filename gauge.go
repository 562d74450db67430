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

import "go.uber.org/atomic"

// SimpleGauge is a Gauge holding the last value set.
type SimpleGauge struct {
	TagSet

	name  string
	value atomic.Float64
}

var _ NamedMetric = (*SimpleGauge)(nil)

// NewSimpleGauge creates a gauge that can be registered with
// Registry.RegisterNamed under name.
func NewSimpleGauge(name string) *SimpleGauge {
	return &SimpleGauge{name: name}
}

// Name returns the registration name.
func (g *SimpleGauge) Name() string {
	return g.name
}

// Set updates the value of the gauge.
func (g *SimpleGauge) Set(v float64) {
	g.value.Store(v)
}

// Value returns the last value set.
func (g *SimpleGauge) Value() float64 {
	return g.value.Load()
}

// FuncGauge is a Gauge calling a function on every read.
type FuncGauge struct {
	TagSet

	name string
	fn   func() float64
}

var _ NamedMetric = (*FuncGauge)(nil)

// NewFuncGauge creates a gauge whose value is fn().
func NewFuncGauge(name string, fn func() float64) *FuncGauge {
	return &FuncGauge{name: name, fn: fn}
}

// Name returns the registration name.
func (g *FuncGauge) Name() string {
	return g.name
}

// Value returns fn().
func (g *FuncGauge) Value() float64 {
	return g.fn()
}

// FuncStringGauge is a StringGauge calling a function on every read.
type FuncStringGauge struct {
	TagSet

	name string
	fn   func() string
}

var (
	_ NamedMetric = (*FuncStringGauge)(nil)
	_ StringGauge = (*FuncStringGauge)(nil)
)

// NewFuncStringGauge creates a gauge whose value is fn().
func NewFuncStringGauge(name string, fn func() string) *FuncStringGauge {
	return &FuncStringGauge{name: name, fn: fn}
}

// Name returns the registration name.
func (g *FuncStringGauge) Name() string {
	return g.name
}

// StringValue returns fn().
func (g *FuncStringGauge) StringValue() string {
	return g.fn()
}
