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

const (
	_resultType        = "result_type"
	_resultTypeError   = "error"
	_resultTypeSuccess = "success"
	_timingFormat      = "latency"
)

// ExecFn is an executable function that can be instrumented with an
// InstrumentedCall.
type ExecFn func() error

// InstrumentedCall is a wrapper around an ExecFn that records whether it
// succeeded and how long it took.
type InstrumentedCall interface {
	// Exec executes the given block of code, and records whether it
	// succeeded or failed, and the amount of time that it took.
	Exec(f ExecFn) error
}

// NewInstrumentedCall returns an InstrumentedCall with the given name. It
// registers the meters <name>.success and <name>.error, tagged with their
// result type, and the timer <name>.latency.
func NewInstrumentedCall(r *Registry, name string) (InstrumentedCall, error) {
	success, err := r.NewMeter(name+"."+_resultTypeSuccess,
		WithTags(map[string]string{_resultType: _resultTypeSuccess}))
	if err != nil {
		return nil, err
	}
	failure, err := r.NewMeter(name+"."+_resultTypeError,
		WithTags(map[string]string{_resultType: _resultTypeError}))
	if err != nil {
		return nil, err
	}
	timing, err := r.NewTimer(name + "." + _timingFormat)
	if err != nil {
		return nil, err
	}
	return &instrumentedCall{
		success: success,
		error:   failure,
		timing:  timing,
	}, nil
}

type instrumentedCall struct {
	success *Meter
	error   *Meter
	timing  *Timer
}

// Exec executes the given block of code, and records whether it succeeded or
// failed, and the amount of time that it took
func (c *instrumentedCall) Exec(f ExecFn) error {
	sw := c.timing.Start()
	err := f()
	sw.Stop()

	if err != nil {
		_ = c.error.Mark(1)
		return err
	}

	_ = c.success.Mark(1)

	return nil
}
