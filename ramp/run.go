// {{{ Copyright (c) Paul R. Tagliamonte <paul@k3xec.com>, 2021
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
// THE SOFTWARE. }}}

package ramp

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultInterval is how long Run sleeps between polls when no interval is
// given.
const DefaultInterval = 50 * time.Millisecond

// Sink consumes Commands as they are produced.
type Sink interface {
	Send(Command) error
}

// SinkFunc adapts a plain function into a Sink.
type SinkFunc func(Command) error

// Send calls f(cmd).
func (f SinkFunc) Send(cmd Command) error {
	return f(cmd)
}

// WriterSink writes every Command to W, one per line.
type WriterSink struct {
	W io.Writer
}

// Send will write the command followed by a newline.
func (s WriterSink) Send(cmd Command) error {
	_, err := fmt.Fprintln(s.W, cmd)
	return err
}

// VoltageSetter is anything that can have its output voltage set, such as a
// ka3005p.Device.
type VoltageSetter interface {
	SetVoltage(volts float64) error
}

// DeviceSink applies every Command directly to a power supply.
type DeviceSink struct {
	Device VoltageSetter
}

// Send will parse the voltage out of cmd and set it on the Device.
func (s DeviceSink) Send(cmd Command) error {
	arg := strings.TrimPrefix(string(cmd), "voltage ")
	if arg == string(cmd) {
		return fmt.Errorf("ramp: not a voltage command: %q", cmd)
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return fmt.Errorf("ramp: bad voltage in %q: %w", cmd, err)
	}
	return s.Device.SetVoltage(v)
}

// Run will poll gen every interval, handing each Command to sink, until the
// ramp is over or ctx is done. Cancellation is a normal way to stop and is not
// reported as an error; only a failing sink is.
func Run(ctx context.Context, gen *Generator, sink Sink, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		cmd, ok := gen.Next()
		if !ok {
			return nil
		}
		if err := sink.Send(cmd); err != nil {
			return err
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// vim: foldmethod=marker
