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

// Package ramp generates "voltage" commands that sweep a power supply output
// linearly between two values, once or over and over again.
package ramp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrInvalidConfig is returned by New when the Config can not describe a
// ramp.
var ErrInvalidConfig = errors.New("ramp: invalid config")

// Config describes a single ramp.
type Config struct {
	// From is the voltage at the start of every period.
	From float64

	// To is the voltage approached at the end of every period.
	To float64

	// Period is how long it takes to get from From to To. Must be positive.
	Period time.Duration

	// Loop will start the ramp over from From at the end of every period,
	// forever.
	Loop bool
}

// Validate will check that the Config describes a ramp.
func (c Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %s", ErrInvalidConfig, c.Period)
	}
	if math.IsNaN(c.From) || math.IsInf(c.From, 0) {
		return fmt.Errorf("%w: from must be finite", ErrInvalidConfig)
	}
	if math.IsNaN(c.To) || math.IsInf(c.To, 0) {
		return fmt.Errorf("%w: to must be finite", ErrInvalidConfig)
	}
	return nil
}

// Command is a single line of text understood by the ka3005p command parser.
type Command string

// VoltageCommand will render the command that sets the output to v volts.
// The value is rounded (not truncated) to two decimal places.
func VoltageCommand(v float64) Command {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s == "-0.00" {
		s = "0.00"
	}
	return Command("voltage " + s)
}

func (c Command) String() string {
	return string(c)
}

// State is where a Generator is in its lifecycle.
type State int

// States a Generator moves through. Finished is terminal.
const (
	NotStarted State = iota
	Running
	Looping
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Looping:
		return "looping"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Generator maps wall-clock time onto a sawtooth ramp. It is not safe for
// concurrent use, and can not be restarted; create a new Generator to play the
// ramp again.
type Generator struct {
	cfg   Config
	now   func() time.Time
	start time.Time
	state State
}

// New will create a Generator for the provided Config. The clock does not
// start until the first call to Next.
func New(cfg Config) (*Generator, error) {
	return NewWithClock(cfg, time.Now)
}

// NewWithClock is New, reading the time from now rather than time.Now.
func NewWithClock(cfg Config, now func() time.Time) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{cfg: cfg, now: now}, nil
}

// Config returns the Config the Generator was created with.
func (g *Generator) Config() Config {
	return g.cfg
}

// State returns the current lifecycle state.
func (g *Generator) State() State {
	return g.state
}

// Voltage returns the target voltage elapsed into the ramp. Phase is derived
// from the absolute elapsed time so that jitter in the caller's polling never
// accumulates.
func (g *Generator) Voltage(elapsed time.Duration) float64 {
	period := g.cfg.Period.Seconds()
	phase := math.Mod(elapsed.Seconds(), period) / period
	if phase < 0 {
		phase++
	}
	return g.cfg.From + (g.cfg.To-g.cfg.From)*phase
}

// Next returns the Command due right now, or false once the ramp is over. A
// looping Generator never ends.
func (g *Generator) Next() (Command, bool) {
	if g.state == Finished {
		return "", false
	}

	now := g.now()
	if g.state == NotStarted {
		g.start = now
		g.state = Running
	}

	elapsed := now.Sub(g.start)
	if elapsed >= g.cfg.Period {
		if !g.cfg.Loop {
			g.state = Finished
			return "", false
		}
		g.state = Looping
	}
	return VoltageCommand(g.Voltage(elapsed)), true
}

// vim: foldmethod=marker
