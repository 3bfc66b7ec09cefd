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

package ka3005p

import (
	"fmt"
)

// Mode is the regulation mode of a channel.
type Mode string

func (m Mode) String() string {
	switch m {
	case CC:
		return "Constant Current"
	case CV:
		return "Constant Voltage"
	default:
		return string(m)
	}
}

var (
	// CC means the channel is current limited.
	CC Mode = "CC"

	// CV means the channel is regulating voltage.
	CV Mode = "CV"
)

// Flags is the status byte returned by STATUS?.
type Flags byte

const (
	flagCh1    Flags = 1 << 0
	flagCh2    Flags = 1 << 1
	flagBeep   Flags = 1 << 4
	flagLock   Flags = 1 << 5
	flagOutput Flags = 1 << 6
)

// Mode returns the regulation mode of channel 1 or 2.
func (f Flags) Mode(channel int) Mode {
	mask := flagCh1
	if channel == 2 {
		mask = flagCh2
	}
	if f&mask == 0 {
		return CC
	}
	return CV
}

// Beep reports whether the beeper is on.
func (f Flags) Beep() Switch {
	return Switch(f&flagBeep != 0)
}

// Locked reports whether the front panel is locked.
func (f Flags) Locked() bool {
	return f&flagLock != 0
}

// Output reports whether the output is on.
func (f Flags) Output() Switch {
	return Switch(f&flagOutput != 0)
}

// Status is a snapshot of the supply.
type Status struct {
	Flags   Flags
	Voltage float64
	Current float64
}

func (s Status) String() string {
	lock := "unlocked"
	if s.Flags.Locked() {
		lock = "locked"
	}
	return fmt.Sprintf(
		"Voltage: %.2f V, Current: %.3f A, Channel1: %s, Channel2: %s, Lock: %s, Beep: %s, Output: %s",
		s.Voltage, s.Current,
		s.Flags.Mode(1).String(), s.Flags.Mode(2).String(),
		lock, s.Flags.Beep(), s.Flags.Output(),
	)
}

// vim: foldmethod=marker
