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
	"strconv"
	"strings"
)

// Op is what a Command does.
type Op string

// Ops understood by ParseCommand and Execute.
const (
	OpPower   Op = "power"
	OpBeep    Op = "beep"
	OpOVP     Op = "ovp"
	OpOCP     Op = "ocp"
	OpSave    Op = "save"
	OpLoad    Op = "load"
	OpVoltage Op = "voltage"
	OpCurrent Op = "current"
)

// Command is a single action on the supply, in the same words a person would
// type at the command line ("voltage 12.50", "power on", "save 2").
type Command struct {
	Op     Op
	Switch Switch
	Slot   int
	Value  float64
}

func (c Command) String() string {
	switch c.Op {
	case OpPower, OpBeep, OpOVP, OpOCP:
		return fmt.Sprintf("%s %s", c.Op, c.Switch)
	case OpSave, OpLoad:
		return fmt.Sprintf("%s %d", c.Op, c.Slot)
	case OpVoltage:
		return fmt.Sprintf("%s %.2f", c.Op, c.Value)
	case OpCurrent:
		return fmt.Sprintf("%s %.3f", c.Op, c.Value)
	default:
		return string(c.Op)
	}
}

// ParseCommand will parse a line such as "voltage 12.50" into a Command.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Command{}, fmt.Errorf("ka3005p: expected '<command> <argument>', got %q", line)
	}
	var (
		cmd = Command{Op: Op(strings.ToLower(fields[0]))}
		arg = fields[1]
		err error
	)
	switch cmd.Op {
	case OpPower, OpBeep, OpOVP, OpOCP:
		cmd.Switch, err = ParseSwitch(arg)
	case OpSave, OpLoad:
		if cmd.Slot, err = strconv.Atoi(arg); err == nil {
			err = checkSlot(cmd.Slot)
		}
	case OpVoltage, OpCurrent:
		cmd.Value, err = strconv.ParseFloat(arg, 64)
	default:
		return Command{}, fmt.Errorf("ka3005p: unknown command %q", fields[0])
	}
	if err != nil {
		return Command{}, fmt.Errorf("ka3005p: bad argument to %s: %w", cmd.Op, err)
	}
	return cmd, nil
}

// Execute will run a Command against the supply.
func (dev Device) Execute(cmd Command) error {
	switch cmd.Op {
	case OpPower:
		return dev.Output(cmd.Switch)
	case OpBeep:
		return dev.Beep(cmd.Switch)
	case OpOVP:
		return dev.OVP(cmd.Switch)
	case OpOCP:
		return dev.OCP(cmd.Switch)
	case OpSave:
		return dev.Save(cmd.Slot)
	case OpLoad:
		return dev.Load(cmd.Slot)
	case OpVoltage:
		return dev.SetVoltage(cmd.Value)
	case OpCurrent:
		return dev.SetCurrent(cmd.Value)
	default:
		return fmt.Errorf("ka3005p: unsupported command %q", cmd.Op)
	}
}

// vim: foldmethod=marker
