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

// Package ka3005p drives the Korad KA3005P single channel power supply (and
// the Tenma, Velleman and RS rebadges of it).
package ka3005p

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSlot is returned when a memory slot outside of M1-M5 is used.
var ErrInvalidSlot = errors.New("ka3005p: memory slot must be between 1 and 5")

// Memory slots on the front panel.
const (
	FirstSlot = 1
	LastSlot  = 5
)

// Conn is the transport to the supply; *psu.Device satisfies it.
type Conn interface {
	Command(cmd string) error
	Query(cmd string) ([]byte, error)
}

// Device represents a KA3005P to be used over its USB serial port.
type Device struct {
	conn Conn
}

// New will create a new ka3005p.Device on top of an open connection.
func New(conn Conn) Device {
	return Device{conn: conn}
}

// Switch is the state of a toggle, such as the output or the beeper.
type Switch bool

// Switch states.
const (
	Off Switch = false
	On  Switch = true
)

func (s Switch) String() string {
	if s {
		return "on"
	}
	return "off"
}

func (s Switch) digit() string {
	if s {
		return "1"
	}
	return "0"
}

// ParseSwitch accepts "on" or "off", in any case.
func ParseSwitch(s string) (Switch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return On, nil
	case "off":
		return Off, nil
	default:
		return Off, fmt.Errorf("ka3005p: value must be either 'on' or 'off', got %q", s)
	}
}

// Identify returns the *IDN? string, such as "KORAD KA3005P V5.8 SN:03379314".
func (dev Device) Identify() (string, error) {
	b, err := dev.conn.Query("*IDN?")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// SetVoltage sets the voltage setpoint of the output.
func (dev Device) SetVoltage(volts float64) error {
	if volts < 0 {
		return fmt.Errorf("ka3005p: voltage can not be negative, got %.2f", volts)
	}
	return dev.conn.Command(fmt.Sprintf("VSET1:%05.2f", volts))
}

// Voltage reads the actual output voltage.
func (dev Device) Voltage() (float64, error) {
	return dev.queryFloat("VOUT1?")
}

// VoltageSetpoint reads the configured voltage.
func (dev Device) VoltageSetpoint() (float64, error) {
	return dev.queryFloat("VSET1?")
}

// SetCurrent sets the current limit of the output.
func (dev Device) SetCurrent(amps float64) error {
	if amps < 0 {
		return fmt.Errorf("ka3005p: current can not be negative, got %.3f", amps)
	}
	return dev.conn.Command(fmt.Sprintf("ISET1:%05.3f", amps))
}

// Current reads the actual output current.
func (dev Device) Current() (float64, error) {
	return dev.queryFloat("IOUT1?")
}

// CurrentSetpoint reads the configured current limit.
func (dev Device) CurrentSetpoint() (float64, error) {
	return dev.queryFloat("ISET1?")
}

// Output will turn the output on or off.
func (dev Device) Output(s Switch) error {
	return dev.conn.Command("OUT" + s.digit())
}

// Enable turns the output on.
func (dev Device) Enable() error {
	return dev.Output(On)
}

// Disable turns the output off.
func (dev Device) Disable() error {
	return dev.Output(Off)
}

// OVP toggles over voltage protection.
func (dev Device) OVP(s Switch) error {
	return dev.conn.Command("OVP" + s.digit())
}

// OCP toggles over current protection.
func (dev Device) OCP(s Switch) error {
	return dev.conn.Command("OCP" + s.digit())
}

// Beep toggles the key beeper.
func (dev Device) Beep(s Switch) error {
	return dev.conn.Command("BEEP" + s.digit())
}

// Save stores the current panel settings into a memory slot.
func (dev Device) Save(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	return dev.conn.Command(fmt.Sprintf("SAV%d", slot))
}

// Load recalls the panel settings stored in a memory slot.
func (dev Device) Load(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	return dev.conn.Command(fmt.Sprintf("RCL%d", slot))
}

func checkSlot(slot int) error {
	if slot < FirstSlot || slot > LastSlot {
		return fmt.Errorf("%w, got %d", ErrInvalidSlot, slot)
	}
	return nil
}

// Status reads the status byte along with the output voltage and current.
func (dev Device) Status() (Status, error) {
	b, err := dev.conn.Query("STATUS?")
	if err != nil {
		return Status{}, err
	}
	if len(b) == 0 {
		return Status{}, fmt.Errorf("ka3005p: empty reply to STATUS?")
	}
	st := Status{Flags: Flags(b[0])}
	if st.Voltage, err = dev.Voltage(); err != nil {
		return Status{}, err
	}
	if st.Current, err = dev.Current(); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (dev Device) queryFloat(cmd string) (float64, error) {
	b, err := dev.conn.Query(cmd)
	if err != nil {
		return 0, err
	}
	reading := strings.TrimSpace(string(b))
	v, err := strconv.ParseFloat(reading, 64)
	if err != nil {
		return 0, fmt.Errorf("ka3005p: bad reply to %s: %q", cmd, reading)
	}
	return v, nil
}

// vim: foldmethod=marker
