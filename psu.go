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

// Package psu talks to USB serial bench power supplies, such as the
// Korad KA3005P and its many rebadged clones.
package psu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pkg/term"
)

const (
	// DefaultBaud is the line speed used by the KA3000 family.
	DefaultBaud = 9600

	// DefaultTimeout is how long the line has to be quiet before a reply is
	// considered complete.
	DefaultTimeout = 50 * time.Millisecond
)

// Options contains configurable aspects of the connected power supply.
type Options struct {
	// BaseContext will be used to extend a context with the same lifecycle
	// as the underlying handle to the power supply.
	BaseContext context.Context

	// Baud is the serial line speed. Zero means DefaultBaud.
	Baud int

	// Timeout is the read timeout, which also marks the end of a reply.
	// Zero means DefaultTimeout.
	Timeout time.Duration
}

func (opts *Options) context() context.Context {
	if opts == nil || opts.BaseContext == nil {
		return context.Background()
	}
	return opts.BaseContext
}

func (opts *Options) baud() int {
	if opts == nil || opts.Baud <= 0 {
		return DefaultBaud
	}
	return opts.Baud
}

func (opts *Options) timeout() time.Duration {
	if opts == nil || opts.Timeout <= 0 {
		return DefaultTimeout
	}
	return opts.Timeout
}

// Device represents a power supply connected over a serial port.
type Device struct {
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	path   string
	port   io.ReadWriteCloser
}

// Path returns the serial device the Device was opened from.
func (d *Device) Path() string {
	return d.path
}

// Context returns a context that is cancelled when the Device is closed.
func (d *Device) Context() context.Context {
	return d.ctx
}

// Close will release the underlying handle to the serial port, and close
// the related context, terminating any spawned helpers.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.cancel()
	if err := d.port.Close(); err != nil {
		return err
	}
	d.closed = true
	return nil
}

// Write will write raw bytes to the power supply.
func (d *Device) Write(buf []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	return d.port.Write(buf)
}

// Read will read raw bytes from the power supply.
func (d *Device) Read(buf []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	return d.port.Read(buf)
}

// Command will send a command that has no reply, such as "OUT1". The supply
// needs the line to go quiet between commands, so this waits out one read
// timeout before returning.
func (d *Device) Command(cmd string) error {
	_, err := d.Query(cmd)
	return err
}

// Query will send a command and return everything the supply sent back
// before the line went quiet.
func (d *Device) Query(cmd string) ([]byte, error) {
	if _, err := d.Write([]byte(cmd)); err != nil {
		return nil, fmt.Errorf("psu: writing %q: %w", cmd, err)
	}
	reply, err := readReply(d)
	if err != nil {
		return nil, fmt.Errorf("psu: reading reply to %q: %w", cmd, err)
	}
	return reply, nil
}

// readReply reads from r until a read comes back empty, which on a port
// opened with a read timeout means the supply has nothing more to say.
func readReply(r io.Reader) ([]byte, error) {
	var (
		reply []byte
		buf   = make([]byte, 512)
	)
	for {
		n, err := r.Read(buf)
		reply = append(reply, buf[:n]...)
		switch {
		case errors.Is(err, io.EOF):
			return reply, nil
		case err != nil:
			return nil, err
		case n == 0:
			return reply, nil
		}
	}
}

// Open will open the power supply on the provided serial device, such as
// "/dev/ttyACM0".
func Open(path string, opts *Options) (*Device, error) {
	port, err := term.Open(
		path,
		term.Speed(opts.baud()),
		term.RawMode,
		term.ReadTimeout(opts.timeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("psu: failed to open %s: %w", path, err)
	}
	return newDevice(path, port, opts), nil
}

func newDevice(path string, port io.ReadWriteCloser, opts *Options) *Device {
	ctx, cancel := context.WithCancel(opts.context())
	return &Device{
		ctx:    ctx,
		cancel: cancel,
		path:   path,
		port:   port,
	}
}

// vim: foldmethod=marker
