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

package psu

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoDevice is returned by Find when no power supply is plugged in.
	ErrNoDevice = errors.New("psu: no power supply found")

	// ErrMultipleDevices is returned by Find when it can not pick one power
	// supply on its own. Use Open with an explicit path instead.
	ErrMultipleDevices = errors.New("psu: multiple power supplies found")

	// ErrClosed is returned when using a Device after Close.
	ErrClosed = errors.New("psu: device is closed")
)

// VendorID is the USB vendor ID (Nuvoton) of the serial bridge in the KA3000
// family.
const VendorID = "0416"

// sysfsRoot is swapped out in tests.
var sysfsRoot = "/sys"

// PortInfo describes a serial port.
type PortInfo struct {
	// Path is the device node, such as "/dev/ttyACM0".
	Path string

	// VendorID and ProductID are the lowercase hex USB IDs, empty if the
	// port is not on USB.
	VendorID  string
	ProductID string

	Manufacturer string
	Product      string
	SerialNumber string
}

// USB returns true if the port sits behind a USB device.
func (p PortInfo) USB() bool {
	return p.VendorID != ""
}

func (p PortInfo) String() string {
	if !p.USB() {
		return p.Path
	}
	return fmt.Sprintf("%s (%s:%s %s %s %s)", p.Path, p.VendorID, p.ProductID,
		p.Manufacturer, p.Product, p.SerialNumber)
}

// List will enumerate serial ports. Unless all is set, only ports that look
// like a power supply are returned.
func List(all bool) ([]PortInfo, error) {
	devices, err := filepath.Glob(filepath.Join(sysfsRoot, "class", "tty", "*", "device"))
	if err != nil {
		return nil, err
	}
	sort.Strings(devices)

	var ports []PortInfo
	for _, dev := range devices {
		info := PortInfo{
			Path: filepath.Join("/dev", filepath.Base(filepath.Dir(dev))),
		}
		if usb, ok := findUSBDevice(dev); ok {
			info.VendorID = readAttr(usb, "idVendor")
			info.ProductID = readAttr(usb, "idProduct")
			info.Manufacturer = readAttr(usb, "manufacturer")
			info.Product = readAttr(usb, "product")
			info.SerialNumber = readAttr(usb, "serial")
		}
		if !all && info.VendorID != VendorID {
			continue
		}
		ports = append(ports, info)
	}
	return ports, nil
}

// findUSBDevice walks up from a tty's device directory to the USB device
// that owns it, which is the first parent carrying an idVendor.
func findUSBDevice(dev string) (string, bool) {
	dir, err := filepath.EvalSymlinks(dev)
	if err != nil {
		return "", false
	}
	for dir != "/" && dir != "." && strings.HasPrefix(dir, sysfsRoot) {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			return dir, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

func readAttr(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// Find will open the only power supply plugged in.
func Find(opts *Options) (*Device, error) {
	ports, err := List(false)
	if err != nil {
		return nil, err
	}
	switch len(ports) {
	case 0:
		return nil, ErrNoDevice
	case 1:
		return Open(ports[0].Path, opts)
	default:
		return nil, fmt.Errorf("%w: %d candidates", ErrMultipleDevices, len(ports))
	}
}

// vim: foldmethod=marker
