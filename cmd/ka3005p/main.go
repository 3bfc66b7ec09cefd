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

// Command ka3005p remote controls a KA3005P power supply.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"hz.tools/psu"
	"hz.tools/psu/device/ka3005p"
)

const usage = `usage: ka3005p [-d DEVICE] COMMAND [ARG]

Commands:
  power on|off    turn the output on or off
  status          print status information about the supply
  voltage VOLTS   set the output voltage
  current AMPS    set the output current
  save 1-5        save the panel settings to a memory slot
  load 1-5        load the panel settings from a memory slot
  ocp on|off      enable or disable over current protection
  ovp on|off      enable or disable over voltage protection
  beep on|off     enable or disable the beeper
  list [-v]       list power supplies (-v: every serial port)
  interactive     read commands from stdin, one per line

Flags:
`

var errUsage = errors.New("usage")

func list(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "list all serial ports, not just ones that match the USB ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ports, err := psu.List(*verbose)
	if err != nil {
		return err
	}
	for _, port := range ports {
		fmt.Fprintln(stdout, port)
	}
	return nil
}

// interactive runs one command per line of r. Blank lines and lines starting
// with '#' are skipped.
func interactive(dev ka3005p.Device, r io.Reader, logger *log.Logger) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "status" {
			st, err := dev.Status()
			if err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			logger.Print(st)
			continue
		}
		cmd, err := ka3005p.ParseCommand(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := dev.Execute(cmd); err != nil {
			return fmt.Errorf("line %d: %s: %w", n, cmd, err)
		}
	}
	return scanner.Err()
}

func open(path string) (*psu.Device, error) {
	if path == "" {
		return psu.Find(nil)
	}
	return psu.Open(path, nil)
}

// parseFlags returns the serial device to use and the command to run.
func parseFlags(argv []string, output io.Writer) (string, []string, error) {
	var (
		device string
		fs     = flag.NewFlagSet("ka3005p", flag.ContinueOnError)
	)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&device, "device", "", "serial device of the power supply (default: find it)")
	fs.StringVar(&device, "d", "", "shorthand for -device")
	if err := fs.Parse(argv); err != nil {
		return "", nil, err
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return "", nil, errUsage
	}
	return device, args, nil
}

func mainImpl(logger *log.Logger) error {
	device, args, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}
	if args[0] == "list" {
		return list(args[1:], os.Stdout)
	}

	conn, err := open(device)
	if err != nil {
		return err
	}
	defer conn.Close()
	dev := ka3005p.New(conn)

	switch args[0] {
	case "status":
		st, err := dev.Status()
		if err != nil {
			return err
		}
		fmt.Println(st)
		return nil
	case "interactive":
		return interactive(dev, os.Stdin, logger)
	default:
		cmd, err := ka3005p.ParseCommand(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return dev.Execute(cmd)
	}
}

func main() {
	logger := log.New(os.Stderr, "ka3005p | ", 0)
	switch err := mainImpl(logger); {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(1)
	default:
		logger.Print(err)
		os.Exit(1)
	}
}

// vim: foldmethod=marker
