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

// Command ramp generates commands for a voltage ramp.
//
//	ramp -f 0 -t 12 -p 10 | ka3005p interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hz.tools/psu"
	"hz.tools/psu/device/ka3005p"
	"hz.tools/psu/ramp"
)

type options struct {
	cfg      ramp.Config
	interval time.Duration
	device   string
}

var errUsage = errors.New("usage")

// maxPeriod is the longest period a time.Duration can hold, in seconds.
const maxPeriod = float64(math.MaxInt64 / int64(time.Second))

// periodDuration converts a period in seconds to a time.Duration. Positive
// periods shorter than a nanosecond are rounded up to one.
func periodDuration(seconds float64) (time.Duration, error) {
	switch {
	case math.IsNaN(seconds) || math.IsInf(seconds, 0):
		return 0, fmt.Errorf("%w: period must be finite, got %v", ramp.ErrInvalidConfig, seconds)
	case seconds <= 0:
		return 0, fmt.Errorf("%w: period must be positive, got %v", ramp.ErrInvalidConfig, seconds)
	case seconds > maxPeriod:
		return 0, fmt.Errorf("%w: period must be at most %.0f seconds, got %v", ramp.ErrInvalidConfig, maxPeriod, seconds)
	}
	d := time.Duration(seconds * float64(time.Second))
	if d < 1 {
		d = 1
	}
	return d, nil
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var (
		opts   options
		period float64
		fs     = flag.NewFlagSet("ramp", flag.ContinueOnError)
	)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "usage: ramp -f FROM -t TO -p PERIOD [-l] [-i INTERVAL] [-d DEVICE]\n\n")
		fmt.Fprintf(output, "Generates commands for a voltage ramp.\n\n")
		fs.PrintDefaults()
	}

	fs.Float64Var(&opts.cfg.From, "from", 0, "voltage to start from")
	fs.Float64Var(&opts.cfg.From, "f", 0, "shorthand for -from")
	fs.Float64Var(&opts.cfg.To, "to", 0, "voltage to ramp to")
	fs.Float64Var(&opts.cfg.To, "t", 0, "shorthand for -to")
	fs.Float64Var(&period, "period", 0, "duration of a period in seconds")
	fs.Float64Var(&period, "p", 0, "shorthand for -period")
	fs.BoolVar(&opts.cfg.Loop, "loop", false, "run again and again and ...")
	fs.BoolVar(&opts.cfg.Loop, "l", false, "shorthand for -loop")
	fs.DurationVar(&opts.interval, "interval", ramp.DefaultInterval, "time between commands")
	fs.DurationVar(&opts.interval, "i", ramp.DefaultInterval, "shorthand for -interval")
	fs.StringVar(&opts.device, "device", "", "drive this power supply directly instead of printing ('auto' to find it)")
	fs.StringVar(&opts.device, "d", "", "shorthand for -device")

	if len(args) == 0 {
		fs.Usage()
		return opts, errUsage
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	seen := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	for _, req := range [][2]string{{"from", "f"}, {"to", "t"}, {"period", "p"}} {
		if !seen[req[0]] && !seen[req[1]] {
			fs.Usage()
			return opts, fmt.Errorf("%w: -%s is required", ramp.ErrInvalidConfig, req[0])
		}
	}

	d, err := periodDuration(period)
	if err != nil {
		return opts, err
	}
	opts.cfg.Period = d
	return opts, opts.cfg.Validate()
}

func openSink(path string) (ramp.Sink, func() error, error) {
	if path == "" {
		return ramp.WriterSink{W: os.Stdout}, func() error { return nil }, nil
	}

	var (
		conn *psu.Device
		err  error
	)
	if path == "auto" {
		conn, err = psu.Find(nil)
	} else {
		conn, err = psu.Open(path, nil)
	}
	if err != nil {
		return nil, nil, err
	}
	return ramp.DeviceSink{Device: ka3005p.New(conn)}, conn.Close, nil
}

// closeAfterRun closes the sink once the ramp is over. A close failure is
// returned if the run itself succeeded, and logged otherwise.
func closeAfterRun(runErr error, closeSink func() error, logger *log.Logger) error {
	if err := closeSink(); err != nil {
		if runErr == nil {
			return err
		}
		logger.Printf("closing sink: %s", err)
	}
	return runErr
}

func mainImpl(logger *log.Logger) error {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}

	gen, err := ramp.New(opts.cfg)
	if err != nil {
		return err
	}

	sink, closeSink, err := openSink(opts.device)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.device != "" {
		logger.Printf("ramping %.2f V to %.2f V every %s (loop=%t)",
			opts.cfg.From, opts.cfg.To, opts.cfg.Period, opts.cfg.Loop)
	}
	return closeAfterRun(ramp.Run(ctx, gen, sink, opts.interval), closeSink, logger)
}

func main() {
	logger := log.New(os.Stderr, "ramp | ", 0)
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
