package main

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"hz.tools/psu/device/ka3005p"
)

type fakeConn struct {
	sent    []string
	replies map[string]string
	err     error
}

func (c *fakeConn) Command(cmd string) error {
	c.sent = append(c.sent, cmd)
	return c.err
}

func (c *fakeConn) Query(cmd string) ([]byte, error) {
	c.sent = append(c.sent, cmd)
	return []byte(c.replies[cmd]), c.err
}

func TestInteractive(t *testing.T) {
	Convey("Given a supply driven from a script", t, func() {
		conn := &fakeConn{replies: map[string]string{
			"STATUS?": "\x40",
			"VOUT1?":  "1.00",
			"IOUT1?":  "0.100",
		}}
		dev := ka3005p.New(conn)
		var logs bytes.Buffer
		logger := log.New(&logs, "", 0)

		Convey("Every line is executed in order", func() {
			script := strings.Join([]string{
				"# warm up",
				"current 0.1",
				"power on",
				"",
				"voltage 0.00",
				"voltage 0.50",
				"voltage 1.00",
				"status",
				"power off",
			}, "\n")
			So(interactive(dev, strings.NewReader(script), logger), ShouldBeNil)
			So(conn.sent, ShouldResemble, []string{
				"ISET1:0.100", "OUT1",
				"VSET1:00.00", "VSET1:00.50", "VSET1:01.00",
				"STATUS?", "VOUT1?", "IOUT1?",
				"OUT0",
			})
			So(logs.String(), ShouldContainSubstring, "Output: on")
		})

		Convey("A bad line stops the script with its line number", func() {
			err := interactive(dev, strings.NewReader("power on\nfly away\npower off\n"), logger)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldStartWith, "line 2:")
			So(conn.sent, ShouldResemble, []string{"OUT1"})
		})

		Convey("Supply errors stop the script", func() {
			conn.err = errors.New("unplugged")
			err := interactive(dev, strings.NewReader("power on\n"), logger)
			So(errors.Is(err, conn.err), ShouldBeTrue)
		})
	})
}

func TestParseFlags(t *testing.T) {
	Convey("Given the ka3005p command line", t, func() {
		var out bytes.Buffer

		Convey("-device and -d both pick the serial device", func() {
			for _, argv := range [][]string{
				{"-device", "/dev/ttyACM1", "power", "on"},
				{"-device=/dev/ttyACM1", "power", "on"},
				{"-d", "/dev/ttyACM1", "power", "on"},
			} {
				device, args, err := parseFlags(argv, &out)
				So(err, ShouldBeNil)
				So(device, ShouldEqual, "/dev/ttyACM1")
				So(args, ShouldResemble, []string{"power", "on"})
			}
		})

		Convey("Without a device the supply is found automatically", func() {
			device, args, err := parseFlags([]string{"status"}, &out)
			So(err, ShouldBeNil)
			So(device, ShouldEqual, "")
			So(args, ShouldResemble, []string{"status"})
		})

		Convey("No command prints usage", func() {
			_, _, err := parseFlags([]string{"-d", "/dev/ttyACM0"}, &out)
			So(err, ShouldEqual, errUsage)
			So(out.String(), ShouldStartWith, "usage: ka3005p")
		})
	})
}
