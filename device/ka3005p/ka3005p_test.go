package ka3005p

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeConn struct {
	sent    []string
	replies map[string]string
	err     error
}

func (c *fakeConn) Command(cmd string) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, cmd)
	return nil
}

func (c *fakeConn) Query(cmd string) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.sent = append(c.sent, cmd)
	return []byte(c.replies[cmd]), nil
}

func TestDeviceCommands(t *testing.T) {
	Convey("Given a KA3005P", t, func() {
		conn := &fakeConn{}
		dev := New(conn)

		Convey("Setpoints are sent in the fixed width the supply expects", func() {
			So(dev.SetVoltage(12.5), ShouldBeNil)
			So(dev.SetVoltage(1.5), ShouldBeNil)
			So(dev.SetCurrent(0.5), ShouldBeNil)
			So(conn.sent, ShouldResemble, []string{"VSET1:12.50", "VSET1:01.50", "ISET1:0.500"})
		})

		Convey("Negative setpoints are refused before reaching the supply", func() {
			So(dev.SetVoltage(-1), ShouldNotBeNil)
			So(dev.SetCurrent(-0.1), ShouldNotBeNil)
			So(conn.sent, ShouldBeEmpty)
		})

		Convey("Toggles map onto their commands", func() {
			So(dev.Enable(), ShouldBeNil)
			So(dev.Disable(), ShouldBeNil)
			So(dev.OVP(On), ShouldBeNil)
			So(dev.OCP(Off), ShouldBeNil)
			So(dev.Beep(On), ShouldBeNil)
			So(conn.sent, ShouldResemble, []string{"OUT1", "OUT0", "OVP1", "OCP0", "BEEP1"})
		})

		Convey("Memory slots are M1 to M5", func() {
			So(dev.Save(1), ShouldBeNil)
			So(dev.Load(5), ShouldBeNil)
			So(conn.sent, ShouldResemble, []string{"SAV1", "RCL5"})

			So(errors.Is(dev.Save(0), ErrInvalidSlot), ShouldBeTrue)
			So(errors.Is(dev.Load(6), ErrInvalidSlot), ShouldBeTrue)
			So(len(conn.sent), ShouldEqual, 2)
		})

		Convey("Transport errors are passed through", func() {
			conn.err = errors.New("unplugged")
			So(dev.Enable(), ShouldEqual, conn.err)
			_, err := dev.Voltage()
			So(err, ShouldEqual, conn.err)
		})
	})
}

func TestDeviceReadings(t *testing.T) {
	Convey("Given a KA3005P with its output on in CV", t, func() {
		conn := &fakeConn{replies: map[string]string{
			"*IDN?":   "KORAD KA3005P V5.8 SN:03379314\n",
			"STATUS?": string([]byte{0x51}),
			"VOUT1?":  "12.01",
			"IOUT1?":  "0.250",
			"VSET1?":  "12.00",
			"ISET1?":  "1.000",
		}}
		dev := New(conn)

		Convey("Readings are parsed", func() {
			v, err := dev.Voltage()
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 12.01, 1e-9)

			a, err := dev.Current()
			So(err, ShouldBeNil)
			So(a, ShouldAlmostEqual, 0.25, 1e-9)

			v, err = dev.VoltageSetpoint()
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 12.0, 1e-9)

			a, err = dev.CurrentSetpoint()
			So(err, ShouldBeNil)
			So(a, ShouldAlmostEqual, 1.0, 1e-9)

			id, err := dev.Identify()
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "KORAD KA3005P V5.8 SN:03379314")
		})

		Convey("Status combines the flags with the readings", func() {
			st, err := dev.Status()
			So(err, ShouldBeNil)
			So(st.Flags.Mode(1), ShouldEqual, CV)
			So(st.Flags.Mode(2), ShouldEqual, CC)
			So(st.Flags.Beep(), ShouldEqual, On)
			So(st.Flags.Locked(), ShouldBeFalse)
			So(st.Flags.Output(), ShouldEqual, On)
			So(st.String(), ShouldEqual,
				"Voltage: 12.01 V, Current: 0.250 A, Channel1: Constant Voltage, Channel2: Constant Current, Lock: unlocked, Beep: on, Output: on")
		})

		Convey("Garbage replies are errors", func() {
			conn.replies["VOUT1?"] = "\x00\x01"
			_, err := dev.Voltage()
			So(err, ShouldNotBeNil)

			conn.replies["STATUS?"] = ""
			_, err = dev.Status()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFlags(t *testing.T) {
	for _, tc := range []struct {
		flags  Flags
		ch1    Mode
		ch2    Mode
		beep   Switch
		locked bool
		output Switch
	}{
		{0, CC, CC, Off, false, Off},
		{1, CV, CC, Off, false, Off},
		{2, CC, CV, Off, false, Off},
		{16, CC, CC, On, false, Off},
		{32, CC, CC, Off, true, Off},
		{64, CC, CC, Off, false, On},
	} {
		if got := tc.flags.Mode(1); got != tc.ch1 {
			t.Errorf("Flags(%d).Mode(1) = %s", tc.flags, got)
		}
		if got := tc.flags.Mode(2); got != tc.ch2 {
			t.Errorf("Flags(%d).Mode(2) = %s", tc.flags, got)
		}
		if got := tc.flags.Beep(); got != tc.beep {
			t.Errorf("Flags(%d).Beep() = %s", tc.flags, got)
		}
		if got := tc.flags.Locked(); got != tc.locked {
			t.Errorf("Flags(%d).Locked() = %t", tc.flags, got)
		}
		if got := tc.flags.Output(); got != tc.output {
			t.Errorf("Flags(%d).Output() = %s", tc.flags, got)
		}
	}
}

func TestParseSwitch(t *testing.T) {
	for in, want := range map[string]Switch{"on": On, "ON": On, "Off": Off} {
		got, err := ParseSwitch(in)
		if err != nil || got != want {
			t.Errorf("ParseSwitch(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseSwitch("maybe"); err == nil {
		t.Error("ParseSwitch(maybe) succeeded")
	}
}
