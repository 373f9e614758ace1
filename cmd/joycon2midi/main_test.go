package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/james-see/joycon2midi/pkg/joycon"
	"go.uber.org/zap/zaptest"
)

func TestChannelsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"channels", "--channel", "3"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("channels error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"btn_home", "buttons.shared.home", "zr_pointer_x", "while buttons.right.zr", "MIDI channel 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("channels output missing %q", want)
		}
	}
}

func TestConfigCommandRejectsBadChannel(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetArgs([]string{"config", "--channel", "16"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "midi.channel") {
		t.Errorf("config --channel 16 error = %v, want midi.channel error", err)
	}
}

func TestCalibrate(t *testing.T) {
	lo := joycon.Snapshot{}.WithAxis(joycon.AxisGyroX, -900)
	hi := joycon.Snapshot{}.WithAxis(joycon.AxisGyroX, 1200)
	src := &sliceSource{snapshots: []joycon.Snapshot{lo, hi, lo}}

	ext, err := calibrate(context.Background(), src, 10)
	if err != nil {
		t.Fatalf("calibrate() error = %v", err)
	}
	if ext.Count() != 3 {
		t.Errorf("Count() = %d, want 3", ext.Count())
	}
	if r := ext.Range(joycon.AxisGyroX); r.Min != -900 || r.Max != 1200 {
		t.Errorf("gyro.x range = %+v", r)
	}

	var out bytes.Buffer
	printExtrema(&out, ext)
	if !strings.Contains(out.String(), "gyro.x") {
		t.Errorf("printExtrema() = %q", out.String())
	}

	if _, err := calibrate(context.Background(), &sliceSource{}, 10); err == nil {
		t.Error("calibrate(empty) want error")
	}
}

func TestEndOfInput(t *testing.T) {
	log := zaptest.NewLogger(t)

	eof := &joycon.DeviceError{Op: "read", Err: io.EOF}
	if err := endOfInput(eof, log); err != nil {
		t.Errorf("endOfInput(EOF) = %v, want nil", err)
	}

	decode := &joycon.DeviceError{Op: "decode", Err: errors.New("bad json")}
	if err := endOfInput(decode, log); err == nil {
		t.Error("endOfInput(decode error) want error")
	}
	if err := endOfInput(nil, log); err != nil {
		t.Errorf("endOfInput(nil) = %v", err)
	}
}

type sliceSource struct {
	snapshots []joycon.Snapshot
}

func (s *sliceSource) ReadSnapshot(ctx context.Context) (joycon.Snapshot, error) {
	if len(s.snapshots) == 0 {
		return joycon.Snapshot{}, &joycon.DeviceError{Op: "read", Err: io.EOF}
	}
	snap := s.snapshots[0]
	s.snapshots = s.snapshots[1:]
	return snap, nil
}
