package translator

import (
	"errors"
	"strings"
	"testing"

	"github.com/james-see/joycon2midi/pkg/joycon"
)

func TestBuild(t *testing.T) {
	cm, err := Build(map[string]int{
		"btn_r_a":      35,
		"gyro_x":       16,
		"zr_pointer_x": 19,
		"pointer_x":    19, // shared destinations are allowed
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if cm.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", cm.Len())
	}

	specs := cm.Specs()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	if got := strings.Join(names, ","); got != "btn_r_a,gyro_x,pointer_x,zr_pointer_x" {
		t.Errorf("Specs() order = %s", got)
	}

	tests := []struct {
		name string
		mode Mode
		dst  uint8
	}{
		{"btn_r_a", ModeEdge, 35},
		{"gyro_x", ModeContinuousAlways, 16},
		{"pointer_x", ModeContinuousAlways, 19},
		{"zr_pointer_x", ModeGated, 19},
	}
	for _, tt := range tests {
		spec, ok := cm.Lookup(tt.name)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.name)
			continue
		}
		if spec.Mode != tt.mode || spec.Destination != tt.dst {
			t.Errorf("Lookup(%q) = %+v, want mode %s dst %d", tt.name, spec, tt.mode, tt.dst)
		}
	}

	zr, _ := cm.Lookup("zr_pointer_x")
	if zr.Gate != joycon.ButtonRightZR {
		t.Errorf("zr_pointer_x gate = %s, want right.zr", zr.Gate)
	}

	if _, ok := cm.Lookup("btn_home"); ok {
		t.Error("Lookup(btn_home) should not find an unmapped channel")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]int
		opts    []Option
		wantMsg string
	}{
		{"unknown name", map[string]int{"btn_unknown": 10}, nil, "btn_unknown"},
		{"empty map", map[string]int{}, nil, "no channels mapped"},
		{"destination too high", map[string]int{"btn_r_a": 128}, nil, "btn_r_a=128"},
		{"destination negative", map[string]int{"gyro_y": -1}, nil, "gyro_y=-1"},
		{"edge mode override", map[string]int{"btn_r_a": 1}, []Option{WithMode("btn_r_a", ModeContinuousAlways)}, "cannot change mode"},
		{"gated mode override", map[string]int{"zr_pointer_x": 1}, []Option{WithMode("zr_pointer_x", ModeContinuousAlways)}, "cannot change mode"},
		{"override to edge", map[string]int{"gyro_x": 1}, []Option{WithMode("gyro_x", ModeEdge)}, "cannot change mode"},
		{"override unmapped", map[string]int{"gyro_x": 1}, []Option{WithMode("gyro_y", ModeContinuousOnChange)}, "not mapped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, err := Build(tt.raw, tt.opts...)
			if err == nil {
				t.Fatalf("Build() = %+v, want error", cm)
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Errorf("Build() error = %T, want *ConfigurationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Build() error = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestBuildReportsAllUnknownNames(t *testing.T) {
	_, err := Build(map[string]int{"zzz": 1, "aaa": 2, "btn_r_a": 3})
	if err == nil {
		t.Fatal("Build() want error")
	}
	if !strings.Contains(err.Error(), "aaa, zzz") {
		t.Errorf("Build() error = %q, want sorted list of unknown names", err)
	}
}

func TestBuildWithModeOverride(t *testing.T) {
	cm, err := Build(
		map[string]int{"gyro_x": 16, "analog_r_vertical": 15},
		WithMode("gyro_x", ModeContinuousOnChange),
		WithMode("analog_r_vertical", ModeContinuousAlways),
	)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	gx, _ := cm.Lookup("gyro_x")
	if gx.Mode != ModeContinuousOnChange {
		t.Errorf("gyro_x mode = %s, want continuous_on_change", gx.Mode)
	}
	av, _ := cm.Lookup("analog_r_vertical")
	if av.Mode != ModeContinuousAlways {
		t.Errorf("analog_r_vertical mode = %s, want continuous_always", av.Mode)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeEdge, ModeContinuousAlways, ModeContinuousOnChange, ModeGated} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("sometimes"); err == nil {
		t.Error("ParseMode(sometimes) want error")
	}
}

func TestNamesAndDescribe(t *testing.T) {
	names := Names()
	if len(names) != 20 {
		t.Errorf("Names() returned %d names, want 20", len(names))
	}
	for _, n := range names {
		if !IsRecognized(n) {
			t.Errorf("IsRecognized(%q) = false", n)
		}
	}

	for _, info := range Describe() {
		switch info.Name {
		case "btn_home":
			if info.Source != "buttons.shared.home" {
				t.Errorf("btn_home source = %q, want buttons.shared.home", info.Source)
			}
		case "zr_pointer_x":
			if info.Gate != "buttons.right.zr" || info.Source != "accel.x" {
				t.Errorf("zr_pointer_x = %+v", info)
			}
		case "analog_r_horizontal":
			if info.Calibration == nil || *info.Calibration != CalibrationRightStickHorizontal {
				t.Errorf("analog_r_horizontal calibration = %+v", info.Calibration)
			}
		}
	}
}
