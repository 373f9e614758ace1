package translator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-see/joycon2midi/pkg/joycon"
)

// Mode is the evaluation policy of a channel
type Mode int

const (
	// ModeEdge emits NoteOn/NoteOff when a button changes state
	ModeEdge Mode = iota
	// ModeContinuousAlways emits a ControlChange on every sample
	ModeContinuousAlways
	// ModeContinuousOnChange emits a ControlChange when the mapped value changes
	ModeContinuousOnChange
	// ModeGated emits a ControlChange on every sample while a gate button is held
	ModeGated
)

var modeNames = map[Mode]string{
	ModeEdge:               "edge",
	ModeContinuousAlways:   "continuous_always",
	ModeContinuousOnChange: "continuous_on_change",
	ModeGated:              "gated",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses a mode name as produced by Mode.String
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, &ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// binding resolves a logical channel to the snapshot field it reads
type binding struct {
	mode   Mode
	button joycon.ButtonID // edge source or gate
	axis   joycon.Axis
	cal    Calibration
}

func edge(b joycon.ButtonID) binding {
	return binding{mode: ModeEdge, button: b}
}

func continuous(mode Mode, a joycon.Axis, cal Calibration) binding {
	return binding{mode: mode, axis: a, cal: cal}
}

// bindings is the closed set of recognized logical channels
var bindings = map[string]binding{
	"analog_r_horizontal": continuous(ModeContinuousOnChange, joycon.AxisRightStickHorizontal, CalibrationRightStickHorizontal),
	"analog_r_vertical":   continuous(ModeContinuousOnChange, joycon.AxisRightStickVertical, CalibrationRightStickVertical),

	"gyro_x": continuous(ModeContinuousAlways, joycon.AxisGyroX, CalibrationGyro),
	"gyro_y": continuous(ModeContinuousAlways, joycon.AxisGyroY, CalibrationGyro),
	"gyro_z": continuous(ModeContinuousAlways, joycon.AxisGyroZ, CalibrationGyro),

	"pointer_x": continuous(ModeContinuousAlways, joycon.AxisAccelX, CalibrationPointer),
	"pointer_y": continuous(ModeContinuousAlways, joycon.AxisAccelY, CalibrationPointer),
	"pointer_z": continuous(ModeContinuousAlways, joycon.AxisAccelZ, CalibrationPointer),

	"zr_pointer_x": {mode: ModeGated, button: joycon.ButtonRightZR, axis: joycon.AxisAccelX, cal: CalibrationPointer},

	"btn_r_a":    edge(joycon.ButtonRightA),
	"btn_r_b":    edge(joycon.ButtonRightB),
	"btn_r_x":    edge(joycon.ButtonRightX),
	"btn_r_y":    edge(joycon.ButtonRightY),
	"btn_r_r":    edge(joycon.ButtonRightR),
	"btn_r_zr":   edge(joycon.ButtonRightZR),
	"btn_r_sl":   edge(joycon.ButtonRightSL),
	"btn_r_sr":   edge(joycon.ButtonRightSR),
	"btn_l_down": edge(joycon.ButtonLeftDown),
	"btn_plus":   edge(joycon.ButtonPlus),
	"btn_home":   edge(joycon.ButtonHome),
}

// IsRecognized reports whether name is a known logical channel
func IsRecognized(name string) bool {
	_, ok := bindings[name]
	return ok
}

// Names returns every recognized logical channel name, sorted
func Names() []string {
	names := make([]string, 0, len(bindings))
	for n := range bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ChannelInfo describes a recognized logical channel
type ChannelInfo struct {
	Name        string       `json:"name"`
	Mode        string       `json:"mode"`
	Source      string       `json:"source"`
	Gate        string       `json:"gate,omitempty"`
	Calibration *Calibration `json:"calibration,omitempty"`
}

// Describe returns the default binding of every recognized channel, sorted
// by name
func Describe() []ChannelInfo {
	infos := make([]ChannelInfo, 0, len(bindings))
	for _, name := range Names() {
		b := bindings[name]
		info := ChannelInfo{Name: name, Mode: b.mode.String()}
		switch b.mode {
		case ModeEdge:
			info.Source = "buttons." + b.button.String()
		case ModeGated:
			info.Source = b.axis.String()
			info.Gate = "buttons." + b.button.String()
		default:
			info.Source = b.axis.String()
		}
		if b.mode != ModeEdge {
			cal := b.cal
			info.Calibration = &cal
		}
		infos = append(infos, info)
	}
	return infos
}
