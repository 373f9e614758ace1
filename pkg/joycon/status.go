package joycon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrIncompleteSnapshot is returned when a status document lacks a field
var ErrIncompleteSnapshot = errors.New("incomplete snapshot")

// flag is a 0/1 or true/false value in a status document
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*f = true
	case "0", "false":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}

func (f flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

type wireBattery struct {
	Charging *flag `json:"charging"`
	Level    *int  `json:"level"`
}

// wireStatus mirrors the status document reported by the controller:
//
//	{"battery": {...}, "buttons": {"right": {...}, "shared": {...}, "left": {...}},
//	 "analog-sticks": {"left": {...}, "right": {...}}, "accel": {...}, "gyro": {...}}
type wireStatus struct {
	Battery *wireBattery               `json:"battery"`
	Buttons map[string]map[string]flag `json:"buttons"`
	Sticks  map[string]map[string]*int `json:"analog-sticks"`
	Accel   map[string]*int            `json:"accel"`
	Gyro    map[string]*int            `json:"gyro"`
}

func num(v int) *int { return &v }

func missing(path string) error {
	return fmt.Errorf("%w: missing %s", ErrIncompleteSnapshot, path)
}

// UnmarshalJSON decodes a controller status document. Every field of the
// snapshot must be present.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w wireStatus
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var out Snapshot

	if w.Battery == nil {
		return missing("battery")
	}
	if w.Battery.Charging == nil {
		return missing("battery.charging")
	}
	if w.Battery.Level == nil {
		return missing("battery.level")
	}
	out.Battery = Battery{Charging: bool(*w.Battery.Charging), Level: *w.Battery.Level}

	for b := ButtonID(0); b < NumButtons; b++ {
		k := buttonKeys[b]
		v, ok := w.Buttons[k.group][k.key]
		if !ok {
			return missing("buttons." + b.String())
		}
		out.Buttons[b] = bool(v)
	}

	sticks := []struct {
		side string
		dst  *Stick
	}{
		{"left", &out.Left},
		{"right", &out.Right},
	}
	for _, st := range sticks {
		h := w.Sticks[st.side]["horizontal"]
		if h == nil {
			return missing("analog-sticks." + st.side + ".horizontal")
		}
		v := w.Sticks[st.side]["vertical"]
		if v == nil {
			return missing("analog-sticks." + st.side + ".vertical")
		}
		*st.dst = Stick{Horizontal: *h, Vertical: *v}
	}

	var err error
	if out.Accel, err = vector("accel", w.Accel); err != nil {
		return err
	}
	if out.Gyro, err = vector("gyro", w.Gyro); err != nil {
		return err
	}

	*s = out
	return nil
}

// vector reads x, y and z; null counts as missing
func vector(name string, m map[string]*int) (Vector3, error) {
	var v Vector3
	for _, c := range []struct {
		key string
		dst *int
	}{{"x", &v.X}, {"y", &v.Y}, {"z", &v.Z}} {
		val := m[c.key]
		if val == nil {
			return Vector3{}, missing(name + "." + c.key)
		}
		*c.dst = *val
	}
	return v, nil
}

// MarshalJSON encodes the snapshot as a controller status document
func (s Snapshot) MarshalJSON() ([]byte, error) {
	charging := flag(s.Battery.Charging)
	level := s.Battery.Level
	w := wireStatus{
		Battery: &wireBattery{Charging: &charging, Level: &level},
		Buttons: map[string]map[string]flag{
			"right":  {},
			"shared": {},
			"left":   {},
		},
		Sticks: map[string]map[string]*int{
			"left":  {"horizontal": num(s.Left.Horizontal), "vertical": num(s.Left.Vertical)},
			"right": {"horizontal": num(s.Right.Horizontal), "vertical": num(s.Right.Vertical)},
		},
		Accel: map[string]*int{"x": num(s.Accel.X), "y": num(s.Accel.Y), "z": num(s.Accel.Z)},
		Gyro:  map[string]*int{"x": num(s.Gyro.X), "y": num(s.Gyro.Y), "z": num(s.Gyro.Z)},
	}
	for b := ButtonID(0); b < NumButtons; b++ {
		k := buttonKeys[b]
		w.Buttons[k.group][k.key] = flag(s.Buttons[b])
	}
	return json.Marshal(w)
}
