package translator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/james-see/joycon2midi/pkg/joycon"
)

// ChannelSpec is one validated entry of a ChannelMap
type ChannelSpec struct {
	Name        string
	Mode        Mode
	Gate        joycon.ButtonID // only meaningful for ModeGated
	Destination uint8           // note or controller number
}

// ChannelMap is the validated association from logical channel to
// destination number. It is immutable once built.
type ChannelMap struct {
	specs []ChannelSpec
}

type buildOptions struct {
	modes map[string]Mode
}

// Option customizes Build
type Option func(*buildOptions)

// WithMode overrides the default mode of a continuous channel. Only
// continuous_always and continuous_on_change may be swapped.
func WithMode(name string, mode Mode) Option {
	return func(o *buildOptions) {
		if o.modes == nil {
			o.modes = make(map[string]Mode)
		}
		o.modes[name] = mode
	}
}

// Build validates a raw name -> destination mapping
func Build(raw map[string]int, opts ...Option) (*ChannelMap, error) {
	if len(raw) == 0 {
		return nil, &ConfigurationError{Field: "mapping", Reason: "no channels mapped"}
	}

	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	var unknown, outOfRange []string
	for _, name := range sortedKeys(raw) {
		if !IsRecognized(name) {
			unknown = append(unknown, name)
			continue
		}
		if d := raw[name]; d < MinValue || d > MaxValue {
			outOfRange = append(outOfRange, fmt.Sprintf("%s=%d", name, d))
		}
	}

	var errs []error
	if len(unknown) > 0 {
		errs = append(errs, &ConfigurationError{
			Field:  "mapping",
			Reason: "unrecognized channel names: " + strings.Join(unknown, ", "),
		})
	}
	if len(outOfRange) > 0 {
		errs = append(errs, &ConfigurationError{
			Field:  "mapping",
			Reason: fmt.Sprintf("destinations outside %d-%d: %s", MinValue, MaxValue, strings.Join(outOfRange, ", ")),
		})
	}
	for _, name := range sortedKeys(o.modes) {
		if err := checkOverride(name, o.modes[name], raw); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cm := &ChannelMap{specs: make([]ChannelSpec, 0, len(raw))}
	for _, name := range sortedKeys(raw) {
		b := bindings[name]
		spec := ChannelSpec{
			Name:        name,
			Mode:        b.mode,
			Destination: uint8(raw[name]),
		}
		if m, ok := o.modes[name]; ok {
			spec.Mode = m
		}
		if spec.Mode == ModeGated {
			spec.Gate = b.button
		}
		cm.specs = append(cm.specs, spec)
	}
	return cm, nil
}

func checkOverride(name string, mode Mode, raw map[string]int) error {
	field := "modes." + name
	b, ok := bindings[name]
	if !ok {
		return &ConfigurationError{Field: field, Reason: "unrecognized channel name"}
	}
	if _, mapped := raw[name]; !mapped {
		return &ConfigurationError{Field: field, Reason: "channel is not mapped"}
	}
	swappable := func(m Mode) bool {
		return m == ModeContinuousAlways || m == ModeContinuousOnChange
	}
	if !swappable(b.mode) || !swappable(mode) {
		return &ConfigurationError{
			Field:  field,
			Reason: fmt.Sprintf("cannot change mode from %s to %s", b.mode, mode),
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Specs returns the channel specs, sorted by name
func (m *ChannelMap) Specs() []ChannelSpec {
	out := make([]ChannelSpec, len(m.specs))
	copy(out, m.specs)
	return out
}

// Len returns the number of mapped channels
func (m *ChannelMap) Len() int {
	return len(m.specs)
}

// Lookup returns the spec of a mapped channel
func (m *ChannelMap) Lookup(name string) (ChannelSpec, bool) {
	for _, s := range m.specs {
		if s.Name == name {
			return s, true
		}
	}
	return ChannelSpec{}, false
}
