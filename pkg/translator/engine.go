// Package translator turns controller snapshots into MIDI events
package translator

import (
	"errors"
	"fmt"

	"github.com/james-see/joycon2midi/pkg/joycon"
)

// MaxChannel is the highest MIDI channel number (0-based)
const MaxChannel = 15

// channelState is the last value sent out on a deduplicated channel: 0/1
// for buttons, the mapped output for on-change axes.
type channelState struct {
	last int
}

type slot struct {
	spec  ChannelSpec
	bind  binding
	state *channelState
}

// Engine holds the previous-sample state of every mapped channel and
// decides which events a new snapshot produces. It is not safe for
// concurrent use; one goroutine owns it.
type Engine struct {
	channel uint8
	slots   []slot
	states  map[string]*channelState
}

// NewEngine creates an engine for a channel map. The initial snapshot seeds
// the state of edge and on-change channels so that the first Process call
// does not report the initial state as a change.
func NewEngine(cm *ChannelMap, channel int, initial joycon.Snapshot) (*Engine, error) {
	if cm == nil || cm.Len() == 0 {
		return nil, &ConfigurationError{Field: "mapping", Reason: "no channels mapped"}
	}
	if channel < 0 || channel > MaxChannel {
		return nil, &ConfigurationError{
			Field:  "channel",
			Reason: fmt.Sprintf("%d outside 0-%d", channel, MaxChannel),
		}
	}

	e := &Engine{
		channel: uint8(channel),
		states:  make(map[string]*channelState),
	}

	var errs []error
	for _, spec := range cm.specs {
		b := bindings[spec.Name]
		if spec.Mode != ModeEdge {
			if err := b.cal.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", spec.Name, err))
				continue
			}
		}

		s := slot{spec: spec, bind: b}
		switch spec.Mode {
		case ModeEdge:
			s.state = &channelState{last: pressed(initial, b.button)}
		case ModeContinuousOnChange:
			s.state = &channelState{last: b.cal.Map(initial.Axis(b.axis))}
		}
		if s.state != nil {
			e.states[spec.Name] = s.state
		}
		e.slots = append(e.slots, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return e, nil
}

func pressed(s joycon.Snapshot, b joycon.ButtonID) int {
	if s.Pressed(b) {
		return 1
	}
	return 0
}

// Process evaluates every mapped channel against a snapshot and returns
// the events to send, in channel-name order. It never fails.
func (e *Engine) Process(s joycon.Snapshot) []Event {
	var events []Event

	for i := range e.slots {
		sl := &e.slots[i]
		dst := sl.spec.Destination

		switch sl.spec.Mode {
		case ModeEdge:
			v := pressed(s, sl.bind.button)
			if v == sl.state.last {
				continue
			}
			sl.state.last = v
			if v == 1 {
				events = append(events, NoteOn(dst, e.channel))
			} else {
				events = append(events, NoteOff(dst, e.channel))
			}

		case ModeContinuousOnChange:
			v := sl.bind.cal.Map(s.Axis(sl.bind.axis))
			if v == sl.state.last {
				continue
			}
			sl.state.last = v
			events = append(events, ControlChange(dst, uint8(v), e.channel))

		case ModeContinuousAlways:
			v := sl.bind.cal.Map(s.Axis(sl.bind.axis))
			events = append(events, ControlChange(dst, uint8(v), e.channel))

		case ModeGated:
			if !s.Pressed(sl.spec.Gate) {
				continue
			}
			v := sl.bind.cal.Map(s.Axis(sl.bind.axis))
			events = append(events, ControlChange(dst, uint8(v), e.channel))
		}
	}

	return events
}

// Channel returns the MIDI channel all events are sent on
func (e *Engine) Channel() uint8 {
	return e.channel
}

// Specs returns the channels the engine evaluates
func (e *Engine) Specs() []ChannelSpec {
	out := make([]ChannelSpec, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.spec
	}
	return out
}

// LastValue returns the last emitted value of a deduplicated channel
func (e *Engine) LastValue(name string) (int, bool) {
	st, ok := e.states[name]
	if !ok {
		return 0, false
	}
	return st.last, true
}
