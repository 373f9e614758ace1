package translator

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// NoteVelocity is the velocity of every emitted NoteOn
const NoteVelocity = 127

// Kind is the type of an outbound event
type Kind uint8

// Event kinds
const (
	KindNoteOn Kind = iota + 1
	KindNoteOff
	KindControlChange
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "NoteOn"
	case KindNoteOff:
		return "NoteOff"
	case KindControlChange:
		return "ControlChange"
	}
	return "Unknown"
}

// Event is one outbound MIDI instruction
type Event struct {
	Kind    Kind  `json:"kind"`
	Channel uint8 `json:"channel"` // 0-15
	Number  uint8 `json:"number"`  // note or controller number
	Value   uint8 `json:"value"`   // controller value, 0 for notes
}

// NoteOn creates a NoteOn event
func NoteOn(note, channel uint8) Event {
	return Event{Kind: KindNoteOn, Channel: channel, Number: note}
}

// NoteOff creates a NoteOff event
func NoteOff(note, channel uint8) Event {
	return Event{Kind: KindNoteOff, Channel: channel, Number: note}
}

// ControlChange creates a ControlChange event
func ControlChange(cc, value, channel uint8) Event {
	return Event{Kind: KindControlChange, Channel: channel, Number: cc, Value: value}
}

// Message converts the event to its MIDI wire message
func (e Event) Message() midi.Message {
	switch e.Kind {
	case KindNoteOn:
		return midi.NoteOn(e.Channel, e.Number, NoteVelocity)
	case KindNoteOff:
		return midi.NoteOff(e.Channel, e.Number)
	case KindControlChange:
		return midi.ControlChange(e.Channel, e.Number, e.Value)
	}
	return nil
}

func (e Event) String() string {
	switch e.Kind {
	case KindNoteOn, KindNoteOff:
		return fmt.Sprintf("%s(%d, ch=%d)", e.Kind, e.Number, e.Channel)
	case KindControlChange:
		return fmt.Sprintf("ControlChange(%d, %d, ch=%d)", e.Number, e.Value, e.Channel)
	}
	return "Unknown"
}

// MarshalText renders the kind by name in JSON output
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name as produced by MarshalText
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindNoteOn, KindNoteOff, KindControlChange} {
		if string(text) == c.String() {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}
