package translator

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEventMessage(t *testing.T) {
	tests := []struct {
		event    Event
		expected []byte
		str      string
	}{
		{NoteOn(35, 0), []byte{0x90, 35, 127}, "NoteOn(35, ch=0)"},
		{NoteOff(35, 0), []byte{0x80, 35, 0}, "NoteOff(35, ch=0)"},
		{NoteOn(60, 15), []byte{0x9F, 60, 127}, "NoteOn(60, ch=15)"},
		{ControlChange(16, 63, 2), []byte{0xB2, 16, 63}, "ControlChange(16, 63, ch=2)"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			msg := tt.event.Message()
			if !bytes.Equal(msg, tt.expected) {
				t.Errorf("Message() = % X, want % X", []byte(msg), tt.expected)
			}
			if got := tt.event.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}

	if msg := (Event{}).Message(); msg != nil {
		t.Errorf("zero Event Message() = % X, want nil", []byte(msg))
	}
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(ControlChange(1, 2, 3))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"kind":"ControlChange","channel":3,"number":1,"value":2}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back Event
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != ControlChange(1, 2, 3) {
		t.Errorf("Unmarshal() = %v", back)
	}
	if err := json.Unmarshal([]byte(`{"kind":"PitchBend"}`), &back); err == nil {
		t.Error("Unmarshal(unknown kind) want error")
	}
}
