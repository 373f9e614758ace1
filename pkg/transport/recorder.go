package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/james-see/joycon2midi/pkg/translator"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Recorder timing
const (
	RecordTicksPerQuarter = 960
	RecordTempo           = 120.0
)

// Recorder captures events into a single-track Standard MIDI File, keeping
// the time between events. The file is written on Close.
type Recorder struct {
	path   string
	now    func() time.Time
	last   time.Time
	track  smf.Track
	events int
}

// NewRecorder creates a recorder that writes to path on Close
func NewRecorder(path string) *Recorder {
	return newRecorder(path, time.Now)
}

func newRecorder(path string, now func() time.Time) *Recorder {
	r := &Recorder{path: path, now: now, last: now()}

	microsecondsPerBeat := uint32(60000000.0 / RecordTempo)
	r.track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))
	return r
}

func ticks(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	beats := d.Seconds() * RecordTempo / 60.0
	return uint32(beats * RecordTicksPerQuarter)
}

// Send appends an event to the recording
func (r *Recorder) Send(ev translator.Event) error {
	msg := ev.Message()
	if msg == nil {
		return &TransportError{Event: ev, Err: errors.New("unknown event kind")}
	}
	at := r.now()
	r.track.Add(ticks(at.Sub(r.last)), msg)
	r.last = at
	r.events++
	return nil
}

// Events returns the number of recorded events
func (r *Recorder) Events() int {
	return r.events
}

// WriteTo writes the recording as a Standard MIDI File
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(RecordTicksPerQuarter)

	track := make(smf.Track, len(r.track))
	copy(track, r.track)
	track.Close(0)

	if err := s.Add(track); err != nil {
		return 0, fmt.Errorf("failed to add track: %w", err)
	}
	return s.WriteTo(w)
}

// Close writes the recording to its file
func (r *Recorder) Close() error {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to write MIDI: %w", err)
	}
	if err := os.WriteFile(r.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	return nil
}
