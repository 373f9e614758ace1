package transport

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/james-see/joycon2midi/pkg/translator"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/smf"
)

// mockOut implements drivers.Out for testing
type mockOut struct {
	name    string
	open    bool
	sent    [][]byte
	sendErr error
}

func (m *mockOut) Open() error {
	m.open = true
	return nil
}

func (m *mockOut) Close() error {
	m.open = false
	return nil
}

func (m *mockOut) IsOpen() bool            { return m.open }
func (m *mockOut) Number() int             { return 0 }
func (m *mockOut) String() string          { return m.name }
func (m *mockOut) Underlying() interface{} { return nil }

func (m *mockOut) Send(data []byte) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, append([]byte(nil), data...))
	return nil
}

// mockDriver implements Driver for testing
type mockDriver struct {
	outs       []*mockOut
	virtual    *mockOut
	virtualErr error
}

func (d *mockDriver) Outs() ([]drivers.Out, error) {
	outs := make([]drivers.Out, len(d.outs))
	for i, o := range d.outs {
		outs[i] = o
	}
	return outs, nil
}

func (d *mockDriver) OpenVirtualOut(name string) (drivers.Out, error) {
	if d.virtualErr != nil {
		return nil, d.virtualErr
	}
	d.virtual = &mockOut{name: name}
	return d.virtual, nil
}

func TestNegotiateNoOutputsOpensVirtual(t *testing.T) {
	drv := &mockDriver{}
	p, err := Negotiate(drv, NegotiateOptions{VirtualName: DefaultVirtualPort})
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	if !p.Virtual() || p.Name() != DefaultVirtualPort {
		t.Errorf("Negotiate() port = %q virtual=%v, want virtual %q", p.Name(), p.Virtual(), DefaultVirtualPort)
	}
}

func TestNegotiateNoOutputsVirtualDisabled(t *testing.T) {
	_, err := Negotiate(&mockDriver{}, NegotiateOptions{})
	if !errors.Is(err, ErrNoPortAvailable) {
		t.Errorf("Negotiate() error = %v, want ErrNoPortAvailable", err)
	}
}

func TestNegotiateVirtualFails(t *testing.T) {
	drv := &mockDriver{virtualErr: errors.New("not supported")}
	_, err := Negotiate(drv, NegotiateOptions{VirtualName: "v"})
	if !errors.Is(err, ErrNoPortAvailable) {
		t.Errorf("Negotiate() error = %v, want ErrNoPortAvailable", err)
	}
}

func TestNegotiateByName(t *testing.T) {
	drv := &mockDriver{outs: []*mockOut{{name: "Midi Through 14:0"}, {name: "IAC Driver Bus 1"}}}

	p, err := Negotiate(drv, NegotiateOptions{PortName: "iac", VirtualName: "v"})
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	if p.Name() != "IAC Driver Bus 1" || p.Virtual() {
		t.Errorf("Negotiate() port = %q, want IAC Driver Bus 1", p.Name())
	}

	if _, err := Negotiate(drv, NegotiateOptions{PortName: "loopMIDI"}); !errors.Is(err, ErrNoPortAvailable) {
		t.Errorf("Negotiate(unknown) error = %v, want ErrNoPortAvailable", err)
	}

	p, err = Negotiate(drv, NegotiateOptions{PortName: "V", VirtualName: "v"})
	if err != nil || !p.Virtual() {
		t.Errorf("Negotiate(virtual name) = %v, %v, want virtual port", p, err)
	}
}

func TestNegotiateWithSelector(t *testing.T) {
	drv := &mockDriver{outs: []*mockOut{{name: "A"}, {name: "B"}}}

	var offered []string
	pick := func(idx int) Selector {
		return func(choices []string) (int, error) {
			offered = choices
			return idx, nil
		}
	}

	p, err := Negotiate(drv, NegotiateOptions{VirtualName: "conductor", Select: pick(1)})
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	if p.Name() != "B" {
		t.Errorf("Negotiate() port = %q, want B", p.Name())
	}
	if strings.Join(offered, "|") != "A|B|conductor (virtual)" {
		t.Errorf("offered choices = %v", offered)
	}

	p, err = Negotiate(drv, NegotiateOptions{VirtualName: "conductor", Select: pick(2)})
	if err != nil || !p.Virtual() {
		t.Errorf("Negotiate(virtual choice) = %v, %v", p, err)
	}

	if _, err := Negotiate(drv, NegotiateOptions{Select: pick(2)}); !errors.Is(err, ErrNoPortAvailable) {
		t.Errorf("Negotiate(out of range) error = %v, want ErrNoPortAvailable", err)
	}
}

func TestPortSend(t *testing.T) {
	out := &mockOut{name: "A"}
	drv := &mockDriver{outs: []*mockOut{out}}
	p, err := Negotiate(drv, NegotiateOptions{PortName: "A"})
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	if err := p.Send(translator.NoteOn(35, 0)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(out.sent) != 1 || !bytes.Equal(out.sent[0], []byte{0x90, 35, 127}) {
		t.Errorf("sent = % X", out.sent)
	}

	out.sendErr = errors.New("cable unplugged")
	err = p.Send(translator.NoteOff(35, 0))
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Send() error = %v, want *TransportError", err)
	}
	if te.Event != translator.NoteOff(35, 0) {
		t.Errorf("TransportError.Event = %v", te.Event)
	}

	if err := p.Close(); err != nil || out.open {
		t.Errorf("Close() = %v, open=%v", err, out.open)
	}
}

func TestListPorts(t *testing.T) {
	names, err := ListPorts(&mockDriver{outs: []*mockOut{{name: "A"}, {name: "B"}}})
	if err != nil {
		t.Fatalf("ListPorts() error = %v", err)
	}
	if strings.Join(names, ",") != "A,B" {
		t.Errorf("ListPorts() = %v", names)
	}
}

func TestPromptSelector(t *testing.T) {
	var out bytes.Buffer
	sel := PromptSelector(strings.NewReader("7\nabc\n1\n"), &out)

	idx, err := sel([]string{"A", "B"})
	if err != nil {
		t.Fatalf("selector error = %v", err)
	}
	if idx != 1 {
		t.Errorf("selector = %d, want 1", idx)
	}
	if !strings.Contains(out.String(), "1: B") || strings.Count(out.String(), "invalid selection") != 2 {
		t.Errorf("prompt output = %q", out.String())
	}

	sel = PromptSelector(strings.NewReader(""), &out)
	if _, err := sel([]string{"A"}); err == nil {
		t.Error("selector on empty input want error")
	}
}

type failingSink struct{ err error }

func (f failingSink) Send(translator.Event) error { return f.err }

func TestTee(t *testing.T) {
	a := &mockOut{name: "a", open: true}
	pa := &Port{out: a, send: func(m midi.Message) error { return a.Send(m) }}
	rec := NewRecorder(filepath.Join(t.TempDir(), "x.mid"))

	tee := Tee{pa, rec}
	if err := tee.Send(translator.NoteOn(1, 0)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(a.sent) != 1 || rec.Events() != 1 {
		t.Errorf("tee delivered port=%d recorder=%d", len(a.sent), rec.Events())
	}

	boom := errors.New("boom")
	tee = Tee{failingSink{boom}, rec}
	if err := tee.Send(translator.NoteOff(1, 0)); !errors.Is(err, boom) {
		t.Errorf("Send() error = %v, want boom", err)
	}
	if rec.Events() != 2 {
		t.Error("tee should keep sending after a failing sink")
	}
}

func TestRecorder(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	path := filepath.Join(t.TempDir(), "take.mid")
	rec := newRecorder(path, now)

	clock = clock.Add(250 * time.Millisecond)
	_ = rec.Send(translator.NoteOn(35, 0))
	clock = clock.Add(500 * time.Millisecond)
	_ = rec.Send(translator.ControlChange(19, 64, 0))
	_ = rec.Send(translator.NoteOff(35, 0))

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("smf.ReadFrom() error = %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(s.Tracks))
	}

	type recorded struct {
		delta  uint32
		status byte
	}
	var got []recorded
	for _, ev := range s.Tracks[0] {
		msg := ev.Message
		if len(msg) == 3 && msg[0] < 0xF0 {
			got = append(got, recorded{delta: ev.Delta, status: msg[0]})
		}
	}

	want := []recorded{
		{delta: 480, status: 0x90}, // 250ms at 120 BPM = half a beat
		{delta: 960, status: 0xB0},
		{delta: 0, status: 0x80},
	}
	if len(got) != len(want) {
		t.Fatalf("recorded %d channel messages, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
