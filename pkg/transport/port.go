// Package transport delivers translated events to MIDI outputs
package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/james-see/joycon2midi/pkg/translator"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DefaultVirtualPort is the name of the virtual output opened when no
// hardware port is chosen
const DefaultVirtualPort = "conductor_virtual_port"

// ErrNoPortAvailable is returned when no output port could be opened
var ErrNoPortAvailable = errors.New("no MIDI output port available")

// TransportError reports a failed send of one event
type TransportError struct {
	Event translator.Event
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send %s: %v", e.Event, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Sink consumes translated events
type Sink interface {
	Send(ev translator.Event) error
}

// Driver is the part of a MIDI driver needed to open an output.
// *rtmididrv.Driver implements it.
type Driver interface {
	Outs() ([]drivers.Out, error)
	OpenVirtualOut(name string) (drivers.Out, error)
}

// Selector picks one of the offered port names and returns its index
type Selector func(choices []string) (int, error)

// NegotiateOptions controls output port selection
type NegotiateOptions struct {
	// PortName selects the first output whose name contains it
	// (case-insensitive). Empty means ask Select.
	PortName string
	// VirtualName is the virtual port offered as the last choice. Empty
	// disables the virtual port.
	VirtualName string
	// Select is asked when PortName is empty and outputs exist. Nil picks
	// the virtual port.
	Select Selector
}

// Port is a negotiated MIDI output
type Port struct {
	out     drivers.Out
	send    func(midi.Message) error
	virtual bool
}

// ListPorts returns the names of the available output ports
func ListPorts(drv Driver) ([]string, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("failed to list MIDI outputs: %w", err)
	}
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	return names, nil
}

// Negotiate opens the output port events will be sent on. With no
// hardware outputs the virtual port is opened directly.
func Negotiate(drv Driver, opts NegotiateOptions) (*Port, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPortAvailable, err)
	}

	if len(outs) == 0 {
		return openVirtual(drv, opts.VirtualName)
	}

	if opts.PortName != "" {
		if opts.VirtualName != "" && strings.EqualFold(opts.PortName, opts.VirtualName) {
			return openVirtual(drv, opts.VirtualName)
		}
		want := strings.ToLower(opts.PortName)
		for _, o := range outs {
			if strings.Contains(strings.ToLower(o.String()), want) {
				return openOut(o, false)
			}
		}
		return nil, fmt.Errorf("%w: no output matches %q", ErrNoPortAvailable, opts.PortName)
	}

	if opts.Select == nil {
		return openVirtual(drv, opts.VirtualName)
	}

	choices := make([]string, 0, len(outs)+1)
	for _, o := range outs {
		choices = append(choices, o.String())
	}
	if opts.VirtualName != "" {
		choices = append(choices, opts.VirtualName+" (virtual)")
	}

	idx, err := opts.Select(choices)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPortAvailable, err)
	}
	switch {
	case idx >= 0 && idx < len(outs):
		return openOut(outs[idx], false)
	case idx == len(outs) && opts.VirtualName != "":
		return openVirtual(drv, opts.VirtualName)
	}
	return nil, fmt.Errorf("%w: invalid selection %d", ErrNoPortAvailable, idx)
}

func openVirtual(drv Driver, name string) (*Port, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: virtual port disabled", ErrNoPortAvailable)
	}
	out, err := drv.OpenVirtualOut(name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open virtual port %q: %v", ErrNoPortAvailable, name, err)
	}
	return openOut(out, true)
}

func openOut(out drivers.Out, virtual bool) (*Port, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrNoPortAvailable, out.String(), err)
	}
	return &Port{out: out, send: send, virtual: virtual}, nil
}

// Send writes one event to the port
func (p *Port) Send(ev translator.Event) error {
	if err := p.send(ev.Message()); err != nil {
		return &TransportError{Event: ev, Err: err}
	}
	return nil
}

// Name returns the port name
func (p *Port) Name() string {
	return p.out.String()
}

// Virtual reports whether the port is the virtual output
func (p *Port) Virtual() bool {
	return p.virtual
}

// Close closes the port
func (p *Port) Close() error {
	return p.out.Close()
}
