package bridge

import (
	"context"
	"time"

	"github.com/james-see/joycon2midi/pkg/translator"
	"github.com/james-see/joycon2midi/pkg/transport"
)

// LearnPulses is how many note pulses Learn sends for a button channel
const LearnPulses = 4

// Learn sends the output of one channel without a controller so a DAW can
// pick it up in MIDI-learn mode. Controller channels sweep 0-127, button
// channels pulse their note. step is the time between events.
func Learn(ctx context.Context, sink transport.Sink, spec translator.ChannelSpec, channel uint8, step time.Duration) error {
	var events []translator.Event
	if spec.Mode == translator.ModeEdge {
		for i := 0; i < LearnPulses; i++ {
			events = append(events,
				translator.NoteOn(spec.Destination, channel),
				translator.NoteOff(spec.Destination, channel),
			)
		}
	} else {
		for v := translator.MinValue; v <= translator.MaxValue; v++ {
			events = append(events, translator.ControlChange(spec.Destination, uint8(v), channel))
		}
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := sink.Send(ev); err != nil {
			return err
		}
		timer.Reset(step)
	}
	return nil
}
