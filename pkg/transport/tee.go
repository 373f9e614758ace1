package transport

import (
	"errors"

	"github.com/james-see/joycon2midi/pkg/translator"
)

// Tee sends every event to each of its sinks. All sinks are tried; the
// errors of failing sinks are joined.
type Tee []Sink

// Send forwards ev to every sink
func (t Tee) Send(ev translator.Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Send(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
