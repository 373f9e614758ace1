package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/james-see/joycon2midi/pkg/translator"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &translator.ConfigurationError{Reason: "missing configuration"}
	}

	var errs []error

	// ------------------------------------------------------------
	// MIDI
	// ------------------------------------------------------------

	if cfg.MIDI.Channel < 0 || cfg.MIDI.Channel > translator.MaxChannel {
		errs = append(errs, &translator.ConfigurationError{
			Field:  "midi.channel",
			Reason: fmt.Sprintf("%d is outside 0-%d", cfg.MIDI.Channel, translator.MaxChannel),
		})
	}

	// ------------------------------------------------------------
	// MAPPING + MODES
	// ------------------------------------------------------------

	if _, err := cfg.ChannelMap(); err != nil {
		errs = append(errs, err)
	}

	// ------------------------------------------------------------
	// RUNTIME
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 {
		errs = append(errs, &translator.ConfigurationError{
			Field:  "poll.interval_ms",
			Reason: "must not be negative",
		})
	}
	if cfg.Transport.FailureLimit() < 0 {
		errs = append(errs, &translator.ConfigurationError{
			Field:  "transport.max_consecutive_failures",
			Reason: "must not be negative",
		})
	}
	if cfg.Log.Level != "" {
		if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
			errs = append(errs, &translator.ConfigurationError{
				Field:  "log.level",
				Reason: err.Error(),
			})
		}
	}

	return errors.Join(errs...)
}

// ChannelMap builds the validated channel map described by the mapping and
// modes sections.
func (c *Config) ChannelMap() (*translator.ChannelMap, error) {
	var opts []translator.Option
	var errs []error
	for _, name := range sortedNames(c.Modes) {
		mode, err := translator.ParseMode(c.Modes[name])
		if err != nil {
			errs = append(errs, &translator.ConfigurationError{
				Field:  "modes." + name,
				Reason: fmt.Sprintf("unknown mode %q", c.Modes[name]),
			})
			continue
		}
		opts = append(opts, translator.WithMode(name, mode))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return translator.Build(c.Mapping, opts...)
}
