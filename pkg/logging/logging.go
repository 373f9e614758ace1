// Package logging builds the zap loggers used by the joycon2midi commands
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/james-see/joycon2midi/pkg/translator"
)

// New returns a production (JSON) or development (console) logger at the
// given level. An empty level means info.
func New(level string, development bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = !development

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Event returns the fields describing one outgoing MIDI event
func Event(ev translator.Event) []zap.Field {
	return []zap.Field{
		zap.Stringer("kind", ev.Kind),
		zap.Uint8("channel", ev.Channel),
		zap.Uint8("number", ev.Number),
		zap.Uint8("value", ev.Value),
	}
}
