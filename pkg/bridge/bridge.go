// Package bridge drives the Joy-Con to MIDI loop: read a snapshot, translate
// it, send the batch.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/james-see/joycon2midi/pkg/config"
	"github.com/james-see/joycon2midi/pkg/joycon"
	"github.com/james-see/joycon2midi/pkg/logging"
	"github.com/james-see/joycon2midi/pkg/translator"
	"github.com/james-see/joycon2midi/pkg/transport"
)

// RecentEvents is how many sent events Stats keeps
const RecentEvents = 64

// ErrNotStarted is returned by Step before Start succeeded
var ErrNotStarted = errors.New("bridge not started")

// Config is the runtime configuration of a bridge
type Config struct {
	Channel                int
	Channels               *translator.ChannelMap
	Interval               time.Duration
	MaxConsecutiveFailures int // 0 disables the limit
}

// Batch is the outcome of one cycle, passed to observers after the flush
type Batch struct {
	At       time.Time
	Snapshot joycon.Snapshot
	Events   []translator.Event
	Failed   int
}

// Observer is notified of every flushed batch. It runs on the loop
// goroutine and must not block.
type Observer func(Batch)

// Stats is a point-in-time view of the bridge
type Stats struct {
	Started             bool               `json:"started"`
	StartedAt           time.Time          `json:"started_at"`
	Battery             joycon.Battery     `json:"battery"`
	Snapshots           uint64             `json:"snapshots"`
	EventsSent          uint64             `json:"events_sent"`
	EventsDropped       uint64             `json:"events_dropped"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	LastError           string             `json:"last_error,omitempty"`
	LastSnapshot        *joycon.Snapshot   `json:"last_snapshot,omitempty"`
	Recent              []translator.Event `json:"recent"`
}

// Bridge owns the engine and moves batches from a source to a sink
type Bridge struct {
	cfg  Config
	src  joycon.Source
	sink transport.Sink
	log  *zap.Logger

	engine    *translator.Engine
	observers []Observer
	failures  int

	mu    sync.Mutex
	stats Stats
	now   func() time.Time
}

// New creates a bridge. The engine is built by Start from the first snapshot.
func New(cfg Config, src joycon.Source, sink transport.Sink, log *zap.Logger) (*Bridge, error) {
	if src == nil {
		return nil, errors.New("bridge: source required")
	}
	if sink == nil {
		return nil, errors.New("bridge: sink required")
	}
	if cfg.Channels == nil {
		return nil, &translator.ConfigurationError{Field: "mapping", Reason: "no channel map"}
	}
	if cfg.Interval <= 0 {
		return nil, &translator.ConfigurationError{Field: "poll.interval_ms", Reason: "interval must be > 0"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{cfg: cfg, src: src, sink: sink, log: log, now: time.Now}, nil
}

// Observe registers fn for every batch. Call it before Run.
func (b *Bridge) Observe(fn Observer) {
	b.observers = append(b.observers, fn)
}

// Start reads the first snapshot and builds the engine from it
func (b *Bridge) Start(ctx context.Context) error {
	first, err := b.src.ReadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read first snapshot: %w", err)
	}

	engine, err := translator.NewEngine(b.cfg.Channels, b.cfg.Channel, first)
	if err != nil {
		return err
	}
	b.engine = engine

	b.log.Info("controller connected",
		zap.Int("battery_level", first.Battery.Level),
		zap.Bool("charging", first.Battery.Charging),
		zap.Int("channels", b.cfg.Channels.Len()),
		zap.Uint8("midi_channel", engine.Channel()),
	)

	b.mu.Lock()
	b.stats.Started = true
	b.stats.StartedAt = b.now()
	b.stats.Battery = first.Battery
	b.stats.LastSnapshot = &first
	b.mu.Unlock()
	return nil
}

// Step performs one read, translate, send cycle. Failed sends are logged
// and dropped; once MaxConsecutiveFailures sends in a row have failed the
// last TransportError is returned.
func (b *Bridge) Step(ctx context.Context) error {
	if b.engine == nil {
		return ErrNotStarted
	}

	s, err := b.src.ReadSnapshot(ctx)
	if err != nil {
		return err
	}
	events := b.engine.Process(s)

	batch := Batch{At: b.now(), Snapshot: s, Events: events}
	var sent []translator.Event
	var lastErr error
	for _, ev := range events {
		if err := b.sink.Send(ev); err != nil {
			batch.Failed++
			b.failures++
			lastErr = err
			b.log.Warn("dropped event", append(logging.Event(ev), zap.Error(err))...)
			if b.cfg.MaxConsecutiveFailures > 0 && b.failures >= b.cfg.MaxConsecutiveFailures {
				b.record(batch, sent, lastErr)
				return fmt.Errorf("%d consecutive send failures: %w", b.failures, err)
			}
			continue
		}
		b.failures = 0
		sent = append(sent, ev)
		b.log.Debug("sent event", logging.Event(ev)...)
	}

	b.record(batch, sent, lastErr)
	for _, fn := range b.observers {
		fn(batch)
	}
	return nil
}

func (b *Bridge) record(batch Batch, sent []translator.Event, lastErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.Snapshots++
	b.stats.Battery = batch.Snapshot.Battery
	snap := batch.Snapshot
	b.stats.LastSnapshot = &snap
	b.stats.EventsSent += uint64(len(sent))
	b.stats.EventsDropped += uint64(batch.Failed)
	b.stats.ConsecutiveFailures = b.failures
	if lastErr != nil {
		b.stats.LastError = lastErr.Error()
	}

	b.stats.Recent = append(b.stats.Recent, sent...)
	if n := len(b.stats.Recent); n > RecentEvents {
		b.stats.Recent = append([]translator.Event(nil), b.stats.Recent[n-RecentEvents:]...)
	}
}

// Run starts the bridge if needed and steps it at the configured interval
// until ctx is done (nil) or a step fails.
func (b *Bridge) Run(ctx context.Context) error {
	if b.engine == nil {
		if err := b.Start(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if joycon.IsDeviceError(err) && errors.Is(err, io.EOF) {
					b.log.Info("bridge stopped: end of input")
				} else {
					b.log.Error("bridge stopped", zap.Error(err))
				}
				return err
			}
		}
	}
}

// Stats returns a copy of the current statistics. Safe for concurrent use.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.stats
	out.Recent = append([]translator.Event(nil), b.stats.Recent...)
	if b.stats.LastSnapshot != nil {
		snap := *b.stats.LastSnapshot
		out.LastSnapshot = &snap
	}
	return out
}

// Channels returns the channels the bridge translates
func (b *Bridge) Channels() []translator.ChannelSpec {
	return b.cfg.Channels.Specs()
}

// MIDIChannel returns the configured MIDI channel
func (b *Bridge) MIDIChannel() int {
	return b.cfg.Channel
}

// ConfigFrom builds the bridge configuration from a loaded config file
func ConfigFrom(cfg *config.Config) (Config, error) {
	cm, err := cfg.ChannelMap()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Channel:                cfg.MIDI.Channel,
		Channels:               cm,
		Interval:               cfg.Poll.Interval(),
		MaxConsecutiveFailures: cfg.Transport.FailureLimit(),
	}, nil
}
