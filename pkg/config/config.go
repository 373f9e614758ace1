// Package config loads the joycon2midi configuration file
package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/james-see/joycon2midi/pkg/transport"
)

// Defaults applied by Normalize
const (
	DefaultIntervalMs             = 10
	DefaultMaxConsecutiveFailures = 100
	DefaultLogLevel               = "info"
)

type Config struct {
	MIDI      MIDIConfig        `yaml:"midi"`
	Poll      PollConfig        `yaml:"poll"`
	Mapping   map[string]int    `yaml:"mapping"`
	Modes     map[string]string `yaml:"modes,omitempty"`
	Transport TransportConfig   `yaml:"transport"`
	Log       LogConfig         `yaml:"log"`
	Record    string            `yaml:"record,omitempty"`
	API       APIConfig         `yaml:"api"`
}

// ---- MIDI ----

type MIDIConfig struct {
	Channel     int    `yaml:"channel"`      // 0-15
	Port        string `yaml:"port"`         // substring of the output name; empty = prompt
	VirtualPort string `yaml:"virtual_port"` // empty = default name
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Interval returns the poll interval as a duration
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// ---- TRANSPORT ----

type TransportConfig struct {
	// consecutive failed sends before the bridge gives up; 0 never gives up,
	// unset means DefaultMaxConsecutiveFailures
	MaxConsecutiveFailures *int `yaml:"max_consecutive_failures"`
}

// FailureLimit returns the effective consecutive failure limit
func (t TransportConfig) FailureLimit() int {
	if t.MaxConsecutiveFailures == nil {
		return DefaultMaxConsecutiveFailures
	}
	return *t.MaxConsecutiveFailures
}

// ---- LOG ----

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ---- API ----

type APIConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
}

// Default returns the configuration used when no file is given: the
// face buttons of a right Joy-Con as drum pads and ZR + tilt as a
// controller sweep.
func Default() *Config {
	cfg := &Config{
		Mapping: map[string]int{
			"btn_r_a":      35,
			"btn_r_b":      36,
			"btn_r_x":      37,
			"btn_r_y":      39,
			"btn_r_r":      43,
			"btn_r_sl":     44,
			"btn_r_sr":     45,
			"zr_pointer_x": 19,
		},
	}
	Normalize(cfg)
	return cfg
}

// Load reads, validates and normalizes a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and normalizes configuration YAML. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	return &cfg, nil
}

// Marshal encodes the configuration as YAML
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize applies defaults. It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.MIDI.VirtualPort == "" {
		cfg.MIDI.VirtualPort = transport.DefaultVirtualPort
	}
	if cfg.Transport.MaxConsecutiveFailures == nil {
		limit := DefaultMaxConsecutiveFailures
		cfg.Transport.MaxConsecutiveFailures = &limit
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
