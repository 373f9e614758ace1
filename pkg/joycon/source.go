package joycon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Source delivers controller snapshots. ReadSnapshot blocks until a
// complete snapshot is available; any failure is a *DeviceError.
type Source interface {
	ReadSnapshot(ctx context.Context) (Snapshot, error)
}

// DeviceError reports that the controller could not be read
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// IsDeviceError reports whether err carries a *DeviceError
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

const maxStatusLine = 1 << 20

// ReplaySource reads newline-delimited status documents, one snapshot per
// line. It is used to drive the bridge from a recorded or piped dump.
type ReplaySource struct {
	r       io.Reader
	closer  io.Closer
	scanner *bufio.Scanner
	loop    bool
	line    int
	read    int
}

// ReplayOption configures a ReplaySource
type ReplayOption func(*ReplaySource)

// WithLoop restarts from the beginning at end of input. The reader must be
// an io.Seeker, otherwise the option has no effect.
func WithLoop() ReplayOption {
	return func(r *ReplaySource) {
		if _, ok := r.r.(io.Seeker); ok {
			r.loop = true
		}
	}
}

// NewReplaySource creates a source reading status documents from r
func NewReplaySource(r io.Reader, opts ...ReplayOption) *ReplaySource {
	rs := &ReplaySource{r: r}
	rs.reset()
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// OpenReplay opens a status dump file. A path of "-" reads standard input.
func OpenReplay(path string, opts ...ReplayOption) (*ReplaySource, error) {
	if path == "-" {
		return NewReplaySource(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &DeviceError{Op: "open", Err: err}
	}
	rs := NewReplaySource(f, opts...)
	rs.closer = f
	return rs, nil
}

func (r *ReplaySource) reset() {
	r.scanner = bufio.NewScanner(r.r)
	r.scanner.Buffer(make([]byte, 0, 4096), maxStatusLine)
	r.line = 0
}

// ReadSnapshot returns the next snapshot of the dump
func (r *ReplaySource) ReadSnapshot(ctx context.Context) (Snapshot, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return Snapshot{}, &DeviceError{Op: "read", Err: err}
			}
			if r.loop && r.read > 0 {
				if _, err := r.r.(io.Seeker).Seek(0, io.SeekStart); err != nil {
					return Snapshot{}, &DeviceError{Op: "rewind", Err: err}
				}
				r.reset()
				continue
			}
			return Snapshot{}, &DeviceError{Op: "read", Err: io.EOF}
		}
		r.line++

		data := bytes.TrimSpace(r.scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return Snapshot{}, &DeviceError{
				Op:  "decode",
				Err: fmt.Errorf("line %d: %w", r.line, err),
			}
		}
		r.read++
		return s, nil
	}
}

// Close releases the underlying file, if any
func (r *ReplaySource) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
