// Package journal appends captured events to a durable, append-only JSONL
// file, one self-contained record per line.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"guildscribe/internal/domain"
)

// ErrPathIsDirectory is returned when the journal path refers to an existing
// directory. A journal must be a regular file; this is a configuration
// mistake and fatal at startup.
var ErrPathIsDirectory = errors.New("journal path is a directory")

// Record is one journal line. Data is omitted entirely when the kind carries
// no payload.
type Record struct {
	Timestamp float64          `json:"timestamp"`
	Event     domain.EventKind `json:"event"`
	Data      any              `json:"data,omitempty"`
}

// Mirror receives the exact serialized journal line after the file append
// succeeded. Mirror failures are reported to the caller but never undo or
// block the file write.
type Mirror interface {
	Publish(ctx context.Context, kind domain.EventKind, line []byte) error
}

// Writer owns the journal file for the life of the process. Each Append
// opens, writes, fsyncs and closes the file so that external rotation or
// truncation between calls cannot strand a retained handle, and every record
// is on storage before the call returns.
type Writer struct {
	path    string
	now     func() time.Time
	mirrors []Mirror

	mu sync.Mutex
}

type Option func(*Writer)

// WithClock overrides the wall clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithMirror adds a mirror sink for serialized journal lines.
func WithMirror(m Mirror) Option {
	return func(w *Writer) { w.mirrors = append(w.mirrors, m) }
}

// NewWriter validates the journal path and touches the file when absent.
// An existing file is kept as-is: the writer always appends, so records
// accumulate across process restarts.
func NewWriter(path string, opts ...Option) (*Writer, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrPathIsDirectory, path)
		}
	case os.IsNotExist(err):
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
	default:
		return nil, fmt.Errorf("stat journal: %w", err)
	}

	w := &Writer{path: path, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Append stamps the current wall clock, serializes one newline-terminated
// record and appends it to the journal. Calls are serialized; the timestamp
// order matches the line order in the file.
func (w *Writer) Append(ctx context.Context, kind domain.EventKind, data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	rec := Record{
		// Seconds and nanoseconds are combined separately; converting the
		// full UnixNano to float64 first would lose sub-second precision.
		Timestamp: float64(now.Unix()) + float64(now.Nanosecond())/1e9,
		Event:     kind,
		Data:      data,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}
	line = append(line, '\n')

	if err := w.writeLine(line); err != nil {
		return err
	}

	var errs []error
	for _, m := range w.mirrors {
		if err := m.Publish(ctx, kind, line); err != nil {
			errs = append(errs, fmt.Errorf("mirror publish: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (w *Writer) writeLine(line []byte) error {
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append journal: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("fsync journal: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
