// Package snapshot names and writes JPEG snapshots of annotated frames.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// DefaultDir is used when no snapshot directory is configured.
const DefaultDir = "snapshots"

// TimestampLayout is the time format embedded in snapshot file names.
const TimestampLayout = "20060102_150405"

var (
	// ErrNoFrame is returned when a snapshot is requested before any frame exists.
	ErrNoFrame = errors.New("no frame available")
	// ErrWriteFailed is returned when the encoder could not write the file.
	ErrWriteFailed = errors.New("failed to write snapshot")
)

// Counter supplies and advances the snapshot sequence number.
type Counter interface {
	SnapshotCount() int
	IncSnapshots() int
}

// Result describes a saved snapshot.
type Result struct {
	Path    string
	Counter int
	SavedAt time.Time
}

// FileName returns the path of the snapshot with the given counter taken at t.
func FileName(dir string, t time.Time, counter int) string {
	return filepath.Join(dir, fmt.Sprintf("snapshot_%s_%03d.jpg", t.Format(TimestampLayout), counter))
}

// Saver writes snapshots into a directory. Saves are serialized so that
// counters are never reused.
type Saver struct {
	dir     string
	counter Counter
	mu      sync.Mutex
	write   func(name string, img gocv.Mat) bool
}

// NewSaver creates dir if needed and returns a Saver numbering files with counter.
// The counter is owned by the session state (*session.State); the Saver only
// reads it and increments it after a successful write.
func NewSaver(dir string, counter Counter) (*Saver, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Saver{
		dir:     dir,
		counter: counter,
		write:   gocv.IMWrite,
	}, nil
}

// Dir returns the snapshot directory.
func (s *Saver) Dir() string {
	return s.dir
}

// Save writes frame as a JPEG named after now and the current counter.
// The counter advances only when the write succeeds.
func (s *Saver) Save(frame *gocv.Mat, now time.Time) (Result, error) {
	if frame == nil || frame.Empty() {
		return Result{}, ErrNoFrame
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	counter := s.counter.SnapshotCount()
	name := FileName(s.dir, now, counter)

	if ok := s.write(name, *frame); !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrWriteFailed, name)
	}
	s.counter.IncSnapshots()

	return Result{Path: name, Counter: counter, SavedAt: now}, nil
}
