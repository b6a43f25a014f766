package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/facecam/internal/session"
	"gocv.io/x/gocv"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

	tests := []struct {
		name    string
		counter int
		want    string
	}{
		{"first", 0, "snapshots/snapshot_20240309_140507_000.jpg"},
		{"padded", 42, "snapshots/snapshot_20240309_140507_042.jpg"},
		{"wider than padding", 1234, "snapshots/snapshot_20240309_140507_1234.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName("snapshots", ts, tt.counter); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewSaver_CreatesDirIdempotently(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")

	for i := 0; i < 2; i++ {
		s, err := NewSaver(dir, session.NewState(session.DefaultSettings()))
		if err != nil {
			t.Fatalf("NewSaver() call %d error = %v", i, err)
		}
		if s.Dir() != dir {
			t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
		}
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("snapshot directory not created, stat error = %v", err)
	}
}

func TestSaver_NoFrame(t *testing.T) {
	state := session.NewState(session.DefaultSettings())
	s, err := NewSaver(t.TempDir(), state)
	if err != nil {
		t.Fatalf("NewSaver() error = %v", err)
	}

	if _, err := s.Save(nil, time.Now()); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Save(nil) error = %v, want ErrNoFrame", err)
	}
	empty := gocv.Mat{}
	if _, err := s.Save(&empty, time.Now()); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Save(empty) error = %v, want ErrNoFrame", err)
	}
	if state.SnapshotCount() != 0 {
		t.Errorf("SnapshotCount() = %d, want 0", state.SnapshotCount())
	}
}

func TestSaver_ConsecutiveSaves(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	dir := t.TempDir()
	state := session.NewState(session.DefaultSettings())
	s, err := NewSaver(dir, state)
	if err != nil {
		t.Fatalf("NewSaver() error = %v", err)
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	for i, suffix := range []string{"000", "001", "002"} {
		res, err := s.Save(&frame, ts)
		if err != nil {
			t.Fatalf("Save() %d error = %v", i, err)
		}
		want := filepath.Join(dir, "snapshot_20240309_140507_"+suffix+".jpg")
		if res.Path != want {
			t.Errorf("Save() %d path = %q, want %q", i, res.Path, want)
		}
		if res.Counter != i {
			t.Errorf("Save() %d counter = %d, want %d", i, res.Counter, i)
		}
		if _, err := os.Stat(res.Path); err != nil {
			t.Errorf("snapshot file missing: %v", err)
		}
	}

	if state.SnapshotCount() != 3 {
		t.Errorf("SnapshotCount() = %d, want 3", state.SnapshotCount())
	}
}

func TestSaver_FailedWriteKeepsCounter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	state := session.NewState(session.DefaultSettings())
	s, err := NewSaver(t.TempDir(), state)
	if err != nil {
		t.Fatalf("NewSaver() error = %v", err)
	}
	s.write = func(string, gocv.Mat) bool { return false }

	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if _, err := s.Save(&frame, time.Now()); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("Save() error = %v, want ErrWriteFailed", err)
	}
	if state.SnapshotCount() != 0 {
		t.Errorf("SnapshotCount() = %d, want 0 after failed write", state.SnapshotCount())
	}
}
