package session

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// State is the process-lifetime session shared between goroutines.
// Control surfaces write through the setters; the capture loop reads a
// Settings snapshot once per frame. Every field is accessed atomically.
type State struct {
	id        string
	startedAt time.Time
	settings  atomic.Pointer[Settings]
	active    atomic.Bool
	snapshots atomic.Int64
	faces     atomic.Int64
	history   *History
}

// NewState creates a session with the given initial settings.
func NewState(initial Settings) *State {
	initial.ScaleFactor = ClampScaleFactor(initial.ScaleFactor)

	s := &State{
		id:        uuid.New().String(),
		startedAt: time.Now(),
		history:   NewHistory(HistorySize),
	}
	s.settings.Store(&initial)
	return s
}

// ID returns the unique identifier of this process run.
func (s *State) ID() string {
	return s.id
}

// StartedAt returns when the session was created.
func (s *State) StartedAt() time.Time {
	return s.startedAt
}

// Settings returns the current immutable settings snapshot.
func (s *State) Settings() Settings {
	return *s.settings.Load()
}

// update applies fn to the current settings and publishes the result.
func (s *State) update(fn func(Settings) Settings) Settings {
	for {
		cur := s.settings.Load()
		next := fn(*cur)
		if s.settings.CompareAndSwap(cur, &next) {
			return next
		}
	}
}

// SetFeature switches a single feature on or off.
func (s *State) SetFeature(f Feature, on bool) Settings {
	return s.update(func(cur Settings) Settings {
		cur.Features = cur.Features.With(f, on)
		return cur
	})
}

// SetFeatures replaces the whole toggle set.
func (s *State) SetFeatures(fs FeatureSet) Settings {
	return s.update(func(cur Settings) Settings {
		cur.Features = fs
		return cur
	})
}

// SetScaleFactor sets the detector sensitivity, clamped to the allowed range.
func (s *State) SetScaleFactor(v float64) Settings {
	v = ClampScaleFactor(v)
	return s.update(func(cur Settings) Settings {
		cur.ScaleFactor = v
		return cur
	})
}

// AdjustScaleFactor moves the sensitivity by delta, clamped to the allowed range.
func (s *State) AdjustScaleFactor(delta float64) Settings {
	return s.update(func(cur Settings) Settings {
		cur.ScaleFactor = ClampScaleFactor(cur.ScaleFactor + delta)
		return cur
	})
}

// Active reports whether the capture loop should keep running.
func (s *State) Active() bool {
	return s.active.Load()
}

// SetActive sets the detection-active flag.
func (s *State) SetActive(active bool) {
	s.active.Store(active)
}

// ActivateIfIdle sets the active flag and reports whether it was previously clear.
func (s *State) ActivateIfIdle() bool {
	return s.active.CompareAndSwap(false, true)
}

// SnapshotCount returns the number of snapshots saved so far, which is also
// the counter value the next snapshot will use.
func (s *State) SnapshotCount() int {
	return int(s.snapshots.Load())
}

// IncSnapshots records one successful snapshot save.
func (s *State) IncSnapshots() int {
	return int(s.snapshots.Inc())
}

// FaceCount returns the face count of the most recent frame.
func (s *State) FaceCount() int {
	return int(s.faces.Load())
}

// Record stores the face count of a processed frame and appends it to the history.
func (s *State) Record(ts time.Time, faces int) {
	s.faces.Store(int64(faces))
	s.history.Add(Sample{Timestamp: ts, Faces: faces})
}

// History returns the rolling detection history.
func (s *State) History() *History {
	return s.history
}
