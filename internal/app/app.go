// Package app runs the capture loop: camera frames in, annotated frames out to
// the preview window, the snapshot directory and stream subscribers.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/facecam/internal/annotate"
	"github.com/ayusman/facecam/internal/capture"
	"github.com/ayusman/facecam/internal/detector"
	"github.com/ayusman/facecam/internal/display"
	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/snapshot"
	"github.com/ayusman/facecam/internal/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"gocv.io/x/gocv"
)

// SnapshotBanner is drawn on the preview after a snapshot is saved.
const SnapshotBanner = "SNAPSHOT SAVED!"

// Key codes handled by the capture loop.
const (
	KeyQuit     = 'q'
	KeySnapshot = 's'
)

// keyPollMs is how long the loop waits for a key press after each frame.
const keyPollMs = 1

// Config holds the collaborators of an App. Store and Display are optional.
type Config struct {
	CameraID int
	Camera   capture.Camera
	Detector detector.Detector
	Display  display.Display
	State    *session.State
	Saver    *snapshot.Saver
	Store    *store.Store
}

// App drives the capture loop through the Idle -> Running -> Idle cycle.
type App struct {
	cameraID int
	camera   capture.Camera
	detector detector.Detector
	display  display.Display
	state    *session.State
	saver    *snapshot.Saver
	store    *store.Store
	pipeline *annotate.Pipeline
	stats    *broadcaster
	now      func() time.Time

	// mu serializes Start and Stop.
	mu   sync.Mutex
	done chan struct{}

	sessionID  atomic.String
	stopReason atomic.String
	banner     atomic.Bool

	latestMu    sync.Mutex
	latest      *gocv.Mat
	latestFaces int
}

// New creates an App. Nothing is opened until Start.
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if cfg.State == nil {
		return nil, errors.New("app: session state is required")
	}
	if cfg.Saver == nil {
		return nil, errors.New("app: snapshot saver is required")
	}
	if cfg.Display == nil {
		cfg.Display = display.NewHeadless()
	}

	return &App{
		cameraID: cfg.CameraID,
		camera:   cfg.Camera,
		detector: cfg.Detector,
		display:  cfg.Display,
		state:    cfg.State,
		saver:    cfg.Saver,
		store:    cfg.Store,
		pipeline: annotate.New(cfg.State),
		stats:    newBroadcaster(),
		now:      time.Now,
	}, nil
}

// State returns the session state shared with the control surfaces.
func (a *App) State() *session.State {
	return a.state
}

// Running reports whether the capture loop is active.
func (a *App) Running() bool {
	return a.state.Active()
}

// SessionID returns the ID of the current or most recent capture session.
func (a *App) SessionID() string {
	return a.sessionID.Load()
}

// Start opens the camera and launches the capture loop. Starting a running
// App is a no-op. If a previous loop is still shutting down, Start waits for it.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done != nil {
		select {
		case <-a.done:
		default:
			if a.state.Active() {
				return nil
			}
			<-a.done
		}
	}

	if err := a.camera.Open(); err != nil {
		log.Errorf("Failed to open camera %d: %v", a.cameraID, err)
		return fmt.Errorf("failed to start capture: %w", err)
	}

	sessionID := uuid.New().String()
	a.sessionID.Store(sessionID)
	a.stopReason.Store(store.StopReasonUser)
	a.recordSessionStart(sessionID)

	a.state.SetActive(true)
	done := make(chan struct{})
	a.done = done
	go a.run(sessionID, done)

	log.Infof("Capture started (session %s, camera %d)", sessionID, a.cameraID)
	return nil
}

// Stop clears the active flag and releases the camera. The loop exits
// within one frame. It is safe to call from any goroutine, more than once.
func (a *App) Stop() {
	a.stop(store.StopReasonUser)
}

// Close stops the loop, waits for it to exit and releases the latest frame.
func (a *App) Close() error {
	a.stop(store.StopReasonShutdown)
	a.Wait()
	a.clearLatest()
	return nil
}

func (a *App) stop(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.state.Active() {
		return
	}
	a.stopReason.Store(reason)
	a.state.SetActive(false)

	if err := a.camera.Close(); err != nil {
		log.Warnf("Error closing camera: %v", err)
	}
	log.Info("Capture stop requested")
}

// Wait blocks until the current capture loop has exited.
func (a *App) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Done returns a channel closed when the current capture loop exits, or nil if
// the App was never started.
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// OnStats registers fn to be called with a stats report after every frame.
func (a *App) OnStats(fn func(session.Stats)) {
	a.stats.setCallback(fn)
}

// Subscribe returns a channel receiving stats after every frame and a cancel
// function. Slow subscribers miss reports rather than blocking the loop.
func (a *App) Subscribe() (<-chan session.Stats, func()) {
	return a.stats.subscribe()
}

// LatestJPEG returns the most recent annotated frame encoded as JPEG.
func (a *App) LatestJPEG() ([]byte, error) {
	a.latestMu.Lock()
	defer a.latestMu.Unlock()

	if a.latest == nil || a.latest.Empty() {
		return nil, snapshot.ErrNoFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *a.latest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// RequestSnapshot saves the most recent annotated frame and shows the
// confirmation banner on the next displayed frame. While idle there is no
// frame to save and ErrNoFrame is returned.
func (a *App) RequestSnapshot() (snapshot.Result, error) {
	if !a.state.Active() {
		log.Warn("Snapshot requested but no capture is active")
		return snapshot.Result{}, snapshot.ErrNoFrame
	}
	res, err := a.saveLatest()
	if err != nil {
		if errors.Is(err, snapshot.ErrNoFrame) {
			log.Warn("Snapshot requested but no frame is available")
		}
		return res, err
	}
	a.banner.Store(true)
	return res, nil
}

func (a *App) setLatest(frame gocv.Mat, faces int) {
	a.latestMu.Lock()
	defer a.latestMu.Unlock()

	if a.latest == nil {
		m := gocv.NewMat()
		a.latest = &m
	}
	frame.CopyTo(a.latest)
	a.latestFaces = faces
}

// clearLatest drops the latest frame so nothing is saved or streamed while idle.
func (a *App) clearLatest() {
	a.latestMu.Lock()
	defer a.latestMu.Unlock()
	if a.latest != nil {
		a.latest.Close()
		a.latest = nil
	}
}

// saveLatest writes the latest annotated frame and catalogs it.
func (a *App) saveLatest() (snapshot.Result, error) {
	a.latestMu.Lock()
	if a.latest == nil || a.latest.Empty() {
		a.latestMu.Unlock()
		return snapshot.Result{}, snapshot.ErrNoFrame
	}
	frame := a.latest.Clone()
	faces := a.latestFaces
	a.latestMu.Unlock()
	defer frame.Close()

	res, err := a.saver.Save(&frame, a.now())
	if err != nil {
		return res, err
	}
	log.Infof("Snapshot saved: %s", res.Path)

	if a.store != nil {
		err := a.store.Snapshots().Create(&store.Snapshot{
			SessionID: a.sessionID.Load(),
			Path:      res.Path,
			Counter:   res.Counter,
			Faces:     faces,
			CreatedAt: res.SavedAt,
		})
		if err != nil {
			log.Warnf("Failed to catalog snapshot %s: %v", res.Path, err)
		}
	}
	return res, nil
}

func (a *App) recordSessionStart(id string) {
	if a.store == nil {
		return
	}
	err := a.store.Sessions().Create(&store.Session{ID: id, CameraID: a.cameraID, StartedAt: a.now()})
	if err != nil {
		log.Warnf("Failed to record session %s: %v", id, err)
	}
}

func (a *App) recordSessionEnd(id, reason string) {
	if a.store == nil {
		return
	}
	if err := a.store.Sessions().Close(id, reason, a.now()); err != nil {
		log.Warnf("Failed to close session %s: %v", id, err)
	}
}
