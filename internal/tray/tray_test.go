package tray

import (
	"errors"
	"testing"

	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/snapshot"
)

type fakeController struct {
	state    *session.State
	startErr error
	snapErr  error
	starts   int
	stops    int
	snaps    int
}

func newFakeController() *fakeController {
	return &fakeController{state: session.NewState(session.DefaultSettings())}
}

func (c *fakeController) Start() error {
	if c.startErr != nil {
		return c.startErr
	}
	c.starts++
	c.state.SetActive(true)
	return nil
}

func (c *fakeController) Stop() {
	c.stops++
	c.state.SetActive(false)
}

func (c *fakeController) Running() bool { return c.state.Active() }

func (c *fakeController) RequestSnapshot() (snapshot.Result, error) {
	if c.snapErr != nil {
		return snapshot.Result{}, c.snapErr
	}
	c.snaps++
	return snapshot.Result{Path: "snapshots/snapshot_20240309_140507_000.jpg"}, nil
}

func (c *fakeController) State() *session.State { return c.state }

func TestTray_StartStop(t *testing.T) {
	ctrl := newFakeController()
	tr := New(ctrl)

	tr.handleStartStop()
	if ctrl.starts != 1 || !ctrl.Running() {
		t.Fatalf("first click: starts = %d, running = %v", ctrl.starts, ctrl.Running())
	}

	tr.handleStartStop()
	if ctrl.stops != 1 || ctrl.Running() {
		t.Errorf("second click: stops = %d, running = %v", ctrl.stops, ctrl.Running())
	}
}

func TestTray_StartFailureKeepsIdle(t *testing.T) {
	ctrl := newFakeController()
	ctrl.startErr = errors.New("camera unavailable")
	tr := New(ctrl)

	tr.handleStartStop()
	if ctrl.Running() {
		t.Error("controller should stay idle after a failed start")
	}
}

func TestTray_Snapshot(t *testing.T) {
	ctrl := newFakeController()
	tr := New(ctrl)

	tr.handleSnapshot()
	if ctrl.snaps != 1 {
		t.Errorf("snapshots = %d, want 1", ctrl.snaps)
	}

	ctrl.snapErr = snapshot.ErrNoFrame
	tr.handleSnapshot()
	if ctrl.snaps != 1 {
		t.Errorf("snapshots = %d, want 1 after failed request", ctrl.snaps)
	}
}

func TestTray_FeatureToggle(t *testing.T) {
	ctrl := newFakeController()
	tr := New(ctrl)

	tr.handleFeature(session.Blur)
	if !ctrl.state.Settings().Features.Enabled(session.Blur) {
		t.Error("blur should be enabled after first click")
	}

	tr.handleFeature(session.Blur)
	if ctrl.state.Settings().Features.Enabled(session.Blur) {
		t.Error("blur should be disabled after second click")
	}

	tr.handleFeature(session.Faces)
	if ctrl.state.Settings().Features.Enabled(session.Faces) {
		t.Error("faces should be disabled after click")
	}
}

func TestTray_Scale(t *testing.T) {
	ctrl := newFakeController()
	tr := New(ctrl)

	tr.handleScale(session.ScaleFactorStep)
	if got := ctrl.state.Settings().ScaleFactor; got != 1.11 {
		t.Errorf("ScaleFactor = %v, want 1.11", got)
	}

	for i := 0; i < 100; i++ {
		tr.handleScale(-session.ScaleFactorStep)
	}
	if got := ctrl.state.Settings().ScaleFactor; got != session.MinScaleFactor {
		t.Errorf("ScaleFactor = %v, want clamped to %v", got, session.MinScaleFactor)
	}
}

func TestStatsTitles(t *testing.T) {
	st := session.Stats{Faces: 2, ActiveFeatures: 3, TotalFeatures: 6, ScaleFactor: 1.1, Snapshots: 4, Active: true}

	want := []string{
		"Faces Detected: 2",
		"Active Features: 3/6",
		"Detection Scale: 1.10",
		"Snapshots Taken: 4",
		"Status: ACTIVE",
	}
	got := statsTitles(st)
	if len(got) != len(want) {
		t.Fatalf("statsTitles() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTray_UpdateStatsBeforeMenu(t *testing.T) {
	tr := New(newFakeController())

	// No menu exists yet; this must not panic.
	tr.UpdateStats(session.Stats{})
	tr.setStatus("ready")
}

func TestTray_LoopEndResetsMenu(t *testing.T) {
	ctrl := newFakeController()
	tr := New(ctrl)

	tr.handleStartStop()
	tr.UpdateStats(ctrl.state.Stats())
	if !tr.ShowsRunning() {
		t.Fatal("menu should offer Stop while detecting")
	}

	// The loop ends on its own (quit key or end of stream) and reports idle.
	ctrl.state.SetActive(false)
	tr.UpdateStats(ctrl.state.Stats())

	if tr.ShowsRunning() {
		t.Error("menu should offer Start after the loop ends")
	}
	if tr.Status() != "Detection stopped" {
		t.Errorf("Status() = %q, want %q", tr.Status(), "Detection stopped")
	}

	// The next click starts a new run instead of stopping a dead one.
	tr.handleStartStop()
	if ctrl.starts != 2 || ctrl.stops != 0 {
		t.Errorf("starts = %d, stops = %d, want 2 and 0", ctrl.starts, ctrl.stops)
	}
	if !tr.ShowsRunning() {
		t.Error("menu should offer Stop after restarting")
	}
}

func TestTray_IdleStatsKeepStatus(t *testing.T) {
	tr := New(newFakeController())

	tr.setStatus("Saved snapshot_20240309_140507_000.jpg")
	tr.UpdateStats(session.Stats{})

	if tr.Status() != "Saved snapshot_20240309_140507_000.jpg" {
		t.Errorf("Status() = %q, idle reports should not overwrite it", tr.Status())
	}
}
