package tray

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/snapshot"
	"github.com/getlantern/systray"
	log "github.com/sirupsen/logrus"
)

// handleStartStop toggles the capture loop.
func (t *Tray) handleStartStop() {
	if t.ctrl.Running() {
		t.ctrl.Stop()
		t.setStatus("Detection stopped")
		t.setStartStop(false)
		return
	}

	if err := t.ctrl.Start(); err != nil {
		log.Errorf("Failed to start detection: %v", err)
		t.setStatus("Error: camera unavailable")
		return
	}
	t.setStatus("Detection started")
	t.setStartStop(true)
}

// handleSnapshot saves the current frame.
func (t *Tray) handleSnapshot() {
	res, err := t.ctrl.RequestSnapshot()
	switch {
	case errors.Is(err, snapshot.ErrNoFrame):
		t.setStatus("No frame to save")
	case err != nil:
		log.Errorf("Snapshot failed: %v", err)
		t.setStatus("Snapshot failed")
	default:
		t.setStatus("Saved " + filepath.Base(res.Path))
	}
}

// handleFeature flips one feature toggle.
func (t *Tray) handleFeature(f session.Feature) {
	state := t.ctrl.State()
	on := !state.Settings().Features.Enabled(f)
	state.SetFeature(f, on)

	t.mu.RLock()
	item := t.menuFeatures[f]
	t.mu.RUnlock()
	setChecked(item, on)
}

// handleScale nudges the detection scale factor by delta.
func (t *Tray) handleScale(delta float64) {
	settings := t.ctrl.State().AdjustScaleFactor(delta)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuScale != nil {
		t.menuScale.SetTitle(scaleTitle(settings.ScaleFactor))
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func (t *Tray) setStatus(text string) {
	t.status.Store(text)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(text)
	}
}

func (t *Tray) setStartStop(running bool) {
	t.running.Store(running)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuStartStop != nil {
		t.menuStartStop.SetTitle(startStopTitle(running))
	}
}

func setChecked(item *systray.MenuItem, on bool) {
	if item == nil {
		return
	}
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func startStopTitle(running bool) string {
	if running {
		return "■ Stop Detection"
	}
	return "▶ Start Detection"
}

func featureTitle(f session.Feature) string {
	switch f {
	case session.Faces:
		return "Face Detection"
	case session.Eyes:
		return "Eye Detection"
	case session.Smiles:
		return "Smile Detection"
	case session.Blur:
		return "Face Blur"
	case session.Landmarks:
		return "Facial Landmarks"
	case session.EmotionZones:
		return "Emotion Zones"
	}
	return f.String()
}

func scaleTitle(scale float64) string {
	return fmt.Sprintf("Sensitivity: %.2f", scale)
}

// statsTitles returns the disabled status lines shown in the menu.
func statsTitles(st session.Stats) []string {
	return st.Lines()
}
