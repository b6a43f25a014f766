package app

import (
	"github.com/ayusman/facecam/internal/annotate"
	"github.com/ayusman/facecam/internal/capture"
	"github.com/ayusman/facecam/internal/detector"
	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/store"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// run executes the capture loop and releases everything it holds on exit,
// whatever the reason. It must not take a.mu: Start may be waiting on done.
func (a *App) run(sessionID string, done chan struct{}) {
	reason := a.loop()

	if err := a.camera.Close(); err != nil {
		log.Warnf("Error closing camera: %v", err)
	}
	if err := a.display.Close(); err != nil {
		log.Warnf("Error closing display: %v", err)
	}
	a.state.SetActive(false)
	a.clearLatest()
	a.recordSessionEnd(sessionID, reason)
	a.stats.publish(a.state.Stats())
	close(done)

	log.Infof("Capture stopped (session %s, reason %s)", sessionID, reason)
}

// loop processes frames until the active flag clears, the stream ends or
// the quit key is pressed, and returns the stop reason.
//
// Per frame: mirror, grayscale, detect, annotate, publish, display, poll keys.
func (a *App) loop() string {
	for {
		if !a.state.Active() {
			return a.stopReason.Load()
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if !a.state.Active() {
				return a.stopReason.Load()
			}
			log.Warnf("Frame read failed, ending capture: %v", err)
			return store.StopReasonEndOfStream
		}

		quit := a.processFrame(frame)
		frame.Close()
		if quit {
			return store.StopReasonQuit
		}
	}
}

// processFrame handles one frame and reports whether the quit key was pressed.
func (a *App) processFrame(frame *gocv.Mat) bool {
	capture.Mirror(frame)

	gray := capture.Gray(*frame)
	defer gray.Close()

	settings := a.state.Settings()
	faces := detector.Detect(a.detector, gray, settings.ScaleFactor, detector.Options{
		Eyes:   settings.Features.Enabled(session.Eyes),
		Smiles: settings.Features.Enabled(session.Smiles),
	})

	canvas := annotate.NewMatCanvas(frame)
	a.pipeline.Annotate(canvas, annotate.Input{
		Faces:    faces,
		Settings: settings,
		Now:      a.now(),
	})

	// The latest frame is kept without the banner so snapshots never carry it.
	a.setLatest(*frame, len(faces))
	a.stats.publish(a.state.Stats())

	if a.banner.CompareAndSwap(true, false) {
		annotate.Banner(canvas, SnapshotBanner)
	}
	a.display.Show(*frame)

	switch a.display.PollKey(keyPollMs) {
	case KeyQuit:
		return true
	case KeySnapshot:
		if _, err := a.saveLatest(); err != nil {
			log.Warnf("Snapshot failed: %v", err)
			return false
		}
		annotate.Banner(canvas, SnapshotBanner)
		a.display.Show(*frame)
	}
	return false
}
