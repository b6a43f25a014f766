// Package tray provides the system tray control surface for facecam.
package tray

import (
	"sync"

	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/snapshot"
	"github.com/getlantern/systray"
	"go.uber.org/atomic"
)

// Controller is the capture loop as seen from the tray.
type Controller interface {
	Start() error
	Stop()
	Running() bool
	RequestSnapshot() (snapshot.Result, error)
	State() *session.State
}

// Tray represents the system tray application.
type Tray struct {
	ctrl   Controller
	onQuit func()
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuStartStop *systray.MenuItem
	menuFeatures  map[session.Feature]*systray.MenuItem
	menuScale     *systray.MenuItem
	menuStats     []*systray.MenuItem
	menuStatus    *systray.MenuItem

	// Last rendered running state and status text.
	running atomic.Bool
	status  atomic.String
}

// New creates a Tray driving ctrl.
func New(ctrl Controller) *Tray {
	return &Tray{
		ctrl:         ctrl,
		menuFeatures: make(map[session.Feature]*systray.MenuItem),
	}
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("facecam")
	systray.SetTooltip("Advanced Face Detection")

	settings := t.ctrl.State().Settings()

	t.mu.Lock()
	t.running.Store(t.ctrl.Running())
	t.menuStartStop = systray.AddMenuItem(startStopTitle(t.ctrl.Running()), "Start or stop face detection")
	menuSnapshot := systray.AddMenuItem("Take Snapshot", "Save the current frame")
	systray.AddSeparator()

	for _, f := range session.AllFeatures() {
		t.menuFeatures[f] = systray.AddMenuItemCheckbox(featureTitle(f), "Toggle "+f.String(), settings.Features.Enabled(f))
	}
	systray.AddSeparator()

	t.menuScale = systray.AddMenuItem(scaleTitle(settings.ScaleFactor), "Detection sensitivity")
	menuScaleUp := t.menuScale.AddSubMenuItem("Increase (+0.01)", "Raise the scale factor")
	menuScaleDown := t.menuScale.AddSubMenuItem("Decrease (-0.01)", "Lower the scale factor")
	systray.AddSeparator()

	for _, line := range statsTitles(t.ctrl.State().Stats()) {
		item := systray.AddMenuItem(line, "")
		item.Disable()
		t.menuStats = append(t.menuStats, item)
	}
	t.menuStatus = systray.AddMenuItem("Ready", "")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit facecam")
	t.mu.Unlock()

	// One goroutine per checkbox keeps the select below fixed-size.
	for f, item := range t.menuFeatures {
		go func(f session.Feature, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleFeature(f)
			}
		}(f, item)
	}

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuStartStop.ClickedCh:
				t.handleStartStop()
			case <-menuSnapshot.ClickedCh:
				t.handleSnapshot()
			case <-menuScaleUp.ClickedCh:
				t.handleScale(session.ScaleFactorStep)
			case <-menuScaleDown.ClickedCh:
				t.handleScale(-session.ScaleFactorStep)
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// UpdateStats refreshes the status lines. It is safe to call before the menu exists.
// A report that turns from active to idle means the loop ended on its own.
func (t *Tray) UpdateStats(st session.Stats) {
	t.mu.RLock()
	for i, line := range statsTitles(st) {
		if i < len(t.menuStats) {
			t.menuStats[i].SetTitle(line)
		}
	}
	t.mu.RUnlock()

	if t.running.Swap(st.Active) && !st.Active {
		t.setStatus("Detection stopped")
	}
	t.setStartStop(st.Active)
}

// Status returns the text of the status line.
func (t *Tray) Status() string {
	return t.status.Load()
}

// ShowsRunning reports whether the start/stop item currently offers Stop.
func (t *Tray) ShowsRunning() bool {
	return t.running.Load()
}
