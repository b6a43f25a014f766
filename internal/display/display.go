// Package display shows annotated frames in a preview window and reports key presses.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Display presents frames to the user.
type Display interface {
	Show(frame gocv.Mat)
	// PollKey waits up to delayMs for a key press and returns its code, or NoKey.
	PollKey(delayMs int) int
	Close() error
}

// Window is a Display backed by an OpenCV highgui window.
//
// The native window is created on first Show so that it belongs to the
// goroutine running the capture loop.
type Window struct {
	title  string
	mu     sync.Mutex
	window *gocv.Window
}

// NewWindow returns a Window with the given title.
func NewWindow(title string) *Window {
	return &Window{title: title}
}

// Show displays frame, opening the window if needed.
func (w *Window) Show(frame gocv.Mat) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		w.window = gocv.NewWindow(w.title)
	}
	w.window.IMShow(frame)
}

// PollKey returns the pressed key code, or NoKey.
func (w *Window) PollKey(delayMs int) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return NoKey
	}
	key := w.window.WaitKey(delayMs)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

// Close destroys the window. It is safe to call more than once.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}

// Headless discards frames. It is used when no preview window is wanted
// and in tests, where keys can be injected with Press.
type Headless struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	closed bool
}

// NewHeadless returns a Display that renders nothing.
func NewHeadless() *Headless {
	return &Headless{}
}

// Show counts the frame and drops it.
func (h *Headless) Show(frame gocv.Mat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown++
}

// PollKey returns the next injected key, or NoKey.
func (h *Headless) PollKey(delayMs int) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.keys) == 0 {
		return NoKey
	}
	key := h.keys[0]
	h.keys = h.keys[1:]
	return key
}

// Press queues a key to be returned by a later PollKey.
func (h *Headless) Press(key int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, key)
}

// Close marks the display closed.
func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Shown returns the number of frames passed to Show.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

// Closed reports whether Close was called.
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
