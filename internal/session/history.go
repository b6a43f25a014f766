package session

import (
	"sync"
	"time"
)

// HistorySize is the capacity of the rolling detection history.
const HistorySize = 50

// Sample is one per-frame detection result.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Faces     int       `json:"faces"`
}

// History is a fixed-capacity FIFO of detection samples. Once full, adding a
// sample evicts the oldest one.
type History struct {
	mu       sync.RWMutex
	samples  []Sample
	capacity int
}

// NewHistory creates a History holding at most capacity samples.
// A non-positive capacity uses HistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistorySize
	}
	return &History{
		samples:  make([]Sample, 0, capacity),
		capacity: capacity,
	}
}

// Add appends s, evicting the oldest sample when the window is full.
func (h *History) Add(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.capacity {
		// Shift left by 1, dropping the oldest sample
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.capacity-1]
	}
	h.samples = append(h.samples, s)
}

// Samples returns a copy of the window, oldest first.
func (h *History) Samples() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Len returns the number of samples held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Capacity returns the maximum number of samples held.
func (h *History) Capacity() int {
	return h.capacity
}

// Average returns the mean face count over the window, or 0 when empty.
func (h *History) Average() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}
	total := 0
	for _, s := range h.samples {
		total += s.Faces
	}
	return float64(total) / float64(len(h.samples))
}
