package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu         sync.Mutex
	faces      []Box
	eyes       []Box
	smiles     []Box
	lastScale  float64
	faceCalls  int
	eyeCalls   int
	smileCalls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the face boxes returned by DetectFaces.
func (m *MockDetector) SetFaces(faces []Box) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetEyes sets the region-relative eye boxes returned by DetectEyes.
func (m *MockDetector) SetEyes(eyes []Box) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eyes = eyes
}

// SetSmiles sets the region-relative smile boxes returned by DetectSmiles.
func (m *MockDetector) SetSmiles(smiles []Box) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smiles = smiles
}

// DetectFaces returns the pre-configured faces and records the scale factor.
func (m *MockDetector) DetectFaces(gray gocv.Mat, scaleFactor float64) []Box {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faceCalls++
	m.lastScale = scaleFactor
	return append([]Box(nil), m.faces...)
}

// DetectEyes returns the pre-configured eyes.
func (m *MockDetector) DetectEyes(faceGray gocv.Mat) []Box {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eyeCalls++
	return append([]Box(nil), m.eyes...)
}

// DetectSmiles returns the pre-configured smiles.
func (m *MockDetector) DetectSmiles(faceGray gocv.Mat) []Box {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smileCalls++
	return append([]Box(nil), m.smiles...)
}

// LastScaleFactor returns the scale factor passed to the latest DetectFaces call.
func (m *MockDetector) LastScaleFactor() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastScale
}

// Calls returns how many times each detection method ran.
func (m *MockDetector) Calls() (faces, eyes, smiles int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faceCalls, m.eyeCalls, m.smileCalls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
