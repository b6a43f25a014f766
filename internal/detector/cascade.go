package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// CascadeConfig names the Haar cascade XML files to load.
type CascadeConfig struct {
	FacePath  string
	EyePath   string
	SmilePath string
}

// CascadeDetector implements Detector with three OpenCV cascade classifiers.
type CascadeDetector struct {
	face   gocv.CascadeClassifier
	eye    gocv.CascadeClassifier
	smile  gocv.CascadeClassifier
	mu     sync.Mutex
	closed bool
}

// NewCascadeDetector loads the face, eye and smile cascades.
func NewCascadeDetector(cfg CascadeConfig) (*CascadeDetector, error) {
	d := &CascadeDetector{
		face:  gocv.NewCascadeClassifier(),
		eye:   gocv.NewCascadeClassifier(),
		smile: gocv.NewCascadeClassifier(),
	}

	load := []struct {
		name       string
		classifier *gocv.CascadeClassifier
		path       string
	}{
		{"face", &d.face, cfg.FacePath},
		{"eye", &d.eye, cfg.EyePath},
		{"smile", &d.smile, cfg.SmilePath},
	}

	for _, l := range load {
		if !l.classifier.Load(l.path) {
			d.Close()
			return nil, fmt.Errorf("load %s cascade %s", l.name, l.path)
		}
	}

	return d, nil
}

// DetectFaces runs the face cascade at the given scale factor.
func (d *CascadeDetector) DetectFaces(gray gocv.Mat, scaleFactor float64) []Box {
	p := FaceParams
	p.ScaleFactor = scaleFactor
	return d.run(&d.face, gray, p)
}

// DetectEyes runs the eye cascade on a face region.
func (d *CascadeDetector) DetectEyes(faceGray gocv.Mat) []Box {
	return d.run(&d.eye, faceGray, EyeParams)
}

// DetectSmiles runs the smile cascade on a face region.
func (d *CascadeDetector) DetectSmiles(faceGray gocv.Mat) []Box {
	return d.run(&d.smile, faceGray, SmileParams)
}

func (d *CascadeDetector) run(c *gocv.CascadeClassifier, img gocv.Mat, p Params) []Box {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || img.Empty() {
		return nil
	}

	rects := c.DetectMultiScaleWithParams(img, p.ScaleFactor, p.MinNeighbors, 0, p.MinSize, image.Pt(0, 0))
	boxes := make([]Box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, BoxFromRect(r))
	}
	return boxes
}

// Close releases the classifiers. It is safe to call more than once.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.face.Close()
	d.eye.Close()
	d.smile.Close()
	return nil
}
