// Package detector wraps OpenCV Haar cascades for face, eye and smile detection.
package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Box is an axis-aligned bounding box with its origin at the top-left corner.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// BoxFromRect converts an image.Rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Rect returns the box as an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Center returns the box center using integer division.
func (b Box) Center() image.Point {
	return image.Pt(b.X+b.W/2, b.Y+b.H/2)
}

// Translate shifts the box by p.
func (b Box) Translate(p image.Point) Box {
	return Box{X: b.X + p.X, Y: b.Y + p.Y, W: b.W, H: b.H}
}

// Clamp limits the box to bounds. ok is false when nothing of the box remains.
func (b Box) Clamp(bounds image.Rectangle) (Box, bool) {
	r := b.Rect().Intersect(bounds)
	if r.Empty() {
		return Box{}, false
	}
	return BoxFromRect(r), true
}

// Face is one detected face with the eyes and smiles found inside it.
// Eye and smile boxes are in frame coordinates.
type Face struct {
	Box    Box   `json:"box"`
	Eyes   []Box `json:"eyes,omitempty"`
	Smiles []Box `json:"smiles,omitempty"`
}

// Detector finds faces in a grayscale frame and sub-features in a grayscale face region.
// Returned boxes are relative to the Mat passed in, in detector order.
type Detector interface {
	DetectFaces(gray gocv.Mat, scaleFactor float64) []Box
	DetectEyes(faceGray gocv.Mat) []Box
	DetectSmiles(faceGray gocv.Mat) []Box

	// Close releases any resources held by the detector.
	Close() error
}

// Params are the cascade multi-scale parameters for one feature.
type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

// Fixed cascade parameters. The face scale factor comes from the sensitivity setting.
var (
	FaceParams  = Params{ScaleFactor: 1.1, MinNeighbors: 5, MinSize: image.Pt(30, 30)}
	EyeParams   = Params{ScaleFactor: 1.1, MinNeighbors: 3}
	SmileParams = Params{ScaleFactor: 1.8, MinNeighbors: 20}
)

// Options selects which sub-feature detectors run for each face.
type Options struct {
	Eyes   bool
	Smiles bool
}

// Detect runs face detection on gray and, per face, the enabled sub-feature
// detectors on the face region. Face regions are clamped to the frame; faces
// that fall entirely outside it are dropped.
func Detect(d Detector, gray gocv.Mat, scaleFactor float64, opts Options) []Face {
	if d == nil || gray.Empty() {
		return nil
	}

	bounds := image.Rect(0, 0, gray.Cols(), gray.Rows())
	boxes := d.DetectFaces(gray, scaleFactor)

	faces := make([]Face, 0, len(boxes))
	for _, box := range boxes {
		clamped, ok := box.Clamp(bounds)
		if !ok {
			continue
		}

		face := Face{Box: clamped}
		if opts.Eyes || opts.Smiles {
			roi := gray.Region(clamped.Rect())
			origin := image.Pt(clamped.X, clamped.Y)
			if opts.Eyes {
				face.Eyes = translate(d.DetectEyes(roi), origin)
			}
			if opts.Smiles {
				face.Smiles = translate(d.DetectSmiles(roi), origin)
			}
			roi.Close()
		}
		faces = append(faces, face)
	}
	return faces
}

func translate(boxes []Box, origin image.Point) []Box {
	if len(boxes) == 0 {
		return nil
	}
	out := make([]Box, len(boxes))
	for i, b := range boxes {
		out[i] = b.Translate(origin)
	}
	return out
}
