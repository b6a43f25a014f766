// Package annotate draws the detection overlay onto captured frames.
package annotate

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Canvas is the drawing surface the pipeline renders onto.
type Canvas interface {
	Bounds() image.Rectangle
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)
	// Circle draws a circle; a negative thickness fills it.
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	Text(text string, org image.Point, scale float64, c color.RGBA, thickness int)
	// GaussianBlur replaces r with a blurred copy of itself. r must lie within Bounds.
	GaussianBlur(r image.Rectangle, ksize int, sigma float64)
}

// MatCanvas draws on a BGR gocv.Mat in place.
type MatCanvas struct {
	mat *gocv.Mat
}

// NewMatCanvas wraps mat. The caller keeps ownership of the Mat.
func NewMatCanvas(mat *gocv.Mat) *MatCanvas {
	return &MatCanvas{mat: mat}
}

// Mat returns the wrapped Mat.
func (c *MatCanvas) Mat() *gocv.Mat {
	return c.mat
}

// Bounds returns the frame rectangle.
func (c *MatCanvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.mat.Cols(), c.mat.Rows())
}

// Rectangle draws an outlined rectangle.
func (c *MatCanvas) Rectangle(r image.Rectangle, col color.RGBA, thickness int) {
	gocv.Rectangle(c.mat, r, col, thickness)
}

// Circle draws a circle, filled when thickness is negative.
func (c *MatCanvas) Circle(center image.Point, radius int, col color.RGBA, thickness int) {
	gocv.Circle(c.mat, center, radius, col, thickness)
}

// Text draws text with the Hershey simplex font.
func (c *MatCanvas) Text(text string, org image.Point, scale float64, col color.RGBA, thickness int) {
	gocv.PutText(c.mat, text, org, gocv.FontHersheySimplex, scale, col, thickness)
}

// GaussianBlur blurs the region r of the frame in place.
func (c *MatCanvas) GaussianBlur(r image.Rectangle, ksize int, sigma float64) {
	region := c.mat.Region(r)
	defer region.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()

	gocv.GaussianBlur(region, &blurred, image.Pt(ksize, ksize), sigma, 0, gocv.BorderDefault)
	// region shares memory with the frame, so copying into it writes the frame.
	blurred.CopyTo(&region)
}
