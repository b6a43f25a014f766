package annotate

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/ayusman/facecam/internal/detector"
	"github.com/ayusman/facecam/internal/session"
)

// Blur parameters for the face blur stage.
const (
	BlurKernelSize = 99
	BlurSigma      = 30
)

// Drawing colors. Face boxes cycle through FacePalette by face index.
var (
	FacePalette = []color.RGBA{
		{R: 0, G: 255, B: 0, A: 255},   // green
		{R: 0, G: 0, B: 255, A: 255},   // blue
		{R: 255, G: 0, B: 0, A: 255},   // red
		{R: 0, G: 255, B: 255, A: 255}, // cyan
		{R: 255, G: 0, B: 255, A: 255}, // magenta
	}
	EyeColor      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	SmileColor    = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	LandmarkColor = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	ZoneColors    = []color.RGBA{
		{R: 0, G: 255, B: 0, A: 255},
		{R: 255, G: 255, B: 0, A: 255},
		{R: 255, G: 165, B: 0, A: 255},
	}
	StrokeColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	FillColor   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	BannerColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// Layout constants for the statistics overlay.
const (
	statsX          = 10
	statsY          = 30
	statsLineHeight = 25
	statsScale      = 0.6
)

// NumLandmarks is the number of synthetic landmark markers drawn per face.
const NumLandmarks = 7

// NumZones is the number of emotion zone bands per face.
const NumZones = 3

// Input is everything the pipeline needs for one frame.
type Input struct {
	Faces    []detector.Face
	Settings session.Settings
	Now      time.Time
}

// Recorder receives the per-frame face count for the rolling history.
type Recorder interface {
	Record(ts time.Time, faces int)
}

// Pipeline renders the detection overlay in a fixed stage order:
// blur, face boxes, per-face eyes/smiles/landmarks/zones, statistics.
type Pipeline struct {
	recorder Recorder
}

// New creates a Pipeline. recorder may be nil.
func New(recorder Recorder) *Pipeline {
	return &Pipeline{recorder: recorder}
}

// Annotate draws the overlay for in onto c.
func (p *Pipeline) Annotate(c Canvas, in Input) {
	features := in.Settings.Features

	if features.Enabled(session.Blur) && len(in.Faces) > 0 {
		p.blurFaces(c, in.Faces)
	}

	for i, face := range in.Faces {
		if features.Enabled(session.Faces) {
			p.drawFaceBox(c, i, face.Box)
		}
		if features.Enabled(session.Eyes) {
			p.drawEyes(c, face.Eyes)
		}
		if features.Enabled(session.Smiles) {
			p.drawSmiles(c, face.Smiles)
		}
		if features.Enabled(session.Landmarks) {
			p.drawLandmarks(c, face.Box)
		}
		if features.Enabled(session.EmotionZones) {
			p.drawEmotionZones(c, face.Box)
		}
	}

	p.drawStatistics(c, in)
}

// FaceColor returns the palette color for the face at index.
func FaceColor(index int) color.RGBA {
	return FacePalette[index%len(FacePalette)]
}

func (p *Pipeline) blurFaces(c Canvas, faces []detector.Face) {
	bounds := c.Bounds()
	for _, face := range faces {
		box, ok := face.Box.Clamp(bounds)
		if !ok {
			continue
		}
		c.GaussianBlur(box.Rect(), BlurKernelSize, BlurSigma)
	}
}

func (p *Pipeline) drawFaceBox(c Canvas, index int, box detector.Box) {
	col := FaceColor(index)
	c.Rectangle(box.Rect(), col, 3)
	c.Text(fmt.Sprintf("Face %d", index+1), image.Pt(box.X, box.Y-10), 0.7, col, 2)
}

func (p *Pipeline) drawEyes(c Canvas, eyes []detector.Box) {
	for _, eye := range eyes {
		c.Rectangle(eye.Rect(), EyeColor, 2)
		c.Circle(eye.Center(), 2, EyeColor, -1)
	}
}

func (p *Pipeline) drawSmiles(c Canvas, smiles []detector.Box) {
	for _, smile := range smiles {
		c.Rectangle(smile.Rect(), SmileColor, 2)
	}
}

// Landmarks returns the synthetic landmark positions for a face box.
//
// These are fixed proportional offsets inside the box, not the output of a
// landmark model: top center, two upper-third points, center, two
// lower-third points and bottom center.
func Landmarks(box detector.Box) [NumLandmarks]image.Point {
	x, y, w, h := box.X, box.Y, box.W, box.H
	cx := x + w/2
	return [NumLandmarks]image.Point{
		{X: cx, Y: y + h/6},
		{X: x + w/3, Y: y + h/3},
		{X: x + 2*w/3, Y: y + h/3},
		{X: cx, Y: y + h/2},
		{X: x + w/3, Y: y + 2*h/3},
		{X: x + 2*w/3, Y: y + 2*h/3},
		{X: cx, Y: y + 5*h/6},
	}
}

func (p *Pipeline) drawLandmarks(c Canvas, box detector.Box) {
	for _, pt := range Landmarks(box) {
		c.Circle(pt, 5, LandmarkColor, -1)
	}
}

// EmotionZones splits a face box into NumZones horizontal bands of height h/3.
// Any remainder rows at the bottom belong to no band. Like the landmarks, the
// zones are geometry only; no expression is inferred.
func EmotionZones(box detector.Box) [NumZones]image.Rectangle {
	zoneHeight := box.H / NumZones
	var zones [NumZones]image.Rectangle
	for i := range zones {
		top := box.Y + i*zoneHeight
		zones[i] = image.Rect(box.X, top, box.X+box.W, top+zoneHeight)
	}
	return zones
}

func (p *Pipeline) drawEmotionZones(c Canvas, box detector.Box) {
	for i, zone := range EmotionZones(box) {
		col := ZoneColors[i%len(ZoneColors)]
		c.Rectangle(zone, col, 2)
		c.Text(fmt.Sprintf("Zone %d", i+1), image.Pt(zone.Min.X+5, zone.Min.Y+20), 0.5, col, 1)
	}
}

// StatisticsLines returns the overlay text for in.
func StatisticsLines(in Input) []string {
	return []string{
		fmt.Sprintf("Faces Detected: %d", len(in.Faces)),
		fmt.Sprintf("Detection Scale: %.2f", in.Settings.ScaleFactor),
		fmt.Sprintf("Time: %s", in.Now.Format("15:04:05")),
		"Features: " + strings.Join(in.Settings.Features.EnabledNames(), ", "),
	}
}

func (p *Pipeline) drawStatistics(c Canvas, in Input) {
	if p.recorder != nil {
		p.recorder.Record(in.Now, len(in.Faces))
	}

	for i, line := range StatisticsLines(in) {
		org := image.Pt(statsX, statsY+i*statsLineHeight)
		// White stroke first, black fill on top.
		c.Text(line, org, statsScale, StrokeColor, 2)
		c.Text(line, org, statsScale, FillColor, 1)
	}
}

// Banner draws the snapshot confirmation on a displayed frame.
func Banner(c Canvas, text string) {
	c.Text(text, image.Pt(50, 50), 1.0, BannerColor, 3)
}
