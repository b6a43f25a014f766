package annotate

import (
	"image"
	"image/color"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/facecam/internal/detector"
	"github.com/ayusman/facecam/internal/session"
)

type drawOp struct {
	kind      string
	rect      image.Rectangle
	point     image.Point
	radius    int
	color     color.RGBA
	thickness int
	text      string
}

// recordingCanvas records draw calls instead of touching pixels.
type recordingCanvas struct {
	bounds image.Rectangle
	ops    []drawOp
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{bounds: image.Rect(0, 0, 640, 480)}
}

func (c *recordingCanvas) Bounds() image.Rectangle { return c.bounds }

func (c *recordingCanvas) Rectangle(r image.Rectangle, col color.RGBA, thickness int) {
	c.ops = append(c.ops, drawOp{kind: "rect", rect: r, color: col, thickness: thickness})
}

func (c *recordingCanvas) Circle(center image.Point, radius int, col color.RGBA, thickness int) {
	c.ops = append(c.ops, drawOp{kind: "circle", point: center, radius: radius, color: col, thickness: thickness})
}

func (c *recordingCanvas) Text(text string, org image.Point, scale float64, col color.RGBA, thickness int) {
	c.ops = append(c.ops, drawOp{kind: "text", point: org, color: col, thickness: thickness, text: text})
}

func (c *recordingCanvas) GaussianBlur(r image.Rectangle, ksize int, sigma float64) {
	c.ops = append(c.ops, drawOp{kind: "blur", rect: r, radius: ksize})
}

func (c *recordingCanvas) filter(kind string) []drawOp {
	var out []drawOp
	for _, op := range c.ops {
		if op.kind == kind {
			out = append(out, op)
		}
	}
	return out
}

type recordCall struct {
	ts    time.Time
	faces int
}

type fakeRecorder struct {
	calls []recordCall
}

func (r *fakeRecorder) Record(ts time.Time, faces int) {
	r.calls = append(r.calls, recordCall{ts, faces})
}

var testNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func settingsWith(features ...session.Feature) session.Settings {
	return session.Settings{Features: session.NewFeatureSet(features...), ScaleFactor: 1.1}
}

func TestLandmarks_Geometry(t *testing.T) {
	got := Landmarks(detector.Box{X: 0, Y: 0, W: 90, H: 90})
	want := [NumLandmarks]image.Point{
		{45, 15}, // top center
		{30, 30}, // upper left
		{60, 30}, // upper right
		{45, 45}, // center
		{30, 60}, // lower left
		{60, 60}, // lower right
		{45, 75}, // bottom center
	}
	if got != want {
		t.Errorf("Landmarks() = %v, want %v", got, want)
	}

	// Offsets are relative to the box origin.
	shifted := Landmarks(detector.Box{X: 100, Y: 50, W: 90, H: 90})
	if shifted[0] != image.Pt(145, 65) || shifted[3] != image.Pt(145, 95) {
		t.Errorf("shifted landmarks = %v", shifted)
	}
}

func TestEmotionZones_Bands(t *testing.T) {
	zones := EmotionZones(detector.Box{X: 0, Y: 0, W: 80, H: 100})

	want := [NumZones]image.Rectangle{
		image.Rect(0, 0, 80, 33),
		image.Rect(0, 33, 80, 66),
		image.Rect(0, 66, 80, 99),
	}
	if zones != want {
		t.Errorf("EmotionZones() = %v, want %v", zones, want)
	}
	for i, z := range zones {
		if z.Dy() != 100/3 {
			t.Errorf("zone %d height = %d, want %d", i, z.Dy(), 100/3)
		}
	}
}

func TestFaceColor_CyclesPalette(t *testing.T) {
	if len(FacePalette) != 5 {
		t.Fatalf("len(FacePalette) = %d, want 5", len(FacePalette))
	}
	if FaceColor(5) != FacePalette[0] {
		t.Errorf("FaceColor(5) = %v, want palette entry 0", FaceColor(5))
	}
	if FaceColor(7) != FacePalette[2] {
		t.Errorf("FaceColor(7) = %v, want palette entry 2", FaceColor(7))
	}
}

func TestPipeline_FaceBoxesCyclePalette(t *testing.T) {
	faces := make([]detector.Face, 6)
	for i := range faces {
		faces[i] = detector.Face{Box: detector.Box{X: i * 100, Y: 100, W: 80, H: 80}}
	}

	c := newRecordingCanvas()
	New(nil).Annotate(c, Input{Faces: faces, Settings: settingsWith(session.Faces), Now: testNow})

	rects := c.filter("rect")
	if len(rects) != 6 {
		t.Fatalf("rectangles = %d, want 6", len(rects))
	}
	for i, r := range rects {
		if r.color != FacePalette[i%5] {
			t.Errorf("face %d color = %v, want %v", i, r.color, FacePalette[i%5])
		}
		if r.thickness != 3 {
			t.Errorf("face %d thickness = %d, want 3", i, r.thickness)
		}
	}
	if rects[5].color != FacePalette[0] {
		t.Error("sixth face should reuse palette entry 0")
	}

	var labels []drawOp
	for _, op := range c.filter("text") {
		if strings.HasPrefix(op.text, "Face ") {
			labels = append(labels, op)
		}
	}
	if len(labels) != 6 {
		t.Fatalf("face labels = %d, want 6", len(labels))
	}
	if labels[0].text != "Face 1" || labels[0].point != image.Pt(0, 90) {
		t.Errorf("first label = %q at %v, want \"Face 1\" at (0,90)", labels[0].text, labels[0].point)
	}
	if labels[5].text != "Face 6" {
		t.Errorf("last label = %q, want \"Face 6\"", labels[5].text)
	}
}

func TestPipeline_BlurRunsBeforeDrawing(t *testing.T) {
	faces := []detector.Face{
		{Box: detector.Box{X: 10, Y: 10, W: 100, H: 100}},
		{Box: detector.Box{X: 600, Y: 400, W: 100, H: 100}},
	}

	c := newRecordingCanvas()
	all := session.NewFeatureSet(session.AllFeatures()...)
	New(nil).Annotate(c, Input{Faces: faces, Settings: session.Settings{Features: all, ScaleFactor: 1.1}, Now: testNow})

	if len(c.ops) < 2 || c.ops[0].kind != "blur" || c.ops[1].kind != "blur" {
		t.Fatalf("first ops = %v, want two blur ops", c.ops[:2])
	}
	for _, op := range c.ops[2:] {
		if op.kind == "blur" {
			t.Fatal("blur op found after drawing started")
		}
	}

	// Overhanging face regions are clamped to the frame.
	if c.ops[1].rect != image.Rect(600, 400, 640, 480) {
		t.Errorf("clamped blur rect = %v, want (600,400)-(640,480)", c.ops[1].rect)
	}
	if c.ops[0].radius != BlurKernelSize {
		t.Errorf("kernel = %d, want %d", c.ops[0].radius, BlurKernelSize)
	}
}

func TestPipeline_BlurNeedsFaces(t *testing.T) {
	c := newRecordingCanvas()
	New(nil).Annotate(c, Input{Settings: settingsWith(session.Blur), Now: testNow})

	if blurs := c.filter("blur"); len(blurs) != 0 {
		t.Errorf("blur ops = %d, want 0 without faces", len(blurs))
	}
}

func TestPipeline_EyesAndSmiles(t *testing.T) {
	face := detector.Face{
		Box:    detector.Box{X: 100, Y: 100, W: 200, H: 200},
		Eyes:   []detector.Box{{X: 140, Y: 150, W: 40, H: 20}, {X: 220, Y: 150, W: 40, H: 20}},
		Smiles: []detector.Box{{X: 160, Y: 240, W: 80, H: 30}},
	}

	c := newRecordingCanvas()
	New(nil).Annotate(c, Input{Faces: []detector.Face{face}, Settings: settingsWith(session.Eyes, session.Smiles), Now: testNow})

	rects := c.filter("rect")
	if len(rects) != 3 {
		t.Fatalf("rectangles = %d, want 3 (2 eyes + 1 smile)", len(rects))
	}
	if rects[0].color != EyeColor || rects[0].rect != image.Rect(140, 150, 180, 170) {
		t.Errorf("first eye rect = %+v", rects[0])
	}
	if rects[2].color != SmileColor || rects[2].thickness != 2 {
		t.Errorf("smile rect = %+v", rects[2])
	}

	dots := c.filter("circle")
	if len(dots) != 2 {
		t.Fatalf("eye dots = %d, want 2", len(dots))
	}
	if dots[0].point != image.Pt(160, 160) || dots[0].radius != 2 || dots[0].thickness != -1 {
		t.Errorf("eye dot = %+v, want filled radius 2 at (160,160)", dots[0])
	}
}

func TestPipeline_LandmarksPerFace(t *testing.T) {
	faces := []detector.Face{
		{Box: detector.Box{X: 0, Y: 0, W: 90, H: 90}},
		{Box: detector.Box{X: 200, Y: 200, W: 60, H: 120}},
	}

	c := newRecordingCanvas()
	New(nil).Annotate(c, Input{Faces: faces, Settings: settingsWith(session.Landmarks), Now: testNow})

	dots := c.filter("circle")
	if len(dots) != 2*NumLandmarks {
		t.Fatalf("landmark dots = %d, want %d", len(dots), 2*NumLandmarks)
	}
	if dots[0].point != image.Pt(45, 15) || dots[3].point != image.Pt(45, 45) {
		t.Errorf("first face landmarks = %v, %v", dots[0].point, dots[3].point)
	}
	for _, d := range dots {
		if d.radius != 5 || d.thickness != -1 || d.color != LandmarkColor {
			t.Errorf("landmark dot = %+v, want filled radius 5", d)
		}
	}
}

func TestPipeline_EmotionZones(t *testing.T) {
	face := detector.Face{Box: detector.Box{X: 10, Y: 20, W: 90, H: 100}}

	c := newRecordingCanvas()
	New(nil).Annotate(c, Input{Faces: []detector.Face{face}, Settings: settingsWith(session.EmotionZones), Now: testNow})

	rects := c.filter("rect")
	if len(rects) != NumZones {
		t.Fatalf("zone rectangles = %d, want %d", len(rects), NumZones)
	}
	for i, r := range rects {
		if r.color != ZoneColors[i] {
			t.Errorf("zone %d color = %v, want %v", i, r.color, ZoneColors[i])
		}
	}
	if rects[2].rect != image.Rect(10, 86, 100, 119) {
		t.Errorf("third zone = %v, want (10,86)-(100,119)", rects[2].rect)
	}

	var labels []string
	for _, op := range c.filter("text") {
		if strings.HasPrefix(op.text, "Zone ") {
			labels = append(labels, op.text)
			if op.text == "Zone 1" && op.point != image.Pt(15, 40) {
				t.Errorf("Zone 1 label at %v, want (15,40)", op.point)
			}
		}
	}
	if !reflect.DeepEqual(labels, []string{"Zone 1", "Zone 2", "Zone 3"}) {
		t.Errorf("zone labels = %v", labels)
	}
}

func TestPipeline_StatisticsOverlay(t *testing.T) {
	rec := &fakeRecorder{}
	faces := []detector.Face{{Box: detector.Box{X: 10, Y: 10, W: 50, H: 50}}, {Box: detector.Box{X: 100, Y: 10, W: 50, H: 50}}}
	settings := session.Settings{Features: session.NewFeatureSet(session.Faces, session.Landmarks), ScaleFactor: 1.234}

	c := newRecordingCanvas()
	New(rec).Annotate(c, Input{Faces: faces, Settings: settings, Now: testNow})

	if len(rec.calls) != 1 || rec.calls[0].faces != 2 || !rec.calls[0].ts.Equal(testNow) {
		t.Errorf("recorder calls = %+v, want one call with 2 faces", rec.calls)
	}

	var stats []drawOp
	for _, op := range c.filter("text") {
		if !strings.HasPrefix(op.text, "Face ") {
			stats = append(stats, op)
		}
	}
	if len(stats) != 8 {
		t.Fatalf("stats text ops = %d, want 8 (4 lines drawn twice)", len(stats))
	}

	wantLines := []string{
		"Faces Detected: 2",
		"Detection Scale: 1.23",
		"Time: 14:05:07",
		"Features: faces, landmarks",
	}
	for i, line := range wantLines {
		stroke, fill := stats[2*i], stats[2*i+1]
		if stroke.text != line || fill.text != line {
			t.Errorf("line %d = %q/%q, want %q", i, stroke.text, fill.text, line)
		}
		if stroke.color != StrokeColor || stroke.thickness != 2 {
			t.Errorf("line %d stroke = %+v, want white thickness 2", i, stroke)
		}
		if fill.color != FillColor || fill.thickness != 1 {
			t.Errorf("line %d fill = %+v, want black thickness 1", i, fill)
		}
		if want := image.Pt(10, 30+i*25); stroke.point != want || fill.point != want {
			t.Errorf("line %d at %v, want %v", i, stroke.point, want)
		}
	}

	// The overlay is always drawn last.
	last := c.ops[len(c.ops)-1]
	if last.text != wantLines[3] {
		t.Errorf("last op = %+v, want features line", last)
	}
}

func TestPipeline_DisabledFeaturesDrawOnlyStatistics(t *testing.T) {
	faces := []detector.Face{{
		Box:  detector.Box{X: 10, Y: 10, W: 50, H: 50},
		Eyes: []detector.Box{{X: 20, Y: 20, W: 10, H: 10}},
	}}

	c := newRecordingCanvas()
	New(nil).Annotate(c, Input{Faces: faces, Settings: settingsWith(), Now: testNow})

	if len(c.ops) != 8 {
		t.Fatalf("ops = %d, want only the 8 statistics text ops", len(c.ops))
	}
	for _, op := range c.ops {
		if op.kind != "text" {
			t.Errorf("unexpected %s op with all features disabled", op.kind)
		}
	}
	if c.ops[6].text != "Features: " {
		t.Errorf("features line = %q, want empty list", c.ops[6].text)
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	faces := []detector.Face{
		{Box: detector.Box{X: 50, Y: 60, W: 120, H: 130}, Eyes: []detector.Box{{X: 70, Y: 90, W: 20, H: 10}}},
		{Box: detector.Box{X: 300, Y: 100, W: 90, H: 90}, Smiles: []detector.Box{{X: 320, Y: 160, W: 40, H: 15}}},
	}
	in := Input{
		Faces:    faces,
		Settings: session.Settings{Features: session.NewFeatureSet(session.AllFeatures()...), ScaleFactor: 1.3},
		Now:      testNow,
	}

	first, second := newRecordingCanvas(), newRecordingCanvas()
	p := New(nil)
	p.Annotate(first, in)
	p.Annotate(second, in)

	if !reflect.DeepEqual(first.ops, second.ops) {
		t.Error("identical inputs produced different draw sequences")
	}
}

func TestBanner(t *testing.T) {
	c := newRecordingCanvas()
	Banner(c, "SNAPSHOT SAVED!")

	if len(c.ops) != 1 || c.ops[0].text != "SNAPSHOT SAVED!" || c.ops[0].point != image.Pt(50, 50) {
		t.Errorf("banner ops = %+v", c.ops)
	}
}
