package capture

import "gocv.io/x/gocv"

// flipHorizontal mirrors around the vertical axis.
const flipHorizontal = 1

// Mirror flips frame horizontally in place so the preview behaves like a mirror.
func Mirror(frame *gocv.Mat) {
	gocv.Flip(*frame, frame, flipHorizontal)
}

// Gray returns a single channel copy of a BGR frame for the detectors.
// The caller must close the result.
func Gray(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	return gray
}
