package session

import "math"

// Sensitivity limits for the face detector scale factor.
const (
	MinScaleFactor     = 1.01
	MaxScaleFactor     = 1.5
	ScaleFactorStep    = 0.01
	DefaultScaleFactor = 1.1
)

// Settings is an immutable per-frame view of the control surface state.
// The capture loop loads one Settings value per frame and never mutates it.
type Settings struct {
	Features    FeatureSet
	ScaleFactor float64
}

// DefaultSettings returns the startup toggles and sensitivity.
func DefaultSettings() Settings {
	return Settings{
		Features:    DefaultFeatures(),
		ScaleFactor: DefaultScaleFactor,
	}
}

// ClampScaleFactor snaps v to the slider step and limits it to [MinScaleFactor, MaxScaleFactor].
// NaN maps to the default.
func ClampScaleFactor(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultScaleFactor
	}
	v = math.Round(v/ScaleFactorStep) * ScaleFactorStep
	if v < MinScaleFactor {
		return MinScaleFactor
	}
	if v > MaxScaleFactor {
		return MaxScaleFactor
	}
	// Strip float noise left by the step multiplication.
	return math.Round(v*100) / 100
}
