package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ayusman/facecam/internal/session"
)

// Keys under which the control surface settings are persisted.
const (
	KeyFeatures    = "features"
	KeyScaleFactor = "scale_factor"
)

// LoadSession returns base overlaid with any persisted toggles and sensitivity.
// Unknown feature names and malformed values are skipped.
func (r *SettingsRepository) LoadSession(base session.Settings) (session.Settings, error) {
	out := base

	names, err := r.Get(KeyFeatures)
	switch {
	case err == nil:
		fs := session.NewFeatureSet()
		for _, name := range strings.Split(names, ",") {
			if name == "" {
				continue
			}
			f, err := session.ParseFeature(name)
			if err != nil {
				continue
			}
			fs = fs.With(f, true)
		}
		out.Features = fs
	case !errors.Is(err, ErrNotFound):
		return base, fmt.Errorf("failed to load features: %w", err)
	}

	scale, err := r.Get(KeyScaleFactor)
	switch {
	case err == nil:
		if v, perr := strconv.ParseFloat(scale, 64); perr == nil {
			out.ScaleFactor = session.ClampScaleFactor(v)
		}
	case !errors.Is(err, ErrNotFound):
		return base, fmt.Errorf("failed to load scale factor: %w", err)
	}

	return out, nil
}

// SaveSession persists the toggles and sensitivity of s.
func (r *SettingsRepository) SaveSession(s session.Settings) error {
	if err := r.Set(KeyFeatures, strings.Join(s.Features.EnabledNames(), ",")); err != nil {
		return fmt.Errorf("failed to save features: %w", err)
	}
	if err := r.Set(KeyScaleFactor, strconv.FormatFloat(s.ScaleFactor, 'f', 2, 64)); err != nil {
		return fmt.Errorf("failed to save scale factor: %w", err)
	}
	return nil
}
