// Package session holds the state shared between the control surface and the
// capture loop: feature toggles, sensitivity, the active flag, the snapshot
// counter and the rolling detection history.
package session

import (
	"fmt"
	"strings"
)

// Feature identifies one annotation stage that can be switched on or off.
type Feature int

// Features in their fixed display order.
const (
	Faces Feature = iota
	Eyes
	Smiles
	Blur
	Landmarks
	EmotionZones
	numFeatures
)

var featureNames = [numFeatures]string{
	Faces:        "faces",
	Eyes:         "eyes",
	Smiles:       "smiles",
	Blur:         "blur",
	Landmarks:    "landmarks",
	EmotionZones: "emotion-zones",
}

// AllFeatures returns every feature in display order.
func AllFeatures() []Feature {
	all := make([]Feature, numFeatures)
	for i := range all {
		all[i] = Feature(i)
	}
	return all
}

// String returns the toggle name, e.g. "emotion-zones".
func (f Feature) String() string {
	if f < 0 || f >= numFeatures {
		return fmt.Sprintf("feature(%d)", int(f))
	}
	return featureNames[f]
}

// ParseFeature maps a toggle name back to its Feature.
func ParseFeature(name string) (Feature, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range featureNames {
		if n == name {
			return Feature(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feature %q", name)
}

// FeatureSet is an immutable set of enabled features.
type FeatureSet uint8

// DefaultFeatures enables faces, eyes and smiles.
func DefaultFeatures() FeatureSet {
	return NewFeatureSet(Faces, Eyes, Smiles)
}

// NewFeatureSet returns a set with exactly the given features enabled.
func NewFeatureSet(features ...Feature) FeatureSet {
	var fs FeatureSet
	for _, f := range features {
		fs = fs.With(f, true)
	}
	return fs
}

// Enabled reports whether f is switched on.
func (fs FeatureSet) Enabled(f Feature) bool {
	if f < 0 || f >= numFeatures {
		return false
	}
	return fs&(1<<uint(f)) != 0
}

// With returns a copy of fs with f set to on.
func (fs FeatureSet) With(f Feature, on bool) FeatureSet {
	if f < 0 || f >= numFeatures {
		return fs
	}
	if on {
		return fs | 1<<uint(f)
	}
	return fs &^ (1 << uint(f))
}

// Count returns the number of enabled features.
func (fs FeatureSet) Count() int {
	n := 0
	for _, f := range AllFeatures() {
		if fs.Enabled(f) {
			n++
		}
	}
	return n
}

// EnabledNames lists the enabled toggle names in display order.
func (fs FeatureSet) EnabledNames() []string {
	names := make([]string, 0, numFeatures)
	for _, f := range AllFeatures() {
		if fs.Enabled(f) {
			names = append(names, f.String())
		}
	}
	return names
}

// Map returns the set as name -> enabled, for JSON responses.
func (fs FeatureSet) Map() map[string]bool {
	m := make(map[string]bool, numFeatures)
	for _, f := range AllFeatures() {
		m[f.String()] = fs.Enabled(f)
	}
	return m
}
