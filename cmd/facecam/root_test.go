package main

import (
	"path/filepath"
	"testing"

	"github.com/ayusman/facecam/internal/config"
	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/store"
)

func TestInitialSettings(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	saved := session.Settings{
		Features:    session.NewFeatureSet(session.Faces, session.Blur),
		ScaleFactor: 1.3,
	}
	if err := s.Settings().SaveSession(saved); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	tests := []struct {
		name    string
		restore bool
		scale   float64
		want    session.Settings
	}{
		{
			name:  "defaults every run",
			scale: 1.1,
			want:  session.DefaultSettings(),
		},
		{
			name:  "configured scale is clamped",
			scale: 3,
			want:  session.Settings{Features: session.DefaultFeatures(), ScaleFactor: session.MaxScaleFactor},
		},
		{
			name:    "restore opt-in uses saved settings",
			restore: true,
			scale:   1.1,
			want:    saved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Detection: config.DetectionConfig{ScaleFactor: tt.scale},
				UI:        config.UIConfig{RestoreSettings: tt.restore},
			}
			if got := initialSettings(cfg, s.Settings()); got != tt.want {
				t.Errorf("initialSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"config", "camera", "snapshot-dir", "cascade-dir", "addr", "no-tray", "log-level"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s is not registered", name)
		}
	}
}
