package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/facecam/internal/app"
	"github.com/ayusman/facecam/internal/capture"
	"github.com/ayusman/facecam/internal/config"
	"github.com/ayusman/facecam/internal/detector"
	"github.com/ayusman/facecam/internal/display"
	"github.com/ayusman/facecam/internal/logger"
	"github.com/ayusman/facecam/internal/server"
	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/snapshot"
	"github.com/ayusman/facecam/internal/store"
	"github.com/ayusman/facecam/internal/tray"
)

// Version is the application version.
const Version = "0.1.0"

func newRootCmd() *cobra.Command {
	v := config.New()
	var configPath string
	var noTray bool

	cmd := &cobra.Command{
		Use:          "facecam",
		Short:        "Webcam face detection with live annotations",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noTray {
				v.Set("ui.tray", false)
			}
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.Int("camera", 0, "camera device index")
	flags.String("snapshot-dir", snapshot.DefaultDir, "directory for saved snapshots")
	flags.String("cascade-dir", "", "directory holding the Haar cascade XML files")
	flags.String("addr", "", "listen address of the HTTP control API")
	flags.BoolVar(&noTray, "no-tray", false, "run without the system tray and start detecting immediately")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	bindFlags(v, cmd, map[string]string{
		"camera":       "camera.device_id",
		"snapshot-dir": "snapshot.dir",
		"cascade-dir":  "detection.cascade_dir",
		"addr":         "server.addr",
		"log-level":    "log.level",
	})

	return cmd
}

// bindFlags binds each flag to its config key. Unset flags leave the
// config file and environment values in effect.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			log.Fatalf("Failed to bind flag --%s: %v", flag, err)
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logCloser, err := logger.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logCloser.Close()

	log.Info("facecam - Advanced Face Detection")

	st, err := store.New(cfg.DB.File)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	state := session.NewState(initialSettings(cfg, st.Settings()))

	det, err := detector.NewCascadeDetector(detector.CascadeConfig{
		FacePath:  cfg.Detection.CascadePath(cfg.Detection.FaceCascade),
		EyePath:   cfg.Detection.CascadePath(cfg.Detection.EyeCascade),
		SmilePath: cfg.Detection.CascadePath(cfg.Detection.SmileCascade),
	})
	if err != nil {
		return fmt.Errorf("failed to load cascades: %w", err)
	}
	defer det.Close()

	saver, err := snapshot.NewSaver(cfg.Snapshot.Dir, state)
	if err != nil {
		return err
	}

	var disp display.Display = display.NewHeadless()
	if cfg.UI.Window {
		disp = display.NewWindow(cfg.UI.WindowTitle)
	}

	a, err := app.New(app.Config{
		CameraID: cfg.Camera.DeviceID,
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      capture.DefaultFPS,
		}),
		Detector: det,
		Display:  disp,
		State:    state,
		Saver:    saver,
		Store:    st,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Settings().SaveSession(state.Settings()); err != nil {
			log.Warnf("Failed to save settings: %v", err)
		}
		if err := a.Close(); err != nil {
			log.Warnf("Failed to stop capture: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverDone := make(chan struct{})
	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			Controller:  a,
			Store:       st,
			SnapshotDir: saver.Dir(),
		})
		go func() {
			defer close(serverDone)
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				log.Errorf("HTTP control API failed: %v", err)
			}
		}()
	} else {
		close(serverDone)
	}
	defer func() {
		cancel()
		<-serverDone
	}()

	if cfg.UI.Tray {
		runTray(ctx, cancel, a)
		return nil
	}

	if err := a.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case <-a.Done():
		log.Info("Capture loop finished")
	}
	return nil
}

// initialSettings returns the startup toggles and sensitivity: the defaults with
// the configured scale factor, overlaid with the previous run's settings only
// when restoring is enabled.
func initialSettings(cfg *config.Config, prefs *store.SettingsRepository) session.Settings {
	initial := session.DefaultSettings()
	initial.ScaleFactor = session.ClampScaleFactor(cfg.Detection.ScaleFactor)
	if !cfg.UI.RestoreSettings {
		return initial
	}

	restored, err := prefs.LoadSession(initial)
	if err != nil {
		log.Warnf("Failed to restore saved settings: %v", err)
		return initial
	}
	return restored
}

// runTray blocks in the tray event loop until the user quits or ctx is cancelled.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App) {
	t := tray.New(a)
	t.OnQuit(cancel)
	a.OnStats(t.UpdateStats)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	log.Info("System tray running; use the menu to start detection")
	t.Run()
}
