// Package config loads facecam settings from defaults, an optional config file,
// environment variables and command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. FACECAM_CAMERA_DEVICE_ID.
const EnvPrefix = "FACECAM"

// Config is the top level application configuration.
type Config struct {
	Camera    CameraConfig    `mapstructure:"camera"`
	Detection DetectionConfig `mapstructure:"detection"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	UI        UIConfig        `mapstructure:"ui"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID int `mapstructure:"device_id"`
	Width    int `mapstructure:"width"`
	Height   int `mapstructure:"height"`
}

// DetectionConfig points at the Haar cascade files and sets the initial sensitivity.
type DetectionConfig struct {
	CascadeDir   string  `mapstructure:"cascade_dir"`
	FaceCascade  string  `mapstructure:"face_cascade"`
	EyeCascade   string  `mapstructure:"eye_cascade"`
	SmileCascade string  `mapstructure:"smile_cascade"`
	ScaleFactor  float64 `mapstructure:"scale_factor"`
}

// SnapshotConfig controls where snapshots are written.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

// ServerConfig controls the local HTTP control API.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DBConfig holds the snapshot catalog location.
type DBConfig struct {
	File string `mapstructure:"file"`
}

// UIConfig holds preview window and tray settings. RestoreSettings starts a run
// with the toggles and sensitivity saved by the previous one instead of the defaults.
type UIConfig struct {
	WindowTitle     string `mapstructure:"window_title"`
	Tray            bool   `mapstructure:"tray"`
	Window          bool   `mapstructure:"window"`
	RestoreSettings bool   `mapstructure:"restore_settings"`
}

// New returns a viper instance with every default registered, ready for flag binding.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// Load reads the optional config file at configPath, applies environment
// overrides and unmarshals the result into a Config.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", configPath)
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Infof("Config loaded from %s", configPath)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DB.File == "" {
		cfg.DB.File = defaultDBPath()
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, fmt.Errorf("failed to create required directories: %w", err)
	}

	return &cfg, nil
}

// CascadePath resolves a cascade file name against the configured cascade directory.
func (c DetectionConfig) CascadePath(name string) string {
	if filepath.IsAbs(name) || c.CascadeDir == "" {
		return name
	}
	return filepath.Join(c.CascadeDir, name)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("camera.device_id", 0)
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)

	v.SetDefault("detection.cascade_dir", "/usr/share/opencv4/haarcascades")
	v.SetDefault("detection.face_cascade", "haarcascade_frontalface_default.xml")
	v.SetDefault("detection.eye_cascade", "haarcascade_eye.xml")
	v.SetDefault("detection.smile_cascade", "haarcascade_smile.xml")
	v.SetDefault("detection.scale_factor", 1.1)

	v.SetDefault("snapshot.dir", "snapshots")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", "127.0.0.1:8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("db.file", "")

	v.SetDefault("ui.window_title", "Advanced Face Detection")
	v.SetDefault("ui.tray", true)
	v.SetDefault("ui.window", true)
	v.SetDefault("ui.restore_settings", false)
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "facecam.db"
	}
	return filepath.Join(homeDir, ".facecam", "facecam.db")
}

func ensureDirectories(cfg *Config) error {
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	if cfg.DB.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.File), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}
