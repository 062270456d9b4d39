// Package config loads mudra settings from defaults, an optional config file
// and MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the data directory.
const FileName = "mudra.yaml"

// Storage types.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// RecognitionConfig holds matcher and window settings.
type RecognitionConfig struct {
	Threshold     float64 `mapstructure:"threshold"`
	WindowSize    int     `mapstructure:"windowSize"`
	CaptureFrames int     `mapstructure:"captureFrames"`
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	Type        string `mapstructure:"type"`
	GestureFile string `mapstructure:"gestureFile"`
	PhraseFile  string `mapstructure:"phraseFile"`
	SQLitePath  string `mapstructure:"sqlitePath"`
}

// CameraConfig holds camera settings.
type CameraConfig struct {
	ID     int  `mapstructure:"id"`
	Mirror bool `mapstructure:"mirror"`
}

// MotionConfig holds the motion gate settings.
type MotionConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"staticDir"`
}

// PluginsConfig holds plugin discovery and execution settings.
type PluginsConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TrayConfig holds system tray settings.
type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the full application configuration.
type Config struct {
	DataDir     string            `mapstructure:"dataDir"`
	LogLevel    string            `mapstructure:"logLevel"`
	LogFile     string            `mapstructure:"logFile"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Camera      CameraConfig      `mapstructure:"camera"`
	Motion      MotionConfig      `mapstructure:"motion"`
	Server      ServerConfig      `mapstructure:"server"`
	Plugins     PluginsConfig     `mapstructure:"plugins"`
	Tray        TrayConfig        `mapstructure:"tray"`
}

// DefaultDataDir returns ~/.mudra, or ./.mudra when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dataDir", DefaultDataDir())
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")

	v.SetDefault("recognition.threshold", 0.40)
	v.SetDefault("recognition.windowSize", 10)
	v.SetDefault("recognition.captureFrames", 1)

	v.SetDefault("storage.type", StorageFile)
	v.SetDefault("storage.gestureFile", "gestos_salvos.json")
	v.SetDefault("storage.phraseFile", "frases_salvas.json")
	v.SetDefault("storage.sqlitePath", "mudra.db")

	v.SetDefault("camera.id", 0)
	v.SetDefault("camera.mirror", true)

	v.SetDefault("motion.threshold", 1.0)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.staticDir", "")

	v.SetDefault("plugins.dir", "")
	v.SetDefault("plugins.timeout", "5s")

	v.SetDefault("tray.enabled", false)
}

// New returns a viper instance with defaults and MUDRA_* environment overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("MUDRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file and decodes the result into a Config.
//
// When configFile is empty, mudra.yaml is looked up in the data directory and
// may be absent. An explicitly named file must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("dataDir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePaths makes relative storage paths relative to the data directory.
func (c *Config) resolvePaths() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	c.Storage.GestureFile = c.inDataDir(c.Storage.GestureFile)
	c.Storage.PhraseFile = c.inDataDir(c.Storage.PhraseFile)
	c.Storage.SQLitePath = c.inDataDir(c.Storage.SQLitePath)
	if c.LogFile != "" {
		c.LogFile = c.inDataDir(c.LogFile)
	}
}

func (c *Config) inDataDir(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Recognition.Threshold < 0 {
		return fmt.Errorf("recognition.threshold must not be negative, got %v", c.Recognition.Threshold)
	}
	if c.Recognition.WindowSize < 1 {
		return fmt.Errorf("recognition.windowSize must be at least 1, got %d", c.Recognition.WindowSize)
	}
	if c.Recognition.CaptureFrames < 1 {
		return fmt.Errorf("recognition.captureFrames must be at least 1, got %d", c.Recognition.CaptureFrames)
	}
	switch c.Storage.Type {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("storage.type must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage.Type)
	}
	if c.Motion.Threshold < 0 {
		return fmt.Errorf("motion.threshold must not be negative, got %v", c.Motion.Threshold)
	}
	if c.Plugins.Timeout <= 0 {
		return fmt.Errorf("plugins.timeout must be positive, got %s", c.Plugins.Timeout)
	}
	return nil
}
