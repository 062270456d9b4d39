package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.Set("dataDir", dir)

	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.LogFile)
	assert.Equal(t, 0.40, cfg.Recognition.Threshold)
	assert.Equal(t, 10, cfg.Recognition.WindowSize)
	assert.Equal(t, 1, cfg.Recognition.CaptureFrames)
	assert.Equal(t, StorageFile, cfg.Storage.Type)
	assert.Equal(t, filepath.Join(dir, "gestos_salvos.json"), cfg.Storage.GestureFile)
	assert.Equal(t, filepath.Join(dir, "frases_salvas.json"), cfg.Storage.PhraseFile)
	assert.Equal(t, filepath.Join(dir, "mudra.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, 0, cfg.Camera.ID)
	assert.True(t, cfg.Camera.Mirror)
	assert.Equal(t, 1.0, cfg.Motion.Threshold)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Plugins.Timeout)
	assert.False(t, cfg.Tray.Enabled)
}

func TestLoad_ConfigFileInDataDir(t *testing.T) {
	dir := t.TempDir()
	content := `
logLevel: debug
recognition:
  threshold: 0.25
  windowSize: 6
storage:
  type: sqlite
  sqlitePath: /var/lib/mudra/gestures.db
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	v := New()
	v.Set("dataDir", dir)
	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.25, cfg.Recognition.Threshold)
	assert.Equal(t, 6, cfg.Recognition.WindowSize)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, "/var/lib/mudra/gestures.db", cfg.Storage.SQLitePath)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"camera": {"id": 2, "mirror": false}}`), 0o644))

	v := New()
	v.Set("dataDir", dir)
	cfg, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Camera.ID)
	assert.False(t, cfg.Camera.Mirror)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(New(), "/nonexistent/mudra.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MUDRA_RECOGNITION_THRESHOLD", "0.3")
	t.Setenv("MUDRA_LOGLEVEL", "warn")

	v := New()
	v.Set("dataDir", t.TempDir())
	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Recognition.Threshold)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	v := New()
	v.Set("dataDir", t.TempDir())
	v.Set("recognition.windowSize", 0)

	_, err := Load(v, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "windowSize")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Recognition: RecognitionConfig{Threshold: 0.4, WindowSize: 10, CaptureFrames: 1},
			Storage:     StorageConfig{Type: StorageFile},
			Motion:      MotionConfig{Threshold: 1},
			Plugins:     PluginsConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero threshold allowed", func(c *Config) { c.Recognition.Threshold = 0 }, ""},
		{"negative threshold", func(c *Config) { c.Recognition.Threshold = -0.1 }, "threshold"},
		{"window size zero", func(c *Config) { c.Recognition.WindowSize = 0 }, "windowSize"},
		{"capture frames zero", func(c *Config) { c.Recognition.CaptureFrames = 0 }, "captureFrames"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "redis" }, "storage.type"},
		{"negative motion", func(c *Config) { c.Motion.Threshold = -1 }, "motion.threshold"},
		{"zero plugin timeout", func(c *Config) { c.Plugins.Timeout = 0 }, "plugins.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
