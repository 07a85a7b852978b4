package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scheduler.DebounceDelay != 150*time.Millisecond {
		t.Errorf("Expected default debounce delay to be 150ms, got %v", config.Scheduler.DebounceDelay)
	}
	if config.Scheduler.ThrottleDelay != 300*time.Millisecond {
		t.Errorf("Expected default throttle delay to be 300ms, got %v", config.Scheduler.ThrottleDelay)
	}
	if config.Scheduler.InitialDelay != time.Second {
		t.Errorf("Expected default initial delay to be 1s, got %v", config.Scheduler.InitialDelay)
	}
	if config.Download.Folder != "Threads" {
		t.Errorf("Expected default download folder to be Threads, got %s", config.Download.Folder)
	}
	if config.Discovery.ContainerDepth != 15 {
		t.Errorf("Expected default container depth to be 15, got %d", config.Discovery.ContainerDepth)
	}

	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("THREADSDL_OUTPUT_DIR", "/tmp/test-downloads")
	t.Setenv("THREADSDL_CONCURRENT_DOWNLOADS", "5")
	t.Setenv("THREADSDL_DEBOUNCE_DELAY", "250ms")
	t.Setenv("THREADSDL_RESCAN_INTERVAL", "2s")
	t.Setenv("THREADSDL_ADD_PREFIX", "false")
	t.Setenv("THREADSDL_LANGUAGE", "ja")
	t.Setenv("THREADSDL_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "/tmp/test-downloads", config.Download.BaseDirectory)
	assert.Equal(t, 5, config.Download.ConcurrentDownloads)
	assert.Equal(t, 250*time.Millisecond, config.Scheduler.DebounceDelay)
	assert.Equal(t, 2*time.Second, config.Scheduler.RescanInterval)
	assert.False(t, config.Filename.AddPrefix)
	assert.Equal(t, "ja", config.I18n.Language)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidDuration(t *testing.T) {
	t.Setenv("THREADSDL_THROTTLE_DELAY", "soon")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
scheduler:
  debounce_delay: 200ms
  throttle_delay: 500ms
download:
  base_directory: /data/media
  concurrent_downloads: 4
archive:
  compression_level: 9
settings:
  backend: sqlite
  path: /data/settings.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, 200*time.Millisecond, config.Scheduler.DebounceDelay)
	assert.Equal(t, 500*time.Millisecond, config.Scheduler.ThrottleDelay)
	assert.Equal(t, "/data/media", config.Download.BaseDirectory)
	assert.Equal(t, 4, config.Download.ConcurrentDownloads)
	assert.Equal(t, 9, config.Archive.CompressionLevel)
	assert.Equal(t, "sqlite", config.Settings.Backend)

	// untouched sections keep their defaults
	assert.Equal(t, "Threads", config.Download.Folder)
	assert.Equal(t, 12, config.Discovery.PosterDepth)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero debounce", func(c *Config) { c.Scheduler.DebounceDelay = 0 }, true},
		{"negative rescan", func(c *Config) { c.Scheduler.RescanInterval = -time.Second }, true},
		{"nested folder", func(c *Config) { c.Download.Folder = "Threads/sub" }, true},
		{"too many downloads", func(c *Config) { c.Download.ConcurrentDownloads = 11 }, true},
		{"bad compression", func(c *Config) { c.Archive.CompressionLevel = 12 }, true},
		{"unknown backend", func(c *Config) { c.Settings.Backend = "redis" }, true},
		{"sqlite without path", func(c *Config) { c.Settings.Backend = "sqlite"; c.Settings.Path = "" }, true},
		{"depth out of range", func(c *Config) { c.Discovery.PostInfoDepth = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Download.BaseDirectory = "/srv/threads"
	original.Scheduler.RescanInterval = 5 * time.Second
	require.NoError(t, original.Save(path))

	loaded, err := Load(path, map[string]interface{}{"log-level": "warn"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/threads", loaded.Download.BaseDirectory)
	assert.Equal(t, 5*time.Second, loaded.Scheduler.RescanInterval)
	assert.Equal(t, "warn", loaded.Logging.Level)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"output":           "/out",
		"concurrent":       2,
		"language":         "zh_TW",
		"settings-backend": "sqlite",
		"rescan":           10 * time.Second,
		"ignored":          true,
	})

	assert.Equal(t, "/out", config.Download.BaseDirectory)
	assert.Equal(t, 2, config.Download.ConcurrentDownloads)
	assert.Equal(t, "zh_TW", config.I18n.Language)
	assert.Equal(t, "sqlite", config.Settings.Backend)
	assert.Equal(t, 10*time.Second, config.Scheduler.RescanInterval)
}
