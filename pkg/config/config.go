package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the downloader engine
type Config struct {
	// Heuristic search bounds
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`

	// Rescan timing
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`

	// Filename defaults, used until the settings store says otherwise
	Filename FilenameConfig `yaml:"filename" json:"filename"`

	// Download service settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// ZIP packaging
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Localized strings
	I18n I18nConfig `yaml:"i18n" json:"i18n"`

	// Settings persistence
	Settings SettingsConfig `yaml:"settings" json:"settings"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DiscoveryConfig bounds every ancestor walk
type DiscoveryConfig struct {
	PosterDepth       int `yaml:"poster_depth" json:"poster_depth"`
	ContainerDepth    int `yaml:"container_depth" json:"container_depth"`
	GridFallbackDepth int `yaml:"grid_fallback_depth" json:"grid_fallback_depth"`
	PostFallbackDepth int `yaml:"post_fallback_depth" json:"post_fallback_depth"`
	PostInfoDepth     int `yaml:"post_info_depth" json:"post_info_depth"`
}

// SchedulerConfig holds the named time constants of the change detector
type SchedulerConfig struct {
	DebounceDelay          time.Duration `yaml:"debounce_delay" json:"debounce_delay"`
	ThrottleDelay          time.Duration `yaml:"throttle_delay" json:"throttle_delay"`
	InitialDelay           time.Duration `yaml:"initial_delay" json:"initial_delay"`
	RescanInterval         time.Duration `yaml:"rescan_interval" json:"rescan_interval"`
	NotificationTimeout    time.Duration `yaml:"notification_timeout" json:"notification_timeout"`
	IntersectionThreshold  float64       `yaml:"intersection_threshold" json:"intersection_threshold"`
	IntersectionRootMargin string        `yaml:"intersection_root_margin" json:"intersection_root_margin"`
}

// FilenameConfig holds filename defaults
type FilenameConfig struct {
	AddPrefix    bool `yaml:"add_prefix" json:"add_prefix"`
	UseTimestamp bool `yaml:"use_timestamp" json:"use_timestamp"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	BaseDirectory       string        `yaml:"base_directory" json:"base_directory"`
	Folder              string        `yaml:"folder" json:"folder"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelay          time.Duration `yaml:"retry_delay" json:"retry_delay"`
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize           int           `yaml:"burst_size" json:"burst_size"`
	UserAgent           string        `yaml:"user_agent" json:"user_agent"`
	Referer             string        `yaml:"referer" json:"referer"`
	OverwriteExisting   bool          `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// ArchiveConfig holds ZIP bundling settings
type ArchiveConfig struct {
	Concurrency      int `yaml:"concurrency" json:"concurrency"`
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
}

// I18nConfig selects the UI language
type I18nConfig struct {
	// Language is a locale directory name (en, zh_TW, ...) or "auto"
	Language string `yaml:"language" json:"language"`
	// BrowserLocale is the host UI locale used when Language is auto
	BrowserLocale string `yaml:"browser_locale" json:"browser_locale"`
}

// SettingsConfig selects the settings backend
type SettingsConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	Console bool   `yaml:"console" json:"console"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			PosterDepth:       12,
			ContainerDepth:    15,
			GridFallbackDepth: 10,
			PostFallbackDepth: 10,
			PostInfoDepth:     15,
		},
		Scheduler: SchedulerConfig{
			DebounceDelay:          150 * time.Millisecond,
			ThrottleDelay:          300 * time.Millisecond,
			InitialDelay:           time.Second,
			RescanInterval:         0, // disabled
			NotificationTimeout:    3 * time.Second,
			IntersectionThreshold:  0.1,
			IntersectionRootMargin: "200px",
		},
		Filename: FilenameConfig{
			AddPrefix:    true,
			UseTimestamp: false,
		},
		Download: DownloadConfig{
			BaseDirectory:       "./downloads",
			Folder:              "Threads",
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
			RetryAttempts:       3,
			RetryDelay:          time.Second,
			RequestsPerMinute:   60,
			BurstSize:           10,
			UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Referer:             "https://www.threads.net/",
		},
		Archive: ArchiveConfig{
			Concurrency:      4,
			CompressionLevel: 6,
		},
		I18n: I18nConfig{
			Language: "auto",
		},
		Settings: SettingsConfig{
			Backend: "memory",
			Path:    filepath.Join(os.Getenv("HOME"), ".config", "threadsdl", "settings.db"),
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if dir := os.Getenv("THREADSDL_OUTPUT_DIR"); dir != "" {
		c.Download.BaseDirectory = dir
	}
	if folder := os.Getenv("THREADSDL_FOLDER"); folder != "" {
		c.Download.Folder = folder
	}
	if userAgent := os.Getenv("THREADSDL_USER_AGENT"); userAgent != "" {
		c.Download.UserAgent = userAgent
	}

	if concurrent := os.Getenv("THREADSDL_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if rpm := os.Getenv("THREADSDL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Download.RequestsPerMinute = val
		}
	}

	durations := map[string]*time.Duration{
		"THREADSDL_DEBOUNCE_DELAY":  &c.Scheduler.DebounceDelay,
		"THREADSDL_THROTTLE_DELAY":  &c.Scheduler.ThrottleDelay,
		"THREADSDL_INITIAL_DELAY":   &c.Scheduler.InitialDelay,
		"THREADSDL_RESCAN_INTERVAL": &c.Scheduler.RescanInterval,
	}
	for key, target := range durations {
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*target = d
	}

	if prefix := os.Getenv("THREADSDL_ADD_PREFIX"); prefix != "" {
		c.Filename.AddPrefix = strings.ToLower(prefix) == "true"
	}
	if lang := os.Getenv("THREADSDL_LANGUAGE"); lang != "" {
		c.I18n.Language = lang
	}
	if backend := os.Getenv("THREADSDL_SETTINGS_BACKEND"); backend != "" {
		c.Settings.Backend = backend
	}
	if path := os.Getenv("THREADSDL_SETTINGS_PATH"); path != "" {
		c.Settings.Path = path
	}
	if logLevel := os.Getenv("THREADSDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".threadsdl.yaml",
		".threadsdl.yml",
		filepath.Join(home, ".config", "threadsdl", "config.yaml"),
		filepath.Join(home, ".config", "threadsdl", "config.yml"),
		filepath.Join(home, ".threadsdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	d := c.Discovery
	for name, v := range map[string]int{
		"poster depth":        d.PosterDepth,
		"container depth":     d.ContainerDepth,
		"grid fallback depth": d.GridFallbackDepth,
		"post fallback depth": d.PostFallbackDepth,
		"post info depth":     d.PostInfoDepth,
	} {
		if v <= 0 || v > 50 {
			errs = append(errs, fmt.Errorf("%s must be between 1 and 50", name))
		}
	}

	s := c.Scheduler
	if s.DebounceDelay <= 0 {
		errs = append(errs, errors.New("debounce delay must be positive"))
	}
	if s.ThrottleDelay <= 0 {
		errs = append(errs, errors.New("throttle delay must be positive"))
	}
	if s.InitialDelay < 0 {
		errs = append(errs, errors.New("initial delay cannot be negative"))
	}
	if s.RescanInterval < 0 {
		errs = append(errs, errors.New("rescan interval cannot be negative"))
	}
	if s.IntersectionThreshold < 0 || s.IntersectionThreshold > 1 {
		errs = append(errs, errors.New("intersection threshold must be between 0 and 1"))
	}

	if c.Download.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.Folder == "" || strings.ContainsAny(c.Download.Folder, `/\`) {
		errs = append(errs, errors.New("download folder must be a single path segment"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Download.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Archive.Concurrency <= 0 {
		errs = append(errs, errors.New("archive concurrency must be positive"))
	}
	if c.Archive.CompressionLevel < -1 || c.Archive.CompressionLevel > 9 {
		errs = append(errs, errors.New("compression level must be between -1 and 9"))
	}

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if !validBackends[strings.ToLower(c.Settings.Backend)] {
		errs = append(errs, errors.New("invalid settings backend"))
	}
	if strings.EqualFold(c.Settings.Backend, "sqlite") && c.Settings.Path == "" {
		errs = append(errs, errors.New("sqlite settings backend requires a path"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Download.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if lang, ok := flags["language"].(string); ok && lang != "" {
		c.I18n.Language = lang
	}
	if backend, ok := flags["settings-backend"].(string); ok && backend != "" {
		c.Settings.Backend = backend
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if rescan, ok := flags["rescan"].(time.Duration); ok && rescan > 0 {
		c.Scheduler.RescanInterval = rescan
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".threadsdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
