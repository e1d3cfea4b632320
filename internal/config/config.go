package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete engine configuration
type Config struct {
	Presence PresenceConfig `mapstructure:"presence"`
	Timer    TimerConfig    `mapstructure:"timer"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PresenceConfig controls the heartbeat publisher and liveness reads
type PresenceConfig struct {
	// PublishIntervalSeconds is the heartbeat cadence while a task detail
	// view is open (default: 10)
	PublishIntervalSeconds int `mapstructure:"publish_interval_seconds"`
	// LivenessWindowMs is how long after its last heartbeat a presence
	// entry still counts as live. The default of 45000 is 4.5x the
	// publish interval, tolerant of a missed beat or two (default: 45000)
	LivenessWindowMs int `mapstructure:"liveness_window_ms"`
}

// TimerConfig controls the global tick engine
type TimerConfig struct {
	// TickIntervalMs is the engine tick period; timers count in whole
	// seconds so this is 1000 outside of tests (default: 1000)
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
	// SyncEveryTicks is how many ticks pass between durable syncs of
	// running timers. At the default cadence this bounds write volume to
	// one write per running task per 10 seconds (default: 10)
	SyncEveryTicks int `mapstructure:"sync_every_ticks"`
	// DefaultDurationSeconds is the reset target used when a task never
	// had a duration set (default: 1200)
	DefaultDurationSeconds int `mapstructure:"default_duration_seconds"`
}

// StoreConfig controls the persistence layer and the write dispatcher
type StoreConfig struct {
	// DataDir is where user and instance documents live.
	// Empty means <config dir>/data. Supports ~ expansion.
	DataDir string `mapstructure:"data_dir"`
	// WriteRetries is how many times a failed durable write is retried
	// before a write_failed event is surfaced (default: 3)
	WriteRetries int `mapstructure:"write_retries"`
	// WriteBackoffMs is the initial retry backoff; it doubles per attempt
	// (default: 250)
	WriteBackoffMs int `mapstructure:"write_backoff_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Presence: PresenceConfig{
			PublishIntervalSeconds: 10,
			LivenessWindowMs:       45000,
		},
		Timer: TimerConfig{
			TickIntervalMs:         1000,
			SyncEveryTicks:         10,
			DefaultDurationSeconds: 1200,
		},
		Store: StoreConfig{
			DataDir:        "", // Empty means use default: <config dir>/data
			WriteRetries:   3,
			WriteBackoffMs: 250,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// PublishInterval returns the heartbeat cadence as a time.Duration
func (c *PresenceConfig) PublishInterval() time.Duration {
	return time.Duration(c.PublishIntervalSeconds) * time.Second
}

// LivenessWindow returns the liveness window as a time.Duration
func (c *PresenceConfig) LivenessWindow() time.Duration {
	return time.Duration(c.LivenessWindowMs) * time.Millisecond
}

// TickInterval returns the engine tick period as a time.Duration
func (c *TimerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// WriteBackoff returns the initial write retry backoff as a time.Duration
func (c *StoreConfig) WriteBackoff() time.Duration {
	return time.Duration(c.WriteBackoffMs) * time.Millisecond
}

// ResolveDataDir returns the resolved data directory path.
// If DataDir is empty, it defaults to <config dir>/data.
// If DataDir starts with ~, it expands to the user's home directory.
func (c *StoreConfig) ResolveDataDir() string {
	if c.DataDir == "" {
		return filepath.Join(ConfigDir(), "data")
	}

	path := c.DataDir
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("presence.publish_interval_seconds", defaults.Presence.PublishIntervalSeconds)
	viper.SetDefault("presence.liveness_window_ms", defaults.Presence.LivenessWindowMs)

	viper.SetDefault("timer.tick_interval_ms", defaults.Timer.TickIntervalMs)
	viper.SetDefault("timer.sync_every_ticks", defaults.Timer.SyncEveryTicks)
	viper.SetDefault("timer.default_duration_seconds", defaults.Timer.DefaultDurationSeconds)

	viper.SetDefault("store.data_dir", defaults.Store.DataDir)
	viper.SetDefault("store.write_retries", defaults.Store.WriteRetries)
	viper.SetDefault("store.write_backoff_ms", defaults.Store.WriteBackoffMs)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskchecker")
	}
	// Fall back to ~/.config/taskchecker
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskchecker"
	}
	return filepath.Join(home, ".config", "taskchecker")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
