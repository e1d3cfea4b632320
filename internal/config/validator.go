package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "timer.sync_every_ticks")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validatePresence()...)
	errors = append(errors, c.validateTimer()...)
	errors = append(errors, c.validateStore()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validatePresence validates the PresenceConfig
func (c *Config) validatePresence() []ValidationError {
	var errors []ValidationError

	if c.Presence.PublishIntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "presence.publish_interval_seconds",
			Value:   c.Presence.PublishIntervalSeconds,
			Message: "must be positive",
		})
	}

	if c.Presence.LivenessWindowMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "presence.liveness_window_ms",
			Value:   c.Presence.LivenessWindowMs,
			Message: "must be positive",
		})
	}

	// The liveness window must comfortably exceed the publish interval or
	// entries flap between live and stale on a single missed beat.
	if c.Presence.PublishIntervalSeconds > 0 &&
		c.Presence.LivenessWindowMs <= c.Presence.PublishIntervalSeconds*1000 {
		errors = append(errors, ValidationError{
			Field:   "presence.liveness_window_ms",
			Value:   c.Presence.LivenessWindowMs,
			Message: fmt.Sprintf("must exceed the publish interval (%ds)", c.Presence.PublishIntervalSeconds),
		})
	}

	return errors
}

// validateTimer validates the TimerConfig
func (c *Config) validateTimer() []ValidationError {
	var errors []ValidationError

	const minTickInterval = 10 // 10ms floor keeps test configs sane
	if c.Timer.TickIntervalMs < minTickInterval {
		errors = append(errors, ValidationError{
			Field:   "timer.tick_interval_ms",
			Value:   c.Timer.TickIntervalMs,
			Message: fmt.Sprintf("must be at least %dms", minTickInterval),
		})
	}

	if c.Timer.SyncEveryTicks <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timer.sync_every_ticks",
			Value:   c.Timer.SyncEveryTicks,
			Message: "must be positive",
		})
	}

	if c.Timer.DefaultDurationSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timer.default_duration_seconds",
			Value:   c.Timer.DefaultDurationSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

// validateStore validates the StoreConfig
func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if c.Store.WriteRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "store.write_retries",
			Value:   c.Store.WriteRetries,
			Message: "must be non-negative (0 disables retries)",
		})
	}

	if c.Store.WriteBackoffMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "store.write_backoff_ms",
			Value:   c.Store.WriteBackoffMs,
			Message: "must be non-negative",
		})
	}

	if strings.ContainsRune(c.Store.DataDir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "store.data_dir",
			Value:   c.Store.DataDir,
			Message: "path contains invalid null character",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
