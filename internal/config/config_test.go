package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Default() config has validation errors: %v", ValidationErrors(errs))
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Presence.PublishIntervalSeconds != 10 {
		t.Errorf("Presence.PublishIntervalSeconds = %d, want 10", cfg.Presence.PublishIntervalSeconds)
	}
	if cfg.Presence.LivenessWindowMs != 45000 {
		t.Errorf("Presence.LivenessWindowMs = %d, want 45000", cfg.Presence.LivenessWindowMs)
	}
	if cfg.Timer.TickIntervalMs != 1000 {
		t.Errorf("Timer.TickIntervalMs = %d, want 1000", cfg.Timer.TickIntervalMs)
	}
	if cfg.Timer.SyncEveryTicks != 10 {
		t.Errorf("Timer.SyncEveryTicks = %d, want 10", cfg.Timer.SyncEveryTicks)
	}
	if cfg.Timer.DefaultDurationSeconds != 1200 {
		t.Errorf("Timer.DefaultDurationSeconds = %d, want 1200", cfg.Timer.DefaultDurationSeconds)
	}
	if cfg.Store.WriteRetries != 3 {
		t.Errorf("Store.WriteRetries = %d, want 3", cfg.Store.WriteRetries)
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v, want enabled at info", cfg.Logging)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()

	if got := cfg.Presence.PublishInterval(); got != 10*time.Second {
		t.Errorf("PublishInterval() = %v, want 10s", got)
	}
	if got := cfg.Presence.LivenessWindow(); got != 45*time.Second {
		t.Errorf("LivenessWindow() = %v, want 45s", got)
	}
	if got := cfg.Timer.TickInterval(); got != time.Second {
		t.Errorf("TickInterval() = %v, want 1s", got)
	}
	if got := cfg.Store.WriteBackoff(); got != 250*time.Millisecond {
		t.Errorf("WriteBackoff() = %v, want 250ms", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "zero publish interval",
			mutate: func(c *Config) { c.Presence.PublishIntervalSeconds = 0 },
			field:  "presence.publish_interval_seconds",
		},
		{
			name:   "negative liveness window",
			mutate: func(c *Config) { c.Presence.LivenessWindowMs = -1 },
			field:  "presence.liveness_window_ms",
		},
		{
			name:   "liveness window not exceeding publish interval",
			mutate: func(c *Config) { c.Presence.LivenessWindowMs = 10000 },
			field:  "presence.liveness_window_ms",
		},
		{
			name:   "tick interval below floor",
			mutate: func(c *Config) { c.Timer.TickIntervalMs = 5 },
			field:  "timer.tick_interval_ms",
		},
		{
			name:   "zero sync cadence",
			mutate: func(c *Config) { c.Timer.SyncEveryTicks = 0 },
			field:  "timer.sync_every_ticks",
		},
		{
			name:   "zero default duration",
			mutate: func(c *Config) { c.Timer.DefaultDurationSeconds = 0 },
			field:  "timer.default_duration_seconds",
		},
		{
			name:   "negative write retries",
			mutate: func(c *Config) { c.Store.WriteRetries = -1 },
			field:  "store.write_retries",
		},
		{
			name:   "negative write backoff",
			mutate: func(c *Config) { c.Store.WriteBackoffMs = -5 },
			field:  "store.write_backoff_ms",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			field:  "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("Validate() returned no errors, want at least one")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, errs)
			}
		})
	}
}

func TestValidationErrorsFormatting(t *testing.T) {
	single := ValidationErrors{{Field: "timer.sync_every_ticks", Value: 0, Message: "must be positive"}}
	if got := single.Error(); got != "timer.sync_every_ticks: must be positive (got: 0)" {
		t.Errorf("single error = %q", got)
	}

	multi := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "worse"},
	}
	got := multi.Error()
	if !strings.HasPrefix(got, "2 validation errors:") {
		t.Errorf("multi error missing count prefix: %q", got)
	}
	if !strings.Contains(got, "1. a: bad (got: 1)") || !strings.Contains(got, "2. b: worse (got: 2)") {
		t.Errorf("multi error missing numbered entries: %q", got)
	}
}

func TestEmptyLogLevelIsAllowed(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = ""
	for _, e := range cfg.Validate() {
		if e.Field == "logging.level" {
			t.Errorf("empty level rejected: %v", e)
		}
	}
}
