package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("session started", "instance_count", 2)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "engine.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	line := strings.TrimSpace(string(data))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}

	if entry["msg"] != "session started" {
		t.Errorf("msg = %v, want %q", entry["msg"], "session started")
	}
	if entry["instance_count"] != float64(2) {
		t.Errorf("instance_count = %v, want 2", entry["instance_count"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("should be dropped")
	logger.Info("should be dropped too")
	logger.Warn("should appear")
	logger.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "engine.log"))
	content := string(data)

	if strings.Contains(content, "dropped") {
		t.Errorf("log contains filtered messages:\n%s", content)
	}
	if !strings.Contains(content, "should appear") {
		t.Errorf("log missing WARN message:\n%s", content)
	}
}

func TestChildLoggersCarryAttributes(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	child := logger.WithUser("u1").WithInstance("inst-1").WithComponent("timer")
	child.Info("tick")
	logger.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "engine.log"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}

	for key, want := range map[string]string{
		"user_id":     "u1",
		"instance_id": "inst-1",
		"component":   "timer",
	} {
		if entry[key] != want {
			t.Errorf("entry[%q] = %v, want %q", key, entry[key], want)
		}
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := NopLogger()
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
	logger.WithUser("u").With("k", "v").Info("e")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
