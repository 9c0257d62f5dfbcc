package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/hap-engine/internal/infrastructure/config"
)

func TestNew_JSONFormat(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	logger := New(cfg, "1.0.0")

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_TextFormat(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stderr",
	}

	logger := New(cfg, "1.0.0")

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{
			name:     "debug level",
			input:    "debug",
			expected: slog.LevelDebug,
		},
		{
			name:     "info level",
			input:    "info",
			expected: slog.LevelInfo,
		},
		{
			name:     "notice level",
			input:    "notice",
			expected: LevelNotice,
		},
		{
			name:     "warn level",
			input:    "warn",
			expected: slog.LevelWarn,
		},
		{
			name:     "warning level",
			input:    "warning",
			expected: slog.LevelWarn,
		},
		{
			name:     "error level",
			input:    "error",
			expected: slog.LevelError,
		},
		{
			name:     "fatal level",
			input:    "fatal",
			expected: LevelFatal,
		},
		{
			name:     "unknown defaults to info",
			input:    "unknown",
			expected: slog.LevelInfo,
		},
		{
			name:     "empty defaults to info",
			input:    "",
			expected: slog.LevelInfo,
		},
		{
			name:     "case insensitive",
			input:    "DEBUG",
			expected: slog.LevelDebug,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	if !(slog.LevelInfo < LevelNotice && LevelNotice < slog.LevelWarn) {
		t.Error("notice must sit between info and warn")
	}
	if LevelFatal <= slog.LevelError {
		t.Error("fatal must sit above error")
	}
}

func TestLogger_With(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, "1.0.0")
	childLogger := logger.With("module", "video")

	if childLogger == nil {
		t.Fatal("expected non-nil child logger")
	}

	if childLogger == logger {
		t.Error("expected child logger to be different from parent")
	}
}

func TestDefault(t *testing.T) {
	logger := Default()

	if logger == nil {
		t.Fatal("expected non-nil default logger")
	}
}

func TestLogger_OutputContainsDefaultFields(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "test")
	logger.Info("test message", "key", "value")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if logEntry["service"] != "hap" {
		t.Errorf("expected service='hap', got %v", logEntry["service"])
	}

	if logEntry["version"] != "test" {
		t.Errorf("expected version='test', got %v", logEntry["version"])
	}

	if logEntry["msg"] != "test message" {
		t.Errorf("expected msg='test message', got %v", logEntry["msg"])
	}

	if logEntry["key"] != "value" {
		t.Errorf("expected key='value', got %v", logEntry["key"])
	}
}

func TestLogger_NoticeLevelName(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWriter(&buf, config.LoggingConfig{Level: "notice", Format: "text"}, "test")
	logger.Info("filtered out")
	logger.Notice("kept")

	output := buf.String()
	if strings.Contains(output, "filtered out") {
		t.Error("info message should be filtered at notice level")
	}
	if !strings.Contains(output, "level=NOTICE") {
		t.Errorf("expected level=NOTICE in output, got %q", output)
	}
}

func TestLogger_Fatal(t *testing.T) {
	var buf bytes.Buffer
	var exitCode int

	original := exit
	exit = func(code int) { exitCode = code }
	t.Cleanup(func() { exit = original })

	logger := NewWriter(&buf, config.LoggingConfig{Level: "error", Format: "text"}, "test")
	logger.Fatal(42, "engine cannot continue", "reason", "test")

	if exitCode != 42 {
		t.Errorf("exit code = %d, want 42", exitCode)
	}
	if !strings.Contains(buf.String(), "level=FATAL") {
		t.Errorf("expected level=FATAL in output, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nowhere")
	logger.Notice("nowhere")
}
