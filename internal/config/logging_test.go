package config

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		off   bool
	}{
		{"Off", 0, true},
		{"Error", slog.LevelError, false},
		{"warn", slog.LevelWarn, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"Debug", slog.LevelDebug, false},
		{"Trace", LevelTrace, false},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.name)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) returned error: %v", tt.name, err)
			continue
		}
		if got.Off != tt.off {
			t.Errorf("ParseLogLevel(%q).Off = %v, want %v", tt.name, got.Off, tt.off)
		}
		if !tt.off && got.Level != tt.level {
			t.Errorf("ParseLogLevel(%q).Level = %v, want %v", tt.name, got.Level, tt.level)
		}
	}

	if _, err := ParseLogLevel("chatty"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNewLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("Warn", &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("Expected info message to be filtered")
	}
	if !strings.Contains(output, "shown") {
		t.Error("Expected warn message in output")
	}
}

func TestNewLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("Trace", &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Log(context.Background(), LevelTrace, "deep")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("Expected TRACE level label, got: %s", buf.String())
	}
}

func TestNewLogger_Off(t *testing.T) {
	logger, err := NewLogger("Off", nil)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Expected Off logger to be disabled")
	}
}

func TestLog(t *testing.T) {
	// Just verify it doesn't panic
	Log(validSettings())
}

func TestLogWithLogger_Source(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWithLogger(validSettings(), logger)

	output := buf.String()
	if !strings.Contains(output, "Config: source") {
		t.Error("Expected 'source' in log output")
	}
	if strings.Contains(output, "corpus.url") {
		t.Error("Expected no corpus URL when a source is set")
	}
	if !strings.Contains(output, "ingest.workers") {
		t.Error("Expected workers for the default mode")
	}
}

func TestLogWithLogger_CorpusAndSequential(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := validSettings()
	s.Source = ""
	s.Ingest.Mode = IngestModeSequential
	LogWithLogger(s, logger)

	output := buf.String()
	if !strings.Contains(output, "corpus.url") {
		t.Error("Expected corpus URL in log output")
	}
	if strings.Contains(output, "ingest.workers") {
		t.Error("Expected no workers in sequential mode")
	}
}

func TestLogService(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogService(validSettings(), logger)

	output := buf.String()
	for _, key := range []string{"Config: host", "Config: port", "Config: mcp"} {
		if !strings.Contains(output, key) {
			t.Errorf("Expected %q in log output", key)
		}
	}
}

func TestSettingsLogValue(t *testing.T) {
	v := SettingsLogValue(*validSettings())
	if v.Kind() != slog.KindGroup {
		t.Fatalf("Expected group value, got %v", v.Kind())
	}

	found := false
	for _, attr := range v.Group() {
		if attr.Key == "index_location" && attr.Value.String() == "/data/index" {
			found = true
		}
	}
	if !found {
		t.Error("Expected index_location attribute")
	}
}
