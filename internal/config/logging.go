package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is more verbose than slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// LogLevel is a parsed verbosity name.
type LogLevel struct {
	Level slog.Level
	Off   bool
}

// ParseLogLevel maps Off, Error, Warn, Info, Debug and Trace (any case) to a level.
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "off":
		return LogLevel{Off: true}, nil
	case "error":
		return LogLevel{Level: slog.LevelError}, nil
	case "warn", "warning":
		return LogLevel{Level: slog.LevelWarn}, nil
	case "info", "":
		return LogLevel{Level: slog.LevelInfo}, nil
	case "debug":
		return LogLevel{Level: slog.LevelDebug}, nil
	case "trace":
		return LogLevel{Level: LevelTrace}, nil
	default:
		return LogLevel{}, fmt.Errorf("unknown logging level %q (want Off, Error, Warn, Info, Debug or Trace)", name)
	}
}

// NewLogger creates a text logger writing to w at the named verbosity.
func NewLogger(name string, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLogLevel(name)
	if err != nil {
		return nil, err
	}
	if level.Off {
		return slog.New(slog.DiscardHandler), nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level.Level,
		ReplaceAttr: replaceTraceLevel,
	})), nil
}

func replaceTraceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	if s.Source != "" {
		logger.InfoContext(ctx, "Config: source", "value", s.Source)
	} else {
		logger.InfoContext(ctx, "Config: corpus.url", "value", s.Corpus.URL)
	}
	if s.IndexLocation != "" {
		logger.InfoContext(ctx, "Config: index_location", "value", s.IndexLocation)
	}
	logger.InfoContext(ctx, "Config: overall_memory", "value", s.OverallMemory)
	logger.InfoContext(ctx, "Config: logging", "value", s.Logging)

	mode := s.Ingest.Mode
	if mode == "" {
		mode = "default"
	}
	logger.InfoContext(ctx, "Config: ingest.mode", "value", mode)
	if s.Ingest.Mode != IngestModeSequential {
		logger.InfoContext(ctx, "Config: ingest.workers", "value", s.Ingest.Workers)
	}
	if s.Ingest.Commit != "" {
		logger.InfoContext(ctx, "Config: ingest.commit", "value", s.Ingest.Commit)
	}
}

// LogService logs the settings only the lookup service uses
func LogService(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: host", "value", s.Host)
	logger.InfoContext(ctx, "Config: port", "value", s.Port)
	logger.InfoContext(ctx, "Config: mcp", "value", s.MCP)
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("source", s.Source),
		slog.String("index_location", s.IndexLocation),
		slog.Int("overall_memory", s.OverallMemory),
		slog.String("logging", s.Logging),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Group("ingest",
			slog.String("mode", s.Ingest.Mode),
			slog.Int("workers", s.Ingest.Workers),
			slog.String("commit", s.Ingest.Commit),
		),
	)
}
