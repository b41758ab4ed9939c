package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sha1n/winref/internal/corpus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Ingestion modes
const (
	IngestModeParallel   = "parallel"
	IngestModeSequential = "sequential"
)

// Commit policies
const (
	CommitOnce = "once"
	CommitUnit = "unit"
)

// DefaultOverallMemory is the default writer memory budget in bytes.
const DefaultOverallMemory = 100_000_000

// IngestSettings configuration for the ingestion pipeline
type IngestSettings struct {
	Mode    string `mapstructure:"mode"` // empty means the tool default
	Workers int    `mapstructure:"workers"`
	Commit  string `mapstructure:"commit"` // empty means the mode default
}

// CorpusSettings configuration for acquiring the reference corpus
type CorpusSettings struct {
	URL string `mapstructure:"url"`
}

// Settings application settings
type Settings struct {
	Source        string         `mapstructure:"source"`
	IndexLocation string         `mapstructure:"index_location"`
	OverallMemory int            `mapstructure:"overall_memory"`
	Logging       string         `mapstructure:"logging"`
	Host          string         `mapstructure:"host"`
	Port          int            `mapstructure:"port"`
	MCP           bool           `mapstructure:"mcp"`
	Ingest        IngestSettings `mapstructure:"ingest"`
	Corpus        CorpusSettings `mapstructure:"corpus"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("overall_memory", DefaultOverallMemory)
	v.SetDefault("logging", "Info")
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8000)
	v.SetDefault("mcp", true)
	v.SetDefault("ingest.workers", runtime.NumCPU())
	v.SetDefault("corpus.url", corpus.DefaultURL)

	v.SetEnvPrefix("WINREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about
	_ = v.BindEnv("source", "WINREF_SOURCE")
	_ = v.BindEnv("index_location", "WINREF_INDEX_LOCATION")
	_ = v.BindEnv("ingest.mode", "WINREF_INGEST_MODE")
	_ = v.BindEnv("ingest.workers", "WINREF_INGEST_WORKERS")
	_ = v.BindEnv("ingest.commit", "WINREF_INGEST_COMMIT")
	_ = v.BindEnv("corpus.url", "WINREF_CORPUS_URL")

	if flags != nil {
		bindFlag(v, flags, "source", "source")
		bindFlag(v, flags, "index_location", "index-location")
		bindFlag(v, flags, "overall_memory", "overall-memory")
		bindFlag(v, flags, "logging", "logging")
		bindFlag(v, flags, "host", "host")
		bindFlag(v, flags, "port", "port")
		bindFlag(v, flags, "mcp", "mcp")
		bindFlag(v, flags, "ingest.mode", "mode")
		bindFlag(v, flags, "ingest.workers", "workers")
		bindFlag(v, flags, "ingest.commit", "commit")
		bindFlag(v, flags, "corpus.url", "corpus-url")
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Source = expandHomeDir(strings.TrimSpace(settings.Source))
	settings.IndexLocation = expandHomeDir(strings.TrimSpace(settings.IndexLocation))
	settings.Ingest.Mode = strings.ToLower(strings.TrimSpace(settings.Ingest.Mode))
	settings.Ingest.Commit = strings.ToLower(strings.TrimSpace(settings.Ingest.Commit))

	return &settings, nil
}

// bindFlag binds a flag only when the tool registered it, so that flag
// defaults of other tools never shadow env vars and .env values.
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	if f := flags.Lookup(name); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ValidateIndexSettings checks the settings of the indexing tool.
func ValidateIndexSettings(s *Settings) error {
	if s.Source == "" {
		return errors.New("source is required")
	}
	if s.IndexLocation == "" {
		return errors.New("index-location is required")
	}
	return validateCommon(s)
}

// ValidateServiceSettings checks the settings of the lookup service. A source
// is optional: without one the reference corpus is cloned from corpus-url.
func ValidateServiceSettings(s *Settings) error {
	if s.IndexLocation == "" {
		return errors.New("index-location is required")
	}
	if s.Host == "" {
		return errors.New("host cannot be empty")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", s.Port)
	}
	if s.Source == "" && strings.TrimSpace(s.Corpus.URL) == "" {
		return errors.New("either source or corpus-url is required")
	}
	return validateCommon(s)
}

// ValidateExportSettings checks the settings of the JSON-lines exporter.
func ValidateExportSettings(s *Settings) error {
	if s.Source == "" {
		return errors.New("source is required")
	}
	if _, err := ParseLogLevel(s.Logging); err != nil {
		return err
	}
	return nil
}

func validateCommon(s *Settings) error {
	if s.OverallMemory <= 0 {
		return errors.New("overall-memory must be positive")
	}
	if _, err := ParseLogLevel(s.Logging); err != nil {
		return err
	}

	switch s.Ingest.Mode {
	case "", IngestModeParallel, IngestModeSequential:
		// valid
	default:
		return errors.New("mode must be 'parallel' or 'sequential', got: " + s.Ingest.Mode)
	}

	if s.Ingest.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	switch s.Ingest.Commit {
	case "", CommitOnce, CommitUnit:
		// valid
	default:
		return errors.New("commit must be 'once' or 'unit', got: " + s.Ingest.Commit)
	}

	return nil
}
