package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/sha1n/winref/internal/config"
	"github.com/sha1n/winref/internal/corpus"
	"github.com/sha1n/winref/internal/domain"
	"github.com/sha1n/winref/internal/index"
	"github.com/sha1n/winref/internal/lookup"
	mcputil "github.com/sha1n/winref/internal/mcp"
	"github.com/sha1n/winref/internal/source"
	"github.com/spf13/pflag"
)

// FetchFunc acquires a local copy of the corpus at url. The returned cleanup
// removes it.
type FetchFunc func(ctx context.Context, url string, logger *slog.Logger) (string, func(), error)

// RunParams contains dependencies for the run functions
type RunParams struct {
	LoadSettings  func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	FetchCorpus   FetchFunc
	Serve         func(context.Context, *http.Server, *slog.Logger) error
	LogOutput     io.Writer
	Output        io.Writer // export destination
}

// DefaultIndexParams returns production dependencies of the indexing tool
func DefaultIndexParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateIndexSettings,
		LogOutput:     os.Stderr,
	}
}

// DefaultServiceParams returns production dependencies of the lookup service
func DefaultServiceParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateServiceSettings,
		FetchCorpus:   FetchCorpus,
		Serve:         ServeHTTP,
		LogOutput:     os.Stderr,
	}
}

// DefaultExportParams returns production dependencies of the exporter
func DefaultExportParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateExportSettings,
		LogOutput:     os.Stderr,
		Output:        os.Stdout,
	}
}

// FetchCorpus clones the corpus with git.
func FetchCorpus(ctx context.Context, url string, logger *slog.Logger) (string, func(), error) {
	return corpus.NewFetcher(corpus.NewGitClient(), url, logger).Fetch(ctx)
}

func setup(params RunParams, flags *pflag.FlagSet) (*config.Settings, *slog.Logger, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Always log to stderr; stdout carries export output
	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger, err := config.NewLogger(settings.Logging, out)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	return settings, logger, nil
}

// RunIndex opens or creates the index, clears it and ingests the source.
func RunIndex(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, logger, err := setup(params, flags)
	if err != nil {
		return err
	}

	logger.Info("Starting winref indexer", "version", version)
	config.LogWithLogger(settings, logger)

	idx, err := index.Open(settings.IndexLocation,
		index.SchemaFromCorpus(ctx, settings.Source, source.DefaultOptions(), source.DefaultPatterns(), logger),
		logger)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer closeIndex(idx, logger)

	_, err = rebuild(ctx, idx, settings, settings.Source, index.ModeParallel, logger)
	return err
}

// RunService serves lookups over HTTP. An index that already exists is served
// as-is; otherwise it is built first, from the source or from a clone of the
// reference corpus.
func RunService(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, logger, err := setup(params, flags)
	if err != nil {
		return err
	}

	logger.Info("Starting winref service", "version", version)
	config.LogWithLogger(settings, logger)
	config.LogService(settings, logger)

	src := &sourceDir{path: settings.Source, url: settings.Corpus.URL, fetch: params.FetchCorpus, logger: logger}
	defer src.Close()

	infer := func() (*domain.Schema, error) {
		dir, err := src.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		return index.InferSchema(ctx, dir, source.DefaultOptions(), source.DefaultPatterns(), logger)
	}

	idx, err := index.Open(settings.IndexLocation, infer, logger)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer closeIndex(idx, logger)

	if idx.PreExisting() {
		count, _ := idx.DocCount()
		logger.Info("Serving existing index", "path", idx.Path(), "documents", count)
	} else {
		dir, err := src.Resolve(ctx)
		if err != nil {
			return err
		}
		if _, err := rebuild(ctx, idx, settings, dir, index.ModeSequential, logger); err != nil {
			return err
		}
		src.Close()
	}

	svc := lookup.NewService(idx, logger)

	var mcpHandler http.Handler
	if settings.MCP {
		mcpHandler = NewMCPHandler(mcputil.CreateServer(mcputil.ServerConfig{
			Name:    "winref",
			Version: version,
			Lookup:  svc,
		}))
	}

	srv := NewHTTPServer(settings, svc, idx, mcpHandler, logger)
	return params.Serve(ctx, srv, logger)
}

// RunExport writes every record of every unit under the source as one JSON
// object per line.
func RunExport(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, logger, err := setup(params, flags)
	if err != nil {
		return err
	}

	logger.Info("Starting winref export", "version", version, "source", settings.Source)

	out := params.Output
	if out == nil {
		out = os.Stdout
	}
	count, err := Export(ctx, settings.Source, out, logger)
	if err != nil {
		return err
	}

	logger.Info("Export finished", "records", count)
	return nil
}

// Export streams the flat records under root to w as JSON lines. Units that
// cannot be read are logged and skipped.
func Export(ctx context.Context, root string, w io.Writer, logger *slog.Logger) (int, error) {
	enc := json.NewEncoder(w)
	patterns := source.DefaultPatterns()
	count := 0

	for unit, err := range source.Discover(root, source.DefaultOptions()) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return count, ctxErr
		}
		if err != nil {
			logger.Warn("Skipping unit", "error", err)
			continue
		}

		list, err := source.Open(unit, patterns)
		if err != nil {
			logger.Warn("Skipping unit", "location", unit.Location, "error", err)
			continue
		}

		for rec, err := range list.Records() {
			if err != nil {
				logger.Warn("Skipping record", "location", unit.Location, "error", err)
				continue
			}
			if err := enc.Encode(rec); err != nil {
				return count, fmt.Errorf("failed to write record: %w", err)
			}
			count++
		}
	}

	return count, nil
}

// rebuild clears the index and ingests root into it.
func rebuild(ctx context.Context, idx *index.Index, settings *config.Settings, root string, defaultMode index.Mode, logger *slog.Logger) (index.Result, error) {
	opts, err := ingestOptions(settings, defaultMode, logger)
	if err != nil {
		return index.Result{}, err
	}

	w := idx.Writer(opts.MemoryBudget)
	if err := w.DeleteAll(true); err != nil {
		return index.Result{}, fmt.Errorf("failed to clear index: %w", err)
	}

	logger.Info("Indexing", "source", root, "mode", opts.Mode)
	result, err := index.Ingest(ctx, root, w, opts)
	if err != nil {
		return result, fmt.Errorf("ingestion failed: %w", err)
	}
	return result, nil
}

func ingestOptions(settings *config.Settings, defaultMode index.Mode, logger *slog.Logger) (index.IngestOptions, error) {
	mode := defaultMode
	if settings.Ingest.Mode != "" {
		m, err := index.ParseMode(settings.Ingest.Mode)
		if err != nil {
			return index.IngestOptions{}, err
		}
		mode = m
	}

	commit, err := index.ParseCommitPolicy(settings.Ingest.Commit)
	if err != nil {
		return index.IngestOptions{}, err
	}

	workers := settings.Ingest.Workers
	if workers <= 0 {
		workers = defaultWorkers()
	}

	return index.IngestOptions{
		Mode:         mode,
		Workers:      workers,
		MemoryBudget: settings.OverallMemory,
		Commit:       commit,
		Discovery:    source.DefaultOptions(),
		Patterns:     source.DefaultPatterns(),
		Logger:       logger,
	}, nil
}

func closeIndex(idx *index.Index, logger *slog.Logger) {
	if err := idx.Close(); err != nil {
		logger.Error("Failed to close index", "error", err)
	}
}

// sourceDir resolves the corpus root, cloning the reference corpus on first
// use when no local source was configured.
type sourceDir struct {
	path   string
	url    string
	fetch  FetchFunc
	logger *slog.Logger

	mu      sync.Mutex
	cleanup func()
}

// Resolve returns the corpus root.
func (s *sourceDir) Resolve(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		return s.path, nil
	}
	if s.fetch == nil {
		return "", fmt.Errorf("no source configured")
	}

	dir, cleanup, err := s.fetch(ctx, s.url, s.logger)
	if err != nil {
		return "", fmt.Errorf("failed to fetch corpus: %w", err)
	}
	s.path = dir
	s.cleanup = cleanup
	return dir, nil
}

// Close removes a fetched corpus. It is safe to call more than once.
func (s *sourceDir) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
		s.path = ""
	}
}
