package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultURL is the public reference corpus of clean Windows installs.
const DefaultURL = "https://github.com/AndrewRathbun/VanillaWindowsReference"

// Fetcher acquires a local copy of the reference corpus.
type Fetcher struct {
	git    *GitClient
	url    string
	logger *slog.Logger
}

// NewFetcher creates a Fetcher cloning url with git.
func NewFetcher(git *GitClient, url string, logger *slog.Logger) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{git: git, url: url, logger: logger}
}

// URL returns the corpus repository URL.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch clones the corpus into a new temporary directory. The returned
// cleanup removes it and must be called once the corpus is no longer needed.
func (f *Fetcher) Fetch(ctx context.Context) (dir string, cleanup func(), err error) {
	tmp, err := os.MkdirTemp("", "winref-corpus-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}
	cleanup = func() {
		if err := os.RemoveAll(tmp); err != nil {
			f.logger.Error("Failed to remove corpus directory", "path", tmp, "error", err)
		}
	}

	dir = filepath.Join(tmp, RepoID(f.url))
	f.logger.Info("Cloning reference corpus", "url", f.url, "path", dir)
	if err := f.git.Clone(ctx, f.url, dir); err != nil {
		cleanup()
		return "", nil, err
	}

	if commit, err := f.git.GetHeadCommit(ctx, dir); err == nil {
		f.logger.Info("Reference corpus ready", "commit", commit)
	} else {
		f.logger.Warn("Could not resolve corpus revision", "error", err)
	}

	return dir, cleanup, nil
}
