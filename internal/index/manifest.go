package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sha1n/winref/internal/domain"
)

const (
	// ManifestVersion is the current manifest format version
	ManifestVersion = 1

	// ManifestFilename is the manifest filename inside an index directory.
	// Its presence marks the directory as a pre-existing index.
	ManifestFilename = "manifest.json"
)

// Manifest records the schema of an index and the last ingestion run.
type Manifest struct {
	Version    int            `json:"version"`
	Fields     []domain.Field `json:"fields"`
	CreatedAt  time.Time      `json:"created_at"`
	LastIngest *IngestRecord  `json:"last_ingest,omitempty"`
	mu         sync.RWMutex   `json:"-"`
}

// IngestRecord summarizes one ingestion run.
type IngestRecord struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Mode        string    `json:"mode"`
	Units       int       `json:"units"`
	Skipped     int       `json:"skipped"`
	Documents   int       `json:"documents"`
	CommittedAt time.Time `json:"committed_at"`
}

// NewManifest creates a manifest for a freshly inferred schema.
func NewManifest(schema *domain.Schema) *Manifest {
	return &Manifest{
		Version:   ManifestVersion,
		Fields:    schema.Fields(),
		CreatedAt: time.Now().UTC(),
	}
}

// LoadManifest reads a manifest from disk. The returned bool is false when no
// manifest exists at path.
func LoadManifest(path string) (*Manifest, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, false, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Version != ManifestVersion {
		return nil, false, fmt.Errorf("unsupported manifest version %d", manifest.Version)
	}

	return &manifest, true, nil
}

// Schema rebuilds the schema recorded in the manifest.
func (m *Manifest) Schema() (*domain.Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.NewSchema(m.Fields)
}

// SetLastIngest records a completed ingestion run.
func (m *Manifest) SetLastIngest(rec IngestRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastIngest = &rec
}

// GetLastIngest returns the last recorded ingestion run, if any.
func (m *Manifest) GetLastIngest() (IngestRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LastIngest == nil {
		return IngestRecord{}, false
	}
	return *m.LastIngest, true
}

// Save writes the manifest to disk atomically.
// Uses write-to-temp + rename so a crash never leaves a partial manifest.
func (m *Manifest) Save(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}

	return nil
}
