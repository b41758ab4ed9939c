package index

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/sha1n/winref/internal/domain"
)

const storeDirname = "store"

// SchemaFunc produces the schema of a new index. It is only called when the
// index directory holds no manifest.
type SchemaFunc func() (*domain.Schema, error)

// Index is a persisted exact-match index rooted at a directory holding the
// manifest, the bleve store and the write lock.
type Index struct {
	path        string
	schema      *domain.Schema
	manifest    *Manifest
	preExisting bool
	lock        *FileLock
	logger      *slog.Logger

	mu     sync.RWMutex
	store  bleve.Index
	once   sync.Once
	writer *Writer
}

// Open acquires the write lock of the index at path and opens it. An index
// with a manifest is opened as-is and infer is not called; otherwise infer
// provides the schema and a new index is created. A schema failure is fatal
// and leaves nothing behind.
func Open(path string, infer SchemaFunc, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}

	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	lock := NewFileLock(filepath.Join(path, lockFilename))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock index: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexLocked, path)
	}

	idx := &Index{
		path:   path,
		lock:   lock,
		logger: logger,
	}

	manifest, exists, err := LoadManifest(idx.manifestPath())
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	if exists {
		if err := idx.openExisting(manifest); err != nil {
			_ = lock.Unlock()
			return nil, err
		}
		return idx, nil
	}

	if err := idx.create(infer); err != nil {
		_ = lock.Unlock()
		if created {
			_ = os.RemoveAll(path)
		} else {
			_ = os.Remove(lock.Path())
		}
		return nil, err
	}
	return idx, nil
}

func (i *Index) openExisting(manifest *Manifest) error {
	schema, err := manifest.Schema()
	if err != nil {
		return fmt.Errorf("invalid manifest schema: %w", err)
	}
	i.schema = schema
	i.manifest = manifest
	i.preExisting = true

	store, err := bleve.Open(i.storePath())
	if err != nil {
		if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			return domain.StorageError("open", err)
		}
		// A store removed by an interrupted delete-all is rebuilt empty
		i.logger.Warn("Index store missing, recreating", "path", i.storePath())
		store, err = i.newStore()
		if err != nil {
			return err
		}
	}
	i.store = store

	i.logger.Info("Opened existing index", "path", i.path, "fields", len(schema.Fields()))
	return nil
}

func (i *Index) create(infer SchemaFunc) error {
	if infer == nil {
		return fmt.Errorf("no schema source for new index at %s", i.path)
	}
	schema, err := infer()
	if err != nil {
		return err
	}
	i.schema = schema
	i.manifest = NewManifest(schema)

	store, err := i.newStore()
	if err != nil {
		return err
	}
	i.store = store

	if err := i.manifest.Save(i.manifestPath()); err != nil {
		_ = store.Close()
		_ = os.RemoveAll(i.storePath())
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	i.logger.Info("Created index", "path", i.path, "fields", schema.Names())
	return nil
}

func (i *Index) newStore() (bleve.Index, error) {
	indexMapping, err := BuildMapping(i.schema)
	if err != nil {
		return nil, err
	}
	store, err := bleve.New(i.storePath(), indexMapping)
	if err != nil {
		return nil, domain.StorageError("create", err)
	}
	return store, nil
}

// resetStore replaces the store with an empty one built from the schema.
func (i *Index) resetStore() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.store != nil {
		if err := i.store.Close(); err != nil {
			return domain.StorageError("close", err)
		}
		i.store = nil
	}
	if err := os.RemoveAll(i.storePath()); err != nil {
		return domain.StorageError("delete", err)
	}

	store, err := i.newStore()
	if err != nil {
		return err
	}
	i.store = store
	return nil
}

// Writer returns the single writer of this index. The memory budget of the
// first call applies.
func (i *Index) Writer(memoryBudget int) *Writer {
	i.once.Do(func() {
		i.writer = newWriter(i, memoryBudget)
	})
	return i.writer
}

// Path returns the index directory.
func (i *Index) Path() string {
	return i.path
}

// Schema returns the schema fixed at creation.
func (i *Index) Schema() *domain.Schema {
	return i.schema
}

// Manifest returns the index manifest.
func (i *Index) Manifest() *Manifest {
	return i.manifest
}

// PreExisting reports whether the index was opened from an existing manifest.
func (i *Index) PreExisting() bool {
	return i.preExisting
}

// DocCount returns the number of documents visible to searches.
func (i *Index) DocCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count, err := i.store.DocCount()
	if err != nil {
		return 0, domain.StorageError("count", err)
	}
	return count, nil
}

// Close closes the store and releases the write lock.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	var errs []error
	if i.store != nil {
		if err := i.store.Close(); err != nil {
			errs = append(errs, domain.StorageError("close", err))
		}
		i.store = nil
	}
	if err := i.lock.Unlock(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (i *Index) manifestPath() string {
	return filepath.Join(i.path, ManifestFilename)
}

func (i *Index) storePath() string {
	return filepath.Join(i.path, storeDirname)
}
