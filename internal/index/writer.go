package index

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/sha1n/winref/internal/domain"
)

// DefaultMemoryBudget is the default number of buffered bytes before pending
// documents are flushed to the store.
const DefaultMemoryBudget = 100_000_000

// Writer is the single write handle of an Index. All calls are serialized.
//
// Added documents are buffered and flushed to the store once the buffered
// bytes reach the memory budget. A flushed document is durable and visible to
// searches even before the next Commit, so with CommitOnce a long run becomes
// visible in budget-sized steps. Commit flushes what is left and persists the
// manifest's ingest record; only a committed manifest marks a completed run.
type Writer struct {
	idx    *Index
	budget int

	mu      sync.Mutex
	batch   *bleve.Batch
	pending int
	bytes   int
}

func newWriter(idx *Index, budget int) *Writer {
	if budget <= 0 {
		budget = DefaultMemoryBudget
	}
	return &Writer{
		idx:    idx,
		budget: budget,
	}
}

// Schema returns the schema documents must conform to.
func (w *Writer) Schema() *domain.Schema {
	return w.idx.schema
}

// Add buffers documents for indexing.
func (w *Writer) Add(docs ...domain.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, doc := range docs {
		if w.batch == nil {
			w.idx.mu.RLock()
			w.batch = w.idx.store.NewBatch()
			w.idx.mu.RUnlock()
		}
		if err := w.batch.Index(doc.ID, doc.Fields); err != nil {
			return domain.StorageError("batch", fmt.Errorf("document %s: %w", doc.ID, err))
		}
		w.pending++
		w.bytes += doc.Size()

		if w.bytes >= w.budget {
			if err := w.flushLocked(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes documents by ID, whether still buffered or already flushed.
func (w *Writer) Delete(ids ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range ids {
		if w.batch == nil {
			w.idx.mu.RLock()
			w.batch = w.idx.store.NewBatch()
			w.idx.mu.RUnlock()
		}
		w.batch.Delete(id)
		w.pending++
	}
	return nil
}

// Pending returns the number of buffered documents.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Commit writes buffered documents to the store and saves the manifest.
func (w *Writer) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commitLocked()
}

// DeleteAll discards buffered documents and replaces the store with an empty
// one. With commit set the manifest is saved as well.
func (w *Writer) DeleteAll(commit bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = nil
	w.pending = 0
	w.bytes = 0

	if err := w.idx.resetStore(); err != nil {
		return err
	}
	if commit {
		return w.commitLocked()
	}
	return nil
}

func (w *Writer) commitLocked() error {
	if err := w.flushLocked(); err != nil {
		return err
	}
	if err := w.idx.manifest.Save(w.idx.manifestPath()); err != nil {
		return domain.StorageError("commit", err)
	}
	return nil
}

func (w *Writer) flushLocked() error {
	if w.batch == nil || w.pending == 0 {
		return nil
	}

	w.idx.mu.RLock()
	err := w.idx.store.Batch(w.batch)
	w.idx.mu.RUnlock()
	if err != nil {
		return domain.StorageError("flush", err)
	}

	w.batch = nil
	w.pending = 0
	w.bytes = 0
	return nil
}
