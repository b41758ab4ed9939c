package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sha1n/winref/internal/domain"
	"github.com/sha1n/winref/internal/source"
	"golang.org/x/sync/errgroup"
)

// Mode selects how units are processed.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// CommitPolicy selects when the manifest is committed. Documents reach the
// store whenever the writer's memory budget fills, independent of the policy.
type CommitPolicy string

const (
	// CommitDefault uses the mode default: per unit when sequential, once when parallel.
	CommitDefault CommitPolicy = ""
	CommitPerUnit CommitPolicy = "unit"
	CommitOnce    CommitPolicy = "once"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSequential, ModeParallel:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid ingest mode %q: must be %s or %s", s, ModeSequential, ModeParallel)
	}
}

// ParseCommitPolicy parses a commit policy name. The empty string selects the
// mode default.
func ParseCommitPolicy(s string) (CommitPolicy, error) {
	switch CommitPolicy(s) {
	case CommitDefault, CommitPerUnit, CommitOnce:
		return CommitPolicy(s), nil
	default:
		return "", fmt.Errorf("invalid commit policy %q: must be %s or %s", s, CommitPerUnit, CommitOnce)
	}
}

// IngestOptions configures Ingest.
type IngestOptions struct {
	Mode         Mode
	Workers      int
	MemoryBudget int
	Commit       CommitPolicy
	Discovery    source.Options
	Patterns     source.Patterns
	Logger       *slog.Logger
}

func (o IngestOptions) commitPolicy() CommitPolicy {
	if o.Commit != CommitDefault {
		return o.Commit
	}
	if o.Mode == ModeParallel {
		return CommitOnce
	}
	return CommitPerUnit
}

// Result summarizes an ingestion run.
type Result struct {
	RunID     string
	Units     int
	Skipped   int
	Documents int
	Duration  time.Duration
}

// chunk carries documents of one unit from a worker to the owning goroutine.
// The final chunk of a unit has done set.
type chunk struct {
	seq      int
	location string
	docs     []domain.Document
	done     bool
	failed   error
}

// Ingest reads every unit under root and writes its records to w.
// Units that fail are logged and skipped; store failures abort the run.
// Only the calling goroutine adds to and commits w.
func Ingest(ctx context.Context, root string, w *Writer, opts IngestOptions) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeParallel
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MemoryBudget <= 0 {
		opts.MemoryBudget = DefaultMemoryBudget
	}

	start := time.Now()
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	units, skipped := discover(root, opts.Discovery, logger)

	o := &owner{
		w:       w,
		policy:  opts.commitPolicy(),
		total:   len(units),
		logger:  logger,
		skipped: skipped,
	}

	var err error
	switch opts.Mode {
	case ModeSequential:
		err = ingestSequential(ctx, root, units, o, opts)
	case ModeParallel:
		err = ingestParallel(ctx, root, units, o, opts)
	default:
		err = fmt.Errorf("invalid ingest mode %q", opts.Mode)
	}

	result := Result{
		RunID:     runID,
		Units:     o.units,
		Skipped:   o.skipped,
		Documents: o.documents,
	}
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	w.idx.manifest.SetLastIngest(IngestRecord{
		RunID:       runID,
		Source:      root,
		Mode:        string(opts.Mode),
		Units:       result.Units,
		Skipped:     result.Skipped,
		Documents:   result.Documents,
		CommittedAt: time.Now().UTC(),
	})
	if err := w.Commit(); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	result.Duration = time.Since(start)
	logger.Info("Ingestion finished",
		"units", result.Units,
		"skipped", result.Skipped,
		"documents", result.Documents,
		"duration", result.Duration)
	return result, nil
}

func discover(root string, opts source.Options, logger *slog.Logger) ([]source.Unit, int) {
	var units []source.Unit
	skipped := 0
	for unit, err := range source.Discover(root, opts) {
		if err != nil {
			logger.Error("Skipping unit", "error", err)
			skipped++
			continue
		}
		units = append(units, unit)
	}
	return units, skipped
}

// owner is the single consumer of document chunks. It alone touches the
// writer during a run.
type owner struct {
	w      *Writer
	policy CommitPolicy
	total  int
	logger *slog.Logger

	units     int
	skipped   int
	documents int

	// IDs added for units still in progress
	added map[string][]string
}

func (o *owner) accept(c chunk) error {
	if c.failed != nil {
		return o.discard(c)
	}

	if len(c.docs) > 0 {
		if err := o.w.Add(c.docs...); err != nil {
			return err
		}
		o.documents += len(c.docs)
		if !c.done {
			if o.added == nil {
				o.added = make(map[string][]string)
			}
			for _, doc := range c.docs {
				o.added[c.location] = append(o.added[c.location], doc.ID)
			}
		}
	}
	if !c.done {
		return nil
	}
	delete(o.added, c.location)

	o.units++
	if o.policy == CommitPerUnit {
		if err := o.w.Commit(); err != nil {
			return err
		}
	}
	o.logger.Info(fmt.Sprintf("[finished %d/%d] Indexing path: %s", c.seq, o.total, c.location))
	return nil
}

// discard skips a failed unit. Documents it already contributed are deleted,
// so a skipped unit leaves nothing in the index.
func (o *owner) discard(c chunk) error {
	ids := o.added[c.location]
	delete(o.added, c.location)
	if len(ids) > 0 {
		if err := o.w.Delete(ids...); err != nil {
			return err
		}
		o.documents -= len(ids)
	}

	o.skipped++
	o.logger.Error("Skipping unit", "location", c.location, "discarded", len(ids)+len(c.docs), "error", c.failed)
	return nil
}

func ingestSequential(ctx context.Context, root string, units []source.Unit, o *owner, opts IngestOptions) error {
	schema := o.w.Schema()
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		seq := i + 1
		o.logger.Info(fmt.Sprintf("[starting %d/%d] Indexing path: %s", seq, o.total, unit.Location))

		err := convertUnit(ctx, root, unit, schema, opts.Patterns, opts.MemoryBudget, o.logger, func(c chunk) error {
			c.seq = seq
			return o.accept(c)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func ingestParallel(ctx context.Context, root string, units []source.Unit, o *owner, opts IngestOptions) error {
	schema := o.w.Schema()
	chunkBytes := max(opts.MemoryBudget/opts.Workers, 1)

	type job struct {
		seq  int
		unit source.Unit
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	chunks := make(chan chunk, opts.Workers)

	g.Go(func() error {
		defer close(jobs)
		for i, unit := range units {
			select {
			case jobs <- job{seq: i + 1, unit: unit}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers, wctx := errgroup.WithContext(gctx)
	for range opts.Workers {
		workers.Go(func() error {
			for j := range jobs {
				o.logger.Info(fmt.Sprintf("[starting %d/%d] Indexing path: %s", j.seq, o.total, j.unit.Location))
				err := convertUnit(wctx, root, j.unit, schema, opts.Patterns, chunkBytes, o.logger, func(c chunk) error {
					c.seq = j.seq
					select {
					case chunks <- c:
						return nil
					case <-wctx.Done():
						return wctx.Err()
					}
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(chunks)
		return workers.Wait()
	})

	// The owner runs in the group so a store failure cancels the workers
	g.Go(func() error {
		for c := range chunks {
			if err := o.accept(c); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// convertUnit turns the records of unit into documents and hands them to emit
// in chunks of at most chunkBytes. The last emitted chunk has done set; a
// unit that cannot be opened produces a single done chunk carrying the error.
func convertUnit(ctx context.Context, root string, unit source.Unit, schema *domain.Schema, patterns source.Patterns, chunkBytes int, logger *slog.Logger, emit func(chunk) error) error {
	location := unitLocation(root, unit)

	list, err := source.Open(unit, patterns)
	if err != nil {
		return emit(chunk{location: unit.Location, done: true, failed: err})
	}

	var docs []domain.Document
	size := 0
	ordinal := 0
	for rec, err := range list.Records() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		ordinal++
		if err != nil {
			var ue *domain.UnitError
			if errors.As(err, &ue) {
				return emit(chunk{location: unit.Location, docs: docs, done: true, failed: err})
			}
			logger.Warn("Skipping record", "location", unit.Location, "row", ordinal, "error", err)
			continue
		}

		doc, err := domain.NewDocument(schema, DocumentID(location, ordinal), Normalize(rec, schema))
		if err != nil {
			logger.Warn("Skipping record", "location", unit.Location, "row", ordinal, "error", err)
			continue
		}
		docs = append(docs, doc)
		size += doc.Size()

		if size >= chunkBytes {
			if err := emit(chunk{location: unit.Location, docs: docs}); err != nil {
				return err
			}
			docs = nil
			size = 0
		}
	}

	return emit(chunk{location: unit.Location, docs: docs, done: true})
}

// DocumentID derives a stable document ID from a unit location and a row
// ordinal, so re-ingesting a corpus rewrites the same documents.
func DocumentID(location string, ordinal int) string {
	sum := xxhash.Sum64String(location + "\x00" + strconv.Itoa(ordinal))
	return strconv.FormatUint(sum, 16)
}

func unitLocation(root string, unit source.Unit) string {
	rel, err := filepath.Rel(root, unit.Location)
	if err != nil {
		return filepath.ToSlash(unit.Location)
	}
	return filepath.ToSlash(rel)
}
