package index

import (
	"context"
	"log/slog"

	"github.com/sha1n/winref/internal/domain"
	"github.com/sha1n/winref/internal/source"
)

// InferSchema reads every unit under root and derives the schema from the
// union of their field names. Units that cannot be read are logged and
// skipped. The result does not depend on discovery order.
func InferSchema(ctx context.Context, root string, opts source.Options, patterns source.Patterns, logger *slog.Logger) (*domain.Schema, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var names []string
	units := 0
	for unit, err := range source.Discover(root, opts) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
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
		names = append(names, list.Fields()...)
		units++
	}

	schema, err := domain.SchemaFromNames(names)
	if err != nil {
		return nil, err
	}

	logger.Debug("Inferred schema", "units", units, "fields", schema.Names())
	return schema, nil
}

// SchemaFromCorpus adapts InferSchema to the SchemaFunc used by Open.
func SchemaFromCorpus(ctx context.Context, root string, opts source.Options, patterns source.Patterns, logger *slog.Logger) SchemaFunc {
	return func() (*domain.Schema, error) {
		return InferSchema(ctx, root, opts, patterns, logger)
	}
}
