package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/sha1n/winref/internal/domain"
	"github.com/sha1n/winref/internal/tokenizer"
)

// BuildMapping creates the bleve index mapping for a schema.
// Exact fields are indexed through the exact-match analyzer; stored fields
// are kept for retrieval only. Fields outside the schema are ignored.
func BuildMapping(schema *domain.Schema) (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()

	// Single tokenizer, no filters
	err := indexMapping.AddCustomAnalyzer(tokenizer.Name, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": tokenizer.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	for _, f := range schema.Fields() {
		fieldMapping := bleve.NewTextFieldMapping()
		fieldMapping.Store = true
		fieldMapping.IncludeInAll = false

		switch f.Kind {
		case domain.KindExact:
			fieldMapping.Analyzer = tokenizer.Name
			fieldMapping.Index = true
			// Phrase queries need term locations
			fieldMapping.IncludeTermVectors = true
		default:
			fieldMapping.Index = false
			fieldMapping.DocValues = false
		}

		docMapping.AddFieldMappingsAt(f.Name, fieldMapping)
	}

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = tokenizer.Name
	indexMapping.IndexDynamic = false
	indexMapping.StoreDynamic = false
	indexMapping.DocValuesDynamic = false

	return indexMapping, nil
}
