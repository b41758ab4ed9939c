package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/winref/internal/domain"
)

// Term matches documents whose field equals value, ignoring case.
type Term struct {
	Field string
	Value string
}

func (t Term) String() string {
	return fmt.Sprintf("%s:%q", t.Field, t.Value)
}

// Query is a conjunction of terms.
type Query struct {
	Terms []Term
}

// NewQuery creates a query from field/value pairs.
func NewQuery(terms ...Term) Query {
	return Query{Terms: terms}
}

func (q Query) String() string {
	parts := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " AND ")
}

// Hit holds the first stored value of each field of a matching document.
type Hit map[string]string

// Search returns up to limit documents matching every term of q. Terms on
// fields absent from the schema match nothing.
func (i *Index) Search(ctx context.Context, q Query, limit int) ([]Hit, error) {
	if len(q.Terms) == 0 {
		return nil, fmt.Errorf("query has no terms")
	}
	if limit <= 0 {
		return nil, nil
	}

	conjuncts := make([]query.Query, 0, len(q.Terms))
	for _, t := range q.Terms {
		f, ok := i.schema.Lookup(t.Field)
		if !ok {
			return nil, nil
		}
		if f.Kind != domain.KindExact {
			return nil, fmt.Errorf("field %s is not searchable", t.Field)
		}
		mq := bleve.NewMatchPhraseQuery(strings.ToLower(t.Value))
		mq.SetField(t.Field)
		conjuncts = append(conjuncts, mq)
	}

	var bq query.Query = conjuncts[0]
	if len(conjuncts) > 1 {
		bq = bleve.NewConjunctionQuery(conjuncts...)
	}

	req := bleve.NewSearchRequestOptions(bq, limit, 0, false)
	req.Fields = []string{"*"}

	i.mu.RLock()
	defer i.mu.RUnlock()

	res, err := i.store.SearchInContext(ctx, req)
	if err != nil {
		return nil, domain.StorageError("search", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, toHit(h.Fields))
	}
	return hits, nil
}

func toHit(fields map[string]interface{}) Hit {
	hit := make(Hit, len(fields))
	for name, raw := range fields {
		switch v := raw.(type) {
		case string:
			hit[name] = v
		case []interface{}:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok {
					hit[name] = s
				}
			}
		}
	}
	return hit
}
