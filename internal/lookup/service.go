package lookup

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks github.com/sha1n/winref/internal/lookup Searcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sha1n/winref/internal/domain"
	"github.com/sha1n/winref/internal/index"
)

// MaxHits bounds the number of documents aggregated per lookup.
const MaxHits = 1000

// Searcher executes exact-match queries against an index.
type Searcher interface {
	Search(ctx context.Context, q index.Query, limit int) ([]index.Hit, error)
}

// NameLookup asks about a file name, optionally within a directory.
type NameLookup struct {
	Value string  `json:"value"`
	Path  *string `json:"path,omitempty"`
}

// Service answers hash, name and full-path lookups.
type Service struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewService creates a lookup service over s.
func NewService(s Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{searcher: s, logger: logger}
}

// HashField selects the field a hash is looked up in by its length.
func HashField(value string) (string, error) {
	switch len(value) {
	case 32:
		return domain.FieldMD5, nil
	case 64:
		return domain.FieldSHA256, nil
	default:
		return "", &ValidationError{Field: "value", Message: fmt.Sprintf("unhandled hash type with length %d", len(value))}
	}
}

// LookupHash aggregates every document whose MD5 or SHA256 equals value.
func (s *Service) LookupHash(ctx context.Context, value string) (Aggregation, error) {
	field, err := HashField(value)
	if err != nil {
		return nil, err
	}
	hits, err := s.search(ctx, index.NewQuery(index.Term{Field: field, Value: value}), MaxHits)
	if err != nil {
		return nil, err
	}
	return Aggregate(hits), nil
}

// LookupName aggregates every document named l.Value. KnownPath is evaluated
// only when a path is supplied and the hits carry directory names.
func (s *Service) LookupName(ctx context.Context, l NameLookup) (NameResult, error) {
	if l.Value == "" {
		return NameResult{}, &ValidationError{Field: "value", Message: "must not be empty"}
	}

	hits, err := s.search(ctx, index.NewQuery(index.Term{Field: domain.FieldName, Value: l.Value}), MaxHits)
	if err != nil {
		return NameResult{}, err
	}

	agg := Aggregate(hits)
	res := NameResult{
		Aggregation: agg,
		KnownName:   boolPtr(len(hits) > 0),
	}

	if l.Path != nil && agg.Has(domain.FieldDirectoryName) {
		want := NormalizePath(*l.Path)
		found := false
		for _, dir := range agg.Values(domain.FieldDirectoryName) {
			if NormalizePath(dir) == want {
				found = true
				break
			}
		}
		res.KnownPath = boolPtr(found)
	}
	return res, nil
}

// LookupFullName splits value into name and parent directory and looks up
// the name within that directory.
func (s *Service) LookupFullName(ctx context.Context, value string) (NameResult, error) {
	if value == "" {
		return NameResult{}, &ValidationError{Field: "value", Message: "must not be empty"}
	}
	name, parent, err := SplitFullPath(value)
	if err != nil {
		return NameResult{}, err
	}
	return s.LookupName(ctx, NameLookup{Value: name, Path: &parent})
}

// KnownName reports whether l.Value is indexed and, when a path is supplied,
// whether it is indexed within that directory.
func (s *Service) KnownName(ctx context.Context, l NameLookup) (KnownResult, error) {
	if l.Value == "" {
		return KnownResult{}, &ValidationError{Field: "value", Message: "must not be empty"}
	}

	nameTerm := index.Term{Field: domain.FieldName, Value: l.Value}
	hits, err := s.search(ctx, index.NewQuery(nameTerm), 1)
	if err != nil {
		return KnownResult{}, err
	}
	res := KnownResult{KnownName: boolPtr(len(hits) > 0)}

	if l.Path == nil {
		return res, nil
	}
	if !*res.KnownName {
		res.KnownPath = boolPtr(false)
		return res, nil
	}

	dir := NormalizePath(*l.Path)
	if dir == "" {
		found, err := s.inDriveRoot(ctx, nameTerm)
		if err != nil {
			return KnownResult{}, err
		}
		res.KnownPath = boolPtr(found)
		return res, nil
	}

	dirTerm := index.Term{Field: domain.FieldDirectoryName, Value: dir}
	hits, err = s.search(ctx, index.NewQuery(nameTerm, dirTerm), 1)
	if err != nil {
		return KnownResult{}, err
	}
	res.KnownPath = boolPtr(len(hits) > 0)
	return res, nil
}

// inDriveRoot reports whether a document matching nameTerm lives directly in
// a drive root. Root directories are indexed as the empty value, which no
// term query matches, so the name hits are filtered instead.
func (s *Service) inDriveRoot(ctx context.Context, nameTerm index.Term) (bool, error) {
	hits, err := s.search(ctx, index.NewQuery(nameTerm), MaxHits)
	if err != nil {
		return false, err
	}
	for _, hit := range hits {
		if dir, ok := hit[domain.FieldDirectoryName]; ok && NormalizePath(dir) == "" {
			return true, nil
		}
	}
	return false, nil
}

// KnownFullName splits value and delegates to KnownName.
func (s *Service) KnownFullName(ctx context.Context, value string) (KnownResult, error) {
	if value == "" {
		return KnownResult{}, &ValidationError{Field: "value", Message: "must not be empty"}
	}
	name, parent, err := SplitFullPath(value)
	if err != nil {
		return KnownResult{}, err
	}
	return s.KnownName(ctx, NameLookup{Value: name, Path: &parent})
}

func (s *Service) search(ctx context.Context, q index.Query, limit int) ([]index.Hit, error) {
	hits, err := s.searcher.Search(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", q, err)
	}
	s.logger.DebugContext(ctx, "Query executed", "query", q.String(), "hits", len(hits))
	return hits, nil
}

func boolPtr(b bool) *bool {
	return &b
}
