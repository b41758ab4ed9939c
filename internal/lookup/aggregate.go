package lookup

import (
	"encoding/json"
	"sort"

	"github.com/sha1n/winref/internal/index"
)

// Aggregation maps each field to the distinct values seen across hits.
type Aggregation map[string]map[string]struct{}

// Aggregate merges hits into an Aggregation. The field set comes from the
// first hit: later hits only contribute values for fields the first hit has.
func Aggregate(hits []index.Hit) Aggregation {
	agg := make(Aggregation)
	if len(hits) == 0 {
		return agg
	}

	for field, value := range hits[0] {
		agg[field] = map[string]struct{}{value: {}}
	}
	for _, hit := range hits[1:] {
		for field, value := range hit {
			if set, ok := agg[field]; ok {
				set[value] = struct{}{}
			}
		}
	}
	return agg
}

// Values returns the sorted values of field.
func (a Aggregation) Values(field string) []string {
	set := a[field]
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Has reports whether field was aggregated.
func (a Aggregation) Has(field string) bool {
	_, ok := a[field]
	return ok
}

// Map returns the aggregation with sorted value slices.
func (a Aggregation) Map() map[string][]string {
	out := make(map[string][]string, len(a))
	for field := range a {
		out[field] = a.Values(field)
	}
	return out
}

func (a Aggregation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Map())
}

// NameResult is an aggregation with the known-state of the looked up name and
// path. A nil flag was not evaluated.
type NameResult struct {
	Aggregation Aggregation
	KnownName   *bool
	KnownPath   *bool
}

// MarshalJSON flattens the aggregation and the flags into one object.
func (r NameResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Aggregation)+2)
	for field, values := range r.Aggregation.Map() {
		out[field] = values
	}
	out["KnownName"] = r.KnownName
	out["KnownPath"] = r.KnownPath
	return json.Marshal(out)
}

// KnownResult holds existence flags only.
type KnownResult struct {
	KnownName *bool `json:"KnownName"`
	KnownPath *bool `json:"KnownPath"`
}
