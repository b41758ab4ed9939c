package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldKind classifies how a schema field is indexed.
type FieldKind int

const (
	// KindStored fields are kept for retrieval but are not searchable.
	KindStored FieldKind = iota
	// KindExact fields are searchable by whole-value, case-insensitive equality.
	KindExact
)

func (k FieldKind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindStored:
		return "stored"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind by name so manifests stay readable.
func (k FieldKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind written by MarshalJSON.
func (k *FieldKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "exact":
		*k = KindExact
	case "stored":
		*k = KindStored
	default:
		return fmt.Errorf("unknown field kind %q", s)
	}
	return nil
}

// Field is one entry of a Schema.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// Schema is the fixed, ordered set of fields every document of an index
// conforms to.
type Schema struct {
	fields []Field
	byName map[string]int
}

// NewSchema builds a schema from fields. Field names must be unique and
// non-empty.
func NewSchema(fields []Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, ErrEmptySchema
	}

	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema field name cannot be empty")
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate schema field %q", f.Name)
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// SchemaFromNames classifies names into a schema, dropping denylisted names.
// The result is sorted by name so the same set of names always produces the
// same schema.
func SchemaFromNames(names []string) (*Schema, error) {
	unique := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" || IsDenied(SchemaDenylist, n) {
			continue
		}
		unique[n] = struct{}{}
	}

	sorted := make([]string, 0, len(unique))
	for n := range unique {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	fields := make([]Field, 0, len(sorted))
	for _, n := range sorted {
		kind := KindStored
		if IsDenied(ExactFields, n) {
			kind = KindExact
		}
		fields = append(fields, Field{Name: n, Kind: kind})
	}
	return NewSchema(fields)
}

// Fields returns the schema fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the field with the given name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema contains name.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Document is one indexed record, validated against a Schema.
type Document struct {
	ID     string
	Fields map[string]string
}

// NewDocument validates fields against schema. Fields absent from the map are
// simply not part of the document.
func NewDocument(schema *Schema, id string, fields map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document id cannot be empty")
	}
	for name := range fields {
		if !schema.Has(name) {
			return Document{}, fmt.Errorf("field %q is not part of the schema", name)
		}
	}
	return Document{ID: id, Fields: fields}, nil
}

// Size approximates the memory held by the document's field data.
func (d Document) Size() int {
	n := len(d.ID)
	for k, v := range d.Fields {
		n += len(k) + len(v)
	}
	return n
}
