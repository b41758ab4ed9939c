package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/sha1n/winref/internal/domain"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const utf8BOM = "\ufeff"

// FileList pairs a parsed system descriptor with the CSV file list of a unit.
type FileList struct {
	unit       Unit
	descriptor domain.SystemDescriptor
	header     []string
}

// Open parses the unit's system-description file and the header of its file
// list. Failures are returned as *domain.UnitError.
func Open(unit Unit, patterns Patterns) (*FileList, error) {
	desc, err := ReadSystemDescriptor(unit.SystemInfoPath, patterns)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(unit.FileListPath)
	if err != nil {
		return nil, domain.NewUnitError(domain.KindFileList, unit.FileListPath, err)
	}
	defer func() { _ = f.Close() }()

	header, err := readHeader(newCSVReader(f))
	if err != nil {
		return nil, domain.NewUnitError(domain.KindFileList, unit.FileListPath, err)
	}

	return &FileList{
		unit:       unit,
		descriptor: desc,
		header:     header,
	}, nil
}

// Unit returns the unit this file list was opened from.
func (l *FileList) Unit() Unit {
	return l.unit
}

// Descriptor returns the parsed system descriptor.
func (l *FileList) Descriptor() domain.SystemDescriptor {
	return l.descriptor
}

// Header returns the CSV column names.
func (l *FileList) Header() []string {
	out := make([]string, len(l.header))
	copy(out, l.header)
	return out
}

// Fields returns every field name a record of this list may carry: the
// descriptor fields followed by the CSV columns.
func (l *FileList) Fields() []string {
	fields := l.descriptor.FieldNames()
	return append(fields, l.header...)
}

// Records yields one FlatRecord per CSV row. A malformed row yields an error
// and iteration continues with the next row. A read failure yields a
// UnitError and ends the sequence. The CSV is reopened each time the
// sequence is ranged over.
func (l *FileList) Records() iter.Seq2[domain.FlatRecord, error] {
	return func(yield func(domain.FlatRecord, error) bool) {
		f, err := os.Open(l.unit.FileListPath)
		if err != nil {
			yield(nil, domain.NewUnitError(domain.KindFileList, l.unit.FileListPath, err))
			return
		}
		defer func() { _ = f.Close() }()

		r := newCSVReader(f)
		if _, err := readHeader(r); err != nil {
			yield(nil, domain.NewUnitError(domain.KindFileList, l.unit.FileListPath, err))
			return
		}

		for {
			row, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var perr *csv.ParseError
				if !errors.As(err, &perr) {
					yield(nil, domain.NewUnitError(domain.KindFileList, l.unit.FileListPath, err))
					return
				}
				if !yield(nil, fmt.Errorf("malformed row in %s: %w", l.unit.FileListPath, err)) {
					return
				}
				continue
			}

			if !yield(l.flatten(row), nil) {
				return
			}
		}
	}
}

func (l *FileList) flatten(row []string) domain.FlatRecord {
	rec := make(domain.FlatRecord, len(l.header)+2)
	for k, v := range l.descriptor.Fields() {
		rec[k] = v
	}
	for i, column := range l.header {
		if i >= len(row) || domain.IsDenied(domain.RecordDenylist, column) {
			continue
		}
		rec[column] = row[i]
	}
	return rec
}

// newCSVReader decodes r by its byte order mark, defaulting to UTF-8, so a
// marked header does not reach the CSV parser.
func newCSVReader(r io.Reader) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.Comma = ','
	return cr
}

func readHeader(r *csv.Reader) ([]string, error) {
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("file list has no header")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return header, nil
}
