package testkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// SystemInfo describes a SystemInfo_ file of a fixture unit.
type SystemInfo struct {
	OSName    string
	OSVersion string
	UTF16     bool // write UTF-16LE with a byte order mark, as systeminfo.exe does
}

// Unit is one fixture folder of a reference corpus.
type Unit struct {
	Dir      string // relative to the corpus root
	Info     *SystemInfo
	Header   []string
	Rows     [][]string
	ExtraCSV bool // adds a second CSV so that discovery rejects the folder
}

// CorpusBuilder writes reference corpus fixtures to disk.
type CorpusBuilder struct {
	units []Unit
}

// NewCorpusBuilder creates an empty builder.
func NewCorpusBuilder() *CorpusBuilder {
	return &CorpusBuilder{}
}

// Add appends a unit.
func (b *CorpusBuilder) Add(u Unit) *CorpusBuilder {
	b.units = append(b.units, u)
	return b
}

// Write lays the corpus out under root.
func (b *CorpusBuilder) Write(root string) error {
	for _, u := range b.units {
		if err := writeUnit(root, u); err != nil {
			return fmt.Errorf("failed to write unit %s: %w", u.Dir, err)
		}
	}
	return nil
}

func writeUnit(root string, u Unit) error {
	dir := filepath.Join(root, filepath.FromSlash(u.Dir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	base := filepath.Base(dir)
	if u.Info != nil {
		data, err := u.Info.encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "SystemInfo_"+base+".txt"), data, 0644); err != nil {
			return err
		}
	}

	csv := encodeCSV(u.Header, u.Rows)
	if err := os.WriteFile(filepath.Join(dir, base+".csv"), csv, 0644); err != nil {
		return err
	}
	if u.ExtraCSV {
		if err := os.WriteFile(filepath.Join(dir, base+"-copy.csv"), csv, 0644); err != nil {
			return err
		}
	}
	return nil
}

func (s *SystemInfo) encode() ([]byte, error) {
	text := "\r\nHost Name:                 REFERENCE\r\n" +
		"OS Name:                   " + s.OSName + "\r\n" +
		"OS Version:                " + s.OSVersion + "\r\n" +
		"OS Manufacturer:           Microsoft Corporation\r\n"
	if !s.UTF16 {
		return []byte(text), nil
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func encodeCSV(header []string, rows [][]string) []byte {
	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(`"` + strings.ReplaceAll(c, `"`, `""`) + `"`)
		}
		sb.WriteString("\r\n")
	}
	writeRow(header)
	for _, r := range rows {
		writeRow(r)
	}
	return []byte(sb.String())
}

// CorpusService is a Service that writes a corpus fixture into a temporary
// directory and publishes it as the "source" property.
type CorpusService struct {
	builder *CorpusBuilder
	root    string
}

// NewCorpusService creates a corpus fixture service.
func NewCorpusService(builder *CorpusBuilder) *CorpusService {
	return &CorpusService{builder: builder}
}

// Start writes the corpus.
func (s *CorpusService) Start() (map[string]any, error) {
	root, err := os.MkdirTemp("", "winref-corpus-*")
	if err != nil {
		return nil, err
	}
	if err := s.builder.Write(root); err != nil {
		_ = os.RemoveAll(root)
		return nil, err
	}
	s.root = root
	return map[string]any{"source": root}, nil
}

// Stop removes the corpus.
func (s *CorpusService) Stop() error {
	if s.root == "" {
		return nil
	}
	return os.RemoveAll(s.root)
}

// GetName returns the service name.
func (s *CorpusService) GetName() string {
	return "corpus"
}
