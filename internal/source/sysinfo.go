package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sha1n/winref/internal/domain"
	"golang.org/x/text/encoding/unicode"
)

// MaxSystemInfoSize is the largest system-description file that will be read.
const MaxSystemInfoSize = 4 * 1024 * 1024

var utf16LEBOM = []byte{0xff, 0xfe}

// Patterns extract descriptor values from the text of a system-description
// file. Each pattern's first capture group is the value.
type Patterns struct {
	OSName    *regexp.Regexp
	OSVersion *regexp.Regexp
}

// DefaultPatterns matches the "OS Name:" and "OS Version:" lines of
// systeminfo.exe output.
func DefaultPatterns() Patterns {
	return Patterns{
		OSName:    regexp.MustCompile(`(?m)^OS Name:[ \t]*(\S.*?)[ \t\r]*$`),
		OSVersion: regexp.MustCompile(`(?m)^OS Version:[ \t]*(\S.*?)[ \t\r]*$`),
	}
}

// Parse extracts a descriptor from decoded text.
func (p Patterns) Parse(content string) (domain.SystemDescriptor, error) {
	name, err := capture(p.OSName, content, "OS Name")
	if err != nil {
		return domain.SystemDescriptor{}, err
	}
	version, err := capture(p.OSVersion, content, "OS Version")
	if err != nil {
		return domain.SystemDescriptor{}, err
	}
	return domain.SystemDescriptor{OSName: name, OSVersion: version}, nil
}

func capture(re *regexp.Regexp, content, label string) (string, error) {
	m := re.FindStringSubmatch(content)
	if len(m) < 2 {
		return "", fmt.Errorf("unable to parse %s", label)
	}
	return strings.TrimRight(m[1], " \t\r"), nil
}

// ReadSystemDescriptor reads, decodes and parses a system-description file.
func ReadSystemDescriptor(path string, patterns Patterns) (domain.SystemDescriptor, error) {
	content, err := readText(path)
	if err != nil {
		return domain.SystemDescriptor{}, domain.NewUnitError(domain.KindDecode, path, err)
	}

	desc, err := patterns.Parse(content)
	if err != nil {
		return domain.SystemDescriptor{}, domain.NewUnitError(domain.KindPattern, path, err)
	}
	return desc, nil
}

// readText returns the file content as UTF-8. A leading FF FE marks UTF-16LE;
// anything else is treated as UTF-8. Invalid sequences become U+FFFD.
func readText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() > MaxSystemInfoSize {
		return "", fmt.Errorf("%s is larger than %d bytes", path, MaxSystemInfoSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(io.LimitReader(f, MaxSystemInfoSize+1))
	if err != nil {
		return "", err
	}
	if len(raw) > MaxSystemInfoSize {
		return "", fmt.Errorf("%s is larger than %d bytes", path, MaxSystemInfoSize)
	}

	decoder := unicode.UTF8BOM.NewDecoder()
	if bytes.HasPrefix(raw, utf16LEBOM) {
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	}

	decoded, err := decoder.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return string(decoded), nil
}
