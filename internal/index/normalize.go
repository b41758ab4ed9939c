package index

import (
	"regexp"

	"github.com/sha1n/winref/internal/domain"
)

var driveToken = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// pathFields hold absolute Windows paths whose drive token is not indexed.
var pathFields = []string{domain.FieldDirectoryName, domain.FieldFullName}

// Normalize converts a record into document fields: the drive token
// ("C:\") is stripped from path fields, only schema fields are kept and
// denylisted fields are dropped. Hashes and case are left untouched.
func Normalize(record domain.FlatRecord, schema *domain.Schema) map[string]string {
	fields := make(map[string]string, len(record))
	for name, value := range record {
		if !schema.Has(name) || domain.IsDenied(domain.SchemaDenylist, name) {
			continue
		}
		if domain.IsDenied(pathFields, name) {
			value = StripDrive(value)
		}
		fields[name] = value
	}
	return fields
}

// StripDrive removes a leading "X:\" or "X:/" token.
func StripDrive(value string) string {
	if driveToken.MatchString(value) {
		return value[3:]
	}
	return value
}
