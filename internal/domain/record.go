package domain

// Field names produced by the file-list CSVs and the system-description files.
// The CSV columns follow the PowerShell Get-ChildItem export used by the
// reference corpus; the Os* fields are contributed by the SystemInfo_ file.
const (
	FieldDirectoryName     = "DirectoryName"
	FieldFullName          = "FullName"
	FieldName              = "Name"
	FieldMD5               = "MD5"
	FieldSHA256            = "SHA256"
	FieldOsName            = "OsName"
	FieldOsVersion         = "OsVersion"
	FieldAttributes        = "Attributes"
	FieldSddl              = "Sddl"
	FieldLastAccessTimeUtc = "LastAccessTimeUtc"
	FieldLastWriteTimeUtc  = "LastWriteTimeUtc"
)

// RecordDenylist holds CSV columns that are dropped while building a FlatRecord.
var RecordDenylist = []string{
	FieldLastAccessTimeUtc,
	FieldLastWriteTimeUtc,
	FieldSddl,
}

// SchemaDenylist holds field names that never become part of a Schema.
var SchemaDenylist = append([]string{FieldAttributes}, RecordDenylist...)

// ExactFields are searchable by whole-value, case-insensitive equality.
// Every other schema field is stored only.
var ExactFields = []string{
	FieldDirectoryName,
	FieldName,
	FieldMD5,
	FieldSHA256,
}

// SystemDescriptor is the metadata extracted from one SystemInfo_ file.
type SystemDescriptor struct {
	OSName    string `json:"OsName"`
	OSVersion string `json:"OsVersion"`
}

// FieldNames returns the record field names this descriptor contributes.
func (d SystemDescriptor) FieldNames() []string {
	return []string{FieldOsName, FieldOsVersion}
}

// Fields returns the descriptor as record fields.
func (d SystemDescriptor) Fields() map[string]string {
	return map[string]string{
		FieldOsName:    d.OSName,
		FieldOsVersion: d.OSVersion,
	}
}

// FlatRecord is one CSV row merged with the descriptor of its unit.
type FlatRecord map[string]string

// IsDenied reports whether name is in the given denylist.
func IsDenied(denylist []string, name string) bool {
	for _, d := range denylist {
		if d == name {
			return true
		}
	}
	return false
}
