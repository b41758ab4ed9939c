package lookup

import (
	"regexp"
	"strings"
)

var drivePrefix = regexp.MustCompile(`(?i)^[a-z]:`)

// NormalizePath converts p to the form directory values are compared in:
// backslash separators, no drive letter, no leading or trailing separators,
// lower case. NormalizePath(NormalizePath(p)) == NormalizePath(p).
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)
	for {
		next := strings.Trim(p, `\`)
		next = drivePrefix.ReplaceAllString(next, "")
		if next == p {
			break
		}
		p = next
	}
	return strings.ToLower(p)
}

// SplitFullPath splits a full file path into its normalized file name and
// parent directory. The split happens before the drive is stripped, so a file
// in a drive root has the empty parent.
func SplitFullPath(p string) (name, parent string, err error) {
	raw := strings.TrimLeft(strings.ReplaceAll(p, "/", `\`), `\`)
	i := strings.LastIndex(raw, `\`)
	if i < 0 {
		return "", "", &ValidationError{Field: "value", Message: "full path must include a parent directory"}
	}
	name, parent = strings.ToLower(raw[i+1:]), NormalizePath(raw[:i])
	if name == "" {
		return "", "", &ValidationError{Field: "value", Message: "full path has no file name"}
	}
	return name, parent, nil
}
