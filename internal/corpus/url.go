package corpus

import (
	"net/url"
	"regexp"
	"strings"
)

// Matches: git@github.com:org/repo.git
var scpPattern = regexp.MustCompile(`^git@([^:]+):(.+?)(?:\.git)?$`)

// RepoID converts a git URL to a filesystem-safe directory name.
//
// Examples:
//   - https://github.com/org/repo -> github.com_org_repo
//   - git@github.com:org/repo.git -> github.com_org_repo
//   - /srv/mirrors/repo.git -> srv_mirrors_repo
func RepoID(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)

	if m := scpPattern.FindStringSubmatch(rawURL); m != nil {
		return sanitizeForFilesystem(m[1] + "/" + m[2])
	}

	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return sanitizeForFilesystem(u.Host + u.Path)
	}

	return sanitizeForFilesystem(rawURL)
}

// sanitizeForFilesystem replaces separators and other unsafe characters with
// underscores.
func sanitizeForFilesystem(s string) string {
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	s = strings.Trim(s, "/")
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_", `\`, "_")
	s = r.Replace(s)
	if s == "" {
		return "corpus"
	}
	return s
}
