package fs

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// Slugify derives a filesystem- and URL-safe name: lowercase, every run of
// characters outside [a-zA-Z0-9_-] becomes a single '-', repeated dashes
// collapse, and leading/trailing '-' and '_' are trimmed.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
