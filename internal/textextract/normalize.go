package textextract

import (
	"regexp"
	"strings"
)

var reMultiBlank = regexp.MustCompile(`\n{3,}`)

// Normalize collapses runs of three or more newlines into one blank line and
// trims surrounding whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
