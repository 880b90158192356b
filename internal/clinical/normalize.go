package clinical

import (
	"regexp"
	"strings"
)

var (
	reNonPrintable = regexp.MustCompile("[^\x20-\x7e\t\n]")
	reManyNewlines = regexp.MustCompile(`\n{3,}`)
	reHorizSpace   = regexp.MustCompile(`[ \t]+`)
)

// Normalize prepares raw document text for extraction: line endings become
// \n, runs of 3+ newlines collapse to 2, characters outside printable ASCII
// (tab and newline excepted) are dropped, and horizontal whitespace runs
// collapse to a single space. Idempotent and total; empty in, empty out.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = reNonPrintable.ReplaceAllString(s, "")
	s = reManyNewlines.ReplaceAllString(s, "\n\n")
	s = reHorizSpace.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
