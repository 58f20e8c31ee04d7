package textproc

import (
	"regexp"
	"strings"
)

// Characters kept by Clean: printable ASCII, extended-Latin blocks (so
// diacritics like ñ/á survive OCR), and line/tab whitespace. Everything
// else is removed.
var (
	disallowedRe = regexp.MustCompile(`[^\x20-\x7E\x{00A0}-\x{024F}\x{1E00}-\x{1EFF}\n\r\t]`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	blankLineRe  = regexp.MustCompile(`\n\s*\n+`)
)

// Clean strips non-printable control characters, collapses whitespace runs
// and blank-line runs, and trims every line and the whole text. It is a
// pure function and idempotent: Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = disallowedRe.ReplaceAllString(text, "")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = blankLineRe.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
