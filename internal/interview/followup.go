package interview

import (
	"strings"
	"unicode"
)

// extractFollowUp picks the first usable question from raw generator output. A line containing
// '?' wins; a line ending with '.' is turned into a question. Lines without a single word are
// skipped. Empty string when nothing fits.
func extractFollowUp(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"'`)
		line = strings.TrimSpace(line)
		if !strings.ContainsFunc(line, isWordRune) {
			continue
		}

		if strings.Contains(line, "?") {
			return strings.TrimRight(line, "?") + "?"
		}
		if strings.HasSuffix(line, ".") {
			return strings.TrimSuffix(line, ".") + "?"
		}
	}
	return ""
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
