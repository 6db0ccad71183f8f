// Package textclean strips recognizer noise from OCR output while keeping its
// line structure, which later extraction relies on.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinLineLength is the shortest line, in characters, that survives cleaning.
const MinLineLength = 2

var whitespaceRun = regexp.MustCompile(`\s+`)

// Clean drops lines that are empty, contain no letter or digit, or are
// shorter than MinLineLength after whitespace is collapsed. Surviving lines
// keep their order and are joined with "\n".
func Clean(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
		if utf8.RuneCountInString(line) < MinLineLength || symbolsOnly(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func symbolsOnly(line string) bool {
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
