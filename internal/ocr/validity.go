package ocr

import (
	"strings"
	"unicode"
)

// Gibberish filter thresholds.
const (
	MinTextLength     = 8
	MinLetterRatio    = 0.55
	MaxSpecialRatio   = 0.20
	LongTextLength    = 40
	MinLongTextSpaces = 2
	MaxWeirdRatio     = 0.05
)

// weirdSymbols are characters recognizers emit for speckle and glare.
const weirdSymbols = "¢øå"

// IsValidText reports whether text looks like real label text rather than
// recognizer noise.
func IsValidText(text string) bool {
	ok, _ := CheckText(text)
	return ok
}

// CheckText applies the gibberish filter and returns the reason for a
// rejection. Ratios are over the runes of the trimmed text.
func CheckText(text string) (bool, string) {
	return checkText(text, false)
}

// checkText skips the non-ASCII rule when allowNonASCII is set, for engines
// configured with non-Latin languages. The deny-listed symbols still count.
func checkText(text string, allowNonASCII bool) (bool, string) {
	runes := []rune(strings.TrimSpace(text))
	total := len(runes)
	if total < MinTextLength {
		return false, "too short"
	}

	var letters, special, spaces, weird int
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r), unicode.IsSpace(r):
		default:
			special++
		}
		if r == ' ' {
			spaces++
		}
		if strings.ContainsRune(weirdSymbols, r) || (!allowNonASCII && r > unicode.MaxASCII) {
			weird++
		}
	}

	n := float64(total)
	if float64(letters)/n < MinLetterRatio {
		return false, "letter ratio below minimum"
	}
	if float64(special)/n > MaxSpecialRatio {
		return false, "special character ratio above maximum"
	}
	if total > LongTextLength && spaces < MinLongTextSpaces {
		return false, "long text without word breaks"
	}
	if float64(weird)/n > MaxWeirdRatio {
		return false, "too many non-ASCII or noise symbols"
	}
	return true, ""
}
