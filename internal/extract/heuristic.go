package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Heuristic limits.
const (
	productScanLines    = 15
	minProductLength    = 3
	maxDescriptiveCaps  = 40
	minBrandLength      = 3
	maxBrandLength      = 20
	minIngredientLength = 3
	maxIngredients      = 30
	minWarningLength    = 4
)

// brandSkipKeywords mark all-caps lines that are copy rather than a brand.
var brandSkipKeywords = []string{"warning", "contains", "nourishing", "bouncy", "moist", "for"}

const dateValue = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}[/-]\d{4}|` +
	`(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|` +
	`sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{4})`

var (
	expiryPattern = regexp.MustCompile(`(?i)\b(?:exp(?:iry|ires?)?|best\s*before|use\s*by|bb)(?:\s*date)?[:.\s]*` + dateValue)
	mfgPattern    = regexp.MustCompile(`(?i)\b(?:mfg|manufactured|prod(?:uction)?|date\s*of(?:\s*manufacture)?)(?:\s*date)?[:.\s]*` + dateValue)

	numericDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
	monthYear   = regexp.MustCompile(`^(\d{1,2})[/-](\d{4})$`)
	leadingDate = regexp.MustCompile(`(?i)^(?:(?:exp(?:iry|ires?)?|best\s*before|use\s*by|mfg|bb)\b[:.\s]*)?\d{1,2}[/.-]\d{1,4}`)

	ingredientsBlock = regexp.MustCompile(`(?s)(?i:ingredients?)[:\s]*(.+?)(?:\n\s*\n|\n[A-Z][a-z]+:|\n\[IMAGE \d+\]|\z)`)
	ingredientSplit  = regexp.MustCompile(`[,;\n]+`)

	imageTag = regexp.MustCompile(`^\[IMAGE \d+\]$`)
)

// ImageTag is the line that precedes each image's text in a multi-image scan.
func ImageTag(n int) string {
	return fmt.Sprintf("[IMAGE %d]", n)
}

// Heuristic is the deterministic fallback pass. Each field is read from the
// region it usually appears in first, then from the combined text. brands
// replaces KnownBrands when non-empty.
func Heuristic(in Input, brands []string) Fields {
	if len(brands) == 0 {
		brands = KnownBrands
	}
	combined := Combine(in)
	f := EmptyFields()

	f.Brand = firstNonNil(FindBrand(in.Front, brands), FindBrand(combined, brands))

	if name := FindProductName(in.Front); name != nil {
		f.ProductName = name
	} else if name := FindProductName(combined); name != nil {
		f.ProductName = name
	} else {
		f.ProductName = strPtr(UnknownProduct)
	}

	expiry, mfg := FindDates(in.Back)
	if expiry == nil || mfg == nil {
		e2, m2 := FindDates(combined)
		expiry = firstNonNil(expiry, e2)
		mfg = firstNonNil(mfg, m2)
	}
	f.ExpiryDate, f.MfgDate = expiry, mfg

	if f.Ingredients = FindIngredients(in.Back); len(f.Ingredients) == 0 {
		f.Ingredients = FindIngredients(combined)
	}
	if f.Warnings = FindWarnings(in.Back); len(f.Warnings) == 0 {
		f.Warnings = FindWarnings(combined)
	}
	return f
}

// FindBrand returns the first listed brand contained in text, compared
// case-insensitively and returned in the list's spelling. Failing that it
// accepts the first short all-caps line that is not a date line and has no
// copy keywords.
func FindBrand(text string, brands []string) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	upper := strings.ToUpper(text)
	for _, b := range brands {
		if b != "" && strings.Contains(upper, strings.ToUpper(b)) {
			return strPtr(b)
		}
	}

	for _, line := range lines(text) {
		n := utf8.RuneCountInString(line)
		if n < minBrandLength || n > maxBrandLength || !isAllUpper(line) || isDateLine(line) {
			continue
		}
		if containsAny(strings.ToLower(line), brandSkipKeywords) {
			continue
		}
		return strPtr(line)
	}
	return nil
}

// FindProductName returns the first line among the top lines of text that
// does not look like a brand, a date, a number or descriptive copy.
func FindProductName(text string) *string {
	ls := lines(text)
	if len(ls) > productScanLines {
		ls = ls[:productScanLines]
	}
	for _, line := range ls {
		n := utf8.RuneCountInString(line)
		switch {
		case n < minProductLength:
		case !hasLetter(line):
		case leadingDate.MatchString(line):
		case n > maxDescriptiveCaps && isAllUpper(line):
		case isAllUpper(line) && len(strings.Fields(line)) == 1:
		default:
			return strPtr(line)
		}
	}
	return nil
}

// FindDates returns the first expiry and manufacturing dates in text. Numeric
// day/month/year dates are normalized to slashes with a four-digit year;
// other forms are returned as printed. No match yields nil.
func FindDates(text string) (expiry, mfg *string) {
	if m := expiryPattern.FindStringSubmatch(text); m != nil {
		expiry = strPtr(normalizeDate(m[1]))
	}
	if m := mfgPattern.FindStringSubmatch(text); m != nil {
		mfg = strPtr(normalizeDate(m[1]))
	}
	return expiry, mfg
}

func normalizeDate(raw string) string {
	if m := numericDate.FindStringSubmatch(raw); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		return m[1] + "/" + m[2] + "/" + year
	}
	if m := monthYear.FindStringSubmatch(raw); m != nil {
		return m[1] + "/" + m[2]
	}
	return strings.Join(strings.Fields(raw), " ")
}

// FindIngredients splits the block following an "Ingredients" header. The
// block ends at a blank line, a new "Word:" header or the end of text.
func FindIngredients(text string) []string {
	out := []string{}
	m := ingredientsBlock.FindStringSubmatch(text)
	if m == nil {
		return out
	}
	for _, part := range ingredientSplit.Split(m[1], -1) {
		item := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "•-*"))
		if utf8.RuneCountInString(item) < minIngredientLength {
			continue
		}
		out = append(out, item)
		if len(out) == maxIngredients {
			break
		}
	}
	return out
}

// FindWarnings returns every distinct line containing a warning keyword.
func FindWarnings(text string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, line := range lines(text) {
		if utf8.RuneCountInString(line) < minWarningLength || seen[line] {
			continue
		}
		if containsAny(strings.ToLower(line), WarningKeywords) {
			seen[line] = true
			out = append(out, line)
		}
	}
	return out
}

// Combine joins the region texts into one, keeping each distinct line once
// in first-seen order. Full-image text mostly repeats the regions, and
// multi-image tags such as "[IMAGE 1]" repeat across regions.
func Combine(in Input) string {
	var out []string
	seen := map[string]bool{}
	for _, text := range []string{in.Front, in.Back, in.Full} {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// lines returns the trimmed non-empty lines of text, without image tags.
func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" && !imageTag.MatchString(l) {
			out = append(out, l)
		}
	}
	return out
}

// isAllUpper reports whether s has at least one cased letter and no
// lowercase letters.
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func isDateLine(s string) bool {
	return leadingDate.MatchString(s) || expiryPattern.MatchString(s) || mfgPattern.MatchString(s)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func firstNonNil(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
