package extract

import (
	"strings"
)

// UnknownProduct is the product name used when nothing qualifies.
const UnknownProduct = "Unknown Product"

// MinInputLength is the shortest combined text, in characters, that is worth
// extracting from.
const MinInputLength = 5

// KnownBrands is the default ordered brand list. The first match wins.
var KnownBrands = []string{
	"TONYMOLY", "LANEIGE", "AMOREPACIFIC", "INNISFREE", "ETUDE HOUSE",
	"COSRX", "PURITO", "ISNTREE", "ROUND LAB", "SKIN FUNCTIONAL",
	"DOVE", "NIVEA", "VASELINE", "CETAPHIL", "CeraVe",
	"Neutrogena", "Olay", "L'Oreal", "Maybelline", "Loreal",
}

// WarningKeywords mark a line as a warning when found in it, case-insensitively.
var WarningKeywords = []string{
	"warning", "may contain", "contains", "allergen", "not suitable", "caution", "risk",
	"external use", "avoid eyes", "keep away", "do not ingest", "patch test",
}

// Fields are the structured values read from a label. Nil pointers are
// serialized as null; the slices are never nil.
type Fields struct {
	ProductName *string  `json:"product_name"`
	Brand       *string  `json:"brand"`
	ExpiryDate  *string  `json:"expiry_date"`
	MfgDate     *string  `json:"mfg_date"`
	Ingredients []string `json:"ingredients"`
	Warnings    []string `json:"warnings"`
}

// EmptyFields returns all-null fields with empty lists.
func EmptyFields() Fields {
	return Fields{Ingredients: []string{}, Warnings: []string{}}
}

// HasProductName reports whether a real product name, not the sentinel, is set.
func (f Fields) HasProductName() bool {
	return present(f.ProductName) && *f.ProductName != UnknownProduct
}

// Result is the output of one extraction.
type Result struct {
	Fields
	Confidence    float64 `json:"confidence"`
	Summary       *string `json:"summary"`
	FailureReason string  `json:"failure_reason,omitempty"`

	// Tier1 describes the AI-assisted pass. It is diagnostic only.
	Tier1 AIResult `json:"-"`

	// InputLength is the character count of the combined text.
	InputLength int `json:"-"`
}

// Input is the cleaned text of each region. Full is optional.
type Input struct {
	Front string
	Back  string
	Full  string
}

// placeholders are values a model emits instead of admitting absence.
var placeholders = map[string]bool{
	"":              true,
	"null":          true,
	"none":          true,
	"nil":           true,
	"n/a":           true,
	"na":            true,
	"unknown":       true,
	"not found":     true,
	"not available": true,
	"...":           true,
	"-":             true,
}

// isPlaceholder reports whether s carries no information.
func isPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

func present(s *string) bool {
	return s != nil && !isPlaceholder(*s)
}

func strPtr(s string) *string {
	return &s
}

// summarize builds "<product or brand>. Expires <date>", or nil when neither
// part is known.
func summarize(f Fields) *string {
	var parts []string
	if f.HasProductName() {
		parts = append(parts, *f.ProductName)
	} else if present(f.Brand) {
		parts = append(parts, *f.Brand)
	}
	if present(f.ExpiryDate) {
		parts = append(parts, "Expires "+*f.ExpiryDate)
	}
	if len(parts) == 0 {
		return nil
	}
	return strPtr(strings.Join(parts, ". "))
}
