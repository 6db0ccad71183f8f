package extract

import "math"

// Confidence weights.
const (
	weightProductName    = 0.35
	weightUnknownProduct = 0.10
	weightBrand          = 0.20
	weightExpiry         = 0.20
	weightMfg            = 0.05
	weightIngredient     = 0.01
	maxScoredIngredients = 10
	weightWarnings       = 0.05

	// ShortInputLength is the input length below which the score is halved.
	ShortInputLength = 50
	shortInputFactor = 0.5
)

// Score rates how completely f was filled, in [0, 1] rounded to three
// decimals. More present fields never lower the score, and inputs shorter
// than ShortInputLength characters are halved.
func Score(f Fields, inputLen int) float64 {
	var s float64
	if f.HasProductName() {
		s += weightProductName
	} else {
		s += weightUnknownProduct
	}
	if present(f.Brand) {
		s += weightBrand
	}
	if present(f.ExpiryDate) {
		s += weightExpiry
	}
	if present(f.MfgDate) {
		s += weightMfg
	}
	n := len(f.Ingredients)
	if n > maxScoredIngredients {
		n = maxScoredIngredients
	}
	s += float64(n) * weightIngredient
	if len(f.Warnings) > 0 {
		s += weightWarnings
	}

	if inputLen < ShortInputLength {
		s *= shortInputFactor
	}
	return math.Round(math.Min(1, math.Max(0, s))*1000) / 1000
}
