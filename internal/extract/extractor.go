package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ironsheep/labelvision/internal/scanerr"
)

// AIStatus is the outcome of the AI-assisted pass.
type AIStatus string

const (
	AISuccess            AIStatus = "success"
	AIServiceUnavailable AIStatus = "service_unavailable"
	AINotConfigured      AIStatus = "not_configured"
	AIParseFailed        AIStatus = "parse_failed"
	AISkipped            AIStatus = "skipped"
)

// AIResult is the tagged result of the AI-assisted pass. Fields is only
// meaningful when Status is AISuccess.
type AIResult struct {
	Status   AIStatus
	Fields   Fields
	Strategy string
	Err      error
}

// Extractor turns cleaned region text into structured fields.
type Extractor struct {
	gen    Generator
	brands []string
	logger zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBrands replaces the known-brand list. An empty list keeps the default.
func WithBrands(brands []string) Option {
	return func(e *Extractor) {
		if len(brands) > 0 {
			e.brands = append([]string(nil), brands...)
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor. A nil gen disables the AI-assisted pass.
func New(gen Generator, opts ...Option) *Extractor {
	if gen == nil {
		gen = NotConfigured{}
	}
	e := &Extractor{gen: gen, brands: KnownBrands, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the AI-assisted pass, always computes the heuristic pass and
// merges them. It never fails: service and parse errors fall back to the
// heuristic fields, and unexpected failures yield an empty result with
// FailureReason set.
func (e *Extractor) Extract(ctx context.Context, in Input) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("extraction failed")
			res = Result{
				Fields:        EmptyFields(),
				FailureReason: fmt.Sprintf("extraction failed: %v", r),
				Tier1:         AIResult{Status: AISkipped},
			}
		}
	}()

	combined := strings.TrimSpace(Combine(in))
	n := textLength(combined)
	if n < MinInputLength {
		return Result{Fields: EmptyFields(), InputLength: n, Tier1: AIResult{Status: AISkipped}}
	}

	ai := e.tier1(ctx, combined)
	fallback := Heuristic(in, e.brands)

	fields := fallback
	if ai.Status == AISuccess {
		fields = Merge(ai.Fields, fallback)
	}

	e.logger.Debug().
		Str("tier1", string(ai.Status)).
		Str("strategy", ai.Strategy).
		Int("input_length", n).
		Msg("fields extracted")

	return Result{
		Fields:      fields,
		Confidence:  Score(fields, n),
		Summary:     summarize(fields),
		Tier1:       ai,
		InputLength: n,
	}
}

// textLength counts the runes of text with image tag lines left out.
func textLength(text string) int {
	return utf8.RuneCountInString(strings.Join(lines(text), "\n"))
}

func (e *Extractor) tier1(ctx context.Context, text string) AIResult {
	raw, err := e.gen.Generate(ctx, BuildPrompt(text))
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return AIResult{Status: AINotConfigured, Err: err}
		}
		e.logger.Warn().Err(err).Msg("generative-text service unavailable, using heuristics")
		return AIResult{Status: AIServiceUnavailable, Err: scanerr.NewServiceUnavailableError("generative-text", err)}
	}

	obj, strategy, err := ParseResponse(raw)
	if err != nil {
		e.logger.Warn().Err(err).Msg("could not parse service response, using heuristics")
		return AIResult{Status: AIParseFailed, Err: scanerr.NewParseError(len(repairStrategies), err)}
	}
	return AIResult{Status: AISuccess, Fields: fieldsFromMap(obj), Strategy: strategy}
}

// Merge takes each field from ai when it carries a value and from fallback
// otherwise.
func Merge(ai, fallback Fields) Fields {
	out := fallback
	if ai.HasProductName() {
		out.ProductName = ai.ProductName
	}
	if present(ai.Brand) {
		out.Brand = ai.Brand
	}
	if present(ai.ExpiryDate) {
		out.ExpiryDate = ai.ExpiryDate
	}
	if present(ai.MfgDate) {
		out.MfgDate = ai.MfgDate
	}
	if len(ai.Ingredients) > 0 {
		out.Ingredients = ai.Ingredients
	}
	if len(ai.Warnings) > 0 {
		out.Warnings = ai.Warnings
	}
	if out.Ingredients == nil {
		out.Ingredients = []string{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return out
}

// fieldsFromMap reads the six known keys from a parsed response. Placeholder
// strings become nil and are dropped from lists.
func fieldsFromMap(obj map[string]any) Fields {
	f := EmptyFields()
	f.ProductName = stringField(obj["product_name"])
	f.Brand = stringField(obj["brand"])
	f.ExpiryDate = stringField(obj["expiry_date"])
	f.MfgDate = stringField(obj["mfg_date"])
	f.Ingredients = listField(obj["ingredients"])
	f.Warnings = listField(obj["warnings"])
	return f
}

func stringField(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return nil
	}
	return &s
}

func listField(v any) []string {
	out := []string{}
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if s := stringField(item); s != nil {
				out = append(out, *s)
			}
		}
	case string:
		// Some responses flatten the list into one comma-separated string.
		for _, part := range strings.Split(items, ",") {
			if s := stringField(part); s != nil {
				out = append(out, *s)
			}
		}
	}
	return out
}
