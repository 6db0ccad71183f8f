package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned by a Generator that has no service credential.
var ErrNotConfigured = errors.New("generative-text service not configured")

// Generator sends a prompt to a generative-text service and returns the raw
// response text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NotConfigured is the Generator used when no credential is available. Every
// call fails with ErrNotConfigured, which disables the AI-assisted pass.
type NotConfigured struct{}

func (NotConfigured) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const maxOutputTokens = 2048

// GeminiGenerator calls Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator creates a client for modelName. An empty apiKey yields
// ErrNotConfigured so callers can fall back to NotConfigured.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(maxOutputTokens)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = fieldsSchema()

	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate returns the text parts of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response from Gemini API")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini API (finish reason: %v)", resp.Candidates[0].FinishReason)
	}
	// A response cut at the token limit is returned as is; JSON repair
	// recovers what it can.
	return sb.String(), nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func fieldsSchema() *genai.Schema {
	str := func(desc string, nullable bool) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc, Nullable: nullable}
	}
	list := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: &genai.Schema{Type: genai.TypeString}}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"product_name": str("Descriptive product name, never null", false),
			"brand":        str("Brand or manufacturer", true),
			"expiry_date":  str("Expiry or best-before date as printed", true),
			"mfg_date":     str("Manufacturing date as printed", true),
			"ingredients":  list("Individual ingredients"),
			"warnings":     list("Warning or caution statements"),
		},
		Required: fieldNames,
	}
}

const promptTemplate = `You are a product label analyzer. Extract product details from this OCR text of a product label.

OCR TEXT:
%s

Return ONLY a JSON object with EXACTLY these six keys:
- product_name: descriptive product name (e.g. "Ceramide Mochi Toner"). Never null: if unsure, give your best approximate name.
- brand: brand or manufacturer (e.g. "TONYMOLY"), or null if not clearly present.
- expiry_date: expiry / best-before / use-by date exactly as printed, or null. Never guess a date.
- mfg_date: manufacturing date exactly as printed, or null. Never guess a date.
- ingredients: array of individual ingredients without bullets or dashes, or [].
- warnings: array of complete warning or caution phrases, or [].

Do not write "unknown", "N/A" or empty strings; use null or [].

Example 1
OCR TEXT:
LANEIGE
Water Sleeping Mask
EXP 08/2027
Ingredients: Water, Butylene Glycol, Glycerin
Caution: For external use only
JSON:
{"product_name": "Water Sleeping Mask", "brand": "LANEIGE", "expiry_date": "08/2027", "mfg_date": null, "ingredients": ["Water", "Butylene Glycol", "Glycerin"], "warnings": ["Caution: For external use only"]}

Example 2
OCR TEXT:
Gentle Foaming Cleanser
MFG 01/03/2024
JSON:
{"product_name": "Gentle Foaming Cleanser", "brand": null, "expiry_date": null, "mfg_date": "01/03/2024", "ingredients": [], "warnings": []}

JSON:`

// BuildPrompt fills the extraction instruction template with text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}
