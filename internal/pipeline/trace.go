package pipeline

import "github.com/ironsheep/labelvision/internal/imaging"

// Trace is the diagnostic record of one scan. Extraction never reads it.
type Trace struct {
	Validation     *imaging.QualityReport     `json:"validation,omitempty"`
	Normalization  *imaging.NormalizeMetadata `json:"normalization,omitempty"`
	NormalizeError string                     `json:"normalize_error,omitempty"`
	Regions        *RegionTrace               `json:"regions,omitempty"`
	OCR            *OCRTrace                  `json:"ocr,omitempty"`
	Extraction     *ExtractionTrace           `json:"extraction,omitempty"`
	RawText        *RawText                   `json:"raw_text,omitempty"`

	// Images holds the per-image traces of a multi-image scan.
	Images []Trace `json:"images,omitempty"`
}

type RegionTrace struct {
	Shapes map[string]imaging.Shape `json:"shapes"`
	Bounds imaging.RegionBounds     `json:"bounds"`
}

// OCRTrace reports the character count read from each region.
type OCRTrace struct {
	Engine          string `json:"engine"`
	FrontTextLength int    `json:"front_text_length"`
	BackTextLength  int    `json:"back_text_length"`
	FullTextLength  int    `json:"full_text_length"`
}

type ExtractionTrace struct {
	Tier1       string `json:"tier1"`
	Strategy    string `json:"repair_strategy,omitempty"`
	InputLength int    `json:"input_length"`
}

// RawText previews the cleaned front and back text.
type RawText struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
