package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	limg "github.com/ironsheep/labelvision/internal/imaging"
	"github.com/ironsheep/labelvision/internal/scanerr"
)

// Tier is one layout mode of the fast engine's fallback chain.
type Tier struct {
	Name string
	Mode gosseract.PageSegMode
}

// FastTiers is the fast engine's fallback chain, tried in order.
var FastTiers = []Tier{
	{Name: "block", Mode: gosseract.PSM_SINGLE_BLOCK},
	{Name: "sparse", Mode: gosseract.PSM_SPARSE_TEXT},
	{Name: "auto", Mode: gosseract.PSM_AUTO},
}

// TesseractEngine is the fast general-purpose engine.
type TesseractEngine struct {
	base
}

// ExtractText recognizes img.
//
// Recognition runs with single-block layout first, then sparse-text, then
// fully automatic segmentation. The first result that passes IsValidText is
// returned trimmed.
//
// Parameters:
//   - ctx: Checked between tiers; cancellation aborts with ctx.Err().
//   - img: Any image; it is preprocessed before recognition.
//
// Returns:
//   - string: The first valid text, or "" when every tier produced noise.
//   - error: OCR_FAILED or ENGINE_INIT_FAILED scanerr errors. An empty
//     result is not an error.
func (e *TesseractEngine) ExtractText(ctx context.Context, img image.Image) (string, error) {
	png, err := limg.EncodePNG(Preprocess(img))
	if err != nil {
		return "", scanerr.NewOCRError(e.name, "preprocess", err)
	}

	client, err := e.open(png)
	if err != nil {
		return "", err
	}
	defer client.Close()

	for _, tier := range FastTiers {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if err := setLayout(client, tier.Mode); err != nil {
			return "", scanerr.NewOCRError(e.name, tier.Name, fmt.Errorf("failed to set page segmentation mode: %w", err))
		}
		text, err := client.Text()
		if err != nil {
			return "", scanerr.NewOCRError(e.name, tier.Name, err)
		}

		text = strings.TrimSpace(text)
		ok, reason := CheckText(text)
		if ok {
			e.logger.Debug().Str("tier", tier.Name).Int("chars", len(text)).Msg("text accepted")
			return text, nil
		}
		e.logger.Debug().Str("tier", tier.Name).Str("reason", reason).Msg("text rejected")
	}

	return "", nil
}
