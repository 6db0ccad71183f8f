package ocr

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	limg "github.com/ironsheep/labelvision/internal/imaging"
	"github.com/ironsheep/labelvision/internal/scanerr"
)

// MultilingualEngine reads the image at all four quarter rotations with
// orientation and script detection, and keeps the reading with the highest
// confidence-weighted score among those that pass the gibberish filter.
type MultilingualEngine struct {
	base
}

type rotation struct {
	degrees int
	apply   func(image.Image) *image.NRGBA
}

var rotations = []rotation{
	{0, imaging.Clone},
	{90, imaging.Rotate90},
	{180, imaging.Rotate180},
	{270, imaging.Rotate270},
}

// ExtractText returns the best reading over all rotations, or "" when none
// passes the filter. Ties keep the earlier rotation, so upright text wins.
func (e *MultilingualEngine) ExtractText(ctx context.Context, img image.Image) (string, error) {
	prepared := Preprocess(img)
	allowNonASCII := e.nonLatin()

	best, bestScore, bestDegrees := "", 0.0, -1
	for _, rot := range rotations {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		png, err := limg.EncodePNG(rot.apply(prepared))
		if err != nil {
			return "", scanerr.NewOCRError(e.name, "preprocess", err)
		}
		text, score, err := e.read(png)
		if err != nil {
			return "", err
		}

		if ok, reason := checkText(text, allowNonASCII); !ok {
			e.logger.Debug().Int("rotation", rot.degrees).Str("reason", reason).Msg("reading rejected")
			continue
		}
		if score > bestScore {
			best, bestScore, bestDegrees = text, score, rot.degrees
		}
	}

	if bestDegrees >= 0 {
		e.logger.Debug().Int("rotation", bestDegrees).Float64("score", bestScore).Msg("reading accepted")
	}
	return best, nil
}

func (e *MultilingualEngine) read(png []byte) (string, float64, error) {
	client, err := e.open(png)
	if err != nil {
		return "", 0, err
	}
	defer client.Close()
	return e.lines(client, gosseract.PSM_AUTO_OSD, "osd")
}

// nonLatin reports whether any configured language is expected to produce
// characters outside ASCII. Only English output is held to the ASCII rule.
func (e *MultilingualEngine) nonLatin() bool {
	for _, l := range e.opts.Languages {
		if l != "eng" && l != "osd" {
			return true
		}
	}
	return false
}
