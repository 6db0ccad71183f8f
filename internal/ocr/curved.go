package ocr

import (
	"context"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	limg "github.com/ironsheep/labelvision/internal/imaging"
	"github.com/ironsheep/labelvision/internal/scanerr"
)

// Curved engine parameters.
var (
	// DeskewAngles are tried per band, in degrees clockwise. Zero
	// comes first so it wins ties.
	DeskewAngles = []float64{0, -4, 4, -8, 8}
)

const (
	curvedBands      = 3
	minBandHeight    = 48
	bandOverlapRatio = 0.10
	binarizeLevel    = 128
)

// CurvedEngine targets text that follows the curve of a bottle or tube.
// Lines at different heights bend by different amounts, so the image is cut
// into overlapping horizontal bands and each band is deskewed and binarized
// independently before recognition.
type CurvedEngine struct {
	base
}

// ExtractText reads every band at each deskew angle, keeps the most confident
// reading per band and joins the bands top to bottom. Lines repeated in the
// overlap between neighbouring bands are kept once.
func (e *CurvedEngine) ExtractText(ctx context.Context, img image.Image) (string, error) {
	prepared := Preprocess(img)

	var out []string
	seen := map[string]bool{}
	for i, band := range bands(prepared) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, angle, err := e.readBand(ctx, band)
		if err != nil {
			return "", err
		}
		e.logger.Debug().Int("band", i).Float64("angle", angle).Int("chars", len(text)).Msg("band read")

		for _, line := range strings.Split(text, "\n") {
			key := strings.ToLower(strings.TrimSpace(line))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(line))
		}
	}

	text := strings.Join(out, "\n")
	if ok, reason := CheckText(text); !ok {
		e.logger.Debug().Str("reason", reason).Msg("text rejected")
		return "", nil
	}
	return text, nil
}

func (e *CurvedEngine) readBand(ctx context.Context, band image.Image) (string, float64, error) {
	best, bestScore, bestAngle := "", 0.0, 0.0
	for _, angle := range DeskewAngles {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		png, err := limg.EncodePNG(deskew(band, angle))
		if err != nil {
			return "", 0, scanerr.NewOCRError(e.name, "preprocess", err)
		}
		client, err := e.open(png)
		if err != nil {
			return "", 0, err
		}
		text, score, err := e.lines(client, gosseract.PSM_SPARSE_TEXT, "sparse")
		client.Close()
		if err != nil {
			return "", 0, err
		}

		if score > bestScore {
			best, bestScore, bestAngle = text, score, angle
		}
	}
	return best, bestAngle, nil
}

// bands cuts img into curvedBands overlapping horizontal strips. Images too
// short to split are returned whole.
func bands(img image.Image) []image.Image {
	h := img.Bounds().Dy()
	w := img.Bounds().Dx()
	if h < curvedBands*minBandHeight {
		return []image.Image{img}
	}

	step := h / curvedBands
	overlap := int(float64(h) * bandOverlapRatio)
	out := make([]image.Image, 0, curvedBands)
	for i := 0; i < curvedBands; i++ {
		y1 := max(0, i*step-overlap/2)
		y2 := min(h, (i+1)*step+overlap/2)
		if i == curvedBands-1 {
			y2 = h
		}
		out = append(out, limg.SubImage(img, image.Rect(0, y1, w, y2)))
	}
	return out
}

// deskew rotates band by angle degrees onto a white canvas and binarizes it.
func deskew(band image.Image, angle float64) *image.Gray {
	src := band
	if angle != 0 {
		rotated := transform.Rotate(band, angle, &transform.RotationOptions{ResizeBounds: true})
		b := rotated.Bounds()
		src = imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), rotated, image.Pt(0, 0), 1.0)
	}
	return segment.Threshold(src, binarizeLevel)
}
