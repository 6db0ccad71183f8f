package ocr

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Recognition preprocessing parameters.
const (
	MinRecognitionWidth = 300
	denoiseRadius       = 0.6
	contrastBoost       = 25.0
	darkLabelLightness  = 0.45
	polaritySamples     = 64
)

// Preprocess prepares an image for recognition: grayscale, inverted when the
// label is light text on a dark background, lightly denoised, contrast
// enhanced and upscaled to at least MinRecognitionWidth pixels wide.
func Preprocess(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	if meanLightness(gray) < darkLabelLightness {
		gray = imaging.Invert(gray)
	}

	denoised := blur.Gaussian(gray, denoiseRadius)
	out := imaging.AdjustContrast(denoised, contrastBoost)

	if w := out.Bounds().Dx(); w > 0 && w < MinRecognitionWidth {
		scale := int(math.Ceil(float64(MinRecognitionWidth) / float64(w)))
		out = imaging.Resize(out, w*scale, 0, imaging.CatmullRom)
	}
	return out
}

// meanLightness is the mean CIE L* (0..1) over a sparse sample grid.
func meanLightness(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 1
	}

	stepX := max(1, b.Dx()/polaritySamples)
	stepY := max(1, b.Dy()/polaritySamples)

	var sum float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			sum += l
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}
