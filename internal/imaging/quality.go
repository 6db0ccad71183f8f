package imaging

import (
	"image"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/effect"
)

// Quality thresholds.
const (
	MinWidth        = 720
	MinHeight       = 720
	MinBlurScore    = 0.10
	BlurDivisor     = 500.0
	MinBrightness   = 0.08
	MaxBrightness   = 0.98
	MinContrast     = 0.05
	AcceptableImage = "Image quality acceptable"
)

// Issue messages, in the order they are checked.
const (
	IssueLowResolution = "Image resolution too low - move closer"
	IssueBlurry        = "Image is blurry - hold camera steady"
	IssueTooDark       = "Too dark - move to better lighting"
	IssueTooBright     = "Too bright or washed out - reduce glare"
	IssueLowContrast   = "Low contrast - improve lighting angle"
	issueDecodePrefix  = "Cannot read image: "
)

// QualityMetrics holds the raw measurements behind a QualityReport. Scores
// are rounded to three decimals.
type QualityMetrics struct {
	// Resolution is (height, width).
	Resolution [2]int  `json:"resolution"`
	BlurScore  float64 `json:"blur_score"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
}

// QualityReport is the advisory verdict of the quality gate.
type QualityReport struct {
	IsValid  bool           `json:"is_valid"`
	Issues   []string       `json:"issues"`
	Metrics  QualityMetrics `json:"metrics"`
	Feedback string         `json:"feedback"`
}

// ValidateQuality scores encoded image bytes on resolution, blur, brightness
// and contrast. It never fails: undecodable input yields an invalid report with
// a single decode issue.
func ValidateQuality(data []byte) *QualityReport {
	img, _, err := Decode(data)
	if err != nil {
		return newReport([]string{issueDecodePrefix + err.Error()}, QualityMetrics{})
	}
	return AssessQuality(img)
}

// AssessQuality scores an already decoded image.
func AssessQuality(img image.Image) *QualityReport {
	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	mean, std := lumaStats(gray)
	brightness := mean / 255.0
	contrast := std / 255.0
	blur := math.Min(laplacianVariance(gray)/BlurDivisor, 1.0)

	var issues []string
	if w*h < MinWidth*MinHeight {
		issues = append(issues, IssueLowResolution)
	}
	if blur < MinBlurScore {
		issues = append(issues, IssueBlurry)
	}
	if brightness < MinBrightness {
		issues = append(issues, IssueTooDark)
	} else if brightness > MaxBrightness {
		issues = append(issues, IssueTooBright)
	}
	if contrast < MinContrast {
		issues = append(issues, IssueLowContrast)
	}

	return newReport(issues, QualityMetrics{
		Resolution: [2]int{h, w},
		BlurScore:  round3(blur),
		Brightness: round3(brightness),
		Contrast:   round3(contrast),
	})
}

func newReport(issues []string, metrics QualityMetrics) *QualityReport {
	if issues == nil {
		issues = []string{}
	}
	feedback := AcceptableImage
	if len(issues) > 0 {
		feedback = strings.Join(issues, " | ")
	}
	return &QualityReport{
		IsValid:  len(issues) == 0,
		Issues:   issues,
		Metrics:  metrics,
		Feedback: feedback,
	}
}

// lumaStats returns the mean and population standard deviation of gray.
func lumaStats(gray *image.Gray) (float64, float64) {
	b := gray.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := float64(row[x])
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// laplacianVariance convolves gray with the 4-neighbour Laplacian kernel
//
//	[0  1  0]
//	[1 -4  1]
//	[0  1  0]
//
// and returns the variance of the response. Borders replicate edge pixels.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x, y-1) + at(x-1, y) + at(x+1, y) + at(x, y+1) - 4*at(x, y)
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	return sumSq/n - mean*mean
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
