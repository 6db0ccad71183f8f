package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region split ratios, expressed in percent of image height.
const (
	FrontPercent     = 40
	BackStartPercent = 60
)

// Region names.
const (
	RegionFront  = "front"
	RegionMiddle = "middle"
	RegionBack   = "back"
	RegionFull   = "full"
)

// RegionBounds records where a RegionSet was split.
type RegionBounds struct {
	FrontEndY  int `json:"front_end_y"`
	BackStartY int `json:"back_start_y"`
	Width      int `json:"width"`
	Height     int `json:"height"`
}

// Shape is the (height, width, channels) triple of a region.
type Shape struct {
	Height   int `json:"height"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

// RegionSet is a fixed geometric partition of a label image. Front, Middle and
// Back are views over Full where the source image supports SubImage.
type RegionSet struct {
	Front  image.Image
	Middle image.Image
	Back   image.Image
	Full   image.Image
	Bounds RegionBounds
}

// SplitRegions partitions img by height: rows [0, 40%) are the front region,
// [40%, 60%) the middle band and [60%, h) the back region. Split rows are
// floored, so the front has floor(0.4h) rows and the back h-floor(0.6h).
func SplitRegions(img image.Image) *RegionSet {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	frontEnd := h * FrontPercent / 100
	backStart := h * BackStartPercent / 100

	return &RegionSet{
		Front:  SubImage(img, image.Rect(0, 0, w, frontEnd)),
		Middle: SubImage(img, image.Rect(0, frontEnd, w, backStart)),
		Back:   SubImage(img, image.Rect(0, backStart, w, h)),
		Full:   img,
		Bounds: RegionBounds{
			FrontEndY:  frontEnd,
			BackStartY: backStart,
			Width:      w,
			Height:     h,
		},
	}
}

// Shapes returns the shape of every region keyed by region name.
func (r *RegionSet) Shapes() map[string]Shape {
	return map[string]Shape{
		RegionFront:  ShapeOf(r.Front),
		RegionMiddle: ShapeOf(r.Middle),
		RegionBack:   ShapeOf(r.Back),
		RegionFull:   ShapeOf(r.Full),
	}
}

// ShapeOf reports img's shape. Label images are always three-channel once
// normalized.
func ShapeOf(img image.Image) Shape {
	if img == nil {
		return Shape{}
	}
	b := img.Bounds()
	return Shape{Height: b.Dy(), Width: b.Dx(), Channels: 3}
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// SubImage returns the part of img inside rect, given relative to img's
// top-left corner. It returns a view when img supports it and a copy
// otherwise.
func SubImage(img image.Image, rect image.Rectangle) image.Image {
	b := img.Bounds()
	abs := rect.Add(b.Min).Intersect(b)
	if s, ok := img.(subImager); ok {
		return s.SubImage(abs)
	}
	return imaging.Crop(img, abs)
}

// Crop extracts the rectangle (x1,y1)-(x2,y2), relative to img's top-left
// corner, as a view.
func Crop(img image.Image, x1, y1, x2, y2 int) (image.Image, error) {
	b := img.Bounds()
	if x1 < 0 || y1 < 0 || x2 > b.Dx() || y2 > b.Dy() {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds %dx%d",
			x1, y1, x2, y2, b.Dx(), b.Dy())
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return SubImage(img, image.Rect(x1, y1, x2, y2)), nil
}
