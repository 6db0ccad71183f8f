package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// NormalizedWidth is the canonical width of every normalized image.
const NormalizedWidth = 1024

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NormalizeMetadata records what Normalize did to an image.
type NormalizeMetadata struct {
	OriginalSize   Size   `json:"original_size"`
	NormalizedSize Size   `json:"normalized_size"`
	Format         string `json:"format"`

	// Orientation is the EXIF orientation value (1 when absent or unreadable).
	Orientation      int    `json:"orientation"`
	OrientationFixed bool   `json:"orientation_fixed"`
	OrientationNote  string `json:"orientation_note,omitempty"`

	// Denoised is always false; recognition preprocessing belongs to the OCR
	// engines.
	Denoised bool `json:"denoised"`
}

// Normalize decodes data, applies EXIF orientation, flattens any alpha channel
// onto white and rescales to NormalizedWidth with Lanczos resampling,
// preserving aspect ratio.
//
// Returns:
//   - *image.NRGBA: The normalized image. Every pixel is fully opaque.
//   - *NormalizeMetadata: Sizes and orientation handling details.
//   - error: A DECODE_FAILED scanerr error if data is not a decodable image.
//     Orientation read failures are never returned; they are noted in the
//     metadata.
func Normalize(data []byte) (*image.NRGBA, *NormalizeMetadata, error) {
	img, format, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}

	bounds := img.Bounds()
	meta := &NormalizeMetadata{
		OriginalSize: Size{Width: bounds.Dx(), Height: bounds.Dy()},
		Format:       format,
		Orientation:  1,
	}

	orientation, note := readOrientation(data, format)
	meta.OrientationNote = note
	if orientation > 1 && orientation <= 8 {
		meta.Orientation = orientation
		img = applyOrientation(img, orientation)
		meta.OrientationFixed = true
	}

	flat := flatten(img)

	w, h := flat.Bounds().Dx(), flat.Bounds().Dy()
	targetHeight := int(float64(NormalizedWidth) * float64(h) / float64(w))
	if targetHeight < 1 {
		targetHeight = 1
	}
	out := imaging.Resize(flat, NormalizedWidth, targetHeight, imaging.Lanczos)

	meta.NormalizedSize = Size{Width: out.Bounds().Dx(), Height: out.Bounds().Dy()}
	return out, meta, nil
}

// readOrientation returns the EXIF orientation tag of data, or 0. Only formats
// that carry EXIF produce a note when the tag cannot be read.
func readOrientation(data []byte, format string) (int, string) {
	if format != "jpeg" && format != "tiff" {
		return 0, ""
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Sprintf("exif unreadable: %v", err)
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, "exif orientation tag absent"
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, fmt.Sprintf("exif orientation malformed: %v", err)
	}
	return v, ""
}

// applyOrientation maps EXIF orientation values to the transform that
// displays the image upright. imaging rotates counter-clockwise.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// flatten composites img onto an opaque white canvas.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
