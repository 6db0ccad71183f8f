// Package imaging implements the pixel-level stages of the label pipeline:
// decoding, the advisory quality gate, normalization and region splitting.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Rectangles passed to Crop and SubImage are relative to
// the image's own top-left corner; (x1,y1) is inclusive and (x2,y2) exclusive.
//
// # Quality Gate
//
// ValidateQuality scores encoded bytes on four measurements:
//   - Resolution: pixel count against 720x720
//   - Blur: variance of the 4-neighbour Laplacian of luma, divided by 500 and
//     clamped to 1 (minimum 0.10)
//   - Brightness: mean luma / 255, within [0.08, 0.98]
//   - Contrast: luma standard deviation / 255, at least 0.05
//
// The report is advisory. It never blocks later stages and never fails; bytes
// that cannot be decoded produce an invalid report with one decode issue.
//
// # Normalization
//
// Normalize applies EXIF orientation (best effort), flattens transparency onto
// white and resizes to a width of 1024 with Lanczos resampling. It applies no
// denoising or contrast changes, so its output is deterministic and shared by
// every OCR engine.
//
// # Regions
//
// SplitRegions is a fixed geometric prior: the top 40% of rows is the front
// region, the bottom 40% the back region and the remaining band the middle.
// Regions are views over the normalized image, not copies.
//
// # Thread Safety
//
// Every function is stateless and safe for concurrent use on distinct images.
// Region views alias their parent, so callers must not mutate a normalized
// image while its regions are being read.
package imaging
