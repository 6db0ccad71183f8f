// Package ocr provides the interchangeable text-recognition engines of the
// label pipeline, built on Tesseract (via gosseract/v2).
//
// # Engines
//
// Every engine satisfies Engine and is selected by Kind at construction:
//
//   - tesseract: fast general-purpose engine. Tries single-block, then
//     sparse-text, then fully automatic layout and returns the first result
//     that passes the gibberish filter.
//   - multilingual: reads all four quarter rotations with orientation and
//     script detection and keeps the most confident valid reading.
//   - curved: splits the image into overlapping horizontal bands, deskews
//     and binarizes each band at several small angles, and joins the most
//     confident reading per band.
//
// # Gibberish Filter
//
// Recognizers produce confident-looking noise on blank or blurry regions.
// IsValidText rejects text that is shorter than 8 characters, has a letter
// ratio below 0.55, a special-character ratio above 0.20, more than 40
// characters with fewer than 2 spaces, or more than 5% non-ASCII or
// deny-listed symbols. An engine that finds nothing valid returns "".
//
// # Preprocessing
//
// Normalized images are shared across engines unchanged; each engine applies
// Preprocess itself (grayscale, polarity correction, light denoise, contrast
// boost, upscaling narrow crops to 300 pixels).
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The multilingual engine also needs osd.traineddata. Options.TessdataPrefix
// points at a non-default tessdata directory.
//
// # Concurrency
//
// Engines hold only read-only configuration and open a fresh Tesseract client
// per call, so one engine may serve concurrent calls.
package ocr
