// Package pipeline orchestrates a label scan: quality gate, normalization,
// region split, OCR of the front, back and full image, text cleaning, field
// extraction and the quality penalty. Each scan is independent; a Pipeline
// keeps only its injected engine, extractor and options.
package pipeline
