// Package extract turns cleaned label text into structured fields.
//
// Extraction runs in two tiers. The AI-assisted tier sends the combined
// text to a Generator (Gemini by default) and parses its JSON answer,
// repairing fenced, preamble-wrapped or truncated output when needed. The
// heuristic tier is always computed from regular expressions and line
// position, and fills every field the AI tier left empty. Dates and brands
// are never guessed: no match yields nil.
//
// Score rates the merged fields' completeness. It is a heuristic, not a
// calibrated probability.
package extract
