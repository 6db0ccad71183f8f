package ocr

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	limg "github.com/ironsheep/labelvision/internal/imaging"
	"github.com/ironsheep/labelvision/internal/scanerr"
)

// Engine recognizes text in an image.
//
// ExtractText returns "" when no text passes the gibberish filter; that is the
// normal "no text found" outcome, not an error. Errors are reserved for
// recognition failures and are *scanerr.Error values with code OCR_FAILED or
// ENGINE_INIT_FAILED.
type Engine interface {
	Name() string
	ExtractText(ctx context.Context, img image.Image) (string, error)
}

// Kind selects an Engine implementation.
type Kind string

const (
	// KindTesseract is the fast general-purpose engine.
	KindTesseract Kind = "tesseract"

	// KindMultilingual tries every quarter rotation with orientation
	// detection and keeps the most confident reading.
	KindMultilingual Kind = "multilingual"

	// KindCurved recognizes horizontal bands independently, deskewing each
	// one, for text printed around bottles and tubes.
	KindCurved Kind = "curved"
)

// Kinds lists every supported engine kind.
var Kinds = []Kind{KindTesseract, KindMultilingual, KindCurved}

// ParseKind maps a configuration value to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown OCR engine %q", s)
}

// Options configures an engine.
type Options struct {
	// Languages are Tesseract language codes. Defaults to ["eng"].
	Languages []string

	// UseGPU requests GPU inference. Tesseract runs on the CPU only, so the
	// flag is accepted and logged.
	UseGPU bool

	// MinConfidence in [0,1] drops per-line detections below it. Used by the
	// engines that score individual detections.
	MinConfidence float64

	// TessdataPrefix overrides the location of the traineddata files.
	TessdataPrefix string
}

// recognizer is the subset of *gosseract.Client the engines use.
type recognizer interface {
	SetTessdataPrefix(prefix string) error
	SetLanguage(langs ...string) error
	SetVariable(key gosseract.SettableVariable, value string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

type clientFactory func() recognizer

// pageSegModeVar carries the layout mode through the client's variables,
// which gosseract applies after each Tesseract Init. A mode set directly on
// an uninitialized client is reset by the first Init.
const pageSegModeVar gosseract.SettableVariable = "tessedit_pageseg_mode"

func setLayout(client recognizer, mode gosseract.PageSegMode) error {
	return client.SetVariable(pageSegModeVar, strconv.Itoa(int(mode)))
}

func newTesseractClient() recognizer {
	return gosseract.NewClient()
}

// base holds what every engine variant shares.
type base struct {
	name      string
	opts      Options
	newClient clientFactory
	logger    zerolog.Logger
}

// New constructs the engine selected by kind.
func New(kind Kind, opts Options, logger zerolog.Logger) (Engine, error) {
	return newEngine(kind, opts, newTesseractClient, logger)
}

func newEngine(kind Kind, opts Options, factory clientFactory, logger zerolog.Logger) (Engine, error) {
	langs := make([]string, 0, len(opts.Languages))
	for _, l := range opts.Languages {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(opts.Languages) == 0 {
		langs = []string{"eng"}
	}
	if len(langs) == 0 {
		return nil, scanerr.NewEngineInitError(string(kind), fmt.Errorf("no usable language codes in %v", opts.Languages))
	}
	opts.Languages = langs

	if opts.MinConfidence < 0 || opts.MinConfidence > 1 {
		return nil, scanerr.NewEngineInitError(string(kind), fmt.Errorf("min confidence %v outside [0,1]", opts.MinConfidence))
	}

	b := base{
		name:      string(kind),
		opts:      opts,
		newClient: factory,
		logger:    logger.With().Str("component", "ocr").Str("engine", string(kind)).Logger(),
	}
	if opts.UseGPU {
		b.logger.Warn().Msg("GPU inference not available for tesseract backends, using CPU")
	}

	switch kind {
	case KindTesseract:
		return &TesseractEngine{base: b}, nil
	case KindMultilingual:
		return &MultilingualEngine{base: b}, nil
	case KindCurved:
		return &CurvedEngine{base: b}, nil
	default:
		return nil, scanerr.NewEngineInitError(string(kind), fmt.Errorf("unknown OCR engine %q", kind))
	}
}

func (b *base) Name() string {
	return b.name
}

// open creates a recognizer loaded with png and the configured languages.
func (b *base) open(png []byte) (recognizer, error) {
	client := b.newClient()
	if b.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(b.opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, scanerr.NewEngineInitError(b.name, fmt.Errorf("failed to set tessdata path: %w", err))
		}
	}
	if err := client.SetLanguage(b.opts.Languages...); err != nil {
		client.Close()
		return nil, scanerr.NewEngineInitError(b.name, fmt.Errorf("failed to set language: %w", err))
	}
	if err := client.SetImageFromBytes(png); err != nil {
		client.Close()
		return nil, scanerr.NewOCRError(b.name, "load", fmt.Errorf("failed to set image: %w", err))
	}
	return client, nil
}

// lines recognizes text lines with the given layout mode and keeps those at or
// above the confidence threshold. Score is the confidence-weighted rune count
// of the kept lines.
func (b *base) lines(client recognizer, mode gosseract.PageSegMode, tier string) (string, float64, error) {
	if err := setLayout(client, mode); err != nil {
		return "", 0, scanerr.NewOCRError(b.name, tier, fmt.Errorf("failed to set page segmentation mode: %w", err))
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return "", 0, scanerr.NewOCRError(b.name, tier, err)
	}

	var kept []string
	score := 0.0
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		confidence := box.Confidence / 100.0
		if text == "" || confidence < b.opts.MinConfidence {
			continue
		}
		kept = append(kept, text)
		score += confidence * float64(len([]rune(text)))
	}
	return strings.Join(kept, "\n"), score, nil
}

// ExtractFromBytes decodes data and runs engine on it. Undecodable bytes yield
// the DECODE_FAILED error from the decoder.
func ExtractFromBytes(ctx context.Context, engine Engine, data []byte) (string, error) {
	img, _, err := limg.Decode(data)
	if err != nil {
		return "", err
	}
	return engine.ExtractText(ctx, img)
}
