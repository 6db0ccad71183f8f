package pipeline

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/labelvision/internal/extract"
	"github.com/ironsheep/labelvision/internal/imaging"
	"github.com/ironsheep/labelvision/internal/ocr"
	"github.com/ironsheep/labelvision/internal/scanerr"
	"github.com/ironsheep/labelvision/internal/textclean"
)

const (
	// QualityPenalty is subtracted from the confidence of scans whose image
	// failed the quality gate.
	QualityPenalty = 0.3

	// MinTextLength is the shortest trimmed full-image text worth extracting.
	MinTextLength = 5

	// NoTextReason is the failure reason when no usable text was found.
	NoTextReason = "Label text could not be detected. Please try a clearer image."

	// DefaultSuggestion is offered when the image passed the quality gate but
	// still yielded no text.
	DefaultSuggestion = "Fill the frame with the label, hold it flat and avoid glare."

	rawTextPreview = 200
)

// Image is one encoded input image.
type Image struct {
	Data        []byte
	ContentType string
}

// Result is the pipeline output: the extracted fields plus scan metadata and
// the diagnostic trace.
type Result struct {
	ID string `json:"id"`
	extract.Result
	Suggestion string `json:"suggestion,omitempty"`
	ScannedAt  string `json:"scannedAt"`
	Trace      Trace  `json:"pipeline"`
}

// Pipeline runs label images through quality gate, normalization, region
// split, OCR, cleaning and extraction. It holds no per-scan state and is
// safe for concurrent use when its engine and extractor are.
type Pipeline struct {
	engine      ocr.Engine
	extractor   *extract.Extractor
	logger      zerolog.Logger
	maxParallel int
	now         func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMaxParallel sets how many images of a multi-image scan are read at
// once. Values below 1 are ignored.
func WithMaxParallel(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.maxParallel = n
		}
	}
}

// WithClock replaces the clock used for ScannedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline.
func New(engine ocr.Engine, extractor *extract.Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:      engine,
		extractor:   extractor,
		logger:      zerolog.Nop(),
		maxParallel: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// regionText is the raw OCR output of one image.
type regionText struct {
	front, back, full string
	valid             bool
	feedback          string
	trace             Trace
}

// Process scans a single image. It fails only for a non-image content type,
// an OCR engine failure or cancellation; unreadable images and images without
// text yield a zero-confidence result with FailureReason set.
func (p *Pipeline) Process(ctx context.Context, img Image) (*Result, error) {
	if err := checkContentType(img.ContentType); err != nil {
		return nil, err
	}
	rt, err := p.read(ctx, img.Data)
	if err != nil {
		return nil, err
	}

	return p.finish(ctx, rt.front, rt.back, rt.full, rt.full, !rt.valid, rt.feedback, rt.trace), nil
}

// ProcessImages scans several photos of one product, such as front and back,
// and extracts from their combined text. Each image's text is tagged with
// "[IMAGE n]" in input order.
func (p *Pipeline) ProcessImages(ctx context.Context, imgs []Image) (*Result, error) {
	if len(imgs) == 0 {
		return nil, scanerr.NewInvalidInputError("no images supplied", nil)
	}
	if len(imgs) == 1 {
		return p.Process(ctx, imgs[0])
	}
	for i, img := range imgs {
		if err := checkContentType(img.ContentType); err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
	}

	texts := make([]*regionText, len(imgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxParallel)
	for i, img := range imgs {
		g.Go(func() error {
			rt, err := p.read(gctx, img.Data)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			texts[i] = rt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		front, back, full, untagged []string
		invalid                     bool
		feedback                    []string
		trace                       = Trace{OCR: &OCRTrace{Engine: p.engine.Name()}}
	)
	for i, rt := range texts {
		tag := extract.ImageTag(i + 1)
		front = append(front, tag+"\n"+rt.front)
		back = append(back, tag+"\n"+rt.back)
		full = append(full, tag+"\n"+rt.full)
		untagged = append(untagged, rt.full)
		if !rt.valid {
			invalid = true
			feedback = append(feedback, fmt.Sprintf("%s %s", tag, rt.feedback))
		}
		trace.Images = append(trace.Images, rt.trace)
		trace.OCR.FrontTextLength += rt.trace.OCR.FrontTextLength
		trace.OCR.BackTextLength += rt.trace.OCR.BackTextLength
		trace.OCR.FullTextLength += rt.trace.OCR.FullTextLength
	}

	return p.finish(ctx,
		strings.Join(front, "\n"), strings.Join(back, "\n"), strings.Join(full, "\n"),
		strings.Join(untagged, "\n"), invalid, strings.Join(feedback, " | "), trace), nil
}

// read runs the stages up to OCR for one image.
func (p *Pipeline) read(ctx context.Context, data []byte) (*regionText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := imaging.ValidateQuality(data)
	rt := &regionText{
		valid:    report.IsValid,
		feedback: report.Feedback,
		trace:    Trace{Validation: report, OCR: &OCRTrace{Engine: p.engine.Name()}},
	}
	p.logger.Debug().Str("stage", "validate").Bool("valid", report.IsValid).
		Strs("issues", report.Issues).Msg("quality gate")

	img, meta, err := imaging.Normalize(data)
	if err != nil {
		// The gate is advisory; OCR still gets a chance at the raw bytes.
		rt.trace.NormalizeError = err.Error()
		p.logger.Warn().Err(err).Str("stage", "normalize").Msg("normalization failed")
		text, ocrErr := ocr.ExtractFromBytes(ctx, p.engine, data)
		if ocrErr != nil {
			if scanerr.Is(ocrErr, scanerr.CodeDecodeFailed) {
				return rt, nil
			}
			return nil, ocrErr
		}
		rt.full = text
		rt.trace.OCR.FullTextLength = utf8.RuneCountInString(text)
		return rt, nil
	}
	rt.trace.Normalization = meta

	regions := imaging.SplitRegions(img)
	rt.trace.Regions = &RegionTrace{Shapes: regions.Shapes(), Bounds: regions.Bounds}
	p.logger.Debug().Str("stage", "split").Int("front_end_y", regions.Bounds.FrontEndY).
		Int("back_start_y", regions.Bounds.BackStartY).Msg("regions split")

	if rt.front, err = p.recognize(ctx, imaging.RegionFront, regions.Front); err != nil {
		return nil, err
	}
	if rt.back, err = p.recognize(ctx, imaging.RegionBack, regions.Back); err != nil {
		return nil, err
	}
	if rt.full, err = p.recognize(ctx, imaging.RegionFull, regions.Full); err != nil {
		return nil, err
	}
	rt.trace.OCR.FrontTextLength = utf8.RuneCountInString(rt.front)
	rt.trace.OCR.BackTextLength = utf8.RuneCountInString(rt.back)
	rt.trace.OCR.FullTextLength = utf8.RuneCountInString(rt.full)
	return rt, nil
}

func (p *Pipeline) recognize(ctx context.Context, region string, img image.Image) (string, error) {
	text, err := p.engine.ExtractText(ctx, img)
	if err != nil {
		return "", fmt.Errorf("%s region: %w", region, err)
	}
	p.logger.Debug().Str("stage", "ocr").Str("region", region).Str("engine", p.engine.Name()).
		Int("chars", utf8.RuneCountInString(text)).Msg("region read")
	return text, nil
}

// finish cleans the OCR text, extracts fields and applies the quality
// penalty. raw is the untagged full-image text used for the no-text check.
func (p *Pipeline) finish(ctx context.Context, front, back, full, raw string, invalid bool, feedback string, trace Trace) *Result {
	res := &Result{
		ID:        uuid.NewString()[:8],
		ScannedAt: p.now().UTC().Format(time.RFC3339),
	}

	if utf8.RuneCountInString(strings.TrimSpace(raw)) < MinTextLength {
		p.logger.Info().Str("stage", "ocr").Msg("no usable text found")
		res.Result = extract.Result{Fields: extract.EmptyFields(), FailureReason: NoTextReason}
		res.Suggestion = DefaultSuggestion
		if invalid && feedback != "" {
			res.Suggestion = feedback
		}
		res.Trace = trace
		return res
	}

	in := extract.Input{
		Front: textclean.Clean(front),
		Back:  textclean.Clean(back),
		Full:  textclean.Clean(full),
	}
	ex := p.extractor.Extract(ctx, in)
	if invalid {
		ex.Confidence = math.Max(0, math.Round((ex.Confidence-QualityPenalty)*1000)/1000)
	}

	trace.Extraction = &ExtractionTrace{
		Tier1:       string(ex.Tier1.Status),
		Strategy:    ex.Tier1.Strategy,
		InputLength: ex.InputLength,
	}
	trace.RawText = &RawText{Front: preview(in.Front), Back: preview(in.Back)}

	p.logger.Info().Str("stage", "extract").Str("tier1", string(ex.Tier1.Status)).
		Float64("confidence", ex.Confidence).Bool("penalized", invalid).Msg("scan complete")

	res.Result = ex
	res.Trace = trace
	return res
}

func checkContentType(ct string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/") {
		return scanerr.NewUnsupportedContentTypeError(ct)
	}
	return nil
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= rawTextPreview {
		return s
	}
	return string([]rune(s)[:rawTextPreview])
}
