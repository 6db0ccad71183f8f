package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ironsheep/labelvision/internal/config"
	"github.com/ironsheep/labelvision/internal/extract"
	"github.com/ironsheep/labelvision/internal/logging"
	"github.com/ironsheep/labelvision/internal/ocr"
	"github.com/ironsheep/labelvision/internal/pipeline"
)

// app holds the components shared by the scan and serve commands.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	engine    ocr.Engine
	extractor *extract.Extractor
	pipeline  *pipeline.Pipeline
	closers   []io.Closer
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOut,
	})

	kind, err := ocr.ParseKind(cfg.OCR.Engine)
	if err != nil {
		return nil, err
	}
	engine, err := ocr.New(kind, ocr.Options{
		Languages:      cfg.OCR.Languages,
		UseGPU:         cfg.OCR.UseGPU,
		MinConfidence:  cfg.OCR.MinConfidence,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create ocr engine: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, engine: engine}

	var gen extract.Generator = extract.NotConfigured{}
	if cfg.AIEnabled() {
		gemini, err := extract.NewGeminiGenerator(ctx, cfg.Extract.APIKey, cfg.Extract.Model)
		if err != nil {
			// Tier 2 still runs without the service.
			logger.Warn().Err(err).Msg("generative client unavailable, using heuristics only")
		} else {
			gen = gemini
			a.closers = append(a.closers, gemini)
		}
	} else {
		logger.Debug().Msg("no api key configured, using heuristics only")
	}

	a.extractor = extract.New(gen,
		extract.WithBrands(cfg.Extract.Brands),
		extract.WithLogger(logger),
	)
	a.pipeline = pipeline.New(engine, a.extractor,
		pipeline.WithMaxParallel(cfg.Pipeline.MaxParallelImages),
		pipeline.WithLogger(logger),
	)

	logger.Debug().
		Str("engine", engine.Name()).
		Strs("languages", cfg.OCR.Languages).
		Bool("ai", cfg.AIEnabled()).
		Int("max_parallel_images", cfg.Pipeline.MaxParallelImages).
		Msg("pipeline ready")
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
}
