// Package config loads process-wide settings for the label pipeline.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// YAML config file, a .env file in the working directory, and environment
// variables prefixed with LABELVISION_ (dots become underscores, so
// ocr.engine is LABELVISION_OCR_ENGINE). GOOGLE_API_KEY is also accepted for
// the generative-text service credential.
//
// A Config is read-only once loaded.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OCR engine selectors.
const (
	EngineTesseract    = "tesseract"
	EngineMultilingual = "multilingual"
	EngineCurved       = "curved"
)

// OCR configures the recognition engine.
type OCR struct {
	Engine         string   `mapstructure:"engine"`
	Languages      []string `mapstructure:"languages"`
	UseGPU         bool     `mapstructure:"use_gpu"`
	MinConfidence  float64  `mapstructure:"min_confidence"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix"`
}

// Extract configures the field extractor.
type Extract struct {
	APIKey     string   `mapstructure:"api_key"`
	Model      string   `mapstructure:"model"`
	Brands     []string `mapstructure:"brands"`
	BrandsFile string   `mapstructure:"brands_file"`
}

// Pipeline configures the orchestrator.
type Pipeline struct {
	MaxParallelImages int `mapstructure:"max_parallel_images"`
}

// Log configures the logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the root configuration.
type Config struct {
	OCR      OCR      `mapstructure:"ocr"`
	Extract  Extract  `mapstructure:"extract"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Log      Log      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ocr.engine", EngineTesseract)
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.use_gpu", false)
	v.SetDefault("ocr.min_confidence", 0.30)
	v.SetDefault("ocr.tessdata_prefix", "")

	v.SetDefault("extract.api_key", "")
	v.SetDefault("extract.model", "gemini-2.5-flash")
	v.SetDefault("extract.brands", []string{})
	v.SetDefault("extract.brands_file", "")

	v.SetDefault("pipeline.max_parallel_images", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration. configFile may be empty, in which case only
// defaults and the environment are used.
func Load(configFile string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LABELVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("extract.api_key", "LABELVISION_EXTRACT_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.OCR.Engine = strings.ToLower(strings.TrimSpace(cfg.OCR.Engine))

	if cfg.Extract.BrandsFile != "" {
		brands, err := LoadBrands(cfg.Extract.BrandsFile)
		if err != nil {
			return nil, err
		}
		cfg.Extract.Brands = append(cfg.Extract.Brands, brands...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.OCR.Engine {
	case EngineTesseract, EngineMultilingual, EngineCurved:
	default:
		return fmt.Errorf("invalid ocr.engine %q: must be one of %s, %s, %s",
			c.OCR.Engine, EngineTesseract, EngineMultilingual, EngineCurved)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("invalid ocr.min_confidence %v: must be within [0,1]", c.OCR.MinConfidence)
	}
	if len(c.OCR.Languages) == 0 {
		return errors.New("ocr.languages must name at least one language")
	}
	if c.Pipeline.MaxParallelImages < 1 {
		return fmt.Errorf("invalid pipeline.max_parallel_images %d: must be at least 1", c.Pipeline.MaxParallelImages)
	}
	return nil
}

// AIEnabled reports whether a generative-text credential is configured.
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.Extract.APIKey) != ""
}

// LoadBrands reads a YAML sequence of brand names.
func LoadBrands(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read brands file: %w", err)
	}

	var brands []string
	if err := yaml.Unmarshal(data, &brands); err != nil {
		return nil, fmt.Errorf("failed to parse brands file: %w", err)
	}

	out := brands[:0]
	for _, b := range brands {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out, nil
}
