package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("LABELVISION_EXTRACT_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EngineTesseract, cfg.OCR.Engine)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.InDelta(t, 0.30, cfg.OCR.MinConfidence, 1e-9)
	assert.False(t, cfg.OCR.UseGPU)
	assert.Equal(t, "gemini-2.5-flash", cfg.Extract.Model)
	assert.Equal(t, 1, cfg.Pipeline.MaxParallelImages)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.AIEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LABELVISION_OCR_ENGINE", "Curved")
	t.Setenv("LABELVISION_OCR_USE_GPU", "true")
	t.Setenv("LABELVISION_PIPELINE_MAX_PARALLEL_IMAGES", "3")
	t.Setenv("GOOGLE_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EngineCurved, cfg.OCR.Engine)
	assert.True(t, cfg.OCR.UseGPU)
	assert.Equal(t, 3, cfg.Pipeline.MaxParallelImages)
	assert.Equal(t, "secret", cfg.Extract.APIKey)
	assert.True(t, cfg.AIEnabled())
}

func TestLoadConfigFileAndBrands(t *testing.T) {
	brands := writeFile(t, "brands.yaml", "- ACME\n- \"  \"\n- Glow Lab\n")
	cfgPath := writeFile(t, "labelvision.yaml", `
ocr:
  engine: multilingual
  languages: [eng, kor]
  min_confidence: 0.5
extract:
  brands: [ZETA]
  brands_file: `+brands+`
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, EngineMultilingual, cfg.OCR.Engine)
	assert.Equal(t, []string{"eng", "kor"}, cfg.OCR.Languages)
	assert.InDelta(t, 0.5, cfg.OCR.MinConfidence, 1e-9)
	assert.Equal(t, []string{"ZETA", "ACME", "Glow Lab"}, cfg.Extract.Brands)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			OCR:      OCR{Engine: EngineTesseract, Languages: []string{"eng"}, MinConfidence: 0.3},
			Pipeline: Pipeline{MaxParallelImages: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown engine", func(c *Config) { c.OCR.Engine = "paddle" }, true},
		{"confidence above one", func(c *Config) { c.OCR.MinConfidence = 1.5 }, true},
		{"negative confidence", func(c *Config) { c.OCR.MinConfidence = -0.1 }, true},
		{"no languages", func(c *Config) { c.OCR.Languages = nil }, true},
		{"zero parallelism", func(c *Config) { c.Pipeline.MaxParallelImages = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadBrandsInvalid(t *testing.T) {
	path := writeFile(t, "brands.yaml", "brand: [unclosed")
	_, err := LoadBrands(path)
	assert.Error(t, err)
}
