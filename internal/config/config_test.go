package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 14, cfg.Imputation.InterpolationLimit)
	assert.Equal(t, 7, cfg.Imputation.SmoothingWindow)
	assert.Equal(t, 3.0, cfg.Imputation.MADMultiplier)
	assert.Equal(t, 90, cfg.Forecast.Horizon)
	assert.Equal(t, 45, cfg.Forecast.Holdout)
	assert.Equal(t, 0.5, cfg.Forecast.TrendMin)
	assert.Equal(t, 2.0, cfg.Forecast.TrendMax)
	assert.Greater(t, cfg.Pipeline.Workers, 0)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricewatch.yaml")
	yamlDoc := `
forecast:
  horizon: 30
  holdout: 20
merge:
  reference_year: 2024
paths:
  data_dir: /srv/prices
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0644))
	t.Setenv("PRICEWATCH_FORECAST_HORIZON", "60")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Forecast.Horizon, "env overrides file")
	assert.Equal(t, 20, cfg.Forecast.Holdout, "file overrides default")
	assert.Equal(t, 2024, cfg.Merge.ReferenceYear)
	assert.Equal(t, 7, cfg.Imputation.SmoothingWindow, "default kept")
	assert.Equal(t, "/srv/prices", cfg.Paths.DataDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative limit", func(c *Config) { c.Imputation.InterpolationLimit = -1 }, true},
		{"tiny window", func(c *Config) { c.Imputation.SmoothingWindow = 2 }, true},
		{"min periods above window", func(c *Config) { c.Imputation.MinPeriods = 8 }, true},
		{"zero multiplier", func(c *Config) { c.Imputation.MADMultiplier = 0 }, true},
		{"bad reference year", func(c *Config) { c.Merge.ReferenceYear = 24 }, true},
		{"inverted trend bounds", func(c *Config) { c.Forecast.TrendMin = 3 }, true},
		{"zero horizon", func(c *Config) { c.Forecast.Horizon = 0 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"workers defaulted", func(c *Config) { c.Pipeline.Workers = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Greater(t, cfg.Pipeline.Workers, 0)
		})
	}
}

func TestValidate_NormalisesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "syslog"
	cfg.Logging.Format = "text"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "json", cfg.Logging.Format)
}
