package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. PRICEWATCH_FORECAST_HORIZON
const EnvPrefix = "PRICEWATCH"

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Imputation ImputationConfig `yaml:"imputation" envconfig:"IMPUTATION"`
	Merge      MergeConfig      `yaml:"merge" envconfig:"MERGE"`
	Forecast   ForecastConfig   `yaml:"forecast" envconfig:"FORECAST"`
	Pipeline   PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration.
// Relative entries are resolved against DataDir.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	Workbook      string `yaml:"workbook" envconfig:"WORKBOOK"`
	DailyIndexDir string `yaml:"daily_index_dir" envconfig:"DAILY_INDEX_DIR"`
	CleanDir      string `yaml:"clean_dir" envconfig:"CLEAN_DIR"`
	ForecastDir   string `yaml:"forecast_dir" envconfig:"FORECAST_DIR"`
	MobileDir     string `yaml:"mobile_dir" envconfig:"MOBILE_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// ImputationConfig tunes interpolation and outlier smoothing
type ImputationConfig struct {
	InterpolationLimit int     `yaml:"interpolation_limit" envconfig:"INTERPOLATION_LIMIT"`
	SmoothingWindow    int     `yaml:"smoothing_window" envconfig:"SMOOTHING_WINDOW"`
	MinPeriods         int     `yaml:"min_periods" envconfig:"MIN_PERIODS"`
	MADMultiplier      float64 `yaml:"mad_multiplier" envconfig:"MAD_MULTIPLIER"`
}

// MergeConfig controls the official override stage.
// ReferenceYear 0 means the latest year present in the dataset.
type MergeConfig struct {
	ReferenceYear int `yaml:"reference_year" envconfig:"REFERENCE_YEAR"`
}

// ForecastConfig holds the seasonal trend model parameters
type ForecastConfig struct {
	Horizon         int     `yaml:"horizon" envconfig:"HORIZON"`
	Holdout         int     `yaml:"holdout" envconfig:"HOLDOUT"`
	TrendWindow     int     `yaml:"trend_window" envconfig:"TREND_WINDOW"`
	TrendMin        float64 `yaml:"trend_min" envconfig:"TREND_MIN"`
	TrendMax        float64 `yaml:"trend_max" envconfig:"TREND_MAX"`
	BlendDays       int     `yaml:"blend_days" envconfig:"BLEND_DAYS"`
	ZScore          float64 `yaml:"z_score" envconfig:"Z_SCORE"`
	MinBacktestDays int     `yaml:"min_backtest_days" envconfig:"MIN_BACKTEST_DAYS"`
}

// PipelineConfig controls batch fan-out
type PipelineConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS"`
}

// TelemetryConfig selects trace and metric exporters
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port              int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout       time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS      float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
	ForecastCacheSize int           `yaml:"forecast_cache_size" envconfig:"FORECAST_CACHE_SIZE"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path searches the
// usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks ranges and normalises logging settings
func (c *Config) Validate() error {
	if c.Imputation.InterpolationLimit < 0 {
		return fmt.Errorf("interpolation limit must not be negative: %d", c.Imputation.InterpolationLimit)
	}
	if c.Imputation.SmoothingWindow < 3 {
		return fmt.Errorf("smoothing window must be at least 3: %d", c.Imputation.SmoothingWindow)
	}
	if c.Imputation.MinPeriods < 1 || c.Imputation.MinPeriods > c.Imputation.SmoothingWindow {
		return fmt.Errorf("min periods must be within 1..%d: %d", c.Imputation.SmoothingWindow, c.Imputation.MinPeriods)
	}
	if c.Imputation.MADMultiplier <= 0 {
		return fmt.Errorf("mad multiplier must be positive")
	}

	if c.Merge.ReferenceYear != 0 && (c.Merge.ReferenceYear < 1000 || c.Merge.ReferenceYear > 9999) {
		return fmt.Errorf("invalid reference year: %d", c.Merge.ReferenceYear)
	}

	f := c.Forecast
	if f.Horizon <= 0 {
		return fmt.Errorf("forecast horizon must be positive: %d", f.Horizon)
	}
	if f.Holdout <= 0 {
		return fmt.Errorf("forecast holdout must be positive: %d", f.Holdout)
	}
	if f.TrendMin <= 0 || f.TrendMin > f.TrendMax {
		return fmt.Errorf("invalid trend bounds [%g, %g]", f.TrendMin, f.TrendMax)
	}
	if f.BlendDays < 0 || f.TrendWindow <= 0 || f.ZScore <= 0 {
		return fmt.Errorf("invalid forecast parameters")
	}

	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = runtime.GOMAXPROCS(0)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ForecastCacheSize <= 0 {
		return fmt.Errorf("forecast cache size must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	c.Logging.Format = "json"
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/pricewatch.log"
	}

	return nil
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	locations := []string{
		"pricewatch.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pricewatch.log",
		},
		Paths: PathsConfig{
			DataDir:       "data",
			Workbook:      DefaultWorkbook,
			DailyIndexDir: DefaultDailyIndexDir,
			CleanDir:      DefaultCleanDir,
			ForecastDir:   DefaultForecastDir,
			MobileDir:     DefaultMobileDir,
			LogsDir:       "logs",
		},
		Imputation: ImputationConfig{
			InterpolationLimit: DefaultInterpolationLimit,
			SmoothingWindow:    DefaultSmoothingWindow,
			MinPeriods:         DefaultMinPeriods,
			MADMultiplier:      DefaultMADMultiplier,
		},
		Forecast: ForecastConfig{
			Horizon:         DefaultHorizon,
			Holdout:         DefaultHoldout,
			TrendWindow:     DefaultTrendWindow,
			TrendMin:        DefaultTrendMin,
			TrendMax:        DefaultTrendMax,
			BlendDays:       DefaultBlendDays,
			ZScore:          DefaultZScore,
			MinBacktestDays: DefaultMinBacktestDays,
		},
		Pipeline: PipelineConfig{
			Workers: runtime.GOMAXPROCS(0),
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
		Server: ServerConfig{
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			RateLimitRPS:      20,
			RateLimitBurst:    40,
			ForecastCacheSize: 128,
		},
	}
}
