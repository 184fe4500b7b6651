package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/dataprocessing"
	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/exporter"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/files"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/infrastructure"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/observations"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/pipeline"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// environment is everything a command needs, built once per invocation
type environment struct {
	cfg      *config.Config
	paths    *config.Paths
	logger   *slog.Logger
	registry *prometheus.Registry
	otel     *infrastructure.OTelProviders
	runner   *pipeline.Runner
	exporter *exporter.Exporter
}

// setup loads the configuration, applies the global flags and then any
// command-specific overrides
func setup(flags *globalFlags, overrides ...func(*config.Config)) (*environment, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}
	if flags.workbook != "" {
		cfg.Paths.Workbook = flags.workbook
	}
	if flags.dailyIndex != "" {
		cfg.Paths.DailyIndexDir = flags.dailyIndex
	}
	if flags.workers > 0 {
		cfg.Pipeline.Workers = flags.workers
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}
	return newEnvironment(cfg)
}

func newEnvironment(cfg *config.Config) (*environment, error) {
	paths := cfg.Paths.Resolve()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = filepath.Join(paths.LogsDir, filepath.Base(cfg.Logging.FilePath))
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	paths.LogPathResolution(logger)

	registry := prometheus.NewRegistry()
	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	business, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return &environment{
		cfg:      cfg,
		paths:    paths,
		logger:   logger,
		registry: registry,
		otel:     otelProviders,
		runner: pipeline.NewRunner(cfg, pipeline.Options{
			Metrics:  pipeline.NewMetrics(registry),
			Business: business,
			Logger:   logger,
		}),
		exporter: exporter.New(paths, logger),
	}, nil
}

// close writes the metrics textfile and flushes telemetry
func (e *environment) close(ctx context.Context) {
	if err := prometheus.WriteToTextfile(e.paths.MetricsPath(), e.registry); err != nil {
		e.logger.WarnContext(ctx, "Failed to write metrics textfile",
			slog.String("path", e.paths.MetricsPath()),
			slog.String("error", err.Error()))
	}
	if e.otel != nil {
		if err := e.otel.Shutdown(ctx); err != nil {
			e.logger.WarnContext(ctx, "Failed to shut down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		e.logger.WarnContext(ctx, "Failed to close log file", slog.String("error", err.Error()))
	}
}

// loadStore reads the price workbook, or a long-format CSV when the input
// has a .csv extension
func (e *environment) loadStore(ctx context.Context) (*observations.Store, error) {
	store := observations.NewStore()
	path, err := resolveWorkbook(e.paths.Workbook)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		obs, err := dataprocessing.LoadObservationsCSV(path)
		if err != nil {
			return nil, err
		}
		if err := store.AddAll(obs); err != nil {
			return nil, err
		}
	} else {
		wb, err := dataprocessing.ParseWorkbook(path)
		if err != nil {
			return nil, err
		}
		for _, rejected := range wb.Rejected {
			e.logger.WarnContext(ctx, "Column skipped", slog.String("error", rejected.Error()))
		}
		if err := wb.LoadInto(store); err != nil {
			return nil, err
		}
	}

	if store.IsEmpty() {
		return nil, apperrors.ErrEmptyStore
	}
	e.logger.InfoContext(ctx, "Observations loaded",
		slog.String("path", path),
		slog.Int("items", len(store.Items())),
		slog.Int("observations", store.Len()))
	return store, nil
}

// resolveWorkbook picks the newest workbook when path is a directory
func resolveWorkbook(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, nil
	}
	found, err := files.NewDiscovery("").FindWorkbooks(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to list workbooks", err).WithContext("path", path)
	}
	latest, ok := files.GetLatestFile(found)
	if !ok {
		return "", apperrors.NewStorageError("no workbook found", nil).WithContext("path", path)
	}
	return latest.Path, nil
}

func (e *environment) loadOfficial(ctx context.Context) ([]domain.Observation, error) {
	index, err := dataprocessing.LoadDailyIndex(e.paths.DailyIndexDir)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "Official records loaded", slog.Int("records", len(index.Records)))
	return index.Records, nil
}
