package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every resolved file system location used by the tools
type Paths struct {
	DataDir       string
	Workbook      string
	DailyIndexDir string
	CleanDir      string
	ForecastDir   string
	MobileDir     string
	LogsDir       string
}

// Resolve turns the configured paths into absolute-or-DataDir-relative locations
func (c PathsConfig) Resolve() *Paths {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.DataDir, p)
	}

	logs := c.LogsDir
	return &Paths{
		DataDir:       c.DataDir,
		Workbook:      join(c.Workbook),
		DailyIndexDir: join(c.DailyIndexDir),
		CleanDir:      join(c.CleanDir),
		ForecastDir:   join(c.ForecastDir),
		MobileDir:     join(c.MobileDir),
		LogsDir:       logs,
	}
}

// EnsureDirectories creates all output directories
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.CleanDir, p.ForecastDir, p.MobileDir}
	if p.LogsDir != "" {
		dirs = append(dirs, p.LogsDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReconciledWorkbookPath returns the location of the reconciled workbook
func (p *Paths) ReconciledWorkbookPath() string {
	return filepath.Join(p.CleanDir, ReconciledWorkbookName)
}

// SummaryPath returns the location of the forecast summary CSV
func (p *Paths) SummaryPath() string {
	return filepath.Join(p.ForecastDir, SummaryFileName)
}

// MobilePath returns the location of a mobile JSON export
func (p *Paths) MobilePath(name string) string {
	return filepath.Join(p.MobileDir, name)
}

// MetricsPath returns the location of the Prometheus textfile
func (p *Paths) MetricsPath() string {
	return filepath.Join(p.DataDir, MetricsFileName)
}

// FileExists reports whether path names an existing file
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution writes the resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("resolved paths",
		slog.String("data_dir", p.DataDir),
		slog.String("workbook", p.Workbook),
		slog.String("daily_index_dir", p.DailyIndexDir),
		slog.String("clean_dir", p.CleanDir),
		slog.String("forecast_dir", p.ForecastDir),
		slog.String("mobile_dir", p.MobileDir),
	)
}
