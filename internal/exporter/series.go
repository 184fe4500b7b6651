package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// seriesHeaders are the columns of a cleaned item-year CSV
var seriesHeaders = []string{"date", "price", "was_imputed", "was_adjusted", "source"}

// SeriesPath returns <clean>/<safe item>/<year>.csv
func (e *Exporter) SeriesPath(item string, year int) string {
	return filepath.Join(e.paths.CleanDir, SafeFolderName(item), strconv.Itoa(year)+".csv")
}

// WriteSeries writes one CSV per item and year and returns the written paths
// in item then year order
func (e *Exporter) WriteSeries(series []domain.ItemSeries) ([]string, error) {
	var written []string
	for _, s := range series {
		for _, ys := range s.Years {
			path := e.SeriesPath(s.Item, ys.Year)
			records := make([][]string, 0, len(ys.Points))
			for _, p := range ys.Points {
				records = append(records, seriesRow(p))
			}
			if err := e.csv.WriteSimpleCSV(path, seriesHeaders, records); err != nil {
				return written, fmt.Errorf("failed to write series %s/%d: %w", s.Item, ys.Year, err)
			}
			written = append(written, path)
		}
	}

	e.logger.Info("Cleaned series exported",
		slog.Int("items", len(series)),
		slog.Int("files", len(written)),
		slog.String("dir", e.paths.CleanDir))
	return written, nil
}

func seriesRow(p domain.DailySeriesPoint) []string {
	source := p.Source
	if source == "" {
		source = domain.SourceObserved
	}
	return []string{
		p.Date.Format(domain.DateLayout),
		formatPrice(p.Price),
		formatBool(p.WasImputed),
		formatBool(p.WasAdjusted),
		string(source),
	}
}
