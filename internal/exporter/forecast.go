package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

var (
	forecastHeaders = []string{"date", "forecast", "lower", "upper"}
	summaryHeaders  = []string{"item", "display_name", "model", "mape", "path"}
)

// SummaryRow is one line of the forecast summary
type SummaryRow struct {
	Item        string
	DisplayName string
	Model       string
	Metric      *float64
	Path        string
}

// ForecastPath returns <forecast>/<safe item>/forecast.csv
func (e *Exporter) ForecastPath(item string) string {
	return filepath.Join(e.paths.ForecastDir, SafeFolderName(item), config.ForecastFileName)
}

// WriteForecasts writes one forecast CSV per result followed by summary.csv.
// displayNames maps item keys to the names shown to users; missing entries
// fall back to the key.
func (e *Exporter) WriteForecasts(results []domain.ForecastResult, displayNames map[string]string) ([]SummaryRow, error) {
	rows := make([]SummaryRow, 0, len(results))
	for _, res := range results {
		path := e.ForecastPath(res.Item)
		records := make([][]string, 0, len(res.Points))
		for _, p := range res.Points {
			records = append(records, []string{
				p.Date.Format(domain.DateLayout),
				formatFloat(p.Forecast),
				formatFloat(p.Lower),
				formatFloat(p.Upper),
			})
		}
		if err := e.csv.WriteSimpleCSV(path, forecastHeaders, records); err != nil {
			return rows, fmt.Errorf("failed to write forecast for %s: %w", res.Item, err)
		}
		rows = append(rows, SummaryRow{
			Item:        res.Item,
			DisplayName: displayName(displayNames, res.Item),
			Model:       res.Model,
			Metric:      res.Metric,
			Path:        path,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Item < rows[j].Item })
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Item, r.DisplayName, r.Model, formatMetric(r.Metric), r.Path})
	}
	if err := e.csv.WriteSimpleCSV(e.paths.SummaryPath(), summaryHeaders, records); err != nil {
		return rows, fmt.Errorf("failed to write forecast summary: %w", err)
	}

	e.logger.Info("Forecasts exported",
		slog.Int("items", len(rows)),
		slog.String("summary", e.paths.SummaryPath()))
	return rows, nil
}

func displayName(names map[string]string, item string) string {
	if name, ok := names[item]; ok && name != "" {
		return name
	}
	return item
}
