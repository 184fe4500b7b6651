package imputation

import (
	"log/slog"
	"math"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// Engine fills and smooths item-year series
type Engine struct {
	chain    []FillStrategy
	smoother Smoother
	logger   *slog.Logger
}

// NewEngine creates an engine with the default fallback chain
func NewEngine(cfg config.ImputationConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		chain:    DefaultChain(cfg.InterpolationLimit),
		smoother: NewSmoother(cfg.SmoothingWindow, cfg.MinPeriods, cfg.MADMultiplier),
		logger:   logger.With(slog.String("component", "imputation")),
	}
}

// WithChain returns a copy of the engine using a custom fallback chain
func (e *Engine) WithChain(chain ...FillStrategy) *Engine {
	cp := *e
	cp.chain = chain
	return &cp
}

// ImputeItem reconstructs every listed year of one item. It fails when the
// item has no observation at all or when any point stays unfilled.
func (e *Engine) ImputeItem(item string, obs []domain.Observation, years []int, stats *SeasonalStatistics) (domain.ItemSeries, error) {
	if len(obs) == 0 {
		return domain.ItemSeries{}, apperrors.NewDataError("item has no observations", nil).
			WithContext("item", item)
	}

	out := domain.ItemSeries{Item: item, Years: make([]domain.YearSeries, 0, len(years))}
	for _, year := range years {
		key := domain.SeriesKey{Item: item, Year: year}
		grid, err := Reindex(key, obs)
		if err != nil {
			return domain.ItemSeries{}, err
		}
		points, err := e.ImputeYear(key, grid, stats)
		if err != nil {
			return domain.ItemSeries{}, err
		}
		out.Years = append(out.Years, domain.YearSeries{Year: year, Points: points})
	}
	return out, nil
}

// ImputeYear fills the gaps of one reindexed series, then smooths it
func (e *Engine) ImputeYear(key domain.SeriesKey, points []domain.DailySeriesPoint, stats *SeasonalStatistics) ([]domain.DailySeriesPoint, error) {
	raw := make([]float64, len(points))
	for i, p := range points {
		if p.Price != nil {
			raw[i] = *p.Price
		} else {
			raw[i] = math.NaN()
		}
	}

	filled := append([]float64(nil), raw...)
	sources := make([]domain.Source, len(points))
	fc := NewFillContext(key.Item, key.Year, raw, stats)

	var unfilled int
	for i, p := range points {
		if !math.IsNaN(raw[i]) {
			sources[i] = domain.SourceObserved
			continue
		}
		mp := MissingPoint{Index: i, Date: p.Date, DayOfYear: p.DayOfYear, Month: p.Month}
		for _, strategy := range e.chain {
			if v, ok := strategy.Fill(mp, fc); ok && !math.IsNaN(v) {
				filled[i] = v
				sources[i] = strategy.Source()
				break
			}
		}
		if math.IsNaN(filled[i]) {
			unfilled++
		}
	}
	if unfilled > 0 {
		return nil, apperrors.NewDataError("series has points no strategy could fill", nil).
			WithContext("item", key.Item).
			WithContext("year", key.Year).
			WithContext("unfilled", unfilled)
	}

	smoothed, adjusted := e.smoother.Smooth(filled)

	out := make([]domain.DailySeriesPoint, len(points))
	var imputedCount, adjustedCount int
	for i, p := range points {
		date := DateForDay(key.Year, p.DayOfYear)
		pt := domain.DailySeriesPoint{
			Date:      date,
			Price:     domain.Float(smoothed[i]),
			DayOfYear: p.DayOfYear,
			Month:     int(date.Month()),
			Source:    sources[i],
		}
		if math.IsNaN(raw[i]) {
			pt.WasImputed = true
			imputedCount++
		} else if adjusted[i] && smoothed[i] != raw[i] {
			pt.WasAdjusted = true
			pt.Source = domain.SourceSmoothed
			adjustedCount++
		}
		out[i] = pt
	}

	e.logger.Debug("series imputed",
		slog.String("item", key.Item),
		slog.Int("year", key.Year),
		slog.Int("imputed", imputedCount),
		slog.Int("adjusted", adjustedCount))

	return out, nil
}
