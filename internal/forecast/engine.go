package forecast

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/dataprocessing"
	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// Result is a forecast plus any non-fatal warnings raised while building it
type Result struct {
	domain.ForecastResult
	Warnings []*apperrors.AppError `json:"-"`
}

// Engine runs the seasonal trend model
type Engine struct {
	cfg    config.ForecastConfig
	logger *slog.Logger
}

// NewEngine creates a forecast engine
func NewEngine(cfg config.ForecastConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "forecast")),
	}
}

// Config returns the model parameters
func (e *Engine) Config() config.ForecastConfig {
	return e.cfg
}

// Forecast projects Horizon days past the end of history. Null points are
// dropped and calendar gaps are forward-filled before fitting. An empty
// history is a DataError; a short one only adds a warning.
func (e *Engine) Forecast(ctx context.Context, item string, history []domain.DailySeriesPoint) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series, fill := dataprocessing.NewForwardFillProcessor().FillDailyWithStats(history)
	if len(series) == 0 {
		return nil, apperrors.NewDataError("no priced history to forecast from", nil).
			WithContext("item", item)
	}
	e.logger.DebugContext(ctx, "history prepared",
		slog.String("item", item),
		slog.Int("input_points", fill.InputPoints),
		slog.Int("known_points", fill.KnownPoints),
		slog.Int("forward_filled", fill.ForwardFilledCount))

	dates := make([]time.Time, len(series))
	values := make([]float64, len(series))
	for i, p := range series {
		dates[i] = p.Date
		values[i] = p.Value()
	}

	baseline := newSeasonalBaseline(dates, values)
	ratio := e.trendRatio(dates, values, baseline)

	res := &Result{
		ForecastResult: domain.ForecastResult{
			Item:       item,
			Model:      domain.ModelSeasonalTrend,
			TrendRatio: ratio,
			Points:     e.project(dates, values, baseline, ratio),
		},
	}
	res.Metric = e.backtest(dates, values)

	required := e.cfg.TrendWindow
	if backtestMin := e.cfg.Holdout + e.cfg.MinBacktestDays + 1; backtestMin > required {
		required = backtestMin
	}
	if len(values) < required {
		res.Warnings = append(res.Warnings, apperrors.NewInsufficientHistoryWarning(item, len(values), required))
	}

	e.logger.Debug("Forecast built",
		slog.String("item", item),
		slog.Int("history_days", len(values)),
		slog.Float64("trend_ratio", ratio),
		slog.Bool("has_metric", res.Metric != nil))

	return res, nil
}

// trendRatio compares recent prices with the baseline at the same dates
func (e *Engine) trendRatio(dates []time.Time, values []float64, baseline *seasonalBaseline) float64 {
	window := e.cfg.TrendWindow
	if window <= 0 || len(values) < window {
		return 1.0
	}

	start := len(values) - window
	recentMean := mean(values[start:])
	if !(recentMean > 0) {
		return 1.0
	}

	historical := make([]float64, 0, window)
	for _, d := range dates[start:] {
		if v, ok := baseline.value(d); ok {
			historical = append(historical, v)
		}
	}
	if len(historical) == 0 {
		return 1.0
	}
	historicalMean := mean(historical)
	if !(historicalMean > 0) {
		return 1.0
	}

	return math.Min(math.Max(recentMean/historicalMean, e.cfg.TrendMin), e.cfg.TrendMax)
}

// project builds the forecast points following the last history date
func (e *Engine) project(dates []time.Time, values []float64, baseline *seasonalBaseline, ratio float64) []domain.ForecastPoint {
	last := values[len(values)-1]
	lastDate := dates[len(dates)-1]

	// band for days without a baseline
	fallbackSigma := math.NaN()
	if len(values) > 1 {
		fallbackSigma = 0.1 * stddev(values, 1)
	}

	points := make([]domain.ForecastPoint, 0, e.cfg.Horizon)
	for idx := 0; idx < e.cfg.Horizon; idx++ {
		date := lastDate.AddDate(0, 0, idx+1)

		var forecast, sigma float64
		if seasonal, ok := baseline.value(date); ok {
			forecast = seasonal * ratio
			if idx < e.cfg.BlendDays {
				w := float64(idx) / float64(e.cfg.BlendDays)
				forecast = last*(1-w) + forecast*w
			}
			var n int
			sigma, n = baseline.spread(date)
			if n < 2 {
				sigma = 0.1 * seasonal
			}
		} else {
			forecast = last * ratio
			sigma = fallbackSigma
			if math.IsNaN(sigma) {
				sigma = 0.1 * forecast
			}
		}

		points = append(points, domain.ForecastPoint{
			Date:     date,
			Forecast: floor(forecast),
			Lower:    floor(forecast - e.cfg.ZScore*sigma),
			Upper:    floor(forecast + e.cfg.ZScore*sigma),
		})
	}
	return points
}

// backtest refits on everything before the holdout window and returns the
// MAPE in percent over the window, or nil when it cannot be evaluated
func (e *Engine) backtest(dates []time.Time, values []float64) *float64 {
	holdout := e.cfg.Holdout
	if holdout <= 0 || len(values) <= holdout+e.cfg.MinBacktestDays {
		return nil
	}

	split := len(values) - holdout
	trainDates, trainValues := dates[:split], values[:split]
	baseline := newSeasonalBaseline(trainDates, trainValues)
	ratio := e.trendRatio(trainDates, trainValues, baseline)
	trainLast := trainValues[len(trainValues)-1]

	var sum float64
	var n int
	for i := split; i < len(values); i++ {
		actual := values[i]
		if actual == 0 {
			continue
		}
		pred := trainLast * ratio
		if seasonal, ok := baseline.value(dates[i]); ok {
			pred = seasonal * ratio
		}
		sum += math.Abs((actual - pred) / actual)
		n++
	}
	if n == 0 {
		return nil
	}
	mape := sum / float64(n) * 100
	return &mape
}

func floor(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
