package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/observations"
	sharedtest "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/shared/testutil"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Pipeline.Workers = 4
	// far from the data so no cutoff applies unless official records exist
	cfg.Merge.ReferenceYear = 2000
	return cfg
}

// denseYear returns a clean linear series covering every day of year
func denseYear(item string, year int) []domain.Observation {
	var obs []domain.Observation
	for d := date(year, 1, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
		obs = append(obs, domain.Observation{Item: item, Date: d, Price: 45 + 0.01*float64(d.YearDay())})
	}
	return obs
}

func newStore(t *testing.T, obs ...[]domain.Observation) *observations.Store {
	t.Helper()
	store := observations.NewStore()
	for _, o := range obs {
		require.NoError(t, store.AddAll(o))
	}
	return store
}

func TestRun_EmptyStore(t *testing.T) {
	runner := NewRunner(testConfig(), Options{})

	_, err := runner.Run(context.Background(), observations.NewStore(), nil)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyStore))

	_, err = runner.Run(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyStore))
}

func TestRun_DenseSeriesRoundTrip(t *testing.T) {
	obs := denseYear("Rice", 2024)
	batch, err := NewRunner(testConfig(), Options{}).Run(context.Background(), newStore(t, obs), nil)
	require.NoError(t, err)

	assert.Empty(t, batch.Failures)
	assert.Equal(t, date(2000, 11, 1), batch.Cutoff)
	assert.NotEmpty(t, batch.RunID)
	require.Len(t, batch.Series, 1)

	series, ok := batch.Item("Rice")
	require.True(t, ok)
	points := series.Points()
	require.Len(t, points, 366)
	for i, p := range points {
		assert.Equal(t, obs[i].Date, p.Date)
		require.True(t, p.HasPrice())
		assert.Equal(t, obs[i].Price, *p.Price)
		assert.False(t, p.WasImputed)
		assert.False(t, p.WasAdjusted)
		assert.Equal(t, domain.SourceObserved, p.Source)
	}
}

func TestRun_ReferenceYearDefaultsToLatest(t *testing.T) {
	cfg := testConfig()
	cfg.Merge.ReferenceYear = 0

	batch, err := NewRunner(cfg, Options{}).Run(context.Background(), newStore(t, denseYear("Rice", 2024)), nil)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 11, 1), batch.Cutoff)

	series, _ := batch.Item("Rice")
	points := series.Years[0].Points
	assert.True(t, points[date(2024, 11, 1).YearDay()-1].HasPrice())
	assert.False(t, points[date(2024, 11, 2).YearDay()-1].HasPrice())
	assert.Equal(t, domain.SourceTruncated, points[365].Source)
}

func TestRun_IsolatesItemFailures(t *testing.T) {
	store := newStore(t, denseYear("Rice", 2024))
	store.Declare(domain.SeriesKey{Item: "Ghost", Year: 2024})
	official := []domain.Observation{
		{Item: "Ghost", Date: date(2024, 3, 1), Price: 10},
		{Item: "Unknown", Date: date(2024, 3, 1), Price: 12},
		{Item: "Rice", Date: date(2024, 12, 31), Price: 50},
	}

	metrics := NewMetrics(prometheus.NewRegistry())
	logger, logs := sharedtest.NewTestLogger()
	batch, err := NewRunner(testConfig(), Options{Metrics: metrics, Logger: logger}).Run(context.Background(), store, official)
	require.NoError(t, err)

	record := sharedtest.AssertLogged(t, logs, slog.LevelWarn, "Item failed")
	assert.Equal(t, "Ghost", record.Attrs["item"])
	assert.Equal(t, "pipeline", record.Attrs["component"])
	sharedtest.AssertLogged(t, logs, slog.LevelInfo, "Batch completed")

	require.Len(t, batch.Failures, 1)
	f := batch.Failures[0]
	assert.Equal(t, "Ghost", f.Item)
	assert.Equal(t, StageImpute, f.Stage)
	assert.True(t, apperrors.IsType(f.Err, apperrors.ErrTypeData))
	assert.NotEmpty(t, f.Message)

	assert.Equal(t, []string{"Rice"}, batch.Items())
	_, ok := batch.Item("Ghost")
	assert.False(t, ok)

	require.Len(t, batch.UnmatchedOfficial, 2)
	assert.Equal(t, "Ghost", batch.UnmatchedOfficial[0].Item)
	assert.Equal(t, "Unknown", batch.UnmatchedOfficial[1].Item)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ItemsProcessed.WithLabelValues("impute", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ItemsProcessed.WithLabelValues("impute", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OfficialOverrides))
	assert.Contains(t, batch.String(), "1 failures")
}

func TestRun_OfficialOverrideAndCutoff(t *testing.T) {
	official := []domain.Observation{
		{Item: "Rice", Date: date(2024, 6, 1), Price: 99},
		{Item: "Rice", Date: date(2024, 6, 1), Price: 101},
	}
	metrics := NewMetrics(nil)

	batch, err := NewRunner(testConfig(), Options{Metrics: metrics}).Run(context.Background(), newStore(t, denseYear("Rice", 2024)), official)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 6, 2), batch.Cutoff)
	require.Len(t, batch.Official, 1)

	series, ok := batch.Item("Rice")
	require.True(t, ok)
	points := series.Years[0].Points

	june1 := points[date(2024, 6, 1).YearDay()-1]
	assert.Equal(t, 100.0, *june1.Price)
	assert.Equal(t, domain.SourceOfficial, june1.Source)
	assert.False(t, june1.WasImputed)
	assert.False(t, june1.WasAdjusted)

	assert.True(t, points[date(2024, 6, 2).YearDay()-1].HasPrice())
	assert.False(t, points[date(2024, 6, 3).YearDay()-1].HasPrice())

	report := batch.Reports["Rice"]
	assert.Equal(t, 1, report.Overrides)
	assert.Equal(t, 366-154, report.Truncated)
	assert.Equal(t, float64(366-154), testutil.ToFloat64(metrics.TruncatedPoints))
}

func TestRun_FillMetrics(t *testing.T) {
	obs := []domain.Observation{
		{Item: "Tomato", Date: date(2023, 1, 1), Price: 40},
		{Item: "Tomato", Date: date(2023, 1, 11), Price: 50},
	}
	metrics := NewMetrics(nil)

	_, err := NewRunner(testConfig(), Options{Metrics: metrics}).Run(context.Background(), newStore(t, obs), nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.PointsFilled.WithLabelValues(string(domain.SourceInterpolated))), 9.0)

	var filled float64
	for _, src := range []domain.Source{
		domain.SourceInterpolated, domain.SourceSeasonal, domain.SourceMonthly,
		domain.SourceItemMedian, domain.SourceSeriesMedian,
	} {
		filled += testutil.ToFloat64(metrics.PointsFilled.WithLabelValues(string(src)))
	}
	assert.Equal(t, float64(365-2), filled)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(testConfig(), Options{}).Run(ctx, newStore(t, denseYear("Rice", 2024)), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForecast(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	runner := NewRunner(testConfig(), Options{Metrics: metrics})

	batch, err := runner.Run(context.Background(), newStore(t, denseYear("Rice", 2024), denseYear("Corn", 2024)), nil)
	require.NoError(t, err)

	fb, err := runner.Forecast(context.Background(), batch)
	require.NoError(t, err)
	assert.Empty(t, fb.Failures)
	require.Len(t, fb.Results, 2)
	assert.Equal(t, "Corn", fb.Results[0].Item)
	assert.Equal(t, "Rice", fb.Results[1].Item)

	res := fb.Results[1]
	require.Len(t, res.Points, 90)
	assert.Equal(t, date(2025, 1, 1), res.Points[0].Date)
	require.NotNil(t, res.Metric)
	assert.Equal(t, *res.Metric, testutil.ToFloat64(metrics.ForecastMAPE.WithLabelValues("Rice")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ItemsProcessed.WithLabelValues("forecast", "ok")))
}

func TestForecastItems_RecordsFailures(t *testing.T) {
	runner := NewRunner(testConfig(), Options{})

	fb, err := runner.ForecastItems(context.Background(), map[string][]domain.DailySeriesPoint{
		"Empty": {{Date: date(2024, 1, 1)}},
		"Rice": {
			{Date: date(2024, 1, 1), Price: domain.Float(10)},
			{Date: date(2024, 1, 2), Price: domain.Float(11)},
		},
	})
	require.NoError(t, err)

	require.Len(t, fb.Failures, 1)
	assert.Equal(t, "Empty", fb.Failures[0].Item)
	assert.Equal(t, StageForecast, fb.Failures[0].Stage)
	require.Len(t, fb.Results, 1)
	assert.NotEmpty(t, fb.Results[0].Warnings)
}
