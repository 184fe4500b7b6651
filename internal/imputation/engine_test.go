package imputation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

func newTestEngine() *Engine {
	return NewEngine(config.Default().Imputation, nil)
}

func assertFlagsExclusive(t *testing.T, points []domain.DailySeriesPoint) {
	t.Helper()
	for _, p := range points {
		assert.False(t, p.WasImputed && p.WasAdjusted, "both flags set on %s", p.Date)
	}
}

func TestEngine_SparseYearFallsThroughTiers(t *testing.T) {
	obs := []domain.Observation{
		{Item: "Tomato", Date: date(2024, 1, 1), Price: 40},
		{Item: "Tomato", Date: date(2024, 12, 31), Price: 44},
	}
	stats := BuildStatistics(obs)

	series, err := newTestEngine().ImputeItem("Tomato", obs, []int{2024}, stats)
	require.NoError(t, err)
	require.Len(t, series.Years, 1)

	points := series.Years[0].Points
	require.Len(t, points, 366)
	assertFlagsExclusive(t, points)

	assert.Equal(t, 40.0, *points[0].Price)
	assert.Equal(t, 44.0, *points[365].Price)
	assert.False(t, points[0].WasImputed)

	sources := make(map[domain.Source]int)
	for _, p := range points[1:365] {
		require.NotNil(t, p.Price, "day %d", p.DayOfYear)
		assert.True(t, p.WasImputed)
		sources[p.Source]++
	}
	assert.Equal(t, 28, sources[domain.SourceInterpolated])
	assert.Equal(t, 16+16, sources[domain.SourceMonthly], "rest of January and December")
	assert.Equal(t, 364-28-32, sources[domain.SourceItemMedian])

	// mid-year falls back to the item median of 40 and 44
	assert.Equal(t, 42.0, *points[182].Price)
}

func TestEngine_EmptyYearUsesOtherYears(t *testing.T) {
	var obs []domain.Observation
	for d := date(2023, 1, 1); d.Year() == 2023; d = d.AddDate(0, 0, 1) {
		obs = append(obs, domain.Observation{Item: "Onion", Date: d, Price: 100 + float64(d.Month())})
	}
	stats := BuildStatistics(obs)

	series, err := newTestEngine().ImputeItem("Onion", obs, []int{2023, 2025}, stats)
	require.NoError(t, err)
	require.Len(t, series.Years, 2)

	y2025 := series.Years[1]
	assert.Equal(t, 2025, y2025.Year)
	require.Len(t, y2025.Points, 365)
	for _, p := range y2025.Points {
		require.NotNil(t, p.Price)
		assert.True(t, p.WasImputed)
		assert.Equal(t, domain.SourceSeasonal, p.Source)
		assert.Equal(t, 100+float64(p.Month), *p.Price)
	}
}

func TestEngine_SmoothsObservedSpike(t *testing.T) {
	var obs []domain.Observation
	for d := date(2023, 1, 1); d.Year() == 2023; d = d.AddDate(0, 0, 1) {
		price := 60.0
		if d.Equal(date(2023, 5, 10)) {
			price = 300
		}
		obs = append(obs, domain.Observation{Item: "Cabbage", Date: d, Price: price})
	}

	series, err := newTestEngine().ImputeItem("Cabbage", obs, []int{2023}, BuildStatistics(obs))
	require.NoError(t, err)

	points := series.Years[0].Points
	assertFlagsExclusive(t, points)

	var adjusted int
	for _, p := range points {
		if p.WasAdjusted {
			adjusted++
			assert.Equal(t, date(2023, 5, 10), p.Date)
			assert.Equal(t, 60.0, *p.Price)
			assert.Equal(t, domain.SourceSmoothed, p.Source)
		}
	}
	assert.Equal(t, 1, adjusted)
}

func TestEngine_DenseSeriesRoundTrip(t *testing.T) {
	var obs []domain.Observation
	for d := date(2024, 1, 1); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		obs = append(obs, domain.Observation{Item: "Rice", Date: d, Price: 45 + 0.01*float64(d.YearDay())})
	}

	series, err := newTestEngine().ImputeItem("Rice", obs, []int{2024}, BuildStatistics(obs))
	require.NoError(t, err)

	points := series.Years[0].Points
	require.Len(t, points, len(obs))
	for i, p := range points {
		assert.Equal(t, obs[i].Date, p.Date)
		assert.Equal(t, obs[i].Price, *p.Price)
		assert.False(t, p.WasImputed)
		assert.False(t, p.WasAdjusted)
		assert.Equal(t, domain.SourceObserved, p.Source)
	}
}

func TestEngine_NoObservations(t *testing.T) {
	_, err := newTestEngine().ImputeItem("Ghost", nil, []int{2024}, BuildStatistics(nil))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeData))
}

func TestEngine_UnfillablePointsFail(t *testing.T) {
	key := domain.SeriesKey{Item: "Rice", Year: 2023}
	grid, err := Reindex(key, []domain.Observation{{Item: "Rice", Date: date(2023, 6, 1), Price: 10}})
	require.NoError(t, err)

	// interpolation only, with no other tier to fall back on
	engine := newTestEngine().WithChain(TimeInterpolation{Limit: 14})
	_, err = engine.ImputeYear(key, grid, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeData))
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	key := domain.SeriesKey{Item: "Rice", Year: 2023}
	obs := []domain.Observation{{Item: "Rice", Date: date(2023, 6, 1), Price: 10}}
	grid, err := Reindex(key, obs)
	require.NoError(t, err)

	before := make([]bool, len(grid))
	for i, p := range grid {
		before[i] = p.HasPrice()
	}

	_, err = newTestEngine().ImputeYear(key, grid, BuildStatistics(obs))
	require.NoError(t, err)

	for i, p := range grid {
		assert.Equal(t, before[i], p.HasPrice())
		assert.False(t, p.WasImputed)
	}
}

func TestEngine_RebuildsDatesFromDayOfYear(t *testing.T) {
	key := domain.SeriesKey{Item: "Rice", Year: 2024}
	grid, err := Reindex(key, []domain.Observation{{Item: "Rice", Date: date(2024, 2, 1), Price: 10}})
	require.NoError(t, err)
	for i := range grid {
		grid[i].Date = time.Time{}
	}

	out, err := newTestEngine().ImputeYear(key, grid, BuildStatistics([]domain.Observation{{Item: "Rice", Date: date(2024, 2, 1), Price: 10}}))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), out[59].Date)
	assert.False(t, math.IsNaN(*out[59].Price))
}
