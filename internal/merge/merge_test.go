package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/imputation"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// filledYear returns a complete imputed-looking year with a constant price
func filledYear(year int, price float64) domain.YearSeries {
	points := imputation.CalendarGrid(year)
	for i := range points {
		points[i].Price = domain.Float(price)
		points[i].WasImputed = i%2 == 0
		points[i].Source = domain.SourceSeasonal
		if i%2 == 1 {
			points[i].Source = domain.SourceObserved
		}
	}
	return domain.YearSeries{Year: year, Points: points}
}

func pointAt(t *testing.T, s domain.ItemSeries, d time.Time) domain.DailySeriesPoint {
	t.Helper()
	ys, ok := s.Year(d.Year())
	require.True(t, ok, "year %d missing", d.Year())
	return ys.Points[d.YearDay()-1]
}

func TestApply_OfficialWins(t *testing.T) {
	series := domain.ItemSeries{Item: "Tomato", Years: []domain.YearSeries{filledYear(2024, 50)}}
	series.Years[0].Points[10].WasAdjusted = true
	series.Years[0].Points[10].WasImputed = false

	official := []domain.Observation{
		{Item: "Tomato", Date: date(2024, 1, 11), Price: 61.5},
		{Item: "Tomato", Date: date(2024, 3, 1), Price: 70},
		{Item: "Tomato", Date: date(2024, 3, 1), Price: 80},
		{Item: "Onion", Date: date(2024, 3, 2), Price: 999},
	}

	got, report := NewMerger(nil).ApplyWithReport(series, official, time.Time{})

	for _, tc := range []struct {
		d    time.Time
		want float64
	}{
		{date(2024, 1, 11), 61.5},
		{date(2024, 3, 1), 75},
	} {
		p := pointAt(t, got, tc.d)
		require.NotNil(t, p.Price)
		assert.Equal(t, tc.want, *p.Price)
		assert.False(t, p.WasImputed)
		assert.False(t, p.WasAdjusted)
		assert.Equal(t, domain.SourceOfficial, p.Source)
	}
	assert.Equal(t, 50.0, *pointAt(t, got, date(2024, 3, 2)).Price, "other item ignored")
	assert.Equal(t, 2, report.Overrides)

	// input untouched
	assert.True(t, series.Years[0].Points[10].WasAdjusted)
	assert.Equal(t, 50.0, *series.Years[0].Points[60].Price)
}

func TestApply_MaterialisesAbsentYear(t *testing.T) {
	series := domain.ItemSeries{Item: "Garlic", Years: []domain.YearSeries{filledYear(2024, 120)}}
	official := []domain.Observation{{Item: "Garlic", Date: date(2025, 2, 3), Price: 130}}

	got, report := NewMerger(nil).ApplyWithReport(series, official, time.Time{})

	require.Len(t, got.Years, 2)
	assert.Equal(t, []int{2024, 2025}, []int{got.Years[0].Year, got.Years[1].Year})
	assert.Equal(t, []int{2025}, report.MaterialisedYears)

	y2025 := got.Years[1]
	require.Len(t, y2025.Points, 365)
	for _, p := range y2025.Points {
		if p.Date.Equal(date(2025, 2, 3)) {
			assert.Equal(t, 130.0, *p.Price)
			assert.Equal(t, domain.SourceOfficial, p.Source)
			continue
		}
		assert.Nil(t, p.Price)
		assert.Equal(t, domain.SourceMissing, p.Source)
	}
}

func TestApply_FutureCutoff(t *testing.T) {
	series := domain.ItemSeries{Item: "Rice", Years: []domain.YearSeries{filledYear(2024, 48), filledYear(2025, 50)}}
	official := []domain.Observation{
		{Item: "Rice", Date: date(2025, 10, 13), Price: 52},
		{Item: "Rice", Date: date(2025, 10, 14), Price: 53},
	}
	cutoff := Cutoff(official, 0)
	require.Equal(t, date(2025, 10, 15), cutoff)

	got, report := NewMerger(nil).ApplyWithReport(series, official, cutoff)

	y2025, _ := got.Year(2025)
	for _, p := range y2025.Points {
		if p.Date.After(cutoff) {
			assert.Nil(t, p.Price, "date %s", p.Date.Format(domain.DateLayout))
			assert.False(t, p.WasImputed)
			assert.False(t, p.WasAdjusted)
			assert.Equal(t, domain.SourceTruncated, p.Source)
		} else {
			assert.NotNil(t, p.Price)
		}
	}
	assert.Equal(t, 365-date(2025, 10, 15).YearDay(), report.Truncated)

	y2024, _ := got.Year(2024)
	for _, p := range y2024.Points {
		assert.NotNil(t, p.Price, "earlier years are not truncated")
	}
}

func TestCutoff(t *testing.T) {
	tests := []struct {
		name     string
		official []domain.Observation
		refYear  int
		want     time.Time
	}{
		{
			name: "day after latest record",
			official: []domain.Observation{
				{Item: "A", Date: date(2025, 3, 1), Price: 1},
				{Item: "B", Date: date(2025, 12, 31), Price: 1},
			},
			refYear: 2024,
			want:    date(2026, 1, 1),
		},
		{name: "reference year fallback", refYear: 2025, want: date(2025, 11, 1)},
		{name: "no reference", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cutoff(tt.official, tt.refYear))
		})
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]domain.Observation{
		{Item: "B", Date: date(2025, 1, 2), Price: 10},
		{Item: "A", Date: date(2025, 1, 3), Price: 4},
		{Item: "B", Date: date(2025, 1, 2).Add(3 * time.Hour), Price: 20},
		{Item: "A", Date: date(2025, 1, 1), Price: 2},
	})

	require.Len(t, got, 3)
	assert.Equal(t, domain.Observation{Item: "A", Date: date(2025, 1, 1), Price: 2}, got[0])
	assert.Equal(t, domain.Observation{Item: "A", Date: date(2025, 1, 3), Price: 4}, got[1])
	assert.Equal(t, domain.Observation{Item: "B", Date: date(2025, 1, 2), Price: 15}, got[2])
}
