package imputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReindex_CalendarLength(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2023, 365},
		{2024, 366},
		{1900, 365},
		{2000, 366},
	}

	for _, tt := range tests {
		t.Run(time.Date(tt.year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006"), func(t *testing.T) {
			points, err := Reindex(domain.SeriesKey{Item: "Rice", Year: tt.year}, nil)
			require.NoError(t, err)
			require.Len(t, points, tt.want)

			seen := make(map[time.Time]bool)
			for i, p := range points {
				assert.Equal(t, i+1, p.DayOfYear)
				assert.Equal(t, int(p.Date.Month()), p.Month)
				assert.False(t, seen[p.Date], "duplicate date %s", p.Date)
				seen[p.Date] = true
				if i > 0 {
					assert.Equal(t, 24*time.Hour, p.Date.Sub(points[i-1].Date))
				}
			}
			assert.Equal(t, date(tt.year, 1, 1), points[0].Date)
			assert.Equal(t, date(tt.year, 12, 31), points[len(points)-1].Date)
		})
	}
}

func TestReindex_PlacesObservations(t *testing.T) {
	obs := []domain.Observation{
		{Item: "Rice", Date: date(2024, 3, 1), Price: 52},
		{Item: "Rice", Date: date(2023, 3, 1), Price: 48},
		{Item: "Corn", Date: date(2024, 3, 2), Price: 30},
	}
	original := append([]domain.Observation(nil), obs...)

	points, err := Reindex(domain.SeriesKey{Item: "Rice", Year: 2024}, obs)
	require.NoError(t, err)

	var present int
	for _, p := range points {
		if p.HasPrice() {
			present++
			assert.Equal(t, date(2024, 3, 1), p.Date)
			assert.Equal(t, 52.0, *p.Price)
			assert.Equal(t, domain.SourceObserved, p.Source)
		} else {
			assert.Equal(t, domain.SourceMissing, p.Source)
		}
	}
	assert.Equal(t, 1, present)
	assert.Equal(t, original, obs)
}

func TestReindex_InvalidYear(t *testing.T) {
	for _, year := range []int{0, 24, 999, 10000} {
		_, err := Reindex(domain.SeriesKey{Item: "Rice", Year: year}, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeData))
	}
}

func TestDateForDay(t *testing.T) {
	assert.Equal(t, date(2024, 2, 29), DateForDay(2024, 60))
	assert.Equal(t, date(2023, 3, 1), DateForDay(2023, 60))
	assert.Equal(t, date(2024, 12, 31), DateForDay(2024, 366))
}
