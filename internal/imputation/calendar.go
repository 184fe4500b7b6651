package imputation

import (
	"time"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// Reindex lays the observations of key.Item onto every day of key.Year.
// Days without an observation carry a nil price and SourceMissing.
func Reindex(key domain.SeriesKey, obs []domain.Observation) ([]domain.DailySeriesPoint, error) {
	if key.Year < 1000 || key.Year > 9999 {
		return nil, apperrors.NewDataError("series year is not a 4-digit year", nil).
			WithContext("item", key.Item).
			WithContext("year", key.Year)
	}

	points := CalendarGrid(key.Year)
	for _, o := range obs {
		if o.Item != key.Item {
			continue
		}
		d := domain.Day(o.Date)
		if d.Year() != key.Year {
			continue
		}
		p := &points[d.YearDay()-1]
		p.Price = domain.Float(o.Price)
		p.Source = domain.SourceObserved
	}
	return points, nil
}

// CalendarGrid returns an empty point for every day of year
func CalendarGrid(year int) []domain.DailySeriesPoint {
	n := domain.DaysInYear(year)
	points := make([]domain.DailySeriesPoint, n)
	for i := range points {
		points[i] = emptyPoint(DateForDay(year, i+1))
	}
	return points
}

// DateForDay rebuilds the calendar date from a year and a 1-based day-of-year
func DateForDay(year, dayOfYear int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayOfYear-1)
}

func emptyPoint(d time.Time) domain.DailySeriesPoint {
	return domain.DailySeriesPoint{
		Date:      d,
		DayOfYear: d.YearDay(),
		Month:     int(d.Month()),
		Source:    domain.SourceMissing,
	}
}
