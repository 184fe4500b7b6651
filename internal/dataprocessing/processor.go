package dataprocessing

import (
	"sort"
	"time"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// ForwardFillProcessor turns a sparse price history into a contiguous daily series
type ForwardFillProcessor struct{}

// NewForwardFillProcessor creates a new forward-fill processor
func NewForwardFillProcessor() *ForwardFillProcessor {
	return &ForwardFillProcessor{}
}

// FillDaily drops points without a price, sorts the rest by date and fills
// every missing calendar day with the last known price. Filled points are
// marked WasImputed and keep the source of the point they copy. When a date
// appears more than once the last occurrence wins.
func (f *ForwardFillProcessor) FillDaily(points []domain.DailySeriesPoint) []domain.DailySeriesPoint {
	known := make([]domain.DailySeriesPoint, 0, len(points))
	for _, p := range points {
		if !p.HasPrice() {
			continue
		}
		p.Date = domain.Day(p.Date)
		p.Price = domain.Float(*p.Price)
		known = append(known, p)
	}
	if len(known) == 0 {
		return nil
	}

	sort.SliceStable(known, func(i, j int) bool { return known[i].Date.Before(known[j].Date) })
	deduped := known[:0]
	for _, p := range known {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	first, last := deduped[0].Date, deduped[len(deduped)-1].Date
	days := int(last.Sub(first).Hours()/24) + 1
	result := make([]domain.DailySeriesPoint, 0, days)

	next := 0
	var lastKnown domain.DailySeriesPoint
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if next < len(deduped) && deduped[next].Date.Equal(day) {
			lastKnown = deduped[next]
			result = append(result, lastKnown)
			next++
			continue
		}
		result = append(result, f.createFilledPoint(lastKnown, day))
	}
	return result
}

// createFilledPoint copies the last known price onto date
func (f *ForwardFillProcessor) createFilledPoint(last domain.DailySeriesPoint, date time.Time) domain.DailySeriesPoint {
	return domain.DailySeriesPoint{
		Date:        date,
		Price:       domain.Float(last.Value()),
		DayOfYear:   date.YearDay(),
		Month:       int(date.Month()),
		WasImputed:  true,
		WasAdjusted: false,
		Source:      last.Source,
	}
}

// ForwardFillStatistics represents forward-fill operation statistics
type ForwardFillStatistics struct {
	InputPoints        int
	KnownPoints        int
	TotalPoints        int
	ForwardFilledCount int
}

// FillDailyWithStats performs the daily forward-fill and returns statistics
func (f *ForwardFillProcessor) FillDailyWithStats(points []domain.DailySeriesPoint) ([]domain.DailySeriesPoint, ForwardFillStatistics) {
	filled := f.FillDaily(points)

	stats := ForwardFillStatistics{
		InputPoints: len(points),
		TotalPoints: len(filled),
	}
	for _, p := range points {
		if p.HasPrice() {
			stats.KnownPoints++
		}
	}
	stats.ForwardFilledCount = len(filled) - countDistinctDays(points)
	return filled, stats
}

func countDistinctDays(points []domain.DailySeriesPoint) int {
	seen := make(map[time.Time]struct{}, len(points))
	for _, p := range points {
		if p.HasPrice() {
			seen[domain.Day(p.Date)] = struct{}{}
		}
	}
	return len(seen)
}
