package imputation

import (
	"sort"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

type itemStats struct {
	dayOfYearMean map[int]float64
	monthMedian   map[int]float64
	median        float64
	hasMedian     bool
}

// SeasonalStatistics holds per-item seasonal aggregates of observed prices.
// It is never modified after BuildStatistics returns.
type SeasonalStatistics struct {
	items map[string]*itemStats
}

// BuildStatistics aggregates observed prices across all years of each item
func BuildStatistics(obs []domain.Observation) *SeasonalStatistics {
	type bucket struct {
		byDay   map[int][]float64
		byMonth map[int][]float64
		all     []float64
	}
	buckets := make(map[string]*bucket)
	for _, o := range obs {
		b, ok := buckets[o.Item]
		if !ok {
			b = &bucket{byDay: make(map[int][]float64), byMonth: make(map[int][]float64)}
			buckets[o.Item] = b
		}
		d := domain.Day(o.Date)
		b.byDay[d.YearDay()] = append(b.byDay[d.YearDay()], o.Price)
		b.byMonth[int(d.Month())] = append(b.byMonth[int(d.Month())], o.Price)
		b.all = append(b.all, o.Price)
	}

	stats := &SeasonalStatistics{items: make(map[string]*itemStats, len(buckets))}
	for item, b := range buckets {
		s := &itemStats{
			dayOfYearMean: make(map[int]float64, len(b.byDay)),
			monthMedian:   make(map[int]float64, len(b.byMonth)),
		}
		for doy, vals := range b.byDay {
			s.dayOfYearMean[doy] = mean(vals)
		}
		for m, vals := range b.byMonth {
			s.monthMedian[m], _ = Median(vals)
		}
		s.median, s.hasMedian = Median(b.all)
		stats.items[item] = s
	}
	return stats
}

// Has reports whether item has at least one observed price
func (s *SeasonalStatistics) Has(item string) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[item]
	return ok
}

// DayOfYearMean returns the item's mean price on dayOfYear
func (s *SeasonalStatistics) DayOfYearMean(item string, dayOfYear int) (float64, bool) {
	if !s.Has(item) {
		return 0, false
	}
	v, ok := s.items[item].dayOfYearMean[dayOfYear]
	return v, ok
}

// MonthMedian returns the item's median price for month
func (s *SeasonalStatistics) MonthMedian(item string, month int) (float64, bool) {
	if !s.Has(item) {
		return 0, false
	}
	v, ok := s.items[item].monthMedian[month]
	return v, ok
}

// ItemMedian returns the item's all-time median price
func (s *SeasonalStatistics) ItemMedian(item string) (float64, bool) {
	if !s.Has(item) {
		return 0, false
	}
	st := s.items[item]
	return st.median, st.hasMedian
}

// Median returns the median of vals; ok is false for an empty slice
func Median(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
