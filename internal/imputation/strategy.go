package imputation

import (
	"math"
	"time"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// MissingPoint is a day of a series with no known price
type MissingPoint struct {
	Index     int
	Date      time.Time
	DayOfYear int
	Month     int
}

// FillContext is the read-only view a strategy gets of the series being filled
type FillContext struct {
	Item   string
	Year   int
	Values []float64 // pre-imputation prices, NaN where missing
	Stats  *SeasonalStatistics

	prev, next []int // nearest known index on each side, -1 when none

	seriesMedian   map[int]float64
	seriesMedianOK map[int]bool
}

// NewFillContext indexes values for neighbour lookups
func NewFillContext(item string, year int, values []float64, stats *SeasonalStatistics) *FillContext {
	n := len(values)
	fc := &FillContext{
		Item:           item,
		Year:           year,
		Values:         values,
		Stats:          stats,
		prev:           make([]int, n),
		next:           make([]int, n),
		seriesMedian:   make(map[int]float64),
		seriesMedianOK: make(map[int]bool),
	}

	last := -1
	for i := 0; i < n; i++ {
		fc.prev[i] = last
		if !math.IsNaN(values[i]) {
			last = i
		}
	}
	last = -1
	for i := n - 1; i >= 0; i-- {
		fc.next[i] = last
		if !math.IsNaN(values[i]) {
			last = i
		}
	}
	return fc
}

// FillStrategy proposes a value for one missing point
type FillStrategy interface {
	Source() domain.Source
	Fill(p MissingPoint, fc *FillContext) (float64, bool)
}

// TimeInterpolation fills linearly between the nearest known days. A point is
// only filled when it is at most Limit days after the previous known value or
// at most Limit days before the next one. Leading and trailing gaps take the
// nearest edge value under the same rule. Limit <= 0 means no limit.
type TimeInterpolation struct {
	Limit int
}

func (TimeInterpolation) Source() domain.Source { return domain.SourceInterpolated }

func (t TimeInterpolation) Fill(p MissingPoint, fc *FillContext) (float64, bool) {
	i := p.Index
	prev, next := fc.prev[i], fc.next[i]
	within := func(dist int) bool { return t.Limit <= 0 || dist <= t.Limit }

	switch {
	case prev < 0 && next < 0:
		return 0, false
	case prev < 0:
		if within(next - i) {
			return fc.Values[next], true
		}
	case next < 0:
		if within(i - prev) {
			return fc.Values[prev], true
		}
	default:
		if within(i-prev) || within(next-i) {
			frac := float64(i-prev) / float64(next-prev)
			return fc.Values[prev] + (fc.Values[next]-fc.Values[prev])*frac, true
		}
	}
	return 0, false
}

// SeasonalMean uses the item's mean for the same day-of-year
type SeasonalMean struct{}

func (SeasonalMean) Source() domain.Source { return domain.SourceSeasonal }

func (SeasonalMean) Fill(p MissingPoint, fc *FillContext) (float64, bool) {
	return fc.Stats.DayOfYearMean(fc.Item, p.DayOfYear)
}

// MonthlyMedian uses the item's median for the same month
type MonthlyMedian struct{}

func (MonthlyMedian) Source() domain.Source { return domain.SourceMonthly }

func (MonthlyMedian) Fill(p MissingPoint, fc *FillContext) (float64, bool) {
	return fc.Stats.MonthMedian(fc.Item, p.Month)
}

// ItemMedian uses the item's all-time median
type ItemMedian struct{}

func (ItemMedian) Source() domain.Source { return domain.SourceItemMedian }

func (ItemMedian) Fill(_ MissingPoint, fc *FillContext) (float64, bool) {
	return fc.Stats.ItemMedian(fc.Item)
}

// SeriesMedian uses the median of the series after interpolation
type SeriesMedian struct {
	Interpolation TimeInterpolation
}

func (SeriesMedian) Source() domain.Source { return domain.SourceSeriesMedian }

func (s SeriesMedian) Fill(_ MissingPoint, fc *FillContext) (float64, bool) {
	limit := s.Interpolation.Limit
	if ok, cached := fc.seriesMedianOK[limit]; cached {
		return fc.seriesMedian[limit], ok
	}

	var vals []float64
	for i, v := range fc.Values {
		if !math.IsNaN(v) {
			vals = append(vals, v)
			continue
		}
		if f, ok := s.Interpolation.Fill(MissingPoint{Index: i}, fc); ok {
			vals = append(vals, f)
		}
	}
	m, ok := Median(vals)
	fc.seriesMedian[limit], fc.seriesMedianOK[limit] = m, ok
	return m, ok
}

// DefaultChain returns the standard fallback order
func DefaultChain(limit int) []FillStrategy {
	interp := TimeInterpolation{Limit: limit}
	return []FillStrategy{
		interp,
		SeasonalMean{},
		MonthlyMedian{},
		ItemMedian{},
		SeriesMedian{Interpolation: interp},
	}
}
