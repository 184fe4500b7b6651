package domain

import "time"

// Source names where a stored daily price came from
type Source string

const (
	SourceObserved     Source = "observed"
	SourceInterpolated Source = "interpolated"
	SourceSeasonal     Source = "seasonal"
	SourceMonthly      Source = "monthly"
	SourceItemMedian   Source = "item_median"
	SourceSeriesMedian Source = "series_median"
	SourceSmoothed     Source = "smoothed"
	SourceOfficial     Source = "official"
	SourceTruncated    Source = "truncated"
	SourceMissing      Source = "missing"
)

// DailySeriesPoint is one calendar day of an item-year series.
// Price is nil when the value is unknown.
type DailySeriesPoint struct {
	Date        time.Time `json:"date"`
	Price       *float64  `json:"price"`
	DayOfYear   int       `json:"day_of_year"`
	Month       int       `json:"month"`
	WasImputed  bool      `json:"was_imputed"`
	WasAdjusted bool      `json:"was_adjusted"`
	Source      Source    `json:"source"`
}

// HasPrice reports whether the point carries a value
func (p DailySeriesPoint) HasPrice() bool {
	return p.Price != nil
}

// Value returns the price or 0 when unknown
func (p DailySeriesPoint) Value() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// Float returns a pointer to a copy of v
func Float(v float64) *float64 {
	return &v
}

// YearSeries is the dense daily series of one item for one calendar year
type YearSeries struct {
	Year   int                `json:"year"`
	Points []DailySeriesPoint `json:"points"`
}

// ItemSeries holds every year of an item's reconstructed history
type ItemSeries struct {
	Item  string       `json:"item"`
	Years []YearSeries `json:"years"`
}

// Year returns the series for year, if present
func (s ItemSeries) Year(year int) (YearSeries, bool) {
	for _, ys := range s.Years {
		if ys.Year == year {
			return ys, true
		}
	}
	return YearSeries{}, false
}

// Points flattens all years into one chronological slice
func (s ItemSeries) Points() []DailySeriesPoint {
	var n int
	for _, ys := range s.Years {
		n += len(ys.Points)
	}
	out := make([]DailySeriesPoint, 0, n)
	for _, ys := range s.Years {
		out = append(out, ys.Points...)
	}
	return out
}
