package forecast

import (
	"math"
	"sort"
	"time"
)

type monthDay struct {
	month time.Month
	day   int
}

func keyOf(t time.Time) monthDay {
	return monthDay{month: t.Month(), day: t.Day()}
}

// seasonalBaseline groups historical prices by calendar day
type seasonalBaseline struct {
	samples map[monthDay][]float64
	medians map[monthDay]float64
}

func newSeasonalBaseline(dates []time.Time, values []float64) *seasonalBaseline {
	b := &seasonalBaseline{
		samples: make(map[monthDay][]float64),
		medians: make(map[monthDay]float64),
	}
	for i, d := range dates {
		k := keyOf(d)
		b.samples[k] = append(b.samples[k], values[i])
	}
	for k, vals := range b.samples {
		b.medians[k] = median(vals)
	}
	return b
}

// value returns the median price for the calendar day of t
func (b *seasonalBaseline) value(t time.Time) (float64, bool) {
	v, ok := b.medians[keyOf(t)]
	return v, ok
}

// spread returns the population standard deviation of the samples for the
// calendar day of t and how many samples there are
func (b *seasonalBaseline) spread(t time.Time) (float64, int) {
	vals := b.samples[keyOf(t)]
	if len(vals) < 2 {
		return 0, len(vals)
	}
	return stddev(vals, 0), len(vals)
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev with ddof 0 is the population deviation, ddof 1 the sample deviation
func stddev(vals []float64, ddof int) float64 {
	n := len(vals) - ddof
	if n <= 0 {
		return math.NaN()
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(n))
}
