package imputation

import "math"

// Smoother replaces isolated spikes with the mean of their neighbours.
// Rolling statistics use a centered window and are computed once from the input.
type Smoother struct {
	Window     int
	MinPeriods int
	Multiplier float64
}

// NewSmoother returns a smoother with the given window, min periods and MAD multiplier
func NewSmoother(window, minPeriods int, multiplier float64) Smoother {
	return Smoother{Window: window, MinPeriods: minPeriods, Multiplier: multiplier}
}

// Smooth returns a corrected copy of values and which positions were replaced.
// NaN marks a missing value. The first and last points never change.
func (s Smoother) Smooth(values []float64) ([]float64, []bool) {
	n := len(values)
	out := append([]float64(nil), values...)
	adjusted := make([]bool, n)
	if n < 3 {
		return out, adjusted
	}

	med := s.rolling(values)
	dev := make([]float64, n)
	for i := range values {
		dev[i] = math.Abs(values[i] - med[i])
	}
	mad := s.rolling(dev)

	for i := 1; i < n-1; i++ {
		cur, prev, next := out[i], out[i-1], out[i+1]
		if math.IsNaN(cur) || math.IsNaN(med[i]) || math.IsNaN(prev) || math.IsNaN(next) {
			continue
		}

		localMAD := mad[i]
		if math.IsNaN(localMAD) || localMAD == 0 {
			localMAD = math.Max(0.1*math.Abs(med[i]), 1.0)
		}

		threshold := s.Multiplier * localMAD
		deviation := math.Abs(cur - med[i])
		span := math.Max(math.Abs(prev-med[i]), math.Abs(next-med[i]))

		if deviation > threshold && span < threshold/2 {
			out[i] = (prev + next) / 2
			adjusted[i] = true
		}
	}
	return out, adjusted
}

// rolling computes a centered rolling median, NaN where fewer than MinPeriods
// values are present in the window
func (s Smoother) rolling(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	buf := make([]float64, 0, s.Window)
	for i := 0; i < n; i++ {
		lo := i - s.Window/2
		hi := lo + s.Window - 1
		buf = buf[:0]
		for j := max(lo, 0); j <= min(hi, n-1); j++ {
			if !math.IsNaN(values[j]) {
				buf = append(buf, values[j])
			}
		}
		if len(buf) < s.MinPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i], _ = Median(buf)
	}
	return out
}
