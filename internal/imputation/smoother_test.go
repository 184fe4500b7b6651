package imputation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoother_ReplacesIsolatedSpike(t *testing.T) {
	s := NewSmoother(7, 3, 3)
	in := []float64{10, 10, 10, 50, 10, 10, 10}

	out, adjusted := s.Smooth(in)

	assert.Equal(t, []float64{10, 10, 10, 10, 10, 10, 10}, out)
	assert.Equal(t, []bool{false, false, false, true, false, false, false}, adjusted)
	assert.Equal(t, 50.0, in[3], "input untouched")
}

func TestSmoother_CleanInputUnchanged(t *testing.T) {
	s := NewSmoother(7, 3, 3)

	tests := []struct {
		name string
		in   []float64
	}{
		{"constant", []float64{20, 20, 20, 20, 20, 20, 20, 20, 20, 20}},
		{"linear trend", func() []float64 {
			v := make([]float64, 60)
			for i := range v {
				v[i] = 100 + 0.5*float64(i)
			}
			return v
		}()},
		{"gentle seasonality", func() []float64 {
			v := make([]float64, 120)
			for i := range v {
				v[i] = 50 + 3*math.Sin(float64(i)/10)
			}
			return v
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, adjusted := s.Smooth(tt.in)
			assert.Equal(t, tt.in, out)
			for _, a := range adjusted {
				assert.False(t, a)
			}

			again, _ := s.Smooth(out)
			assert.Equal(t, out, again)
		})
	}
}

func TestSmoother_EdgesAndGaps(t *testing.T) {
	s := NewSmoother(7, 3, 3)
	nan := math.NaN()

	// spike at the edge is never touched
	out, adjusted := s.Smooth([]float64{90, 10, 10, 10, 10})
	assert.Equal(t, 90.0, out[0])
	assert.False(t, adjusted[0])

	// spike next to a missing neighbour is skipped
	out, adjusted = s.Smooth([]float64{10, 10, nan, 80, 10, 10, 10})
	assert.Equal(t, 80.0, out[3])
	assert.False(t, adjusted[3])
	assert.True(t, math.IsNaN(out[2]))
}

func TestSmoother_PlateauIsNotASpike(t *testing.T) {
	s := NewSmoother(7, 3, 3)
	in := []float64{10, 10, 10, 50, 50, 10, 10, 10}

	out, adjusted := s.Smooth(in)

	// the neighbours of each high point are too far from the median
	assert.Equal(t, in, out)
	assert.NotContains(t, adjusted, true)
}

func TestSmoother_ShortSeries(t *testing.T) {
	out, adjusted := NewSmoother(7, 3, 3).Smooth([]float64{1, 100})
	assert.Equal(t, []float64{1, 100}, out)
	assert.Equal(t, []bool{false, false}, adjusted)
}
