package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

func point(date string, price *float64) domain.DailySeriesPoint {
	d, _ := domain.ParseDate(date)
	return domain.DailySeriesPoint{
		Date:      d,
		Price:     price,
		DayOfYear: d.YearDay(),
		Month:     int(d.Month()),
		Source:    domain.SourceObserved,
	}
}

func TestFillDaily(t *testing.T) {
	input := []domain.DailySeriesPoint{
		point("2024-01-05", domain.Float(30)),
		point("2024-01-01", domain.Float(10)),
		point("2024-01-02", nil),
		point("2024-01-03", domain.Float(20)),
	}

	filled := NewForwardFillProcessor().FillDaily(input)
	require.Len(t, filled, 5)

	expected := []float64{10, 10, 20, 20, 30}
	imputed := []bool{false, true, false, true, false}
	for i, p := range filled {
		assert.Equal(t, "2024-01-0"+string(rune('1'+i)), p.Date.Format(domain.DateLayout))
		assert.Equal(t, expected[i], p.Value(), "day %d", i+1)
		assert.Equal(t, imputed[i], p.WasImputed, "day %d", i+1)
	}
	assert.Equal(t, 4, filled[3].DayOfYear)
	assert.Equal(t, domain.SourceObserved, filled[3].Source)
}

func TestFillDailyDoesNotMutateInput(t *testing.T) {
	input := []domain.DailySeriesPoint{
		point("2024-01-03", domain.Float(20)),
		point("2024-01-01", domain.Float(10)),
	}

	filled := NewForwardFillProcessor().FillDaily(input)
	*filled[0].Price = 99

	assert.Equal(t, "2024-01-03", input[0].Date.Format(domain.DateLayout))
	assert.Equal(t, 10.0, input[1].Value())
}

func TestFillDailyEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		input    []domain.DailySeriesPoint
		expected int
	}{
		{name: "nil input", input: nil, expected: 0},
		{name: "all null", input: []domain.DailySeriesPoint{point("2024-01-01", nil)}, expected: 0},
		{name: "single point", input: []domain.DailySeriesPoint{point("2024-01-01", domain.Float(5))}, expected: 1},
		{
			name: "duplicate dates",
			input: []domain.DailySeriesPoint{
				point("2024-01-01", domain.Float(5)),
				point("2024-01-01", domain.Float(7)),
				point("2024-01-02", domain.Float(8)),
			},
			expected: 2,
		},
		{
			name: "across year boundary",
			input: []domain.DailySeriesPoint{
				point("2023-12-30", domain.Float(5)),
				point("2024-01-02", domain.Float(8)),
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, NewForwardFillProcessor().FillDaily(tt.input), tt.expected)
		})
	}
}

func TestFillDailyDuplicateLastWins(t *testing.T) {
	filled := NewForwardFillProcessor().FillDaily([]domain.DailySeriesPoint{
		point("2024-01-01", domain.Float(5)),
		point("2024-01-01", domain.Float(7)),
	})
	require.Len(t, filled, 1)
	assert.Equal(t, 7.0, filled[0].Value())
}

func TestFillDailyWithStats(t *testing.T) {
	processor := NewForwardFillProcessor()
	filled, stats := processor.FillDailyWithStats([]domain.DailySeriesPoint{
		point("2024-03-01", domain.Float(1)),
		point("2024-03-02", nil),
		point("2024-03-10", domain.Float(2)),
	})

	assert.Len(t, filled, 10)
	assert.Equal(t, ForwardFillStatistics{
		InputPoints:        3,
		KnownPoints:        2,
		TotalPoints:        10,
		ForwardFilledCount: 8,
	}, stats)
	assert.True(t, filled[5].Date.Equal(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)))
}
