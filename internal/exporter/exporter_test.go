package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/dataprocessing"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

var fixedNow = time.Date(2025, 10, 17, 8, 0, 0, 0, time.UTC)

func setupExporter(t *testing.T) (*Exporter, *config.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := config.PathsConfig{
		DataDir:     dir,
		CleanDir:    "clean",
		ForecastDir: "forecasts",
		MobileDir:   "mobile",
	}.Resolve()
	e := New(paths, nil)
	e.now = func() time.Time { return fixedNow }
	return e, paths
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func point(date time.Time, price *float64, source domain.Source) domain.DailySeriesPoint {
	return domain.DailySeriesPoint{
		Date:       date,
		Price:      price,
		DayOfYear:  date.YearDay(),
		Month:      int(date.Month()),
		WasImputed: source != domain.SourceObserved && source != domain.SourceOfficial && source != domain.SourceTruncated,
		Source:     source,
	}
}

func readCSV(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestSafeFolderName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Rice", "Rice"},
		{"allowed punctuation", "Well-milled Rice_1.5", "Well-milled Rice_1.5"},
		{"slash and parens", "Ampalaya/Bitter Gourd (local)", "Ampalaya_Bitter Gourd _local_"},
		{"trimmed", "  Tomato  ", "Tomato"},
		{"double space collapsed", "Pechay  Baguio", "Pechay Baguio"},
		{"empty", "", "Sheet"},
		{"only spaces", "   ", "Sheet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeFolderName(tt.in))
		})
	}
}

func TestWriteSeries(t *testing.T) {
	e, paths := setupExporter(t)
	series := []domain.ItemSeries{{
		Item: "Rice (Regular)",
		Years: []domain.YearSeries{{
			Year: 2024,
			Points: []domain.DailySeriesPoint{
				point(day(2024, 1, 1), domain.Float(45.678), domain.SourceObserved),
				point(day(2024, 1, 2), domain.Float(46), domain.SourceInterpolated),
				point(day(2024, 1, 3), nil, domain.SourceTruncated),
			},
		}},
	}}

	written, err := e.WriteSeries(series)
	require.NoError(t, err)
	want := filepath.Join(paths.CleanDir, "Rice _Regular_", "2024.csv")
	assert.Equal(t, []string{want}, written)

	lines := readCSV(t, want)
	assert.Equal(t, []string{
		"date,price,was_imputed,was_adjusted,source",
		"2024-01-01,45.68,false,false,observed",
		"2024-01-02,46.00,true,false,interpolated",
		"2024-01-03,,false,false,truncated",
	}, lines)

	loaded, err := dataprocessing.LoadSeriesCSV(want)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, 45.68, *loaded[0].Price)
	assert.True(t, loaded[1].WasImputed)
	assert.False(t, loaded[2].HasPrice())
	assert.Equal(t, domain.SourceTruncated, loaded[2].Source)
}

func TestWriteWorkbook_RoundTrip(t *testing.T) {
	e, paths := setupExporter(t)
	series := []domain.ItemSeries{
		{Item: "Tomato", Years: []domain.YearSeries{
			{Year: 2023, Points: []domain.DailySeriesPoint{
				point(day(2023, 1, 1), domain.Float(40), domain.SourceObserved),
				point(day(2023, 2, 1), domain.Float(41.126), domain.SourceSeasonal),
				point(day(2023, 2, 2), nil, domain.SourceTruncated),
			}},
			{Year: 2024, Points: []domain.DailySeriesPoint{
				point(day(2024, 2, 29), domain.Float(50), domain.SourceObserved),
			}},
		}},
		{Item: "Onion/Red", Years: []domain.YearSeries{
			{Year: 2024, Points: []domain.DailySeriesPoint{
				point(day(2024, 12, 31), domain.Float(120), domain.SourceOfficial),
			}},
		}},
	}

	path, err := e.WriteWorkbook(series)
	require.NoError(t, err)
	assert.Equal(t, paths.ReconciledWorkbookPath(), path)

	wb, err := dataprocessing.ParseWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, 2, wb.Sheets)
	assert.Empty(t, wb.Rejected)
	assert.ElementsMatch(t, []domain.SeriesKey{
		{Item: "Tomato", Year: 2023},
		{Item: "Tomato", Year: 2024},
		{Item: "Onion_Red", Year: 2024},
	}, wb.Declared)

	got := make(map[domain.PointKey]float64)
	for _, o := range wb.Observations {
		got[o.Key()] = o.Price
	}
	assert.Equal(t, map[domain.PointKey]float64{
		{Item: "Tomato", Date: "2023-01-01"}:    40,
		{Item: "Tomato", Date: "2023-02-01"}:    41.13,
		{Item: "Tomato", Date: "2024-02-29"}:    50,
		{Item: "Onion_Red", Date: "2024-12-31"}: 120,
	}, got)
}

func TestWriteWorkbook_Empty(t *testing.T) {
	e, paths := setupExporter(t)

	path, err := e.WriteWorkbook(nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoFileExists(t, paths.ReconciledWorkbookPath())
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)

	assert.Equal(t, "Rice", sheetName("Rice", used))
	assert.Equal(t, "Rice~2", sheetName("Rice", used))
	assert.Equal(t, strings.Repeat("x", 31), sheetName(long, used))
	second := sheetName(long, used)
	assert.Len(t, second, 31)
	assert.True(t, strings.HasSuffix(second, "~2"))
}

func TestWriteForecasts(t *testing.T) {
	e, paths := setupExporter(t)
	mape := 12.345678
	results := []domain.ForecastResult{
		{
			Item:  "Tomato",
			Model: domain.ModelSeasonalTrend,
			Points: []domain.ForecastPoint{
				{Date: day(2025, 1, 1), Forecast: 40.123, Lower: 30, Upper: 50.5},
			},
		},
		{
			Item:   "Banana",
			Model:  domain.ModelSeasonalTrend,
			Metric: &mape,
			Points: []domain.ForecastPoint{{Date: day(2025, 1, 1), Forecast: 60}},
		},
	}

	rows, err := e.WriteForecasts(results, map[string]string{"Banana": "Banana (Lakatan)"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Banana", rows[0].Item)
	assert.Equal(t, "Banana (Lakatan)", rows[0].DisplayName)
	assert.Equal(t, "Tomato", rows[1].DisplayName)

	tomato := readCSV(t, filepath.Join(paths.ForecastDir, "Tomato", config.ForecastFileName))
	assert.Equal(t, []string{"date,forecast,lower,upper", "2025-01-01,40.12,30.00,50.50"}, tomato)

	summary := readCSV(t, paths.SummaryPath())
	require.Len(t, summary, 3)
	assert.Equal(t, "item,display_name,model,mape,path", summary[0])
	assert.True(t, strings.HasPrefix(summary[1], "Banana,Banana (Lakatan),seasonal_trend,12.3457,"))
	assert.True(t, strings.HasPrefix(summary[2], "Tomato,Tomato,seasonal_trend,,"))
}

func TestBuildPricesPayload(t *testing.T) {
	series := []domain.ItemSeries{
		{Item: "tomato", Years: []domain.YearSeries{{Year: 2024, Points: []domain.DailySeriesPoint{
			point(day(2024, 1, 1), domain.Float(10), domain.SourceObserved),
			point(day(2024, 1, 2), domain.Float(11), domain.SourceObserved),
			point(day(2024, 3, 1), domain.Float(20.005), domain.SourceObserved),
			point(day(2024, 3, 2), nil, domain.SourceTruncated),
		}}}},
		{Item: "Banana", Years: []domain.YearSeries{
			{Year: 2024, Points: []domain.DailySeriesPoint{point(day(2024, 5, 1), domain.Float(5), domain.SourceObserved)}},
			{Year: 2023, Points: []domain.DailySeriesPoint{point(day(2023, 5, 1), domain.Float(4), domain.SourceObserved)}},
		}},
	}

	payload := BuildPricesPayload(series, fixedNow)
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "Banana", payload.Items[0].Name)
	assert.Equal(t, 2023, payload.Items[0].Years[0].Year)

	months := payload.Items[1].Years[0].Months
	require.Len(t, months, 12)
	assert.Equal(t, "Jan", months[0].Label)
	assert.Equal(t, 10.5, *months[0].Price)
	assert.Nil(t, months[1].Price)
	assert.Equal(t, 20.01, *months[2].Price)
	assert.Equal(t, "Dec", months[11].Label)
}

func TestBuildCurrentPrices(t *testing.T) {
	t.Run("official window", func(t *testing.T) {
		official := []domain.Observation{
			{Item: "Rice", Date: day(2025, 10, 14), Price: 45.555},
			{Item: "Rice", Date: day(2025, 9, 14), Price: 44},
			{Item: "Rice", Date: day(2025, 9, 13), Price: 43},
			{Item: "banana", Date: day(2025, 10, 1), Price: 60},
		}
		p := BuildCurrentPrices(official, nil, 30, fixedNow)

		require.NotNil(t, p.LatestDate)
		assert.Equal(t, "2025-10-14", *p.LatestDate)
		assert.Equal(t, 30, p.DaysShown)
		require.Len(t, p.Items, 2)
		assert.Equal(t, "banana", p.Items[0].Name)
		assert.Equal(t, []DatedPrice{
			{Date: "2025-09-14", Price: 44},
			{Date: "2025-10-14", Price: 45.56},
		}, p.Items[1].Prices)
	})

	t.Run("falls back to latest cleaned year", func(t *testing.T) {
		cleaned := map[string][]domain.DailySeriesPoint{
			"Rice": {
				point(day(2023, 12, 31), domain.Float(30), domain.SourceObserved),
				point(day(2024, 1, 1), domain.Float(40), domain.SourceObserved),
				point(day(2024, 1, 2), nil, domain.SourceTruncated),
			},
		}
		p := BuildCurrentPrices(nil, cleaned, 30, fixedNow)

		require.NotNil(t, p.LatestDate)
		assert.Equal(t, "2024-01-01", *p.LatestDate)
		require.Len(t, p.Items, 1)
		assert.Equal(t, []DatedPrice{{Date: "2024-01-01", Price: 40}}, p.Items[0].Prices)
	})

	t.Run("empty", func(t *testing.T) {
		p := BuildCurrentPrices(nil, nil, 30, fixedNow)
		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"latestDate":null`)
		assert.Contains(t, string(data), `"items":[]`)
		assert.NotContains(t, string(data), "daysShown")
	})
}

func TestMobileJSONFiles(t *testing.T) {
	e, paths := setupExporter(t)
	series := []domain.ItemSeries{{Item: "Onion/Red", Years: []domain.YearSeries{{Year: 2024, Points: []domain.DailySeriesPoint{
		point(day(2024, 6, 1), domain.Float(100), domain.SourceObserved),
	}}}}}

	path, err := e.WritePricesJSON(series)
	require.NoError(t, err)
	assert.Equal(t, paths.MobilePath(config.PricesJSONName), path)

	names := e.LoadDisplayNames()
	assert.Equal(t, map[string]string{"Onion_Red": "Onion/Red"}, names)

	results := []domain.ForecastResult{{
		Item:   "Onion_Red",
		Model:  domain.ModelSeasonalTrend,
		Points: []domain.ForecastPoint{{Date: day(2025, 1, 1), Forecast: 90, Lower: 80, Upper: 100}},
	}}
	path, err = e.WriteForecastsJSON(results, names, 90)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var payload ForecastsPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, 90, payload.HorizonDays)
	assert.True(t, fixedNow.Equal(payload.GeneratedAt))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "Onion/Red", payload.Items[0].Name)
	assert.Equal(t, "Onion_Red", payload.Items[0].Key)
	assert.Nil(t, payload.Items[0].MAPE)
	assert.Equal(t, "2025-01-01", payload.Items[0].Points[0].Date)

	_, err = e.WriteCurrentPrices(nil, nil)
	require.NoError(t, err)
	assert.FileExists(t, paths.MobilePath(config.CurrentPricesJSONName))
}

func TestLoadDisplayNames_Missing(t *testing.T) {
	e, _ := setupExporter(t)
	assert.Empty(t, e.LoadDisplayNames())
}
