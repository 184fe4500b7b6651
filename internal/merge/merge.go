// Package merge overlays official bulletin prices on reconstructed series and
// blanks the part of the current year that lies beyond the latest bulletin.
package merge

import (
	"log/slog"
	"sort"
	"time"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/imputation"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// Report counts what a merge changed
type Report struct {
	Overrides         int
	MaterialisedYears []int
	Truncated         int
}

// Merger applies official prices to item series
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a merger
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger.With(slog.String("component", "merge"))}
}

// Apply returns a copy of series with official prices applied and the
// future cutoff enforced
func (m *Merger) Apply(series domain.ItemSeries, official []domain.Observation, cutoff time.Time) domain.ItemSeries {
	out, _ := m.ApplyWithReport(series, official, cutoff)
	return out
}

// ApplyWithReport is Apply plus a summary of the changes. Official records of
// other items are ignored. A zero cutoff disables truncation.
func (m *Merger) ApplyWithReport(series domain.ItemSeries, official []domain.Observation, cutoff time.Time) (domain.ItemSeries, Report) {
	var report Report

	years := make(map[int][]domain.DailySeriesPoint, len(series.Years))
	for _, ys := range series.Years {
		years[ys.Year] = append([]domain.DailySeriesPoint(nil), ys.Points...)
	}

	for _, rec := range Dedupe(official) {
		if rec.Item != series.Item {
			continue
		}
		d := domain.Day(rec.Date)
		points, ok := years[d.Year()]
		if !ok {
			points = imputation.CalendarGrid(d.Year())
			years[d.Year()] = points
			report.MaterialisedYears = append(report.MaterialisedYears, d.Year())
		}

		p := &points[d.YearDay()-1]
		p.Price = domain.Float(rec.Price)
		p.WasImputed = false
		p.WasAdjusted = false
		p.Source = domain.SourceOfficial
		report.Overrides++
	}

	if !cutoff.IsZero() {
		cutoff = domain.Day(cutoff)
		if points, ok := years[cutoff.Year()]; ok {
			for i := range points {
				if !points[i].Date.After(cutoff) {
					continue
				}
				points[i].Price = nil
				points[i].WasImputed = false
				points[i].WasAdjusted = false
				points[i].Source = domain.SourceTruncated
				report.Truncated++
			}
		}
	}

	out := domain.ItemSeries{Item: series.Item, Years: make([]domain.YearSeries, 0, len(years))}
	for year, points := range years {
		out.Years = append(out.Years, domain.YearSeries{Year: year, Points: points})
	}
	sort.Slice(out.Years, func(i, j int) bool { return out.Years[i].Year < out.Years[j].Year })
	sort.Ints(report.MaterialisedYears)

	if report.Overrides > 0 || report.Truncated > 0 {
		m.logger.Debug("official prices merged",
			slog.String("item", series.Item),
			slog.Int("overrides", report.Overrides),
			slog.Int("truncated", report.Truncated),
			slog.Any("materialised_years", report.MaterialisedYears))
	}
	return out, report
}

// Cutoff returns the day after the latest official record. Without official
// records it falls back to November 1 of referenceYear, and to the zero time
// when referenceYear is 0.
func Cutoff(official []domain.Observation, referenceYear int) time.Time {
	var last time.Time
	for _, rec := range official {
		if d := domain.Day(rec.Date); d.After(last) {
			last = d
		}
	}
	if !last.IsZero() {
		return last.AddDate(0, 0, 1)
	}
	if referenceYear == 0 {
		return time.Time{}
	}
	return time.Date(referenceYear, time.November, 1, 0, 0, 0, 0, time.UTC)
}

// Dedupe averages official records that share an (item, date), ordered by item then date
func Dedupe(official []domain.Observation) []domain.Observation {
	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[domain.PointKey]*acc)
	var keys []domain.PointKey
	for _, rec := range official {
		k := rec.Key()
		a, ok := sums[k]
		if !ok {
			a = &acc{}
			sums[k] = a
			keys = append(keys, k)
		}
		a.sum += rec.Price
		a.count++
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Item != keys[j].Item {
			return keys[i].Item < keys[j].Item
		}
		return keys[i].Date < keys[j].Date
	})

	out := make([]domain.Observation, 0, len(keys))
	for _, k := range keys {
		d, _ := domain.ParseDate(k.Date)
		a := sums[k]
		out = append(out, domain.Observation{Item: k.Item, Date: d, Price: a.sum / float64(a.count)})
	}
	return out
}
