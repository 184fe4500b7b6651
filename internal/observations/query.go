package observations

import (
	"math"
	"strings"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// Summarize returns per-item observation statistics, sorted by item.
// Items without any observation are skipped.
func (s *Store) Summarize() []domain.ItemSummary {
	var out []domain.ItemSummary
	for _, item := range s.Items() {
		obs := s.Observations(item)
		if len(obs) == 0 {
			continue
		}

		sum := domain.ItemSummary{
			Item:       item,
			FirstYear:  obs[0].Date.Year(),
			LatestYear: obs[len(obs)-1].Date.Year(),
			MinPrice:   math.Inf(1),
			MaxPrice:   math.Inf(-1),
		}
		var total float64
		for _, o := range obs {
			total += o.Price
			sum.MinPrice = math.Min(sum.MinPrice, o.Price)
			sum.MaxPrice = math.Max(sum.MaxPrice, o.Price)
		}
		sum.Observations = len(obs)
		sum.AvgPrice = total / float64(len(obs))
		out = append(out, sum)
	}
	return out
}

// CompareYears reports each item's change in annual mean price between
// base and target. Both years must exist somewhere in the store; items
// lacking either year are left out.
func (s *Store) CompareYears(base, target int) ([]domain.YearComparison, error) {
	means := make(map[domain.SeriesKey]float64)
	years := make(map[int]bool)
	for _, item := range s.Items() {
		sums := make(map[int][2]float64)
		for _, o := range s.Observations(item) {
			acc := sums[o.Date.Year()]
			sums[o.Date.Year()] = [2]float64{acc[0] + o.Price, acc[1] + 1}
		}
		for y, acc := range sums {
			means[domain.SeriesKey{Item: item, Year: y}] = acc[0] / acc[1]
			years[y] = true
		}
	}

	if !years[base] {
		return nil, apperrors.NewNotFoundError("base year").WithContext("year", base)
	}
	if !years[target] {
		return nil, apperrors.NewNotFoundError("target year").WithContext("year", target)
	}

	var out []domain.YearComparison
	for _, item := range s.Items() {
		bp, okB := means[domain.SeriesKey{Item: item, Year: base}]
		tp, okT := means[domain.SeriesKey{Item: item, Year: target}]
		if !okB || !okT {
			continue
		}
		delta := tp - bp
		out = append(out, domain.YearComparison{
			Item:        item,
			BaseYear:    base,
			TargetYear:  target,
			BasePrice:   bp,
			TargetPrice: tp,
			Delta:       delta,
			PctChange:   delta / bp * 100,
		})
	}
	return out, nil
}

// FilterByItem returns the observations of item, matched case-insensitively
func (s *Store) FilterByItem(item string) []domain.Observation {
	for _, name := range s.Items() {
		if strings.EqualFold(name, strings.TrimSpace(item)) {
			return s.Observations(name)
		}
	}
	return nil
}

// FilterByYear returns every observation dated in year
func (s *Store) FilterByYear(year int) []domain.Observation {
	var out []domain.Observation
	for _, o := range s.All() {
		if o.Date.Year() == year {
			out = append(out, o)
		}
	}
	return out
}
