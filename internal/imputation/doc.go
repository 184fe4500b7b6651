// Package imputation rebuilds complete daily price series from sparse observations.
//
// Each (item, year) series is reindexed onto a full calendar, gaps are filled by an
// ordered chain of FillStrategy values, and the dense result is passed through a
// rolling-median outlier smoother. Every stage returns a new slice; inputs are never
// modified.
//
// The default chain is:
//
//	1. TimeInterpolation   linear on the date axis, at most Limit days from a known value
//	2. SeasonalMean        the item's mean for the same day-of-year across all years
//	3. MonthlyMedian       the item's median for the same month
//	4. ItemMedian          the item's all-time median
//	5. SeriesMedian        median of the interpolated series when 4 is undefined
//
// Statistics for tiers 2-4 come from a SeasonalStatistics value built once per batch
// from observed prices only.
package imputation
