// Package forecast projects daily prices with a seasonal baseline adjusted by
// the current trend.
//
// The baseline for a calendar day is the median of every historical price on
// the same (month, day). The trend ratio compares the mean of the most recent
// TrendWindow prices with the baseline at those dates and is clamped to
// [TrendMin, TrendMax]. The first BlendDays of the horizon are blended with
// the last known price so the projection starts where history ends.
//
// When the history is long enough, the tail Holdout days are withheld, the
// model is refit on the rest and its MAPE on the withheld days is reported
// as the result metric.
package forecast
