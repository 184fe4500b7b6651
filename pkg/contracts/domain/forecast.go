package domain

import "time"

// ModelSeasonalTrend identifies the seasonal baseline plus trend model
const ModelSeasonalTrend = "seasonal_trend"

// ForecastPoint is a single projected day with its confidence band
type ForecastPoint struct {
	Date     time.Time `json:"date"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// ForecastResult is the full projection for one item.
// Metric is the backtested MAPE in percent, nil when it could not be evaluated.
type ForecastResult struct {
	Item       string          `json:"item"`
	Model      string          `json:"model"`
	Metric     *float64        `json:"mape"`
	TrendRatio float64         `json:"trend_ratio"`
	Points     []ForecastPoint `json:"points"`
}
