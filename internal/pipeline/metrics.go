package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pricewatch"

// Metrics are the batch counters exported on /metrics and in the textfile
type Metrics struct {
	ItemsProcessed    *prometheus.CounterVec
	PointsFilled      *prometheus.CounterVec
	PointsAdjusted    prometheus.Counter
	OfficialOverrides prometheus.Counter
	TruncatedPoints   prometheus.Counter
	StageDuration     *prometheus.HistogramVec
	ForecastMAPE      *prometheus.GaugeVec
}

// NewMetrics registers the batch metrics on reg. A nil reg keeps them
// unregistered, which is what tests that build several runners want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "items_processed_total",
			Help:      "Items that went through a stage, by stage and status.",
		}, []string{"stage", "status"}),
		PointsFilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_filled_total",
			Help:      "Missing daily prices filled, by fill source.",
		}, []string{"source"}),
		PointsAdjusted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_adjusted_total",
			Help:      "Observed prices replaced by the outlier smoother.",
		}),
		OfficialOverrides: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "official_overrides_total",
			Help:      "Daily prices replaced by official records.",
		}),
		TruncatedPoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "truncated_points_total",
			Help:      "Daily prices blanked by the future cutoff.",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Per-item stage duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		ForecastMAPE: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "forecast_mape_percent",
			Help:      "Backtested forecast MAPE per item.",
		}, []string{"item"}),
	}
}
