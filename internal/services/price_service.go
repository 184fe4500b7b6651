package services

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/forecast"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/infrastructure"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/pipeline"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// ItemCoverage describes the reconstructed history of one item
type ItemCoverage struct {
	Item     string `json:"item"`
	Years    []int  `json:"years"`
	Points   int    `json:"points"`
	Imputed  int    `json:"imputed"`
	Adjusted int    `json:"adjusted"`
	Official int    `json:"official"`
}

// PriceService serves a finished batch. The batch is never modified, so
// concurrent readers need no locking; the forecast cache is safe for
// concurrent use on its own.
type PriceService struct {
	batch      *pipeline.Batch
	forecaster *forecast.Engine
	cache      *lru.Cache[string, *forecast.Result]
	inflight   singleflight.Group
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewPriceService creates a service over batch with a forecast cache of cacheSize items
func NewPriceService(batch *pipeline.Batch, forecaster *forecast.Engine, cacheSize int, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*PriceService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, *forecast.Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast cache: %w", err)
	}
	if batch == nil {
		batch = &pipeline.Batch{}
	}

	logger.Info("PriceService initialized",
		slog.String("run_id", batch.RunID),
		slog.Int("items", len(batch.Series)),
		slog.Int("failures", len(batch.Failures)),
		slog.Int("cache_size", cacheSize))

	return &PriceService{
		batch:      batch,
		forecaster: forecaster,
		cache:      cache,
		metrics:    metrics,
		logger:     infrastructure.WithComponent(logger, "price_service"),
	}, nil
}

// Items lists every item with a series, in name order
func (s *PriceService) Items(ctx context.Context) []ItemCoverage {
	out := make([]ItemCoverage, 0, len(s.batch.Series))
	for _, series := range s.batch.Series {
		cov := ItemCoverage{Item: series.Item, Years: make([]int, 0, len(series.Years))}
		for _, ys := range series.Years {
			cov.Years = append(cov.Years, ys.Year)
			for _, p := range ys.Points {
				if !p.HasPrice() {
					continue
				}
				cov.Points++
				switch {
				case p.Source == domain.SourceOfficial:
					cov.Official++
				case p.WasImputed:
					cov.Imputed++
				case p.WasAdjusted:
					cov.Adjusted++
				}
			}
		}
		out = append(out, cov)
	}
	return out
}

// Series returns the post-merge points of item. Year 0 returns every year.
func (s *PriceService) Series(ctx context.Context, item string, year int) ([]domain.DailySeriesPoint, error) {
	series, ok := s.batch.Item(item)
	if !ok {
		return nil, ErrItemNotFound(item)
	}
	if year == 0 {
		return series.Points(), nil
	}
	ys, ok := series.Year(year)
	if !ok {
		return nil, ErrYearNotFound(item, year)
	}
	return ys.Points, nil
}

// Forecast returns the projection of item, computing it on first use.
// Concurrent requests for the same item share one computation.
func (s *PriceService) Forecast(ctx context.Context, item string) (*forecast.Result, error) {
	if res, ok := s.cache.Get(item); ok {
		if s.metrics != nil {
			s.metrics.ForecastCacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("item", item)))
		}
		return res, nil
	}

	series, ok := s.batch.Item(item)
	if !ok {
		return nil, ErrItemNotFound(item)
	}

	// shared by every waiter, so not bound to the first caller's lifetime
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(item, func() (interface{}, error) {
		res, err := s.forecaster.Forecast(shared, item, series.Points())
		if err != nil {
			return nil, err
		}
		s.cache.Add(item, res)
		if s.metrics != nil {
			s.metrics.ForecastsTotal.Add(shared, 1)
		}
		s.logger.DebugContext(shared, "Forecast computed",
			slog.String("item", item),
			slog.Int("points", len(res.Points)),
			slog.Int("warnings", len(res.Warnings)))
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*forecast.Result), nil
}

// Failures returns the items dropped from the batch
func (s *PriceService) Failures(ctx context.Context) []pipeline.Failure {
	if s.batch.Failures == nil {
		return []pipeline.Failure{}
	}
	return s.batch.Failures
}

// Stats reports the size of the served batch
func (s *PriceService) Stats() (runID string, items, failures int) {
	return s.batch.RunID, len(s.batch.Series), len(s.batch.Failures)
}
