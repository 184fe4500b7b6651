package http

import (
	"context"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/forecast"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/pipeline"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/services"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// PriceServiceInterface defines the queries served by PriceHandler
type PriceServiceInterface interface {
	Items(ctx context.Context) []services.ItemCoverage
	Series(ctx context.Context, item string, year int) ([]domain.DailySeriesPoint, error)
	Forecast(ctx context.Context, item string) (*forecast.Result, error)
	Failures(ctx context.Context) []pipeline.Failure
}
