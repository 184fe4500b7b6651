package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	apierrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/forecast"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/infrastructure"
	customMiddleware "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/middleware"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/pipeline"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/services"
	handlers "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/transport/http"
)

// Dependencies are the collaborators built by the caller before serving
type Dependencies struct {
	Batch      *pipeline.Batch
	Forecaster *forecast.Engine
	Gatherer   prometheus.Gatherer
	OTel       *infrastructure.OTelProviders
	Logger     *slog.Logger
}

// Application represents the API server container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	PriceService  *services.PriceService
	HealthService *services.HealthService
	Gatherer      prometheus.Gatherer
	OTelProviders *infrastructure.OTelProviders
	Logger        *slog.Logger

	business *infrastructure.BusinessMetrics
	serveErr chan error
}

// NewApplication wires services, router and server over a finished batch
func NewApplication(cfg *config.Config, deps Dependencies) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	var meter metric.Meter
	if deps.OTel != nil {
		meter = deps.OTel.Meter
	}
	business, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	forecaster := deps.Forecaster
	if forecaster == nil {
		forecaster = forecast.NewEngine(cfg.Forecast, logger)
	}

	priceService, err := services.NewPriceService(deps.Batch, forecaster, cfg.Server.ForecastCacheSize, business, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize price service: %w", err)
	}

	app := &Application{
		Config:        cfg,
		PriceService:  priceService,
		HealthService: services.NewHealthService(config.AppVersion, cfg.Paths.DataDir, priceService, logger),
		Gatherer:      gatherer,
		OTelProviders: deps.OTel,
		Logger:        infrastructure.WithComponent(logger, "app"),
		business:      business,
		serveErr:      make(chan error, 1),
	}

	app.setupRouter(logger)
	app.createServer()

	return app, nil
}

// setupRouter follows the ordering RequestID → RealIP → OTel → errors → headers → rate limit
func (a *Application) setupRouter(logger *slog.Logger) {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(logger, a.Config.Logging.Development)

	var tracer trace.Tracer
	if a.OTelProviders != nil {
		tracer = a.OTelProviders.Tracer
	}

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(tracer, a.business, logger).Handler)
	r.Use(apierrors.NewErrorMiddleware(errorHandler, logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Scraped outside the rate limit
	r.Handle("/metrics", promhttp.HandlerFor(a.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if a.Config.Server.RateLimitRPS > 0 {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimitRPS,
				a.Config.Server.RateLimitBurst,
				logger,
			).Handler)
		}
		a.setupAPIRoutes(r, logger, errorHandler)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, logger)
	priceHandler := handlers.NewPriceHandler(a.PriceService, logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/v1", priceHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start serves in the background. A listen failure cancels ctx through
// cancel and is reported by Run.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	runID, items, failures := a.PriceService.Stats()
	a.Logger.InfoContext(ctx, "Starting API server",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("run_id", runID),
		slog.Int("items", items),
		slog.Int("failures", failures))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "API server started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "API server shutdown complete")
	return nil
}

// Run serves until ctx is cancelled, an interrupt arrives or the listener fails
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	stopErr := a.Stop(context.Background())
	select {
	case err := <-a.serveErr:
		return fmt.Errorf("failed to serve: %w", err)
	default:
		return stopErr
	}
}
