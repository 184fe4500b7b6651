package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/forecast"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

type itemKey struct{}

// PriceHandler serves items, series, forecasts and batch failures
type PriceHandler struct {
	service      PriceServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(service PriceServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PriceHandler {
	return &PriceHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "price_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/v1 routes
func (h *PriceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/items", h.ListItems)
	r.Route("/items/{item}", func(r chi.Router) {
		r.Use(h.ItemCtx)
		r.Get("/series", h.GetSeries)
		r.Get("/forecast", h.GetForecast)
	})
	r.Get("/failures", h.ListFailures)

	return r
}

// ItemCtx validates the item path parameter and stores it in the context
func (h *PriceHandler) ItemCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item := strings.TrimSpace(chi.URLParam(r, "item"))
		if item == "" || len(item) > 200 {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("item", item))
			return
		}
		ctx := context.WithValue(r.Context(), itemKey{}, item)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func itemFromContext(ctx context.Context) string {
	item, _ := ctx.Value(itemKey{}).(string)
	return item
}

// SeriesPoint is the wire form of a daily series point
type SeriesPoint struct {
	Date        string   `json:"date"`
	Price       *float64 `json:"price"`
	WasImputed  bool     `json:"was_imputed"`
	WasAdjusted bool     `json:"was_adjusted"`
	Source      string   `json:"source"`
}

// ForecastPoint is the wire form of a forecast day
type ForecastPoint struct {
	Date     string  `json:"date"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// ForecastResponse is the wire form of a forecast result
type ForecastResponse struct {
	Item       string          `json:"item"`
	Model      string          `json:"model"`
	MAPE       *float64        `json:"mape"`
	TrendRatio float64         `json:"trend_ratio"`
	Points     []ForecastPoint `json:"points"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// ListItems handles GET /api/v1/items
func (h *PriceHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.service.Items(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"count":  len(items),
		"data":   items,
	})
}

// GetSeries handles GET /api/v1/items/{item}/series?year=YYYY
func (h *PriceHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	item := itemFromContext(r.Context())

	var year int
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1000 || y > 9999 {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("year", raw))
			return
		}
		year = y
	}

	points, err := h.service.Series(r.Context(), item, year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data := make([]SeriesPoint, len(points))
	for i, p := range points {
		data[i] = SeriesPoint{
			Date:        p.Date.Format(domain.DateLayout),
			Price:       p.Price,
			WasImputed:  p.WasImputed,
			WasAdjusted: p.WasAdjusted,
			Source:      string(p.Source),
		}
	}

	h.logger.DebugContext(r.Context(), "series served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("item", item),
		slog.Int("year", year),
		slog.Int("points", len(data)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"item":   item,
		"count":  len(data),
		"data":   data,
	})
}

// GetForecast handles GET /api/v1/items/{item}/forecast
func (h *PriceHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	item := itemFromContext(r.Context())

	res, err := h.service.Forecast(r.Context(), item)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   toForecastResponse(res),
	})
}

// ListFailures handles GET /api/v1/failures
func (h *PriceHandler) ListFailures(w http.ResponseWriter, r *http.Request) {
	failures := h.service.Failures(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"count":  len(failures),
		"data":   failures,
	})
}

func toForecastResponse(res *forecast.Result) ForecastResponse {
	out := ForecastResponse{
		Item:       res.Item,
		Model:      res.Model,
		MAPE:       res.Metric,
		TrendRatio: res.TrendRatio,
		Points:     make([]ForecastPoint, len(res.Points)),
	}
	for i, p := range res.Points {
		out.Points[i] = ForecastPoint{
			Date:     p.Date.Format(domain.DateLayout),
			Forecast: p.Forecast,
			Lower:    p.Lower,
			Upper:    p.Upper,
		}
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.Message)
	}
	return out
}
