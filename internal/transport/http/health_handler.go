package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/services"
)

// HealthHandler serves readiness, liveness and version probes
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck answers 503 while the batch or data directory is not ready so
// load balancers keep traffic away until a usable batch is loaded.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.HealthCheck(r.Context())
	if status.Status != "ok" {
		h.logger.WarnContext(r.Context(), "Readiness degraded", slog.Any("services", status.Services))
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.LivenessCheck(r.Context()))
}

func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
