package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// BatchStats is the part of PriceService the health checks depend on
type BatchStats interface {
	Stats() (runID string, items, failures int)
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dataDir   string
	batch     BatchStats
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version, dataDir string, batch BatchStats, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		dataDir:   dataDir,
		batch:     batch,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"batch": hs.checkBatchHealth(),
			"data":  hs.checkDataHealth(),
		},
	}
	for _, svc := range status.Services {
		if sh, ok := svc.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "degraded"
		}
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed", slog.String("status", status.Status))
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkBatchHealth() ServiceHealth {
	if hs.batch == nil {
		return ServiceHealth{Status: "not_ready", Message: "no batch loaded"}
	}
	runID, items, failures := hs.batch.Stats()
	if items == 0 {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("batch %s produced no series", runID)}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("batch %s: %d items, %d failures", runID, items, failures),
	}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.dataDir == "" {
		return ServiceHealth{Status: "ready"}
	}
	if _, err := os.Stat(hs.dataDir); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Data directory not accessible: %s", hs.dataDir),
		}
	}
	return ServiceHealth{Status: "ready"}
}
