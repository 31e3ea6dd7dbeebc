package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"scriptorium/internal/httputil"
)

// HealthCheckFunc checks one dependency
type HealthCheckFunc func(ctx context.Context) error

// HealthHandler reports dependency health
type HealthHandler struct {
	checks map[string]HealthCheckFunc
	logger *slog.Logger
}

// NewHealthHandler creates a health handler over named checks
func NewHealthHandler(logger *slog.Logger, checks map[string]HealthCheckFunc) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger,
	}
}

// HealthCheck runs every check with a short deadline
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", "check", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	httputil.RespondJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": results,
	})
}
