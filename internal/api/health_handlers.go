package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ReadyCheckTimeout bounds how long readiness dependency checks may take.
const ReadyCheckTimeout = 5 * time.Second

// HealthChecker is implemented by dependency health probes.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlersConfig wires the dependency checkers probed by /ready.
// Nil checkers are skipped, so deployments without Redis still report ready.
type HealthHandlersConfig struct {
	Database HealthChecker
	Redis    HealthChecker
	Logger   *slog.Logger
}

// HealthHandlers serves liveness and readiness endpoints.
type HealthHandlers struct {
	checks map[string]HealthChecker
	logger *slog.Logger
}

// NewHealthHandlers creates health handlers from the given configuration.
func NewHealthHandlers(cfg HealthHandlersConfig) *HealthHandlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	checks := make(map[string]HealthChecker)
	if cfg.Database != nil {
		checks["database"] = cfg.Database
	}
	if cfg.Redis != nil {
		checks["redis"] = cfg.Redis
	}

	return &HealthHandlers{checks: checks, logger: logger}
}

// HealthResponse is the body returned by /health and /ready.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. Liveness only: the process is up and serving.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /ready. Probes each dependency and returns 503 when any
// check fails, so load balancers stop routing before requests start erroring.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadyCheckTimeout)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{
		Status: "ready",
		Checks: make(map[string]string, len(h.checks)),
	}

	for name, checker := range h.checks {
		if err := checker.HealthCheck(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, ctx, status, resp)
}
