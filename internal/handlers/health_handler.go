package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// HealthCheck pings one backing service
type HealthCheck func(ctx context.Context) error

// HealthHandler reports the health of the API and its dependencies
type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
}

// NewHealthHandler creates a health handler. The database check is mandatory;
// optional dependencies are added with With.
func NewHealthHandler(version string, database HealthCheck) *HealthHandler {
	return &HealthHandler{
		version: version,
		checks:  map[string]HealthCheck{"database": database},
	}
}

// With registers an additional named check
func (h *HealthHandler) With(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// Health reports the status of every dependency
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			slog.Warn("Health check failed", "dependency", name, "error", err)
			deps[name] = "error"
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	respondWithJSON(w, code, map[string]any{
		"status":       status,
		"version":      h.version,
		"dependencies": deps,
	})
}
