package handler

import (
	"net/http"

	"github.com/dkarlsen/taskpilot/internal/api/response"
	"github.com/dkarlsen/taskpilot/internal/repository/postgres"
	"github.com/dkarlsen/taskpilot/internal/service"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including database connectivity
func ReadyCheck(db *postgres.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListProviders returns the configured AI providers
func ListProviders(aiService *service.AIService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers": aiService.Providers(),
		})
	}
}
