package handler

import (
	"net/http"

	"perfume-chat/internal/api/response"
	"perfume-chat/internal/domain"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including catalog connectivity
func ReadyCheck(catalog domain.CatalogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := catalog.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "catalog not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
