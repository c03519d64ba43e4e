package api

import (
	"net/http"
	"time"

	"wishlist-shopify-layer/internal/config"
)

const serviceVersion = "1.0.0"

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct{}

// Health handles GET /api/health.
func (HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "wishlist-backend",
		"version":   serviceVersion,
	})
}

// Ready handles GET /api/health/ready: 503 until the required Shopify
// configuration is present.
func (HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if missing := config.MissingRequired(); len(missing) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"status":  "not_ready",
			"message": "Missing required environment variables",
			"missing": missing,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
