package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flipcoin/miniapp/internal/platform"
)

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler returns a health check endpoint. With no checks the bridge
// is healthy as long as it answers.
func HealthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status":     "unhealthy",
					"dependency": name,
					"error":      err.Error(),
				})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

// ThemeHandler reports the color scheme negotiated with the host platform.
func ThemeHandler(scheme platform.ColorScheme) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]platform.ColorScheme{"color_scheme": scheme})
	}
}
