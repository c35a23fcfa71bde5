package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/commercegrid/pricing-engine/internal/engine"
	"github.com/commercegrid/pricing-engine/pkg/health"
	"github.com/commercegrid/pricing-engine/pkg/middleware"
)

// NewRouter creates a chi router with all pricing engine routes registered.
func NewRouter(
	runner engine.Runner,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(10 * time.Minute))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("pricing-engine"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Engine trigger endpoint
	engineHandler := NewEngineHandler(runner, logger)

	r.Route("/internal/discount-engine", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/run", engineHandler.Run)
	})

	return r
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
