package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Appraisal/internal/config"
	"github.com/MikeSquared-Agency/Appraisal/internal/monitor"
	"github.com/MikeSquared-Agency/Appraisal/internal/review"
	"github.com/MikeSquared-Agency/Appraisal/internal/scoring"
	"github.com/MikeSquared-Agency/Appraisal/internal/store"
)

func NewRouter(s store.Store, a *scoring.Appraiser, m *monitor.Monitor, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMinute))

	reviews := NewReviewsHandler(a, review.Kind(cfg.Scoring.DefaultKind))
	admin := NewAdminHandler(s, m)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/targets", admin.Targets)
		r.Post("/targets/{target}/reviews", reviews.Create)
		r.Post("/targets/{target}/difference", reviews.Difference)
		r.Get("/targets/{target}/summary", reviews.Summary)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
			r.Get("/stats", admin.Stats)
			r.Get("/anomalies", admin.Anomalies)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
