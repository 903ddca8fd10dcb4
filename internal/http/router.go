// Package httpapi assembles the service's HTTP surface: domain routes behind
// auth, plus unauthenticated health and metrics endpoints.
package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformredis "hrcore/internal/platform/redis"
	"hrcore/internal/transport/http/shared"
	"hrcore/pkg/platform/middleware/auth"
	"hrcore/pkg/platform/middleware/request"
)

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// NewRouter builds the full router. redisClient may be nil when Redis is not
// configured; the health endpoint then reports only the database.
func NewRouter(db *sql.DB, redisClient *platformredis.Client, validator auth.TokenValidator, logger *slog.Logger, handlers ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))

	r.Get("/healthz", handleHealth(db, redisClient))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, logger))
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

func handleHealth(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok"}
		healthy := true

		if err := db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := redisClient.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		shared.WriteJSON(w, status, checks)
	}
}
