package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	CacheMaxAge    time.Duration
}

// NewRouter mounts the meta routes under /api/v1 next to the health check
func NewRouter(handler *MetaHandler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(opts.Logger))
	r.Use(RecoveryMiddleware(opts.Logger))
	r.Use(CORSMiddleware(opts.AllowedOrigins))

	RoutesHealth(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CacheMiddleware(opts.CacheMaxAge))
		r.Mount("/", handler.Routes())
	})

	return r
}

// RoutesHealth registers the liveness endpoint
func RoutesHealth(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
}
