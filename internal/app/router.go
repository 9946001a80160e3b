package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/clients"
	"github.com/clientdesk/clientdesk/internal/comms"
	"github.com/clientdesk/clientdesk/internal/dashboard"
	"github.com/clientdesk/clientdesk/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthMiddleware   auth.Middleware
	AuthHandler      *auth.Handler
	ClientsHandler   *clients.Handler
	DashboardHandler *dashboard.Handler
	CommsHandler     *comms.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router for the admin API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	authLimit := 20
	if params.Config != nil && params.Config.AuthRateLimit > 0 {
		authLimit = params.Config.AuthRateLimit
	}
	authLimiter := httprate.Limit(authLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter)
			params.AuthHandler.MountAuthRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			params.AuthHandler.MountAdminRoutes(r)

			if params.ClientsHandler != nil {
				r.Route("/clients", func(r chi.Router) {
					r.Use(params.AuthMiddleware.RequireAuth)
					params.ClientsHandler.MountRoutes(r)
				})
			}
			if params.DashboardHandler != nil {
				r.Route("/dashboard", func(r chi.Router) {
					r.Use(params.AuthMiddleware.RequireAuth)
					params.DashboardHandler.MountRoutes(r)
				})
			}
			if params.CommsHandler != nil {
				r.Route("/communications", func(r chi.Router) {
					r.Use(params.AuthMiddleware.RequireAuth)
					params.CommsHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
