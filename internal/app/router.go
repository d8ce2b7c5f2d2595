package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/balance-proxy/internal/api"
	apiMiddleware "github.com/phrazzld/balance-proxy/internal/api/middleware"
)

// Balance endpoint paths. The second keeps the path the front-end page
// already calls.
const (
	BalancePath       = "/api/balance"
	LegacyBalancePath = "/.netlify/functions/getPtoBalance"
	HealthPath        = "/health"
)

// Router creates and configures the application router with all routes and middleware.
func (a *Application) Router() http.Handler {
	r := chi.NewRouter()

	// CORS runs first so preflight and every error response carry the headers.
	r.Use(apiMiddleware.CORS(a.config.Server.AllowedOrigin))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(a.logger))
	r.Use(a.metrics.Middleware)
	r.Use(middleware.Recoverer)

	balanceHandler := api.NewBalanceHandler(a.balanceService, a.logger)

	r.Group(func(r chi.Router) {
		if a.jwtService != nil {
			r.Use(apiMiddleware.NewAuthMiddleware(a.jwtService).Authenticate)
		}
		r.Post(BalancePath, balanceHandler.GetBalance)
		r.Post(LegacyBalancePath, balanceHandler.GetBalance)
	})

	r.Get(HealthPath, api.Health)

	if a.config.Metrics.Enabled && a.config.Metrics.Path != "" {
		r.Method(http.MethodGet, a.config.Metrics.Path, a.metrics.Handler())
	}

	return r
}
