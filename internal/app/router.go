package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/retail-pos/internal/auth"
	"github.com/noah-isme/retail-pos/internal/cart"
	"github.com/noah-isme/retail-pos/internal/export"
	"github.com/noah-isme/retail-pos/internal/health"
	"github.com/noah-isme/retail-pos/internal/inventory"
	"github.com/noah-isme/retail-pos/internal/obs"
	"github.com/noah-isme/retail-pos/internal/ratelimit"
	"github.com/noah-isme/retail-pos/internal/security"
	"github.com/noah-isme/retail-pos/internal/translit"
)

const maxBodyBytes = 1 << 20

// Router assembles the HTTP surface of the API process.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics("pos", nil, a.Registry)}.Middleware)
	r.Use(obs.RequestLogger{Logger: a.Log}.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(security.Headers)
	r.Use(security.BodyLimit{Max: maxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.Cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	probe := health.Handler{
		DB:    func(ctx context.Context) error { return a.DB.Ping(ctx) },
		Redis: func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() },
	}
	r.Get("/health/live", probe.Live)
	r.Get("/health/ready", probe.Ready)

	authHandler := &auth.Handler{Service: a.Auth}
	guard := auth.Middleware{Service: a.Auth}

	invHandler := &inventory.Handler{Service: a.Inventory}
	cartHandler := &cart.Handler{Store: a.Sessions, Inventory: a.Inventory, Layout: a.Layout}
	exportHandler := &export.Handler{Service: a.Exports}
	translitHandler := &translit.Handler{Client: a.Translit, Limit: a.Cfg.SearchLimit}

	searchLimit := ratelimit.Middleware{
		Limiter: a.searchLimiter,
		Key:     ratelimit.ByClientIP,
		Window:  a.Cfg.SearchRateWin,
		Max:     a.Cfg.SearchRateMax,
		OnError: func(err error) {
			a.Log.Warn().Err(err).Msg("search rate limiter unavailable")
		},
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", invHandler.List)
			r.With(searchLimit.Wrap, a.Suggest.Prewarm).Get("/search", invHandler.Search)
			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuth)
				r.Post("/", invHandler.Create)
				r.Put("/{id}", invHandler.Update)
				r.Delete("/{id}", invHandler.Delete)
			})
		})

		r.With(a.translitLimiter).Get("/transliterate", translitHandler.Suggest)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cartHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cartHandler.Get)
				r.Delete("/", cartHandler.Clear)
				r.Put("/customer", cartHandler.SetCustomer)
				r.Post("/items", cartHandler.AddItem)
				r.Patch("/items/{itemID}", cartHandler.UpdateItem)
				r.Delete("/items/{itemID}", cartHandler.RemoveItem)
				r.Get("/bill", cartHandler.Bill)
				r.With(guard.RequireAuth).Post("/exports", exportHandler.Create)
			})
		})

		r.With(guard.RequireAuth).Get("/exports/{exportID}", exportHandler.Get)
	})

	return r
}
