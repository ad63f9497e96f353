package router

import (
	"net/http"

	"github.com/YK-03/SharePlate/internal/handler"
	"github.com/YK-03/SharePlate/internal/metrics"
	"github.com/YK-03/SharePlate/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	AuthHandler    *handler.AuthHandler
	ItemHandler    *handler.ItemHandler
	RequestHandler *handler.RequestHandler
	AdminHandler   *handler.AdminHandler

	AuthMiddleware func(http.Handler) http.Handler
	LoginKey       string
	AllowedOrigins []string

	Metrics *metrics.Metrics
	Logger  *zap.SugaredLogger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// PUBLIC routes
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}
		if cfg.AuthHandler != nil {
			r.Post("/users/register", cfg.AuthHandler.Register)
			r.Post("/api-token-auth", cfg.AuthHandler.Login)
		}
		if cfg.ItemHandler != nil {
			r.Get("/items", cfg.ItemHandler.List)
			r.Get("/items/{id}", cfg.ItemHandler.Get)
		}

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}

			if cfg.ItemHandler != nil {
				r.Post("/items", cfg.ItemHandler.Create)
				r.Patch("/items/{id}/address", cfg.ItemHandler.UpdateAddress)
			}
			if cfg.RequestHandler != nil {
				r.Get("/requests", cfg.RequestHandler.List)
				r.Post("/requests", cfg.RequestHandler.Create)
				r.Post("/claim/{item_id}", cfg.RequestHandler.Claim)
			}
			if cfg.AuthHandler != nil {
				r.Get("/users", cfg.AuthHandler.ListUsers)
				r.Post("/auth/revoke", cfg.AuthHandler.Revoke)
			}
		})

		// ADMIN routes
		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireLoginKey(cfg.LoginKey))
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Get("/health", cfg.AdminHandler.GetHealth)
			})
		}
	})

	return r
}
