package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avelez/shopadmin-be/internal/api/handlers"
	"github.com/avelez/shopadmin-be/internal/auth"
	"github.com/avelez/shopadmin-be/internal/config"
)

// NewRouter creates and configures a new Chi router. The session gate runs
// ahead of every route; only the login endpoints bypass it.
func NewRouter(
	cfg *config.Config,
	gate *auth.Gate,
	authHandler *handlers.AuthHandler,
	productHandler *handlers.ProductHandler,
	statsHandler *handlers.StatsHandler,
	uploadHandler *handlers.UploadHandler,
	wsHandler *handlers.WebSocketHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	// CORS configuration for the dashboard frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Session gate: classifies every request before any handler runs.
	r.Use(gate.Middleware())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.GetAll)
			r.Post("/", productHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.Get)
				r.Put("/", productHandler.Update)
				r.Delete("/", productHandler.Delete)
			})
		})

		r.Get("/stats", statsHandler.Get)
		r.Post("/upload", uploadHandler.Upload)

		// Catalog event stream for live dashboard refresh
		r.Get("/ws", wsHandler.Serve)
	})

	// Locally stored images when no external image host is configured.
	if cfg.CloudinaryCloudName == "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	return r
}
