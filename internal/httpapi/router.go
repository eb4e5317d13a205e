// Package httpapi exposes the REST surface: chi routing, bearer guard,
// request/response DTOs and the failure-to-status mapping.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pranaynookala001/securedocs/internal/token"
)

// RouterConfig carries the router's knobs.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Ready reports backend health for the readiness probe; nil means
	// always ready.
	Ready func() error
}

// NewRouter assembles the full HTTP handler.
func NewRouter(
	authHandler *AuthHandler,
	docsHandler *DocumentsHandler,
	tokens *token.Manager,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondMessage(w, http.StatusOK, "ok")
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(); err != nil {
				respondMessage(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		respondMessage(w, http.StatusOK, "ready")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			// Unauthenticated endpoints carry a tight per-IP budget.
			ar.Group(func(public chi.Router) {
				public.Use(httprate.LimitByIP(20, time.Minute))
				public.Post("/login", authHandler.Login)
				public.Post("/register", authHandler.Register)
				public.Post("/refresh-token", authHandler.Refresh)
				public.Post("/validate-token", authHandler.ValidateToken)
			})
			ar.Group(func(private chi.Router) {
				private.Use(RequireAuth(tokens))
				private.Post("/logout", authHandler.Logout)
				private.Get("/me", authHandler.Me)
				private.Post("/change-password", authHandler.ChangePassword)
			})
		})

		api.Group(func(private chi.Router) {
			private.Use(RequireAuth(tokens))
			private.Use(httprate.LimitByIP(120, time.Minute))

			private.Route("/documents", func(dr chi.Router) {
				dr.Post("/", docsHandler.Create)
				dr.Get("/", docsHandler.List)
				dr.Get("/{id}", docsHandler.Get)
				dr.Put("/{id}", docsHandler.Update)
				dr.Delete("/{id}", docsHandler.Delete)
				dr.Post("/{id}/share", docsHandler.Share)
				dr.Post("/{id}/comments", docsHandler.AddComment)
				dr.Get("/{id}/comments", docsHandler.ListComments)
			})
			private.Route("/folders", func(fr chi.Router) {
				fr.Post("/", docsHandler.CreateFolder)
				fr.Get("/", docsHandler.ListFolders)
				fr.Get("/{id}", docsHandler.GetFolder)
				fr.Delete("/{id}", docsHandler.DeleteFolder)
			})
			private.Get("/tags", docsHandler.ListTags)
		})
	})

	return r
}
