package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sipico/microtales/internal/logging"
	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/middleware"
)

// NewRouter creates the API router.
func (h *Handler) NewRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware, outermost first
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID(h.logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.MaxBodySize(h.maxBodyBytes)) // before debug logging reads the body
	r.Use(middleware.HTTPLogging(logging.SensitiveFields))
	r.Use(chimw.Recoverer)
	if len(h.corsOrigins) > 0 {
		r.Use(h.corsHandler().Handler)
	}
	r.Use(h.SessionMiddleware)

	// Public endpoints (no auth)
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.HandleSignUp)
			r.Post("/login", h.HandleLogin)
			r.Post("/logout", h.HandleLogout)
			r.With(h.RequireSession).Get("/me", h.HandleMe)
		})

		r.Route("/stories", func(r chi.Router) {
			r.Get("/", h.HandleListStories)
			r.Get("/featured", h.HandleFeaturedStory)
			r.Get("/{id}", h.HandleGetStory)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession)
				r.Post("/", h.HandleCreateStory)
				r.Put("/{id}", h.HandleUpdateStory)
				r.Delete("/{id}", h.HandleDeleteStory)
				r.Post("/{id}/rating", h.HandleRateStory)
				r.Get("/{id}/rating", h.HandleGetRating)
			})
		})

		// Guest self-service (no account)
		r.Route("/guest", func(r chi.Router) {
			r.Post("/stories", h.HandleSubmitGuestStory)
			r.Post("/claim", h.HandleClaimBySecret)
			r.Get("/edit/{token}", h.HandleResolveToken)
			r.Put("/edit/{token}", h.HandleEditByToken)
			r.Delete("/edit/{token}", h.HandleDeleteByToken)
		})

		r.Route("/pending", func(r chi.Router) {
			r.Post("/stories", h.HandleSubmitPendingStory)
			r.With(h.RequireSession).Post("/claim", h.HandleClaimPending)
		})

		r.Route("/authors/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetAuthor)
			r.Get("/stories", h.HandleAuthorStories)
			r.Get("/ranking", h.HandleAuthorRanking)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Use(h.RequireAdmin)
			r.Post("/loglevel", h.HandleSetLogLevel)
			r.Post("/tokens/sweep", h.HandleSweepTokens)
		})
	})

	return r
}

// corsHandler allows the configured browser origins to call the API with
// the session cookie. An empty origin list means rs/cors allows everything,
// so NewRouter only installs it when origins are configured.
func (h *Handler) corsHandler() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
	})
}
