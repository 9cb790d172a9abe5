package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vibecoder/internal/http/handlers"
	"vibecoder/internal/infra"
	"vibecoder/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, countries middleware.CountryLookup, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.I18N(cfg.DefaultLocale, countries),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Get("/v1/styles", app.StylesList)
		r.Get("/v1/credits", app.CreditsBalance)
		r.Post("/v1/policy/check", app.PolicyCheck)

		r.Route("/v1/projects/{projectID}", func(r chi.Router) {
			r.Get("/jobs/active", app.JobActive)
			r.Get("/jobs/latest", app.JobLatest)
			r.Get("/jobs/events", app.JobEvents)
			r.Get("/jobs/{jobID}", app.JobGet)
			r.Post("/jobs/{jobID}/cancel", app.JobCancel)
			r.Post("/jobs/{jobID}/ack", app.JobAcknowledge)
			r.Get("/export", app.ProjectExport)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
				r.Post("/jobs", app.JobCreate)
				r.Post("/heal", app.Heal)
			})
		})

		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/v1/shadow/validate", app.ShadowValidate)
	})

	return r
}
