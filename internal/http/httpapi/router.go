// Package httpapi assembles the public HTTP surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"reelgen/internal/http/handlers"
	"reelgen/internal/metrics"
	"reelgen/internal/middleware"
)

type Options struct {
	JWTSecret       string
	JWTIssuer       string
	DefaultLocale   string
	CORSOrigins     []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	// StaticDir, when set, is served under /static for the filesystem store.
	StaticDir string
	Logger    zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.AuthJWT(opts.JWTSecret, opts.JWTIssuer),
			middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		)
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/v1/videos", app.CreateVideo)
		r.Get("/v1/videos/{job_id}", app.GetVideo)
		r.Get("/v1/me/credits", app.MyCredits)
	})

	return r
}
