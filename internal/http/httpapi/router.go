package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"podvid-server/internal/http/handlers"
	"podvid-server/internal/infra"
	mw "podvid-server/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		mw.Logger(logger),
		mw.CORS(cfg.AllowedOrigins),
		mw.I18N(cfg.DefaultLocale),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/videos", func(r chi.Router) {
		r.With(mw.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/generate", app.VideosGenerate)
		r.Get("/generations", app.GenerationsList)
		r.Get("/generations/{id}/progress", app.GenerationProgress)
	})

	return r
}
