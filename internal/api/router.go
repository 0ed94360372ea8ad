package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.HealthHandler)
		r.Get("/palette", app.PaletteHandler)
		r.Post("/recommend", app.RecommendHandler)
		r.Post("/analyze", app.AnalyzeHandler)
		r.Get("/runs", app.RunsHandler)
		r.Get("/runs/{runID}", app.RunDetailHandler)
	})

	return r
}
