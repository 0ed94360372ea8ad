package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tonecloset/tonecloset/internal/ai"
	"github.com/tonecloset/tonecloset/internal/catalog"
	"github.com/tonecloset/tonecloset/internal/color"
	"github.com/tonecloset/tonecloset/internal/database"
	"github.com/tonecloset/tonecloset/internal/recommend"
)

// App carries the wired collaborators for all handlers.
type App struct {
	AIClient    *ai.Client
	Recommender *recommend.Service
	Source      catalog.Source
	RunRepo     *database.RunRepository

	DefaultListingURL string
	DefaultLimit      int

	Log zerolog.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"ai_healthy": app.AIClient.HealthCheck(r.Context()),
	})
}

func (app *App) PaletteHandler(w http.ResponseWriter, r *http.Request) {
	labels := color.PaletteLabels()
	entries := make([]map[string]interface{}, 0, len(labels))
	for i, label := range labels {
		entries = append(entries, map[string]interface{}{
			"selection": i + 1,
			"label":     label,
			"season":    color.ExtractSeason(label),
			"tone":      color.ExtractTone(label),
		})
	}
	app.respondJSON(w, http.StatusOK, map[string]interface{}{"palette": entries})
}

type recommendRequest struct {
	// Personal selects a palette entry (1-10); UserColor overrides it with a
	// free-form category label.
	Personal   int    `json:"personal"`
	UserColor  string `json:"user_color"`
	ListingURL string `json:"listing_url"`
	Limit      int    `json:"limit"`
}

func (app *App) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userColor := req.UserColor
	if userColor == "" {
		label, ok := color.PaletteLabel(req.Personal)
		if !ok {
			app.respondError(w, http.StatusBadRequest, "personal must select a palette entry (1-10) or user_color must be set")
			return
		}
		userColor = label
	}

	listingURL := req.ListingURL
	if listingURL == "" {
		listingURL = app.DefaultListingURL
	}
	limit := req.Limit
	if limit <= 0 {
		limit = app.DefaultLimit
	}

	candidates, err := app.Source.Fetch(r.Context(), listingURL, limit)
	if err != nil {
		app.Log.Error().Err(err).Str("listing", listingURL).Msg("candidate collection failed")
		app.respondError(w, http.StatusBadGateway, "failed to collect candidate products")
		return
	}

	result := app.Recommender.Recommend(r.Context(), candidates, userColor)

	app.saveRun(r.Context(), result)

	app.respondJSON(w, http.StatusOK, result)
}

// saveRun persists the run for history. Failures are logged, never surfaced:
// the recommendation itself already succeeded.
func (app *App) saveRun(ctx context.Context, result recommend.Result) {
	if app.RunRepo == nil {
		return
	}

	run := &database.Run{
		UserColor:       result.UserColor,
		TotalCandidates: result.Stats.TotalCandidates,
		Analyzed:        result.Stats.Analyzed,
		Matched:         result.Stats.Matched,
		ElapsedMillis:   result.Stats.ElapsedMillis,
	}
	for _, outcome := range append(append([]recommend.Outcome{}, result.Accepted...), result.Suggested...) {
		run.Outcomes = append(run.Outcomes, database.RunOutcome{
			ProductName: outcome.Product.Name,
			ImageURL:    outcome.Product.ImageURL,
			DetailLink:  outcome.Product.DetailLink,
			Category:    outcome.Analysis.Category,
			Confidence:  outcome.Analysis.Confidence,
			Accepted:    outcome.Accepted,
		})
	}

	if err := app.RunRepo.Save(ctx, run); err != nil {
		app.Log.Error().Err(err).Msg("failed to persist run")
	}
}

type analyzeSampleRequest struct {
	ImageURL string `json:"image_url"`
}

// AnalyzeHandler classifies a single image, bypassing the pipeline. Useful
// for verifying the analysis server end to end.
func (app *App) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
		app.respondError(w, http.StatusBadRequest, "image_url is required")
		return
	}

	analysis := app.AIClient.Classify(r.Context(), req.ImageURL)
	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"analysis": analysis,
		"season":   color.ExtractSeason(analysis.Category),
		"tone":     color.ExtractTone(analysis.Category),
	})
}

func (app *App) RunsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := app.RunRepo.Recent(r.Context(), limit)
	if err != nil {
		app.Log.Error().Err(err).Msg("failed to list runs")
		app.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []database.Run{}
	}

	app.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (app *App) RunDetailHandler(w http.ResponseWriter, r *http.Request) {
	run, err := app.RunRepo.GetByID(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		app.Log.Error().Err(err).Msg("failed to load run")
		app.respondError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	if run == nil {
		app.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	app.respondJSON(w, http.StatusOK, run)
}

func (app *App) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		app.Log.Error().Err(err).Msg("failed to encode response")
	}
}

func (app *App) respondError(w http.ResponseWriter, status int, message string) {
	app.respondJSON(w, status, map[string]string{"error": message})
}
