package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tonecloset/tonecloset/internal/ai"
	"github.com/tonecloset/tonecloset/internal/database"
	"github.com/tonecloset/tonecloset/internal/models"
	"github.com/tonecloset/tonecloset/internal/recommend"
)

type fakeSource struct {
	products []models.Product
	err      error

	lastListingURL string
	lastLimit      int
}

func (f *fakeSource) Fetch(ctx context.Context, listingURL string, limit int) ([]models.Product, error) {
	f.lastListingURL = listingURL
	f.lastLimit = limit
	return f.products, f.err
}

// newAnalysisServer fakes the color-analysis server. Categories are keyed by
// image URL; unknown images get a low-confidence filler response.
func newAnalysisServer(t *testing.T, categories map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}

		var req struct {
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		category, ok := categories[req.ImageURL]
		confidence := 85
		if !ok {
			category = "unclassifiable"
			confidence = 10
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"personal_color":  category,
			"confidence":      confidence,
			"reason":          "test classification",
			"dominant_colors": []string{"#aabbcc"},
		})
	}))
	t.Cleanup(server.Close)

	return server
}

func newTestApp(t *testing.T, source *fakeSource, categories map[string]string) *App {
	t.Helper()

	analysisServer := newAnalysisServer(t, categories)
	client := ai.NewClient(&ai.Config{BaseURL: analysisServer.URL, TimeoutSeconds: 5}, zerolog.Nop())

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &App{
		AIClient: client,
		Recommender: recommend.NewService(client, ai.NewAnalysisCache(0, 0),
			recommend.Config{}, zerolog.Nop()),
		Source:            source,
		RunRepo:           database.NewRunRepository(db),
		DefaultListingURL: "https://shop.example.com/listing",
		DefaultLimit:      6,
		Log:               zerolog.Nop(),
	}
}

func TestHealthHandler(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, nil)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["status"] != "ok" || body["ai_healthy"] != true {
		t.Errorf("unexpected health payload: %v", body)
	}
}

func TestPaletteHandler(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, nil)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/palette", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Palette []struct {
			Selection int    `json:"selection"`
			Label     string `json:"label"`
			Season    string `json:"season"`
			Tone      string `json:"tone"`
		} `json:"palette"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Palette) != 10 {
		t.Fatalf("expected 10 palette entries, got %d", len(body.Palette))
	}
	first := body.Palette[0]
	if first.Selection != 1 || first.Label != "spring light" || first.Season != "spring" || first.Tone != "light" {
		t.Errorf("unexpected first palette entry: %+v", first)
	}
}

func TestRecommendHandler(t *testing.T) {
	source := &fakeSource{
		products: []models.Product{
			{Name: "Linen Shirt", ImageURL: "http://img/1.jpg", DetailLink: "http://shop/1"},
			{Name: "Wool Cardigan", ImageURL: "http://img/2.jpg", DetailLink: "http://shop/2"},
		},
	}
	app := newTestApp(t, source, map[string]string{
		"http://img/1.jpg": "spring light",
		"http://img/2.jpg": "winter deep",
	})
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"personal": 1}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result recommend.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.UserColor != "spring light" {
		t.Errorf("palette selection not resolved: %q", result.UserColor)
	}
	if !result.Healthy || result.Stats.Analyzed != 2 {
		t.Errorf("unexpected result stats: %+v", result.Stats)
	}
	if len(result.Accepted) != 1 || result.Accepted[0].Product.Name != "Linen Shirt" {
		t.Errorf("unexpected accepted list: %+v", result.Accepted)
	}

	if source.lastListingURL != app.DefaultListingURL || source.lastLimit != app.DefaultLimit {
		t.Errorf("defaults not applied: url=%q limit=%d", source.lastListingURL, source.lastLimit)
	}

	// The run must be persisted for history.
	runs, err := app.RunRepo.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].UserColor != "spring light" {
		t.Errorf("run not persisted: %+v", runs)
	}
}

func TestRecommendHandlerValidation(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, nil)
	router := NewRouter(app)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"personal":`},
		{"no selection", `{}`},
		{"selection out of range", `{"personal": 11}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(tt.body))
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRecommendHandlerSourceFailure(t *testing.T) {
	app := newTestApp(t, &fakeSource{err: errors.New("listing down")}, nil)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"user_color": "spring light"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestAnalyzeHandler(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, map[string]string{
		"http://img/1.jpg": "summer muted",
	})
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"image_url": "http://img/1.jpg"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Analysis ai.ColorAnalysis `json:"analysis"`
		Season   string           `json:"season"`
		Tone     string           `json:"tone"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Analysis.Category != "summer muted" || body.Season != "summer" || body.Tone != "muted" {
		t.Errorf("unexpected analysis payload: %+v", body)
	}
}

func TestAnalyzeHandlerMissingImage(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, nil)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRunDetailHandlerNotFound(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, nil)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPingHandler(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, nil)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("unexpected ping response: %d %q", rec.Code, rec.Body.String())
	}
}
