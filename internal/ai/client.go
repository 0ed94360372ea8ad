package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Client talks to the color-analysis server. It is stateless apart from the
// circuit breaker and safe for concurrent use.
//
// Classify never returns an error: every failure path resolves to
// FallbackAnalysis so the caller always has a usable result.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        zerolog.Logger
}

func NewClient(config *Config, log zerolog.Logger) *Client {
	if config == nil {
		config = NewConfig()
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "color-analysis",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		log:        log,
	}
}

type analyzeRequest struct {
	ImageURL string `json:"image_url"`
}

// analyzeResponse mirrors the server contract. Every field is optional;
// absent fields take documented defaults. Extra fields are ignored.
type analyzeResponse struct {
	PersonalColor  *string           `json:"personal_color"`
	Confidence     *float64          `json:"confidence"`
	Reason         *string           `json:"reason"`
	DominantColors []json.RawMessage `json:"dominant_colors"`
}

// Classify requests a color classification for one image reference. Caching
// is the caller's responsibility.
func (c *Client) Classify(ctx context.Context, imageURL string) ColorAnalysis {
	body, err := c.postAnalyze(ctx, imageURL)
	if err != nil {
		c.log.Warn().Err(err).Str("image", imageURL).Msg("color analysis failed, using fallback")
		return FallbackAnalysis()
	}

	result, err := parseAnalyzeResponse(body)
	if err != nil {
		c.log.Warn().Err(err).Str("image", imageURL).Msg("unparseable analysis response, using fallback")
		return FallbackAnalysis()
	}

	c.log.Debug().
		Str("image", imageURL).
		Str("category", result.Category).
		Int("confidence", result.Confidence).
		Msg("color analysis complete")
	return result
}

func (c *Client) postAnalyze(ctx context.Context, imageURL string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		payload, err := json.Marshal(analyzeRequest{ImageURL: imageURL})
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-color", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("calling analysis server: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("analysis server returned status %d", resp.StatusCode)
		}

		return body, nil
	})
}

func parseAnalyzeResponse(body []byte) (ColorAnalysis, error) {
	var resp analyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ColorAnalysis{}, fmt.Errorf("decoding analysis response: %w", err)
	}

	result := ColorAnalysis{
		Category:       CategoryUnknown,
		Confidence:     0,
		Rationale:      "no result",
		DominantColors: []string{},
	}

	if resp.PersonalColor != nil {
		result.Category = *resp.PersonalColor
	}
	if resp.Confidence != nil {
		result.Confidence = int(*resp.Confidence)
	}
	if resp.Reason != nil {
		result.Rationale = *resp.Reason
	}
	for _, raw := range resp.DominantColors {
		result.DominantColors = append(result.DominantColors, coerceText(raw))
	}

	return result, nil
}

// coerceText renders a JSON array element as text, whether the server sent a
// string, a number, or anything else.
func coerceText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// HealthCheck probes the analysis server. Any failure yields false; an open
// circuit breaker skips the network round trip entirely.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if c.breaker.State() == gobreaker.StateOpen {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("analysis server health check failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
