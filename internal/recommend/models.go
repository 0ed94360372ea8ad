package recommend

import (
	"github.com/tonecloset/tonecloset/internal/ai"
	"github.com/tonecloset/tonecloset/internal/models"
)

// Outcome pairs one candidate product with its classification and the match
// decision.
type Outcome struct {
	Product  models.Product   `json:"product"`
	Analysis ai.ColorAnalysis `json:"analysis"`
	Accepted bool             `json:"accepted"`
}

// RunStats summarizes one recommendation run.
type RunStats struct {
	TotalCandidates int   `json:"total_candidates"`
	Analyzed        int   `json:"analyzed"`
	Matched         int   `json:"matched"`
	ElapsedMillis   int64 `json:"elapsed_ms"`
}

// MatchRate is the matched share of analyzed candidates, as a percentage.
func (s RunStats) MatchRate() float64 {
	if s.Analyzed == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Analyzed) * 100
}

// Result is everything one Recommend call produces. Accepted preserves the
// candidate input order. Suggested carries unknown-season items worth showing
// outside the strict match set and is only populated in extended mode.
type Result struct {
	UserColor string    `json:"user_color"`
	Healthy   bool      `json:"healthy"`
	Accepted  []Outcome `json:"accepted"`
	Suggested []Outcome `json:"suggested,omitempty"`
	Stats     RunStats  `json:"stats"`
}
