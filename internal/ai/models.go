package ai

// CategoryUnknown is the sentinel category for products the analysis server
// could not classify.
const CategoryUnknown = "unknown"

// ColorAnalysis is the parsed classification of one product image. Values are
// immutable once produced by the client; callers get copies, never shared state.
type ColorAnalysis struct {
	Category       string   `json:"category"`
	Confidence     int      `json:"confidence"`
	Rationale      string   `json:"rationale"`
	DominantColors []string `json:"dominant_colors"`
}

// FallbackAnalysis is returned for every failed classification: transport
// errors, non-2xx responses, and unparseable bodies all collapse to this value.
func FallbackAnalysis() ColorAnalysis {
	return ColorAnalysis{
		Category:       CategoryUnknown,
		Confidence:     0,
		Rationale:      "analysis failed",
		DominantColors: []string{"#000000"},
	}
}

// Config holds the analysis server connection settings.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

func NewConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:8000",
		TimeoutSeconds: 30,
	}
}
