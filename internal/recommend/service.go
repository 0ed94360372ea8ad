// Package recommend orchestrates candidate products through the analysis
// cache, the color-analysis client, and the compatibility policy.
package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tonecloset/tonecloset/internal/ai"
	"github.com/tonecloset/tonecloset/internal/color"
	"github.com/tonecloset/tonecloset/internal/models"
)

// Analyzer is the outbound classification boundary, satisfied by *ai.Client.
type Analyzer interface {
	Classify(ctx context.Context, imageURL string) ai.ColorAnalysis
	HealthCheck(ctx context.Context) bool
}

// ResultCache memoizes classifications per image reference, satisfied by
// *ai.AnalysisCache.
type ResultCache interface {
	Lookup(key string) (ai.ColorAnalysis, bool)
	Store(key string, result ai.ColorAnalysis)
}

// Service runs recommendation requests. The cache is the only state shared
// across requests; each Recommend call owns its outcome list and stats.
type Service struct {
	client  Analyzer
	cache   ResultCache
	policy  color.MatchPolicy
	limiter *rate.Limiter

	// flight coalesces concurrent classifications of the same image so at
	// most one request per reference is ever in flight.
	flight singleflight.Group

	collectUnknown bool
	log            zerolog.Logger
}

// Config tunes a Service.
type Config struct {
	// Policy decides match/no-match; nil selects color.TieredPolicy.
	Policy color.MatchPolicy

	// PacingInterval spaces successive calls to the analysis server.
	// Zero or negative disables pacing (used by tests).
	PacingInterval time.Duration

	// CollectUnknown also gathers unknown-season products with usable
	// confidence into Result.Suggested.
	CollectUnknown bool
}

// DefaultPacingInterval spaces outbound classifications so a batch of
// candidates does not hammer the analysis server.
const DefaultPacingInterval = 500 * time.Millisecond

func NewService(client Analyzer, cache ResultCache, config Config, log zerolog.Logger) *Service {
	policy := config.Policy
	if policy == nil {
		policy = color.TieredPolicy{}
	}

	var limiter *rate.Limiter
	if config.PacingInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(config.PacingInterval), 1)
	}

	return &Service{
		client:         client,
		cache:          cache,
		policy:         policy,
		limiter:        limiter,
		collectUnknown: config.CollectUnknown,
		log:            log,
	}
}

// Recommend filters candidates down to those compatible with userColor.
// Candidates are processed in input order and the accepted list preserves that
// order. A failing analysis-server health check degrades to an empty result
// with zero analyzed; a fault on one candidate skips it and the run continues.
func (s *Service) Recommend(ctx context.Context, candidates []models.Product, userColor string) Result {
	start := time.Now()
	result := Result{
		UserColor: userColor,
		Healthy:   s.client.HealthCheck(ctx),
		Accepted:  []Outcome{},
	}

	// An empty batch is a valid zero-result run. The Healthy flag still
	// reflects the probe; the list and the counters stay zero either way.
	if len(candidates) == 0 {
		return result
	}

	result.Stats.TotalCandidates = len(candidates)

	if !result.Healthy {
		s.log.Warn().Msg("analysis server unhealthy, skipping analysis")
		result.Stats.ElapsedMillis = time.Since(start).Milliseconds()
		return result
	}

	for i, product := range candidates {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Int("processed", i).Msg("recommendation run cancelled")
			break
		}

		outcome, ok := s.processCandidate(ctx, product, userColor)
		if !ok {
			continue
		}

		result.Stats.Analyzed++
		if outcome.Accepted {
			result.Stats.Matched++
			result.Accepted = append(result.Accepted, outcome)
		} else if s.collectUnknown && color.IsUnknownSeasonCandidate(outcome.Analysis.Category, outcome.Analysis.Confidence) {
			result.Suggested = append(result.Suggested, outcome)
		}

		s.log.Debug().
			Str("product", product.Name).
			Str("category", outcome.Analysis.Category).
			Int("confidence", outcome.Analysis.Confidence).
			Bool("accepted", outcome.Accepted).
			Msgf("analyzed candidate %d/%d", i+1, len(candidates))
	}

	result.Stats.ElapsedMillis = time.Since(start).Milliseconds()
	s.log.Info().
		Str("user_color", userColor).
		Str("policy", s.policy.Name()).
		Int("candidates", result.Stats.TotalCandidates).
		Int("analyzed", result.Stats.Analyzed).
		Int("matched", result.Stats.Matched).
		Float64("match_rate", result.Stats.MatchRate()).
		Int64("elapsed_ms", result.Stats.ElapsedMillis).
		Msg("recommendation run complete")

	return result
}

// processCandidate analyzes one product and evaluates compatibility. A panic
// while handling the candidate is contained here so the run can continue;
// ok=false excludes the candidate from the analyzed count and the results.
func (s *Service) processCandidate(ctx context.Context, product models.Product, userColor string) (outcome Outcome, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("product", product.Name).Msg("candidate analysis fault, skipping")
			ok = false
		}
	}()

	analysis := s.analyze(ctx, product.ImageURL)
	return Outcome{
		Product:  product,
		Analysis: analysis,
		Accepted: s.policy.Compatible(userColor, analysis.Category, analysis.Confidence),
	}, true
}

// analyze resolves a classification for one image reference, consulting the
// cache first. Concurrent callers for the same reference share one in-flight
// classification; a completed call populates the cache even if its waiter has
// already gone away.
func (s *Service) analyze(ctx context.Context, imageURL string) ai.ColorAnalysis {
	if cached, hit := s.cache.Lookup(imageURL); hit {
		s.log.Debug().Str("image", imageURL).Msg("analysis cache hit")
		return cached
	}

	v, _, _ := s.flight.Do(imageURL, func() (interface{}, error) {
		// A waiter that lost the race may find the winner's result here.
		if cached, hit := s.cache.Lookup(imageURL); hit {
			return cached, nil
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return ai.FallbackAnalysis(), nil
			}
		}

		analysis := s.client.Classify(ctx, imageURL)
		s.cache.Store(imageURL, analysis)
		return analysis, nil
	})

	return v.(ai.ColorAnalysis)
}
