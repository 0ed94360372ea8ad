// Package color implements the personal-color compatibility rules: season and
// tone extraction from category labels plus the match policies that decide
// whether a classified product suits a user. Everything here is pure
// computation with no I/O.
package color

import "strings"

type Season string

const (
	SeasonSpring  Season = "spring"
	SeasonSummer  Season = "summer"
	SeasonAutumn  Season = "autumn"
	SeasonWinter  Season = "winter"
	SeasonUnknown Season = "unknown"
)

type Tone string

const (
	ToneBright  Tone = "bright"
	ToneLight   Tone = "light"
	ToneMuted   Tone = "muted"
	ToneDeep    Tone = "deep"
	ToneWarm    Tone = "warm"
	ToneCool    Tone = "cool"
	ToneUnknown Tone = "unknown"
)

var seasonPrefixes = []struct {
	prefix string
	season Season
}{
	{"spring", SeasonSpring},
	{"summer", SeasonSummer},
	{"autumn", SeasonAutumn},
	{"winter", SeasonWinter},
}

// toneBuckets is checked in priority order; the first bucket with a synonym
// contained in the label remainder wins.
var toneBuckets = []struct {
	tone     Tone
	synonyms []string
}{
	{ToneBright, []string{"bright"}},
	{ToneLight, []string{"light"}},
	{ToneMuted, []string{"muted", "mute", "soft"}},
	{ToneDeep, []string{"deep", "dark"}},
	{ToneWarm, []string{"warm"}},
	{ToneCool, []string{"cool"}},
}

// ExtractSeason maps a category label to its season by prefix. The longest
// matching seasonal prefix wins; anything unrecognized is SeasonUnknown.
func ExtractSeason(label string) Season {
	l := strings.ToLower(strings.TrimSpace(label))

	season := SeasonUnknown
	matched := 0
	for _, p := range seasonPrefixes {
		if strings.HasPrefix(l, p.prefix) && len(p.prefix) > matched {
			season = p.season
			matched = len(p.prefix)
		}
	}
	return season
}

// ExtractTone classifies the tone modifier of a category label. The matched
// season prefix is stripped first (prefix lengths differ per season), then the
// remainder is matched case-insensitively against the synonym table.
func ExtractTone(label string) Tone {
	l := strings.ToLower(strings.TrimSpace(label))

	matched := 0
	for _, p := range seasonPrefixes {
		if strings.HasPrefix(l, p.prefix) && len(p.prefix) > matched {
			matched = len(p.prefix)
		}
	}
	remainder := l[matched:]

	for _, bucket := range toneBuckets {
		for _, syn := range bucket.synonyms {
			if strings.Contains(remainder, syn) {
				return bucket.tone
			}
		}
	}
	return ToneUnknown
}

// MatchPolicy decides whether a classified product color suits a user's
// declared color, given the classifier's confidence (0-100).
type MatchPolicy interface {
	Name() string
	Compatible(userColor, productColor string, confidence int) bool
}

// TieredPolicy is the default rule: a 30% confidence floor, exact label
// equality accepts outright, and within a shared known season a differing tone
// needs 40% confidence. Differing known seasons never match, and an unknown
// season on either side rejects.
type TieredPolicy struct{}

func (TieredPolicy) Name() string { return "season-tone-tiered" }

func (TieredPolicy) Compatible(userColor, productColor string, confidence int) bool {
	if confidence < 30 {
		return false
	}
	if userColor == productColor {
		return true
	}

	userSeason := ExtractSeason(userColor)
	productSeason := ExtractSeason(productColor)

	if userSeason == productSeason && userSeason != SeasonUnknown {
		if ExtractTone(userColor) == ExtractTone(productColor) {
			return true
		}
		return confidence >= 40
	}

	return false
}

// SeasonOnlyPolicy is the looser legacy rule: a 40% floor, then exact equality
// or equal extracted seasons accept, and any survivor of the floor is accepted
// anyway. Two unknown seasons therefore match each other, unlike under
// TieredPolicy.
type SeasonOnlyPolicy struct{}

func (SeasonOnlyPolicy) Name() string { return "season-only" }

func (SeasonOnlyPolicy) Compatible(userColor, productColor string, confidence int) bool {
	if confidence < 40 {
		return false
	}
	if userColor == productColor {
		return true
	}
	if ExtractSeason(userColor) == ExtractSeason(productColor) {
		return true
	}
	if confidence >= 40 {
		return true
	}
	// Unreachable: the floor check above already rejected everything below 40.
	return false
}

// PolicyByName resolves a configured policy name; unknown names fall back to
// the default TieredPolicy.
func PolicyByName(name string) MatchPolicy {
	if name == (SeasonOnlyPolicy{}).Name() {
		return SeasonOnlyPolicy{}
	}
	return TieredPolicy{}
}

// IsUnknownSeasonCandidate reports whether a product that defied season
// classification is still worth surfacing as a "suggest anyway" item.
func IsUnknownSeasonCandidate(productColor string, confidence int) bool {
	if confidence < 30 {
		return false
	}
	return ExtractSeason(productColor) == SeasonUnknown
}
