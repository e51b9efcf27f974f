// Package ranking provides the adaptive feed scoring engine: per-item factor
// calculations, dynamically adjusted weights, and composite ranking with
// calibration support.
package ranking

import (
	"time"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/profile"
)

// Profile relevance term weights. The five terms sum to exactly 1.0, so the
// clamp in ProfileRelevance is a safety bound rather than normal-path behavior.
const (
	relevanceCategoryWeight   = 0.30
	relevanceTagWeight        = 0.25
	relevanceDifficultyWeight = 0.20
	relevanceAudienceWeight   = 0.15
	relevanceLengthWeight     = 0.10
)

// ProfileRelevance computes how well an item matches the user's profile.
// It is a weighted sum of five independent match terms:
//   - category in preferred categories: +0.30
//   - tag overlap with interests, proportional: +0.25 * (overlap / max(tags, 1))
//   - difficulty matches skill level: +0.20 exact, +0.10 one level away
//   - role in target audience: +0.15
//   - length bucket matches preferred content length: +0.10
//
// Returns a value in [0, 1]. Missing profile or item fields contribute 0.
func ProfileRelevance(item *content.Item, prof *profile.Profile) float64 {
	if item == nil || prof == nil {
		return 0
	}

	score := 0.0

	if prof.PrefersCategory(item.Category) {
		score += relevanceCategoryWeight
	}

	// Proportional tag overlap. The max(len, 1) denominator guards the
	// empty-tags case so the term contributes 0 rather than dividing by zero.
	overlap := 0
	for _, tag := range item.Tags {
		if prof.HasInterest(tag) {
			overlap++
		}
	}
	denom := len(item.Tags)
	if denom < 1 {
		denom = 1
	}
	score += relevanceTagWeight * float64(overlap) / float64(denom)

	score += difficultyTerm(item.Difficulty, prof.SkillLevel)

	for _, role := range item.TargetAudience {
		if role == prof.Role && role != "" {
			score += relevanceAudienceWeight
			break
		}
	}

	if prof.Engagement.PreferredContentLength != "" &&
		item.LengthBucket() == prof.Engagement.PreferredContentLength {
		score += relevanceLengthWeight
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// difficultyTerm scores the difficulty/skill match: full credit for an exact
// match, half credit when the levels are adjacent on the ordered scale.
func difficultyTerm(difficulty, skillLevel string) float64 {
	if difficulty != "" && difficulty == skillLevel {
		return relevanceDifficultyWeight
	}
	di := content.DifficultyIndex(difficulty)
	si := content.DifficultyIndex(skillLevel)
	if di < 0 || si < 0 {
		return 0
	}
	dist := di - si
	if dist < 0 {
		dist = -dist
	}
	if dist == 1 {
		return relevanceDifficultyWeight / 2
	}
	return 0
}

// TrendingScore computes the trending factor on a 0-100 scale.
// Trending items score 100; otherwise the score steps down by engagement
// thresholds: >80 -> 80, >60 -> 60, >40 -> 40, else 20.
//
// Note the scale: this factor (and EngagementScore) is 0-100 while the other
// factors are 0-1. The mismatch is deliberate behavioral parity with the
// original scoring model and must not be normalized away; calibration of the
// combining weights is the supported tuning knob.
func TrendingScore(item *content.Item) float64 {
	if item.Trending {
		return 100
	}
	switch {
	case item.EngagementScore > 80:
		return 80
	case item.EngagementScore > 60:
		return 60
	case item.EngagementScore > 40:
		return 40
	default:
		return 20
	}
}

// RecencyScore computes a step-function freshness factor from the publish
// time: 1.0 on the publish day, then 0.9 within 7 days, 0.7 within 30,
// 0.5 within 90, 0.3 within 365, and 0.1 beyond. The day count is the
// elapsed time floored to whole days.
func RecencyScore(publishedAt, now time.Time) float64 {
	days := int(now.Sub(publishedAt).Hours() / 24)
	switch {
	case days <= 0:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.7
	case days <= 90:
		return 0.5
	case days <= 365:
		return 0.3
	default:
		return 0.1
	}
}

// EngagementScore passes through the item's externally aggregated engagement
// signal unchanged (0-100 scale, see TrendingScore for the scale note).
func EngagementScore(item *content.Item) float64 {
	return item.EngagementScore
}

// SerendipityScore rewards content outside the user's established profile to
// promote discovery. A novel category plus at least two novel tags scores
// 0.8; a novel category or at least one novel tag scores 0.5; fully familiar
// content scores 0.1.
func SerendipityScore(item *content.Item, prof *profile.Profile) float64 {
	if prof == nil {
		prof = &profile.Profile{}
	}
	novelCategory := !prof.PrefersCategory(item.Category)

	novelTags := 0
	for _, tag := range item.Tags {
		if !prof.HasInterest(tag) {
			novelTags++
		}
	}

	switch {
	case novelCategory && novelTags >= 2:
		return 0.8
	case novelCategory || novelTags >= 1:
		return 0.5
	default:
		return 0.1
	}
}

// DiversityScore penalizes repeating a category already present in the
// recently shown window: 0 repeats -> 1.0, 1 -> 0.8, 2 -> 0.5, 3+ -> 0.2.
func DiversityScore(item *content.Item, recentlySeen []*content.Item) float64 {
	matches := 0
	for _, seen := range recentlySeen {
		if seen != nil && seen.Category == item.Category {
			matches++
		}
	}

	switch matches {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.5
	default:
		return 0.2
	}
}
