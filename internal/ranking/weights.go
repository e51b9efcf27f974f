package ranking

import (
	"time"

	"github.com/croftwell/adaptivefeed/internal/profile"
)

// Weights holds the combining weights for the six ranking factors.
// The defaults sum to 1.0 before dynamic adjustment.
type Weights struct {
	ProfileRelevance float64 `json:"profile_relevance"` // Weight for profile match (default: 0.35)
	Trending         float64 `json:"trending"`          // Weight for trending signal (default: 0.20)
	Recency          float64 `json:"recency"`           // Weight for freshness (default: 0.15)
	Engagement       float64 `json:"engagement"`        // Weight for engagement signal (default: 0.15)
	Serendipity      float64 `json:"serendipity"`       // Weight for discovery boost (default: 0.10)
	Diversity        float64 `json:"diversity"`         // Weight for category variety (default: 0.05)
}

// DefaultWeights returns the default factor weight configuration.
//
// Formula: score = (relevance * 0.35) + (trending * 0.20) + (recency * 0.15)
// + (engagement * 0.15) + (serendipity * 0.10) + (diversity * 0.05)
//
// Trending and engagement factors run on a 0-100 scale while the rest are
// 0-1, so those two dominate the composite despite their moderate weights.
// That imbalance is preserved behavior; tune it through calibration if a
// deployment needs different dominance.
func DefaultWeights() *Weights {
	return &Weights{
		ProfileRelevance: 0.35,
		Trending:         0.20,
		Recency:          0.15,
		Engagement:       0.15,
		Serendipity:      0.10,
		Diversity:        0.05,
	}
}

// Thresholds for the dynamic weight adjustments.
const (
	// PowerUserReadTimeMinutes is the smoothed read time above which a user
	// is treated as a power user.
	PowerUserReadTimeMinutes = 10

	// NewUserHistoryThreshold is the browsing history length below which a
	// user is treated as new.
	NewUserHistoryThreshold = 10

	// BusinessHoursStart and BusinessHoursEnd bound the inclusive local-hour
	// window treated as business hours.
	BusinessHoursStart = 9
	BusinessHoursEnd   = 17
)

// Adjust derives the per-request weights from the base weights and the user's
// profile. Three independent, additive adjustments apply:
//
//   - power users (avg read time > 10 min): trending +0.05, relevance -0.05
//   - new users (history < 10 entries): serendipity +0.10, diversity +0.05,
//     relevance -0.15
//   - business hours (local hour 9-17): relevance +0.05, serendipity -0.05
//
// All three can apply at once. The adjusted vector is intentionally NOT
// renormalized to sum to 1.0: renormalizing would change relative factor
// dominance and therefore rankings.
func (w *Weights) Adjust(prof *profile.Profile, now time.Time) Weights {
	adjusted := *w

	if prof != nil {
		if prof.Engagement.AvgReadTime > PowerUserReadTimeMinutes {
			adjusted.Trending += 0.05
			adjusted.ProfileRelevance -= 0.05
		}
		if len(prof.BrowsingHistory) < NewUserHistoryThreshold {
			adjusted.Serendipity += 0.10
			adjusted.Diversity += 0.05
			adjusted.ProfileRelevance -= 0.15
		}
	}

	hour := now.Hour()
	if hour >= BusinessHoursStart && hour <= BusinessHoursEnd {
		adjusted.ProfileRelevance += 0.05
		adjusted.Serendipity -= 0.05
	}

	return adjusted
}
