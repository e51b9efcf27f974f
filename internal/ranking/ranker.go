package ranking

import (
	"sort"
	"time"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/profile"
)

// DefaultRecommendationCount is the number of items Recommendations returns
// when the caller doesn't specify one.
const DefaultRecommendationCount = 10

// Factors holds the six per-item factor scores computed during a ranking
// pass. Ephemeral: recomputed on every call, never persisted.
type Factors struct {
	ProfileRelevance float64 `json:"profile_relevance"` // [0, 1]
	Trending         float64 `json:"trending"`          // [20, 100]
	Recency          float64 `json:"recency"`           // {1.0, 0.9, 0.7, 0.5, 0.3, 0.1}
	Engagement       float64 `json:"engagement"`        // [0, 100] passthrough
	Serendipity      float64 `json:"serendipity"`       // {0.1, 0.5, 0.8}
	Diversity        float64 `json:"diversity"`         // {0.2, 0.5, 0.8, 1.0}
}

// ScoredItem pairs a content item with its composite score and factor
// breakdown. Items are returned in descending score order.
type ScoredItem struct {
	Item    *content.Item `json:"item"`
	Score   float64       `json:"score"`
	Factors Factors       `json:"factors"`
}

// Ranker scores candidate items against a user profile. It is stateless
// apart from its configuration and safe for concurrent use.
type Ranker struct {
	weights *Weights
	now     func() time.Time
	loc     *time.Location
	metrics *Metrics
}

// RankerConfig configures a Ranker. Zero values fall back to defaults.
type RankerConfig struct {
	// Weights are the base combining weights (default: DefaultWeights).
	Weights *Weights

	// Now supplies the clock used for recency and business-hours decisions.
	// Injectable so tests and replays are deterministic (default: time.Now).
	Now func() time.Time

	// Location is the timezone for the business-hours window
	// (default: server-local time).
	Location *time.Location

	// Metrics for instrumentation. Optional.
	Metrics *Metrics
}

// NewRanker creates a Ranker from the given configuration.
func NewRanker(cfg RankerConfig) *Ranker {
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Ranker{
		weights: cfg.Weights,
		now:     cfg.Now,
		loc:     cfg.Location,
		metrics: cfg.Metrics,
	}
}

// RankStream scores every candidate item against the profile and returns the
// items sorted by score descending. recentlySeen feeds only the diversity
// factor and may be nil.
//
// The pass is a pure function of (items, profile, recentlySeen, clock): each
// item's factors are independent, ties keep input order (stable sort), and
// nothing is mutated. An empty candidate list yields an empty result.
func (r *Ranker) RankStream(prof *profile.Profile, items []*content.Item, recentlySeen []*content.Item) []ScoredItem {
	start := time.Now()
	now := r.now().In(r.loc)
	weights := r.weights.Adjust(prof, now)

	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		scored = append(scored, r.scoreItem(item, prof, recentlySeen, now, &weights))
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if r.metrics != nil {
		r.metrics.ObserveRankDuration(time.Since(start).Seconds())
		r.metrics.AddItemsRanked(len(scored))
	}
	return scored
}

// Recommendations ranks the candidates with an empty recently-seen window and
// returns the top count items. count <= 0 yields an empty list; a count
// larger than the input returns everything.
func (r *Ranker) Recommendations(prof *profile.Profile, items []*content.Item, count int) []ScoredItem {
	if count <= 0 {
		return []ScoredItem{}
	}
	ranked := r.RankStream(prof, items, nil)
	if len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}

// scoreItem computes the six factors and their weighted composite for one item.
func (r *Ranker) scoreItem(item *content.Item, prof *profile.Profile, recentlySeen []*content.Item, now time.Time, w *Weights) ScoredItem {
	f := Factors{
		ProfileRelevance: ProfileRelevance(item, prof),
		Trending:         TrendingScore(item),
		Recency:          RecencyScore(item.PublishedAt, now),
		Engagement:       EngagementScore(item),
		Serendipity:      SerendipityScore(item, prof),
		Diversity:        DiversityScore(item, recentlySeen),
	}

	score := f.ProfileRelevance*w.ProfileRelevance +
		f.Trending*w.Trending +
		f.Recency*w.Recency +
		f.Engagement*w.Engagement +
		f.Serendipity*w.Serendipity +
		f.Diversity*w.Diversity

	return ScoredItem{Item: item, Score: score, Factors: f}
}
