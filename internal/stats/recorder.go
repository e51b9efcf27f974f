// Package stats aggregates user interactions into per-item engagement
// signals for the ranking pipeline.
package stats

import (
	"sync"

	"github.com/croftwell/adaptivefeed/internal/profile"
)

// actionWeights maps interaction kinds to their engagement contribution.
// Heavier actions signal stronger engagement.
var actionWeights = map[string]float64{
	profile.ActionRead:     1,
	profile.ActionLike:     2,
	profile.ActionComment:  3,
	profile.ActionBookmark: 3,
	profile.ActionShare:    4,
}

// saturationConstant controls how fast the engagement score approaches 100.
// A weighted interaction total equal to the constant scores 50.
const saturationConstant = 50.0

// MaxEngagementScore is the ceiling of the engagement scale.
const MaxEngagementScore = 100.0

// Recorder accumulates weighted interaction counts per content item and
// derives a bounded engagement score from them. Thread-safe.
type Recorder struct {
	mu       sync.RWMutex
	weighted map[string]float64 // nodeID -> weighted interaction total
	total    int64              // all interactions recorded
}

// NewRecorder creates a new engagement recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		weighted: make(map[string]float64),
	}
}

// Record folds one interaction into the item's weighted total.
// Unknown actions count with weight 1 so no event is silently dropped.
func (r *Recorder) Record(nodeID, action string) {
	weight, ok := actionWeights[action]
	if !ok {
		weight = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.weighted[nodeID] += weight
	r.total++
}

// EngagementScore returns the item's engagement on a [0, 100] scale using a
// saturating curve: score = 100 * w / (w + saturationConstant). Items with
// no recorded interactions score 0.
func (r *Recorder) EngagementScore(nodeID string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return saturate(r.weighted[nodeID])
}

// Snapshot returns a copy of all per-item engagement scores.
func (r *Recorder) Snapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scores := make(map[string]float64, len(r.weighted))
	for nodeID, w := range r.weighted {
		scores[nodeID] = saturate(w)
	}
	return scores
}

// Total returns the number of interactions recorded.
func (r *Recorder) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Reset clears all accumulated counts. Used between aggregation windows.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weighted = make(map[string]float64)
	r.total = 0
}

// saturate maps a weighted total to the bounded [0, 100] scale.
func saturate(weighted float64) float64 {
	if weighted <= 0 {
		return 0
	}
	score := MaxEngagementScore * weighted / (weighted + saturationConstant)
	if score > MaxEngagementScore {
		score = MaxEngagementScore
	}
	return score
}
