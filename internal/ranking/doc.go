// Package ranking provides the adaptive feed scoring engine: per-item factor
// calculations, dynamically adjusted weights, and composite ranking with
// calibration support.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default weights", "error", err)
//	}
//
//	ranker := ranking.NewRanker(ranking.RankerConfig{Weights: weights})
//
//	// Rank a candidate pool for a user
//	ranked := ranker.RankStream(userProfile, candidates, recentlySeen)
//	for _, s := range ranked {
//		fmt.Println(s.Item.Slug, s.Score, s.Factors.ProfileRelevance)
//	}
//
//	// Or take the top N directly
//	top := ranker.Recommendations(userProfile, candidates, 10)
//
// Factor Scales:
//
// Four factors (profile relevance, recency, serendipity, diversity) are on a
// [0, 1] scale; trending and engagement are on [0, 100]. The mixed scales
// mean trending and engagement dominate the composite score. This is
// preserved behavior from the original scoring model — do not renormalize
// the factors, tune the combining weights through calibration instead.
//
// Dynamic Weights:
//
// The base weights are adjusted per request from the user's profile (power
// users, new users) and the local clock (business hours). Adjustments are
// additive and deliberately not renormalized; see Weights.Adjust.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of the six base weights
// via a JSON file loaded at startup. Partial files merge over defaults. The
// dynamic adjustments are fixed behavior and not calibratable.
package ranking
