// Package trending provides the background job that recomputes per-item
// engagement scores and trending flags from aggregated interaction stats.
package trending

import (
	"fmt"
	"time"
)

// DefaultRecomputeInterval is the default interval between recompute cycles.
const DefaultRecomputeInterval = 60 * time.Second

// DefaultRecomputeTimeout is the default timeout for a single recompute cycle.
const DefaultRecomputeTimeout = 30 * time.Second

// DefaultScoreThreshold is the engagement score at or above which an item is
// flagged trending.
const DefaultScoreThreshold = 60.0

// DefaultFreshnessWindow bounds how old an item may be and still qualify as
// trending regardless of engagement.
const DefaultFreshnessWindow = 14 * 24 * time.Hour

// Config configures the trending recompute job.
type Config struct {
	// Interval is the duration between recompute cycles.
	Interval time.Duration

	// Timeout bounds a single recompute cycle.
	Timeout time.Duration

	// ScoreThreshold is the minimum engagement score for the trending flag.
	ScoreThreshold float64

	// FreshnessWindow is the maximum item age eligible for trending.
	FreshnessWindow time.Duration
}

// Validate checks the config for invalid values.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %s)", c.Interval)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", c.Timeout)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 100 {
		return fmt.Errorf("score threshold must be in [0, 100] (got %f)", c.ScoreThreshold)
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("freshness window must be > 0 (got %s)", c.FreshnessWindow)
	}
	return nil
}

// DefaultConfig returns the default trending job configuration.
func DefaultConfig() Config {
	return Config{
		Interval:        DefaultRecomputeInterval,
		Timeout:         DefaultRecomputeTimeout,
		ScoreThreshold:  DefaultScoreThreshold,
		FreshnessWindow: DefaultFreshnessWindow,
	}
}
