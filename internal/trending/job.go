package trending

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/stats"
)

// Invalidator clears cached candidate pools after a recompute cycle so
// subsequent feed requests see fresh trending flags.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Notifier is told when a recompute cycle changed any trending flags.
// The live broadcaster implements this to push feed refresh events.
type Notifier interface {
	NotifyFeedChanged(changed int)
}

// JobConfig configures the trending recompute job.
type JobConfig struct {
	Config

	// Logger for job activity.
	Logger *slog.Logger

	// Metrics for performance tracking.
	Metrics *Metrics

	// Invalidator is called after a cycle that changed item state. Optional.
	Invalidator Invalidator

	// Notifier is told how many items changed trending state. Optional.
	Notifier Notifier

	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time
}

// Job periodically folds aggregated engagement stats back into the content
// repository: it writes per-item engagement scores and flips trending flags
// for fresh items whose score crosses the threshold.
type Job struct {
	config   JobConfig
	recorder *stats.Recorder
	repo     content.Repository

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewJob creates a new trending recompute job.
func NewJob(config JobConfig, recorder *stats.Recorder, repo content.Repository) *Job {
	if config.Interval == 0 {
		config.Interval = DefaultRecomputeInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRecomputeTimeout
	}
	if config.ScoreThreshold == 0 {
		config.ScoreThreshold = DefaultScoreThreshold
	}
	if config.FreshnessWindow == 0 {
		config.FreshnessWindow = DefaultFreshnessWindow
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Job{
		config:   config,
		recorder: recorder,
		repo:     repo,
	}
}

// Start begins the periodic recompute job.
// Returns immediately; the job runs in a background goroutine.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the recompute job to stop and waits for it to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the recompute job.
func (j *Job) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("trending recompute job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("trending recompute job stopping due to stop signal")
			return
		case <-ticker.C:
			j.recompute(ctx)
		}
	}
}

// RecomputeNow immediately runs one recompute cycle without waiting for the
// ticker. Useful for testing or forcing immediate updates.
func (j *Job) RecomputeNow() {
	j.recompute(context.Background())
}

// recompute runs one cycle: fold the engagement snapshot into the repository
// and re-evaluate trending flags for the whole candidate pool.
func (j *Job) recompute(parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	startTime := j.config.Now()
	scores := j.recorder.Snapshot()

	items, err := j.repo.ListCandidates(0)
	if err != nil {
		j.config.Logger.Error("failed to list candidate pool", "error", err)
		if j.config.Metrics != nil {
			j.config.Metrics.IncRecomputeErrors()
		}
		return
	}
	if len(items) == 0 {
		return
	}

	var processed, changed, trendingCount, failures int
	for i, item := range items {
		select {
		case <-ctx.Done():
			j.config.Logger.Error("trending recompute timeout exceeded",
				"processed", i,
				"total", len(items),
				"timeout", j.config.Timeout)
			if j.config.Metrics != nil {
				j.config.Metrics.IncRecomputeErrors()
				j.config.Metrics.ObserveRecomputeDuration(time.Since(startTime).Seconds())
			}
			return
		default:
		}

		if score, ok := scores[item.ID]; ok && score != item.EngagementScore {
			if err := j.repo.SetEngagementScore(item.ID, score); err != nil {
				j.config.Logger.Error("failed to update engagement score",
					"node_id", item.ID,
					"error", err)
				failures++
				continue
			}
			item.EngagementScore = score
		}

		shouldTrend := j.qualifies(item, startTime)
		if shouldTrend {
			trendingCount++
		}
		if shouldTrend != item.Trending {
			if err := j.repo.SetTrending(item.ID, shouldTrend); err != nil {
				j.config.Logger.Error("failed to update trending flag",
					"node_id", item.ID,
					"error", err)
				failures++
				continue
			}
			changed++
		}
		processed++
	}

	if changed > 0 && j.config.Invalidator != nil {
		if err := j.config.Invalidator.Invalidate(ctx); err != nil {
			j.config.Logger.Warn("failed to invalidate candidate cache", "error", err)
		}
	}
	if changed > 0 && j.config.Notifier != nil {
		j.config.Notifier.NotifyFeedChanged(changed)
	}

	duration := time.Since(startTime).Seconds()
	if j.config.Metrics != nil {
		j.config.Metrics.IncRecomputeTotal()
		j.config.Metrics.ObserveRecomputeDuration(duration)
		j.config.Metrics.SetLastRecomputeTimestamp(float64(j.config.Now().Unix()))
		j.config.Metrics.SetLastRecomputeItemCount(float64(processed))
		j.config.Metrics.SetTrendingItems(float64(trendingCount))
		if failures > 0 {
			j.config.Metrics.IncRecomputeErrors()
		}
	}

	j.config.Logger.Info("trending recompute completed",
		"duration_seconds", duration,
		"items_processed", processed,
		"items_failed", failures,
		"flags_changed", changed,
		"trending_items", trendingCount)
}

// qualifies reports whether an item should carry the trending flag: its
// engagement score must meet the threshold and it must still be fresh.
func (j *Job) qualifies(item *content.Item, now time.Time) bool {
	if item.EngagementScore < j.config.ScoreThreshold {
		return false
	}
	return now.Sub(item.PublishedAt) <= j.config.FreshnessWindow
}
