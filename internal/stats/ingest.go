package stats

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// IngestStats tracks cumulative statistics for the content ingest pipeline.
// All operations are thread-safe using atomic counters.
type IngestStats struct {
	inserted    int64 // New items created
	updated     int64 // Existing items updated
	unpublished int64 // Items soft-deleted
	rejected    int64 // Events dropped by validation
}

// NewIngestStats creates a new IngestStats instance.
func NewIngestStats() *IngestStats {
	return &IngestStats{}
}

// RecordInsert increments the inserted counter.
func (s *IngestStats) RecordInsert() {
	atomic.AddInt64(&s.inserted, 1)
}

// RecordUpdate increments the updated counter.
func (s *IngestStats) RecordUpdate() {
	atomic.AddInt64(&s.updated, 1)
}

// RecordUnpublish increments the unpublished counter.
func (s *IngestStats) RecordUnpublish() {
	atomic.AddInt64(&s.unpublished, 1)
}

// RecordReject increments the rejected counter.
func (s *IngestStats) RecordReject() {
	atomic.AddInt64(&s.rejected, 1)
}

// Inserted returns the total number of inserts.
func (s *IngestStats) Inserted() int64 {
	return atomic.LoadInt64(&s.inserted)
}

// Updated returns the total number of updates.
func (s *IngestStats) Updated() int64 {
	return atomic.LoadInt64(&s.updated)
}

// Unpublished returns the total number of unpublish events.
func (s *IngestStats) Unpublished() int64 {
	return atomic.LoadInt64(&s.unpublished)
}

// Rejected returns the total number of rejected events.
func (s *IngestStats) Rejected() int64 {
	return atomic.LoadInt64(&s.rejected)
}

// Total returns the total number of processed events.
func (s *IngestStats) Total() int64 {
	return s.Inserted() + s.Updated() + s.Unpublished() + s.Rejected()
}

// String returns a human-readable summary of the statistics.
func (s *IngestStats) String() string {
	return fmt.Sprintf("inserted=%d updated=%d unpublished=%d rejected=%d",
		s.Inserted(), s.Updated(), s.Unpublished(), s.Rejected())
}

// LogSummary logs a summary of ingest statistics at INFO level.
// Useful for periodic reporting during long ingest runs.
func (s *IngestStats) LogSummary(logger *slog.Logger) {
	logger.Info("ingest statistics",
		"inserted", s.Inserted(),
		"updated", s.Updated(),
		"unpublished", s.Unpublished(),
		"rejected", s.Rejected(),
	)
}
