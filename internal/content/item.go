// Package content provides models and repository for published content items
// (knowledge nodes) that feed the discovery ranking pipeline.
package content

import (
	"errors"
	"time"
)

// Common errors for content operations.
var (
	ErrItemNotFound = errors.New("content item not found")
	ErrItemDeleted  = errors.New("content item has been unpublished")
)

// Difficulty levels on an ordered scale. Adjacency between levels matters
// for ranking (one level away earns partial relevance credit).
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Length buckets derived from estimated read time.
const (
	LengthShort  = "short"  // <= 5 minutes
	LengthMedium = "medium" // <= 15 minutes
	LengthLong   = "long"   // > 15 minutes
)

// ShortReadMaxMinutes and MediumReadMaxMinutes are the read-time boundaries
// between length buckets.
const (
	ShortReadMaxMinutes  = 5
	MediumReadMaxMinutes = 15
)

// Item represents a single publishable content item with the metadata used
// for ranking. Items are never mutated during a ranking pass; the ingest
// pipeline is the only writer.
type Item struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`

	Title    string `json:"title"`
	Excerpt  string `json:"excerpt,omitempty"`
	Body     string `json:"body,omitempty"`
	Category string `json:"category"`

	Tags            []string `json:"tags,omitempty"`
	Difficulty      string   `json:"difficulty"`
	ReadTimeMinutes int      `json:"read_time_minutes"`

	// TargetAudience lists the roles this item is written for
	// (founder, developer, designer, analyst, other). May be empty.
	TargetAudience []string `json:"target_audience,omitempty"`

	// EngagementScore is the externally aggregated engagement signal on a
	// 0-100 scale.
	EngagementScore float64 `json:"engagement_score"`

	// Trending marks items with high recent engagement velocity. Maintained
	// by the trending recompute job.
	Trending bool `json:"trending"`

	PublishedAt time.Time  `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// LengthBucket returns the length bucket for the item's read time.
func (i *Item) LengthBucket() string {
	switch {
	case i.ReadTimeMinutes <= ShortReadMaxMinutes:
		return LengthShort
	case i.ReadTimeMinutes <= MediumReadMaxMinutes:
		return LengthMedium
	default:
		return LengthLong
	}
}

// HasTag reports whether the item carries the given tag.
func (i *Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ValidDifficulty reports whether a difficulty string is one of the known levels.
func ValidDifficulty(d string) bool {
	return DifficultyIndex(d) >= 0
}

// DifficultyIndex returns the position of a difficulty level on the ordered
// scale [beginner, intermediate, advanced], or -1 for unknown values.
func DifficultyIndex(d string) int {
	switch d {
	case DifficultyBeginner:
		return 0
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	default:
		return -1
	}
}

// UpsertResult tracks the outcome of an upsert operation.
type UpsertResult struct {
	Inserted bool   // True if a new record was inserted
	ID       string // The UUID of the upserted record
}
