// Package profile provides user profile models and storage for the adaptive
// feed. Profiles accumulate interaction signals (read history, smoothed read
// time) that drive personalized ranking.
package profile

import (
	"errors"
	"time"
)

// Common errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidAction   = errors.New("invalid interaction action")
)

// Skill levels on the same ordered scale as content difficulty.
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

// Roles a user can self-identify as.
const (
	RoleFounder   = "founder"
	RoleDeveloper = "developer"
	RoleDesigner  = "designer"
	RoleAnalyst   = "analyst"
	RoleOther     = "other"
)

// Interaction actions. Only read-time and history are consumed by ranking
// today; the full set is recorded for engagement aggregation.
const (
	ActionRead     = "read"
	ActionLike     = "like"
	ActionShare    = "share"
	ActionComment  = "comment"
	ActionBookmark = "bookmark"
)

// HistoryCap is the maximum number of browsing history entries retained per
// profile. Oldest entries are evicted first when the cap is exceeded.
const HistoryCap = 100

// ReadTimeSmoothing is the EMA decay factor applied to avg_read_time on each
// observed time_spent. new = old*(1-alpha) + observed*alpha.
const ReadTimeSmoothing = 0.1

// EngagementMetrics holds smoothed engagement signals for a profile.
type EngagementMetrics struct {
	// AvgReadTime is the exponentially smoothed read time in minutes.
	AvgReadTime float64 `json:"avg_read_time"`

	// PreferredCategories the user has gravitated toward.
	PreferredCategories []string `json:"preferred_categories,omitempty"`

	// PreferredContentLength is one of short, medium, long.
	PreferredContentLength string `json:"preferred_content_length,omitempty"`

	// TimeOfDayEngagement records engagement counts per hour of day.
	// Captured for future scheduling features; not consumed by ranking.
	TimeOfDayEngagement []int `json:"time_of_day_engagement,omitempty"`
}

// Profile represents a user's ranking profile.
//
// Profiles are mutated only through Store.ApplyInteraction, which serializes
// writers per profile. Ranking reads a snapshot and never mutates.
type Profile struct {
	UserID     string   `json:"user_id"`
	Interests  []string `json:"interests,omitempty"`
	SkillLevel string   `json:"skill_level,omitempty"`
	Role       string   `json:"role,omitempty"`

	// BrowsingHistory is the ordered list of viewed content IDs, oldest
	// first, capped at HistoryCap entries.
	BrowsingHistory []string `json:"browsing_history,omitempty"`

	Engagement EngagementMetrics `json:"engagement"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interaction is a single user-content interaction event pushed in by the
// event tracking layer.
type Interaction struct {
	NodeID string `json:"node_id"`
	Action string `json:"action"`

	// TimeSpent is minutes spent on the content, when known.
	TimeSpent *float64 `json:"time_spent,omitempty"`

	// Completed reports whether the user finished the content. Recorded but
	// not yet consumed by ranking.
	Completed *bool `json:"completed,omitempty"`
}

// ValidAction reports whether an interaction action is one of the known kinds.
func ValidAction(action string) bool {
	switch action {
	case ActionRead, ActionLike, ActionShare, ActionComment, ActionBookmark:
		return true
	}
	return false
}

// Validate checks the interaction for required fields and a known action.
func (i *Interaction) Validate() error {
	if i.NodeID == "" {
		return errors.New("node_id is required")
	}
	if !ValidAction(i.Action) {
		return ErrInvalidAction
	}
	return nil
}

// HasInterest reports whether the profile lists the given interest tag.
func (p *Profile) HasInterest(tag string) bool {
	for _, t := range p.Interests {
		if t == tag {
			return true
		}
	}
	return false
}

// PrefersCategory reports whether the category is in the profile's preferred set.
func (p *Profile) PrefersCategory(category string) bool {
	for _, c := range p.Engagement.PreferredCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Apply folds an interaction into the profile:
//   - time_spent updates avg_read_time with an EMA (alpha = ReadTimeSmoothing)
//   - node_id is appended to browsing history with FIFO eviction at HistoryCap
//
// action and completed are accepted but intentionally unused; they are
// forward-compatibility fields consumed only by engagement aggregation.
func (p *Profile) Apply(interaction Interaction) {
	if interaction.TimeSpent != nil {
		p.Engagement.AvgReadTime = p.Engagement.AvgReadTime*(1-ReadTimeSmoothing) +
			*interaction.TimeSpent*ReadTimeSmoothing
	}

	p.BrowsingHistory = append(p.BrowsingHistory, interaction.NodeID)
	if len(p.BrowsingHistory) > HistoryCap {
		p.BrowsingHistory = p.BrowsingHistory[len(p.BrowsingHistory)-HistoryCap:]
	}

	p.UpdatedAt = time.Now()
}
