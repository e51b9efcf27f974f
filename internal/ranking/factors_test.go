package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/profile"
)

// floatTolerance is the comparison tolerance for factor scores.
const floatTolerance = 0.0001

// TestProfileRelevance tests the weighted profile match factor.
func TestProfileRelevance(t *testing.T) {
	prof := &profile.Profile{
		Interests:  []string{"llm-apps", "prompting", "agents"},
		SkillLevel: profile.SkillIntermediate,
		Role:       profile.RoleDeveloper,
		Engagement: profile.EngagementMetrics{
			PreferredCategories:    []string{"tutorials"},
			PreferredContentLength: content.LengthMedium,
		},
	}

	tests := []struct {
		name     string
		item     content.Item
		expected float64
	}{
		{
			name: "full match across all five terms",
			item: content.Item{
				Category:        "tutorials",
				Tags:            []string{"llm-apps", "prompting", "agents"},
				Difficulty:      content.DifficultyIntermediate,
				TargetAudience:  []string{"developer"},
				ReadTimeMinutes: 10,
			},
			expected: 1.0, // 0.30 + 0.25 + 0.20 + 0.15 + 0.10
		},
		{
			name: "no match on any term",
			item: content.Item{
				Category:        "news",
				Tags:            []string{"funding", "layoffs"},
				Difficulty:      "", // unknown
				TargetAudience:  []string{"founder"},
				ReadTimeMinutes: 30,
			},
			expected: 0.0,
		},
		{
			name: "category only",
			item: content.Item{
				Category:        "tutorials",
				Tags:            []string{"funding"},
				ReadTimeMinutes: 30,
			},
			expected: 0.30,
		},
		{
			name: "partial tag overlap scales proportionally",
			item: content.Item{
				Category:        "news",
				Tags:            []string{"llm-apps", "funding", "layoffs", "ipo"},
				ReadTimeMinutes: 30,
			},
			expected: 0.25 * 1.0 / 4.0, // one of four tags matches
		},
		{
			name: "empty tags contribute zero, no division error",
			item: content.Item{
				Category:        "news",
				Tags:            nil,
				ReadTimeMinutes: 30,
			},
			expected: 0.0,
		},
		{
			name: "adjacent difficulty earns half credit",
			item: content.Item{
				Category:        "news",
				Tags:            []string{"funding"},
				Difficulty:      content.DifficultyAdvanced, // one step from intermediate
				ReadTimeMinutes: 30,
			},
			expected: 0.10,
		},
		{
			name: "role in target audience",
			item: content.Item{
				Category:        "news",
				Tags:            []string{"funding"},
				TargetAudience:  []string{"founder", "developer"},
				ReadTimeMinutes: 30,
			},
			expected: 0.15,
		},
		{
			name: "length bucket match",
			item: content.Item{
				Category:        "news",
				Tags:            []string{"funding"},
				ReadTimeMinutes: 12, // medium bucket
			},
			expected: 0.10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfileRelevance(&tt.item, prof)
			if math.Abs(got-tt.expected) > floatTolerance {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestProfileRelevanceBeginnerDistance verifies that a two-level difficulty
// gap (beginner vs advanced) earns no difficulty credit.
func TestProfileRelevanceBeginnerDistance(t *testing.T) {
	prof := &profile.Profile{SkillLevel: profile.SkillBeginner}
	item := &content.Item{
		Category:        "news",
		Difficulty:      content.DifficultyAdvanced,
		ReadTimeMinutes: 30,
	}

	got := ProfileRelevance(item, prof)
	// Serendipitous category etc. don't apply here; only difficulty could
	// fire and it must not.
	if math.Abs(got-0.0) > floatTolerance {
		t.Errorf("expected 0.0 for two-level difficulty gap, got %f", got)
	}
}

// TestProfileRelevanceBounds verifies the [0, 1] bound holds for extreme inputs.
func TestProfileRelevanceBounds(t *testing.T) {
	prof := &profile.Profile{
		Interests:  []string{"a", "b", "c"},
		SkillLevel: profile.SkillBeginner,
		Role:       profile.RoleFounder,
		Engagement: profile.EngagementMetrics{
			PreferredCategories:    []string{"x"},
			PreferredContentLength: content.LengthShort,
		},
	}
	item := &content.Item{
		Category:        "x",
		Tags:            []string{"a", "b", "c"},
		Difficulty:      content.DifficultyBeginner,
		TargetAudience:  []string{"founder"},
		ReadTimeMinutes: 3,
	}

	got := ProfileRelevance(item, prof)
	if got < 0 || got > 1 {
		t.Errorf("profile relevance out of [0, 1]: %f", got)
	}

	if ProfileRelevance(nil, prof) != 0 {
		t.Error("nil item should score 0")
	}
	if ProfileRelevance(item, nil) != 0 {
		t.Error("nil profile should score 0")
	}
}

// TestTrendingScore tests the stepped trending factor.
func TestTrendingScore(t *testing.T) {
	tests := []struct {
		name       string
		trending   bool
		engagement float64
		expected   float64
	}{
		{name: "trending flag wins", trending: true, engagement: 0, expected: 100},
		{name: "engagement above 80", trending: false, engagement: 85, expected: 80},
		{name: "engagement exactly 80 steps down", trending: false, engagement: 80, expected: 60},
		{name: "engagement 65 scores 60", trending: false, engagement: 65, expected: 60}, // Scenario C
		{name: "engagement 45 scores 40", trending: false, engagement: 45, expected: 40},
		{name: "engagement 40 floors at 20", trending: false, engagement: 40, expected: 20},
		{name: "zero engagement floors at 20", trending: false, engagement: 0, expected: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &content.Item{Trending: tt.trending, EngagementScore: tt.engagement}
			got := TrendingScore(item)
			if got != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestRecencyScore tests the day-bucketed freshness factor.
func TestRecencyScore(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		age      time.Duration
		expected float64
	}{
		{name: "published today", age: 2 * time.Hour, expected: 1.0},
		{name: "three days old", age: 3 * 24 * time.Hour, expected: 0.9},
		{name: "exactly seven days", age: 7 * 24 * time.Hour, expected: 0.9},
		{name: "two weeks old", age: 14 * 24 * time.Hour, expected: 0.7},
		{name: "two months old", age: 60 * 24 * time.Hour, expected: 0.5},
		{name: "six months old", age: 180 * 24 * time.Hour, expected: 0.3},
		{name: "over a year old", age: 400 * 24 * time.Hour, expected: 0.1},
		{name: "future publish date clamps to fresh", age: -24 * time.Hour, expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecencyScore(now.Add(-tt.age), now)
			if got != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestRecencyScoreDomain verifies recency only ever takes its six step values.
func TestRecencyScoreDomain(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	valid := map[float64]bool{1.0: true, 0.9: true, 0.7: true, 0.5: true, 0.3: true, 0.1: true}

	for days := 0; days <= 500; days += 13 {
		got := RecencyScore(now.Add(-time.Duration(days)*24*time.Hour), now)
		if !valid[got] {
			t.Errorf("day %d: recency %f outside step domain", days, got)
		}
	}
}

// TestSerendipityScore tests the discovery heuristic.
func TestSerendipityScore(t *testing.T) {
	prof := &profile.Profile{
		Interests: []string{"llm-apps", "prompting"},
		Engagement: profile.EngagementMetrics{
			PreferredCategories: []string{"tutorials"},
		},
	}

	tests := []struct {
		name     string
		category string
		tags     []string
		expected float64
	}{
		{
			name:     "novel category and two novel tags",
			category: "news",
			tags:     []string{"funding", "layoffs"},
			expected: 0.8,
		},
		{
			name:     "novel category but only one novel tag",
			category: "news",
			tags:     []string{"llm-apps", "funding"},
			expected: 0.5,
		},
		{
			name:     "familiar category with one novel tag",
			category: "tutorials",
			tags:     []string{"llm-apps", "funding"},
			expected: 0.5,
		},
		{
			name:     "novel category with no tags",
			category: "news",
			tags:     nil,
			expected: 0.5,
		},
		{
			name:     "fully familiar content",
			category: "tutorials",
			tags:     []string{"llm-apps", "prompting"},
			expected: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &content.Item{Category: tt.category, Tags: tt.tags}
			got := SerendipityScore(item, prof)
			if got != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestDiversityScore tests the recently-seen category penalty.
func TestDiversityScore(t *testing.T) {
	seen := func(categories ...string) []*content.Item {
		items := make([]*content.Item, len(categories))
		for i, c := range categories {
			items[i] = &content.Item{Category: c}
		}
		return items
	}

	tests := []struct {
		name     string
		recently []*content.Item
		expected float64
	}{
		{name: "no recent items", recently: nil, expected: 1.0},
		{name: "no category matches", recently: seen("news", "reviews"), expected: 1.0},
		{name: "one match", recently: seen("tutorials", "news"), expected: 0.8},
		{name: "two matches", recently: seen("tutorials", "tutorials"), expected: 0.5},
		{name: "three matches", recently: seen("tutorials", "tutorials", "tutorials"), expected: 0.2}, // Scenario B
		{name: "five matches still floors at 0.2", recently: seen("tutorials", "tutorials", "tutorials", "tutorials", "tutorials"), expected: 0.2},
	}

	item := &content.Item{Category: "tutorials"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiversityScore(item, tt.recently)
			if got != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestEngagementScorePassthrough verifies engagement is passed through unchanged.
func TestEngagementScorePassthrough(t *testing.T) {
	for _, score := range []float64{0, 12.5, 50, 99.9, 100} {
		item := &content.Item{EngagementScore: score}
		if got := EngagementScore(item); got != score {
			t.Errorf("expected passthrough %f, got %f", score, got)
		}
	}
}
