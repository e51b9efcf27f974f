package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/profile"
	"github.com/croftwell/adaptivefeed/internal/ranking"
)

// fakeCandidates is a CandidateSource backed by a slice.
type fakeCandidates struct {
	items []*content.Item
	err   error
}

func (f *fakeCandidates) Candidates(ctx context.Context, limit int) ([]*content.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	items := f.items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func testItem(id, slug, category string, publishedAgo time.Duration, engagement float64, trending bool) *content.Item {
	return &content.Item{
		ID:              id,
		Slug:            slug,
		Title:           slug,
		Category:        category,
		Difficulty:      content.DifficultyIntermediate,
		ReadTimeMinutes: 8,
		EngagementScore: engagement,
		Trending:        trending,
		PublishedAt:     time.Now().Add(-publishedAgo),
	}
}

func newTestFeedHandlers(candidates CandidateSource, profiles profile.Store) *FeedHandlers {
	ranker := ranking.NewRanker(ranking.RankerConfig{
		// Fixed weekday-noon clock keeps business-hours adjustments stable.
		Now: func() time.Time {
			return time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
		},
		Location: time.UTC,
	})
	return NewFeedHandlers(candidates, profiles, ranker, nil)
}

func decodeFeedResponse(t *testing.T, rr *httptest.ResponseRecorder) FeedResponse {
	t.Helper()
	var resp FeedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return resp
}

func decodeErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response %q: %v", rr.Body.String(), err)
	}
	return resp
}

func TestGetFeedRequiresUserID(t *testing.T) {
	h := newTestFeedHandlers(&fakeCandidates{}, profile.NewInMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	rr := httptest.NewRecorder()
	h.GetFeed(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if errResp := decodeErrorResponse(t, rr); errResp.Error.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, errResp.Error.Code)
	}
}

func TestGetFeedInvalidLimit(t *testing.T) {
	h := newTestFeedHandlers(&fakeCandidates{}, profile.NewInMemoryStore())

	for _, limit := range []string{"abc", "0", "-5"} {
		t.Run(limit, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed?user_id=u1&limit="+limit, nil)
			rr := httptest.NewRecorder()
			h.GetFeed(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400 for limit %q, got %d", limit, rr.Code)
			}
		})
	}
}

func TestGetFeedColdStartUnknownUser(t *testing.T) {
	items := []*content.Item{
		testItem("a", "intro-to-agents", "ai", 2*24*time.Hour, 70, true),
		testItem("b", "scaling-postgres", "databases", 40*24*time.Hour, 30, false),
	}
	h := newTestFeedHandlers(&fakeCandidates{items: items}, profile.NewInMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/feed?user_id=stranger", nil)
	rr := httptest.NewRecorder()
	h.GetFeed(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unknown users should get a cold-start feed, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeFeedResponse(t, rr)
	if resp.Count != 2 {
		t.Errorf("expected 2 items, got %d", resp.Count)
	}
	if resp.UserID != "stranger" {
		t.Errorf("expected user_id stranger, got %q", resp.UserID)
	}
}

func TestGetFeedOrdersByScore(t *testing.T) {
	// Fresh trending item with strong engagement must outrank a stale dud.
	items := []*content.Item{
		testItem("dud", "old-news", "misc", 400*24*time.Hour, 5, false),
		testItem("hot", "fresh-and-trending", "ai", 24*time.Hour, 90, true),
	}
	h := newTestFeedHandlers(&fakeCandidates{items: items}, profile.NewInMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/feed?user_id=u1", nil)
	rr := httptest.NewRecorder()
	h.GetFeed(rr, req)

	resp := decodeFeedResponse(t, rr)
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].Item.ID != "hot" {
		t.Errorf("expected trending item first, got %q", resp.Items[0].Item.ID)
	}
	if resp.Items[0].Score <= resp.Items[1].Score {
		t.Errorf("scores not descending: %f <= %f", resp.Items[0].Score, resp.Items[1].Score)
	}
}

func TestGetFeedAppliesLimit(t *testing.T) {
	var items []*content.Item
	for i := 0; i < 30; i++ {
		items = append(items, testItem(
			string(rune('a'+i)), "item-"+string(rune('a'+i)), "ai",
			time.Duration(i)*24*time.Hour, 50, false))
	}
	h := newTestFeedHandlers(&fakeCandidates{items: items}, profile.NewInMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/feed?user_id=u1&limit=5", nil)
	rr := httptest.NewRecorder()
	h.GetFeed(rr, req)

	if resp := decodeFeedResponse(t, rr); resp.Count != 5 {
		t.Errorf("expected 5 items, got %d", resp.Count)
	}
}

func TestGetFeedCandidateFailure(t *testing.T) {
	h := newTestFeedHandlers(&fakeCandidates{err: errors.New("pool unavailable")}, profile.NewInMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/feed?user_id=u1", nil)
	rr := httptest.NewRecorder()
	h.GetFeed(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if errResp := decodeErrorResponse(t, rr); errResp.Error.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, errResp.Error.Code)
	}
}

func TestGetRecommendationsCount(t *testing.T) {
	var items []*content.Item
	for i := 0; i < 20; i++ {
		items = append(items, testItem(
			string(rune('a'+i)), "rec-"+string(rune('a'+i)), "ai",
			time.Duration(i)*24*time.Hour, 50, false))
	}
	h := newTestFeedHandlers(&fakeCandidates{items: items}, profile.NewInMemoryStore())

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"default count", "", ranking.DefaultRecommendationCount},
		{"explicit count", "&count=3", 3},
		{"count clamped to max", "&count=500", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/recommendations?user_id=u1"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.GetRecommendations(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			if resp := decodeFeedResponse(t, rr); resp.Count != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, resp.Count)
			}
		})
	}
}

func TestGetRecommendationsRequiresUserID(t *testing.T) {
	h := newTestFeedHandlers(&fakeCandidates{}, profile.NewInMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	rr := httptest.NewRecorder()
	h.GetRecommendations(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestRecentlySeenWindow(t *testing.T) {
	items := []*content.Item{
		testItem("a", "a", "ai", time.Hour, 50, false),
		testItem("b", "b", "ai", time.Hour, 50, false),
	}

	prof := &profile.Profile{UserID: "u1"}
	// Fill history beyond the window; only the trailing entries count.
	for i := 0; i < RecentSeenWindow; i++ {
		prof.BrowsingHistory = append(prof.BrowsingHistory, "a")
	}
	prof.BrowsingHistory = append(prof.BrowsingHistory, "b")

	seen := recentlySeen(prof, items)
	if len(seen) != RecentSeenWindow {
		t.Fatalf("expected %d recently seen items, got %d", RecentSeenWindow, len(seen))
	}
	if seen[len(seen)-1].ID != "b" {
		t.Errorf("expected trailing history entry b, got %q", seen[len(seen)-1].ID)
	}

	if got := recentlySeen(nil, items); got != nil {
		t.Errorf("nil profile should yield nil window, got %v", got)
	}
}
