package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/middleware"
	"github.com/croftwell/adaptivefeed/internal/profile"
	"github.com/croftwell/adaptivefeed/internal/ranking"
)

// Feed pagination bounds.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100

	MaxRecommendationCount = 50

	// CandidatePoolLimit caps how many items are pulled into a ranking pass.
	CandidatePoolLimit = 500

	// RecentSeenWindow is how many trailing browsing-history entries feed the
	// diversity factor.
	RecentSeenWindow = 10
)

// CandidateSource supplies the candidate pool for a ranking pass. Satisfied
// by content.Cache and, for tests, by in-memory fakes.
type CandidateSource interface {
	Candidates(ctx context.Context, limit int) ([]*content.Item, error)
}

// FeedHandlers serves the personalized feed and recommendation endpoints.
type FeedHandlers struct {
	candidates CandidateSource
	profiles   profile.Store
	ranker     *ranking.Ranker
	logger     *slog.Logger
}

// NewFeedHandlers creates feed handlers wired to the given candidate source,
// profile store, and ranker.
func NewFeedHandlers(candidates CandidateSource, profiles profile.Store, ranker *ranking.Ranker, logger *slog.Logger) *FeedHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandlers{
		candidates: candidates,
		profiles:   profiles,
		ranker:     ranker,
		logger:     logger,
	}
}

// FeedResponse is the response body for GET /feed and GET /recommendations.
type FeedResponse struct {
	UserID      string               `json:"user_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Count       int                  `json:"count"`
	Items       []ranking.ScoredItem `json:"items"`
}

// GetFeed handles GET /feed?user_id=...&limit=...
//
// Unknown users get a cold-start feed ranked against an empty profile rather
// than an error.
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}
	ctx = middleware.SetUserID(ctx, userID)
	middleware.UpdateResponseContext(w, ctx)

	limit, err := parseBoundedInt(r.URL.Query().Get("limit"), DefaultFeedLimit, MaxFeedLimit)
	if err != nil {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
		return
	}

	prof := h.loadProfile(ctx, userID)

	items, err := h.candidates.Candidates(ctx, CandidatePoolLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load candidate pool", "error", err)
		ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to build feed")
		return
	}

	ranked := h.ranker.RankStream(prof, items, recentlySeen(prof, items))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	writeJSON(w, ctx, http.StatusOK, FeedResponse{
		UserID:      userID,
		GeneratedAt: time.Now().UTC(),
		Count:       len(ranked),
		Items:       ranked,
	})
}

// GetRecommendations handles GET /recommendations?user_id=...&count=...
//
// Recommendations rank the same candidate pool without the diversity window,
// so the result reflects standing interest rather than session variety.
func (h *FeedHandlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}
	ctx = middleware.SetUserID(ctx, userID)
	middleware.UpdateResponseContext(w, ctx)

	count, err := parseBoundedInt(r.URL.Query().Get("count"), ranking.DefaultRecommendationCount, MaxRecommendationCount)
	if err != nil {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "count must be a positive integer")
		return
	}

	prof := h.loadProfile(ctx, userID)

	items, err := h.candidates.Candidates(ctx, CandidatePoolLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load candidate pool", "error", err)
		ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to build recommendations")
		return
	}

	ranked := h.ranker.Recommendations(prof, items, count)

	writeJSON(w, ctx, http.StatusOK, FeedResponse{
		UserID:      userID,
		GeneratedAt: time.Now().UTC(),
		Count:       len(ranked),
		Items:       ranked,
	})
}

// loadProfile fetches the user's profile, degrading to nil for unknown users
// so ranking falls back to its cold-start path.
func (h *FeedHandlers) loadProfile(ctx context.Context, userID string) *profile.Profile {
	prof, err := h.profiles.Get(userID)
	if err != nil {
		if !errors.Is(err, profile.ErrProfileNotFound) {
			h.logger.WarnContext(ctx, "profile lookup failed, ranking cold", "user_id", userID, "error", err)
		}
		return nil
	}
	return prof
}

// recentlySeen maps the profile's trailing browsing history onto the candidate
// pool for the diversity factor. History IDs without a matching candidate are
// skipped.
func recentlySeen(prof *profile.Profile, items []*content.Item) []*content.Item {
	if prof == nil || len(prof.BrowsingHistory) == 0 {
		return nil
	}

	history := prof.BrowsingHistory
	if len(history) > RecentSeenWindow {
		history = history[len(history)-RecentSeenWindow:]
	}

	byID := make(map[string]*content.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	seen := make([]*content.Item, 0, len(history))
	for _, id := range history {
		if item, ok := byID[id]; ok {
			seen = append(seen, item)
		}
	}
	return seen
}

// parseBoundedInt parses a positive integer query parameter, applying the
// default when absent and clamping to max.
func parseBoundedInt(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("value must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}
