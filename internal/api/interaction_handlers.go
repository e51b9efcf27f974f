package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/croftwell/adaptivefeed/internal/middleware"
	"github.com/croftwell/adaptivefeed/internal/profile"
	"github.com/croftwell/adaptivefeed/internal/stats"
)

// MaxInteractionBodyBytes caps the interaction request body size.
const MaxInteractionBodyBytes = 16 * 1024

// InteractionHandlers records user-content interaction events.
type InteractionHandlers struct {
	profiles profile.Store
	recorder *stats.Recorder
	logger   *slog.Logger
}

// NewInteractionHandlers creates interaction handlers wired to the profile
// store and engagement recorder.
func NewInteractionHandlers(profiles profile.Store, recorder *stats.Recorder, logger *slog.Logger) *InteractionHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionHandlers{
		profiles: profiles,
		recorder: recorder,
		logger:   logger,
	}
}

// InteractionRequest is the request body for POST /interactions.
type InteractionRequest struct {
	UserID    string   `json:"user_id"`
	NodeID    string   `json:"node_id"`
	Action    string   `json:"action"`
	TimeSpent *float64 `json:"time_spent,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}

// InteractionResponse acknowledges a recorded interaction with the profile
// fields the interaction updated.
type InteractionResponse struct {
	UserID      string  `json:"user_id"`
	AvgReadTime float64 `json:"avg_read_time"`
	HistorySize int     `json:"history_size"`
}

// PostInteraction handles POST /interactions.
//
// The interaction is folded into the user's profile (EMA read time, browsing
// history) and counted toward the content's engagement aggregate. Responds
// 202 Accepted: ranking picks the change up on the next pass.
func (h *InteractionHandlers) PostInteraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxInteractionBodyBytes)
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx = middleware.SetErrorCode(ctx, ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	if req.UserID == "" {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}
	ctx = middleware.SetUserID(ctx, req.UserID)
	middleware.UpdateResponseContext(w, ctx)

	interaction := profile.Interaction{
		NodeID:    req.NodeID,
		Action:    req.Action,
		TimeSpent: req.TimeSpent,
		Completed: req.Completed,
	}
	if err := interaction.Validate(); err != nil {
		code := ErrCodeValidation
		if errors.Is(err, profile.ErrInvalidAction) {
			code = ErrCodeInvalidAction
		}
		ctx = middleware.SetErrorCode(ctx, code)
		WriteError(w, ctx, http.StatusBadRequest, code, err.Error())
		return
	}
	if req.TimeSpent != nil && *req.TimeSpent < 0 {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "time_spent must be non-negative")
		return
	}

	updated, err := h.profiles.ApplyInteraction(req.UserID, interaction)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to apply interaction",
			"user_id", req.UserID, "node_id", req.NodeID, "error", err)
		ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record interaction")
		return
	}

	if h.recorder != nil {
		h.recorder.Record(req.NodeID, req.Action)
	}

	writeJSON(w, ctx, http.StatusAccepted, InteractionResponse{
		UserID:      updated.UserID,
		AvgReadTime: updated.Engagement.AvgReadTime,
		HistorySize: len(updated.BrowsingHistory),
	})
}
