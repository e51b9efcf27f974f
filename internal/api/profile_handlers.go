package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/croftwell/adaptivefeed/internal/middleware"
	"github.com/croftwell/adaptivefeed/internal/profile"
)

// ProfileHandlers serves user profile lookups.
type ProfileHandlers struct {
	profiles profile.Store
	logger   *slog.Logger
}

// NewProfileHandlers creates profile handlers backed by the given store.
func NewProfileHandlers(profiles profile.Store, logger *slog.Logger) *ProfileHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandlers{profiles: profiles, logger: logger}
}

// GetProfile handles GET /profiles/{user_id}.
func (h *ProfileHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("user_id")
	if userID == "" {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}
	ctx = middleware.SetUserID(ctx, userID)
	middleware.UpdateResponseContext(w, ctx)

	prof, err := h.profiles.Get(userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			ctx = middleware.SetErrorCode(ctx, ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Profile not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to load profile", "user_id", userID, "error", err)
		ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load profile")
		return
	}

	writeJSON(w, ctx, http.StatusOK, prof)
}
