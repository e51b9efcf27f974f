package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/middleware"
)

// ItemHandlers serves individual content item lookups.
type ItemHandlers struct {
	repo   content.Repository
	logger *slog.Logger
}

// NewItemHandlers creates item handlers backed by the given repository.
func NewItemHandlers(repo content.Repository, logger *slog.Logger) *ItemHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemHandlers{repo: repo, logger: logger}
}

// GetItem handles GET /items/{slug}.
//
// Unpublished items return 410 Gone so clients can distinguish removed
// content from content that never existed.
func (h *ItemHandlers) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slug := r.PathValue("slug")
	if slug == "" {
		ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "slug is required")
		return
	}

	item, err := h.repo.GetBySlug(slug)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrItemDeleted):
			ctx = middleware.SetErrorCode(ctx, ErrCodeItemUnpublished)
			WriteError(w, ctx, http.StatusGone, ErrCodeItemUnpublished, "Content item has been unpublished")
		case errors.Is(err, content.ErrItemNotFound):
			ctx = middleware.SetErrorCode(ctx, ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Content item not found")
		default:
			h.logger.ErrorContext(ctx, "failed to load content item", "slug", slug, "error", err)
			ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load content item")
		}
		return
	}

	writeJSON(w, ctx, http.StatusOK, item)
}
