package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// writeError maps domain and store errors to HTTP responses. Store and
// unexpected failures are logged; everything else is the client's doing.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "not_found", notFound)
	case errors.Is(err, models.ErrAlreadyCompletedToday):
		utils.JSONError(w, http.StatusConflict, "already_completed_today", "Challenge already completed today")
	case errors.Is(err, models.ErrDuplicate):
		utils.JSONError(w, http.StatusConflict, "duplicate", "A record with the same unique field already exists")
	case errors.Is(err, models.ErrCategoryInUse):
		utils.JSONError(w, http.StatusConflict, "category_in_use", "Category still has active challenges")
	case errors.Is(err, models.ErrCategoryInactive):
		utils.JSONError(w, http.StatusBadRequest, "invalid_category", "Category does not exist or is inactive")
	case errors.Is(err, models.ErrStoreUnavailable):
		logger.Error("store unavailable", zap.Error(err))
		utils.JSONError(w, http.StatusServiceUnavailable, "store_unavailable", "Service temporarily unavailable")
	default:
		logger.Error("unexpected error", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// pathID reads and validates the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !models.ValidID(id) {
		utils.JSONError(w, http.StatusBadRequest, "invalid_id", "Invalid id")
		return "", false
	}
	return id, true
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
