package handlers

import (
	"net/http"
	"time"

	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"
	"randomchallenge/api/internal/services"
	"randomchallenge/api/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	repo       repositories.CategoryRepository
	challenges repositories.ChallengeRepository
	cache      *services.CategoryCache
	logger     *zap.Logger
}

func NewCategoryHandler(repo repositories.CategoryRepository, challenges repositories.ChallengeRepository, cache *services.CategoryCache, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{repo: repo, challenges: challenges, cache: cache, logger: logger}
}

// GET /categories?includeInactive=&search=
func (h *CategoryHandler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	cats, err := h.repo.List(r.Context(), queryBool(r, "includeInactive"))
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	counts, err := h.challenges.CountByCategory(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	cats = services.SearchCategories(cats, r.URL.Query().Get("search"))
	items := make([]models.CategoryResponse, 0, len(cats))
	for _, c := range cats {
		items = append(items, models.CategoryResponse{Category: c, ChallengeCount: counts[c.ID]})
	}
	utils.JSON(w, http.StatusOK, models.CategoriesResponse{Count: len(items), Items: items})
}

func (h *CategoryHandler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cat, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "Category not found")
		return
	}
	count, err := h.challenges.Count(r.Context(), models.ChallengeFilter{CategoryID: id})
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	utils.JSON(w, http.StatusOK, models.CategoryResponse{Category: *cat, ChallengeCount: count})
}

func (h *CategoryHandler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CategoryRequest](r)
	now := time.Now().UTC()
	cat := &models.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Emoji:       req.Emoji,
		Color:       req.Color,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.Create(r.Context(), cat); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.Header().Set("Location", "/api/v1/categories/"+cat.ID)
	utils.JSON(w, http.StatusCreated, models.CategoryResponse{Category: *cat})
}

func (h *CategoryHandler) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.CategoryRequest](r)
	cat, err := h.repo.Update(r.Context(), id, models.CategoryPatch{
		Name:        &req.Name,
		Emoji:       &req.Emoji,
		Color:       &req.Color,
		Description: &req.Description,
	})
	if err != nil {
		writeError(w, h.logger, err, "Category not found")
		return
	}
	h.cache.Invalidate(id)
	utils.JSON(w, http.StatusOK, models.CategoryResponse{Category: *cat})
}

// DeleteCategoryHandler deactivates a category that no active challenge uses.
func (h *CategoryHandler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inUse, err := h.challenges.Count(r.Context(), models.ChallengeFilter{CategoryID: id})
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if inUse > 0 {
		writeError(w, h.logger, models.ErrCategoryInUse, "")
		return
	}
	if err := h.repo.SoftDelete(r.Context(), id); err != nil {
		writeError(w, h.logger, err, "Category not found")
		return
	}
	h.cache.Invalidate(id)
	utils.JSON(w, http.StatusOK, models.MessageResponse{Message: "Category deleted"})
}
