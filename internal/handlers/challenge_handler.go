package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"randomchallenge/api/internal/metrics"
	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"
	"randomchallenge/api/internal/selection"
	"randomchallenge/api/internal/services"
	"randomchallenge/api/internal/tracker"
	"randomchallenge/api/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ChallengeHandler struct {
	repo       repositories.ChallengeRepository
	categories *services.CategoryCache
	engine     *selection.Engine
	tracker    *tracker.Tracker
	logger     *zap.Logger
}

func NewChallengeHandler(repo repositories.ChallengeRepository, categories *services.CategoryCache, engine *selection.Engine, tr *tracker.Tracker, logger *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{repo: repo, categories: categories, engine: engine, tracker: tr, logger: logger}
}

// parseFilter reads category, difficulty and, for moderators and admins,
// includeInactive from the query string.
func parseFilter(w http.ResponseWriter, r *http.Request) (models.ChallengeFilter, bool) {
	q := r.URL.Query()
	var f models.ChallengeFilter
	if c := q.Get("category"); c != "" {
		if !models.ValidID(c) {
			utils.JSONError(w, http.StatusBadRequest, "invalid_category", "category must be a valid id")
			return f, false
		}
		f.CategoryID = c
	}
	if d := q.Get("difficulty"); d != "" {
		f.Difficulty = models.Difficulty(strings.ToLower(d))
		if !f.Difficulty.Valid() {
			utils.JSONError(w, http.StatusBadRequest, "invalid_difficulty", "difficulty must be one of: easy, medium, hard")
			return f, false
		}
	}
	if user := middleware.UserFromContext(r.Context()); user != nil && user.HasRole(models.RoleAdmin, models.RoleModerator) {
		f.IncludeInactive = queryBool(r, "includeInactive")
	}
	return f, true
}

func (h *ChallengeHandler) respond(w http.ResponseWriter, r *http.Request, status int, c *models.Challenge) {
	cat, err := h.categories.Get(r.Context(), c.CategoryID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		writeError(w, h.logger, err, "")
		return
	}
	utils.JSON(w, status, models.NewChallengeResponse(c, cat))
}

// GET /challenges?category=&difficulty=&tags=&sort=&page=&limit=
func (h *ChallengeHandler) ListChallengesHandler(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if raw := q.Get("tags"); raw != "" {
		var tags []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		normalized, err := models.NormalizeTags(tags)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid_tags", "each tag must be between 2 and 20 characters")
			return
		}
		filter.Tags = normalized
	}

	opts := models.ListOptions{Sort: models.SortNewest, Page: 1, Limit: defaultPageLimit}
	if s := q.Get("sort"); s != "" {
		opts.Sort = models.ChallengeSort(s)
		if !opts.Sort.Valid() {
			utils.JSONError(w, http.StatusBadRequest, "invalid_sort", "sort must be one of: -createdAt, createdAt, -completedCount, completedCount, -rating")
			return
		}
	}
	if p := q.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			utils.JSONError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
			return
		}
		opts.Page = page
	}
	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 || limit > maxPageLimit {
			utils.JSONError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer between 1 and 100")
			return
		}
		opts.Limit = limit
	}

	items, total, err := h.repo.List(r.Context(), filter, opts)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	ids := make([]string, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.CategoryID)
	}
	cats, err := h.categories.Lookup(r.Context(), ids)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	out := make([]models.ChallengeResponse, 0, len(items))
	for i := range items {
		out = append(out, models.NewChallengeResponse(&items[i], cats[items[i].CategoryID]))
	}
	totalPages, hasNext, hasPrev := models.CalculatePaginationMeta(opts.Page, opts.Limit, int(total))
	utils.JSON(w, http.StatusOK, models.ChallengesResponse{
		Total:      int(total),
		Items:      out,
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalPages: totalPages,
		HasNext:    hasNext,
		HasPrev:    hasPrev,
	})
}

// GET /challenges/random?category=&difficulty=
func (h *ChallengeHandler) RandomChallengeHandler(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	c, err := h.engine.SelectRandom(r.Context(), filter)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.Selection(metrics.ResultNotFound)
			utils.JSONError(w, http.StatusNotFound, "no_challenges", "No challenges match the given filters")
			return
		}
		metrics.Selection(metrics.ResultError)
		writeError(w, h.logger, err, "")
		return
	}
	metrics.Selection(metrics.ResultOK)
	h.respond(w, r, http.StatusOK, c)
}

func (h *ChallengeHandler) GetChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "Challenge not found")
		return
	}
	h.respond(w, r, http.StatusOK, c)
}

// activeCategory fails with ErrCategoryInactive unless id names an active category.
func (h *ChallengeHandler) activeCategory(r *http.Request, id string) error {
	cat, err := h.categories.Get(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) || (err == nil && !cat.IsActive) {
		return models.ErrCategoryInactive
	}
	return err
}

func (h *ChallengeHandler) CreateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateChallengeRequest](r)
	if err := h.activeCategory(r, req.CategoryID); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	var createdBy string
	if user := middleware.UserFromContext(r.Context()); user != nil {
		createdBy = user.ID
	}
	c := req.NewChallenge(uuid.NewString(), createdBy, time.Now().UTC())
	if err := h.repo.Create(r.Context(), c); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.Header().Set("Location", "/api/v1/challenges/"+c.ID)
	h.respond(w, r, http.StatusCreated, c)
}

func (h *ChallengeHandler) UpdateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.UpdateChallengeRequest](r)
	if req.CategoryID != nil {
		if err := h.activeCategory(r, *req.CategoryID); err != nil {
			writeError(w, h.logger, err, "")
			return
		}
	}
	c, err := h.repo.Update(r.Context(), id, req.Patch())
	if err != nil {
		writeError(w, h.logger, err, "Challenge not found")
		return
	}
	h.respond(w, r, http.StatusOK, c)
}

func (h *ChallengeHandler) DeleteChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.SoftDelete(r.Context(), id); err != nil {
		writeError(w, h.logger, err, "Challenge not found")
		return
	}
	utils.JSON(w, http.StatusOK, models.MessageResponse{Message: "Challenge deleted"})
}

// POST /challenges/{id}/rate
func (h *ChallengeHandler) RateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.RatingRequest](r)
	c, err := h.tracker.RateChallenge(r.Context(), id, req.Rating)
	if err != nil {
		writeError(w, h.logger, err, "Challenge not found")
		return
	}
	metrics.Rating(metrics.SourceDirect)
	utils.JSON(w, http.StatusOK, models.RatingResponse{AverageRating: c.AverageRating(), RatingCount: c.RatingCount})
}

// POST /challenges/{id}/complete
//
// The challenge id is a weak reference: completing a challenge that was
// since deleted is still recorded, it just receives no rating.
func (h *ChallengeHandler) CompleteChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user := middleware.UserFromContext(r.Context())
	req := middleware.GetValidatedRequest[*models.CompleteRequest](r)

	res, err := h.tracker.CompleteChallenge(r.Context(), user.ID, id, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyCompletedToday):
			metrics.Completion(metrics.ResultDuplicate)
		case errors.Is(err, models.ErrNotFound):
			metrics.Completion(metrics.ResultNotFound)
		default:
			metrics.Completion(metrics.ResultError)
		}
		writeError(w, h.logger, err, "User not found")
		return
	}
	metrics.Completion(metrics.ResultOK)

	switch {
	case res.RatingApplied:
		metrics.Rating(metrics.SourceCompletion)
	case res.ReferenceMissing:
		h.logger.Info("completion rating skipped, challenge no longer exists",
			zap.String("challenge_id", id), zap.String("user_id", user.ID))
	case res.RatingErr != nil:
		h.logger.Warn("completion stored but rating not applied",
			zap.String("challenge_id", id), zap.String("user_id", user.ID), zap.Error(res.RatingErr))
	}

	utils.JSON(w, http.StatusOK, models.CompletionResponse{
		Entry:         res.Entry,
		Stats:         res.Stats,
		RatingApplied: res.RatingApplied,
	})
}
