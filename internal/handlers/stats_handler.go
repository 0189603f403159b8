package handlers

import (
	"net/http"
	"time"

	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/services"
	"randomchallenge/api/internal/utils"

	"go.uber.org/zap"
)

type StatsHandler struct {
	stats  *services.StatsService
	loc    *time.Location
	logger *zap.Logger
}

// NewStatsHandler serves statistics; loc places completions on weekdays.
func NewStatsHandler(stats *services.StatsService, loc *time.Location, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, loc: loc, logger: logger}
}

func (h *StatsHandler) GeneralStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.General(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) UserStatsHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.stats.UserReport(r.Context(), middleware.UserFromContext(r.Context()), h.loc)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
