package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/security/middleware"
	"github.com/yourorg/dataplane/internal/service"
)

// StatsHandler serves dashboard and analytics aggregates
type StatsHandler struct {
	statsService *service.StatsService
	logger       *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{statsService: statsService, logger: logger}
}

// Dashboard handles GET /api/stats
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}

	stats, err := h.statsService.Dashboard(r.Context(), *principal)
	if err != nil {
		apperror.Write(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Analytics handles GET /api/analytics
func (h *StatsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}

	overview, err := h.statsService.Analytics(r.Context(), *principal)
	if err != nil {
		apperror.Write(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
