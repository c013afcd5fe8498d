package handlers

import (
	"net/http"

	"warrantboard/application/session"
	"warrantboard/pkg/common"

	"go.uber.org/zap"
)

// StatsHandler exposes the modifiers granted by the active page.
type StatsHandler struct {
	manager *session.Manager
	logger  *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(manager *session.Manager, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{manager: manager, logger: logger}
}

// Modifiers handles GET /modifiers
func (h *StatsHandler) Modifiers(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	mods, err := h.manager.CollectModifiers(r.Context(), player)
	if err != nil {
		respondError(w, h.logger, "collect_modifiers", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, mods)
}

// Summary handles GET /summary
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	summary, err := h.manager.Summary(r.Context(), player)
	if err != nil {
		respondError(w, h.logger, "summary", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, summary)
}
