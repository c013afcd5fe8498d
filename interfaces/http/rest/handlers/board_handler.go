package handlers

import (
	"net/http"

	"warrantboard/application/session"
	"warrantboard/pkg/common"

	"go.uber.org/zap"
)

// BoardHandler serves the built board.
type BoardHandler struct {
	manager *session.Manager
	logger  *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(manager *session.Manager, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{manager: manager, logger: logger}
}

// GetBoard handles GET /board
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	b, err := h.manager.Board(r.Context(), player)
	if err != nil {
		respondError(w, h.logger, "board", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, b)
}

// RebuildBoard handles POST /board/rebuild
func (h *BoardHandler) RebuildBoard(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	b, err := h.manager.BuildGraph(r.Context(), player)
	if err != nil {
		respondError(w, h.logger, "build_graph", err)
		return
	}
	common.RespondWithMeta(w, r, http.StatusOK, b)
}
