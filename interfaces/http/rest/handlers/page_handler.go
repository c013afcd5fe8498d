package handlers

import (
	"net/http"
	"strconv"

	"warrantboard/application/session"
	"warrantboard/pkg/common"
	pkgerrors "warrantboard/pkg/errors"
	"warrantboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PageHandler handles pages, unlocks and skill points.
type PageHandler struct {
	manager *session.Manager
	logger  *zap.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(manager *session.Manager, logger *zap.Logger) *PageHandler {
	return &PageHandler{manager: manager, logger: logger}
}

// CreatePageRequest represents the request body for creating a page
type CreatePageRequest struct {
	Name string `json:"name,omitempty" validate:"max=64"`
}

// GrantPointsRequest represents the request body for granting points
type GrantPointsRequest struct {
	Amount int `json:"amount" validate:"min=1,max=1000"`
}

// UnlockCheckResponse explains whether a node can be unlocked.
type UnlockCheckResponse struct {
	NodeID    string `json:"nodeId"`
	CanUnlock bool   `json:"canUnlock"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
}

// UnlockResponse is returned after a successful unlock.
type UnlockResponse struct {
	NodeID      string `json:"nodeId"`
	SkillPoints int    `json:"skillPoints"`
}

// GetState handles GET /state
func (h *PageHandler) GetState(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	state, err := h.manager.State(r.Context(), player)
	if err != nil {
		respondError(w, h.logger, "state", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, state)
}

// CreatePage handles POST /pages
func (h *PageHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	var req CreatePageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		badRequest(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		badRequest(w, err)
		return
	}

	snap, err := h.manager.CreatePage(r.Context(), player, req.Name)
	if err != nil {
		respondError(w, h.logger, "create_page", err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, snap)
}

// SwitchPage handles POST /pages/{index}/activate
func (h *PageHandler) SwitchPage(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, common.CodeBadRequest, "Page index must be a number")
		return
	}
	if err := h.manager.SwitchPage(r.Context(), player, index); err != nil {
		respondError(w, h.logger, "switch_page", err)
		return
	}
	h.GetState(w, r)
}

// CheckUnlock handles GET /nodes/{nodeID}/unlock
func (h *PageHandler) CheckUnlock(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")

	resp := UnlockCheckResponse{NodeID: nodeID, CanUnlock: true}
	if err := h.manager.CanUnlock(r.Context(), player, nodeID); err != nil {
		appErr := pkgerrors.GetAppError(err)
		if appErr == nil || appErr.Code == "" {
			respondError(w, h.logger, "can_unlock", err)
			return
		}
		resp.CanUnlock = false
		resp.Reason = appErr.Code
		resp.Message = appErr.Message
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// Unlock handles POST /nodes/{nodeID}/unlock
func (h *PageHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	left, err := h.manager.TryUnlock(r.Context(), player, nodeID)
	if err != nil {
		respondError(w, h.logger, "unlock", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, UnlockResponse{NodeID: nodeID, SkillPoints: left})
}

// GrantPoints handles POST /points
func (h *PageHandler) GrantPoints(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	var req GrantPointsRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		badRequest(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		badRequest(w, err)
		return
	}

	total, err := h.manager.GrantPoints(r.Context(), player, req.Amount)
	if err != nil {
		respondError(w, h.logger, "grant_points", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{"skillPoints": total})
}

// Save handles POST /save
func (h *PageHandler) Save(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	if err := h.manager.Save(r.Context(), player); err != nil {
		respondError(w, h.logger, "save", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
