package handlers

import (
	"net/http"

	"warrantboard/application/session"
	"warrantboard/pkg/common"
	"warrantboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemHandler handles the inventory, sockets, rolling and fusion.
type ItemHandler struct {
	manager *session.Manager
	logger  *zap.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(manager *session.Manager, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{manager: manager, logger: logger}
}

// AssignRequest represents the request body for socketing an item
type AssignRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}

// ListItems handles GET /items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	items, err := h.manager.Inventory(r.Context(), player)
	if err != nil {
		respondError(w, h.logger, "inventory", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, items)
}

// ListBlueprints handles GET /blueprints
func (h *ItemHandler) ListBlueprints(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.manager.Database().Blueprints())
}

// Roll handles POST /items/roll
func (h *ItemHandler) Roll(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	var req session.RollRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		badRequest(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		badRequest(w, err)
		return
	}

	inst, err := h.manager.Roll(r.Context(), player, req)
	if err != nil {
		respondError(w, h.logger, "roll", err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, inst)
}

// Fuse handles POST /items/fuse
func (h *ItemHandler) Fuse(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	var req session.FuseRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		badRequest(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		badRequest(w, err)
		return
	}

	inst, err := h.manager.Fuse(r.Context(), player, req)
	if err != nil {
		respondError(w, h.logger, "fuse", err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, inst)
}

// Assign handles PUT /sockets/{nodeID}
func (h *ItemHandler) Assign(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	var req AssignRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		badRequest(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		badRequest(w, err)
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	if err := h.manager.Assign(r.Context(), player, nodeID, req.ItemID); err != nil {
		respondError(w, h.logger, "assign", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"nodeId": nodeID, "itemId": req.ItemID})
}

// Unassign handles DELETE /sockets/{nodeID}
func (h *ItemHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	itemID, err := h.manager.Unassign(r.Context(), player, nodeID)
	if err != nil {
		respondError(w, h.logger, "unassign", err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"nodeId": nodeID, "itemId": itemID})
}
