package api

import (
	"net/http"

	"github.com/okian/pooldraft/internal/domain/types"
)

type addGroupRequest struct {
	Name string `json:"name" validate:"max=64"`
}

type updateGroupRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=64"`
	ToggleCollapse bool    `json:"toggle_collapse"`
}

type reorderRequest struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
}

// GroupsHandler serves group management requests.
type GroupsHandler struct {
	deps Dependencies
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps Dependencies) *GroupsHandler {
	return &GroupsHandler{deps: deps}
}

// HandleAdd handles POST /sessions/{sid}/groups.
func (h *GroupsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_group"
	var req addGroupRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.AddGroup(r.Context(), r.PathValue("sid"), req.Name)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleUpdate handles PATCH /sessions/{sid}/groups/{gid}. A name renames
// the group; toggle_collapse flips its display flag.
func (h *GroupsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_group"
	var req updateGroupRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sid, gid := r.PathValue("sid"), r.PathValue("gid")

	var (
		view types.SessionView
		err  error
	)
	if req.Name != nil {
		if view, err = h.deps.RenameGroup(r.Context(), sid, gid, *req.Name); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
	}
	if req.ToggleCollapse {
		if view, err = h.deps.ToggleCollapse(r.Context(), sid, gid); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
	}
	if req.Name == nil && !req.ToggleCollapse {
		if view, err = h.deps.Session(r.Context(), sid); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /sessions/{sid}/groups/{gid}.
func (h *GroupsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.DeleteGroup(r.Context(), r.PathValue("sid"), r.PathValue("gid"))
	if err != nil {
		writeFailure(w, Wrap("api.delete_group", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleReorder handles POST /sessions/{sid}/groups/reorder.
func (h *GroupsHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	const op = "api.reorder_groups"
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.MoveGroup(r.Context(), r.PathValue("sid"), req.SourceID, req.TargetID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
