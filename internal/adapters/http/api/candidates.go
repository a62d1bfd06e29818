package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// editRequest accepts score and price as JSON numbers or strings; both are
// passed on verbatim so the domain decides how to parse them.
type editRequest struct {
	Score json.RawMessage `json:"score" validate:"required"`
	Price json.RawMessage `json:"price"`
}

type moveRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// rawText returns a JSON scalar as text: strings are unquoted, other
// literals are returned as written and null becomes empty.
func rawText(m json.RawMessage) string {
	trimmed := strings.TrimSpace(string(m))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return trimmed
}

// CandidatesHandler serves per-candidate curation requests.
type CandidatesHandler struct {
	deps Dependencies
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(deps Dependencies) *CandidatesHandler {
	return &CandidatesHandler{deps: deps}
}

// HandleUnassign handles DELETE /sessions/{sid}/candidates/{cid}.
func (h *CandidatesHandler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Unassign(r.Context(), r.PathValue("sid"), r.PathValue("cid"))
	if err != nil {
		writeFailure(w, Wrap("api.unassign", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleEdit handles PUT /sessions/{sid}/candidates/{cid}.
func (h *CandidatesHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit"
	var req editRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Edit(r.Context(), r.PathValue("sid"), r.PathValue("cid"), rawText(req.Score), rawText(req.Price))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleMove handles POST /sessions/{sid}/candidates/{cid}/move.
func (h *CandidatesHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	const op = "api.move_candidate"
	var req moveRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Reassign(r.Context(), r.PathValue("sid"), r.PathValue("cid"), req.GroupID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
