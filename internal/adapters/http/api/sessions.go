package api

import (
	"net/http"
)

type openSessionRequest struct {
	EventID string `json:"event_id" validate:"required,max=16"`
}

type assignRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// SessionsHandler serves session lifecycle, roster, staging, assignment
// and commit requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleOpen handles POST /sessions.
func (h *SessionsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_session"
	var req openSessionRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.OpenSession(r.Context(), req.EventID, organizer(r))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{sid}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Session(r.Context(), r.PathValue("sid"))
	if err != nil {
		writeFailure(w, Wrap("api.get_session", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleClose handles DELETE /sessions/{sid}.
func (h *SessionsHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.CloseSession(r.Context(), r.PathValue("sid")); err != nil {
		writeFailure(w, Wrap("api.close_session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRoster handles GET /sessions/{sid}/roster?q=&role=.
func (h *SessionsHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.deps.Roster(r.Context(), r.PathValue("sid"), q.Get("q"), q.Get("role"))
	if err != nil {
		writeFailure(w, Wrap("api.roster", err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleToggleStaging handles POST /sessions/{sid}/staging/{cid}.
func (h *SessionsHandler) HandleToggleStaging(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.ToggleStaging(r.Context(), r.PathValue("sid"), r.PathValue("cid"))
	if err != nil {
		writeFailure(w, Wrap("api.toggle_staging", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleAssign handles POST /sessions/{sid}/assign.
func (h *SessionsHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign"
	var req assignRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Assign(r.Context(), r.PathValue("sid"), req.GroupID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleCommit handles POST /sessions/{sid}/commit.
func (h *SessionsHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Commit(r.Context(), r.PathValue("sid"))
	if err != nil {
		writeFailure(w, Wrap("api.commit", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
