// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/pooldraft/internal/adapters/repository"
	service "github.com/okian/pooldraft/internal/app"
	"github.com/okian/pooldraft/internal/domain/commit"
	"github.com/okian/pooldraft/internal/domain/curation"
	"github.com/okian/pooldraft/internal/domain/guard"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/types"
	"github.com/okian/pooldraft/internal/domain/validate"
)

// OrganizerHeader carries the acting organizer id. It is trusted as given.
const OrganizerHeader = "X-Organizer-ID"

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateEvent(ctx context.Context, hostID string) (model.Event, error)

	OpenSession(ctx context.Context, eventID, hostID string) (types.SessionView, error)
	Session(ctx context.Context, sessionID string) (types.SessionView, error)
	CloseSession(ctx context.Context, sessionID string) error
	Roster(ctx context.Context, sessionID, search, role string) ([]types.RosterEntry, error)

	ToggleStaging(ctx context.Context, sessionID, candidateID string) (types.SessionView, error)
	Assign(ctx context.Context, sessionID, groupID string) (types.SessionView, error)
	Unassign(ctx context.Context, sessionID, candidateID string) (types.SessionView, error)
	Reassign(ctx context.Context, sessionID, candidateID, groupID string) (types.SessionView, error)
	Edit(ctx context.Context, sessionID, candidateID, rawScore, rawPrice string) (types.SessionView, error)

	AddGroup(ctx context.Context, sessionID, name string) (types.SessionView, error)
	RenameGroup(ctx context.Context, sessionID, groupID, name string) (types.SessionView, error)
	ToggleCollapse(ctx context.Context, sessionID, groupID string) (types.SessionView, error)
	DeleteGroup(ctx context.Context, sessionID, groupID string) (types.SessionView, error)
	MoveGroup(ctx context.Context, sessionID, sourceID, targetID string) (types.SessionView, error)

	Commit(ctx context.Context, sessionID string) (types.CommitResult, error)
}

// Server wires HTTP routes for the curation API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	eventsHandler     *EventsHandler
	sessionsHandler   *SessionsHandler
	groupsHandler     *GroupsHandler
	candidatesHandler *CandidatesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		eventsHandler:     NewEventsHandler(deps),
		sessionsHandler:   NewSessionsHandler(deps),
		groupsHandler:     NewGroupsHandler(deps),
		candidatesHandler: NewCandidatesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	for _, rt := range s.routes() {
		mux.HandleFunc(rt.pattern, instrument(rt.endpoint, rt.handler))
	}
}

func (s *Server) routes() []route {
	sh, ch, gh := s.sessionsHandler, s.candidatesHandler, s.groupsHandler
	return []route{
		{"GET /healthz", "healthz", s.healthHandler.HandleHealth},
		{"GET /stats", "stats", s.statsHandler.HandleStats},
		{"POST /events", "events", s.eventsHandler.HandleCreateEvent},

		{"POST /sessions", "sessions", sh.HandleOpen},
		{"GET /sessions/{sid}", "session", sh.HandleGet},
		{"DELETE /sessions/{sid}", "session", sh.HandleClose},
		{"GET /sessions/{sid}/roster", "roster", sh.HandleRoster},
		{"POST /sessions/{sid}/staging/{cid}", "staging", sh.HandleToggleStaging},
		{"POST /sessions/{sid}/assign", "assign", sh.HandleAssign},
		{"POST /sessions/{sid}/commit", "commit", sh.HandleCommit},

		{"DELETE /sessions/{sid}/candidates/{cid}", "candidate", ch.HandleUnassign},
		{"PUT /sessions/{sid}/candidates/{cid}", "candidate", ch.HandleEdit},
		{"POST /sessions/{sid}/candidates/{cid}/move", "candidate_move", ch.HandleMove},

		{"POST /sessions/{sid}/groups", "groups", gh.HandleAdd},
		{"POST /sessions/{sid}/groups/reorder", "groups_reorder", gh.HandleReorder},
		{"PATCH /sessions/{sid}/groups/{gid}", "group", gh.HandleUpdate},
		{"DELETE /sessions/{sid}/groups/{gid}", "group", gh.HandleDelete},
	}
}

// decode reads a JSON body into v and runs its validate tags. An empty
// body decodes as the zero value.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func organizer(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(OrganizerHeader))
}

type errorResponse struct {
	Code       string               `json:"code"`
	Message    string               `json:"message"`
	Violations []validate.Violation `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		resp.Violations = verr.Violations
	}
	writeJSON(w, status, resp)
}

// writeFailure maps a domain error to its status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, validate.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, validate.ErrInputRange):
		return http.StatusBadRequest, "input_out_of_range"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrNoOrganizer),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, curation.ErrStagingEmpty):
		return http.StatusBadRequest, "staging_empty"
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, curation.ErrGroupNotFound),
		errors.Is(err, curation.ErrNotCurated):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, commit.ErrCommitInFlight):
		return http.StatusConflict, "commit_in_flight"
	case errors.Is(err, curation.ErrAlreadyCurated):
		return http.StatusConflict, "already_curated"
	case errors.Is(err, commit.ErrTransient),
		errors.Is(err, service.ErrHydration),
		errors.Is(err, guard.ErrCapacity),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "transient"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
