package api

import (
	"context"
	"net/http"

	"github.com/okian/pooldraft/internal/domain/model"
)

// EventDependencies defines the interface for event creation.
type EventDependencies interface {
	CreateEvent(ctx context.Context, hostID string) (model.Event, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleCreateEvent handles POST /events. The organizer header names the host.
func (h *EventsHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	host := organizer(r)
	if host == "" {
		writeFailure(w, NewKind(op, ErrNoOrganizer))
		return
	}
	ev, err := h.deps.CreateEvent(r.Context(), host)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}
