package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pooldraft/internal/adapters/http/api"
	"github.com/okian/pooldraft/internal/adapters/repository"
	service "github.com/okian/pooldraft/internal/app"
	"github.com/okian/pooldraft/internal/domain/commit"
	"github.com/okian/pooldraft/internal/domain/curation"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/types"
	"github.com/okian/pooldraft/internal/domain/validate"
)

// mockDependencies records the last call and returns canned results.
type mockDependencies struct {
	err   error
	view  types.SessionView
	calls []string
	args  []string
}

func (m *mockDependencies) record(name string, args ...string) {
	m.calls = append(m.calls, name)
	m.args = args
}

func (m *mockDependencies) last() string {
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

func (m *mockDependencies) CreateEvent(ctx context.Context, hostID string) (model.Event, error) {
	m.record("CreateEvent", hostID)
	if m.err != nil {
		return model.Event{}, m.err
	}
	return model.Event{ID: "ABC123", HostID: hostID, Status: model.EventLobby}, nil
}

func (m *mockDependencies) OpenSession(ctx context.Context, eventID, hostID string) (types.SessionView, error) {
	m.record("OpenSession", eventID, hostID)
	return m.view, m.err
}

func (m *mockDependencies) Session(ctx context.Context, sessionID string) (types.SessionView, error) {
	m.record("Session", sessionID)
	return m.view, m.err
}

func (m *mockDependencies) CloseSession(ctx context.Context, sessionID string) error {
	m.record("CloseSession", sessionID)
	return m.err
}

func (m *mockDependencies) Roster(ctx context.Context, sessionID, search, role string) ([]types.RosterEntry, error) {
	m.record("Roster", sessionID, search, role)
	if m.err != nil {
		return nil, m.err
	}
	return []types.RosterEntry{{Candidate: model.Candidate{ID: "p1", Name: "Aditya"}}}, nil
}

func (m *mockDependencies) ToggleStaging(ctx context.Context, sessionID, candidateID string) (types.SessionView, error) {
	m.record("ToggleStaging", sessionID, candidateID)
	return m.view, m.err
}

func (m *mockDependencies) Assign(ctx context.Context, sessionID, groupID string) (types.SessionView, error) {
	m.record("Assign", sessionID, groupID)
	return m.view, m.err
}

func (m *mockDependencies) Unassign(ctx context.Context, sessionID, candidateID string) (types.SessionView, error) {
	m.record("Unassign", sessionID, candidateID)
	return m.view, m.err
}

func (m *mockDependencies) Reassign(ctx context.Context, sessionID, candidateID, groupID string) (types.SessionView, error) {
	m.record("Reassign", sessionID, candidateID, groupID)
	return m.view, m.err
}

func (m *mockDependencies) Edit(ctx context.Context, sessionID, candidateID, rawScore, rawPrice string) (types.SessionView, error) {
	m.record("Edit", sessionID, candidateID, rawScore, rawPrice)
	return m.view, m.err
}

func (m *mockDependencies) AddGroup(ctx context.Context, sessionID, name string) (types.SessionView, error) {
	m.record("AddGroup", sessionID, name)
	return m.view, m.err
}

func (m *mockDependencies) RenameGroup(ctx context.Context, sessionID, groupID, name string) (types.SessionView, error) {
	m.record("RenameGroup", sessionID, groupID, name)
	return m.view, m.err
}

func (m *mockDependencies) ToggleCollapse(ctx context.Context, sessionID, groupID string) (types.SessionView, error) {
	m.record("ToggleCollapse", sessionID, groupID)
	return m.view, m.err
}

func (m *mockDependencies) DeleteGroup(ctx context.Context, sessionID, groupID string) (types.SessionView, error) {
	m.record("DeleteGroup", sessionID, groupID)
	return m.view, m.err
}

func (m *mockDependencies) MoveGroup(ctx context.Context, sessionID, sourceID, targetID string) (types.SessionView, error) {
	m.record("MoveGroup", sessionID, sourceID, targetID)
	return m.view, m.err
}

func (m *mockDependencies) Commit(ctx context.Context, sessionID string) (types.CommitResult, error) {
	m.record("Commit", sessionID)
	if m.err != nil {
		return types.CommitResult{}, m.err
	}
	return types.CommitResult{EventID: "ABC123", Groups: 2, Overrides: 5}, nil
}

type mockStatsProvider struct {
	stats types.ServiceStats
}

func (m *mockStatsProvider) Stats() types.ServiceStats {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: types.ServiceStats{Started: true, Sessions: 1}}).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set(api.OrganizerHeader, "host-1")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{view: types.SessionView{SessionID: "s1"}}
		mux := newMux(deps)

		Convey("Health and stats are served", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)

			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"sessions":1`)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Each session route reaches its dependency", func() {
			cases := []struct {
				method, path, body, call string
				status                   int
			}{
				{http.MethodPost, "/sessions", `{"event_id":"ABC123"}`, "OpenSession", http.StatusCreated},
				{http.MethodGet, "/sessions/s1", "", "Session", http.StatusOK},
				{http.MethodDelete, "/sessions/s1", "", "CloseSession", http.StatusNoContent},
				{http.MethodGet, "/sessions/s1/roster?q=adi&role=batsman", "", "Roster", http.StatusOK},
				{http.MethodPost, "/sessions/s1/staging/p1", "", "ToggleStaging", http.StatusOK},
				{http.MethodPost, "/sessions/s1/assign", `{"group_id":"g1"}`, "Assign", http.StatusOK},
				{http.MethodPost, "/sessions/s1/commit", "", "Commit", http.StatusOK},
				{http.MethodDelete, "/sessions/s1/candidates/p1", "", "Unassign", http.StatusOK},
				{http.MethodPut, "/sessions/s1/candidates/p1", `{"score":80,"price":"1.5"}`, "Edit", http.StatusOK},
				{http.MethodPost, "/sessions/s1/candidates/p1/move", `{"group_id":"g2"}`, "Reassign", http.StatusOK},
				{http.MethodPost, "/sessions/s1/groups", `{}`, "AddGroup", http.StatusCreated},
				{http.MethodPost, "/sessions/s1/groups/reorder", `{"source_id":"g2","target_id":"g1"}`, "MoveGroup", http.StatusOK},
				{http.MethodPatch, "/sessions/s1/groups/g1", `{"name":"Marquee"}`, "RenameGroup", http.StatusOK},
				{http.MethodPatch, "/sessions/s1/groups/g1", `{"toggle_collapse":true}`, "ToggleCollapse", http.StatusOK},
				{http.MethodDelete, "/sessions/s1/groups/g1", "", "DeleteGroup", http.StatusOK},
			}
			for _, tc := range cases {
				w := do(mux, tc.method, tc.path, tc.body)
				So(fmt.Sprintf("%s %s -> %d", tc.method, tc.path, w.Code), ShouldEqual,
					fmt.Sprintf("%s %s -> %d", tc.method, tc.path, tc.status))
				So(deps.last(), ShouldEqual, tc.call)
			}
		})

		Convey("Unknown routes are not found", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given the events endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("The organizer header becomes the host", func() {
			w := do(mux, http.MethodPost, "/events", "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(deps.args, ShouldResemble, []string{"host-1"})
			So(w.Body.String(), ShouldContainSubstring, `"id":"ABC123"`)
		})

		Convey("A missing organizer is a bad request", func() {
			req := httptest.NewRequest(http.MethodPost, "/events", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.calls, ShouldBeEmpty)
		})
	})
}

func TestRequestDecoding(t *testing.T) {
	Convey("Given handlers that read JSON bodies", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("A missing required field is rejected before the service", func() {
			w := do(mux, http.MethodPost, "/sessions/s1/assign", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
			So(deps.calls, ShouldBeEmpty)
		})

		Convey("Unknown fields are rejected", func() {
			w := do(mux, http.MethodPost, "/sessions", `{"event_id":"ABC123","extra":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Malformed JSON is rejected", func() {
			w := do(mux, http.MethodPost, "/sessions/s1/groups/reorder", `{"source_id":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Edit values reach the service as text", func() {
			w := do(mux, http.MethodPut, "/sessions/s1/candidates/p1", `{"score":"85","price":2.25}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.args, ShouldResemble, []string{"s1", "p1", "85", "2.25"})
		})

		Convey("A null price is passed as empty", func() {
			do(mux, http.MethodPut, "/sessions/s1/candidates/p1", `{"score":10,"price":null}`)
			So(deps.args, ShouldResemble, []string{"s1", "p1", "10", ""})
		})

		Convey("Roster filters come from the query string", func() {
			do(mux, http.MethodGet, "/sessions/s1/roster?q=kumar&role=bowler", "")
			So(deps.args, ShouldResemble, []string{"s1", "kumar", "bowler"})
		})

		Convey("A patch with a name and a toggle applies both", func() {
			w := do(mux, http.MethodPatch, "/sessions/s1/groups/g1", `{"name":"Openers","toggle_collapse":true}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.calls, ShouldResemble, []string{"RenameGroup", "ToggleCollapse"})
		})

		Convey("An empty patch returns the session unchanged", func() {
			do(mux, http.MethodPatch, "/sessions/s1/groups/g1", `{}`)
			So(deps.calls, ShouldResemble, []string{"Session"})
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given a service that fails", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{&validate.ValidationError{Violations: []validate.Violation{{Kind: validate.KindEmptyGroup, GroupID: "g1", Message: "empty"}}}, http.StatusUnprocessableEntity, "validation_failed"},
			{&validate.InputRangeError{Field: "skill_score", Value: "150", Max: 100}, http.StatusBadRequest, "input_out_of_range"},
			{curation.ErrStagingEmpty, http.StatusBadRequest, "staging_empty"},
			{service.ErrInvalidRole, http.StatusBadRequest, "bad_request"},
			{service.ErrSessionNotFound, http.StatusNotFound, "not_found"},
			{fmt.Errorf("get event: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
			{curation.ErrGroupNotFound, http.StatusNotFound, "not_found"},
			{commit.ErrCommitInFlight, http.StatusConflict, "commit_in_flight"},
			{curation.ErrAlreadyCurated, http.StatusConflict, "already_curated"},
			{fmt.Errorf("commit: %w: %w", commit.ErrTransient, context.DeadlineExceeded), http.StatusServiceUnavailable, "transient"},
			{fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
		}

		for _, tc := range cases {
			Convey(fmt.Sprintf("%v maps to %d %s", tc.err, tc.status, tc.code), func() {
				mux := newMux(&mockDependencies{err: tc.err})
				w := do(mux, http.MethodPost, "/sessions/s1/commit", "")
				So(w.Code, ShouldEqual, tc.status)
				So(decodeError(w)["code"], ShouldEqual, tc.code)
			})
		}

		Convey("Validation failures list every violation", func() {
			verr := &validate.ValidationError{Violations: []validate.Violation{
				{Kind: validate.KindEmptyGroup, GroupID: "g1", GroupName: "Pool 1", Message: "group Pool 1 is empty"},
				{Kind: validate.KindEmptyGroup, GroupID: "g2", GroupName: "Pool 2", Message: "group Pool 2 is empty"},
			}}
			mux := newMux(&mockDependencies{err: verr})
			w := do(mux, http.MethodPost, "/sessions/s1/commit", "")

			var body struct {
				Violations []validate.Violation `json:"violations"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Violations, ShouldHaveLength, 2)
			So(body.Violations[1].GroupID, ShouldEqual, "g2")
		})
	})
}
