package smoke

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/types"
)

// verifyHydration reopens the event in a fresh session and checks that the
// committed groups, member order and edited override came back unchanged.
func verifyHydration(ctx context.Context, c *client, eventID string, committed types.SessionView, edited string) error {
	var reopened types.SessionView
	if err := c.do(ctx, http.MethodPost, "/sessions", map[string]string{"event_id": eventID}, http.StatusCreated, &reopened); err != nil {
		return err
	}
	defer func() {
		_ = c.do(context.WithoutCancel(ctx), http.MethodDelete, "/sessions/"+reopened.SessionID, nil, http.StatusNoContent, nil)
	}()

	if err := compareGroups(committed.Groups, reopened.Groups); err != nil {
		return err
	}
	if reopened.EventStatus != model.EventReady {
		return fmt.Errorf("%w: event status %q", ErrMismatch, reopened.EventStatus)
	}
	for _, m := range reopened.Groups[0].Members {
		if m.CandidateID == edited && m.SkillScore != editedScore {
			return fmt.Errorf("%w: %s score %d, want %d", ErrMismatch, edited, m.SkillScore, editedScore)
		}
	}
	return nil
}

func compareGroups(want, got []types.GroupView) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: %d groups, want %d", ErrMismatch, len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.ID != g.ID || w.Name != g.Name {
			return fmt.Errorf("%w: group %d is %s/%q, want %s/%q", ErrMismatch, i, g.ID, g.Name, w.ID, w.Name)
		}
		if len(w.Members) != len(g.Members) {
			return fmt.Errorf("%w: group %s has %d members, want %d", ErrMismatch, w.ID, len(g.Members), len(w.Members))
		}
		for j := range w.Members {
			if w.Members[j].CandidateID != g.Members[j].CandidateID {
				return fmt.Errorf("%w: group %s member %d is %s, want %s",
					ErrMismatch, w.ID, j, g.Members[j].CandidateID, w.Members[j].CandidateID)
			}
		}
	}
	return nil
}
