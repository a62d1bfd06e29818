package service

import (
	"sync"
	"time"

	"github.com/okian/pooldraft/internal/domain/curation"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/roster"
	"github.com/okian/pooldraft/internal/domain/types"
)

// session is one organizer's editing session over one event. Its mutex
// serialises every operation.
type session struct {
	mu sync.Mutex

	id      string
	eventID string
	hostID  string
	event   model.Event

	store   *curation.Store
	staging curation.Staging
	roster  *roster.Cache

	lastUsed time.Time
	now      func() time.Time
}

// touch must be called with mu held.
func (s *session) touch() {
	s.lastUsed = s.now()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *session) close() {
	s.roster.Close()
}

// view must be called with mu held.
func (s *session) view() types.SessionView {
	state := s.store.State()
	groups := state.Groups()

	out := types.SessionView{
		SessionID:     s.id,
		EventID:       s.eventID,
		HostID:        s.hostID,
		EventStatus:   s.event.Status,
		Settings:      s.event.Settings,
		Groups:        make([]types.GroupView, len(groups)),
		Staged:        s.staging.IDs(),
		CuratedCount:  state.CuratedCount(),
		RosterVersion: s.roster.Version(),
		RosterReady:   s.roster.Ready(),
	}
	if out.Staged == nil {
		out.Staged = []string{}
	}
	for i, g := range groups {
		members := make([]types.OverrideView, 0, len(g.MemberIDs))
		for _, id := range g.MemberIDs {
			o, _ := state.Override(id)
			members = append(members, types.OverrideView{
				CandidateID: o.CandidateID,
				Name:        o.Name,
				Role:        o.Role,
				SkillScore:  o.SkillScore,
				BasePrice:   o.BasePrice,
			})
		}
		out.Groups[i] = types.GroupView{
			ID:        g.ID,
			Name:      g.Name,
			Order:     g.Order,
			Collapsed: g.Collapsed,
			Members:   members,
		}
	}
	return out
}
