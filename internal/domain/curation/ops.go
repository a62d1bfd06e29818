package curation

import (
	"fmt"
	"strings"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/ordering"
	"github.com/okian/pooldraft/internal/domain/validate"
)

// CandidateLookup resolves master roster records by id.
type CandidateLookup interface {
	Get(id string) (model.Candidate, bool)
}

// Assign curates every id in ids that is not already curated and is known
// to the roster, seeding its override from the master score and price, and
// appends it to the group. It returns the ids that were newly assigned.
func Assign(s State, ids []string, groupID string, roster CandidateLookup) (State, []string, error) {
	if len(ids) == 0 {
		return s, nil, ErrStagingEmpty
	}
	gi := s.groupIndex(groupID)
	if gi < 0 {
		return s, nil, fmt.Errorf("assign to %q: %w", groupID, ErrGroupNotFound)
	}

	next := s.clone()
	var added []string
	for _, id := range ids {
		if next.Curated(id) {
			continue
		}
		c, ok := roster.Get(id)
		if !ok {
			continue
		}
		next.overrides[id] = model.Override{
			CandidateID: id,
			GroupID:     groupID,
			Name:        c.Name,
			Role:        c.Role,
			SkillScore:  c.SkillScore,
			BasePrice:   c.BasePrice,
		}
		if !next.groups[gi].HasMember(id) {
			next.groups[gi].MemberIDs = append(next.groups[gi].MemberIDs, id)
		}
		added = append(added, id)
	}
	return next, added, nil
}

// Unassign drops a candidate's override and group membership. It is a
// no-op for candidates that are not curated.
func Unassign(s State, candidateID string) State {
	if !s.Curated(candidateID) {
		return s
	}
	next := s.clone()
	unassign(&next, candidateID)
	return next
}

func unassign(s *State, candidateID string) {
	delete(s.overrides, candidateID)
	for i := range s.groups {
		s.groups[i].MemberIDs = without(s.groups[i].MemberIDs, candidateID)
	}
}

// Reassign moves a curated candidate to another group, keeping its
// event-scoped values.
func Reassign(s State, candidateID, groupID string) (State, error) {
	o, ok := s.overrides[candidateID]
	if !ok {
		return s, fmt.Errorf("reassign %q: %w", candidateID, ErrNotCurated)
	}
	gi := s.groupIndex(groupID)
	if gi < 0 {
		return s, fmt.Errorf("reassign to %q: %w", groupID, ErrGroupNotFound)
	}
	if o.GroupID == groupID {
		return s, nil
	}

	next := s.clone()
	unassign(&next, candidateID)
	o.GroupID = groupID
	next.overrides[candidateID] = o
	next.groups[gi].MemberIDs = append(next.groups[gi].MemberIDs, candidateID)
	return next, nil
}

// Edit overwrites a curated candidate's event-scoped score and price. The
// state is returned unchanged with an error when the score is rejected.
func Edit(s State, candidateID, rawScore, rawPrice string) (State, error) {
	o, ok := s.overrides[candidateID]
	if !ok {
		return s, fmt.Errorf("edit %q: %w", candidateID, ErrNotCurated)
	}
	v, err := validate.ParseEdit(rawScore, rawPrice)
	if err != nil {
		return s, err
	}

	next := s.clone()
	o.SkillScore = v.SkillScore
	o.BasePrice = v.BasePrice
	next.overrides[candidateID] = o
	return next, nil
}

// AddGroup appends an empty, expanded group. A blank name becomes
// "Pool N" where N is the new group count.
func AddGroup(s State, id, name string) (State, model.Group) {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Pool %d", len(s.groups)+1)
	}
	g := model.Group{ID: id, Name: name, Order: len(s.groups), MemberIDs: []string{}}
	next := s.clone()
	next.groups = append(next.groups, g)
	return next, g.Clone()
}

// RenameGroup sets a group's display name. Blank names are ignored.
func RenameGroup(s State, id, name string) (State, error) {
	gi := s.groupIndex(id)
	if gi < 0 {
		return s, fmt.Errorf("rename %q: %w", id, ErrGroupNotFound)
	}
	if strings.TrimSpace(name) == "" {
		return s, nil
	}
	next := s.clone()
	next.groups[gi].Name = name
	return next, nil
}

// DeleteGroup removes a group after unassigning every member.
func DeleteGroup(s State, id string) (State, error) {
	gi := s.groupIndex(id)
	if gi < 0 {
		return s, fmt.Errorf("delete %q: %w", id, ErrGroupNotFound)
	}
	next := s.clone()
	for _, member := range s.groups[gi].MemberIDs {
		unassign(&next, member)
	}
	next.groups = append(next.groups[:gi], next.groups[gi+1:]...)
	next.renumber()
	return next, nil
}

// ToggleCollapse flips a group's display flag.
func ToggleCollapse(s State, id string) (State, error) {
	gi := s.groupIndex(id)
	if gi < 0 {
		return s, fmt.Errorf("toggle %q: %w", id, ErrGroupNotFound)
	}
	next := s.clone()
	next.groups[gi].Collapsed = !next.groups[gi].Collapsed
	return next, nil
}

// MoveGroup drops source onto target's position and renumbers orders.
func MoveGroup(s State, sourceID, targetID string) (State, error) {
	for _, id := range []string{sourceID, targetID} {
		if s.groupIndex(id) < 0 {
			return s, fmt.Errorf("move %q: %w", id, ErrGroupNotFound)
		}
	}
	seq := ordering.Reorder(s.GroupIDs(), sourceID, targetID)

	next := s.clone()
	pos := ordering.Positions(seq)
	groups := make([]model.Group, len(next.groups))
	for _, g := range next.groups {
		groups[pos[g.ID]] = g
	}
	next.groups = groups
	next.renumber()
	return next, nil
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
