// Package curation is the in-memory model of one event's groups, overrides
// and staging selection. State is an immutable value; every operation is a
// function from one State to the next, so the membership invariants hold by
// construction:
//
//   - a candidate is listed by at most one group, and that group is the one
//     named by its override;
//   - every override references a group present in the state;
//   - group orders are contiguous 0..N-1 in sequence order.
package curation

import (
	"sort"

	"github.com/okian/pooldraft/internal/domain/model"
)

// State is a snapshot of the curated structure. The zero value is empty.
type State struct {
	groups    []model.Group
	overrides map[string]model.Override
}

// Groups returns a deep copy of the groups in order.
func (s State) Groups() []model.Group {
	out := make([]model.Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Clone()
	}
	return out
}

// GroupIDs returns the group identifiers in order.
func (s State) GroupIDs() []string {
	ids := make([]string, len(s.groups))
	for i, g := range s.groups {
		ids[i] = g.ID
	}
	return ids
}

// Group returns a copy of the group with id.
func (s State) Group(id string) (model.Group, bool) {
	i := s.groupIndex(id)
	if i < 0 {
		return model.Group{}, false
	}
	return s.groups[i].Clone(), true
}

// Override returns the override for a candidate.
func (s State) Override(candidateID string) (model.Override, bool) {
	o, ok := s.overrides[candidateID]
	return o, ok
}

// Overrides returns every override ordered by group order, then member order.
func (s State) Overrides() []model.Override {
	out := make([]model.Override, 0, len(s.overrides))
	for _, g := range s.groups {
		for _, id := range g.MemberIDs {
			if o, ok := s.overrides[id]; ok {
				out = append(out, o)
			}
		}
	}
	return out
}

// Curated reports whether a candidate has an override.
func (s State) Curated(candidateID string) bool {
	_, ok := s.overrides[candidateID]
	return ok
}

// CuratedIDs returns the curated candidate ids, sorted.
func (s State) CuratedIDs() []string {
	ids := make([]string, 0, len(s.overrides))
	for id := range s.overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CuratedCount returns the number of overrides.
func (s State) CuratedCount() int { return len(s.overrides) }

// Setup converts the state into its persisted form. Orders come from the
// final sequence position.
func (s State) Setup() model.Setup {
	groups := make([]model.GroupDescriptor, len(s.groups))
	for i, g := range s.groups {
		groups[i] = model.GroupDescriptor{
			ID:        g.ID,
			Name:      g.Name,
			Order:     i,
			Collapsed: g.Collapsed,
			MemberIDs: append([]string(nil), g.MemberIDs...),
		}
	}
	return model.Setup{Groups: groups, Overrides: s.Overrides()}
}

func (s State) groupIndex(id string) int {
	for i, g := range s.groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// clone returns a deep copy that operations may mutate freely.
func (s State) clone() State {
	out := State{
		groups:    make([]model.Group, len(s.groups)),
		overrides: make(map[string]model.Override, len(s.overrides)),
	}
	for i, g := range s.groups {
		out.groups[i] = g.Clone()
	}
	for k, v := range s.overrides {
		out.overrides[k] = v
	}
	return out
}

// renumber rewrites Order from sequence position.
func (s *State) renumber() {
	for i := range s.groups {
		s.groups[i].Order = i
	}
}

// Hydrate rebuilds a State from stored group descriptors and overrides.
//
// A group's stored member list is authoritative for order. Members without
// an override, or whose override names another group, are dropped.
// Overrides whose group does not list them are appended to that group in
// candidate id order, which covers records written without member lists.
// Overrides naming an unknown group are dropped.
func Hydrate(groups []model.GroupDescriptor, overrides []model.Override) State {
	sorted := append([]model.GroupDescriptor(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	byID := make(map[string]model.Override, len(overrides))
	for _, o := range overrides {
		byID[o.CandidateID] = o
	}

	s := State{overrides: make(map[string]model.Override, len(overrides))}
	index := make(map[string]int, len(sorted))
	for _, d := range sorted {
		if _, dup := index[d.ID]; dup || d.ID == "" {
			continue
		}
		g := model.Group{ID: d.ID, Name: d.Name, Collapsed: d.Collapsed}
		for _, id := range d.MemberIDs {
			o, ok := byID[id]
			if !ok || o.GroupID != d.ID || g.HasMember(id) {
				continue
			}
			g.MemberIDs = append(g.MemberIDs, id)
			s.overrides[id] = o
		}
		index[d.ID] = len(s.groups)
		s.groups = append(s.groups, g)
	}

	var orphans []model.Override
	for id, o := range byID {
		if _, placed := s.overrides[id]; placed {
			continue
		}
		if _, ok := index[o.GroupID]; ok {
			orphans = append(orphans, o)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].CandidateID < orphans[j].CandidateID })
	for _, o := range orphans {
		i := index[o.GroupID]
		s.groups[i].MemberIDs = append(s.groups[i].MemberIDs, o.CandidateID)
		s.overrides[o.CandidateID] = o
	}

	s.renumber()
	return s
}
