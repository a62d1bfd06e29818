package curation

import (
	"context"

	"github.com/google/uuid"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithIDGenerator overrides how new group ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store holds the authoritative curation State of one session. It is not
// safe for concurrent use; the owning session serialises calls.
type Store struct {
	state  State
	newID  func() string
	logger logger.Logger
}

// NewStore returns a Store seeded with a hydrated state.
func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		state: initial,
		newID: func() string { return "pool-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("curation")
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State { return s.state }

// Stage toggles a candidate in the session's staging set. Curated
// candidates cannot be staged.
func (s *Store) Stage(staging *Staging, candidateID string) (bool, error) {
	if s.state.Curated(candidateID) {
		return false, ErrAlreadyCurated
	}
	return staging.Toggle(candidateID), nil
}

// Assign curates the staged candidates into groupID and clears staging on
// success. It returns the newly assigned ids.
func (s *Store) Assign(ctx context.Context, staging *Staging, groupID string, roster CandidateLookup) ([]string, error) {
	next, added, err := Assign(s.state, staging.IDs(), groupID, roster)
	if err != nil {
		return nil, err
	}
	s.state = next
	staging.Clear()
	s.logger.Debug(ctx, "candidates assigned",
		logger.String("group_id", groupID),
		logger.Strings("candidate_ids", added),
	)
	return added, nil
}

// Unassign removes a candidate from the curated set.
func (s *Store) Unassign(ctx context.Context, candidateID string) {
	s.state = Unassign(s.state, candidateID)
	s.logger.Debug(ctx, "candidate unassigned", logger.String("candidate_id", candidateID))
}

// Reassign moves a curated candidate to another group.
func (s *Store) Reassign(ctx context.Context, candidateID, groupID string) error {
	next, err := Reassign(s.state, candidateID, groupID)
	if err != nil {
		return err
	}
	s.state = next
	s.logger.Debug(ctx, "candidate reassigned",
		logger.String("candidate_id", candidateID),
		logger.String("group_id", groupID),
	)
	return nil
}

// Edit overwrites a curated candidate's event-scoped values.
func (s *Store) Edit(ctx context.Context, candidateID, rawScore, rawPrice string) (model.Override, error) {
	next, err := Edit(s.state, candidateID, rawScore, rawPrice)
	if err != nil {
		return model.Override{}, err
	}
	s.state = next
	o, _ := next.Override(candidateID)
	return o, nil
}

// AddGroup appends a new group with a fresh id.
func (s *Store) AddGroup(ctx context.Context, name string) model.Group {
	next, g := AddGroup(s.state, s.newID(), name)
	s.state = next
	s.logger.Debug(ctx, "group added", logger.String("group_id", g.ID), logger.String("name", g.Name))
	return g
}

// RenameGroup renames a group; blank names are ignored.
func (s *Store) RenameGroup(ctx context.Context, id, name string) error {
	next, err := RenameGroup(s.state, id, name)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// DeleteGroup removes a group and unassigns its members.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	g, _ := s.state.Group(id)
	next, err := DeleteGroup(s.state, id)
	if err != nil {
		return err
	}
	s.state = next
	s.logger.Debug(ctx, "group deleted",
		logger.String("group_id", id),
		logger.Int("unassigned", len(g.MemberIDs)),
	)
	return nil
}

// ToggleCollapse flips a group's display flag.
func (s *Store) ToggleCollapse(ctx context.Context, id string) error {
	next, err := ToggleCollapse(s.state, id)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// MoveGroup reorders groups by dropping source onto target.
func (s *Store) MoveGroup(ctx context.Context, sourceID, targetID string) error {
	next, err := MoveGroup(s.state, sourceID, targetID)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}
