// Package service provides the curation service behind the HTTP API: it
// opens editing sessions over stored events, routes curation operations to
// the session's state and commits the result.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pooldraft/internal/domain/commit"
	"github.com/okian/pooldraft/internal/domain/curation"
	"github.com/okian/pooldraft/internal/domain/guard"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/roster"
	"github.com/okian/pooldraft/internal/domain/types"
	"github.com/okian/pooldraft/pkg/logger"
	"github.com/okian/pooldraft/pkg/metrics"
)

// EventStore is the persistence the service needs.
type EventStore interface {
	GetEvent(ctx context.Context, eventID string) (model.Event, error)
	GetOverrides(ctx context.Context, eventID string) ([]model.Override, error)
	CommitSetup(ctx context.Context, eventID, hostID string, setup model.Setup) error
	CreateEvent(ctx context.Context, hostID string) (model.Event, error)
}

// Service owns the open editing sessions.
type Service struct {
	mu sync.RWMutex

	store     EventStore
	provider  roster.Provider
	guard     guard.Guard
	committer *commit.Committer

	hydrateTimeout time.Duration
	commitTimeout  time.Duration
	sessionTTL     time.Duration
	sweepInterval  time.Duration
	newID          func() string
	now            func() time.Time

	sessions map[string]*session
	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHydrateTimeout bounds the two reads that open a session.
func WithHydrateTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.hydrateTimeout = d
		}
	}
}

// WithCommitTimeout bounds a single setup commit.
func WithCommitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.commitTimeout = d
		}
	}
}

// WithSessionTTL closes sessions idle for longer than d. Zero keeps
// sessions until closed explicitly.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.sessionTTL = d
		}
	}
}

// WithGuard shares an in-flight commit guard across services.
func WithGuard(g guard.Guard) Option {
	return func(s *Service) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithIDGenerator overrides how session ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over an event store and a roster feed.
func New(store EventStore, provider roster.Provider, opts ...Option) *Service {
	s := &Service{
		store:          store,
		provider:       provider,
		hydrateTimeout: 5 * time.Second,
		commitTimeout:  10 * time.Second,
		sessionTTL:     2 * time.Hour,
		sweepInterval:  time.Minute,
		newID:          uuid.NewString,
		now:            time.Now,
		sessions:       make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.guard == nil {
		s.guard = guard.NewInMemoryGuard()
	}
	s.committer = commit.New(store, s.guard,
		commit.WithTimeout(s.commitTimeout),
		commit.WithLogger(s.logger.Named("commit")),
	)
	return s
}

// Start launches the idle-session sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.sweep(ctx, s.stopCh, s.doneCh)

	s.logger.Info(ctx, "curation service started",
		logger.Duration("session_ttl", s.sessionTTL),
		logger.Duration("commit_timeout", s.commitTimeout),
	)
	return nil
}

// Stop closes every open session and stops the sweeper.
func (s *Service) Stop() {
	s.mu.Lock()
	wasStarted := s.started
	s.started = false
	open := s.sessions
	s.sessions = make(map[string]*session)
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	for _, sess := range open {
		sess.close()
		metrics.SessionClosed()
	}
	metrics.UpdateSessionsActive(0)

	if wasStarted {
		close(stopCh)
		<-doneCh
	}
	s.logger.Info(context.Background(), "curation service stopped", logger.Int("sessions_closed", len(open)))
}

func (s *Service) sweep(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.ExpireIdle(ctx)
		}
	}
}

// ExpireIdle closes sessions idle for longer than the session TTL and
// returns how many were closed.
func (s *Service) ExpireIdle(ctx context.Context) int {
	if s.sessionTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.sessionTTL)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		metrics.SessionClosed()
		s.logger.Info(ctx, "idle session expired",
			logger.String("session_id", sess.id),
			logger.String("event_id", sess.eventID),
		)
	}
	metrics.UpdateSessionsActive(active)
	return len(expired)
}

// CreateEvent creates a lobby event hosted by hostID.
func (s *Service) CreateEvent(ctx context.Context, hostID string) (model.Event, error) {
	return s.store.CreateEvent(ctx, hostID)
}

// OpenSession hydrates a session for eventID. The event record and its
// overrides are read in parallel; if either read fails no session exists.
// A missing event is reported with the store's not-found error.
func (s *Service) OpenSession(ctx context.Context, eventID, hostID string) (types.SessionView, error) {
	const op = "service.open_session"
	start := time.Now()

	hctx, cancel := context.WithTimeout(ctx, s.hydrateTimeout)
	defer cancel()

	var (
		event     model.Event
		overrides []model.Override
	)
	g, gctx := errgroup.WithContext(hctx)
	g.Go(func() error {
		var err error
		event, err = s.store.GetEvent(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = s.store.GetOverrides(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordHydration("failed", metrics.SinceMs(start))
		s.logger.Warn(ctx, "hydration failed",
			logger.String("event_id", eventID),
			logger.Error(err),
		)
		return types.SessionView{}, fmt.Errorf("%s %q: %w: %w", op, eventID, ErrHydration, err)
	}

	if hostID == "" {
		hostID = event.HostID
	}
	sess := &session{
		id:       s.newID(),
		eventID:  eventID,
		hostID:   hostID,
		event:    event,
		lastUsed: s.now(),
		now:      s.now,
	}
	sess.store = curation.NewStore(
		curation.Hydrate(event.Groups, overrides),
		curation.WithLogger(s.logger.Named("curation").With(logger.String("session_id", sess.id))),
	)
	sess.roster = roster.NewCache(s.provider, roster.WithLogger(s.logger.Named("roster")))
	if err := sess.roster.Start(ctx); err != nil {
		return types.SessionView{}, fmt.Errorf("%s %q: %w", op, eventID, err)
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordHydration("ok", metrics.SinceMs(start))
	metrics.SessionOpened()
	metrics.UpdateSessionsActive(active)
	s.logger.Info(ctx, "session opened",
		logger.String("session_id", sess.id),
		logger.String("event_id", eventID),
		logger.String("host_id", hostID),
		logger.Int("groups", len(event.Groups)),
		logger.Int("overrides", len(overrides)),
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// CloseSession tears a session down, ending its roster subscription.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	active := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("close %q: %w", sessionID, ErrSessionNotFound)
	}
	sess.close()
	metrics.SessionClosed()
	metrics.UpdateSessionsActive(active)
	s.logger.Info(ctx, "session closed", logger.String("session_id", sessionID))
	return nil
}

func (s *Service) lookup(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}
	return sess, nil
}

// mutate runs fn under the session lock and returns the resulting view.
func (s *Service) mutate(sessionID, operation string, fn func(*session) error) (types.SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return types.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	if err := fn(sess); err != nil {
		metrics.RecordOperation(operation, "rejected")
		return types.SessionView{}, err
	}
	metrics.RecordOperation(operation, "ok")
	return sess.view(), nil
}

// Session returns the current view of a session.
func (s *Service) Session(ctx context.Context, sessionID string) (types.SessionView, error) {
	return s.mutate(sessionID, "view", func(*session) error { return nil })
}

// Roster returns the session's filtered roster annotated with curation and
// staging flags. An empty role or "All" disables the role filter.
func (s *Service) Roster(ctx context.Context, sessionID, search, role string) ([]types.RosterEntry, error) {
	r, ok := model.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("role %q: %w", role, ErrInvalidRole)
	}
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	state := sess.store.State()
	cands := sess.roster.Filter(search, r)
	out := make([]types.RosterEntry, len(cands))
	for i, c := range cands {
		entry := types.RosterEntry{Candidate: c, Staged: sess.staging.Has(c.ID)}
		if o, curated := state.Override(c.ID); curated {
			entry.Curated = true
			entry.GroupID = o.GroupID
		}
		out[i] = entry
	}
	return out, nil
}

// ToggleStaging flips a candidate's staging selection.
func (s *Service) ToggleStaging(ctx context.Context, sessionID, candidateID string) (types.SessionView, error) {
	return s.mutate(sessionID, "stage", func(sess *session) error {
		if _, err := sess.store.Stage(&sess.staging, candidateID); err != nil {
			return err
		}
		metrics.UpdateCandidatesStaged(sess.staging.Len())
		return nil
	})
}

// Assign curates the staged candidates into groupID.
func (s *Service) Assign(ctx context.Context, sessionID, groupID string) (types.SessionView, error) {
	return s.mutate(sessionID, "assign", func(sess *session) error {
		if _, err := sess.store.Assign(ctx, &sess.staging, groupID, sess.roster); err != nil {
			return err
		}
		metrics.UpdateCandidatesStaged(0)
		return nil
	})
}

// Unassign removes a candidate from the curated set.
func (s *Service) Unassign(ctx context.Context, sessionID, candidateID string) (types.SessionView, error) {
	return s.mutate(sessionID, "unassign", func(sess *session) error {
		sess.store.Unassign(ctx, candidateID)
		return nil
	})
}

// Reassign moves a curated candidate to another group.
func (s *Service) Reassign(ctx context.Context, sessionID, candidateID, groupID string) (types.SessionView, error) {
	return s.mutate(sessionID, "reassign", func(sess *session) error {
		return sess.store.Reassign(ctx, candidateID, groupID)
	})
}

// Edit overwrites a curated candidate's event-scoped score and price.
func (s *Service) Edit(ctx context.Context, sessionID, candidateID, rawScore, rawPrice string) (types.SessionView, error) {
	return s.mutate(sessionID, "edit", func(sess *session) error {
		_, err := sess.store.Edit(ctx, candidateID, rawScore, rawPrice)
		return err
	})
}

// AddGroup appends a group. A blank name is auto-numbered.
func (s *Service) AddGroup(ctx context.Context, sessionID, name string) (types.SessionView, error) {
	return s.mutate(sessionID, "add_group", func(sess *session) error {
		sess.store.AddGroup(ctx, name)
		return nil
	})
}

// RenameGroup renames a group; blank names are ignored.
func (s *Service) RenameGroup(ctx context.Context, sessionID, groupID, name string) (types.SessionView, error) {
	return s.mutate(sessionID, "rename_group", func(sess *session) error {
		return sess.store.RenameGroup(ctx, groupID, name)
	})
}

// ToggleCollapse flips a group's display flag.
func (s *Service) ToggleCollapse(ctx context.Context, sessionID, groupID string) (types.SessionView, error) {
	return s.mutate(sessionID, "toggle_collapse", func(sess *session) error {
		return sess.store.ToggleCollapse(ctx, groupID)
	})
}

// DeleteGroup removes a group and unassigns its members.
func (s *Service) DeleteGroup(ctx context.Context, sessionID, groupID string) (types.SessionView, error) {
	return s.mutate(sessionID, "delete_group", func(sess *session) error {
		return sess.store.DeleteGroup(ctx, groupID)
	})
}

// MoveGroup drops sourceID onto targetID's position.
func (s *Service) MoveGroup(ctx context.Context, sessionID, sourceID, targetID string) (types.SessionView, error) {
	return s.mutate(sessionID, "move_group", func(sess *session) error {
		return sess.store.MoveGroup(ctx, sourceID, targetID)
	})
}

// Commit validates and stores the session's curated setup. The session
// state is never modified by a commit, so a failed commit can be retried.
func (s *Service) Commit(ctx context.Context, sessionID string) (types.CommitResult, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return types.CommitResult{}, err
	}

	sess.mu.Lock()
	sess.touch()
	state := sess.store.State()
	hostID := sess.hostID
	sess.mu.Unlock()

	res, err := s.committer.Commit(ctx, sess.eventID, hostID, state)
	if err != nil {
		metrics.RecordOperation("commit", "rejected")
		return types.CommitResult{}, err
	}
	metrics.RecordOperation("commit", "ok")

	sess.mu.Lock()
	sess.event.Status = model.EventReady
	sess.mu.Unlock()

	return types.CommitResult{
		EventID:    res.EventID,
		Groups:     res.Groups,
		Overrides:  res.Overrides,
		DurationMs: float64(res.Duration.Microseconds()) / 1000,
	}, nil
}

// Stats returns a monitoring snapshot across open sessions.
func (s *Service) Stats() types.ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := types.ServiceStats{
		Started:         s.started,
		Sessions:        len(s.sessions),
		CommitsInFlight: s.guard.Size(),
		SessionTTL:      s.sessionTTL.String(),
	}
	for _, sess := range s.sessions {
		sess.mu.Lock()
		out.StagedTotal += sess.staging.Len()
		out.CuratedTotal += sess.store.State().CuratedCount()
		sess.mu.Unlock()
	}
	return out
}
