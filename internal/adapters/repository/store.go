// Package repository persists events, curated setups and the master roster
// in SQLite through gorm.
package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/validate"
	"github.com/okian/pooldraft/pkg/logger"
	"github.com/okian/pooldraft/pkg/metrics"
)

// Steps of a setup commit, reported to the step hook.
const (
	StepOverridesDeleted = "overrides_deleted"
	StepOverridesCreated = "overrides_created"
	StepEventUpdated     = "event_updated"
)

const (
	eventCodeLength   = 6
	eventCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	eventCodeAttempts = 8
	rosterMetaID      = 1
)

// DefaultSettings are given to events unless overridden.
var DefaultSettings = model.Settings{StartingBudget: 100, BidTimerSeconds: 30}

// Store is the gorm-backed event and roster store.
type Store struct {
	db       *gorm.DB
	logger   logger.Logger
	now      func() time.Time
	newCode  func() string
	defaults model.Settings
	stepHook func(step string) error
}

// Open connects to the SQLite database at path and migrates the schema.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writes serialised.
	sqlDB.SetMaxOpenConns(1)
	return New(db, opts...)
}

// New wraps an open gorm handle and migrates the schema.
func New(db *gorm.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:       db,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  randomCode,
		defaults: DefaultSettings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}

	if err := db.AutoMigrate(&candidateRecord{}, &rosterMetaRecord{}, &eventRecord{}, &overrideRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	meta := rosterMetaRecord{ID: rosterMetaID}
	if err := db.FirstOrCreate(&meta, rosterMetaRecord{ID: rosterMetaID}).Error; err != nil {
		return nil, fmt.Errorf("init roster meta: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// observe records latency and failures of one store call.
func (s *Store) observe(call string, start time.Time, err error) {
	metrics.RecordStoreLatency(call, metrics.SinceMs(start))
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreError(call)
	}
}

// GetEvent loads an event record. It returns ErrNotFound if none exists.
func (s *Store) GetEvent(ctx context.Context, eventID string) (ev model.Event, err error) {
	const op = "repository.get_event"
	defer func(start time.Time) { s.observe("get_event", start, err) }(time.Now())

	var rec eventRecord
	if err := s.db.WithContext(ctx).Where("id = ?", eventID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Event{}, fmt.Errorf("%s %q: %w", op, eventID, ErrNotFound)
		}
		return model.Event{}, fmt.Errorf("%s %q: %w", op, eventID, err)
	}
	return rec.toModel(), nil
}

// GetOverrides loads every stored override of an event in written order.
func (s *Store) GetOverrides(ctx context.Context, eventID string) (out []model.Override, err error) {
	const op = "repository.get_overrides"
	defer func(start time.Time) { s.observe("get_overrides", start, err) }(time.Now())

	var recs []overrideRecord
	if err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("position ASC").Order("candidate_id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("%s %q: %w", op, eventID, err)
	}
	out = make([]model.Override, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// CommitSetup replaces the event's curated setup in one transaction:
// every stored override is deleted, the setup's overrides are written, and
// the event's groups, status and audit fields are overwritten. Either all
// three steps land or none do.
func (s *Store) CommitSetup(ctx context.Context, eventID, hostID string, setup model.Setup) (err error) {
	const op = "repository.commit_setup"
	defer func(start time.Time) { s.observe("commit_setup", start, err) }(time.Now())

	records := make([]overrideRecord, len(setup.Overrides))
	for i, o := range setup.Overrides {
		records[i] = overrideFromModel(eventID, i, o)
	}
	groups := setup.Groups
	if groups == nil {
		groups = []model.GroupDescriptor{}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&overrideRecord{}).Error; err != nil {
			return fmt.Errorf("delete overrides: %w", err)
		}
		if err := s.step(StepOverridesDeleted); err != nil {
			return err
		}

		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 200).Error; err != nil {
				return fmt.Errorf("create overrides: %w", err)
			}
		}
		if err := s.step(StepOverridesCreated); err != nil {
			return err
		}

		res := tx.Model(&eventRecord{}).
			Where("id = ?", eventID).
			Select("groups", "status", "updated_at", "updated_by").
			Updates(&eventRecord{
				Groups:    groups,
				Status:    string(model.EventReady),
				UpdatedAt: s.now(),
				UpdatedBy: hostID,
			})
		if res.Error != nil {
			return fmt.Errorf("update event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.step(StepEventUpdated)
	})
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, eventID, err)
	}

	s.logger.Debug(ctx, "setup stored",
		logger.String("event_id", eventID),
		logger.Int("groups", len(groups)),
		logger.Int("overrides", len(records)),
	)
	return nil
}

func (s *Store) step(name string) error {
	if s.stepHook == nil {
		return nil
	}
	if err := s.stepHook(name); err != nil {
		return fmt.Errorf("after %s: %w", name, err)
	}
	return nil
}

// CreateEvent creates a lobby event hosted by hostID with a fresh
// six-character code and the default settings.
func (s *Store) CreateEvent(ctx context.Context, hostID string) (ev model.Event, err error) {
	const op = "repository.create_event"
	defer func(start time.Time) { s.observe("create_event", start, err) }(time.Now())

	if strings.TrimSpace(hostID) == "" {
		return model.Event{}, fmt.Errorf("%s: host id: %w", op, ErrInvalidInput)
	}

	now := s.now()
	for attempt := 0; attempt < eventCodeAttempts; attempt++ {
		rec := eventRecord{
			ID:              s.newCode(),
			HostID:          hostID,
			Status:          string(model.EventLobby),
			StartingBudget:  s.defaults.StartingBudget,
			BidTimerSeconds: s.defaults.BidTimerSeconds,
			Groups:          []model.GroupDescriptor{},
			CreatedAt:       now,
			CreatedBy:       hostID,
			UpdatedAt:       now,
			UpdatedBy:       hostID,
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if res.Error != nil {
			return model.Event{}, fmt.Errorf("%s: %w", op, res.Error)
		}
		if res.RowsAffected == 1 {
			s.logger.Info(ctx, "event created",
				logger.String("event_id", rec.ID),
				logger.String("host_id", hostID),
			)
			return rec.toModel(), nil
		}
	}
	return model.Event{}, fmt.Errorf("%s: %w", op, ErrCodeExhausted)
}

// randomCode returns an uppercase alphanumeric event code.
func randomCode() string {
	var b strings.Builder
	limit := big.NewInt(int64(len(eventCodeAlphabet)))
	for i := 0; i < eventCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:eventCodeLength])
		}
		b.WriteByte(eventCodeAlphabet[n.Int64()])
	}
	return b.String()
}

// UpsertCandidate validates and writes a master roster record. A blank id
// is assigned a new one. Creation audit fields are kept on update.
func (s *Store) UpsertCandidate(ctx context.Context, c model.Candidate, actor string) (out model.Candidate, err error) {
	const op = "repository.upsert_candidate"
	defer func(start time.Time) { s.observe("upsert_candidate", start, err) }(time.Now())

	c.Name = strings.TrimSpace(c.Name)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := validate.Candidate(c); err != nil {
		return model.Candidate{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
	}

	now := s.now()
	rec := candidateRecord{
		ID:         c.ID,
		Name:       c.Name,
		Role:       string(c.Role),
		SkillScore: c.SkillScore,
		BasePrice:  c.BasePrice,
		CreatedAt:  now,
		CreatedBy:  actor,
		UpdatedAt:  now,
		UpdatedBy:  actor,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "role", "skill_score", "base_price", "updated_at", "updated_by"}),
		}).Create(&rec).Error; err != nil {
			return err
		}
		if err := bumpRosterVersion(tx); err != nil {
			return err
		}
		return tx.Where("id = ?", c.ID).Take(&rec).Error
	})
	if err != nil {
		return model.Candidate{}, fmt.Errorf("%s %q: %w", op, c.ID, err)
	}
	return rec.toModel(), nil
}

// DeleteCandidate removes a master roster record.
func (s *Store) DeleteCandidate(ctx context.Context, id string) (err error) {
	const op = "repository.delete_candidate"
	defer func(start time.Time) { s.observe("delete_candidate", start, err) }(time.Now())

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&candidateRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return bumpRosterVersion(tx)
	})
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, id, err)
	}
	return nil
}

func bumpRosterVersion(tx *gorm.DB) error {
	return tx.Model(&rosterMetaRecord{}).
		Where("id = ?", rosterMetaID).
		UpdateColumn("version", gorm.Expr("version + 1")).Error
}

// ListCandidates returns the master roster ordered by name.
func (s *Store) ListCandidates(ctx context.Context) (out []model.Candidate, err error) {
	const op = "repository.list_candidates"
	defer func(start time.Time) { s.observe("list_candidates", start, err) }(time.Now())

	out, err = listCandidates(s.db.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func listCandidates(db *gorm.DB) ([]model.Candidate, error) {
	var recs []candidateRecord
	if err := db.Order("name ASC").Order("id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]model.Candidate, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// RosterVersion returns the roster change counter.
func (s *Store) RosterVersion(ctx context.Context) (version uint64, err error) {
	const op = "repository.roster_version"
	defer func(start time.Time) { s.observe("roster_version", start, err) }(time.Now())

	var meta rosterMetaRecord
	if err := s.db.WithContext(ctx).Where("id = ?", rosterMetaID).Take(&meta).Error; err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return meta.Version, nil
}

// RosterSnapshot reads the version and the full roster consistently.
func (s *Store) RosterSnapshot(ctx context.Context) (snap model.RosterSnapshot, err error) {
	const op = "repository.roster_snapshot"
	defer func(start time.Time) { s.observe("roster_snapshot", start, err) }(time.Now())

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meta rosterMetaRecord
		if err := tx.Where("id = ?", rosterMetaID).Take(&meta).Error; err != nil {
			return err
		}
		cands, err := listCandidates(tx)
		if err != nil {
			return err
		}
		snap = model.RosterSnapshot{Version: meta.Version, Candidates: cands}
		return nil
	})
	if err != nil {
		return model.RosterSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}
