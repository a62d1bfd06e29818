package repository

import (
	"time"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for audit fields.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator overrides how event codes are minted.
func WithCodeGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

// WithDefaultSettings sets the settings given to new events.
func WithDefaultSettings(settings model.Settings) Option {
	return func(s *Store) {
		if settings.StartingBudget > 0 {
			s.defaults.StartingBudget = settings.StartingBudget
		}
		if settings.BidTimerSeconds > 0 {
			s.defaults.BidTimerSeconds = settings.BidTimerSeconds
		}
	}
}

// WithStepHook registers fn to run after each step of a setup commit,
// inside the transaction. A non-nil error aborts and rolls back.
func WithStepHook(fn func(step string) error) Option {
	return func(s *Store) {
		s.stepHook = fn
	}
}
