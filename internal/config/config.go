// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and POOLDRAFT_ env vars over the defaults.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path" validate:"required"`

	// RosterPollIntervalMS sets how often the store is checked for roster changes.
	RosterPollIntervalMS int `koanf:"roster_poll_interval_ms" validate:"min=50"`

	// RosterQueueSize bounds pending roster snapshots between poller and hub.
	RosterQueueSize int `koanf:"roster_queue_size" validate:"min=1"`

	CommitTimeoutMS  int `koanf:"commit_timeout_ms" validate:"min=1"`
	HydrateTimeoutMS int `koanf:"hydrate_timeout_ms" validate:"min=1"`

	// SessionTTLMinutes closes sessions idle for longer. Zero disables expiry.
	SessionTTLMinutes int `koanf:"session_ttl_minutes" validate:"min=0"`

	// MaxCommitsInFlight caps concurrent commits across all events.
	MaxCommitsInFlight int `koanf:"max_commits_in_flight" validate:"min=1"`

	// Settings copied onto newly created events.
	DefaultStartingBudget  float64 `koanf:"default_starting_budget" validate:"gt=0"`
	DefaultBidTimerSeconds int     `koanf:"default_bid_timer_seconds" validate:"min=1"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		DBPath:                 "pooldraft.db",
		RosterPollIntervalMS:   2000,
		RosterQueueSize:        64,
		CommitTimeoutMS:        10_000,
		HydrateTimeoutMS:       5_000,
		SessionTTLMinutes:      120,
		MaxCommitsInFlight:     1_000,
		DefaultStartingBudget:  100,
		DefaultBidTimerSeconds: 30,
	}
}

// RosterPollInterval returns the poll interval as a duration.
func (c *Config) RosterPollInterval() time.Duration {
	return time.Duration(c.RosterPollIntervalMS) * time.Millisecond
}

// CommitTimeout returns the commit deadline as a duration.
func (c *Config) CommitTimeout() time.Duration {
	return time.Duration(c.CommitTimeoutMS) * time.Millisecond
}

// HydrateTimeout returns the hydration deadline as a duration.
func (c *Config) HydrateTimeout() time.Duration {
	return time.Duration(c.HydrateTimeoutMS) * time.Millisecond
}

// SessionTTL returns the idle session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
