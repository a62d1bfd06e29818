// Package smoke drives complete curation sessions against a running
// pooldraft server and verifies that committed setups hydrate back intact.
package smoke

import (
	"runtime"
	"time"
)

// Default run parameters.
const (
	DefaultSessions   = 8
	DefaultGroups     = 3
	DefaultPerGroup   = 2
	DefaultTimeout    = 30 * time.Second
	DefaultRosterWait = 10 * time.Second
	rosterPollDelay   = 100 * time.Millisecond
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Sessions   int           // Number of independent events to curate
	Workers    int           // Concurrent sessions
	Groups     int           // Groups created per event
	PerGroup   int           // Candidates assigned to each group
	Timeout    time.Duration // HTTP request timeout
	RosterWait time.Duration // How long to wait for the roster to arrive
	Verbose    bool
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:9080"
	}
	if c.Sessions <= 0 {
		c.Sessions = DefaultSessions
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Groups <= 0 {
		c.Groups = DefaultGroups
	}
	if c.PerGroup <= 0 {
		c.PerGroup = DefaultPerGroup
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RosterWait <= 0 {
		c.RosterWait = DefaultRosterWait
	}
	return c
}

// Stats holds run statistics.
type Stats struct {
	Sessions  int
	Committed int
	Verified  int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Failures  []error
}
