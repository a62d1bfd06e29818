// Package types contains the read shapes returned by the service layer.
package types

import "github.com/okian/pooldraft/internal/domain/model"

// OverrideView is a curated candidate as shown inside its group.
type OverrideView struct {
	CandidateID string     `json:"candidate_id"`
	Name        string     `json:"name"`
	Role        model.Role `json:"role"`
	SkillScore  int        `json:"skill_score"`
	BasePrice   float64    `json:"base_price"`
}

// GroupView is a group with its members resolved in order.
type GroupView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Order     int            `json:"order"`
	Collapsed bool           `json:"collapsed"`
	Members   []OverrideView `json:"members"`
}

// SessionView is the full curation state of one editing session.
type SessionView struct {
	SessionID     string            `json:"session_id"`
	EventID       string            `json:"event_id"`
	HostID        string            `json:"host_id"`
	EventStatus   model.EventStatus `json:"event_status"`
	Settings      model.Settings    `json:"settings"`
	Groups        []GroupView       `json:"groups"`
	Staged        []string          `json:"staged"`
	CuratedCount  int               `json:"curated_count"`
	RosterVersion uint64            `json:"roster_version"`
	RosterReady   bool              `json:"roster_ready"`
}

// RosterEntry is a master candidate annotated with its session state.
type RosterEntry struct {
	model.Candidate
	Curated bool   `json:"curated"`
	Staged  bool   `json:"staged"`
	GroupID string `json:"group_id,omitempty"`
}

// CommitResult reports a stored setup.
type CommitResult struct {
	EventID    string  `json:"event_id"`
	Groups     int     `json:"groups"`
	Overrides  int     `json:"overrides"`
	DurationMs float64 `json:"duration_ms"`
}

// ServiceStats is the monitoring snapshot served on /stats.
type ServiceStats struct {
	Started         bool   `json:"started"`
	Sessions        int    `json:"sessions"`
	StagedTotal     int    `json:"staged_total"`
	CuratedTotal    int    `json:"curated_total"`
	CommitsInFlight int64  `json:"commits_in_flight"`
	SessionTTL      string `json:"session_ttl"`
}
