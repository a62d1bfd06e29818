// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Role is a candidate's playing role.
type Role string

// Roles of the fixed enumeration. RoleAll is the filter sentinel and is
// never carried by a candidate.
const (
	RoleBatsman      Role = "Batsman"
	RoleBowler       Role = "Bowler"
	RoleAllRounder   Role = "All-Rounder"
	RoleWicketKeeper Role = "Wicket-Keeper"

	RoleAll Role = "All"
)

// Roles lists the candidate roles in display order.
var Roles = []Role{RoleBatsman, RoleBowler, RoleAllRounder, RoleWicketKeeper}

// Valid reports whether r is one of the candidate roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole matches s case-insensitively against the roles and the All
// sentinel. An empty string parses as RoleAll.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(RoleAll)) {
		return RoleAll, true
	}
	for _, known := range Roles {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Skill score bounds shared by master records and overrides.
const (
	MinSkillScore = 0
	MaxSkillScore = 100
)

// Candidate is a master roster record. Immutable from the curation side.
type Candidate struct {
	ID         string    `json:"id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	Role       Role      `json:"role" validate:"required,oneof=Batsman Bowler All-Rounder Wicket-Keeper"`
	SkillScore int       `json:"skill_score" validate:"gte=0,lte=100"`
	BasePrice  float64   `json:"base_price" validate:"gte=0"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
	UpdatedBy  string    `json:"updated_by,omitempty"`
}

// Group is a named, ordered bucket of curated candidates ("pool").
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Order     int      `json:"order"`
	Collapsed bool     `json:"collapsed"`
	MemberIDs []string `json:"member_ids"`
}

// Clone returns a deep copy of g.
func (g Group) Clone() Group {
	g.MemberIDs = append([]string(nil), g.MemberIDs...)
	return g
}

// HasMember reports whether id is in the member list.
func (g Group) HasMember(id string) bool {
	for _, m := range g.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// OverrideStatus is the auction lifecycle state of a persisted override.
type OverrideStatus string

// Override statuses. Only Pending is written by setup commits.
const (
	OverridePending OverrideStatus = "pending"
	OverrideActive  OverrideStatus = "active"
	OverrideSold    OverrideStatus = "sold"
	OverrideUnsold  OverrideStatus = "unsold"
)

// Override is the event-scoped copy of a curated candidate's attributes.
type Override struct {
	CandidateID string         `json:"candidate_id"`
	GroupID     string         `json:"group_id"`
	Name        string         `json:"name"`
	Role        Role           `json:"role"`
	SkillScore  int            `json:"skill_score"`
	BasePrice   float64        `json:"base_price"`
	Status      OverrideStatus `json:"status,omitempty"`
}

// EventStatus is the lifecycle state of an auction event.
type EventStatus string

// Event statuses.
const (
	EventLobby EventStatus = "lobby"
	EventReady EventStatus = "ready"
)

// Settings holds per-event auction parameters.
type Settings struct {
	StartingBudget  float64 `json:"starting_budget"`
	BidTimerSeconds int     `json:"bid_timer_seconds"`
}

// GroupDescriptor is the persisted form of a group. MemberIDs is the
// authoritative member order; overrides carry per-candidate attributes.
type GroupDescriptor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Order     int      `json:"order"`
	Collapsed bool     `json:"collapsed"`
	MemberIDs []string `json:"member_ids,omitempty"`
}

// Event is the stored auction event record.
type Event struct {
	ID        string            `json:"id"`
	HostID    string            `json:"host_id"`
	Status    EventStatus       `json:"status"`
	Settings  Settings          `json:"settings"`
	Groups    []GroupDescriptor `json:"groups"`
	CreatedAt time.Time         `json:"created_at"`
	CreatedBy string            `json:"created_by"`
	UpdatedAt time.Time         `json:"updated_at"`
	UpdatedBy string            `json:"updated_by"`
}

// Setup is the full curated structure written by one commit.
type Setup struct {
	Groups    []GroupDescriptor `json:"groups"`
	Overrides []Override        `json:"overrides"`
}

// RosterSnapshot is one delivery of the full master candidate list.
type RosterSnapshot struct {
	Version    uint64      `json:"version"`
	Candidates []Candidate `json:"candidates"`
}
