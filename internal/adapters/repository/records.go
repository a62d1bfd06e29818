package repository

import (
	"time"

	"github.com/okian/pooldraft/internal/domain/model"
)

// candidateRecord is a master roster row.
type candidateRecord struct {
	ID         string  `gorm:"primaryKey;size:64"`
	Name       string  `gorm:"size:128;index;not null"`
	Role       string  `gorm:"size:32;index;not null"`
	SkillScore int     `gorm:"not null"`
	BasePrice  float64 `gorm:"not null"`
	CreatedAt  time.Time
	CreatedBy  string `gorm:"size:64"`
	UpdatedAt  time.Time
	UpdatedBy  string `gorm:"size:64"`
}

func (candidateRecord) TableName() string { return "candidates" }

func (r candidateRecord) toModel() model.Candidate {
	return model.Candidate{
		ID:         r.ID,
		Name:       r.Name,
		Role:       model.Role(r.Role),
		SkillScore: r.SkillScore,
		BasePrice:  r.BasePrice,
		CreatedAt:  r.CreatedAt,
		CreatedBy:  r.CreatedBy,
		UpdatedAt:  r.UpdatedAt,
		UpdatedBy:  r.UpdatedBy,
	}
}

// rosterMetaRecord holds the single roster version counter. Every candidate
// write bumps it in the same transaction.
type rosterMetaRecord struct {
	ID      uint   `gorm:"primaryKey"`
	Version uint64 `gorm:"not null"`
}

func (rosterMetaRecord) TableName() string { return "roster_meta" }

// eventRecord is an auction event. Group descriptors, including their
// ordered member lists, live in a JSON column.
type eventRecord struct {
	ID              string                  `gorm:"primaryKey;size:16"`
	HostID          string                  `gorm:"size:64;index;not null"`
	Status          string                  `gorm:"size:16;not null"`
	StartingBudget  float64                 `gorm:"not null"`
	BidTimerSeconds int                     `gorm:"not null"`
	Groups          []model.GroupDescriptor `gorm:"serializer:json"`
	CreatedAt       time.Time
	CreatedBy       string `gorm:"size:64"`
	UpdatedAt       time.Time
	UpdatedBy       string `gorm:"size:64"`
}

func (eventRecord) TableName() string { return "events" }

func (r eventRecord) toModel() model.Event {
	groups := r.Groups
	if groups == nil {
		groups = []model.GroupDescriptor{}
	}
	return model.Event{
		ID:     r.ID,
		HostID: r.HostID,
		Status: model.EventStatus(r.Status),
		Settings: model.Settings{
			StartingBudget:  r.StartingBudget,
			BidTimerSeconds: r.BidTimerSeconds,
		},
		Groups:    groups,
		CreatedAt: r.CreatedAt,
		CreatedBy: r.CreatedBy,
		UpdatedAt: r.UpdatedAt,
		UpdatedBy: r.UpdatedBy,
	}
}

// overrideRecord is one event-scoped curated candidate.
type overrideRecord struct {
	EventID     string  `gorm:"primaryKey;size:16"`
	CandidateID string  `gorm:"primaryKey;size:64"`
	GroupID     string  `gorm:"size:64;index;not null"`
	Name        string  `gorm:"size:128"`
	Role        string  `gorm:"size:32"`
	SkillScore  int     `gorm:"not null"`
	BasePrice   float64 `gorm:"not null"`
	Status      string  `gorm:"size:16;not null"`
	Position    int     `gorm:"not null"`
}

func (overrideRecord) TableName() string { return "event_overrides" }

func (r overrideRecord) toModel() model.Override {
	return model.Override{
		CandidateID: r.CandidateID,
		GroupID:     r.GroupID,
		Name:        r.Name,
		Role:        model.Role(r.Role),
		SkillScore:  r.SkillScore,
		BasePrice:   r.BasePrice,
		Status:      model.OverrideStatus(r.Status),
	}
}

func overrideFromModel(eventID string, position int, o model.Override) overrideRecord {
	status := o.Status
	if status == "" {
		status = model.OverridePending
	}
	return overrideRecord{
		EventID:     eventID,
		CandidateID: o.CandidateID,
		GroupID:     o.GroupID,
		Name:        o.Name,
		Role:        string(o.Role),
		SkillScore:  o.SkillScore,
		BasePrice:   o.BasePrice,
		Status:      string(status),
		Position:    position,
	}
}
