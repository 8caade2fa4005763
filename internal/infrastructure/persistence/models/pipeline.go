package models

import (
	"time"

	"github.com/estateflow/backend/internal/domain/pipeline"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeadModel is the persistence model for the Lead aggregate root.
type LeadModel struct {
	AggregateModel
	CustomerName   string          `gorm:"type:varchar(200);not null"`
	Email          string          `gorm:"type:varchar(200);index"`
	Phone          string          `gorm:"type:varchar(50);index"`
	PropertyID     *uuid.UUID      `gorm:"type:uuid"`
	Value          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Probability    int             `gorm:"not null;default:0"`
	Stage          string          `gorm:"type:varchar(30);not null;index"`
	AgentID        *uuid.UUID      `gorm:"type:uuid;index"`
	TeamLeadID     *uuid.UUID      `gorm:"type:uuid"`
	Source         string          `gorm:"type:varchar(30);not null"`
	Priority       string          `gorm:"type:varchar(20);not null"`
	Notes          string          `gorm:"type:text"`
	LastContactAt  *time.Time
	NextFollowUpAt *time.Time `gorm:"index"`
	StageChangedAt time.Time  `gorm:"not null"`
	ClosedAt       *time.Time
}

// TableName returns the table name for GORM
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts the persistence model to a domain Lead entity.
func (m *LeadModel) ToDomain() *pipeline.Lead {
	return &pipeline.Lead{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Contact: pipeline.Contact{
			CustomerName: m.CustomerName,
			Email:        m.Email,
			Phone:        m.Phone,
		},
		PropertyID:     m.PropertyID,
		Value:          m.Value,
		Probability:    m.Probability,
		Stage:          pipeline.Stage(m.Stage),
		AgentID:        m.AgentID,
		TeamLeadID:     m.TeamLeadID,
		Source:         pipeline.Source(m.Source),
		Priority:       pipeline.Priority(m.Priority),
		Notes:          m.Notes,
		LastContactAt:  m.LastContactAt,
		NextFollowUpAt: m.NextFollowUpAt,
		StageChangedAt: m.StageChangedAt,
		ClosedAt:       m.ClosedAt,
	}
}

// FromDomain populates the persistence model from a domain Lead entity.
func (m *LeadModel) FromDomain(l *pipeline.Lead) {
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	m.CustomerName = l.CustomerName
	m.Email = l.Email
	m.Phone = l.Phone
	m.PropertyID = l.PropertyID
	m.Value = l.Value
	m.Probability = l.Probability
	m.Stage = string(l.Stage)
	m.AgentID = l.AgentID
	m.TeamLeadID = l.TeamLeadID
	m.Source = string(l.Source)
	m.Priority = string(l.Priority)
	m.Notes = l.Notes
	m.LastContactAt = l.LastContactAt
	m.NextFollowUpAt = l.NextFollowUpAt
	m.StageChangedAt = l.StageChangedAt
	m.ClosedAt = l.ClosedAt
}

// LeadModelFromDomain creates a new persistence model from a domain Lead entity.
func LeadModelFromDomain(l *pipeline.Lead) *LeadModel {
	m := &LeadModel{}
	m.FromDomain(l)
	return m
}

// FollowUpModel is the persistence model for the FollowUp aggregate root.
type FollowUpModel struct {
	AggregateModel
	LeadID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title           string     `gorm:"type:varchar(200);not null"`
	Description     string     `gorm:"type:text"`
	ScheduledAt     time.Time  `gorm:"not null;index"`
	AssigneeID      *uuid.UUID `gorm:"type:uuid;index"`
	Completed       bool       `gorm:"not null;default:false;index"`
	CompletedAt     *time.Time
	RescheduledFrom *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (FollowUpModel) TableName() string {
	return "follow_ups"
}

// ToDomain converts the persistence model to a domain FollowUp entity.
func (m *FollowUpModel) ToDomain() *pipeline.FollowUp {
	return &pipeline.FollowUp{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		LeadID:            m.LeadID,
		Title:             m.Title,
		Description:       m.Description,
		ScheduledAt:       m.ScheduledAt,
		AssigneeID:        m.AssigneeID,
		Completed:         m.Completed,
		CompletedAt:       m.CompletedAt,
		RescheduledFrom:   m.RescheduledFrom,
	}
}

// FromDomain populates the persistence model from a domain FollowUp entity.
func (m *FollowUpModel) FromDomain(f *pipeline.FollowUp) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.LeadID = f.LeadID
	m.Title = f.Title
	m.Description = f.Description
	m.ScheduledAt = f.ScheduledAt
	m.AssigneeID = f.AssigneeID
	m.Completed = f.Completed
	m.CompletedAt = f.CompletedAt
	m.RescheduledFrom = f.RescheduledFrom
}

// FollowUpModelFromDomain creates a new persistence model from a domain FollowUp entity.
func FollowUpModelFromDomain(f *pipeline.FollowUp) *FollowUpModel {
	m := &FollowUpModel{}
	m.FromDomain(f)
	return m
}
