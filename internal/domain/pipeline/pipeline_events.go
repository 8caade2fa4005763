package pipeline

import (
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeLead     = "Lead"
	AggregateTypeFollowUp = "FollowUp"
)

// Event type constants
const (
	EventTypeLeadCreated       = "LeadCreated"
	EventTypeLeadStageChanged  = "LeadStageChanged"
	EventTypeFollowUpScheduled = "FollowUpScheduled"
	EventTypeFollowUpCompleted = "FollowUpCompleted"
)

// LeadCreatedEvent is raised when a lead enters the pipeline
type LeadCreatedEvent struct {
	shared.BaseDomainEvent
	LeadID       uuid.UUID       `json:"lead_id"`
	CustomerName string          `json:"customer_name"`
	Source       Source          `json:"source"`
	Value        decimal.Decimal `json:"value"`
}

// NewLeadCreatedEvent creates a new LeadCreatedEvent
func NewLeadCreatedEvent(l *Lead) *LeadCreatedEvent {
	return &LeadCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadCreated, AggregateTypeLead, l.ID, l.CreatedAt),
		LeadID:          l.ID,
		CustomerName:    l.CustomerName,
		Source:          l.Source,
		Value:           l.Value,
	}
}

// EventType returns the event type name
func (e *LeadCreatedEvent) EventType() string {
	return EventTypeLeadCreated
}

// LeadStageChangedEvent is raised on every legal stage transition
type LeadStageChangedEvent struct {
	shared.BaseDomainEvent
	LeadID    uuid.UUID       `json:"lead_id"`
	FromStage Stage           `json:"from_stage"`
	ToStage   Stage           `json:"to_stage"`
	Value     decimal.Decimal `json:"value"`
	AgentID   *uuid.UUID      `json:"agent_id,omitempty"`
}

// NewLeadStageChangedEvent creates a new LeadStageChangedEvent
func NewLeadStageChangedEvent(l *Lead, from Stage, at time.Time) *LeadStageChangedEvent {
	return &LeadStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadStageChanged, AggregateTypeLead, l.ID, at),
		LeadID:          l.ID,
		FromStage:       from,
		ToStage:         l.Stage,
		Value:           l.Value,
		AgentID:         l.AgentID,
	}
}

// EventType returns the event type name
func (e *LeadStageChangedEvent) EventType() string {
	return EventTypeLeadStageChanged
}

// IsWon reports whether the transition closed the deal
func (e *LeadStageChangedEvent) IsWon() bool {
	return e.ToStage == StageWon
}

// FollowUpScheduledEvent is raised when a follow-up is created
type FollowUpScheduledEvent struct {
	shared.BaseDomainEvent
	FollowUpID  uuid.UUID  `json:"follow_up_id"`
	LeadID      uuid.UUID  `json:"lead_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
}

// NewFollowUpScheduledEvent creates a new FollowUpScheduledEvent
func NewFollowUpScheduledEvent(f *FollowUp, at time.Time) *FollowUpScheduledEvent {
	return &FollowUpScheduledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFollowUpScheduled, AggregateTypeFollowUp, f.ID, at),
		FollowUpID:      f.ID,
		LeadID:          f.LeadID,
		ScheduledAt:     f.ScheduledAt,
		AssigneeID:      f.AssigneeID,
	}
}

// EventType returns the event type name
func (e *FollowUpScheduledEvent) EventType() string {
	return EventTypeFollowUpScheduled
}

// FollowUpCompletedEvent is raised when a follow-up is marked done
type FollowUpCompletedEvent struct {
	shared.BaseDomainEvent
	FollowUpID uuid.UUID `json:"follow_up_id"`
	LeadID     uuid.UUID `json:"lead_id"`
	WasOverdue bool      `json:"was_overdue"`
}

// NewFollowUpCompletedEvent creates a new FollowUpCompletedEvent
func NewFollowUpCompletedEvent(f *FollowUp, at time.Time) *FollowUpCompletedEvent {
	return &FollowUpCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFollowUpCompleted, AggregateTypeFollowUp, f.ID, at),
		FollowUpID:      f.ID,
		LeadID:          f.LeadID,
		WasOverdue:      f.ScheduledAt.Before(at),
	}
}

// EventType returns the event type name
func (e *FollowUpCompletedEvent) EventType() string {
	return EventTypeFollowUpCompleted
}
