package pipeline

import (
	"strings"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FollowUp is a scheduled action item against a lead.
// Completion is the only mutation; rescheduling creates a new FollowUp.
type FollowUp struct {
	shared.BaseAggregateRoot
	LeadID      uuid.UUID
	Title       string
	Description string
	ScheduledAt time.Time
	AssigneeID  *uuid.UUID
	Completed   bool
	CompletedAt *time.Time
	// RescheduledFrom links a follow-up to the one it replaced
	RescheduledFrom *uuid.UUID
}

// NewFollowUp creates a pending follow-up for a lead
func NewFollowUp(leadID uuid.UUID, title, description string, scheduledAt time.Time, assigneeID *uuid.UUID, now time.Time) (*FollowUp, error) {
	title = strings.TrimSpace(title)
	if leadID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Lead ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Follow-up title cannot be empty")
	}
	if scheduledAt.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Scheduled time is required")
	}

	f := &FollowUp{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		LeadID:            leadID,
		Title:             title,
		Description:       strings.TrimSpace(description),
		ScheduledAt:       scheduledAt,
		AssigneeID:        copyID(assigneeID),
	}

	f.AddDomainEvent(NewFollowUpScheduledEvent(f, now))

	return f, nil
}

// Complete marks the follow-up done. A second call fails and leaves the
// follow-up untouched.
func (f *FollowUp) Complete(now time.Time) error {
	if f.Completed {
		return shared.NewDomainError(shared.CodeAlreadyCompleted, "Follow-up is already completed")
	}

	completedAt := now
	f.Completed = true
	f.CompletedAt = &completedAt
	f.MarkChanged(now)

	f.AddDomainEvent(NewFollowUpCompletedEvent(f, now))

	return nil
}

// Reschedule returns a new pending follow-up at a different time.
// The receiver is left exactly as it was.
func (f *FollowUp) Reschedule(scheduledAt time.Time, now time.Time) (*FollowUp, error) {
	if f.Completed {
		return nil, shared.NewDomainError(shared.CodeAlreadyCompleted, "Completed follow-ups cannot be rescheduled")
	}

	next, err := NewFollowUp(f.LeadID, f.Title, f.Description, scheduledAt, f.AssigneeID, now)
	if err != nil {
		return nil, err
	}
	from := f.ID
	next.RescheduledFrom = &from

	return next, nil
}

// IsOverdue reports whether a pending follow-up's time has passed
func (f *FollowUp) IsOverdue(now time.Time) bool {
	return !f.Completed && f.ScheduledAt.Before(now)
}
