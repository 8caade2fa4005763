package pipeline

import (
	"context"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LeadRepository defines the interface for lead persistence.
// There is no Delete: leads are archived, never removed.
type LeadRepository interface {
	// FindByID finds a lead by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lead, error)

	// FindAll finds leads matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Lead, error)

	// FindByStage finds leads in a stage
	FindByStage(ctx context.Context, stage Stage, filter shared.Filter) ([]Lead, error)

	// FindByAgent finds leads assigned to an agent
	FindByAgent(ctx context.Context, agentID uuid.UUID, filter shared.Filter) ([]Lead, error)

	// FindCreatedIn finds every lead created inside the period
	FindCreatedIn(ctx context.Context, period valueobject.Period) ([]Lead, error)

	// Count counts leads matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a lead
	Save(ctx context.Context, lead *Lead) error

	// SaveWithLock updates a lead only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, lead *Lead, expectedVersion int) error
}

// FollowUpRepository defines the interface for follow-up persistence
type FollowUpRepository interface {
	// FindByID finds a follow-up by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FollowUp, error)

	// FindByLead finds every follow-up of a lead ordered by scheduled time
	FindByLead(ctx context.Context, leadID uuid.UUID) ([]FollowUp, error)

	// FindPending finds every follow-up that is not completed
	FindPending(ctx context.Context) ([]FollowUp, error)

	// FindPendingByAssignee finds pending follow-ups assigned to a user
	FindPendingByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]FollowUp, error)

	// Save creates or updates a follow-up
	Save(ctx context.Context, followUp *FollowUp) error

	// SaveWithLock updates a follow-up only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, followUp *FollowUp, expectedVersion int) error
}
