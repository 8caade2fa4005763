package persistence

import (
	"context"

	"github.com/estateflow/backend/internal/domain/pipeline"
	"github.com/estateflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFollowUpRepository implements FollowUpRepository using GORM
type GormFollowUpRepository struct {
	db *gorm.DB
}

// NewGormFollowUpRepository creates a new GormFollowUpRepository
func NewGormFollowUpRepository(db *gorm.DB) *GormFollowUpRepository {
	return &GormFollowUpRepository{db: db}
}

// FindByID finds a follow-up by its ID
func (r *GormFollowUpRepository) FindByID(ctx context.Context, id uuid.UUID) (*pipeline.FollowUp, error) {
	var model models.FollowUpModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundError(err, "Follow-up")
	}
	return model.ToDomain(), nil
}

// FindByLead finds every follow-up of a lead ordered by scheduled time
func (r *GormFollowUpRepository) FindByLead(ctx context.Context, leadID uuid.UUID) ([]pipeline.FollowUp, error) {
	return r.find(r.db.WithContext(ctx).Where("lead_id = ?", leadID))
}

// FindPending finds every follow-up that is not completed
func (r *GormFollowUpRepository) FindPending(ctx context.Context) ([]pipeline.FollowUp, error) {
	return r.find(r.db.WithContext(ctx).Where("completed = ?", false))
}

// FindPendingByAssignee finds pending follow-ups assigned to a user
func (r *GormFollowUpRepository) FindPendingByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]pipeline.FollowUp, error) {
	return r.find(r.db.WithContext(ctx).Where("completed = ? AND assignee_id = ?", false, assigneeID))
}

// Save creates or updates a follow-up
func (r *GormFollowUpRepository) Save(ctx context.Context, followUp *pipeline.FollowUp) error {
	return r.db.WithContext(ctx).Save(models.FollowUpModelFromDomain(followUp)).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormFollowUpRepository) SaveWithLock(ctx context.Context, followUp *pipeline.FollowUp, expectedVersion int) error {
	return saveWithVersion(ctx, r.db, models.FollowUpModelFromDomain(followUp), followUp.ID, expectedVersion, "Follow-up")
}

func (r *GormFollowUpRepository) find(query *gorm.DB) ([]pipeline.FollowUp, error) {
	var rows []models.FollowUpModel
	if err := query.Order("scheduled_at ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	followUps := make([]pipeline.FollowUp, len(rows))
	for i := range rows {
		followUps[i] = *rows[i].ToDomain()
	}
	return followUps, nil
}

// Ensure GormFollowUpRepository implements FollowUpRepository
var _ pipeline.FollowUpRepository = (*GormFollowUpRepository)(nil)
