package persistence

import (
	"context"

	"github.com/estateflow/backend/internal/domain/pipeline"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/estateflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLeadRepository implements LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// FindByID finds a lead by its ID
func (r *GormLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*pipeline.Lead, error) {
	var model models.LeadModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundError(err, "Lead")
	}
	return model.ToDomain(), nil
}

// FindAll finds leads matching the filter
func (r *GormLeadRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pipeline.Lead, error) {
	return r.find(r.db.WithContext(ctx), filter)
}

// FindByStage finds leads in a stage
func (r *GormLeadRepository) FindByStage(ctx context.Context, stage pipeline.Stage, filter shared.Filter) ([]pipeline.Lead, error) {
	return r.find(r.db.WithContext(ctx).Where("stage = ?", string(stage)), filter)
}

// FindByAgent finds leads assigned to an agent
func (r *GormLeadRepository) FindByAgent(ctx context.Context, agentID uuid.UUID, filter shared.Filter) ([]pipeline.Lead, error) {
	return r.find(r.db.WithContext(ctx).Where("agent_id = ?", agentID), filter)
}

// FindCreatedIn finds every lead created inside the half-open period
func (r *GormLeadRepository) FindCreatedIn(ctx context.Context, period valueobject.Period) ([]pipeline.Lead, error) {
	query := r.db.WithContext(ctx)
	if !period.Start.IsZero() {
		query = query.Where("created_at >= ?", period.Start)
	}
	if !period.End.IsZero() {
		query = query.Where("created_at < ?", period.End)
	}

	var rows []models.LeadModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLeads(rows), nil
}

// Count counts leads matching the filter
func (r *GormLeadRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.LeadModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a lead
func (r *GormLeadRepository) Save(ctx context.Context, lead *pipeline.Lead) error {
	return r.db.WithContext(ctx).Save(models.LeadModelFromDomain(lead)).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormLeadRepository) SaveWithLock(ctx context.Context, lead *pipeline.Lead, expectedVersion int) error {
	return saveWithVersion(ctx, r.db, models.LeadModelFromDomain(lead), lead.ID, expectedVersion, "Lead")
}

func (r *GormLeadRepository) find(query *gorm.DB, filter shared.Filter) ([]pipeline.Lead, error) {
	var rows []models.LeadModel
	query = applyOrderAndPage(r.applyFilter(query, filter), filter, LeadSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLeads(rows), nil
}

// applyFilter applies search and field filters without pagination
func (r *GormLeadRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"LOWER(customer_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern,
		)
	}
	for key, value := range filter.Filters {
		switch key {
		case "stage":
			query = query.Where("stage = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "agent_id":
			query = query.Where("agent_id = ?", value)
		}
	}
	return query
}

func toLeads(rows []models.LeadModel) []pipeline.Lead {
	leads := make([]pipeline.Lead, len(rows))
	for i := range rows {
		leads[i] = *rows[i].ToDomain()
	}
	return leads
}

// Ensure GormLeadRepository implements LeadRepository
var _ pipeline.LeadRepository = (*GormLeadRepository)(nil)
