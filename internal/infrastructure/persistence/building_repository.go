package persistence

import (
	"context"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBuildingRepository implements BuildingRepository using GORM
type GormBuildingRepository struct {
	db *gorm.DB
}

// NewGormBuildingRepository creates a new GormBuildingRepository
func NewGormBuildingRepository(db *gorm.DB) *GormBuildingRepository {
	return &GormBuildingRepository{db: db}
}

// FindByID finds a building by its ID
func (r *GormBuildingRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Building, error) {
	var model models.BuildingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundError(err, "Building")
	}
	return model.ToDomain(), nil
}

// FindAll finds buildings matching the filter
func (r *GormBuildingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Building, error) {
	var rows []models.BuildingModel
	query := applyOrderAndPage(
		r.applyFilter(r.db.WithContext(ctx).Model(&models.BuildingModel{}), filter),
		filter, BuildingSortFields, "created_at",
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	buildings := make([]inventory.Building, len(rows))
	for i := range rows {
		buildings[i] = *rows[i].ToDomain()
	}
	return buildings, nil
}

// ListIDs returns the IDs of every building, oldest first
func (r *GormBuildingRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.BuildingModel{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Count counts buildings matching the filter
func (r *GormBuildingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BuildingModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a building
func (r *GormBuildingRepository) Save(ctx context.Context, building *inventory.Building) error {
	return r.db.WithContext(ctx).Save(models.BuildingModelFromDomain(building)).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormBuildingRepository) SaveWithLock(ctx context.Context, building *inventory.Building, expectedVersion int) error {
	return saveWithVersion(ctx, r.db, models.BuildingModelFromDomain(building), building.ID, expectedVersion, "Building")
}

// Delete deletes a building
func (r *GormBuildingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.BuildingModel{}, id, "Building")
}

// applyFilter applies search and field filters without pagination
func (r *GormBuildingRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(project_name) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "category":
			query = query.Where("category = ?", value)
		case "construction_status":
			query = query.Where("construction_status = ?", value)
		}
	}
	return query
}

// Ensure GormBuildingRepository implements BuildingRepository
var _ inventory.BuildingRepository = (*GormBuildingRepository)(nil)
