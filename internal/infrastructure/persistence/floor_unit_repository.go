package persistence

import (
	"context"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFloorUnitRepository implements FloorUnitRepository using GORM
type GormFloorUnitRepository struct {
	db *gorm.DB
}

// NewGormFloorUnitRepository creates a new GormFloorUnitRepository
func NewGormFloorUnitRepository(db *gorm.DB) *GormFloorUnitRepository {
	return &GormFloorUnitRepository{db: db}
}

// FindByID finds a floor unit by its ID
func (r *GormFloorUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.FloorUnit, error) {
	var model models.FloorUnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundError(err, "Floor unit")
	}
	return model.ToDomain(), nil
}

// FindByBuilding finds every floor unit of a building ordered by floor number
func (r *GormFloorUnitRepository) FindByBuilding(ctx context.Context, buildingID uuid.UUID) ([]inventory.FloorUnit, error) {
	var rows []models.FloorUnitModel
	if err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("floor_number ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	floors := make([]inventory.FloorUnit, len(rows))
	for i := range rows {
		floors[i] = *rows[i].ToDomain()
	}
	return floors, nil
}

// CountByBuilding counts floor units referencing a building
func (r *GormFloorUnitRepository) CountByBuilding(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FloorUnitModel{}).
		Where("building_id = ?", buildingID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a floor unit
func (r *GormFloorUnitRepository) Save(ctx context.Context, floor *inventory.FloorUnit) error {
	return r.db.WithContext(ctx).Save(models.FloorUnitModelFromDomain(floor)).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormFloorUnitRepository) SaveWithLock(ctx context.Context, floor *inventory.FloorUnit, expectedVersion int) error {
	return saveWithVersion(ctx, r.db, models.FloorUnitModelFromDomain(floor), floor.ID, expectedVersion, "Floor unit")
}

// Delete deletes a floor unit
func (r *GormFloorUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.FloorUnitModel{}, id, "Floor unit")
}

// Ensure GormFloorUnitRepository implements FloorUnitRepository
var _ inventory.FloorUnitRepository = (*GormFloorUnitRepository)(nil)
