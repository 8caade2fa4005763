package persistence

import (
	"context"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPropertyRepository implements PropertyRepository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindByID finds a property by its ID
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Property, error) {
	var model models.PropertyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundError(err, "Property")
	}
	return model.ToDomain(), nil
}

// FindByFloorUnit finds properties of a floor unit
func (r *GormPropertyRepository) FindByFloorUnit(ctx context.Context, floorUnitID uuid.UUID, filter shared.Filter) ([]inventory.Property, error) {
	return r.find(r.db.WithContext(ctx).Where("floor_unit_id = ?", floorUnitID), filter)
}

// FindByBuilding finds properties of a building
func (r *GormPropertyRepository) FindByBuilding(ctx context.Context, buildingID uuid.UUID, filter shared.Filter) ([]inventory.Property, error) {
	return r.find(r.db.WithContext(ctx).Where("building_id = ?", buildingID), filter)
}

func (r *GormPropertyRepository) find(query *gorm.DB, filter shared.Filter) ([]inventory.Property, error) {
	var rows []models.PropertyModel
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "unit_number", "asc"
	}
	query = applyOrderAndPage(r.applyFilter(query, filter), filter, PropertySortFields, "unit_number")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	properties := make([]inventory.Property, len(rows))
	for i := range rows {
		properties[i] = *rows[i].ToDomain()
	}
	return properties, nil
}

// CountByFloorUnit counts property records under a floor unit
func (r *GormPropertyRepository) CountByFloorUnit(ctx context.Context, floorUnitID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PropertyModel{}).
		Where("floor_unit_id = ?", floorUnitID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a property
func (r *GormPropertyRepository) Save(ctx context.Context, property *inventory.Property) error {
	return r.db.WithContext(ctx).Save(models.PropertyModelFromDomain(property)).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPropertyRepository) SaveWithLock(ctx context.Context, property *inventory.Property, expectedVersion int) error {
	return saveWithVersion(ctx, r.db, models.PropertyModelFromDomain(property), property.ID, expectedVersion, "Property")
}

// Delete deletes a property
func (r *GormPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.PropertyModel{}, id, "Property")
}

func (r *GormPropertyRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(unit_number) LIKE ?", likePattern(filter.Search))
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "agent_id":
			query = query.Where("agent_id = ?", value)
		}
	}
	return query
}

// Ensure GormPropertyRepository implements PropertyRepository
var _ inventory.PropertyRepository = (*GormPropertyRepository)(nil)
