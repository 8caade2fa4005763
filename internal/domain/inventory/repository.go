package inventory

import (
	"context"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BuildingRepository defines the interface for building persistence
type BuildingRepository interface {
	// FindByID finds a building by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Building, error)

	// FindAll finds buildings matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Building, error)

	// ListIDs returns the IDs of every building, used by reconciliation passes
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// Count counts buildings matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a building
	Save(ctx context.Context, building *Building) error

	// SaveWithLock updates a building only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, building *Building, expectedVersion int) error

	// Delete deletes a building
	Delete(ctx context.Context, id uuid.UUID) error
}

// FloorUnitRepository defines the interface for floor unit persistence
type FloorUnitRepository interface {
	// FindByID finds a floor unit by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FloorUnit, error)

	// FindByBuilding finds every floor unit of a building ordered by floor number
	FindByBuilding(ctx context.Context, buildingID uuid.UUID) ([]FloorUnit, error)

	// CountByBuilding counts floor units referencing a building
	CountByBuilding(ctx context.Context, buildingID uuid.UUID) (int64, error)

	// Save creates or updates a floor unit
	Save(ctx context.Context, floor *FloorUnit) error

	// SaveWithLock updates a floor unit only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, floor *FloorUnit, expectedVersion int) error

	// Delete deletes a floor unit
	Delete(ctx context.Context, id uuid.UUID) error
}

// PropertyRepository defines the interface for property persistence
type PropertyRepository interface {
	// FindByID finds a property by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)

	// FindByFloorUnit finds properties of a floor unit
	FindByFloorUnit(ctx context.Context, floorUnitID uuid.UUID, filter shared.Filter) ([]Property, error)

	// FindByBuilding finds properties of a building
	FindByBuilding(ctx context.Context, buildingID uuid.UUID, filter shared.Filter) ([]Property, error)

	// CountByFloorUnit counts property records under a floor unit
	CountByFloorUnit(ctx context.Context, floorUnitID uuid.UUID) (int64, error)

	// Save creates or updates a property
	Save(ctx context.Context, property *Property) error

	// SaveWithLock updates a property only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, property *Property, expectedVersion int) error

	// Delete deletes a property
	Delete(ctx context.Context, id uuid.UUID) error
}
