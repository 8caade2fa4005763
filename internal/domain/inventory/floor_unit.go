package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// FloorUnit groups identical sub-units on one floor of a building,
// e.g. all "2 BHK" flats on floor 3.
type FloorUnit struct {
	shared.BaseAggregateRoot
	BuildingID        uuid.UUID
	FloorNumber       int
	UnitType          string
	TotalSubUnits     int
	AvailableSubUnits int
	PriceRange        valueobject.PriceRange
}

// NewFloorUnit creates a floor unit with every sub-unit available
func NewFloorUnit(buildingID uuid.UUID, floorNumber int, unitType string, totalSubUnits int, priceRange valueobject.PriceRange, now time.Time) (*FloorUnit, error) {
	unitType = strings.TrimSpace(unitType)
	if buildingID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Building ID cannot be empty")
	}
	if floorNumber < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Floor number must be at least 1")
	}
	if unitType == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Unit type cannot be empty")
	}
	if totalSubUnits < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Total sub-units must be at least 1")
	}

	return &FloorUnit{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		BuildingID:        buildingID,
		FloorNumber:       floorNumber,
		UnitType:          unitType,
		TotalSubUnits:     totalSubUnits,
		AvailableSubUnits: totalSubUnits,
		PriceRange:        priceRange,
	}, nil
}

// SoldSubUnits is the derived number of sold sub-units
func (f *FloorUnit) SoldSubUnits() int {
	return f.TotalSubUnits - f.AvailableSubUnits
}

// ClaimSubUnit takes one sub-unit out of availability for a sale
func (f *FloorUnit) ClaimSubUnit(now time.Time) error {
	if f.AvailableSubUnits <= 0 {
		return shared.NewDomainError(shared.CodeInventoryExhausted,
			fmt.Sprintf("No sub-units available on floor %d (%s)", f.FloorNumber, f.UnitType))
	}

	f.AvailableSubUnits--
	f.MarkChanged(now)

	return nil
}

// ReleaseSubUnit returns one sub-unit to availability after a sale reversal
func (f *FloorUnit) ReleaseSubUnit(now time.Time) error {
	if f.AvailableSubUnits >= f.TotalSubUnits {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Floor unit has no sold sub-units to release")
	}

	f.AvailableSubUnits++
	f.MarkChanged(now)

	return nil
}

// AddSubUnits grows the floor's inventory; new sub-units are available
func (f *FloorUnit) AddSubUnits(count int, now time.Time) error {
	if count <= 0 {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Sub-unit count must be positive")
	}

	f.TotalSubUnits += count
	f.AvailableSubUnits += count
	f.MarkChanged(now)

	f.AddDomainEvent(NewSubUnitsAddedEvent(f, count, now))

	return nil
}

// UpdateDetails changes the unit type label and price band
func (f *FloorUnit) UpdateDetails(unitType string, priceRange valueobject.PriceRange, now time.Time) error {
	unitType = strings.TrimSpace(unitType)
	if unitType == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Unit type cannot be empty")
	}

	f.UnitType = unitType
	f.PriceRange = priceRange
	f.MarkChanged(now)

	return nil
}

// CanDelete reports whether the floor unit can be removed.
// Only floors without outstanding sales may be deleted.
func (f *FloorUnit) CanDelete() error {
	if f.AvailableSubUnits != f.TotalSubUnits {
		return shared.NewDomainError(shared.CodeInvalidStateTransition,
			fmt.Sprintf("Floor unit has %d sold sub-units and cannot be deleted", f.SoldSubUnits()))
	}
	return nil
}
