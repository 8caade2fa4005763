package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
)

// BuildingCategory classifies a development project
type BuildingCategory string

const (
	CategoryVillaComplex     BuildingCategory = "villa-complex"
	CategoryApartmentComplex BuildingCategory = "apartment-complex"
	CategoryPlotDevelopment  BuildingCategory = "plot-development"
	CategoryLandParcel       BuildingCategory = "land-parcel"
)

// IsValid checks if the category is known
func (c BuildingCategory) IsValid() bool {
	switch c {
	case CategoryVillaComplex, CategoryApartmentComplex, CategoryPlotDevelopment, CategoryLandParcel:
		return true
	}
	return false
}

// ConstructionStatus represents how far a project has been built
type ConstructionStatus string

const (
	ConstructionPlanned           ConstructionStatus = "planned"
	ConstructionUnderConstruction ConstructionStatus = "under-construction"
	ConstructionCompleted         ConstructionStatus = "completed"
)

// IsValid checks if the construction status is known
func (s ConstructionStatus) IsValid() bool {
	switch s {
	case ConstructionPlanned, ConstructionUnderConstruction, ConstructionCompleted:
		return true
	}
	return false
}

func (s ConstructionStatus) rank() int {
	switch s {
	case ConstructionPlanned:
		return 0
	case ConstructionUnderConstruction:
		return 1
	case ConstructionCompleted:
		return 2
	}
	return -1
}

// Building is the top-level inventory record for a development project.
//
// The unit counters are a cache of the FloorUnit state beneath it. They are
// only changed by sales, reversals and reconciliation; TotalUnits is always
// the sum of the floors' TotalSubUnits as of the last reconciliation.
type Building struct {
	shared.BaseAggregateRoot
	ProjectName        string
	Location           string
	Category           BuildingCategory
	ConstructionStatus ConstructionStatus
	CompletionDate     *time.Time
	PriceRange         valueobject.PriceRange
	Description        string
	MediaURLs          []string
	TotalUnits         int
	AvailableUnits     int
	SoldUnits          int
}

// NewBuilding creates a new building with zeroed counters
func NewBuilding(
	projectName, location string,
	category BuildingCategory,
	status ConstructionStatus,
	priceRange valueobject.PriceRange,
	now time.Time,
) (*Building, error) {
	projectName = strings.TrimSpace(projectName)
	location = strings.TrimSpace(location)
	if projectName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Project name cannot be empty")
	}
	if location == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Location cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, fmt.Sprintf("Unknown property category %q", category))
	}
	if status == "" {
		status = ConstructionPlanned
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, fmt.Sprintf("Unknown construction status %q", status))
	}

	b := &Building{
		BaseAggregateRoot:  shared.NewBaseAggregateRootAt(now),
		ProjectName:        projectName,
		Location:           location,
		Category:           category,
		ConstructionStatus: status,
		PriceRange:         priceRange,
		MediaURLs:          make([]string, 0),
	}
	if status == ConstructionCompleted {
		completed := now
		b.CompletionDate = &completed
	}

	b.AddDomainEvent(NewBuildingCreatedEvent(b))

	return b, nil
}

// UpdateDetails replaces the descriptive attributes of the building
func (b *Building) UpdateDetails(projectName, location, description string, priceRange valueobject.PriceRange, mediaURLs []string, now time.Time) error {
	projectName = strings.TrimSpace(projectName)
	location = strings.TrimSpace(location)
	if projectName == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Project name cannot be empty")
	}
	if location == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Location cannot be empty")
	}

	b.ProjectName = projectName
	b.Location = location
	b.Description = description
	b.PriceRange = priceRange
	if mediaURLs != nil {
		b.MediaURLs = append(make([]string, 0, len(mediaURLs)), mediaURLs...)
	}
	b.MarkChanged(now)

	return nil
}

// AdvanceConstruction moves the construction status forward.
// Completing a project without a completion date stamps it with now.
func (b *Building) AdvanceConstruction(target ConstructionStatus, completionDate *time.Time, now time.Time) error {
	if !target.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidArgument, fmt.Sprintf("Unknown construction status %q", target))
	}
	if target.rank() <= b.ConstructionStatus.rank() {
		return shared.NewDomainError(shared.CodeInvalidStateTransition,
			fmt.Sprintf("Cannot move construction from %s to %s", b.ConstructionStatus, target))
	}

	b.ConstructionStatus = target
	switch {
	case completionDate != nil:
		d := *completionDate
		b.CompletionDate = &d
	case target == ConstructionCompleted:
		d := now
		b.CompletionDate = &d
	}
	b.MarkChanged(now)

	return nil
}

// RecordUnitSold moves one unit from available to sold
func (b *Building) RecordUnitSold(now time.Time) error {
	if b.AvailableUnits <= 0 {
		return shared.NewDomainError(shared.CodeInventoryExhausted, "Building has no available units")
	}

	b.AvailableUnits--
	b.SoldUnits++
	b.MarkChanged(now)

	return nil
}

// RecordUnitReleased moves one unit from sold back to available
func (b *Building) RecordUnitReleased(now time.Time) error {
	if b.SoldUnits <= 0 {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Building has no sold units to release")
	}
	if b.AvailableUnits+b.SoldUnits > b.TotalUnits {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Building counters exceed total units")
	}

	b.SoldUnits--
	b.AvailableUnits++
	b.MarkChanged(now)

	return nil
}

// HasDrifted reports whether the cached counters disagree with a fresh rollup
func (b *Building) HasDrifted(o Occupancy) bool {
	return b.TotalUnits != o.TotalUnits ||
		b.AvailableUnits != o.AvailableUnits ||
		b.SoldUnits != o.SoldUnits
}

// Reconcile overwrites the cached counters with a fresh rollup.
// Returns true when the counters actually changed.
func (b *Building) Reconcile(o Occupancy, now time.Time) bool {
	if !b.HasDrifted(o) {
		return false
	}

	before := b.snapshot()
	b.TotalUnits = o.TotalUnits
	b.AvailableUnits = o.AvailableUnits
	b.SoldUnits = o.SoldUnits
	b.MarkChanged(now)

	b.AddDomainEvent(NewBuildingReconciledEvent(b, before, o, now))

	return true
}

// CheckInvariant verifies available + sold never exceeds total
func (b *Building) CheckInvariant() error {
	if b.AvailableUnits < 0 || b.SoldUnits < 0 {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Building counters cannot be negative")
	}
	if b.AvailableUnits+b.SoldUnits > b.TotalUnits {
		return shared.NewDomainError(shared.CodeInvalidStateTransition,
			fmt.Sprintf("Building counters exceed total units (%d + %d > %d)", b.AvailableUnits, b.SoldUnits, b.TotalUnits))
	}
	return nil
}

func (b *Building) snapshot() Occupancy {
	return NewOccupancy(b.TotalUnits, b.AvailableUnits, b.SoldUnits)
}
