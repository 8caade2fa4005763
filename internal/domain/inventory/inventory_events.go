package inventory

import (
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeBuilding  = "Building"
	AggregateTypeFloorUnit = "FloorUnit"
	AggregateTypeProperty  = "Property"
)

// Event type constants
const (
	EventTypeBuildingCreated       = "BuildingCreated"
	EventTypeBuildingReconciled    = "BuildingReconciled"
	EventTypeSubUnitsAdded         = "SubUnitsAdded"
	EventTypePropertySold          = "PropertySold"
	EventTypePropertySaleReversed  = "PropertySaleReversed"
	EventTypePropertyStatusChanged = "PropertyStatusChanged"
	EventTypePaymentRecorded       = "PaymentRecorded"
)

// BuildingCreatedEvent is raised when a development project is registered
type BuildingCreatedEvent struct {
	shared.BaseDomainEvent
	BuildingID  uuid.UUID        `json:"building_id"`
	ProjectName string           `json:"project_name"`
	Category    BuildingCategory `json:"category"`
}

// NewBuildingCreatedEvent creates a new BuildingCreatedEvent
func NewBuildingCreatedEvent(b *Building) *BuildingCreatedEvent {
	return &BuildingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBuildingCreated, AggregateTypeBuilding, b.ID, b.CreatedAt),
		BuildingID:      b.ID,
		ProjectName:     b.ProjectName,
		Category:        b.Category,
	}
}

// EventType returns the event type name
func (e *BuildingCreatedEvent) EventType() string {
	return EventTypeBuildingCreated
}

// BuildingReconciledEvent is raised when cached counters were found to have
// drifted from the floor rollup and were rewritten
type BuildingReconciledEvent struct {
	shared.BaseDomainEvent
	BuildingID uuid.UUID `json:"building_id"`
	Before     Occupancy `json:"before"`
	After      Occupancy `json:"after"`
}

// NewBuildingReconciledEvent creates a new BuildingReconciledEvent
func NewBuildingReconciledEvent(b *Building, before, after Occupancy, at time.Time) *BuildingReconciledEvent {
	return &BuildingReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBuildingReconciled, AggregateTypeBuilding, b.ID, at),
		BuildingID:      b.ID,
		Before:          before,
		After:           after,
	}
}

// EventType returns the event type name
func (e *BuildingReconciledEvent) EventType() string {
	return EventTypeBuildingReconciled
}

// SubUnitsAddedEvent is raised when a floor unit's inventory grows.
// Listeners use it to reconcile the parent building.
type SubUnitsAddedEvent struct {
	shared.BaseDomainEvent
	FloorUnitID   uuid.UUID `json:"floor_unit_id"`
	BuildingID    uuid.UUID `json:"building_id"`
	Count         int       `json:"count"`
	TotalSubUnits int       `json:"total_sub_units"`
}

// NewSubUnitsAddedEvent creates a new SubUnitsAddedEvent
func NewSubUnitsAddedEvent(f *FloorUnit, count int, at time.Time) *SubUnitsAddedEvent {
	return &SubUnitsAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubUnitsAdded, AggregateTypeFloorUnit, f.ID, at),
		FloorUnitID:     f.ID,
		BuildingID:      f.BuildingID,
		Count:           count,
		TotalSubUnits:   f.TotalSubUnits,
	}
}

// EventType returns the event type name
func (e *SubUnitsAddedEvent) EventType() string {
	return EventTypeSubUnitsAdded
}

// PropertySoldEvent is raised when a sub-unit is sold
type PropertySoldEvent struct {
	shared.BaseDomainEvent
	PropertyID  uuid.UUID       `json:"property_id"`
	FloorUnitID uuid.UUID       `json:"floor_unit_id"`
	BuildingID  uuid.UUID       `json:"building_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewPropertySoldEvent creates a new PropertySoldEvent
func NewPropertySoldEvent(p *Property, at time.Time) *PropertySoldEvent {
	var customerID uuid.UUID
	if p.CustomerID != nil {
		customerID = *p.CustomerID
	}
	return &PropertySoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePropertySold, AggregateTypeProperty, p.ID, at),
		PropertyID:      p.ID,
		FloorUnitID:     p.FloorUnitID,
		BuildingID:      p.BuildingID,
		CustomerID:      customerID,
		TotalAmount:     p.TotalAmount,
	}
}

// EventType returns the event type name
func (e *PropertySoldEvent) EventType() string {
	return EventTypePropertySold
}

// PropertySaleReversedEvent is raised when a sale is undone
type PropertySaleReversedEvent struct {
	shared.BaseDomainEvent
	PropertyID         uuid.UUID  `json:"property_id"`
	FloorUnitID        uuid.UUID  `json:"floor_unit_id"`
	BuildingID         uuid.UUID  `json:"building_id"`
	PreviousCustomerID *uuid.UUID `json:"previous_customer_id,omitempty"`
}

// NewPropertySaleReversedEvent creates a new PropertySaleReversedEvent
func NewPropertySaleReversedEvent(p *Property, previousCustomer *uuid.UUID, at time.Time) *PropertySaleReversedEvent {
	return &PropertySaleReversedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypePropertySaleReversed, AggregateTypeProperty, p.ID, at),
		PropertyID:         p.ID,
		FloorUnitID:        p.FloorUnitID,
		BuildingID:         p.BuildingID,
		PreviousCustomerID: previousCustomer,
	}
}

// EventType returns the event type name
func (e *PropertySaleReversedEvent) EventType() string {
	return EventTypePropertySaleReversed
}

// PropertyStatusChangedEvent covers reservations, blocks, releases and
// construction completion
type PropertyStatusChangedEvent struct {
	shared.BaseDomainEvent
	PropertyID uuid.UUID      `json:"property_id"`
	FromStatus PropertyStatus `json:"from_status"`
	ToStatus   PropertyStatus `json:"to_status"`
}

// NewPropertyStatusChangedEvent creates a new PropertyStatusChangedEvent
func NewPropertyStatusChangedEvent(p *Property, from PropertyStatus, at time.Time) *PropertyStatusChangedEvent {
	return &PropertyStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePropertyStatusChanged, AggregateTypeProperty, p.ID, at),
		PropertyID:      p.ID,
		FromStatus:      from,
		ToStatus:        p.Status,
	}
}

// EventType returns the event type name
func (e *PropertyStatusChangedEvent) EventType() string {
	return EventTypePropertyStatusChanged
}

// PaymentRecordedEvent is raised when money is received against a property
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PropertyID     uuid.UUID       `json:"property_id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Property, amount decimal.Decimal, at time.Time) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeProperty, p.ID, at),
		PropertyID:      p.ID,
		Amount:          amount,
		AmountReceived:  p.AmountReceived,
		BalanceAmount:   p.BalanceAmount,
	}
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return EventTypePaymentRecorded
}
