package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyStatus represents the sale status of an individual sub-unit
type PropertyStatus string

const (
	PropertyStatusAvailable         PropertyStatus = "available"
	PropertyStatusSold              PropertyStatus = "sold"
	PropertyStatusUnderConstruction PropertyStatus = "under-construction"
	PropertyStatusReserved          PropertyStatus = "reserved"
	PropertyStatusBlocked           PropertyStatus = "blocked"
)

// IsValid checks if the status is a valid PropertyStatus
func (s PropertyStatus) IsValid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusSold, PropertyStatusUnderConstruction,
		PropertyStatusReserved, PropertyStatusBlocked:
		return true
	}
	return false
}

// String returns the string representation of PropertyStatus
func (s PropertyStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// sold -> available is the sale reversal path.
func (s PropertyStatus) CanTransitionTo(target PropertyStatus) bool {
	switch s {
	case PropertyStatusAvailable:
		return target == PropertyStatusReserved || target == PropertyStatusBlocked || target == PropertyStatusSold
	case PropertyStatusReserved:
		return target == PropertyStatusBlocked || target == PropertyStatusSold || target == PropertyStatusAvailable
	case PropertyStatusBlocked:
		return target == PropertyStatusAvailable
	case PropertyStatusSold:
		return target == PropertyStatusAvailable
	case PropertyStatusUnderConstruction:
		return target == PropertyStatusAvailable
	}
	return false
}

// Property is an individually saleable sub-unit with its own financials
type Property struct {
	shared.BaseAggregateRoot
	FloorUnitID         uuid.UUID
	BuildingID          uuid.UUID
	UnitNumber          string
	Status              PropertyStatus
	TotalAmount         decimal.Decimal
	AmountReceived      decimal.Decimal
	BalanceAmount       decimal.Decimal
	CustomerID          *uuid.UUID
	AgentID             *uuid.UUID
	ContractorID        *uuid.UUID
	DeliveryDate        *time.Time
	EMIEnabled          bool
	MunicipalPermission bool
	BlockReason         string
	SoldAt              *time.Time
}

// NewProperty creates a sub-unit under the given floor unit.
// New properties start either available or under construction.
func NewProperty(floor *FloorUnit, unitNumber string, status PropertyStatus, totalAmount decimal.Decimal, now time.Time) (*Property, error) {
	unitNumber = strings.TrimSpace(unitNumber)
	if floor == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Floor unit is required")
	}
	if unitNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Unit number cannot be empty")
	}
	if status == "" {
		status = PropertyStatusAvailable
	}
	if status != PropertyStatusAvailable && status != PropertyStatusUnderConstruction {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument,
			fmt.Sprintf("A new property cannot start as %s", status))
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Total amount cannot be negative")
	}

	return &Property{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		FloorUnitID:       floor.ID,
		BuildingID:        floor.BuildingID,
		UnitNumber:        unitNumber,
		Status:            status,
		TotalAmount:       totalAmount,
		AmountReceived:    decimal.Zero,
		BalanceAmount:     totalAmount,
	}, nil
}

func (p *Property) transitionError(target PropertyStatus) error {
	return shared.NewDomainError(shared.CodeInvalidStateTransition,
		fmt.Sprintf("Cannot move property %s from %s to %s", p.UnitNumber, p.Status, target))
}

// MarkSold transitions the property to sold.
// A customer must be supplied unless a reservation already attached one.
func (p *Property) MarkSold(customerID *uuid.UUID, now time.Time) error {
	if !p.Status.CanTransitionTo(PropertyStatusSold) {
		return p.transitionError(PropertyStatusSold)
	}
	if customerID != nil && *customerID == uuid.Nil {
		customerID = nil
	}
	if customerID == nil && p.CustomerID == nil {
		return shared.NewDomainError(shared.CodeInvalidArgument, "A purchasing customer is required to record a sale")
	}

	if customerID != nil {
		c := *customerID
		p.CustomerID = &c
	}
	soldAt := now
	p.Status = PropertyStatusSold
	p.SoldAt = &soldAt
	p.BlockReason = ""
	p.MarkChanged(now)

	p.AddDomainEvent(NewPropertySoldEvent(p, now))

	return nil
}

// RevertSale reverses a sale, returning the property to available
func (p *Property) RevertSale(now time.Time) error {
	if p.Status != PropertyStatusSold {
		return shared.NewDomainError(shared.CodeInvalidStateTransition,
			fmt.Sprintf("Cannot reverse sale of property %s in %s status", p.UnitNumber, p.Status))
	}

	previousCustomer := p.CustomerID
	p.Status = PropertyStatusAvailable
	p.CustomerID = nil
	p.SoldAt = nil
	p.MarkChanged(now)

	p.AddDomainEvent(NewPropertySaleReversedEvent(p, previousCustomer, now))

	return nil
}

// Reserve holds the property for a prospective customer
func (p *Property) Reserve(customerID uuid.UUID, now time.Time) error {
	if !p.Status.CanTransitionTo(PropertyStatusReserved) {
		return p.transitionError(PropertyStatusReserved)
	}
	if customerID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Customer ID cannot be empty")
	}

	p.Status = PropertyStatusReserved
	p.CustomerID = &customerID
	p.MarkChanged(now)

	p.AddDomainEvent(NewPropertyStatusChangedEvent(p, PropertyStatusAvailable, now))

	return nil
}

// Block takes the property off the market
func (p *Property) Block(reason string, now time.Time) error {
	if !p.Status.CanTransitionTo(PropertyStatusBlocked) {
		return p.transitionError(PropertyStatusBlocked)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Block reason is required")
	}

	from := p.Status
	p.Status = PropertyStatusBlocked
	p.BlockReason = reason
	p.MarkChanged(now)

	p.AddDomainEvent(NewPropertyStatusChangedEvent(p, from, now))

	return nil
}

// Release returns a reserved or blocked property to the market
func (p *Property) Release(now time.Time) error {
	if p.Status != PropertyStatusReserved && p.Status != PropertyStatusBlocked {
		return p.transitionError(PropertyStatusAvailable)
	}

	from := p.Status
	p.Status = PropertyStatusAvailable
	p.CustomerID = nil
	p.BlockReason = ""
	p.MarkChanged(now)

	p.AddDomainEvent(NewPropertyStatusChangedEvent(p, from, now))

	return nil
}

// CompleteConstruction makes an under-construction property saleable
func (p *Property) CompleteConstruction(now time.Time) error {
	if p.Status != PropertyStatusUnderConstruction {
		return p.transitionError(PropertyStatusAvailable)
	}

	p.Status = PropertyStatusAvailable
	p.MarkChanged(now)

	p.AddDomainEvent(NewPropertyStatusChangedEvent(p, PropertyStatusUnderConstruction, now))

	return nil
}

// RecordPayment registers money received from the customer
func (p *Property) RecordPayment(amount decimal.Decimal, now time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Payment amount must be positive")
	}
	if amount.GreaterThan(p.BalanceAmount) {
		return shared.NewDomainError(shared.CodeInvalidArgument,
			fmt.Sprintf("Payment %s exceeds outstanding balance %s", amount.StringFixed(2), p.BalanceAmount.StringFixed(2)))
	}

	p.AmountReceived = p.AmountReceived.Add(amount)
	p.recalculateBalance()
	p.MarkChanged(now)

	p.AddDomainEvent(NewPaymentRecordedEvent(p, amount, now))

	return nil
}

// SetTotalAmount reprices the property; it cannot drop below what was received
func (p *Property) SetTotalAmount(total decimal.Decimal, now time.Time) error {
	if total.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Total amount cannot be negative")
	}
	if total.LessThan(p.AmountReceived) {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Total amount cannot be less than the amount already received")
	}

	p.TotalAmount = total
	p.recalculateBalance()
	p.MarkChanged(now)

	return nil
}

// AssignAgent sets or clears the selling agent
func (p *Property) AssignAgent(agentID *uuid.UUID, now time.Time) {
	p.AgentID = normalizeRef(agentID)
	p.MarkChanged(now)
}

// AssignContractor sets or clears the contractor
func (p *Property) AssignContractor(contractorID *uuid.UUID, now time.Time) {
	p.ContractorID = normalizeRef(contractorID)
	p.MarkChanged(now)
}

// SetDeliveryDate sets or clears the expected handover date
func (p *Property) SetDeliveryDate(date *time.Time, now time.Time) {
	if date == nil {
		p.DeliveryDate = nil
	} else {
		d := *date
		p.DeliveryDate = &d
	}
	p.MarkChanged(now)
}

// SetFlags sets the EMI scheme and municipal permission flags
func (p *Property) SetFlags(emiEnabled, municipalPermission bool, now time.Time) {
	p.EMIEnabled = emiEnabled
	p.MunicipalPermission = municipalPermission
	p.MarkChanged(now)
}

// BalanceMoney returns the outstanding balance as Money
func (p *Property) BalanceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.BalanceAmount)
}

// IsFullyPaid returns true if nothing is outstanding
func (p *Property) IsFullyPaid() bool {
	return p.BalanceAmount.IsZero()
}

func (p *Property) recalculateBalance() {
	p.BalanceAmount = p.TotalAmount.Sub(p.AmountReceived)
}

func normalizeRef(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}
