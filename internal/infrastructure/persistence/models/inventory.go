package models

import (
	"time"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildingModel is the persistence model for the Building aggregate root.
type BuildingModel struct {
	AggregateModel
	ProjectName        string          `gorm:"type:varchar(200);not null;index"`
	Location           string          `gorm:"type:varchar(500);not null"`
	Category           string          `gorm:"type:varchar(30);not null;index"`
	ConstructionStatus string          `gorm:"type:varchar(30);not null;index"`
	CompletionDate     *time.Time      `gorm:"type:date"`
	PriceMin           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PriceMax           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Description        string          `gorm:"type:text"`
	MediaURLs          []string        `gorm:"column:media_urls;type:text;serializer:json"`
	TotalUnits         int             `gorm:"not null;default:0"`
	AvailableUnits     int             `gorm:"not null;default:0"`
	SoldUnits          int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (BuildingModel) TableName() string {
	return "buildings"
}

// ToDomain converts the persistence model to a domain Building entity.
func (m *BuildingModel) ToDomain() *inventory.Building {
	mediaURLs := m.MediaURLs
	if mediaURLs == nil {
		mediaURLs = []string{}
	}
	return &inventory.Building{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		ProjectName:        m.ProjectName,
		Location:           m.Location,
		Category:           inventory.BuildingCategory(m.Category),
		ConstructionStatus: inventory.ConstructionStatus(m.ConstructionStatus),
		CompletionDate:     m.CompletionDate,
		PriceRange:         valueobject.PriceRange{Min: m.PriceMin, Max: m.PriceMax},
		Description:        m.Description,
		MediaURLs:          mediaURLs,
		TotalUnits:         m.TotalUnits,
		AvailableUnits:     m.AvailableUnits,
		SoldUnits:          m.SoldUnits,
	}
}

// FromDomain populates the persistence model from a domain Building entity.
func (m *BuildingModel) FromDomain(b *inventory.Building) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.ProjectName = b.ProjectName
	m.Location = b.Location
	m.Category = string(b.Category)
	m.ConstructionStatus = string(b.ConstructionStatus)
	m.CompletionDate = b.CompletionDate
	m.PriceMin = b.PriceRange.Min
	m.PriceMax = b.PriceRange.Max
	m.Description = b.Description
	m.MediaURLs = b.MediaURLs
	m.TotalUnits = b.TotalUnits
	m.AvailableUnits = b.AvailableUnits
	m.SoldUnits = b.SoldUnits
}

// BuildingModelFromDomain creates a new persistence model from a domain Building entity.
func BuildingModelFromDomain(b *inventory.Building) *BuildingModel {
	m := &BuildingModel{}
	m.FromDomain(b)
	return m
}

// FloorUnitModel is the persistence model for the FloorUnit aggregate root.
type FloorUnitModel struct {
	AggregateModel
	BuildingID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	FloorNumber       int             `gorm:"not null"`
	UnitType          string          `gorm:"type:varchar(100);not null"`
	TotalSubUnits     int             `gorm:"not null;default:0"`
	AvailableSubUnits int             `gorm:"not null;default:0"`
	PriceMin          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PriceMax          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (FloorUnitModel) TableName() string {
	return "floor_units"
}

// ToDomain converts the persistence model to a domain FloorUnit entity.
func (m *FloorUnitModel) ToDomain() *inventory.FloorUnit {
	return &inventory.FloorUnit{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BuildingID:        m.BuildingID,
		FloorNumber:       m.FloorNumber,
		UnitType:          m.UnitType,
		TotalSubUnits:     m.TotalSubUnits,
		AvailableSubUnits: m.AvailableSubUnits,
		PriceRange:        valueobject.PriceRange{Min: m.PriceMin, Max: m.PriceMax},
	}
}

// FromDomain populates the persistence model from a domain FloorUnit entity.
func (m *FloorUnitModel) FromDomain(f *inventory.FloorUnit) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.BuildingID = f.BuildingID
	m.FloorNumber = f.FloorNumber
	m.UnitType = f.UnitType
	m.TotalSubUnits = f.TotalSubUnits
	m.AvailableSubUnits = f.AvailableSubUnits
	m.PriceMin = f.PriceRange.Min
	m.PriceMax = f.PriceRange.Max
}

// FloorUnitModelFromDomain creates a new persistence model from a domain FloorUnit entity.
func FloorUnitModelFromDomain(f *inventory.FloorUnit) *FloorUnitModel {
	m := &FloorUnitModel{}
	m.FromDomain(f)
	return m
}

// PropertyModel is the persistence model for the Property aggregate root.
type PropertyModel struct {
	AggregateModel
	FloorUnitID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	BuildingID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitNumber          string          `gorm:"type:varchar(50);not null"`
	Status              string          `gorm:"type:varchar(30);not null;index"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountReceived      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CustomerID          *uuid.UUID      `gorm:"type:uuid"`
	AgentID             *uuid.UUID      `gorm:"type:uuid;index"`
	ContractorID        *uuid.UUID      `gorm:"type:uuid"`
	DeliveryDate        *time.Time      `gorm:"type:date"`
	EMIEnabled          bool            `gorm:"column:emi_enabled;not null;default:false"`
	MunicipalPermission bool            `gorm:"not null;default:false"`
	BlockReason         string          `gorm:"type:varchar(500)"`
	SoldAt              *time.Time
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToDomain converts the persistence model to a domain Property entity.
func (m *PropertyModel) ToDomain() *inventory.Property {
	return &inventory.Property{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		FloorUnitID:         m.FloorUnitID,
		BuildingID:          m.BuildingID,
		UnitNumber:          m.UnitNumber,
		Status:              inventory.PropertyStatus(m.Status),
		TotalAmount:         m.TotalAmount,
		AmountReceived:      m.AmountReceived,
		BalanceAmount:       m.BalanceAmount,
		CustomerID:          m.CustomerID,
		AgentID:             m.AgentID,
		ContractorID:        m.ContractorID,
		DeliveryDate:        m.DeliveryDate,
		EMIEnabled:          m.EMIEnabled,
		MunicipalPermission: m.MunicipalPermission,
		BlockReason:         m.BlockReason,
		SoldAt:              m.SoldAt,
	}
}

// FromDomain populates the persistence model from a domain Property entity.
func (m *PropertyModel) FromDomain(p *inventory.Property) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.FloorUnitID = p.FloorUnitID
	m.BuildingID = p.BuildingID
	m.UnitNumber = p.UnitNumber
	m.Status = string(p.Status)
	m.TotalAmount = p.TotalAmount
	m.AmountReceived = p.AmountReceived
	m.BalanceAmount = p.BalanceAmount
	m.CustomerID = p.CustomerID
	m.AgentID = p.AgentID
	m.ContractorID = p.ContractorID
	m.DeliveryDate = p.DeliveryDate
	m.EMIEnabled = p.EMIEnabled
	m.MunicipalPermission = p.MunicipalPermission
	m.BlockReason = p.BlockReason
	m.SoldAt = p.SoldAt
}

// PropertyModelFromDomain creates a new persistence model from a domain Property entity.
func PropertyModelFromDomain(p *inventory.Property) *PropertyModel {
	m := &PropertyModel{}
	m.FromDomain(p)
	return m
}
