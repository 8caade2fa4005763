package inventory

import (
	"time"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBuildingRequest is the untrusted draft for a new building
type CreateBuildingRequest struct {
	ProjectName        string   `json:"project_name" validate:"notblank,max=200"`
	Location           string   `json:"location" validate:"notblank,max=200"`
	Category           string   `json:"category" validate:"required,oneof=villa-complex apartment-complex plot-development land-parcel"`
	ConstructionStatus string   `json:"construction_status" validate:"omitempty,oneof=planned under-construction completed"`
	CompletionDate     string   `json:"completion_date" validate:"omitempty,date"`
	PriceMin           string   `json:"price_min" validate:"required,nonneg_decimal"`
	PriceMax           string   `json:"price_max" validate:"required,nonneg_decimal"`
	Description        string   `json:"description" validate:"max=5000"`
	MediaURLs          []string `json:"media_urls" validate:"omitempty,dive,url"`
}

// UpdateBuildingRequest is the untrusted draft for building changes.
// An empty ConstructionStatus leaves the status as it is.
type UpdateBuildingRequest struct {
	ProjectName        string   `json:"project_name" validate:"notblank,max=200"`
	Location           string   `json:"location" validate:"notblank,max=200"`
	ConstructionStatus string   `json:"construction_status" validate:"omitempty,oneof=planned under-construction completed"`
	CompletionDate     string   `json:"completion_date" validate:"omitempty,date"`
	PriceMin           string   `json:"price_min" validate:"required,nonneg_decimal"`
	PriceMax           string   `json:"price_max" validate:"required,nonneg_decimal"`
	Description        string   `json:"description" validate:"max=5000"`
	MediaURLs          []string `json:"media_urls" validate:"omitempty,dive,url"`
}

// BuildingListFilter represents filter options for the building list
type BuildingListFilter struct {
	Search             string `json:"search"`
	Category           string `json:"category" validate:"omitempty,oneof=villa-complex apartment-complex plot-development land-parcel"`
	ConstructionStatus string `json:"construction_status" validate:"omitempty,oneof=planned under-construction completed"`
	Page               int    `json:"page" validate:"gte=0"`
	PageSize           int    `json:"page_size" validate:"gte=0,lte=100"`
	OrderBy            string `json:"order_by"`
	OrderDir           string `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// CreateFloorUnitRequest is the untrusted draft for a new floor unit
type CreateFloorUnitRequest struct {
	FloorNumber   int    `json:"floor_number" validate:"gte=1"`
	UnitType      string `json:"unit_type" validate:"notblank,max=100"`
	TotalSubUnits int    `json:"total_sub_units" validate:"gte=1"`
	PriceMin      string `json:"price_min" validate:"required,nonneg_decimal"`
	PriceMax      string `json:"price_max" validate:"required,nonneg_decimal"`
}

// UpdateFloorUnitRequest is the untrusted draft for floor unit changes
type UpdateFloorUnitRequest struct {
	UnitType string `json:"unit_type" validate:"notblank,max=100"`
	PriceMin string `json:"price_min" validate:"required,nonneg_decimal"`
	PriceMax string `json:"price_max" validate:"required,nonneg_decimal"`
}

// CreatePropertyRequest is the untrusted draft for a new sub-unit
type CreatePropertyRequest struct {
	UnitNumber          string `json:"unit_number" validate:"notblank,max=50"`
	Status              string `json:"status" validate:"omitempty,oneof=available under-construction"`
	TotalAmount         string `json:"total_amount" validate:"required,nonneg_decimal"`
	AgentID             string `json:"agent_id" validate:"omitempty,uuid"`
	ContractorID        string `json:"contractor_id" validate:"omitempty,uuid"`
	DeliveryDate        string `json:"delivery_date" validate:"omitempty,date"`
	EMIEnabled          bool   `json:"emi_enabled"`
	MunicipalPermission bool   `json:"municipal_permission"`
}

// UpdatePropertyRequest is the untrusted draft for property changes.
// Empty or nil fields are left unchanged.
type UpdatePropertyRequest struct {
	TotalAmount         string `json:"total_amount" validate:"omitempty,nonneg_decimal"`
	DeliveryDate        string `json:"delivery_date" validate:"omitempty,date"`
	EMIEnabled          *bool  `json:"emi_enabled"`
	MunicipalPermission *bool  `json:"municipal_permission"`
}

// AssignPropertyRequest sets the agent and contractor; empty clears
type AssignPropertyRequest struct {
	AgentID      string `json:"agent_id" validate:"omitempty,uuid"`
	ContractorID string `json:"contractor_id" validate:"omitempty,uuid"`
}

// RecordSaleRequest asks for a property to be sold.
// CustomerID may be omitted when a reservation already attached one.
type RecordSaleRequest struct {
	PropertyID uuid.UUID  `json:"property_id"`
	CustomerID *uuid.UUID `json:"customer_id"`
}

// RecordPaymentRequest is the untrusted draft for a payment
type RecordPaymentRequest struct {
	Amount string `json:"amount" validate:"required,decimal"`
}

// ReservePropertyRequest holds a property for a customer
type ReservePropertyRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

// BlockPropertyRequest takes a property off the market
type BlockPropertyRequest struct {
	Reason string `json:"reason" validate:"notblank,max=500"`
}

// BuildingResponse represents a building in responses
type BuildingResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProjectName        string          `json:"project_name"`
	Location           string          `json:"location"`
	Category           string          `json:"category"`
	ConstructionStatus string          `json:"construction_status"`
	CompletionDate     *time.Time      `json:"completion_date,omitempty"`
	PriceMin           decimal.Decimal `json:"price_min"`
	PriceMax           decimal.Decimal `json:"price_max"`
	Description        string          `json:"description"`
	MediaURLs          []string        `json:"media_urls"`
	TotalUnits         int             `json:"total_units"`
	AvailableUnits     int             `json:"available_units"`
	SoldUnits          int             `json:"sold_units"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Version            int             `json:"version"`
}

// FloorUnitResponse represents a floor unit in responses
type FloorUnitResponse struct {
	ID                uuid.UUID       `json:"id"`
	BuildingID        uuid.UUID       `json:"building_id"`
	FloorNumber       int             `json:"floor_number"`
	UnitType          string          `json:"unit_type"`
	TotalSubUnits     int             `json:"total_sub_units"`
	AvailableSubUnits int             `json:"available_sub_units"`
	SoldSubUnits      int             `json:"sold_sub_units"`
	PriceMin          decimal.Decimal `json:"price_min"`
	PriceMax          decimal.Decimal `json:"price_max"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// PropertyResponse represents a property in responses
type PropertyResponse struct {
	ID                  uuid.UUID         `json:"id"`
	FloorUnitID         uuid.UUID         `json:"floor_unit_id"`
	BuildingID          uuid.UUID         `json:"building_id"`
	UnitNumber          string            `json:"unit_number"`
	Status              string            `json:"status"`
	TotalAmount         valueobject.Money `json:"total_amount"`
	AmountReceived      valueobject.Money `json:"amount_received"`
	BalanceAmount       valueobject.Money `json:"balance_amount"`
	CustomerID          *uuid.UUID        `json:"customer_id,omitempty"`
	AgentID             *uuid.UUID        `json:"agent_id,omitempty"`
	ContractorID        *uuid.UUID        `json:"contractor_id,omitempty"`
	DeliveryDate        *time.Time        `json:"delivery_date,omitempty"`
	EMIEnabled          bool              `json:"emi_enabled"`
	MunicipalPermission bool              `json:"municipal_permission"`
	BlockReason         string            `json:"block_reason,omitempty"`
	SoldAt              *time.Time        `json:"sold_at,omitempty"`
	UpdatedAt           time.Time         `json:"updated_at"`
	Version             int               `json:"version"`
}

// SaleResponse carries the three records touched by a sale or reversal
type SaleResponse struct {
	Property  PropertyResponse  `json:"property"`
	FloorUnit FloorUnitResponse `json:"floor_unit"`
	Building  BuildingResponse  `json:"building"`
}

// ReconcileResult reports the outcome of reconciling one building
type ReconcileResult struct {
	BuildingID uuid.UUID           `json:"building_id"`
	Drifted    bool                `json:"drifted"`
	Before     inventory.Occupancy `json:"before"`
	After      inventory.Occupancy `json:"after"`
}

// ReconcileSummary reports a reconciliation pass over every building
type ReconcileSummary struct {
	Checked int `json:"checked"`
	Drifted int `json:"drifted"`
	Failed  int `json:"failed"`
}

// ToBuildingResponse converts a domain Building to BuildingResponse
func ToBuildingResponse(b *inventory.Building) BuildingResponse {
	return BuildingResponse{
		ID:                 b.ID,
		ProjectName:        b.ProjectName,
		Location:           b.Location,
		Category:           string(b.Category),
		ConstructionStatus: string(b.ConstructionStatus),
		CompletionDate:     b.CompletionDate,
		PriceMin:           b.PriceRange.Min,
		PriceMax:           b.PriceRange.Max,
		Description:        b.Description,
		MediaURLs:          b.MediaURLs,
		TotalUnits:         b.TotalUnits,
		AvailableUnits:     b.AvailableUnits,
		SoldUnits:          b.SoldUnits,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
}

// ToFloorUnitResponse converts a domain FloorUnit to FloorUnitResponse
func ToFloorUnitResponse(f *inventory.FloorUnit) FloorUnitResponse {
	return FloorUnitResponse{
		ID:                f.ID,
		BuildingID:        f.BuildingID,
		FloorNumber:       f.FloorNumber,
		UnitType:          f.UnitType,
		TotalSubUnits:     f.TotalSubUnits,
		AvailableSubUnits: f.AvailableSubUnits,
		SoldSubUnits:      f.SoldSubUnits(),
		PriceMin:          f.PriceRange.Min,
		PriceMax:          f.PriceRange.Max,
		UpdatedAt:         f.UpdatedAt,
		Version:           f.Version,
	}
}

// ToPropertyResponse converts a domain Property to PropertyResponse
func ToPropertyResponse(p *inventory.Property) PropertyResponse {
	return PropertyResponse{
		ID:                  p.ID,
		FloorUnitID:         p.FloorUnitID,
		BuildingID:          p.BuildingID,
		UnitNumber:          p.UnitNumber,
		Status:              string(p.Status),
		TotalAmount:         valueobject.NewMoneyINR(p.TotalAmount),
		AmountReceived:      valueobject.NewMoneyINR(p.AmountReceived),
		BalanceAmount:       p.BalanceMoney(),
		CustomerID:          p.CustomerID,
		AgentID:             p.AgentID,
		ContractorID:        p.ContractorID,
		DeliveryDate:        p.DeliveryDate,
		EMIEnabled:          p.EMIEnabled,
		MunicipalPermission: p.MunicipalPermission,
		BlockReason:         p.BlockReason,
		SoldAt:              p.SoldAt,
		UpdatedAt:           p.UpdatedAt,
		Version:             p.Version,
	}
}

func toBuildingResponses(items []inventory.Building) []BuildingResponse {
	out := make([]BuildingResponse, len(items))
	for i := range items {
		out[i] = ToBuildingResponse(&items[i])
	}
	return out
}

func toFloorUnitResponses(items []inventory.FloorUnit) []FloorUnitResponse {
	out := make([]FloorUnitResponse, len(items))
	for i := range items {
		out[i] = ToFloorUnitResponse(&items[i])
	}
	return out
}

func toPropertyResponses(items []inventory.Property) []PropertyResponse {
	out := make([]PropertyResponse, len(items))
	for i := range items {
		out[i] = ToPropertyResponse(&items[i])
	}
	return out
}
