package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estateflow/backend/internal/application/validation"
	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lock key kinds
const (
	lockKindProperty = "property"
	lockKindBuilding = "building"
)

// InventoryService handles building, floor unit and property operations,
// including the sale/reversal rollups across the three levels
type InventoryService struct {
	buildingRepo   inventory.BuildingRepository
	floorRepo      inventory.FloorUnitRepository
	propertyRepo   inventory.PropertyRepository
	txScope        TransactionScope
	locker         shared.EntityLocker
	clock          shared.Clock
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	buildingRepo inventory.BuildingRepository,
	floorRepo inventory.FloorUnitRepository,
	propertyRepo inventory.PropertyRepository,
	txScope TransactionScope,
	locker shared.EntityLocker,
) *InventoryService {
	if txScope == nil {
		txScope = NewNoOpTransactionScope(buildingRepo, floorRepo, propertyRepo)
	}
	return &InventoryService{
		buildingRepo: buildingRepo,
		floorRepo:    floorRepo,
		propertyRepo: propertyRepo,
		txScope:      txScope,
		locker:       locker,
		clock:        shared.SystemClock{},
		logger:       zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock sets the time source
func (s *InventoryService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// SetLogger sets the logger
func (s *InventoryService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// publishDomainEvents publishes and clears pending events of the given aggregates
func (s *InventoryService) publishDomainEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if s.eventPublisher != nil {
			if err := s.eventPublisher.Publish(ctx, events...); err != nil {
				s.logger.Warn("failed to publish domain events",
					zap.String("aggregate_id", agg.GetID().String()),
					zap.Error(err),
				)
			}
		}
		agg.ClearDomainEvents()
	}
}

// acquire takes the entity lock for kind/id
func (s *InventoryService) acquire(ctx context.Context, kind string, id uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Acquire(ctx, shared.LockKey(kind, id))
}

// withPropertyLocks serializes work on one property and on its building's
// counters. Locks are always taken property first, then building.
func (s *InventoryService) withPropertyLocks(ctx context.Context, propertyID uuid.UUID, fn func(repos TransactionalRepositories) error) error {
	release, err := s.acquire(ctx, lockKindProperty, propertyID)
	if err != nil {
		return err
	}
	defer release()

	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return err
	}

	releaseBuilding, err := s.acquire(ctx, lockKindBuilding, property.BuildingID)
	if err != nil {
		return err
	}
	defer releaseBuilding()

	return s.txScope.Execute(ctx, fn)
}

func parsePriceRange(minStr, maxStr string) (valueobject.PriceRange, error) {
	lo, err := validation.Decimal("price_min", minStr)
	if err != nil {
		return valueobject.PriceRange{}, err
	}
	hi, err := validation.Decimal("price_max", maxStr)
	if err != nil {
		return valueobject.PriceRange{}, err
	}
	r, err := valueobject.NewPriceRange(lo, hi)
	if err != nil {
		return valueobject.PriceRange{}, shared.NewValidationError("Request validation failed",
			[]shared.FieldError{{Field: "price_min", Message: err.Error()}})
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Buildings
// ---------------------------------------------------------------------------

// CreateBuilding registers a new development project
func (s *InventoryService) CreateBuilding(ctx context.Context, req CreateBuildingRequest) (*BuildingResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	priceRange, err := parsePriceRange(req.PriceMin, req.PriceMax)
	if err != nil {
		return nil, err
	}
	completionDate, err := validation.OptionalDate("completion_date", req.CompletionDate)
	if err != nil {
		return nil, err
	}

	building, err := inventory.NewBuilding(
		req.ProjectName,
		req.Location,
		inventory.BuildingCategory(req.Category),
		inventory.ConstructionStatus(req.ConstructionStatus),
		priceRange,
		s.clock.Now(),
	)
	if err != nil {
		return nil, err
	}
	building.Description = req.Description
	if req.MediaURLs != nil {
		building.MediaURLs = req.MediaURLs
	}
	if completionDate != nil {
		building.CompletionDate = completionDate
	}

	if err := s.buildingRepo.Save(ctx, building); err != nil {
		return nil, err
	}

	s.logger.Info("building created",
		zap.String("building_id", building.ID.String()),
		zap.String("project_name", building.ProjectName),
	)
	s.publishDomainEvents(ctx, building)

	response := ToBuildingResponse(building)
	return &response, nil
}

// GetBuilding retrieves a building by ID
func (s *InventoryService) GetBuilding(ctx context.Context, id uuid.UUID) (*BuildingResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToBuildingResponse(building)
	return &response, nil
}

// ListBuildings retrieves buildings with filtering and pagination
func (s *InventoryService) ListBuildings(ctx context.Context, filter BuildingListFilter) ([]BuildingResponse, int64, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, 0, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}
	if filter.ConstructionStatus != "" {
		domainFilter.Filters["construction_status"] = filter.ConstructionStatus
	}

	buildings, err := s.buildingRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.buildingRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return toBuildingResponses(buildings), total, nil
}

// UpdateBuilding changes descriptive attributes and optionally advances construction
func (s *InventoryService) UpdateBuilding(ctx context.Context, id uuid.UUID, req UpdateBuildingRequest) (*BuildingResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	priceRange, err := parsePriceRange(req.PriceMin, req.PriceMax)
	if err != nil {
		return nil, err
	}
	completionDate, err := validation.OptionalDate("completion_date", req.CompletionDate)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, lockKindBuilding, id)
	if err != nil {
		return nil, err
	}
	defer release()

	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expectedVersion := building.Version
	now := s.clock.Now()

	if err := building.UpdateDetails(req.ProjectName, req.Location, req.Description, priceRange, req.MediaURLs, now); err != nil {
		return nil, err
	}
	target := inventory.ConstructionStatus(req.ConstructionStatus)
	if target != "" && target != building.ConstructionStatus {
		if err := building.AdvanceConstruction(target, completionDate, now); err != nil {
			return nil, err
		}
	}

	if err := s.buildingRepo.SaveWithLock(ctx, building, expectedVersion); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, building)

	response := ToBuildingResponse(building)
	return &response, nil
}

// DeleteBuilding removes a building that no floor unit references
func (s *InventoryService) DeleteBuilding(ctx context.Context, id uuid.UUID) error {
	release, err := s.acquire(ctx, lockKindBuilding, id)
	if err != nil {
		return err
	}
	defer release()

	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.BuildingRepo().FindByID(ctx, id); err != nil {
			return err
		}
		count, err := repos.FloorUnitRepo().CountByBuilding(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewDomainError(shared.CodeInvalidStateTransition,
				fmt.Sprintf("Building still has %d floor units and cannot be deleted", count))
		}
		return repos.BuildingRepo().Delete(ctx, id)
	})
}

// ---------------------------------------------------------------------------
// Floor units
// ---------------------------------------------------------------------------

// CreateFloorUnit adds a floor unit under a building and rolls its
// sub-units into the building counters
func (s *InventoryService) CreateFloorUnit(ctx context.Context, buildingID uuid.UUID, req CreateFloorUnitRequest) (*FloorUnitResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	priceRange, err := parsePriceRange(req.PriceMin, req.PriceMax)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, lockKindBuilding, buildingID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		floor    *inventory.FloorUnit
		building *inventory.Building
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		b, err := repos.BuildingRepo().FindByID(ctx, buildingID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		f, err := inventory.NewFloorUnit(buildingID, req.FloorNumber, req.UnitType, req.TotalSubUnits, priceRange, now)
		if err != nil {
			return err
		}
		if err := repos.FloorUnitRepo().Save(ctx, f); err != nil {
			return err
		}
		if err := rollUpBuilding(ctx, repos, b, now); err != nil {
			return err
		}
		floor, building = f, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("floor unit created",
		zap.String("floor_unit_id", floor.ID.String()),
		zap.String("building_id", buildingID.String()),
		zap.Int("total_sub_units", floor.TotalSubUnits),
		zap.Int("building_total_units", building.TotalUnits),
	)
	s.publishDomainEvents(ctx, building)

	response := ToFloorUnitResponse(floor)
	return &response, nil
}

// rollUpBuilding overwrites the building's cached counters with the rollup
// of its floor units as seen by repos
func rollUpBuilding(ctx context.Context, repos TransactionalRepositories, building *inventory.Building, now time.Time) error {
	floors, err := repos.FloorUnitRepo().FindByBuilding(ctx, building.ID)
	if err != nil {
		return err
	}
	expectedVersion := building.Version
	if !building.Reconcile(inventory.ComputeOccupancy(floors), now) {
		return nil
	}
	return repos.BuildingRepo().SaveWithLock(ctx, building, expectedVersion)
}

// GetFloorUnit retrieves a floor unit by ID
func (s *InventoryService) GetFloorUnit(ctx context.Context, id uuid.UUID) (*FloorUnitResponse, error) {
	floor, err := s.floorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToFloorUnitResponse(floor)
	return &response, nil
}

// ListFloorUnits retrieves every floor unit of a building
func (s *InventoryService) ListFloorUnits(ctx context.Context, buildingID uuid.UUID) ([]FloorUnitResponse, error) {
	floors, err := s.floorRepo.FindByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	return toFloorUnitResponses(floors), nil
}

// UpdateFloorUnit changes the unit type label and price band
func (s *InventoryService) UpdateFloorUnit(ctx context.Context, id uuid.UUID, req UpdateFloorUnitRequest) (*FloorUnitResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	priceRange, err := parsePriceRange(req.PriceMin, req.PriceMax)
	if err != nil {
		return nil, err
	}

	floor, err := s.floorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expectedVersion := floor.Version

	if err := floor.UpdateDetails(req.UnitType, priceRange, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.floorRepo.SaveWithLock(ctx, floor, expectedVersion); err != nil {
		return nil, err
	}

	response := ToFloorUnitResponse(floor)
	return &response, nil
}

// DeleteFloorUnit removes a floor unit with no outstanding sales together
// with its (necessarily unsold) property records, then rolls the building
// counters back down
func (s *InventoryService) DeleteFloorUnit(ctx context.Context, id uuid.UUID) error {
	floor, err := s.floorRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	release, err := s.acquire(ctx, lockKindBuilding, floor.BuildingID)
	if err != nil {
		return err
	}
	defer release()

	var building *inventory.Building
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		floor, err := repos.FloorUnitRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := floor.CanDelete(); err != nil {
			return err
		}
		properties, err := repos.PropertyRepo().FindByFloorUnit(ctx, id, shared.Filter{})
		if err != nil {
			return err
		}
		for i := range properties {
			if properties[i].Status == inventory.PropertyStatusSold {
				return shared.NewDomainError(shared.CodeInvalidStateTransition,
					fmt.Sprintf("Property %s is sold; floor unit cannot be deleted", properties[i].UnitNumber))
			}
		}
		for i := range properties {
			if err := repos.PropertyRepo().Delete(ctx, properties[i].ID); err != nil {
				return err
			}
		}
		if err := repos.FloorUnitRepo().Delete(ctx, id); err != nil {
			return err
		}
		b, err := repos.BuildingRepo().FindByID(ctx, floor.BuildingID)
		if err != nil {
			return err
		}
		if err := rollUpBuilding(ctx, repos, b, s.clock.Now()); err != nil {
			return err
		}
		building = b
		return nil
	})
	if err != nil {
		return err
	}
	s.publishDomainEvents(ctx, building)
	return nil
}

// AddSubUnits grows a floor unit's inventory. The building's cached counters
// are not touched; ReconcileBuilding brings them back in line.
func (s *InventoryService) AddSubUnits(ctx context.Context, floorUnitID uuid.UUID, count int) (*FloorUnitResponse, error) {
	if count <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Sub-unit count must be positive")
	}

	floor, err := s.addSubUnitsLocked(ctx, floorUnitID, count)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sub-units added",
		zap.String("floor_unit_id", floor.ID.String()),
		zap.Int("count", count),
		zap.Int("total_sub_units", floor.TotalSubUnits),
	)
	// Published after the building lock is released; handlers may reconcile.
	s.publishDomainEvents(ctx, floor)

	response := ToFloorUnitResponse(floor)
	return &response, nil
}

func (s *InventoryService) addSubUnitsLocked(ctx context.Context, floorUnitID uuid.UUID, count int) (*inventory.FloorUnit, error) {
	floor, err := s.floorRepo.FindByID(ctx, floorUnitID)
	if err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx, lockKindBuilding, floor.BuildingID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		floor, err = repos.FloorUnitRepo().FindByID(ctx, floorUnitID)
		if err != nil {
			return err
		}
		expectedVersion := floor.Version
		if err := floor.AddSubUnits(count, s.clock.Now()); err != nil {
			return err
		}
		return repos.FloorUnitRepo().SaveWithLock(ctx, floor, expectedVersion)
	})
	if err != nil {
		return nil, err
	}
	return floor, nil
}

// ---------------------------------------------------------------------------
// Rollups
// ---------------------------------------------------------------------------

// ComputeOccupancy derives a building's occupancy from its live floor units.
// Cached building counters are ignored.
func (s *InventoryService) ComputeOccupancy(ctx context.Context, buildingID uuid.UUID) (*inventory.Occupancy, error) {
	var occupancy inventory.Occupancy
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.BuildingRepo().FindByID(ctx, buildingID); err != nil {
			return err
		}
		floors, err := repos.FloorUnitRepo().FindByBuilding(ctx, buildingID)
		if err != nil {
			return err
		}
		occupancy = inventory.ComputeOccupancy(floors)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &occupancy, nil
}

// ReconcileBuilding rewrites the building's cached counters from the rollup
func (s *InventoryService) ReconcileBuilding(ctx context.Context, buildingID uuid.UUID) (*ReconcileResult, error) {
	building, result, err := s.reconcileLocked(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	if result.Drifted {
		s.logger.Info("building counters reconciled",
			zap.String("building_id", buildingID.String()),
			zap.Int("total_before", result.Before.TotalUnits),
			zap.Int("total_after", result.After.TotalUnits),
			zap.Int("sold_before", result.Before.SoldUnits),
			zap.Int("sold_after", result.After.SoldUnits),
		)
		s.publishDomainEvents(ctx, building)
	}
	return result, nil
}

func (s *InventoryService) reconcileLocked(ctx context.Context, buildingID uuid.UUID) (*inventory.Building, *ReconcileResult, error) {
	release, err := s.acquire(ctx, lockKindBuilding, buildingID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	var building *inventory.Building
	result := &ReconcileResult{BuildingID: buildingID}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		building, err = repos.BuildingRepo().FindByID(ctx, buildingID)
		if err != nil {
			return err
		}
		floors, err := repos.FloorUnitRepo().FindByBuilding(ctx, buildingID)
		if err != nil {
			return err
		}
		expectedVersion := building.Version
		result.Before = inventory.NewOccupancy(building.TotalUnits, building.AvailableUnits, building.SoldUnits)
		result.After = inventory.ComputeOccupancy(floors)
		result.Drifted = building.Reconcile(result.After, s.clock.Now())
		if !result.Drifted {
			return nil
		}
		return repos.BuildingRepo().SaveWithLock(ctx, building, expectedVersion)
	})
	if err != nil {
		return nil, nil, err
	}
	return building, result, nil
}

// ReconcileAll reconciles every building. A failing building does not stop
// the pass; all failures are returned joined.
func (s *InventoryService) ReconcileAll(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary

	ids, err := s.buildingRepo.ListIDs(ctx)
	if err != nil {
		return summary, err
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		summary.Checked++
		result, err := s.ReconcileBuilding(ctx, id)
		if err != nil {
			summary.Failed++
			errs = append(errs, fmt.Errorf("reconcile building %s: %w", id, err))
			continue
		}
		if result.Drifted {
			summary.Drifted++
		}
	}

	return summary, errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// CreateProperty adds a saleable sub-unit record under a floor unit
func (s *InventoryService) CreateProperty(ctx context.Context, floorUnitID uuid.UUID, req CreatePropertyRequest) (*PropertyResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	total, err := validation.Decimal("total_amount", req.TotalAmount)
	if err != nil {
		return nil, err
	}
	agentID, err := validation.OptionalUUID("agent_id", req.AgentID)
	if err != nil {
		return nil, err
	}
	contractorID, err := validation.OptionalUUID("contractor_id", req.ContractorID)
	if err != nil {
		return nil, err
	}
	deliveryDate, err := validation.OptionalDate("delivery_date", req.DeliveryDate)
	if err != nil {
		return nil, err
	}

	floor, err := s.floorRepo.FindByID(ctx, floorUnitID)
	if err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx, lockKindBuilding, floor.BuildingID)
	if err != nil {
		return nil, err
	}
	defer release()

	var property *inventory.Property
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		count, err := repos.PropertyRepo().CountByFloorUnit(ctx, floorUnitID)
		if err != nil {
			return err
		}
		if count >= int64(floor.TotalSubUnits) {
			return shared.NewDomainError(shared.CodeInventoryExhausted,
				fmt.Sprintf("Floor unit already has %d of %d property records", count, floor.TotalSubUnits))
		}

		property, err = inventory.NewProperty(floor, req.UnitNumber, inventory.PropertyStatus(req.Status), total, s.clock.Now())
		if err != nil {
			return err
		}
		property.AgentID = agentID
		property.ContractorID = contractorID
		property.DeliveryDate = deliveryDate
		property.EMIEnabled = req.EMIEnabled
		property.MunicipalPermission = req.MunicipalPermission

		return repos.PropertyRepo().Save(ctx, property)
	})
	if err != nil {
		return nil, err
	}

	response := ToPropertyResponse(property)
	return &response, nil
}

// GetProperty retrieves a property by ID
func (s *InventoryService) GetProperty(ctx context.Context, id uuid.UUID) (*PropertyResponse, error) {
	property, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPropertyResponse(property)
	return &response, nil
}

// ListPropertiesByFloorUnit retrieves the properties of a floor unit
func (s *InventoryService) ListPropertiesByFloorUnit(ctx context.Context, floorUnitID uuid.UUID, filter shared.Filter) ([]PropertyResponse, error) {
	properties, err := s.propertyRepo.FindByFloorUnit(ctx, floorUnitID, filter)
	if err != nil {
		return nil, err
	}
	return toPropertyResponses(properties), nil
}

// ListPropertiesByBuilding retrieves the properties of a building
func (s *InventoryService) ListPropertiesByBuilding(ctx context.Context, buildingID uuid.UUID, filter shared.Filter) ([]PropertyResponse, error) {
	properties, err := s.propertyRepo.FindByBuilding(ctx, buildingID, filter)
	if err != nil {
		return nil, err
	}
	return toPropertyResponses(properties), nil
}

// mutateProperty loads a property under its lock, applies fn and saves it
// with an optimistic version check
func (s *InventoryService) mutateProperty(ctx context.Context, id uuid.UUID, fn func(p *inventory.Property, now time.Time) error) (*PropertyResponse, error) {
	property, err := func() (*inventory.Property, error) {
		release, err := s.acquire(ctx, lockKindProperty, id)
		if err != nil {
			return nil, err
		}
		defer release()

		property, err := s.propertyRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expectedVersion := property.Version

		if err := fn(property, s.clock.Now()); err != nil {
			return nil, err
		}
		if err := s.propertyRepo.SaveWithLock(ctx, property, expectedVersion); err != nil {
			return nil, err
		}
		return property, nil
	}()
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, property)

	response := ToPropertyResponse(property)
	return &response, nil
}

// UpdateProperty reprices a property and changes its dates and flags
func (s *InventoryService) UpdateProperty(ctx context.Context, id uuid.UUID, req UpdatePropertyRequest) (*PropertyResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	deliveryDate, err := validation.OptionalDate("delivery_date", req.DeliveryDate)
	if err != nil {
		return nil, err
	}

	return s.mutateProperty(ctx, id, func(p *inventory.Property, now time.Time) error {
		if req.TotalAmount != "" {
			total, err := validation.Decimal("total_amount", req.TotalAmount)
			if err != nil {
				return err
			}
			if err := p.SetTotalAmount(total, now); err != nil {
				return err
			}
		}
		if deliveryDate != nil {
			p.SetDeliveryDate(deliveryDate, now)
		}
		if req.EMIEnabled != nil || req.MunicipalPermission != nil {
			emi, permission := p.EMIEnabled, p.MunicipalPermission
			if req.EMIEnabled != nil {
				emi = *req.EMIEnabled
			}
			if req.MunicipalPermission != nil {
				permission = *req.MunicipalPermission
			}
			p.SetFlags(emi, permission, now)
		}
		return nil
	})
}

// AssignProperty sets the agent and contractor of a property
func (s *InventoryService) AssignProperty(ctx context.Context, id uuid.UUID, req AssignPropertyRequest) (*PropertyResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	agentID, err := validation.OptionalUUID("agent_id", req.AgentID)
	if err != nil {
		return nil, err
	}
	contractorID, err := validation.OptionalUUID("contractor_id", req.ContractorID)
	if err != nil {
		return nil, err
	}

	return s.mutateProperty(ctx, id, func(p *inventory.Property, now time.Time) error {
		p.AssignAgent(agentID, now)
		p.AssignContractor(contractorID, now)
		return nil
	})
}

// DeleteProperty removes an unsold property record
func (s *InventoryService) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	release, err := s.acquire(ctx, lockKindProperty, id)
	if err != nil {
		return err
	}
	defer release()

	property, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if property.Status == inventory.PropertyStatusSold {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Sold properties cannot be deleted; reverse the sale first")
	}
	return s.propertyRepo.Delete(ctx, id)
}

// RecordPayment registers money received against a property
func (s *InventoryService) RecordPayment(ctx context.Context, id uuid.UUID, req RecordPaymentRequest) (*PropertyResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	amount, err := validation.Decimal("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	return s.mutateProperty(ctx, id, func(p *inventory.Property, now time.Time) error {
		return p.RecordPayment(amount, now)
	})
}

// ReserveProperty holds a property for a customer
func (s *InventoryService) ReserveProperty(ctx context.Context, id uuid.UUID, req ReservePropertyRequest) (*PropertyResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Invalid customer ID")
	}

	return s.mutateProperty(ctx, id, func(p *inventory.Property, now time.Time) error {
		return p.Reserve(customerID, now)
	})
}

// BlockProperty takes a property off the market
func (s *InventoryService) BlockProperty(ctx context.Context, id uuid.UUID, req BlockPropertyRequest) (*PropertyResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.mutateProperty(ctx, id, func(p *inventory.Property, now time.Time) error {
		return p.Block(req.Reason, now)
	})
}

// ReleaseProperty returns a reserved or blocked property to the market
func (s *InventoryService) ReleaseProperty(ctx context.Context, id uuid.UUID) (*PropertyResponse, error) {
	return s.mutateProperty(ctx, id, func(p *inventory.Property, now time.Time) error {
		return p.Release(now)
	})
}

// CompleteConstruction makes an under-construction property saleable
func (s *InventoryService) CompleteConstruction(ctx context.Context, id uuid.UUID) (*PropertyResponse, error) {
	return s.mutateProperty(ctx, id, func(p *inventory.Property, now time.Time) error {
		return p.CompleteConstruction(now)
	})
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

// saleContext holds the three records a sale touches and their loaded versions
type saleContext struct {
	property        *inventory.Property
	floor           *inventory.FloorUnit
	building        *inventory.Building
	floors          []inventory.FloorUnit
	propertyVersion int
	floorVersion    int
	buildingVersion int
}

func loadSaleContext(ctx context.Context, repos TransactionalRepositories, propertyID uuid.UUID) (*saleContext, error) {
	property, err := repos.PropertyRepo().FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	floor, err := repos.FloorUnitRepo().FindByID(ctx, property.FloorUnitID)
	if err != nil {
		return nil, fmt.Errorf("load floor unit of property %s: %w", propertyID, err)
	}
	building, err := repos.BuildingRepo().FindByID(ctx, property.BuildingID)
	if err != nil {
		return nil, fmt.Errorf("load building of property %s: %w", propertyID, err)
	}
	floors, err := repos.FloorUnitRepo().FindByBuilding(ctx, building.ID)
	if err != nil {
		return nil, err
	}
	return &saleContext{
		property:        property,
		floor:           floor,
		building:        building,
		floors:          floors,
		propertyVersion: property.Version,
		floorVersion:    floor.Version,
		buildingVersion: building.Version,
	}, nil
}

// reconcileBeforeCounting brings the building cache in line with the floors
// as loaded, so the sale or reversal starts from the rollup
func (sc *saleContext) reconcileBeforeCounting(now time.Time) bool {
	return sc.building.Reconcile(inventory.ComputeOccupancy(sc.floors), now)
}

func (sc *saleContext) save(ctx context.Context, repos TransactionalRepositories) error {
	if err := repos.PropertyRepo().SaveWithLock(ctx, sc.property, sc.propertyVersion); err != nil {
		return err
	}
	if err := repos.FloorUnitRepo().SaveWithLock(ctx, sc.floor, sc.floorVersion); err != nil {
		return err
	}
	return repos.BuildingRepo().SaveWithLock(ctx, sc.building, sc.buildingVersion)
}

func (sc *saleContext) response() *SaleResponse {
	return &SaleResponse{
		Property:  ToPropertyResponse(sc.property),
		FloorUnit: ToFloorUnitResponse(sc.floor),
		Building:  ToBuildingResponse(sc.building),
	}
}

// RecordSale sells a property: the property becomes sold, its floor unit
// loses one available sub-unit and its building moves one unit from
// available to sold. At most one concurrent sale per property succeeds.
func (s *InventoryService) RecordSale(ctx context.Context, req RecordSaleRequest) (*SaleResponse, error) {
	var sc *saleContext
	err := s.withPropertyLocks(ctx, req.PropertyID, func(repos TransactionalRepositories) error {
		var err error
		sc, err = loadSaleContext(ctx, repos, req.PropertyID)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if err := sc.property.MarkSold(req.CustomerID, now); err != nil {
			return err
		}
		if sc.reconcileBeforeCounting(now) {
			s.logger.Warn("building counters drifted before sale",
				zap.String("building_id", sc.building.ID.String()),
			)
		}
		if err := sc.floor.ClaimSubUnit(now); err != nil {
			return err
		}
		if err := sc.building.RecordUnitSold(now); err != nil {
			return err
		}
		if err := sc.building.CheckInvariant(); err != nil {
			return err
		}
		return sc.save(ctx, repos)
	})
	if err != nil {
		s.logger.Debug("sale rejected",
			zap.String("property_id", req.PropertyID.String()),
			zap.String("code", shared.CodeOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("property sold",
		zap.String("property_id", sc.property.ID.String()),
		zap.String("building_id", sc.building.ID.String()),
		zap.Int("building_available", sc.building.AvailableUnits),
		zap.Int("building_sold", sc.building.SoldUnits),
	)
	s.publishDomainEvents(ctx, sc.property, sc.floor, sc.building)

	return sc.response(), nil
}

// ReverseSale undoes a sale and restores the counters it changed
func (s *InventoryService) ReverseSale(ctx context.Context, propertyID uuid.UUID) (*SaleResponse, error) {
	var sc *saleContext
	err := s.withPropertyLocks(ctx, propertyID, func(repos TransactionalRepositories) error {
		var err error
		sc, err = loadSaleContext(ctx, repos, propertyID)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if err := sc.property.RevertSale(now); err != nil {
			return err
		}
		if sc.reconcileBeforeCounting(now) {
			s.logger.Warn("building counters drifted before sale reversal",
				zap.String("building_id", sc.building.ID.String()),
			)
		}
		if err := sc.floor.ReleaseSubUnit(now); err != nil {
			return err
		}
		if err := sc.building.RecordUnitReleased(now); err != nil {
			return err
		}
		return sc.save(ctx, repos)
	})
	if err != nil {
		s.logger.Debug("sale reversal rejected",
			zap.String("property_id", propertyID.String()),
			zap.String("code", shared.CodeOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("property sale reversed",
		zap.String("property_id", sc.property.ID.String()),
		zap.String("building_id", sc.building.ID.String()),
	)
	s.publishDomainEvents(ctx, sc.property, sc.floor, sc.building)

	return sc.response(), nil
}
