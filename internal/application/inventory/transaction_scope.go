package inventory

import (
	"context"

	"github.com/estateflow/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// All repository operations inside fn are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the inventory repositories
// bound to the current transaction
type TransactionalRepositories interface {
	// BuildingRepo returns the building repository scoped to the current transaction
	BuildingRepo() inventory.BuildingRepository
	// FloorUnitRepo returns the floor unit repository scoped to the current transaction
	FloorUnitRepo() inventory.FloorUnitRepository
	// PropertyRepo returns the property repository scoped to the current transaction
	PropertyRepo() inventory.PropertyRepository
}

// NoOpTransactionScope runs without a real transaction.
// Used by tests and by stores without transaction support.
type NoOpTransactionScope struct {
	buildingRepo inventory.BuildingRepository
	floorRepo    inventory.FloorUnitRepository
	propertyRepo inventory.PropertyRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	buildingRepo inventory.BuildingRepository,
	floorRepo inventory.FloorUnitRepository,
	propertyRepo inventory.PropertyRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		buildingRepo: buildingRepo,
		floorRepo:    floorRepo,
		propertyRepo: propertyRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BuildingRepo returns the building repository.
func (s *NoOpTransactionScope) BuildingRepo() inventory.BuildingRepository {
	return s.buildingRepo
}

// FloorUnitRepo returns the floor unit repository.
func (s *NoOpTransactionScope) FloorUnitRepo() inventory.FloorUnitRepository {
	return s.floorRepo
}

// PropertyRepo returns the property repository.
func (s *NoOpTransactionScope) PropertyRepo() inventory.PropertyRepository {
	return s.propertyRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
