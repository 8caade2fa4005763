package persistence

import (
	"context"

	appinv "github.com/estateflow/backend/internal/application/inventory"
	apppipeline "github.com/estateflow/backend/internal/application/pipeline"
	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/pipeline"
	"gorm.io/gorm"
)

// GormInventoryTransactionScope implements the inventory TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new GormInventoryTransactionScope.
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormPipelineTransactionScope implements the pipeline TransactionScope using GORM transactions.
type GormPipelineTransactionScope struct {
	db *gorm.DB
}

// NewGormPipelineTransactionScope creates a new GormPipelineTransactionScope.
func NewGormPipelineTransactionScope(db *gorm.DB) *GormPipelineTransactionScope {
	return &GormPipelineTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormPipelineTransactionScope) Execute(ctx context.Context, fn func(repos apppipeline.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// BuildingRepo returns the building repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BuildingRepo() inventory.BuildingRepository {
	return NewGormBuildingRepository(r.tx)
}

// FloorUnitRepo returns the floor unit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) FloorUnitRepo() inventory.FloorUnitRepository {
	return NewGormFloorUnitRepository(r.tx)
}

// PropertyRepo returns the property repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PropertyRepo() inventory.PropertyRepository {
	return NewGormPropertyRepository(r.tx)
}

// LeadRepo returns the lead repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LeadRepo() pipeline.LeadRepository {
	return NewGormLeadRepository(r.tx)
}

// FollowUpRepo returns the follow-up repository scoped to the current transaction.
func (r *gormTransactionalRepositories) FollowUpRepo() pipeline.FollowUpRepository {
	return NewGormFollowUpRepository(r.tx)
}

// Ensure the scopes implement their TransactionScope interfaces
var (
	_ appinv.TransactionScope      = (*GormInventoryTransactionScope)(nil)
	_ apppipeline.TransactionScope = (*GormPipelineTransactionScope)(nil)
)

// Ensure gormTransactionalRepositories implements both TransactionalRepositories
var (
	_ appinv.TransactionalRepositories      = (*gormTransactionalRepositories)(nil)
	_ apppipeline.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
