package pipeline

import (
	"context"

	"github.com/estateflow/backend/internal/domain/pipeline"
)

// TransactionScope provides transactional access to pipeline repositories
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the pipeline repositories
// bound to the current transaction
type TransactionalRepositories interface {
	LeadRepo() pipeline.LeadRepository
	FollowUpRepo() pipeline.FollowUpRepository
}

// NoOpTransactionScope runs without a real transaction
type NoOpTransactionScope struct {
	leadRepo     pipeline.LeadRepository
	followUpRepo pipeline.FollowUpRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(leadRepo pipeline.LeadRepository, followUpRepo pipeline.FollowUpRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{leadRepo: leadRepo, followUpRepo: followUpRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LeadRepo returns the lead repository.
func (s *NoOpTransactionScope) LeadRepo() pipeline.LeadRepository {
	return s.leadRepo
}

// FollowUpRepo returns the follow-up repository.
func (s *NoOpTransactionScope) FollowUpRepo() pipeline.FollowUpRepository {
	return s.followUpRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
