package inventory

import (
	"context"

	"github.com/mrp/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. All repositories returned share the same underlying database
// transaction.
//
// Aggregate boundary notes:
//   - MaterialRepo: repository for the Material aggregate root. The row lock
//     taken by FindByIDForTenantLocked lives for the duration of the scope.
//   - TransactionRepo: append-only repository for ledger entries. An entry is
//     only visible once the material update it describes has committed.
type TransactionalRepositories interface {
	// MaterialRepo returns the material repository scoped to the current transaction
	MaterialRepo() inventory.MaterialRepository
	// TransactionRepo returns the ledger entry repository scoped to the current transaction
	TransactionRepo() inventory.InventoryTransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	materialRepo    inventory.MaterialRepository
	transactionRepo inventory.InventoryTransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	materialRepo inventory.MaterialRepository,
	transactionRepo inventory.InventoryTransactionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		materialRepo:    materialRepo,
		transactionRepo: transactionRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// MaterialRepo returns the material repository.
func (s *NoOpTransactionScope) MaterialRepo() inventory.MaterialRepository {
	return s.materialRepo
}

// TransactionRepo returns the ledger entry repository.
func (s *NoOpTransactionScope) TransactionRepo() inventory.InventoryTransactionRepository {
	return s.transactionRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
