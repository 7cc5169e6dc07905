package inventory

import (
	"context"

	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/notification"
)

// TransactionScope provides transactional access to the inventory
// repositories. A goods receipt that creates products and batches commits or
// rolls back as one unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the inventory repositories
// within a transaction
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() inventory.ProductRepository
	// BatchRepo returns the stock batch repository scoped to the current transaction
	BatchRepo() inventory.StockBatchRepository
}

// StockNotifier reconciles stock-level notifications after a product's
// quantity changed
type StockNotifier interface {
	Refresh(ctx context.Context, state notification.ProductState) error
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions, for testing with in-memory repositories
type NoOpTransactionScope struct {
	productRepo inventory.ProductRepository
	batchRepo   inventory.StockBatchRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	productRepo inventory.ProductRepository,
	batchRepo inventory.StockBatchRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{productRepo: productRepo, batchRepo: batchRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository
func (s *NoOpTransactionScope) ProductRepo() inventory.ProductRepository {
	return s.productRepo
}

// BatchRepo returns the stock batch repository
func (s *NoOpTransactionScope) BatchRepo() inventory.StockBatchRepository {
	return s.batchRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
