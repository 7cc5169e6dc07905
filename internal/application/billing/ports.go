package billing

import (
	"context"

	"github.com/stockbill/backend/internal/domain/billing"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/domain/partner"
)

// TransactionScope provides transactional access to the repositories a bill
// write touches. All repository operations executed within the scope commit
// or roll back atomically; a bill is never persisted without its stock
// deductions and balance adjustment.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All returned repositories share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() inventory.ProductRepository
	// BatchRepo returns the stock batch repository scoped to the current transaction
	BatchRepo() inventory.StockBatchRepository
	// BillRepo returns the bill repository scoped to the current transaction
	BillRepo() billing.BillRepository
	// CustomerRepo returns the customer repository scoped to the current transaction
	CustomerRepo() partner.CustomerRepository
}

// StockNotifier reconciles stock-level notifications after a product's
// quantity changed. Notification failures never fail the bill write; the
// service logs and moves on.
type StockNotifier interface {
	Refresh(ctx context.Context, state notification.ProductState) error
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing with in-memory repositories.
type NoOpTransactionScope struct {
	productRepo  inventory.ProductRepository
	batchRepo    inventory.StockBatchRepository
	billRepo     billing.BillRepository
	customerRepo partner.CustomerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	productRepo inventory.ProductRepository,
	batchRepo inventory.StockBatchRepository,
	billRepo billing.BillRepository,
	customerRepo partner.CustomerRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		billRepo:     billRepo,
		customerRepo: customerRepo,
	}
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

// BillRepo returns the bill repository
func (s *NoOpTransactionScope) BillRepo() billing.BillRepository {
	return s.billRepo
}

// CustomerRepo returns the customer repository
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository {
	return s.customerRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
