package persistence

import (
	"context"

	appbilling "github.com/stockbill/backend/internal/application/billing"
	appinventory "github.com/stockbill/backend/internal/application/inventory"
	"github.com/stockbill/backend/internal/domain/billing"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution across the bill, stock and customer tables.
type GormTransactionScope struct {
	db         *gorm.DB
	billPrefix string
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, billPrefix string) *GormTransactionScope {
	return &GormTransactionScope{db: db, billPrefix: billPrefix}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx, billPrefix: s.billPrefix}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx         *gorm.DB
	billPrefix string
}

// ProductRepo returns the product repository scoped to the current transaction
func (r *gormTransactionalRepositories) ProductRepo() inventory.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// BatchRepo returns the stock batch repository scoped to the current transaction
func (r *gormTransactionalRepositories) BatchRepo() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

// BillRepo returns the bill repository scoped to the current transaction
func (r *gormTransactionalRepositories) BillRepo() billing.BillRepository {
	return NewGormBillRepository(r.tx, r.billPrefix)
}

// CustomerRepo returns the customer repository scoped to the current transaction
func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// GormInventoryTransactionScope implements the inventory TransactionScope.
// Goods receipts and quantity reconciliation touch only products and batches.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new GormInventoryTransactionScope
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements both repository sets
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ appinventory.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

// Ensure GormInventoryTransactionScope implements the inventory scope
var _ appinventory.TransactionScope = (*GormInventoryTransactionScope)(nil)
