package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForUpdate finds a product and takes a row-level write lock.
	// Every stock mutation for a product starts here so that concurrent
	// sales against the same product serialize instead of overselling.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByName finds a product by its exact name
	FindByName(ctx context.Context, name string) (*Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// StockBatchRepository defines the interface for stock batch persistence.
// Listings are returned in FIFO order (received date, manufacturing date,
// creation time ascending), the same order the allocation service consumes.
type StockBatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)

	// FindByProduct finds all batches for a product in FIFO order
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]StockBatch, error)

	// FindAvailableByProduct finds batches with quantity > 0 in FIFO order
	FindAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]StockBatch, error)

	// FindByProductForUpdate finds all batches for a product in FIFO order
	// with row-level write locks, for use inside allocation transactions
	FindByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]StockBatch, error)

	// FindByProductAndNumber finds one batch by its (product, number) identity
	FindByProductAndNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*StockBatch, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *StockBatch) error

	// SaveAll creates or updates multiple batches
	SaveAll(ctx context.Context, batches []*StockBatch) error

	// ExistsByProductAndNumber checks if a batch number is taken for a product
	ExistsByProductAndNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (bool, error)

	// CountByProduct counts batches for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
