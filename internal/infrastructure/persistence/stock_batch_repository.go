package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fifoOrder is the consumption order used by allocation: oldest received
// first, with manufacturing date and insertion time as tie-breakers.
const fifoOrder = "received_date ASC, manufacturing_date ASC, created_at ASC"

// GormStockBatchRepository implements StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// FindByID finds a stock batch by its ID
func (r *GormStockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	var batch inventory.StockBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProduct finds all batches for a product in FIFO order
func (r *GormStockBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	var batches []inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order(fifoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindAvailableByProduct finds batches with remaining stock in FIFO order
func (r *GormStockBatchRepository) FindAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	var batches []inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity > 0", productID).
		Order(fifoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByProductForUpdate finds all batches for a product in FIFO order with
// row-level write locks, for use inside allocation transactions
func (r *GormStockBatchRepository) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	var batches []inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		Order(fifoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByProductAndNumber finds one batch by its (product, number) identity
func (r *GormStockBatchRepository) FindByProductAndNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*inventory.StockBatch, error) {
	var batch inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND batch_number = ?", productID, batchNumber).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// Save creates or updates a batch
func (r *GormStockBatchRepository) Save(ctx context.Context, batch *inventory.StockBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// SaveAll creates or updates multiple batches
func (r *GormStockBatchRepository) SaveAll(ctx context.Context, batches []*inventory.StockBatch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&batches).Error
}

// ExistsByProductAndNumber checks if a batch number is taken for a product
func (r *GormStockBatchRepository) ExistsByProductAndNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockBatch{}).
		Where("product_id = ? AND batch_number = ?", productID, batchNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByProduct counts batches for a product
func (r *GormStockBatchRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockBatch{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormStockBatchRepository implements StockBatchRepository
var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
