package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/shared"
)

// StockBatch represents a priced lot of a product received into the warehouse.
// The (ProductID, BatchNumber) pair is unique. A batch at zero quantity is
// never deleted; it remains as the cost-history record for past sales.
type StockBatch struct {
	shared.BaseEntity
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_batch_product_number,priority:1"`
	BatchNumber       string          `gorm:"not null;uniqueIndex:idx_stock_batch_product_number,priority:2"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReceivedDate      time.Time       `gorm:"not null;index"`
	ManufacturingDate time.Time       `gorm:"not null"`
	ExpiryDate        *time.Time
	SupplierID        *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StockBatch) TableName() string {
	return "stock_batches"
}

// NewStockBatch creates a new stock batch
func NewStockBatch(
	productID uuid.UUID,
	batchNumber string,
	unitCost, quantity decimal.Decimal,
	receivedDate, manufacturingDate time.Time,
	expiryDate *time.Time,
	supplierID *uuid.UUID,
) (*StockBatch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
	}

	return &StockBatch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		BatchNumber:       batchNumber,
		UnitCost:          unitCost,
		Quantity:          quantity,
		ReceivedDate:      receivedDate,
		ManufacturingDate: manufacturingDate,
		ExpiryDate:        expiryDate,
		SupplierID:        supplierID,
	}, nil
}

// Deduct reduces the batch quantity. The batch must cover the full amount;
// partial takes are planned by the allocation service, not here.
func (b *StockBatch) Deduct(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduction must be positive")
	}
	if b.Quantity.LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Batch quantity cannot go negative")
	}
	b.Quantity = b.Quantity.Sub(quantity)
	b.UpdatedAt = time.Now()
	return nil
}

// Restore returns previously sold quantity to the batch (bill edit or delete)
func (b *StockBatch) Restore(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Restoration must be positive")
	}
	b.Quantity = b.Quantity.Add(quantity)
	b.UpdatedAt = time.Now()
	return nil
}

// HasStock returns true if the batch has available quantity
func (b *StockBatch) HasStock() bool {
	return b.Quantity.GreaterThan(decimal.Zero)
}

// IsExpired returns true if the batch has expired
func (b *StockBatch) IsExpired() bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(time.Now())
}

// TotalValue returns the value of the remaining quantity at batch cost
func (b *StockBatch) TotalValue() decimal.Decimal {
	return b.Quantity.Mul(b.UnitCost)
}
