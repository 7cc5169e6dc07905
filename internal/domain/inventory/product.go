package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/shared"
)

// Product is the aggregate root for a sellable item. TotalQuantity is a
// denormalized cache of the sum of the product's batch quantities; batches
// remain the ground truth for how much can actually be sold.
type Product struct {
	shared.BaseAggregateRoot
	Name          string          `gorm:"not null;uniqueIndex"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Informational list price; sales charge batch cost
	TotalQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderLevel  int             `gorm:"not null;default:10"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product. A non-positive reorder level falls back
// to the supplied default, which is resolved once from configuration at the
// boundary rather than per call site.
func NewProduct(name string, unitPrice decimal.Decimal, reorderLevel, defaultReorderLevel int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if reorderLevel < 1 {
		reorderLevel = defaultReorderLevel
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		UnitPrice:         unitPrice,
		TotalQuantity:     decimal.Zero,
		ReorderLevel:      reorderLevel,
	}, nil
}

// IncreaseQuantity adds to the cached total quantity
func (p *Product) IncreaseQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.TotalQuantity = p.TotalQuantity.Add(quantity)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// DecreaseQuantity subtracts from the cached total quantity.
// The cache must never go negative.
func (p *Product) DecreaseQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.TotalQuantity.LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Product quantity cannot go negative")
	}
	p.TotalQuantity = p.TotalQuantity.Sub(quantity)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// ReconcileQuantity overwrites the cached total with the batch-derived sum.
// Used by administrative adjustment when the cache has drifted.
func (p *Product) ReconcileQuantity(actual decimal.Decimal) error {
	if actual.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	p.TotalQuantity = actual
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetReorderLevel updates the low-stock threshold, falling back to the
// configured default when the supplied level is not usable.
func (p *Product) SetReorderLevel(level, defaultReorderLevel int) {
	if level < 1 {
		level = defaultReorderLevel
	}
	p.ReorderLevel = level
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetUnitPrice updates the informational list price
func (p *Product) SetUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	p.UnitPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Rename updates the product name
func (p *Product) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	p.Name = name
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsOutOfStock returns true if the cached quantity is zero
func (p *Product) IsOutOfStock() bool {
	return p.TotalQuantity.LessThanOrEqual(decimal.Zero)
}

// IsLowStock returns true if stock is positive but at or below the reorder level
func (p *Product) IsLowStock() bool {
	if p.IsOutOfStock() {
		return false
	}
	return p.TotalQuantity.LessThanOrEqual(decimal.NewFromInt(int64(p.ReorderLevel)))
}
