package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/inventory"
)

// Stock status labels reported on product responses
const (
	StockStatusHealthy    = "healthy"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ReorderLevel int             `json:"reorder_level" binding:"omitempty,min=1"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ReorderLevel int             `json:"reorder_level" binding:"omitempty,min=1"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search     string `form:"search"`
	OutOfStock *bool  `form:"out_of_stock"`
	LowStock   *bool  `form:"low_stock"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	ReorderLevel  int             `json:"reorder_level"`
	StockStatus   string          `json:"stock_status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ToProductResponse maps a product aggregate to its API representation
func ToProductResponse(p *inventory.Product) ProductResponse {
	status := StockStatusHealthy
	switch {
	case p.IsOutOfStock():
		status = StockStatusOutOfStock
	case p.IsLowStock():
		status = StockStatusLowStock
	}

	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		UnitPrice:     p.UnitPrice,
		TotalQuantity: p.TotalQuantity,
		ReorderLevel:  p.ReorderLevel,
		StockStatus:   status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

// GoodsReceiptItemRequest is one received lot. Exactly one of ProductID and
// NewProductName must be set; a new name creates the product as part of the
// receipt.
type GoodsReceiptItemRequest struct {
	ProductID         *uuid.UUID      `json:"product_id"`
	NewProductName    string          `json:"new_product_name"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	ReorderLevel      int             `json:"reorder_level" binding:"omitempty,min=1"`
	BatchNumber       string          `json:"batch_number" binding:"required"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	ReceivedDate      *time.Time      `json:"received_date"`
	ManufacturingDate *time.Time      `json:"manufacturing_date"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	SupplierID        *uuid.UUID      `json:"supplier_id"`
}

// GoodsReceiptRequest represents a request to receive stock
type GoodsReceiptRequest struct {
	Items []GoodsReceiptItemRequest `json:"items" binding:"required,min=1,dive"`
}

// BatchResponse represents a stock batch in API responses
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Quantity          decimal.Decimal `json:"quantity"`
	TotalValue        decimal.Decimal `json:"total_value"`
	ReceivedDate      time.Time       `json:"received_date"`
	ManufacturingDate time.Time       `json:"manufacturing_date"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	SupplierID        *uuid.UUID      `json:"supplier_id,omitempty"`
	Expired           bool            `json:"expired"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToBatchResponse maps a stock batch to its API representation
func ToBatchResponse(b *inventory.StockBatch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		BatchNumber:       b.BatchNumber,
		UnitCost:          b.UnitCost,
		Quantity:          b.Quantity,
		TotalValue:        b.TotalValue(),
		ReceivedDate:      b.ReceivedDate,
		ManufacturingDate: b.ManufacturingDate,
		ExpiryDate:        b.ExpiryDate,
		SupplierID:        b.SupplierID,
		Expired:           b.IsExpired(),
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// GoodsReceiptResponse reports the outcome of a goods receipt
type GoodsReceiptResponse struct {
	Batches         []BatchResponse   `json:"batches"`
	CreatedProducts []ProductResponse `json:"created_products,omitempty"`
}
