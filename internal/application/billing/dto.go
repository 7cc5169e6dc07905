package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/billing"
)

// BillItemRequest is one requested sale line. BatchNumber pins the line to a
// specific batch; when empty the quantity is drawn FIFO across batches. Price
// overrides the charged unit price for the line; when absent each sub-line is
// charged at its batch's cost snapshot.
type BillItemRequest struct {
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	BatchNumber string           `json:"batch_number"`
	Price       *decimal.Decimal `json:"price"`
}

// CreateBillRequest represents a request to create a bill
type CreateBillRequest struct {
	CustomerID      uuid.UUID         `json:"customer_id" binding:"required"`
	Items           []BillItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	TaxPercent      decimal.Decimal   `json:"tax_percent"`
	PaidAmount      decimal.Decimal   `json:"paid_amount"`
	PaymentMethod   string            `json:"payment_method" binding:"omitempty,oneof=cash card upi bank_transfer credit"`
	PaymentStatus   string            `json:"payment_status" binding:"omitempty,oneof=pending paid partial"`
	BillDate        *time.Time        `json:"bill_date"`
	DueDate         *time.Time        `json:"due_date"`
	Notes           string            `json:"notes"`
	CreatedByID     *uuid.UUID        `json:"created_by_id"`
}

// UpdateBillRequest represents a request to rewrite a bill's lines and
// financial inputs. The bill's customer and number are fixed at creation.
type UpdateBillRequest struct {
	Items           []BillItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	TaxPercent      decimal.Decimal   `json:"tax_percent"`
	PaidAmount      decimal.Decimal   `json:"paid_amount"`
	PaymentMethod   string            `json:"payment_method" binding:"omitempty,oneof=cash card upi bank_transfer credit"`
	PaymentStatus   string            `json:"payment_status" binding:"omitempty,oneof=pending paid partial"`
	DueDate         *time.Time        `json:"due_date"`
	Notes           string            `json:"notes"`
}

// BillListFilter represents filter options for the bill list
type BillListFilter struct {
	Search        string     `form:"search"`
	CustomerID    *uuid.UUID `form:"customer_id"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=pending paid partial"`
	PaymentMethod string     `form:"payment_method" binding:"omitempty,oneof=cash card upi bank_transfer credit"`
	DateFrom      *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo        *time.Time `form:"date_to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BillItemResponse represents a bill item in API responses
type BillItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID              uuid.UUID          `json:"id"`
	Number          string             `json:"number"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email,omitempty"`
	CustomerPhone   string             `json:"customer_phone,omitempty"`
	Items           []BillItemResponse `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TaxPercent      decimal.Decimal    `json:"tax_percent"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaidAmount      decimal.Decimal    `json:"paid_amount"`
	DueAmount       decimal.Decimal    `json:"due_amount"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	BillDate        time.Time          `json:"bill_date"`
	DueDate         *time.Time         `json:"due_date,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Version         int                `json:"version"`
}

// ToBillResponse maps a bill aggregate to its API representation
func ToBillResponse(bill *billing.Bill) BillResponse {
	items := make([]BillItemResponse, len(bill.Items))
	for i, item := range bill.Items {
		items[i] = BillItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			BatchID:     item.BatchID,
			BatchNumber: item.BatchNumber,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
	}

	return BillResponse{
		ID:              bill.ID,
		Number:          bill.Number,
		CustomerID:      bill.CustomerID,
		CustomerName:    bill.CustomerName,
		CustomerEmail:   bill.CustomerEmail,
		CustomerPhone:   bill.CustomerPhone,
		Items:           items,
		Subtotal:        bill.Subtotal,
		DiscountPercent: bill.DiscountPercent,
		DiscountAmount:  bill.DiscountAmount,
		TaxPercent:      bill.TaxPercent,
		TaxAmount:       bill.TaxAmount,
		TotalAmount:     bill.TotalAmount,
		PaidAmount:      bill.PaidAmount,
		DueAmount:       bill.DueAmount,
		PaymentMethod:   bill.PaymentMethod.String(),
		PaymentStatus:   bill.PaymentStatus.String(),
		BillDate:        bill.BillDate,
		DueDate:         bill.DueDate,
		Notes:           bill.Notes,
		CreatedAt:       bill.CreatedAt,
		UpdatedAt:       bill.UpdatedAt,
		Version:         bill.Version,
	}
}
