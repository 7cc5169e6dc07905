package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/shared"
)

// BillItem is one priced sub-line of a bill. A sale whose quantity spanned
// several batches produces one item per batch, each at that batch's cost.
type BillItem struct {
	shared.BaseEntity
	BillID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null"`
	BatchNumber string          `gorm:"not null"`
	ProductName string          `gorm:"not null"` // Display snapshot at time of sale
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Batch cost snapshot, not the live list price
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Position    int             `gorm:"not null"` // Preserves line ordering
}

// TableName returns the table name for GORM
func (BillItem) TableName() string {
	return "bill_items"
}

// Bill is the aggregate root for a sale. It stores the fully resolved
// financial fields and a snapshot of the customer's contact details, keeping
// historical bills immutable regardless of later master-data edits.
type Bill struct {
	shared.BaseAggregateRoot
	Number        string     `gorm:"not null;uniqueIndex"` // Sequential human-readable number
	CustomerID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerName  string     `gorm:"not null"`
	CustomerEmail string     ``
	CustomerPhone string     ``
	Items         []BillItem `gorm:"foreignKey:BillID;references:ID"`

	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DueAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	PaymentMethod PaymentMethod `gorm:"not null;default:'cash'"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending';index"`
	BillDate      time.Time     `gorm:"not null;index"`
	DueDate       *time.Time
	Notes         string
	CreatedByID   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Bill) TableName() string {
	return "bills"
}

// CustomerSnapshot carries the denormalized customer fields captured on a bill
type CustomerSnapshot struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

// NewBill creates a new bill shell; items and financials are attached by the
// lifecycle service after allocation succeeds.
func NewBill(number string, customer CustomerSnapshot, method PaymentMethod, billDate time.Time) (*Bill, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Bill number cannot be empty")
	}
	if customer.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+method.String())
	}
	if billDate.IsZero() {
		billDate = time.Now()
	}

	return &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customer.ID,
		CustomerName:      customer.Name,
		CustomerEmail:     customer.Email,
		CustomerPhone:     customer.Phone,
		Items:             make([]BillItem, 0),
		PaymentMethod:     method,
		PaymentStatus:     PaymentStatusPending,
		BillDate:          billDate,
	}, nil
}

// AddItem appends a priced sub-line resolved against a specific batch
func (b *Bill) AddItem(productID, batchID uuid.UUID, batchNumber, productName string, quantity, unitPrice decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Item price cannot be negative")
	}

	b.Items = append(b.Items, BillItem{
		BaseEntity:  shared.NewBaseEntity(),
		BillID:      b.ID,
		ProductID:   productID,
		BatchID:     batchID,
		BatchNumber: batchNumber,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(quantity),
		Position:    len(b.Items),
	})
	b.UpdatedAt = time.Now()
	return nil
}

// ReplaceItems swaps the full item set, used by the update reconciliation path
func (b *Bill) ReplaceItems(items []BillItem) {
	for i := range items {
		items[i].BillID = b.ID
		items[i].Position = i
	}
	b.Items = items
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// ApplyFinancials copies a computed financial record onto the bill
func (b *Bill) ApplyFinancials(f Financials) {
	b.Subtotal = f.Subtotal
	b.DiscountPercent = f.DiscountPercent
	b.DiscountAmount = f.DiscountAmount
	b.TaxPercent = f.TaxPercent
	b.TaxAmount = f.TaxAmount
	b.TotalAmount = f.TotalAmount
	b.PaidAmount = f.PaidAmount
	b.DueAmount = f.DueAmount
	b.PaymentStatus = f.Status
	b.UpdatedAt = time.Now()
}

// LineTotals returns the item line totals in order, the calculator's input
func (b *Bill) LineTotals() []decimal.Decimal {
	totals := make([]decimal.Decimal, len(b.Items))
	for i, item := range b.Items {
		totals[i] = item.LineTotal
	}
	return totals
}

// SetDueDate sets the optional payment due date
func (b *Bill) SetDueDate(due *time.Time) {
	b.DueDate = due
	b.UpdatedAt = time.Now()
}

// SetNotes sets free-form notes
func (b *Bill) SetNotes(notes string) {
	b.Notes = notes
	b.UpdatedAt = time.Now()
}

// SetCreatedBy records the creating user
func (b *Bill) SetCreatedBy(userID uuid.UUID) {
	b.CreatedByID = &userID
}

// IsSettled returns true when nothing is owed on the bill
func (b *Bill) IsSettled() bool {
	return b.DueAmount.LessThanOrEqual(decimal.Zero)
}
