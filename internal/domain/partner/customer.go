package partner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/shared"
)

// Customer is the aggregate root for a buyer. OutstandingBalance is a single
// scalar of what the customer currently owes across unpaid and partial
// bills; it is adjusted by signed deltas, not replaced, so concurrent bills
// for the same customer compose correctly.
type Customer struct {
	shared.BaseAggregateRoot
	Name               string          `gorm:"not null;index"`
	Email              string          ``
	Phone              string          ``
	Address            string          ``
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(name, email, phone string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}

	return &Customer{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		Email:              email,
		Phone:              phone,
		OutstandingBalance: decimal.Zero,
	}, nil
}

// Update changes the customer's contact details
func (c *Customer) Update(name, email, phone, address string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	c.Name = name
	c.Email = email
	c.Phone = phone
	c.Address = address
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// AdjustOutstanding applies a signed delta to the outstanding balance.
// Positive deltas come from new dues, negative ones from payments, bill
// edits that reduce the due, or bill deletion. Reversals floor at zero;
// the balance is an amount owed, never a credit.
func (c *Customer) AdjustOutstanding(delta decimal.Decimal) {
	c.OutstandingBalance = c.OutstandingBalance.Add(delta)
	if c.OutstandingBalance.IsNegative() {
		c.OutstandingBalance = decimal.Zero
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// HasOutstanding returns true if the customer owes anything
func (c *Customer) HasOutstanding() bool {
	return c.OutstandingBalance.GreaterThan(decimal.Zero)
}
