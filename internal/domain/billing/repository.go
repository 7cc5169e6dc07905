package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/shared"
)

// BillRepository defines the interface for bill persistence
type BillRepository interface {
	// FindByID finds a bill with its items by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByNumber finds a bill with its items by its human-readable number
	FindByNumber(ctx context.Context, number string) (*Bill, error)

	// FindAll finds bills matching the filter, items preloaded
	FindAll(ctx context.Context, filter shared.Filter) ([]Bill, error)

	// FindByCustomer finds bills for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Bill, error)

	// Save creates or updates a bill together with its items
	Save(ctx context.Context, bill *Bill) error

	// ReplaceItems persists a bill's new item set, removing the old rows
	ReplaceItems(ctx context.Context, bill *Bill) error

	// Delete deletes a bill and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts bills matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// NextNumber reserves and returns the next sequential bill number.
	// The sequence row is locked for the duration of the surrounding
	// transaction, keeping numbers monotonic and gapless.
	NextNumber(ctx context.Context) (string, error)
}
