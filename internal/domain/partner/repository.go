package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDForUpdate finds a customer and takes a row-level write lock,
	// used when the outstanding balance is adjusted alongside a bill write
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindAll finds customers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// Delete deletes a customer
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts customers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
