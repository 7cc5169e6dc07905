package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/shared"
)

// Repository defines the interface for notification persistence
type Repository interface {
	// FindByID finds a notification by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// FindUnread finds the single unread notification of a type for a
	// product, or shared.ErrNotFound
	FindUnread(ctx context.Context, productID uuid.UUID, notifType Type) (*Notification, error)

	// FindAll finds notifications matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Notification, error)

	// Save creates or updates a notification
	Save(ctx context.Context, n *Notification) error

	// DeleteUnread removes the unread notification of a type for a product,
	// if one exists
	DeleteUnread(ctx context.Context, productID uuid.UUID, notifType Type) error

	// DeleteOlderThan removes read notifications last updated before the
	// cutoff; used by the scheduled retention purge
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountUnread counts unread notifications
	CountUnread(ctx context.Context) (int64, error)

	// Count counts notifications matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
