package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/shared"
)

// ProductState is the slice of a product the monitor needs to classify its
// stock band
type ProductState struct {
	ID           uuid.UUID
	Name         string
	Quantity     decimal.Decimal
	ReorderLevel int
}

// StockMonitor derives stock-level notifications from a product's current
// quantity. Refresh is idempotent: driving the same state repeatedly leaves
// at most one unread notification per type, and leaving a band clears its
// notification.
type StockMonitor struct {
	repo Repository
}

// NewStockMonitor creates a new StockMonitor
func NewStockMonitor(repo Repository) *StockMonitor {
	return &StockMonitor{repo: repo}
}

// Refresh reconciles the product's notifications with its quantity. Callers
// invoke it after every product-quantity mutation; failures here must never
// roll back the mutation that triggered them.
func (m *StockMonitor) Refresh(ctx context.Context, state ProductState) error {
	switch {
	case state.Quantity.LessThanOrEqual(decimal.Zero):
		message := fmt.Sprintf("%s is out of stock", state.Name)
		if err := m.upsert(ctx, state.ID, TypeOutOfStock, message); err != nil {
			return err
		}
		return m.repo.DeleteUnread(ctx, state.ID, TypeLowStock)

	case state.Quantity.LessThanOrEqual(decimal.NewFromInt(int64(state.ReorderLevel))):
		message := fmt.Sprintf("%s is low on stock: %s left (reorder level %d)",
			state.Name, state.Quantity.String(), state.ReorderLevel)
		if err := m.upsert(ctx, state.ID, TypeLowStock, message); err != nil {
			return err
		}
		return m.repo.DeleteUnread(ctx, state.ID, TypeOutOfStock)

	default:
		if err := m.repo.DeleteUnread(ctx, state.ID, TypeLowStock); err != nil {
			return err
		}
		return m.repo.DeleteUnread(ctx, state.ID, TypeOutOfStock)
	}
}

// upsert refreshes the existing unread notification of the given type or
// creates one, guaranteeing at most one unread row per (product, type)
func (m *StockMonitor) upsert(ctx context.Context, productID uuid.UUID, notifType Type, message string) error {
	existing, err := m.repo.FindUnread(ctx, productID, notifType)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		created, err := NewNotification(productID, notifType, message)
		if err != nil {
			return err
		}
		return m.repo.Save(ctx, created)
	}

	existing.Refresh(message)
	return m.repo.Save(ctx, existing)
}
