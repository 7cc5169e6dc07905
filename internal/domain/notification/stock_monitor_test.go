package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stockbill/backend/internal/domain/shared"
)

type memoryRepo struct {
	rows map[uuid.UUID]*Notification
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[uuid.UUID]*Notification)}
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*Notification, error) {
	if n, ok := r.rows[id]; ok {
		return n, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindUnread(_ context.Context, productID uuid.UUID, notifType Type) (*Notification, error) {
	for _, n := range r.rows {
		if n.ProductID == productID && n.Type == notifType && !n.Read {
			return n, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindAll(_ context.Context, _ shared.Filter) ([]Notification, error) {
	out := make([]Notification, 0, len(r.rows))
	for _, n := range r.rows {
		out = append(out, *n)
	}
	return out, nil
}

func (r *memoryRepo) Save(_ context.Context, n *Notification) error {
	r.rows[n.ID] = n
	return nil
}

func (r *memoryRepo) DeleteUnread(_ context.Context, productID uuid.UUID, notifType Type) error {
	for id, n := range r.rows {
		if n.ProductID == productID && n.Type == notifType && !n.Read {
			delete(r.rows, id)
		}
	}
	return nil
}

func (r *memoryRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for id, n := range r.rows {
		if n.Read && n.UpdatedAt.Before(cutoff) {
			delete(r.rows, id)
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) CountUnread(_ context.Context) (int64, error) {
	var count int64
	for _, n := range r.rows {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.rows)), nil
}

func (r *memoryRepo) unread(productID uuid.UUID, notifType Type) *Notification {
	n, err := r.FindUnread(context.Background(), productID, notifType)
	if err != nil {
		return nil
	}
	return n
}

func state(id uuid.UUID, qty int64) ProductState {
	return ProductState{ID: id, Name: "Rice 5kg", Quantity: decimal.NewFromInt(qty), ReorderLevel: 10}
}

func TestStockMonitor_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("zero quantity raises out-of-stock and clears low-stock", func(t *testing.T) {
		repo := newMemoryRepo()
		monitor := NewStockMonitor(repo)
		productID := uuid.New()

		require.NoError(t, monitor.Refresh(ctx, state(productID, 5)))
		require.NotNil(t, repo.unread(productID, TypeLowStock))

		require.NoError(t, monitor.Refresh(ctx, state(productID, 0)))
		assert.NotNil(t, repo.unread(productID, TypeOutOfStock))
		assert.Nil(t, repo.unread(productID, TypeLowStock))
	})

	t.Run("at reorder level raises exactly one low-stock", func(t *testing.T) {
		repo := newMemoryRepo()
		monitor := NewStockMonitor(repo)
		productID := uuid.New()

		require.NoError(t, monitor.Refresh(ctx, state(productID, 10)))
		require.NoError(t, monitor.Refresh(ctx, state(productID, 10)))
		require.NoError(t, monitor.Refresh(ctx, state(productID, 10)))

		count, err := repo.CountUnread(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.NotNil(t, repo.unread(productID, TypeLowStock))
	})

	t.Run("repeated trigger refreshes message in place", func(t *testing.T) {
		repo := newMemoryRepo()
		monitor := NewStockMonitor(repo)
		productID := uuid.New()

		require.NoError(t, monitor.Refresh(ctx, state(productID, 8)))
		first := repo.unread(productID, TypeLowStock)
		require.NotNil(t, first)
		firstID := first.ID

		require.NoError(t, monitor.Refresh(ctx, state(productID, 3)))
		second := repo.unread(productID, TypeLowStock)
		require.NotNil(t, second)
		assert.Equal(t, firstID, second.ID)
		assert.Contains(t, second.Message, "3 left")
	})

	t.Run("recovery above reorder level clears everything", func(t *testing.T) {
		repo := newMemoryRepo()
		monitor := NewStockMonitor(repo)
		productID := uuid.New()

		require.NoError(t, monitor.Refresh(ctx, state(productID, 0)))
		require.NoError(t, monitor.Refresh(ctx, state(productID, 50)))

		count, err := repo.CountUnread(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("read notifications are not refreshed", func(t *testing.T) {
		repo := newMemoryRepo()
		monitor := NewStockMonitor(repo)
		productID := uuid.New()

		require.NoError(t, monitor.Refresh(ctx, state(productID, 5)))
		n := repo.unread(productID, TypeLowStock)
		require.NotNil(t, n)
		n.MarkRead()

		require.NoError(t, monitor.Refresh(ctx, state(productID, 4)))
		fresh := repo.unread(productID, TypeLowStock)
		require.NotNil(t, fresh)
		assert.NotEqual(t, n.ID, fresh.ID)
	})
}
