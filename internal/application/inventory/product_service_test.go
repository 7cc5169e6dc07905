package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

func newProductServiceFixture(t *testing.T) (*ProductService, *memProductRepo, *memBatchRepo, *recordingNotifier) {
	t.Helper()
	productRepo := newMemProductRepo()
	batchRepo := newMemBatchRepo()
	notifier := &recordingNotifier{}
	scope := NewNoOpTransactionScope(productRepo, batchRepo)
	svc := NewProductService(scope, productRepo, batchRepo, notifier, 10, zap.NewNop())
	return svc, productRepo, batchRepo, notifier
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("applies default reorder level when none given", func(t *testing.T) {
		svc, _, _, _ := newProductServiceFixture(t)

		resp, err := svc.Create(ctx, CreateProductRequest{
			Name:      "Basmati Rice 5kg",
			UnitPrice: decimal.NewFromInt(450),
		})
		require.NoError(t, err)
		assert.Equal(t, "Basmati Rice 5kg", resp.Name)
		assert.Equal(t, 10, resp.ReorderLevel)
		assert.True(t, resp.TotalQuantity.IsZero())
		assert.Equal(t, StockStatusOutOfStock, resp.StockStatus)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		svc, _, _, _ := newProductServiceFixture(t)

		_, err := svc.Create(ctx, CreateProductRequest{Name: "Sunflower Oil 1L"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateProductRequest{Name: "Sunflower Oil 1L"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		svc, _, _, _ := newProductServiceFixture(t)

		_, err := svc.Create(ctx, CreateProductRequest{
			Name:      "Broken",
			UnitPrice: decimal.NewFromInt(-1),
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PRICE", domainErr.Code)
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("renames and changes price and reorder level", func(t *testing.T) {
		svc, _, _, notifier := newProductServiceFixture(t)

		created, err := svc.Create(ctx, CreateProductRequest{Name: "Old Name", UnitPrice: decimal.NewFromInt(100)})
		require.NoError(t, err)

		resp, err := svc.Update(ctx, created.ID, UpdateProductRequest{
			Name:         "New Name",
			UnitPrice:    decimal.NewFromInt(120),
			ReorderLevel: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, "New Name", resp.Name)
		assert.True(t, resp.UnitPrice.Equal(decimal.NewFromInt(120)))
		assert.Equal(t, 5, resp.ReorderLevel)

		// Threshold changes re-evaluate stock notifications.
		_, refreshed := notifier.lastFor(created.ID)
		assert.True(t, refreshed)
	})

	t.Run("rejects rename onto another product's name", func(t *testing.T) {
		svc, _, _, _ := newProductServiceFixture(t)

		_, err := svc.Create(ctx, CreateProductRequest{Name: "Taken"})
		require.NoError(t, err)
		other, err := svc.Create(ctx, CreateProductRequest{Name: "Mine"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, other.ID, UpdateProductRequest{Name: "Taken"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, _, _ := newProductServiceFixture(t)

		_, err := svc.Update(ctx, uuid.New(), UpdateProductRequest{Name: "X"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes product with no stock and no batches", func(t *testing.T) {
		svc, _, _, _ := newProductServiceFixture(t)

		created, err := svc.Create(ctx, CreateProductRequest{Name: "Ephemeral"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, created.ID))

		_, err = svc.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("refuses product with remaining stock", func(t *testing.T) {
		svc, productRepo, _, _ := newProductServiceFixture(t)

		product, err := inventory.NewProduct("Stocked", decimal.Zero, 0, 10)
		require.NoError(t, err)
		require.NoError(t, product.IncreaseQuantity(decimal.NewFromInt(3)))
		require.NoError(t, productRepo.Save(ctx, product))

		err = svc.Delete(ctx, product.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("refuses product with exhausted batches", func(t *testing.T) {
		svc, productRepo, batchRepo, _ := newProductServiceFixture(t)

		product, err := inventory.NewProduct("Historic", decimal.Zero, 0, 10)
		require.NoError(t, err)
		require.NoError(t, productRepo.Save(ctx, product))

		batch, err := inventory.NewStockBatch(product.ID, "B-OLD",
			decimal.NewFromInt(50), decimal.NewFromInt(5), time.Now(), time.Now(), nil, nil)
		require.NoError(t, err)
		require.NoError(t, batch.Deduct(decimal.NewFromInt(5)))
		require.NoError(t, batchRepo.Save(ctx, batch))

		err = svc.Delete(ctx, product.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, _, _ := newProductServiceFixture(t)

	healthy, err := inventory.NewProduct("Healthy", decimal.Zero, 5, 10)
	require.NoError(t, err)
	require.NoError(t, healthy.IncreaseQuantity(decimal.NewFromInt(50)))
	require.NoError(t, productRepo.Save(ctx, healthy))

	low, err := inventory.NewProduct("Low", decimal.Zero, 5, 10)
	require.NoError(t, err)
	require.NoError(t, low.IncreaseQuantity(decimal.NewFromInt(3)))
	require.NoError(t, productRepo.Save(ctx, low))

	empty, err := inventory.NewProduct("Empty", decimal.Zero, 5, 10)
	require.NoError(t, err)
	require.NoError(t, productRepo.Save(ctx, empty))

	t.Run("no filter returns everything", func(t *testing.T) {
		page, err := svc.List(ctx, ProductListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("low stock filter", func(t *testing.T) {
		yes := true
		page, err := svc.List(ctx, ProductListFilter{LowStock: &yes})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Low", page.Items[0].Name)
		assert.Equal(t, StockStatusLowStock, page.Items[0].StockStatus)
	})

	t.Run("out of stock filter", func(t *testing.T) {
		yes := true
		page, err := svc.List(ctx, ProductListFilter{OutOfStock: &yes})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Empty", page.Items[0].Name)
	})
}

func TestProductService_Reconcile(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, batchRepo, notifier := newProductServiceFixture(t)

	product, err := inventory.NewProduct("Drifted", decimal.Zero, 5, 10)
	require.NoError(t, err)
	// Cache drifted: says 100, batches hold 7.
	require.NoError(t, product.IncreaseQuantity(decimal.NewFromInt(100)))
	require.NoError(t, productRepo.Save(ctx, product))

	batch, err := inventory.NewStockBatch(product.ID, "B-001",
		decimal.NewFromInt(10), decimal.NewFromInt(7), time.Now(), time.Now(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, batchRepo.Save(ctx, batch))

	resp, err := svc.Reconcile(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, resp.TotalQuantity.Equal(decimal.NewFromInt(7)), "got %s", resp.TotalQuantity)

	stored, err := productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalQuantity.Equal(decimal.NewFromInt(7)))

	state, ok := notifier.lastFor(product.ID)
	require.True(t, ok)
	assert.True(t, state.Quantity.Equal(decimal.NewFromInt(7)))
}

func TestProductService_Reconcile_UnknownProduct(t *testing.T) {
	svc, _, _, _ := newProductServiceFixture(t)

	_, err := svc.Reconcile(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
