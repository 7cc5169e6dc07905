package inventory

import (
	"context"
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

func newBatchServiceFixture(t *testing.T) (*BatchService, *memProductRepo, *memBatchRepo, *recordingNotifier) {
	t.Helper()
	productRepo := newMemProductRepo()
	batchRepo := newMemBatchRepo()
	notifier := &recordingNotifier{}
	scope := NewNoOpTransactionScope(productRepo, batchRepo)
	svc := NewBatchService(scope, productRepo, batchRepo, notifier, 10, zap.NewNop())
	return svc, productRepo, batchRepo, notifier
}

func seedProduct(t *testing.T, repo *memProductRepo, name string) *inventory.Product {
	t.Helper()
	product, err := inventory.NewProduct(name, decimal.NewFromInt(100), 5, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), product))
	return product
}

func TestBatchService_Receive(t *testing.T) {
	ctx := context.Background()
	qty := func(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

	t.Run("grows an existing product's stock", func(t *testing.T) {
		svc, productRepo, _, notifier := newBatchServiceFixture(t)
		product := seedProduct(t, productRepo, "Basmati Rice 5kg")

		resp, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{{
			ProductID:   &product.ID,
			BatchNumber: "B-001",
			UnitCost:    qty(90),
			Quantity:    qty(25),
		}}})
		require.NoError(t, err)
		require.Len(t, resp.Batches, 1)
		assert.Empty(t, resp.CreatedProducts)
		assert.Equal(t, "B-001", resp.Batches[0].BatchNumber)
		assert.True(t, resp.Batches[0].Quantity.Equal(qty(25)))

		stored, err := productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalQuantity.Equal(qty(25)))

		state, ok := notifier.lastFor(product.ID)
		require.True(t, ok)
		assert.True(t, state.Quantity.Equal(qty(25)))
	})

	t.Run("creates the product when the item names a new one", func(t *testing.T) {
		svc, productRepo, _, _ := newBatchServiceFixture(t)

		resp, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{{
			NewProductName: "Jaggery 1kg",
			UnitPrice:      qty(80),
			BatchNumber:    "J-001",
			UnitCost:       qty(60),
			Quantity:       qty(40),
		}}})
		require.NoError(t, err)
		require.Len(t, resp.CreatedProducts, 1)
		created := resp.CreatedProducts[0]
		assert.Equal(t, "Jaggery 1kg", created.Name)
		assert.Equal(t, 10, created.ReorderLevel)
		assert.True(t, created.TotalQuantity.Equal(qty(40)))

		stored, err := productRepo.FindByName(ctx, "Jaggery 1kg")
		require.NoError(t, err)
		assert.True(t, stored.TotalQuantity.Equal(qty(40)))
	})

	t.Run("new product name matching an existing product attaches to it", func(t *testing.T) {
		svc, productRepo, _, _ := newBatchServiceFixture(t)
		product := seedProduct(t, productRepo, "Wheat Flour 10kg")

		resp, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{{
			NewProductName: "Wheat Flour 10kg",
			BatchNumber:    "W-001",
			UnitCost:       qty(300),
			Quantity:       qty(12),
		}}})
		require.NoError(t, err)
		assert.Empty(t, resp.CreatedProducts)
		assert.Equal(t, product.ID, resp.Batches[0].ProductID)

		stored, err := productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalQuantity.Equal(qty(12)))
	})

	t.Run("two items on the same product accumulate quantity", func(t *testing.T) {
		svc, productRepo, batchRepo, _ := newBatchServiceFixture(t)
		product := seedProduct(t, productRepo, "Tea 500g")

		_, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{
			{ProductID: &product.ID, BatchNumber: "T-001", UnitCost: qty(200), Quantity: qty(10)},
			{ProductID: &product.ID, BatchNumber: "T-002", UnitCost: qty(210), Quantity: qty(15)},
		}})
		require.NoError(t, err)

		stored, err := productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalQuantity.Equal(qty(25)))

		count, err := batchRepo.CountByProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("rejects a batch number already on the product", func(t *testing.T) {
		svc, productRepo, _, _ := newBatchServiceFixture(t)
		product := seedProduct(t, productRepo, "Salt 1kg")

		_, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{{
			ProductID: &product.ID, BatchNumber: "S-001", UnitCost: qty(10), Quantity: qty(5),
		}}})
		require.NoError(t, err)

		_, err = svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{{
			ProductID: &product.ID, BatchNumber: "S-001", UnitCost: qty(10), Quantity: qty(5),
		}}})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("rejects duplicate batch numbers within one receipt", func(t *testing.T) {
		svc, productRepo, _, _ := newBatchServiceFixture(t)
		product := seedProduct(t, productRepo, "Sugar 1kg")

		_, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{
			{ProductID: &product.ID, BatchNumber: "SG-001", UnitCost: qty(40), Quantity: qty(5)},
			{ProductID: &product.ID, BatchNumber: "SG-001", UnitCost: qty(40), Quantity: qty(5)},
		}})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("rejects an item with neither product ID nor name", func(t *testing.T) {
		svc, _, _, _ := newBatchServiceFixture(t)

		_, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{{
			BatchNumber: "X-001", Quantity: qty(1),
		}}})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PRODUCT_REF", domainErr.Code)
	})

	t.Run("unknown product ID", func(t *testing.T) {
		svc, _, _, _ := newBatchServiceFixture(t)

		missing := uuid.New()
		_, err := svc.Receive(ctx, GoodsReceiptRequest{Items: []GoodsReceiptItemRequest{{
			ProductID: &missing, BatchNumber: "X-001", Quantity: qty(1),
		}}})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBatchService_Listings(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, batchRepo, _ := newBatchServiceFixture(t)
	product := seedProduct(t, productRepo, "Coffee 250g")

	day := func(d int) time.Time {
		return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
	}
	mkBatch := func(number string, received time.Time, quantity int64) *inventory.StockBatch {
		batch, err := inventory.NewStockBatch(product.ID, number,
			decimal.NewFromInt(150), decimal.NewFromInt(quantity), received, received, nil, nil)
		require.NoError(t, err)
		require.NoError(t, batchRepo.Save(ctx, batch))
		return batch
	}

	newer := mkBatch("C-002", day(5), 20)
	oldest := mkBatch("C-001", day(1), 10)
	exhausted := mkBatch("C-000", day(3), 5)
	require.NoError(t, exhausted.Deduct(decimal.NewFromInt(5)))
	require.NoError(t, batchRepo.Save(ctx, exhausted))

	t.Run("ListByProduct keeps exhausted batches in FIFO order", func(t *testing.T) {
		batches, err := svc.ListByProduct(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, batches, 3)
		assert.Equal(t, "C-001", batches[0].BatchNumber)
		assert.Equal(t, "C-000", batches[1].BatchNumber)
		assert.Equal(t, "C-002", batches[2].BatchNumber)
	})

	t.Run("ListAvailable skips exhausted batches", func(t *testing.T) {
		batches, err := svc.ListAvailable(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, "C-001", batches[0].BatchNumber)
		assert.Equal(t, "C-002", batches[1].BatchNumber)
	})

	t.Run("Oldest returns the next FIFO source", func(t *testing.T) {
		batch, err := svc.Oldest(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, oldest.ID, batch.ID)
	})

	t.Run("GetByID", func(t *testing.T) {
		batch, err := svc.GetByID(ctx, newer.ID)
		require.NoError(t, err)
		assert.Equal(t, "C-002", batch.BatchNumber)
	})

	t.Run("listing an unknown product fails", func(t *testing.T) {
		_, err := svc.ListByProduct(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
