package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingapp "github.com/stockbill/backend/internal/application/billing"
	"github.com/stockbill/backend/internal/domain/billing"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/partner"
	"github.com/stockbill/backend/internal/domain/shared"
	"github.com/stockbill/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

type stubBillRepo struct {
	bills map[uuid.UUID]billing.Bill
	next  int64
}

var _ billing.BillRepository = (*stubBillRepo)(nil)

func (r *stubBillRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Bill, error) {
	if b, ok := r.bills[id]; ok {
		return &b, nil
	}
	return nil, shared.ErrNotFound
}

func (r *stubBillRepo) FindByNumber(_ context.Context, number string) (*billing.Bill, error) {
	for _, b := range r.bills {
		if b.Number == number {
			return &b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubBillRepo) FindAll(_ context.Context, _ shared.Filter) ([]billing.Bill, error) {
	out := make([]billing.Bill, 0, len(r.bills))
	for _, b := range r.bills {
		out = append(out, b)
	}
	return out, nil
}

func (r *stubBillRepo) FindByCustomer(_ context.Context, customerID uuid.UUID, _ shared.Filter) ([]billing.Bill, error) {
	var out []billing.Bill
	for _, b := range r.bills {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubBillRepo) Save(_ context.Context, b *billing.Bill) error {
	r.bills[b.ID] = *b
	return nil
}

func (r *stubBillRepo) ReplaceItems(_ context.Context, b *billing.Bill) error {
	r.bills[b.ID] = *b
	return nil
}

func (r *stubBillRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.bills[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.bills, id)
	return nil
}

func (r *stubBillRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.bills)), nil
}

func (r *stubBillRepo) NextNumber(_ context.Context) (string, error) {
	r.next++
	return fmt.Sprintf("INV-%06d", r.next), nil
}

type stubCustomerRepo struct {
	customers map[uuid.UUID]partner.Customer
}

var _ partner.CustomerRepository = (*stubCustomerRepo)(nil)

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	if c, ok := r.customers[id]; ok {
		return &c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *stubCustomerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r *stubCustomerRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Customer, error) {
	out := make([]partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, nil
}

func (r *stubCustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	r.customers[c.ID] = *c
	return nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.customers, id)
	return nil
}

func (r *stubCustomerRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.customers)), nil
}

// stockedBatchRepo serves one product's batches, unlike the empty stubBatchRepo
type stockedBatchRepo struct {
	stubBatchRepo
	batches map[uuid.UUID]inventory.StockBatch
}

func (r *stockedBatchRepo) byProduct(productID uuid.UUID) []inventory.StockBatch {
	var out []inventory.StockBatch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	inventory.SortBatchesFIFO(out)
	return out
}

func (r *stockedBatchRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	return r.byProduct(productID), nil
}

func (r *stockedBatchRepo) FindByProductForUpdate(_ context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	return r.byProduct(productID), nil
}

func (r *stockedBatchRepo) Save(_ context.Context, b *inventory.StockBatch) error {
	r.batches[b.ID] = *b
	return nil
}

func (r *stockedBatchRepo) SaveAll(_ context.Context, batches []*inventory.StockBatch) error {
	for _, b := range batches {
		r.batches[b.ID] = *b
	}
	return nil
}

type billTestEnv struct {
	engine   *gin.Engine
	service  *billingapp.BillService
	product  *inventory.Product
	customer *partner.Customer
}

func newBillTestServer(t *testing.T) *billTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := &stubProductRepo{products: make(map[uuid.UUID]*inventory.Product)}
	batches := &stockedBatchRepo{batches: make(map[uuid.UUID]inventory.StockBatch)}
	bills := &stubBillRepo{bills: make(map[uuid.UUID]billing.Bill)}
	customers := &stubCustomerRepo{customers: make(map[uuid.UUID]partner.Customer)}

	ctx := context.Background()

	product, err := inventory.NewProduct("Toor Dal 1kg", decimal.NewFromInt(180), 10, 10)
	require.NoError(t, err)
	received := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	batch, err := inventory.NewStockBatch(product.ID, "B-001",
		decimal.NewFromInt(120), decimal.NewFromInt(5), received, received, nil, nil)
	require.NoError(t, err)
	require.NoError(t, product.IncreaseQuantity(decimal.NewFromInt(5)))
	require.NoError(t, products.Save(ctx, product))
	require.NoError(t, batches.Save(ctx, batch))

	customer, err := partner.NewCustomer("Acme Traders", "billing@acme.example", "")
	require.NoError(t, err)
	require.NoError(t, customers.Save(ctx, customer))

	scope := billingapp.NewNoOpTransactionScope(products, batches, bills, customers)
	service := billingapp.NewBillService(scope, bills, nil, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	NewBillHandler(service).RegisterRoutes(api)

	return &billTestEnv{engine: engine, service: service, product: product, customer: customer}
}

func TestBillHandler_Create(t *testing.T) {
	t.Run("pinned batch shortfall is a bad request, not a server error", func(t *testing.T) {
		env := newBillTestServer(t)

		body := fmt.Sprintf(`{"customer_id":%q,"items":[{"product_id":%q,"quantity":"9","batch_number":"B-001"}]}`,
			env.customer.ID, env.product.ID)
		rec := doRequest(t, env.engine, http.MethodPost, "/api/v1/bills", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeEnvelope(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INSUFFICIENT_BATCH_STOCK", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "B-001")
	})

	t.Run("unknown pinned batch is a bad request", func(t *testing.T) {
		env := newBillTestServer(t)

		body := fmt.Sprintf(`{"customer_id":%q,"items":[{"product_id":%q,"quantity":"1","batch_number":"B-404"}]}`,
			env.customer.ID, env.product.ID)
		rec := doRequest(t, env.engine, http.MethodPost, "/api/v1/bills", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeEnvelope(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "BATCH_NOT_FOUND", resp.Error.Code)
	})

	t.Run("unknown customer in the body is a bad request", func(t *testing.T) {
		env := newBillTestServer(t)

		body := fmt.Sprintf(`{"customer_id":%q,"items":[{"product_id":%q,"quantity":"1"}]}`,
			uuid.New(), env.product.ID)
		rec := doRequest(t, env.engine, http.MethodPost, "/api/v1/bills", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeEnvelope(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_CUSTOMER", resp.Error.Code)
	})
}

func TestBillHandler_Delete(t *testing.T) {
	env := newBillTestServer(t)

	created, err := env.service.Create(context.Background(), billingapp.CreateBillRequest{
		CustomerID: env.customer.ID,
		Items: []billingapp.BillItemRequest{
			{ProductID: env.product.ID, Quantity: decimal.NewFromInt(2)},
		},
	}, "")
	require.NoError(t, err)

	rec := doRequest(t, env.engine, http.MethodDelete, "/api/v1/bills/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), created.ID.String())

	rec = doRequest(t, env.engine, http.MethodGet, "/api/v1/bills/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
