package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	inventoryapp "github.com/stockbill/backend/internal/application/inventory"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/shared"
	"github.com/stockbill/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

type stubProductRepo struct {
	products map[uuid.UUID]*inventory.Product
}

var _ inventory.ProductRepository = (*stubProductRepo)(nil)

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *stubProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *stubProductRepo) FindByName(_ context.Context, name string) (*inventory.Product, error) {
	for _, p := range r.products {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Product, error) {
	var out []inventory.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProductRepo) Save(_ context.Context, product *inventory.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.products)), nil
}

type stubBatchRepo struct{}

var _ inventory.StockBatchRepository = (*stubBatchRepo)(nil)

func (stubBatchRepo) FindByID(context.Context, uuid.UUID) (*inventory.StockBatch, error) {
	return nil, shared.ErrNotFound
}
func (stubBatchRepo) FindByProduct(context.Context, uuid.UUID) ([]inventory.StockBatch, error) {
	return nil, nil
}
func (stubBatchRepo) FindAvailableByProduct(context.Context, uuid.UUID) ([]inventory.StockBatch, error) {
	return nil, nil
}
func (stubBatchRepo) FindByProductForUpdate(context.Context, uuid.UUID) ([]inventory.StockBatch, error) {
	return nil, nil
}
func (stubBatchRepo) FindByProductAndNumber(context.Context, uuid.UUID, string) (*inventory.StockBatch, error) {
	return nil, shared.ErrNotFound
}
func (stubBatchRepo) Save(context.Context, *inventory.StockBatch) error      { return nil }
func (stubBatchRepo) SaveAll(context.Context, []*inventory.StockBatch) error { return nil }
func (stubBatchRepo) ExistsByProductAndNumber(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}
func (stubBatchRepo) CountByProduct(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func newProductTestServer(t *testing.T) (*gin.Engine, *stubProductRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	productRepo := &stubProductRepo{products: make(map[uuid.UUID]*inventory.Product)}
	batchRepo := &stubBatchRepo{}
	scope := inventoryapp.NewNoOpTransactionScope(productRepo, batchRepo)
	productService := inventoryapp.NewProductService(scope, productRepo, batchRepo, nil, 10, zap.NewNop())
	batchService := inventoryapp.NewBatchService(scope, productRepo, batchRepo, nil, 10, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	NewProductHandler(productService, batchService).RegisterRoutes(api)
	return engine, productRepo
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestProductHandler_Create(t *testing.T) {
	engine, _ := newProductTestServer(t)

	t.Run("creates a product", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/api/v1/products",
			`{"name":"Basmati Rice 5kg","unit_price":"450"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)

		var product inventoryapp.ProductResponse
		require.NoError(t, json.Unmarshal(env.Data, &product))
		assert.Equal(t, "Basmati Rice 5kg", product.Name)
		assert.Equal(t, 10, product.ReorderLevel)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/api/v1/products",
			`{"name":"Basmati Rice 5kg","unit_price":"450"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
	})

	t.Run("missing name fails binding", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/api/v1/products", `{"unit_price":"10"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductHandler_Get(t *testing.T) {
	engine, _ := newProductTestServer(t)

	t.Run("unknown product is 404", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodGet, "/api/v1/products/"+uuid.NewString(), "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
		assert.NotEmpty(t, env.Error.RequestID)
	})

	t.Run("malformed ID is 400", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodGet, "/api/v1/products/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductHandler_DeleteWithStock(t *testing.T) {
	engine, repo := newProductTestServer(t)

	rec := doRequest(t, engine, http.MethodPost, "/api/v1/products",
		`{"name":"Sunflower Oil 1L","unit_price":"160"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var id uuid.UUID
	for pid, p := range repo.products {
		require.NoError(t, p.IncreaseQuantity(decimal.NewFromInt(8)))
		id = pid
	}

	rec = doRequest(t, engine, http.MethodDelete, "/api/v1/products/"+id.String(), "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
}
