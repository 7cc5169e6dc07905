package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product catalog operations
type ProductService struct {
	scope               TransactionScope
	productRepo         inventory.ProductRepository
	batchRepo           inventory.StockBatchRepository
	notifier            StockNotifier
	defaultReorderLevel int
	logger              *zap.Logger
}

// NewProductService creates a new ProductService. defaultReorderLevel is
// applied to products created without an explicit level.
func NewProductService(
	scope TransactionScope,
	productRepo inventory.ProductRepository,
	batchRepo inventory.StockBatchRepository,
	notifier StockNotifier,
	defaultReorderLevel int,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		scope:               scope,
		productRepo:         productRepo,
		batchRepo:           batchRepo,
		notifier:            notifier,
		defaultReorderLevel: defaultReorderLevel,
		logger:              logger,
	}
}

// Create creates a new product with an empty stock position
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if _, err := s.productRepo.FindByName(ctx, req.Name); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A product named "+req.Name+" already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	product, err := inventory.NewProduct(req.Name, req.UnitPrice, req.ReorderLevel, s.defaultReorderLevel)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// Update changes a product's name, list price and reorder level
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != product.Name {
		if existing, err := s.productRepo.FindByName(ctx, req.Name); err == nil && existing.ID != id {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A product named "+req.Name+" already exists")
		} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if err := product.Rename(req.Name); err != nil {
			return nil, err
		}
	}
	if err := product.SetUnitPrice(req.UnitPrice); err != nil {
		return nil, err
	}
	product.SetReorderLevel(req.ReorderLevel, s.defaultReorderLevel)

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.refreshNotifications(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product. Products with remaining stock or recorded batches
// cannot be deleted; their batches are the cost history of past sales.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if product.TotalQuantity.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a product that still has stock")
	}

	count, err := s.batchRepo.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a product with recorded batches")
	}

	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List retrieves products matching the filter
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	f.OrderBy = filter.OrderBy
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.OutOfStock != nil && *filter.OutOfStock {
		f.Filters["out_of_stock"] = true
	}
	if filter.LowStock != nil && *filter.LowStock {
		f.Filters["low_stock"] = true
	}

	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}

	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}

// Reconcile overwrites the product's cached quantity with the sum of its
// batches. This is the administrative repair for a drifted cache; regular
// operation keeps the two in sync transactionally.
func (s *ProductService) Reconcile(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	var product *inventory.Product

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		product, err = repos.ProductRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		batches, err := repos.BatchRepo().FindByProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := product.ReconcileQuantity(inventory.AvailableQuantity(batches)); err != nil {
			return err
		}
		return repos.ProductRepo().Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.refreshNotifications(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) refreshNotifications(ctx context.Context, product *inventory.Product) {
	if s.notifier == nil {
		return
	}
	state := notification.ProductState{
		ID:           product.ID,
		Name:         product.Name,
		Quantity:     product.TotalQuantity,
		ReorderLevel: product.ReorderLevel,
	}
	if err := s.notifier.Refresh(ctx, state); err != nil {
		s.logger.Warn("Failed to refresh stock notifications",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}
}
