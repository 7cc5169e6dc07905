package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BatchService handles goods receipts and batch listings
type BatchService struct {
	scope               TransactionScope
	productRepo         inventory.ProductRepository
	batchRepo           inventory.StockBatchRepository
	notifier            StockNotifier
	defaultReorderLevel int
	logger              *zap.Logger
}

// NewBatchService creates a new BatchService
func NewBatchService(
	scope TransactionScope,
	productRepo inventory.ProductRepository,
	batchRepo inventory.StockBatchRepository,
	notifier StockNotifier,
	defaultReorderLevel int,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{
		scope:               scope,
		productRepo:         productRepo,
		batchRepo:           batchRepo,
		notifier:            notifier,
		defaultReorderLevel: defaultReorderLevel,
		logger:              logger,
	}
}

// Receive records a goods receipt: every item creates one batch and grows its
// product's stock, creating the product first when the item names a new one.
// The whole receipt is one transaction.
func (s *BatchService) Receive(ctx context.Context, req GoodsReceiptRequest) (*GoodsReceiptResponse, error) {
	refs := make([]inventory.ProductRef, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID != nil {
			refs[i] = inventory.ExistingProduct(*item.ProductID)
		} else {
			refs[i] = inventory.NewProductNamed(item.NewProductName)
		}
		if err := refs[i].Validate(); err != nil {
			return nil, err
		}
	}

	var batches []*inventory.StockBatch
	var created []*inventory.Product
	touched := make(map[uuid.UUID]*inventory.Product)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		for i, item := range req.Items {
			product, isNew, err := s.resolveProduct(ctx, repos, refs[i], item, touched)
			if err != nil {
				return err
			}
			if isNew {
				created = append(created, product)
			}

			exists, err := repos.BatchRepo().ExistsByProductAndNumber(ctx, product.ID, item.BatchNumber)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError("ALREADY_EXISTS",
					"Batch "+item.BatchNumber+" already exists for product "+product.Name)
			}

			received := time.Now()
			if item.ReceivedDate != nil {
				received = *item.ReceivedDate
			}
			manufactured := received
			if item.ManufacturingDate != nil {
				manufactured = *item.ManufacturingDate
			}

			batch, err := inventory.NewStockBatch(product.ID, item.BatchNumber,
				item.UnitCost, item.Quantity, received, manufactured,
				item.ExpiryDate, item.SupplierID)
			if err != nil {
				return err
			}
			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}

			if err := product.IncreaseQuantity(item.Quantity); err != nil {
				return err
			}
			batches = append(batches, batch)
		}

		for _, product := range touched {
			if err := repos.ProductRepo().Save(ctx, product); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, product := range touched {
		s.refreshNotifications(ctx, product)
	}

	resp := &GoodsReceiptResponse{
		Batches: make([]BatchResponse, len(batches)),
	}
	for i, b := range batches {
		resp.Batches[i] = ToBatchResponse(b)
	}
	for _, p := range created {
		resp.CreatedProducts = append(resp.CreatedProducts, ToProductResponse(p))
	}
	return resp, nil
}

// resolveProduct turns a product reference into a locked product aggregate,
// creating it when the reference names a new product. Repeated references to
// the same product within one receipt share a single aggregate so quantity
// increments accumulate.
func (s *BatchService) resolveProduct(
	ctx context.Context,
	repos TransactionalRepositories,
	ref inventory.ProductRef,
	item GoodsReceiptItemRequest,
	touched map[uuid.UUID]*inventory.Product,
) (*inventory.Product, bool, error) {
	if id, ok := ref.Existing(); ok {
		if product, ok := touched[id]; ok {
			return product, false, nil
		}
		product, err := repos.ProductRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, false, err
		}
		touched[id] = product
		return product, false, nil
	}

	name, _ := ref.NewName()
	existing, err := repos.ProductRepo().FindByName(ctx, name)
	if err == nil {
		// Receipts naming a known product attach to it instead of failing.
		if product, ok := touched[existing.ID]; ok {
			return product, false, nil
		}
		product, err := repos.ProductRepo().FindByIDForUpdate(ctx, existing.ID)
		if err != nil {
			return nil, false, err
		}
		touched[product.ID] = product
		return product, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	product, err := inventory.NewProduct(name, item.UnitPrice, item.ReorderLevel, s.defaultReorderLevel)
	if err != nil {
		return nil, false, err
	}
	if err := repos.ProductRepo().Save(ctx, product); err != nil {
		return nil, false, err
	}
	touched[product.ID] = product
	return product, true, nil
}

// ListByProduct returns every batch of a product in FIFO order, including
// exhausted ones, which remain as cost history
func (s *BatchService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]BatchResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toBatchResponses(batches), nil
}

// ListAvailable returns the batches with remaining stock in FIFO order; the
// first entry is the one the next FIFO sale will draw from
func (s *BatchService) ListAvailable(ctx context.Context, productID uuid.UUID) ([]BatchResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindAvailableByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toBatchResponses(batches), nil
}

// Oldest returns the batch the next FIFO sale will draw from
func (s *BatchService) Oldest(ctx context.Context, productID uuid.UUID) (*BatchResponse, error) {
	batches, err := s.ListAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, shared.ErrNotFound
	}
	return &batches[0], nil
}

// GetByID retrieves a batch by ID
func (s *BatchService) GetByID(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

func (s *BatchService) refreshNotifications(ctx context.Context, product *inventory.Product) {
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

func toBatchResponses(batches []inventory.StockBatch) []BatchResponse {
	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses
}
