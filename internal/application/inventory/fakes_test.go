package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/domain/shared"
)

// memProductRepo is an in-memory ProductRepository storing value copies, so
// mutations only persist through Save like a real database.
type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]inventory.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]inventory.Product)}
}

var _ inventory.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (r *memProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memProductRepo) FindByName(_ context.Context, name string) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == name {
			copied := p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(_ context.Context, filter shared.Filter) ([]inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Product
	for _, p := range r.products {
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if v, ok := filter.Filters["out_of_stock"]; ok && v == true && !p.IsOutOfStock() {
			continue
		}
		if v, ok := filter.Filters["low_stock"]; ok && v == true && !p.IsLowStock() {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memProductRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	all, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

// memBatchRepo is an in-memory StockBatchRepository returning batches in the
// same FIFO order the persistence layer would.
type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]inventory.StockBatch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uuid.UUID]inventory.StockBatch)}
}

var _ inventory.StockBatchRepository = (*memBatchRepo)(nil)

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := b
	return &copied, nil
}

func (r *memBatchRepo) fifoByProduct(productID uuid.UUID, onlyAvailable bool) []inventory.StockBatch {
	var out []inventory.StockBatch
	for _, b := range r.batches {
		if b.ProductID != productID {
			continue
		}
		if onlyAvailable && !b.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedDate.Equal(out[j].ReceivedDate) {
			return out[i].ReceivedDate.Before(out[j].ReceivedDate)
		}
		if !out[i].ManufacturingDate.Equal(out[j].ManufacturingDate) {
			return out[i].ManufacturingDate.Before(out[j].ManufacturingDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *memBatchRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fifoByProduct(productID, false), nil
}

func (r *memBatchRepo) FindAvailableByProduct(_ context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fifoByProduct(productID, true), nil
}

func (r *memBatchRepo) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	return r.FindByProduct(ctx, productID)
}

func (r *memBatchRepo) FindByProductAndNumber(_ context.Context, productID uuid.UUID, batchNumber string) (*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.ProductID == productID && b.BatchNumber == batchNumber {
			copied := b
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBatchRepo) Save(_ context.Context, batch *inventory.StockBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = *batch
	return nil
}

func (r *memBatchRepo) SaveAll(ctx context.Context, batches []*inventory.StockBatch) error {
	for _, b := range batches {
		if err := r.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *memBatchRepo) ExistsByProductAndNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (bool, error) {
	_, err := r.FindByProductAndNumber(ctx, productID, batchNumber)
	if err == nil {
		return true, nil
	}
	if err == shared.ErrNotFound {
		return false, nil
	}
	return false, err
}

func (r *memBatchRepo) CountByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.batches {
		if b.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// recordingNotifier captures the product states handed to Refresh
type recordingNotifier struct {
	mu     sync.Mutex
	states []notification.ProductState
}

func (n *recordingNotifier) Refresh(_ context.Context, state notification.ProductState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
	return nil
}

func (n *recordingNotifier) lastFor(productID uuid.UUID) (notification.ProductState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.states) - 1; i >= 0; i-- {
		if n.states[i].ID == productID {
			return n.states[i], true
		}
	}
	return notification.ProductState{}, false
}
