package billing

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/billing"
	"github.com/stockbill/backend/internal/domain/inventory"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BillService orchestrates the bill lifecycle: allocation against stock
// batches, financial computation, customer balance deltas and stock
// notifications. Every write runs inside one transaction with the affected
// product rows locked, so concurrent sales of the same product serialize
// instead of overselling.
type BillService struct {
	scope          TransactionScope
	billRepo       billing.BillRepository
	allocator      *inventory.AllocationService
	notifier       StockNotifier
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewBillService creates a new BillService
func NewBillService(
	scope TransactionScope,
	billRepo billing.BillRepository,
	notifier StockNotifier,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		scope:          scope,
		billRepo:       billRepo,
		allocator:      inventory.NewAllocationService(),
		notifier:       notifier,
		idempotencyTTL: 24 * time.Hour,
		logger:         logger,
	}
}

// SetIdempotencyStore enables Idempotency-Key replay for bill creation
func (s *BillService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// lockedProduct bundles a write-locked product with its write-locked batches
// for the duration of one transaction
type lockedProduct struct {
	product *inventory.Product
	batches []*inventory.StockBatch
}

// Create allocates stock, computes financials and persists a new bill in one
// transaction. When idempotencyKey is non-empty and was seen before, the
// previously created bill is returned instead of creating a duplicate.
func (s *BillService) Create(ctx context.Context, req CreateBillRequest, idempotencyKey string) (*BillResponse, error) {
	if replayed := s.replayFromKey(ctx, idempotencyKey); replayed != nil {
		return replayed, nil
	}
	if req.PaidAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PAID_AMOUNT", "Paid amount cannot be negative")
	}

	method := billing.PaymentMethodCash
	if req.PaymentMethod != "" {
		method = billing.PaymentMethod(req.PaymentMethod)
	}

	var bill *billing.Bill
	var states []notification.ProductState

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByIDForUpdate(ctx, req.CustomerID)
		if err != nil {
			// The customer id comes from the request body, not the path,
			// so a miss is the caller's input error.
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_CUSTOMER",
					"Customer does not exist: "+req.CustomerID.String())
			}
			return err
		}

		locked, err := s.lockProducts(ctx, repos, productIDs(req.Items))
		if err != nil {
			return err
		}

		lineAllocs, err := s.allocateLines(req.Items, locked)
		if err != nil {
			return err
		}

		number, err := repos.BillRepo().NextNumber(ctx)
		if err != nil {
			return err
		}

		billDate := time.Now()
		if req.BillDate != nil {
			billDate = *req.BillDate
		}

		bill, err = billing.NewBill(number, billing.CustomerSnapshot{
			ID:    customer.ID,
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		}, method, billDate)
		if err != nil {
			return err
		}

		if err := addBillItems(bill, req.Items, lineAllocs, locked); err != nil {
			return err
		}

		fin := billing.ComputeFinancials(
			bill.LineTotals(),
			req.DiscountPercent, req.TaxPercent, req.PaidAmount,
			billing.PaymentStatus(req.PaymentStatus),
		)
		bill.ApplyFinancials(fin)
		bill.SetDueDate(req.DueDate)
		bill.SetNotes(req.Notes)
		if req.CreatedByID != nil {
			bill.SetCreatedBy(*req.CreatedByID)
		}

		if err := s.persistAllocations(ctx, repos, locked); err != nil {
			return err
		}
		if err := repos.BillRepo().Save(ctx, bill); err != nil {
			return err
		}

		customer.AdjustOutstanding(fin.DueAmount)
		if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
			return err
		}

		states = productStates(locked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.rememberKey(ctx, idempotencyKey, bill.ID)
	s.refreshNotifications(ctx, states)

	resp := ToBillResponse(bill)
	return &resp, nil
}

// Update rewrites a bill's lines and financial inputs. The original
// allocations are credited back to the exact batches they were drawn from,
// then the new lines allocate against the restored stock, all in one
// transaction. Re-submitting a bill's current lines is therefore a no-op on
// stock.
func (s *BillService) Update(ctx context.Context, id uuid.UUID, req UpdateBillRequest) (*BillResponse, error) {
	if req.PaidAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PAID_AMOUNT", "Paid amount cannot be negative")
	}

	var bill *billing.Bill
	var states []notification.ProductState

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		bill, err = repos.BillRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		oldDue := bill.DueAmount

		ids := productIDs(req.Items)
		for _, item := range bill.Items {
			ids = append(ids, item.ProductID)
		}
		locked, err := s.lockProducts(ctx, repos, ids)
		if err != nil {
			return err
		}

		if err := s.restoreBillItems(bill.Items, locked); err != nil {
			return err
		}

		lineAllocs, err := s.allocateLines(req.Items, locked)
		if err != nil {
			return err
		}

		bill.Items = nil
		if err := addBillItems(bill, req.Items, lineAllocs, locked); err != nil {
			return err
		}
		bill.ReplaceItems(bill.Items)

		if req.PaymentMethod != "" {
			bill.PaymentMethod = billing.PaymentMethod(req.PaymentMethod)
		}
		fin := billing.ComputeFinancials(
			bill.LineTotals(),
			req.DiscountPercent, req.TaxPercent, req.PaidAmount,
			billing.PaymentStatus(req.PaymentStatus),
		)
		bill.ApplyFinancials(fin)
		bill.SetDueDate(req.DueDate)
		bill.SetNotes(req.Notes)

		if err := s.persistAllocations(ctx, repos, locked); err != nil {
			return err
		}
		if err := repos.BillRepo().ReplaceItems(ctx, bill); err != nil {
			return err
		}

		customer, err := repos.CustomerRepo().FindByIDForUpdate(ctx, bill.CustomerID)
		if err != nil {
			return err
		}
		customer.AdjustOutstanding(fin.DueAmount.Sub(oldDue))
		if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
			return err
		}

		states = productStates(locked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.refreshNotifications(ctx, states)

	resp := ToBillResponse(bill)
	return &resp, nil
}

// Delete removes a bill, restoring its allocated quantities to the batches
// they came from and reversing the customer's outstanding delta
func (s *BillService) Delete(ctx context.Context, id uuid.UUID) error {
	var states []notification.ProductState

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		bill, err := repos.BillRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(bill.Items))
		for _, item := range bill.Items {
			ids = append(ids, item.ProductID)
		}
		locked, err := s.lockProducts(ctx, repos, ids)
		if err != nil {
			return err
		}

		if err := s.restoreBillItems(bill.Items, locked); err != nil {
			return err
		}
		if err := s.persistAllocations(ctx, repos, locked); err != nil {
			return err
		}

		if err := repos.BillRepo().Delete(ctx, id); err != nil {
			return err
		}

		customer, err := repos.CustomerRepo().FindByIDForUpdate(ctx, bill.CustomerID)
		if err != nil {
			return err
		}
		customer.AdjustOutstanding(bill.DueAmount.Neg())
		if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
			return err
		}

		states = productStates(locked)
		return nil
	})
	if err != nil {
		return err
	}

	s.refreshNotifications(ctx, states)
	return nil
}

// GetByID retrieves a bill by ID
func (s *BillService) GetByID(ctx context.Context, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.billRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBillResponse(bill)
	return &resp, nil
}

// GetByNumber retrieves a bill by its human-readable number
func (s *BillService) GetByNumber(ctx context.Context, number string) (*BillResponse, error) {
	bill, err := s.billRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToBillResponse(bill)
	return &resp, nil
}

// List retrieves bills matching the filter
func (s *BillService) List(ctx context.Context, filter BillListFilter) (*shared.Paginated[BillResponse], error) {
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
	if filter.PaymentStatus != "" {
		f.Filters["payment_status"] = filter.PaymentStatus
	}
	if filter.PaymentMethod != "" {
		f.Filters["payment_method"] = filter.PaymentMethod
	}
	if filter.DateFrom != nil {
		f.Filters["bill_date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		f.Filters["bill_date_to"] = *filter.DateTo
	}

	var bills []billing.Bill
	var err error
	if filter.CustomerID != nil {
		bills, err = s.billRepo.FindByCustomer(ctx, *filter.CustomerID, f)
	} else {
		bills, err = s.billRepo.FindAll(ctx, f)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.billRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	responses := make([]BillResponse, len(bills))
	for i := range bills {
		responses[i] = ToBillResponse(&bills[i])
	}

	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}

// lockProducts write-locks the given products and their batches in ascending
// ID order. The fixed ordering keeps concurrent multi-product bills from
// deadlocking against each other.
func (s *BillService) lockProducts(ctx context.Context, repos TransactionalRepositories, ids []uuid.UUID) (map[uuid.UUID]*lockedProduct, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	locked := make(map[uuid.UUID]*lockedProduct, len(unique))
	for _, id := range unique {
		product, err := repos.ProductRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PRODUCT",
					"Product does not exist: "+id.String())
			}
			return nil, err
		}
		batches, err := repos.BatchRepo().FindByProductForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		ptrs := make([]*inventory.StockBatch, len(batches))
		for i := range batches {
			ptrs[i] = &batches[i]
		}
		locked[id] = &lockedProduct{product: product, batches: ptrs}
	}
	return locked, nil
}

// allocateLines plans and applies an allocation for every requested line
// against the locked batch set. Lines for the same product see the deductions
// of earlier lines, so a bill can never consume the same unit twice.
func (s *BillService) allocateLines(items []BillItemRequest, locked map[uuid.UUID]*lockedProduct) ([][]inventory.Allocation, error) {
	lineAllocs := make([][]inventory.Allocation, len(items))
	for i, item := range items {
		lp, ok := locked[item.ProductID]
		if !ok {
			return nil, shared.ErrNotFound
		}

		values := batchValues(lp.batches)
		var plan []inventory.Allocation
		var err error
		if item.BatchNumber != "" {
			plan, err = s.allocator.PlanPinned(lp.product.Name, item.BatchNumber, item.Quantity, values)
		} else {
			plan, err = s.allocator.PlanFIFO(lp.product.Name, item.Quantity, values)
		}
		if err != nil {
			return nil, err
		}

		if err := s.allocator.Apply(lp.product, lp.batches, plan); err != nil {
			return nil, err
		}
		lineAllocs[i] = plan
	}
	return lineAllocs, nil
}

// restoreBillItems credits a bill's recorded allocations back to the exact
// batches they were drawn from
func (s *BillService) restoreBillItems(items []billing.BillItem, locked map[uuid.UUID]*lockedProduct) error {
	byProduct := make(map[uuid.UUID][]inventory.Allocation)
	for _, item := range items {
		byProduct[item.ProductID] = append(byProduct[item.ProductID], inventory.Allocation{
			BatchID:     item.BatchID,
			BatchNumber: item.BatchNumber,
			UnitCost:    item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	for productID, plan := range byProduct {
		lp, ok := locked[productID]
		if !ok {
			return shared.ErrNotFound
		}
		if err := s.allocator.RestoreToBatches(lp.product, lp.batches, plan); err != nil {
			return err
		}
	}
	return nil
}

// persistAllocations saves every locked product and batch mutated by the
// current transaction
func (s *BillService) persistAllocations(ctx context.Context, repos TransactionalRepositories, locked map[uuid.UUID]*lockedProduct) error {
	for _, lp := range locked {
		if err := repos.BatchRepo().SaveAll(ctx, lp.batches); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, lp.product); err != nil {
			return err
		}
	}
	return nil
}

// replayFromKey returns the previously created bill for a seen idempotency
// key, or nil when the key is new or replay is unavailable
func (s *BillService) replayFromKey(ctx context.Context, key string) *BillResponse {
	if key == "" || s.idempotency == nil {
		return nil
	}

	stored, found, err := s.idempotency.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed, proceeding with create",
			zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	billID, err := uuid.Parse(stored)
	if err != nil {
		return nil
	}
	bill, err := s.billRepo.FindByID(ctx, billID)
	if err != nil {
		return nil
	}

	resp := ToBillResponse(bill)
	return &resp
}

// rememberKey records the created bill against the idempotency key,
// best-effort
func (s *BillService) rememberKey(ctx context.Context, key string, billID uuid.UUID) {
	if key == "" || s.idempotency == nil {
		return
	}
	if _, err := s.idempotency.Set(ctx, key, billID.String(), s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to store idempotency key",
			zap.String("key", key), zap.Error(err))
	}
}

// refreshNotifications reconciles stock notifications for every product
// touched by a committed bill write. Failures are logged, never propagated;
// a notification glitch must not fail a completed sale.
func (s *BillService) refreshNotifications(ctx context.Context, states []notification.ProductState) {
	if s.notifier == nil {
		return
	}
	for _, state := range states {
		if err := s.notifier.Refresh(ctx, state); err != nil {
			s.logger.Warn("Failed to refresh stock notifications",
				zap.String("product_id", state.ID.String()),
				zap.String("product", state.Name),
				zap.Error(err))
		}
	}
}

// addBillItems turns each line's allocations into bill items. A caller price
// override applies to every sub-line of its request line; otherwise sub-lines
// carry their batch's cost snapshot.
func addBillItems(bill *billing.Bill, items []BillItemRequest, lineAllocs [][]inventory.Allocation, locked map[uuid.UUID]*lockedProduct) error {
	for i, item := range items {
		productName := locked[item.ProductID].product.Name
		for _, alloc := range lineAllocs[i] {
			price := alloc.UnitCost
			if item.Price != nil {
				price = *item.Price
			}
			if err := bill.AddItem(item.ProductID, alloc.BatchID, alloc.BatchNumber, productName, alloc.Quantity, price); err != nil {
				return err
			}
		}
	}
	return nil
}

func productIDs(items []BillItemRequest) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	return ids
}

func productStates(locked map[uuid.UUID]*lockedProduct) []notification.ProductState {
	states := make([]notification.ProductState, 0, len(locked))
	for _, lp := range locked {
		states = append(states, notification.ProductState{
			ID:           lp.product.ID,
			Name:         lp.product.Name,
			Quantity:     lp.product.TotalQuantity,
			ReorderLevel: lp.product.ReorderLevel,
		})
	}
	return states
}

func batchValues(ptrs []*inventory.StockBatch) []inventory.StockBatch {
	values := make([]inventory.StockBatch, len(ptrs))
	for i, p := range ptrs {
		values[i] = *p
	}
	return values
}
