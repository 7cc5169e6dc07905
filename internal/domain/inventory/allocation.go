package inventory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockbill/backend/internal/domain/shared"
)

// Allocation is one slice of a stock request satisfied by a single batch.
// A request spanning several batches yields one allocation per batch, each
// carrying that batch's cost as the price actually charged.
type Allocation struct {
	BatchID     uuid.UUID
	BatchNumber string
	UnitCost    decimal.Decimal
	Quantity    decimal.Decimal
}

// LineTotal returns the monetary value of this allocation
func (a Allocation) LineTotal() decimal.Decimal {
	return a.UnitCost.Mul(a.Quantity)
}

// AllocationService selects which batches satisfy a stock request and applies
// the resulting plan to the batch and product aggregates. Planning is pure:
// nothing is mutated until Apply, which keeps failed requests all-or-nothing.
type AllocationService struct{}

// NewAllocationService creates a new AllocationService
func NewAllocationService() *AllocationService {
	return &AllocationService{}
}

// SortBatchesFIFO orders batches earliest-received first, ties broken by
// manufacturing date, then insertion order. This ordering is the cost basis
// contract for every sale and for the batch listing endpoints.
func SortBatchesFIFO(batches []StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].ReceivedDate.Equal(batches[j].ReceivedDate) {
			return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
		}
		if !batches[i].ManufacturingDate.Equal(batches[j].ManufacturingDate) {
			return batches[i].ManufacturingDate.Before(batches[j].ManufacturingDate)
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
}

// PlanFIFO walks the product's batches in FIFO order, taking from each until
// the requested quantity is exhausted. Returns an INSUFFICIENT_STOCK failure
// naming the product and the available total when batches run out.
func (s *AllocationService) PlanFIFO(productName string, requested decimal.Decimal, batches []StockBatch) ([]Allocation, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	eligible := make([]StockBatch, 0, len(batches))
	for _, b := range batches {
		if b.HasStock() {
			eligible = append(eligible, b)
		}
	}
	SortBatchesFIFO(eligible)

	plan := make([]Allocation, 0, len(eligible))
	remaining := requested
	for _, b := range eligible {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, b.Quantity)
		plan = append(plan, Allocation{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			UnitCost:    b.UnitCost,
			Quantity:    take,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.GreaterThan(decimal.Zero) {
		available := requested.Sub(remaining)
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for product %q: requested %s, available %s",
				productName, requested.String(), available.String()))
	}
	return plan, nil
}

// PlanPinned satisfies the full request from one named batch or fails fast.
// A pinned batch is never partially combined with others; that stricter
// contract keeps caller-selected lots unambiguous.
func (s *AllocationService) PlanPinned(productName, batchNumber string, requested decimal.Decimal, batches []StockBatch) ([]Allocation, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	for _, b := range batches {
		if b.BatchNumber != batchNumber {
			continue
		}
		if b.Quantity.LessThan(requested) {
			return nil, shared.NewDomainError("INSUFFICIENT_BATCH_STOCK",
				fmt.Sprintf("Insufficient stock in batch %q of product %q: requested %s, available %s",
					batchNumber, productName, requested.String(), b.Quantity.String()))
		}
		return []Allocation{{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			UnitCost:    b.UnitCost,
			Quantity:    requested,
		}}, nil
	}

	return nil, shared.NewDomainError("BATCH_NOT_FOUND",
		fmt.Sprintf("Batch %q not found for product %q", batchNumber, productName))
}

// Apply executes a plan: each consumed batch is deducted and the product's
// cached total is reduced by the plan's sum. Callers run this inside the
// same transaction that persists the bill.
func (s *AllocationService) Apply(product *Product, batches []*StockBatch, plan []Allocation) error {
	byID := make(map[uuid.UUID]*StockBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	total := decimal.Zero
	for _, alloc := range plan {
		batch, ok := byID[alloc.BatchID]
		if !ok {
			return shared.NewDomainError("BATCH_NOT_FOUND", "Planned batch not loaded: "+alloc.BatchID.String())
		}
		if err := batch.Deduct(alloc.Quantity); err != nil {
			return err
		}
		total = total.Add(alloc.Quantity)
	}

	return product.DecreaseQuantity(total)
}

// RestoreToBatches credits quantities back to the exact batches they were
// drawn from (bill edit or delete) and grows the product cache by the sum.
func (s *AllocationService) RestoreToBatches(product *Product, batches []*StockBatch, plan []Allocation) error {
	byID := make(map[uuid.UUID]*StockBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	total := decimal.Zero
	for _, alloc := range plan {
		batch, ok := byID[alloc.BatchID]
		if !ok {
			return shared.NewDomainError("BATCH_NOT_FOUND", "Restoration batch not loaded: "+alloc.BatchID.String())
		}
		if err := batch.Restore(alloc.Quantity); err != nil {
			return err
		}
		total = total.Add(alloc.Quantity)
	}

	return product.IncreaseQuantity(total)
}

// AvailableQuantity sums the quantities of the given batches. Batches are the
// ground truth for how much can be sold, regardless of the product cache.
func AvailableQuantity(batches []StockBatch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.Quantity)
	}
	return total
}
