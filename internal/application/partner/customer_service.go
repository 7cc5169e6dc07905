package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/billing"
	"github.com/stockbill/backend/internal/domain/partner"
	"github.com/stockbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService handles customer directory operations. Outstanding balances
// are maintained by the billing service; this service only reads them.
type CustomerService struct {
	customerRepo partner.CustomerRepository
	billRepo     billing.BillRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	billRepo billing.BillRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		billRepo:     billRepo,
		logger:       logger,
	}
}

// Create creates a new customer with a zero outstanding balance
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(req.Name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	customer.Address = req.Address

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Update changes a customer's contact details. The outstanding balance is not
// writable through this path.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(req.Name, req.Email, req.Phone, req.Address); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Delete removes a customer. Customers with an outstanding balance or with
// recorded bills cannot be deleted.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if customer.HasOutstanding() {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a customer with an outstanding balance")
	}

	filter := shared.DefaultFilter()
	filter.Filters["customer_id"] = id
	count, err := s.billRepo.Count(ctx, filter)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a customer with recorded bills")
	}

	return s.customerRepo.Delete(ctx, id)
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List retrieves customers matching the filter
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
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
	if filter.HasOutstanding != nil && *filter.HasOutstanding {
		f.Filters["has_outstanding"] = true
	}

	customers, err := s.customerRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.customerRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}

	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}
