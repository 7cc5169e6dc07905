package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/billing"
	"github.com/stockbill/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// billSequence is the single-row counter backing gapless bill numbers. The
// row is locked FOR UPDATE while a number is reserved, so numbering also
// serializes concurrent bill creation.
type billSequence struct {
	ID         int   `gorm:"primaryKey"`
	NextNumber int64 `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (billSequence) TableName() string {
	return "bill_sequences"
}

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db     *gorm.DB
	prefix string
}

// NewGormBillRepository creates a new GormBillRepository. The prefix is
// prepended to generated bill numbers ("INV" yields INV-000001).
func NewGormBillRepository(db *gorm.DB, prefix string) *GormBillRepository {
	return &GormBillRepository{db: db, prefix: prefix}
}

// FindByID finds a bill with its items by ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.preloadItems(r.db.WithContext(ctx)).First(&bill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindByNumber finds a bill with its items by its human-readable number
func (r *GormBillRepository) FindByNumber(ctx context.Context, number string) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.preloadItems(r.db.WithContext(ctx)).First(&bill, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindAll finds bills matching the filter, items preloaded
func (r *GormBillRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Bill, error) {
	var bills []billing.Bill
	query := r.applyFilter(r.preloadItems(r.db.WithContext(ctx)).Model(&billing.Bill{}), filter)
	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// FindByCustomer finds bills for a customer
func (r *GormBillRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]billing.Bill, error) {
	var bills []billing.Bill
	query := r.applyFilter(
		r.preloadItems(r.db.WithContext(ctx)).Model(&billing.Bill{}).
			Where("customer_id = ?", customerID),
		filter,
	)
	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// Save creates or updates a bill together with its items
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(bill).Error
}

// ReplaceItems persists a bill's new item set, removing the old rows
func (r *GormBillRepository) ReplaceItems(ctx context.Context, bill *billing.Bill) error {
	if err := r.db.WithContext(ctx).
		Delete(&billing.BillItem{}, "bill_id = ?", bill.ID).Error; err != nil {
		return err
	}
	if len(bill.Items) > 0 {
		if err := r.db.WithContext(ctx).Create(&bill.Items).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Omit("Items").Save(bill).Error
}

// Delete deletes a bill and its items
func (r *GormBillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&billing.BillItem{}, "bill_id = ?", id).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&billing.Bill{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts bills matching the filter
func (r *GormBillRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyPredicates(r.db.WithContext(ctx).Model(&billing.Bill{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextNumber reserves and returns the next sequential bill number
func (r *GormBillRepository) NextNumber(ctx context.Context) (string, error) {
	var seq billSequence
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "id = ?", 1).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		seq = billSequence{ID: 1, NextNumber: 1}
		if err := r.db.WithContext(ctx).Create(&seq).Error; err != nil {
			return "", err
		}
	}

	number := fmt.Sprintf("%s-%06d", r.prefix, seq.NextNumber)
	seq.NextNumber++
	if err := r.db.WithContext(ctx).Save(&seq).Error; err != nil {
		return "", err
	}
	return number, nil
}

func (r *GormBillRepository) preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// applyPredicates applies the WHERE clauses of a filter, shared by listing
// and counting
func (r *GormBillRepository) applyPredicates(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ? OR customer_name ILIKE ?", search, search)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "payment_method":
			query = query.Where("payment_method = ?", value)
		case "bill_date_from":
			query = query.Where("bill_date >= ?", value)
		case "bill_date_to":
			query = query.Where("bill_date <= ?", value)
		}
	}
	return query
}

func (r *GormBillRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyPredicates(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "bill_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// Ensure GormBillRepository implements BillRepository
var _ billing.BillRepository = (*GormBillRepository)(nil)
