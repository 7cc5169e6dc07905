package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormNotificationRepository implements the notification Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByID finds a notification by its ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// FindUnread finds the single unread notification of a type for a product
func (r *GormNotificationRepository) FindUnread(ctx context.Context, productID uuid.UUID, notifType notification.Type) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND type = ? AND read = FALSE", productID, notifType).
		First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// FindAll finds notifications matching the filter
func (r *GormNotificationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]notification.Notification, error) {
	var notifications []notification.Notification
	query := r.applyFilter(r.db.WithContext(ctx).Model(&notification.Notification{}), filter)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Save(n).Error
}

// DeleteUnread removes the unread notification of a type for a product
func (r *GormNotificationRepository) DeleteUnread(ctx context.Context, productID uuid.UUID, notifType notification.Type) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND type = ? AND read = FALSE", productID, notifType).
		Delete(&notification.Notification{}).Error
}

// DeleteOlderThan removes read notifications last updated before the cutoff
func (r *GormNotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read = TRUE AND updated_at < ?", cutoff).
		Delete(&notification.Notification{})
	return result.RowsAffected, result.Error
}

// CountUnread counts unread notifications
func (r *GormNotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("read = FALSE").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count counts notifications matching the filter
func (r *GormNotificationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyPredicates(r.db.WithContext(ctx).Model(&notification.Notification{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyPredicates applies the WHERE clauses of a filter, shared by listing
// and counting
func (r *GormNotificationRepository) applyPredicates(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "read":
			query = query.Where("read = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		}
	}
	return query
}

func (r *GormNotificationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyPredicates(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, NotificationSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// Ensure GormNotificationRepository implements the notification Repository
var _ notification.Repository = (*GormNotificationRepository)(nil)
