package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/shared"
)

// Type classifies a stock-level notification
type Type string

const (
	TypeLowStock   Type = "low_stock"
	TypeOutOfStock Type = "out_of_stock"
)

// IsValid checks if the notification type is valid
func (t Type) IsValid() bool {
	return t == TypeLowStock || t == TypeOutOfStock
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// Notification is a stock-level alert for a product. At most one unread
// notification exists per (product, type); repeated triggers refresh the
// existing row instead of creating duplicates.
type Notification struct {
	shared.BaseEntity
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_notification_product_type,priority:1"`
	Type      Type      `gorm:"not null;index:idx_notification_product_type,priority:2"`
	Message   string    `gorm:"not null"`
	Read      bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// NewNotification creates a new unread notification
func NewNotification(productID uuid.UUID, notifType Type, message string) (*Notification, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !notifType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown notification type: "+notifType.String())
	}

	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Type:       notifType,
		Message:    message,
		Read:       false,
	}, nil
}

// Refresh updates the message and timestamp of an existing unread
// notification in place (the upsert path)
func (n *Notification) Refresh(message string) {
	n.Message = message
	n.UpdatedAt = time.Now()
}

// MarkRead marks the notification as read
func (n *Notification) MarkRead() {
	n.Read = true
	n.UpdatedAt = time.Now()
}
