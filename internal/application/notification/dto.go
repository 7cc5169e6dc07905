package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/notification"
)

// NotificationListFilter represents filter options for the notification list
type NotificationListFilter struct {
	Read      *bool      `form:"read"`
	Type      string     `form:"type" binding:"omitempty,oneof=low_stock out_of_stock"`
	ProductID *uuid.UUID `form:"product_id"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToNotificationResponse maps a notification to its API representation
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		ProductID: n.ProductID,
		Type:      n.Type.String(),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// UnreadCountResponse reports the number of unread notifications
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// PurgeResponse reports the outcome of a retention purge
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}
