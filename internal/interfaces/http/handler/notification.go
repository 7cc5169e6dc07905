package handler

import (
	"github.com/gin-gonic/gin"
	notificationapp "github.com/stockbill/backend/internal/application/notification"
)

// NotificationHandler handles stock notification API endpoints
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *notificationapp.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.POST("/purge", h.Purge)
	}
}

// List retrieves notifications matching the filter
func (h *NotificationHandler) List(c *gin.Context) {
	var filter notificationapp.NotificationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	page, err := h.notificationService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// UnreadCount reports the number of unread notifications
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, notificationapp.UnreadCountResponse{Unread: count})
}

// MarkRead acknowledges one notification
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	n, err := h.notificationService.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, n)
}

// MarkAllRead acknowledges every unread notification
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	marked, err := h.notificationService.MarkAllRead(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"marked": marked})
}

// Purge removes read notifications past the retention window
func (h *NotificationHandler) Purge(c *gin.Context) {
	deleted, err := h.notificationService.Purge(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, notificationapp.PurgeResponse{Deleted: deleted})
}
