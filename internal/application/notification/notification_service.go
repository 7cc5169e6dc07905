package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationService handles reading and acknowledging stock notifications.
// Creating and refreshing them is the stock monitor's job; this service never
// writes unread rows.
type NotificationService struct {
	repo      notification.Repository
	retention time.Duration
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService. retention bounds
// how long read notifications are kept before Purge removes them.
func NewNotificationService(repo notification.Repository, retention time.Duration, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, retention: retention, logger: logger}
}

// List retrieves notifications matching the filter
func (s *NotificationService) List(ctx context.Context, filter NotificationListFilter) (*shared.Paginated[NotificationResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.OrderBy = filter.OrderBy
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Read != nil {
		f.Filters["read"] = *filter.Read
	}
	if filter.Type != "" {
		f.Filters["type"] = filter.Type
	}
	if filter.ProductID != nil {
		f.Filters["product_id"] = *filter.ProductID
	}

	notifications, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	responses := make([]NotificationResponse, len(notifications))
	for i := range notifications {
		responses[i] = ToNotificationResponse(&notifications[i])
	}

	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}

// MarkRead acknowledges a single notification. Once read it is retired: the
// next stock trigger creates a fresh unread row instead of refreshing it.
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.Read {
		n.MarkRead()
		if err := s.repo.Save(ctx, n); err != nil {
			return nil, err
		}
	}
	resp := ToNotificationResponse(n)
	return &resp, nil
}

// MarkAllRead acknowledges every unread notification and returns how many
// were marked
func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	f := shared.DefaultFilter()
	f.Filters["read"] = false
	f.Page = 0
	f.PageSize = 0

	unread, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return 0, err
	}
	var marked int64
	for i := range unread {
		n := unread[i]
		n.MarkRead()
		if err := s.repo.Save(ctx, &n); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// UnreadCount returns the number of unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.CountUnread(ctx)
}

// Purge removes read notifications older than the retention window. Unread
// notifications are never purged; they stay until stock recovers or someone
// acknowledges them.
func (s *NotificationService) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Purged read notifications",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}
