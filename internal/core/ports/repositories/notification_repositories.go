package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
)

// NotificationReader defines read operations for inbox notifications.
type NotificationReader interface {
	// ListNotifications returns notifications addressed to any of the recipient ids,
	// newest first. When unreadOnly is set, read notifications are skipped.
	ListNotifications(ctx context.Context, recipientIDs []string, unreadOnly bool, limit int) ([]domain.Notification, error)

	// FindNotificationByID retrieves one notification, or apperrors.ErrNotFound.
	FindNotificationByID(ctx context.Context, notificationID string) (*domain.Notification, error)
}

// NotificationWriter defines write operations for inbox notifications.
type NotificationWriter interface {
	// SaveNotification stores a new notification.
	SaveNotification(ctx context.Context, n domain.Notification) error

	// MarkNotificationRead sets ReadAt if it is not set yet.
	MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) error
}

// NotificationRepositoryFacade combines all notification repository interfaces.
type NotificationRepositoryFacade interface {
	NotificationReader
	NotificationWriter
}
