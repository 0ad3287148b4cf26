package services

import (
	"context"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/dto"
)

// NotificationSink delivers one rendered notification.
type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, n domain.Notification) error
}

// NotifierSvc renders and dispatches notifications. Delivery is asynchronous;
// failures are logged and never returned.
type NotifierSvc interface {
	Notify(ctx context.Context, recipientID, template string, event domain.TransitionEvent)

	// Wait blocks until every in-flight delivery has finished.
	Wait()
}

// InboxSvc serves the per-user notification inbox.
type InboxSvc interface {
	ListInbox(ctx context.Context, actor domain.Principal, params dto.ListNotificationsParams) (*dto.ListNotificationsResponse, error)
	MarkRead(ctx context.Context, actor domain.Principal, notificationID string) (*domain.Notification, error)
}
