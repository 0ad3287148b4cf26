package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/dto"
)

const defaultInboxLimit = 50

type inboxService struct {
	BaseService
	repo portsrepo.NotificationRepositoryFacade
}

// NewInboxService creates the service behind the per-user notification inbox.
func NewInboxService(repo portsrepo.NotificationRepositoryFacade) portssvc.InboxSvc {
	return &inboxService{repo: repo}
}

var _ portssvc.InboxSvc = (*inboxService)(nil)

// ListInbox returns notifications addressed to the actor or to the actor's role, newest first.
func (s *inboxService) ListInbox(ctx context.Context, actor domain.Principal, params dto.ListNotificationsParams) (*dto.ListNotificationsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	recipients := []string{actor.ID, domain.RoleAddress(actor.Role)}
	notifications, err := s.repo.ListNotifications(ctx, recipients, params.Unread, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list notifications", slog.String("user_id", actor.ID))
		return nil, err
	}
	return &dto.ListNotificationsResponse{Notifications: dto.ToNotificationResponses(notifications)}, nil
}

// MarkRead marks a notification as read. Notifications addressed to someone else are not found.
func (s *inboxService) MarkRead(ctx context.Context, actor domain.Principal, notificationID string) (*domain.Notification, error) {
	n, err := s.repo.FindNotificationByID(ctx, notificationID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find notification", slog.String("notification_id", notificationID))
		}
		return nil, err
	}
	if !n.AddressedTo(actor) {
		return nil, fmt.Errorf("%w: notification %s", apperrors.ErrNotFound, notificationID)
	}
	if n.IsRead() {
		return n, nil
	}

	if err := s.repo.MarkNotificationRead(ctx, notificationID, s.now()); err != nil {
		s.LogError(ctx, err, "Failed to mark notification read", slog.String("notification_id", notificationID))
		return nil, err
	}
	return s.repo.FindNotificationByID(ctx, notificationID)
}
