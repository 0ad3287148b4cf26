package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
)

// NotificationRepository is an in-memory inbox.
type NotificationRepository struct {
	mutex         sync.RWMutex
	notifications map[string]domain.Notification
}

func newNotificationRepository() *NotificationRepository {
	return &NotificationRepository{notifications: make(map[string]domain.Notification)}
}

var _ portsrepo.NotificationRepositoryFacade = (*NotificationRepository)(nil)

func (r *NotificationRepository) SaveNotification(ctx context.Context, n domain.Notification) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.notifications[n.NotificationID] = n
	return nil
}

func (r *NotificationRepository) FindNotificationByID(ctx context.Context, notificationID string) (*domain.Notification, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	n, ok := r.notifications[notificationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &n, nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, recipientIDs []string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	wanted := make(map[string]struct{}, len(recipientIDs))
	for _, id := range recipientIDs {
		wanted[id] = struct{}{}
	}

	r.mutex.RLock()
	out := make([]domain.Notification, 0)
	for _, n := range r.notifications {
		if _, ok := wanted[n.RecipientID]; !ok {
			continue
		}
		if unreadOnly && n.IsRead() {
			continue
		}
		out = append(out, n)
	}
	r.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].NotificationID > out[j].NotificationID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n, ok := r.notifications[notificationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &readAt
		r.notifications[notificationID] = n
	}
	return nil
}
