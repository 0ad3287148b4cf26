package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	"github.com/SscSPs/school_workflow_app/internal/models"
	"github.com/SscSPs/school_workflow_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxNotificationRepository struct {
	BaseRepository
}

func newPgxNotificationRepository(pool *pgxpool.Pool) portsrepo.NotificationRepositoryFacade {
	return &PgxNotificationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.NotificationRepositoryFacade = (*PgxNotificationRepository)(nil)

const notificationColumns = `
	notification_id, recipient_id, template, message, kind, entity_id, from_status, to_status, created_at, read_at`

func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, n domain.Notification) error {
	m := mapping.ToModelNotification(n)
	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.Pool.Exec(ctx, query,
		m.NotificationID, m.RecipientID, m.Template, m.Message, m.Kind, m.EntityID, m.FromStatus, m.ToStatus, m.CreatedAt, m.ReadAt,
	)
	if err != nil {
		return mapWriteError(err, "notification "+m.NotificationID)
	}
	return nil
}

func (r *PgxNotificationRepository) FindNotificationByID(ctx context.Context, notificationID string) (*domain.Notification, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE notification_id = $1`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification %s: %w", notificationID, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Notification])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan notification %s: %w", notificationID, err)
	}
	n := mapping.ToDomainNotification(m)
	return &n, nil
}

func (r *PgxNotificationRepository) ListNotifications(ctx context.Context, recipientIDs []string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ANY($1)`
	args := []any{recipientIDs}
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, notification_id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $2`
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Notification])
	if err != nil {
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}
	out := make([]domain.Notification, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainNotification(m)
	}
	return out, nil
}

func (r *PgxNotificationRepository) MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, $2) WHERE notification_id = $1`,
		notificationID, readAt)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", notificationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
