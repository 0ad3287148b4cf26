package memory

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_InboxLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newNotificationRepository()
	base := time.Date(2023, 10, 1, 9, 0, 0, 0, time.UTC)

	direct := domain.Notification{NotificationID: "n1", RecipientID: "u-1", Message: "approved", CreatedAt: base}
	byRole := domain.Notification{NotificationID: "n2", RecipientID: "role:principal", Message: "submitted", CreatedAt: base.Add(time.Minute)}
	other := domain.Notification{NotificationID: "n3", RecipientID: "u-2", Message: "rejected", CreatedAt: base.Add(2 * time.Minute)}
	for _, n := range []domain.Notification{direct, byRole, other} {
		require.NoError(t, repo.SaveNotification(ctx, n))
	}

	inbox, err := repo.ListNotifications(ctx, []string{"u-1", "role:principal"}, false, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "n2", inbox[0].NotificationID, "newest first")
	assert.Equal(t, "n1", inbox[1].NotificationID)

	readAt := base.Add(time.Hour)
	require.NoError(t, repo.MarkNotificationRead(ctx, "n1", readAt))
	require.NoError(t, repo.MarkNotificationRead(ctx, "n1", readAt.Add(time.Hour)), "marking twice is a no-op")

	found, err := repo.FindNotificationByID(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, found.ReadAt)
	assert.Equal(t, readAt, *found.ReadAt)

	unread, err := repo.ListNotifications(ctx, []string{"u-1", "role:principal"}, true, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n2", unread[0].NotificationID)

	limited, err := repo.ListNotifications(ctx, []string{"u-1", "u-2", "role:principal"}, false, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "n3", limited[0].NotificationID)

	assert.ErrorIs(t, repo.MarkNotificationRead(ctx, "missing", readAt), apperrors.ErrNotFound)
	_, err = repo.FindNotificationByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRevenueRepository_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newRevenueRepository()
	period := domain.Period{AcademicSession: "2023/2024", Term: domain.FirstTerm}

	_, err := repo.FindRevenue(ctx, period)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.SaveRevenue(ctx, domain.PeriodRevenue{Period: period, Amount: decimal.NewFromInt(40000), RecordedBy: "b-1"}))
	require.NoError(t, repo.SaveRevenue(ctx, domain.PeriodRevenue{Period: period, Amount: decimal.NewFromInt(45000), RecordedBy: "b-2"}))

	rev, err := repo.FindRevenue(ctx, period)
	require.NoError(t, err)
	assert.True(t, rev.Amount.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, "b-2", rev.RecordedBy)

	_, err = repo.FindRevenue(ctx, domain.Period{AcademicSession: "2023/2024", Term: domain.SecondTerm})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
