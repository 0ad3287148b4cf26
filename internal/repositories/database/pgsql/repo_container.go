package pgsql

import (
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		WorkflowRepo:     newPgxWorkflowEntityRepository(dbPool),
		NotificationRepo: newPgxNotificationRepository(dbPool),
		RevenueRepo:      newPgxRevenueRepository(dbPool),
	}
}
