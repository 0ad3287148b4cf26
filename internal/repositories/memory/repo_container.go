// Package memory holds the in-process repository backend used by default and in tests.
package memory

import (
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
)

func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		WorkflowRepo:     newWorkflowEntityRepository(),
		NotificationRepo: newNotificationRepository(),
		RevenueRepo:      newRevenueRepository(),
	}
}
