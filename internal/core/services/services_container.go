package services

import (
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// extraSinks receive every notification in addition to the inbox.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, extraSinks ...portssvc.NotificationSink) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	sinks := append([]portssvc.NotificationSink{NewInboxSink(repos.NotificationRepo)}, extraSinks...)
	container.Notifier = NewNotificationService(cfg.NotifyTimeout, sinks...)
	container.Inbox = NewInboxService(repos.NotificationRepo)

	container.Workflow = NewWorkflowService(repos.WorkflowRepo, container.Notifier)
	container.Revenue = NewRevenueService(repos.RevenueRepo)
	container.Aggregation = NewAggregationService(repos.WorkflowRepo, container.Workflow, container.Revenue)

	return container
}
