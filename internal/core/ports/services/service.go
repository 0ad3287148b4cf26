package services

// ServiceContainer holds instances of all the application services.
// It is the entry point the handlers use to reach service functionality.
type ServiceContainer struct {
	Workflow    WorkflowSvcFacade
	Aggregation AggregationSvc
	Revenue     RevenueSvcFacade
	Notifier    NotifierSvc
	Inbox       InboxSvc
}
