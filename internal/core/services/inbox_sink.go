package services

import (
	"context"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
)

// inboxSink stores notifications for the inbox API.
type inboxSink struct {
	repo portsrepo.NotificationWriter
}

// NewInboxSink creates a sink that persists notifications to the repository.
func NewInboxSink(repo portsrepo.NotificationWriter) portssvc.NotificationSink {
	return &inboxSink{repo: repo}
}

func (s *inboxSink) Name() string { return "inbox" }

func (s *inboxSink) Deliver(ctx context.Context, n domain.Notification) error {
	return s.repo.SaveNotification(ctx, n)
}
