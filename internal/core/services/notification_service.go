package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// Notification template names.
const (
	TemplateCreated   = "workflow.created"
	TemplateSubmitted = "workflow.submitted"
	TemplateApproved  = "workflow.approved"
	TemplateRejected  = "workflow.rejected"
	TemplateCompleted = "workflow.completed"
)

const DefaultNotifyTimeout = 2 * time.Second

var kindLabels = map[domain.Kind]string{
	domain.KindExpenditure:     "Expenditure request",
	domain.KindFinancialReport: "Financial report",
	domain.KindExamReport:      "Exam report",
}

var notificationTemplates = template.Must(template.New("notifications").Funcs(template.FuncMap{
	"kindLabel": func(k domain.Kind) string {
		if label, ok := kindLabels[k]; ok {
			return label
		}
		return string(k)
	},
}).Parse(`
{{- define "workflow.created"}}{{kindLabel .Kind}} "{{.Title}}" was saved as a draft for {{.Period}}.{{end}}
{{- define "workflow.submitted"}}{{kindLabel .Kind}} "{{.Title}}" from {{.OwnerName}} was submitted for review ({{.Period}}).{{end}}
{{- define "workflow.approved"}}{{kindLabel .Kind}} "{{.Title}}" was approved by {{.ActorName}}.{{if .Note}} Comments: {{.Note}}{{end}}{{end}}
{{- define "workflow.rejected"}}{{kindLabel .Kind}} "{{.Title}}" was rejected by {{.ActorName}}. Reason: {{.Note}}{{end}}
{{- define "workflow.completed"}}{{kindLabel .Kind}} "{{.Title}}" was marked completed by {{.ActorName}}.{{end}}
`))

// notificationService renders notifications and hands them to every sink in the background.
type notificationService struct {
	BaseService
	sinks   []portssvc.NotificationSink
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotificationService creates the notifier. A non-positive timeout uses DefaultNotifyTimeout.
func NewNotificationService(timeout time.Duration, sinks ...portssvc.NotificationSink) portssvc.NotifierSvc {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &notificationService{sinks: sinks, timeout: timeout}
}

var _ portssvc.NotifierSvc = (*notificationService)(nil)

// Notify never blocks on delivery and never fails the caller.
func (s *notificationService) Notify(ctx context.Context, recipientID, templateName string, event domain.TransitionEvent) {
	message, err := renderNotification(templateName, event)
	if err != nil {
		s.LogError(ctx, fmt.Errorf("%w: %w", apperrors.ErrNotificationDelivery, err), "Failed to render notification",
			slog.String("template", templateName), slog.String("entity_id", event.EntityID))
		return
	}

	createdAt := event.OccurredAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	n := domain.Notification{
		NotificationID: uuid.NewString(),
		RecipientID:    recipientID,
		Template:       templateName,
		Message:        message,
		Kind:           event.Kind,
		EntityID:       event.EntityID,
		FromStatus:     event.FromStatus,
		ToStatus:       event.ToStatus,
		CreatedAt:      createdAt,
	}

	// Deliveries outlive the request that triggered them, bounded by the timeout.
	base := context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		s.wg.Add(1)
		go s.deliver(base, sink, n)
	}
}

func (s *notificationService) deliver(ctx context.Context, sink portssvc.NotificationSink, n domain.Notification) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.LogError(ctx, fmt.Errorf("%w: %s panicked: %v", apperrors.ErrNotificationDelivery, sink.Name(), r),
				"Notification sink panicked", slog.String("notification_id", n.NotificationID))
		}
	}()

	deliverCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := sink.Deliver(deliverCtx, n); err != nil {
		s.LogError(ctx, fmt.Errorf("%w: %s: %w", apperrors.ErrNotificationDelivery, sink.Name(), err),
			"Notification delivery failed",
			slog.String("sink", sink.Name()),
			slog.String("notification_id", n.NotificationID),
			slog.String("recipient_id", n.RecipientID))
		return
	}
	s.LogDebug(ctx, "Notification delivered",
		slog.String("sink", sink.Name()),
		slog.String("notification_id", n.NotificationID),
		slog.String("recipient_id", n.RecipientID))
}

// Wait blocks until every in-flight delivery has finished.
func (s *notificationService) Wait() {
	s.wg.Wait()
}

func renderNotification(name string, event domain.TransitionEvent) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplates.ExecuteTemplate(&buf, name, event); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
