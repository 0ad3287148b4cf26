// Package notify holds notification sinks that publish outside the process.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/nats-io/nats.go"
)

// SubjectPrefix is the root of the subjects notifications are published on:
// notifications.workflow.<kind>.<event>
const SubjectPrefix = "notifications.workflow"

// Publisher is the part of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

var _ Publisher = (*nats.Conn)(nil)

// Event is the JSON document published for every notification.
type Event struct {
	EventType    string        `json:"event_type"`
	Notification string        `json:"notification_id"`
	RecipientID  string        `json:"recipient_id"`
	Template     string        `json:"template"`
	Message      string        `json:"message"`
	ResourceType domain.Kind   `json:"resource_type"`
	ResourceID   string        `json:"resource_id"`
	FromStatus   domain.Status `json:"from_status,omitempty"`
	ToStatus     domain.Status `json:"to_status,omitempty"`
	Category     string        `json:"category"`
}

// NATSSink publishes notifications to NATS.
type NATSSink struct {
	conn Publisher
}

// NewNATSSink creates a sink publishing on conn.
func NewNATSSink(conn Publisher) *NATSSink {
	return &NATSSink{conn: conn}
}

var _ portssvc.NotificationSink = (*NATSSink)(nil)

func (s *NATSSink) Name() string { return "nats" }

// Subject returns the subject a notification is published on.
func Subject(n domain.Notification) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, n.Kind, eventName(n))
}

// eventName is the event segment of the subject, derived from the template name.
func eventName(n domain.Notification) string {
	return n.Template[strings.LastIndex(n.Template, ".")+1:]
}

// Deliver publishes the notification and waits for the server to acknowledge the flush.
func (s *NATSSink) Deliver(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(Event{
		EventType:    eventName(n),
		Notification: n.NotificationID,
		RecipientID:  n.RecipientID,
		Template:     n.Template,
		Message:      n.Message,
		ResourceType: n.Kind,
		ResourceID:   n.EntityID,
		FromStatus:   n.FromStatus,
		ToStatus:     n.ToStatus,
		Category:     "workflow",
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	subject := Subject(n)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	return nil
}
