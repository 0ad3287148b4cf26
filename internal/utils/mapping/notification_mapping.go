package mapping

import (
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/models"
)

// ToModelNotification converts a domain Notification to its row model
func ToModelNotification(d domain.Notification) models.Notification {
	return models.Notification{
		NotificationID: d.NotificationID,
		RecipientID:    d.RecipientID,
		Template:       d.Template,
		Message:        d.Message,
		Kind:           string(d.Kind),
		EntityID:       d.EntityID,
		FromStatus:     string(d.FromStatus),
		ToStatus:       string(d.ToStatus),
		CreatedAt:      d.CreatedAt,
		ReadAt:         d.ReadAt,
	}
}

// ToDomainNotification converts a row model to a domain Notification
func ToDomainNotification(m models.Notification) domain.Notification {
	return domain.Notification{
		NotificationID: m.NotificationID,
		RecipientID:    m.RecipientID,
		Template:       m.Template,
		Message:        m.Message,
		Kind:           domain.Kind(m.Kind),
		EntityID:       m.EntityID,
		FromStatus:     domain.Status(m.FromStatus),
		ToStatus:       domain.Status(m.ToStatus),
		CreatedAt:      m.CreatedAt,
		ReadAt:         m.ReadAt,
	}
}

// ToModelPeriodRevenue converts a domain PeriodRevenue to its row model
func ToModelPeriodRevenue(d domain.PeriodRevenue) models.PeriodRevenue {
	return models.PeriodRevenue{
		AcademicSession: d.Period.AcademicSession,
		Term:            string(d.Period.Term),
		Amount:          d.Amount,
		RecordedBy:      d.RecordedBy,
		RecordedAt:      d.RecordedAt,
	}
}

// ToDomainPeriodRevenue converts a row model to a domain PeriodRevenue
func ToDomainPeriodRevenue(m models.PeriodRevenue) domain.PeriodRevenue {
	return domain.PeriodRevenue{
		Period:     domain.Period{AcademicSession: m.AcademicSession, Term: domain.Term(m.Term)},
		Amount:     m.Amount,
		RecordedBy: m.RecordedBy,
		RecordedAt: m.RecordedAt,
	}
}
