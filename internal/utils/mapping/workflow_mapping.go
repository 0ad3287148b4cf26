package mapping

import (
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/models"
)

// ToModelAuditFields converts a domain AuditFields to a model AuditFields
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
		Version:       d.Version,
	}
}

// ToDomainAuditFields converts a model AuditFields to a domain AuditFields
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
		Version:       m.Version,
	}
}

// ToModelWorkflowEntity converts a domain WorkflowEntity to its row model
func ToModelWorkflowEntity(d domain.WorkflowEntity) models.WorkflowEntity {
	return models.WorkflowEntity{
		EntityID:        d.EntityID,
		Kind:            string(d.Kind),
		OwnerID:         d.OwnerID,
		OwnerName:       d.OwnerName,
		Status:          string(d.Status),
		Payload:         []byte(d.Payload),
		AcademicSession: d.Period.AcademicSession,
		Term:            string(d.Period.Term),
		SubmittedAt:     d.SubmittedAt,
		ReviewedAt:      d.ReviewedAt,
		CompletedAt:     d.CompletedAt,
		ReviewerID:      d.ReviewerID,
		ReviewerName:    d.ReviewerName,
		ReviewComments:  d.ReviewComments,
		RejectionReason: d.RejectionReason,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainWorkflowEntity converts a row model to a domain WorkflowEntity
func ToDomainWorkflowEntity(m models.WorkflowEntity) domain.WorkflowEntity {
	return domain.WorkflowEntity{
		EntityID:        m.EntityID,
		Kind:            domain.Kind(m.Kind),
		OwnerID:         m.OwnerID,
		OwnerName:       m.OwnerName,
		Status:          domain.Status(m.Status),
		Payload:         m.Payload,
		Period:          domain.Period{AcademicSession: m.AcademicSession, Term: domain.Term(m.Term)},
		SubmittedAt:     m.SubmittedAt,
		ReviewedAt:      m.ReviewedAt,
		CompletedAt:     m.CompletedAt,
		ReviewerID:      m.ReviewerID,
		ReviewerName:    m.ReviewerName,
		ReviewComments:  m.ReviewComments,
		RejectionReason: m.RejectionReason,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainWorkflowEntitySlice converts a slice of row models
func ToDomainWorkflowEntitySlice(ms []models.WorkflowEntity) []domain.WorkflowEntity {
	ds := make([]domain.WorkflowEntity, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainWorkflowEntity(m)
	}
	return ds
}

// ToModelTransitionRecord converts a domain TransitionRecord to its row model
func ToModelTransitionRecord(d domain.TransitionRecord) models.TransitionRecord {
	return models.TransitionRecord{
		RecordID:   d.RecordID,
		EntityID:   d.EntityID,
		Kind:       string(d.Kind),
		Action:     string(d.Action),
		FromStatus: string(d.FromStatus),
		ToStatus:   string(d.ToStatus),
		ActorID:    d.ActorID,
		ActorName:  d.ActorName,
		Note:       d.Note,
		OccurredAt: d.OccurredAt,
	}
}

// ToDomainTransitionRecord converts a row model to a domain TransitionRecord
func ToDomainTransitionRecord(m models.TransitionRecord) domain.TransitionRecord {
	return domain.TransitionRecord{
		RecordID:   m.RecordID,
		EntityID:   m.EntityID,
		Kind:       domain.Kind(m.Kind),
		Action:     domain.Action(m.Action),
		FromStatus: domain.Status(m.FromStatus),
		ToStatus:   domain.Status(m.ToStatus),
		ActorID:    m.ActorID,
		ActorName:  m.ActorName,
		Note:       m.Note,
		OccurredAt: m.OccurredAt,
	}
}
