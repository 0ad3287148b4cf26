package domain

import (
	"encoding/json"
	"time"
)

// Kind identifies the concrete payload schema of a workflow entity.
type Kind string

const (
	KindExpenditure     Kind = "expenditure"
	KindFinancialReport Kind = "financial-report"
	KindExamReport      Kind = "exam-report"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindExpenditure, KindFinancialReport, KindExamReport}

// IsValid reports whether k is a supported kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindExpenditure, KindFinancialReport, KindExamReport:
		return true
	}
	return false
}

// Status is a state of the review workflow. "pending" is the canonical name for
// the awaiting-review state; some screens call it "submitted".
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusCompleted}

// ParseStatus accepts the canonical names plus the "submitted" alias.
func ParseStatus(s string) (Status, bool) {
	if s == "submitted" {
		return StatusPending, true
	}
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsEditable reports whether the owner may still edit or delete the entity.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusPending || s == StatusRejected
}

// Action is an operation attempted against a workflow entity.
type Action string

const (
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

// WorkflowEntity generalizes expenditure requests, financial reports and exam
// officer reports. Payload is kind-specific JSON and opaque to the engine.
type WorkflowEntity struct {
	EntityID        string          `json:"id"`
	Kind            Kind            `json:"kind"`
	OwnerID         string          `json:"ownerId"`
	OwnerName       string          `json:"ownerName"`
	Status          Status          `json:"status"`
	Payload         json.RawMessage `json:"payload"`
	Period          Period          `json:"period"`
	SubmittedAt     *time.Time      `json:"submittedAt,omitempty"`
	// ReviewedAt is set by approve and reject and cleared on resubmission. It stays set after complete.
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	ReviewerID      *string         `json:"reviewerId,omitempty"`
	ReviewerName    *string         `json:"reviewerName,omitempty"`
	ReviewComments  *string         `json:"reviewComments,omitempty"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
	AuditFields
}

// Clone returns a deep copy so that callers never share mutable state with a store.
func (e WorkflowEntity) Clone() WorkflowEntity {
	c := e
	if e.Payload != nil {
		c.Payload = append(json.RawMessage(nil), e.Payload...)
	}
	c.SubmittedAt = cloneTime(e.SubmittedAt)
	c.ReviewedAt = cloneTime(e.ReviewedAt)
	c.CompletedAt = cloneTime(e.CompletedAt)
	c.ReviewerID = cloneString(e.ReviewerID)
	c.ReviewerName = cloneString(e.ReviewerName)
	c.ReviewComments = cloneString(e.ReviewComments)
	c.RejectionReason = cloneString(e.RejectionReason)
	return c
}

// TransitionRecord is one immutable entry in an entity's history.
type TransitionRecord struct {
	RecordID   string    `json:"id"`
	EntityID   string    `json:"entityId"`
	Kind       Kind      `json:"kind"`
	Action     Action    `json:"action"`
	FromStatus Status    `json:"fromStatus,omitempty"`
	ToStatus   Status    `json:"toStatus"`
	ActorID    string    `json:"actorId"`
	ActorName  string    `json:"actorName"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
