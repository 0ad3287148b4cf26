package models

import "time"

// WorkflowEntity is the row shape of the workflow_entities table.
type WorkflowEntity struct {
	EntityID        string     `db:"entity_id"`
	Kind            string     `db:"kind"`
	OwnerID         string     `db:"owner_id"`
	OwnerName       string     `db:"owner_name"`
	Status          string     `db:"status"`
	Payload         []byte     `db:"payload"` // JSONB
	AcademicSession string     `db:"academic_session"`
	Term            string     `db:"term"`
	SubmittedAt     *time.Time `db:"submitted_at"`
	ReviewedAt      *time.Time `db:"reviewed_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	ReviewerID      *string    `db:"reviewer_id"`
	ReviewerName    *string    `db:"reviewer_name"`
	ReviewComments  *string    `db:"review_comments"`
	RejectionReason *string    `db:"rejection_reason"`
	AuditFields
}

// TransitionRecord is the row shape of the workflow_transitions table.
type TransitionRecord struct {
	RecordID   string    `db:"record_id"`
	EntityID   string    `db:"entity_id"`
	Kind       string    `db:"kind"`
	Action     string    `db:"action"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ActorID    string    `db:"actor_id"`
	ActorName  string    `db:"actor_name"`
	Note       string    `db:"note"`
	OccurredAt time.Time `db:"occurred_at"`
}
