package repositories

import (
	"context"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
)

// EntityFilter narrows a workflow entity listing. Zero-valued fields match everything.
type EntityFilter struct {
	Kind      domain.Kind
	OwnerID   string
	Session   string
	Term      domain.Term
	Statuses  []domain.Status
	Limit     int     // 0 means no limit
	NextToken *string // cursor returned by a previous page
}

// WorkflowEntityReader defines read operations for workflow entities.
type WorkflowEntityReader interface {
	// FindEntityByID retrieves a copy of the entity, or apperrors.ErrNotFound.
	FindEntityByID(ctx context.Context, entityID string) (*domain.WorkflowEntity, error)

	// ListEntities returns copies ordered by creation time, newest first, and the
	// token for the next page (nil when there is none).
	ListEntities(ctx context.Context, filter EntityFilter) ([]domain.WorkflowEntity, *string, error)
}

// WorkflowEntityWriter defines write operations for workflow entities. Writers
// perform no transition validation; that is the engine's job.
type WorkflowEntityWriter interface {
	// SaveEntity inserts a new entity. An existing id yields apperrors.ErrDuplicate.
	SaveEntity(ctx context.Context, entity domain.WorkflowEntity) error

	// UpdateEntity replaces the stored entity when its version equals expectedVersion.
	// The stored version becomes expectedVersion+1. A stale version yields
	// apperrors.ErrConflict and a missing id apperrors.ErrNotFound.
	UpdateEntity(ctx context.Context, entity domain.WorkflowEntity, expectedVersion int64) (*domain.WorkflowEntity, error)

	// DeleteEntity removes the entity when its version equals expectedVersion and
	// reports whether a record was removed. A stale version yields apperrors.ErrConflict.
	DeleteEntity(ctx context.Context, entityID string, expectedVersion int64) (bool, error)
}

// TransitionLog stores the append-only history of workflow transitions.
type TransitionLog interface {
	// AppendTransition records one transition.
	AppendTransition(ctx context.Context, record domain.TransitionRecord) error

	// ListTransitions returns an entity's history, oldest first.
	ListTransitions(ctx context.Context, entityID string) ([]domain.TransitionRecord, error)
}

// WorkflowEntityRepositoryFacade combines all workflow entity repository interfaces.
type WorkflowEntityRepositoryFacade interface {
	WorkflowEntityReader
	WorkflowEntityWriter
	TransitionLog
}
