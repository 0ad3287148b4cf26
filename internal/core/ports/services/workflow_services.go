package services

import (
	"context"
	"encoding/json"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/dto"
)

// WorkflowReaderSvc defines read operations over workflow entities of one kind.
type WorkflowReaderSvc interface {
	// GetEntity returns an entity the actor may read. An id of another kind is not found.
	GetEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string) (*domain.WorkflowEntity, error)

	// ListEntities returns one page of entities visible to the actor, newest first.
	ListEntities(ctx context.Context, actor domain.Principal, kind domain.Kind, params dto.ListWorkflowParams) (*dto.ListWorkflowResponse, error)

	ListByOwner(ctx context.Context, actor domain.Principal, kind domain.Kind, ownerID string) ([]domain.WorkflowEntity, error)
	ListByPeriod(ctx context.Context, actor domain.Principal, kind domain.Kind, session string, term domain.Term) ([]domain.WorkflowEntity, error)
	ListByStatus(ctx context.Context, actor domain.Principal, kind domain.Kind, status domain.Status) ([]domain.WorkflowEntity, error)

	// History returns the transition records of an entity, oldest first.
	History(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string) ([]domain.TransitionRecord, error)
}

// WorkflowWriterSvc defines the state transitions of the review workflow.
// expectedVersion, when non-nil, must match the stored version or the call fails with a conflict.
type WorkflowWriterSvc interface {
	CreateEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, req dto.CreateWorkflowRequest) (*domain.WorkflowEntity, error)
	EditEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, payload json.RawMessage, expectedVersion *int64) (*domain.WorkflowEntity, error)
	SubmitEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error)
	ApproveEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error)
	RejectEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error)
	CompleteEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error)
	DeleteEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, expectedVersion *int64) error
}

// WorkflowSvcFacade combines all workflow service interfaces.
type WorkflowSvcFacade interface {
	WorkflowReaderSvc
	WorkflowWriterSvc
}
