package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/dto"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// kindPolicy names the roles that may act on one kind of entity.
type kindPolicy struct {
	creators   []domain.Role
	reviewers  []domain.Role
	completers []domain.Role
}

var kindPolicies = map[domain.Kind]kindPolicy{
	domain.KindExpenditure: {
		creators:   []domain.Role{domain.RoleBursar, domain.RoleTeacher, domain.RoleAdmin},
		reviewers:  []domain.Role{domain.RolePrincipal, domain.RoleAdmin},
		completers: []domain.Role{domain.RolePrincipal, domain.RoleAdmin, domain.RoleBursar},
	},
	domain.KindFinancialReport: {
		creators:  []domain.Role{domain.RoleBursar, domain.RoleAdmin},
		reviewers: []domain.Role{domain.RolePrincipal, domain.RoleAdmin},
	},
	domain.KindExamReport: {
		creators:  []domain.Role{domain.RoleExamOfficer, domain.RoleTeacher, domain.RoleAdmin},
		reviewers: []domain.Role{domain.RolePrincipal, domain.RoleAdmin},
	},
}

// canReadAll reports whether the role sees every entity of the kind.
func (p kindPolicy) canReadAll(r domain.Role) bool {
	if r == domain.RoleAdmin {
		return true
	}
	for _, roles := range [][]domain.Role{p.reviewers, p.completers} {
		for _, known := range roles {
			if r == known {
				return true
			}
		}
	}
	return false
}

// guard authorizes the actor for a transition on the entity.
type guard func(policy kindPolicy, actor domain.Principal, e *domain.WorkflowEntity) error

func ownerOnly(_ kindPolicy, actor domain.Principal, e *domain.WorkflowEntity) error {
	if e.OwnerID != actor.ID {
		return fmt.Errorf("%w: only the owner may change entity %s", apperrors.ErrForbidden, e.EntityID)
	}
	return nil
}

func reviewerNotOwner(policy kindPolicy, actor domain.Principal, e *domain.WorkflowEntity) error {
	if !actor.HasAnyRole(policy.reviewers...) {
		return fmt.Errorf("%w: role %s may not review %s entities", apperrors.ErrForbidden, actor.Role, e.Kind)
	}
	if e.OwnerID == actor.ID {
		return fmt.Errorf("%w: owners may not review their own entities", apperrors.ErrForbidden)
	}
	return nil
}

func completer(policy kindPolicy, actor domain.Principal, e *domain.WorkflowEntity) error {
	if !actor.HasAnyRole(policy.completers...) {
		return fmt.Errorf("%w: role %s may not complete %s entities", apperrors.ErrForbidden, actor.Role, e.Kind)
	}
	return nil
}

type transitionKey struct {
	from   domain.Status
	action domain.Action
}

// transition is one legal row of the workflow. An empty target removes the entity.
type transition struct {
	to       domain.Status
	guard    guard
	template string
}

var transitions = map[transitionKey]transition{
	{domain.StatusDraft, domain.ActionEdit}:        {to: domain.StatusDraft, guard: ownerOnly},
	{domain.StatusPending, domain.ActionEdit}:      {to: domain.StatusPending, guard: ownerOnly},
	{domain.StatusRejected, domain.ActionEdit}:     {to: domain.StatusRejected, guard: ownerOnly},
	{domain.StatusDraft, domain.ActionSubmit}:      {to: domain.StatusPending, guard: ownerOnly, template: TemplateSubmitted},
	{domain.StatusRejected, domain.ActionSubmit}:   {to: domain.StatusPending, guard: ownerOnly, template: TemplateSubmitted},
	{domain.StatusPending, domain.ActionApprove}:   {to: domain.StatusApproved, guard: reviewerNotOwner, template: TemplateApproved},
	{domain.StatusPending, domain.ActionReject}:    {to: domain.StatusRejected, guard: reviewerNotOwner, template: TemplateRejected},
	{domain.StatusApproved, domain.ActionComplete}: {to: domain.StatusCompleted, guard: completer, template: TemplateCompleted},
	{domain.StatusDraft, domain.ActionDelete}:      {guard: ownerOnly},
	{domain.StatusPending, domain.ActionDelete}:    {guard: ownerOnly},
	{domain.StatusRejected, domain.ActionDelete}:   {guard: ownerOnly},
}

// workflowService implements portssvc.WorkflowSvcFacade for every kind.
type workflowService struct {
	BaseService
	repo     portsrepo.WorkflowEntityRepositoryFacade
	notifier portssvc.NotifierSvc
}

// NewWorkflowService creates the workflow engine.
func NewWorkflowService(repo portsrepo.WorkflowEntityRepositoryFacade, notifier portssvc.NotifierSvc) portssvc.WorkflowSvcFacade {
	return &workflowService{repo: repo, notifier: notifier}
}

var _ portssvc.WorkflowSvcFacade = (*workflowService)(nil)

func policyFor(kind domain.Kind) (kindPolicy, error) {
	policy, ok := kindPolicies[kind]
	if !ok {
		return kindPolicy{}, fmt.Errorf("%w: %w %q", apperrors.ErrValidation, domain.ErrUnsupportedKind, kind)
	}
	return policy, nil
}

func validationError(err error) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
}

// CreateEntity validates and stores a new draft, submitting it straight away when asked.
func (s *workflowService) CreateEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, req dto.CreateWorkflowRequest) (*domain.WorkflowEntity, error) {
	policy, err := policyFor(kind)
	if err != nil {
		return nil, err
	}
	if !actor.HasAnyRole(policy.creators...) {
		return nil, fmt.Errorf("%w: role %s may not create %s entities", apperrors.ErrForbidden, actor.Role, kind)
	}
	if err := req.Period.Validate(); err != nil {
		return nil, validationError(err)
	}
	payload, _, err := domain.NormalizePayload(kind, req.Payload)
	if err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	entity := domain.WorkflowEntity{
		EntityID:  uuid.NewString(),
		Kind:      kind,
		OwnerID:   actor.ID,
		OwnerName: actor.Name,
		Status:    domain.StatusDraft,
		Payload:   payload,
		Period:    req.Period,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
			Version:       1,
		},
	}

	if err := s.repo.SaveEntity(ctx, entity); err != nil {
		s.LogError(ctx, err, "Failed to save workflow entity", slog.String("entity_id", entity.EntityID), slog.String("kind", string(kind)))
		return nil, err
	}
	s.recordTransition(ctx, actor, &entity, domain.ActionCreate, "", "", now)
	s.LogInfo(ctx, "Workflow entity created", slog.String("entity_id", entity.EntityID), slog.String("kind", string(kind)))
	s.notify(ctx, actor, &entity, domain.ActionCreate, "", "", now, TemplateCreated, entity.OwnerID)

	if req.Submit {
		return s.SubmitEntity(ctx, actor, kind, entity.EntityID, dto.TransitionRequest{})
	}
	return &entity, nil
}

// GetEntity returns an entity the actor may read.
func (s *workflowService) GetEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string) (*domain.WorkflowEntity, error) {
	policy, err := policyFor(kind)
	if err != nil {
		return nil, err
	}
	entity, err := s.repo.FindEntityByID(ctx, entityID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find workflow entity", slog.String("entity_id", entityID))
		}
		return nil, err
	}
	if entity.Kind != kind {
		return nil, fmt.Errorf("%w: no %s entity %s", apperrors.ErrNotFound, kind, entityID)
	}
	if entity.OwnerID != actor.ID && !policy.canReadAll(actor.Role) {
		return nil, fmt.Errorf("%w: entity %s belongs to another user", apperrors.ErrForbidden, entityID)
	}
	return entity, nil
}

// ListEntities returns one page of the entities visible to the actor.
func (s *workflowService) ListEntities(ctx context.Context, actor domain.Principal, kind domain.Kind, params dto.ListWorkflowParams) (*dto.ListWorkflowResponse, error) {
	filter := portsrepo.EntityFilter{
		OwnerID:   params.Owner,
		Session:   params.Session,
		Term:      domain.Term(params.Term),
		Limit:     params.Limit,
		NextToken: params.NextToken,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Session != "" {
		if err := domain.ValidateSession(filter.Session); err != nil {
			return nil, validationError(err)
		}
	}
	if filter.Term != "" && !filter.Term.IsValid() {
		return nil, fmt.Errorf("%w: unknown term %q", apperrors.ErrValidation, params.Term)
	}
	for _, raw := range params.Status {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			status, ok := domain.ParseStatus(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, name)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	entities, next, err := s.list(ctx, actor, kind, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ListWorkflowResponse{Items: dto.ToWorkflowEntityResponses(entities), NextToken: next}, nil
}

func (s *workflowService) ListByOwner(ctx context.Context, actor domain.Principal, kind domain.Kind, ownerID string) ([]domain.WorkflowEntity, error) {
	entities, _, err := s.list(ctx, actor, kind, portsrepo.EntityFilter{OwnerID: ownerID})
	return entities, err
}

func (s *workflowService) ListByPeriod(ctx context.Context, actor domain.Principal, kind domain.Kind, session string, term domain.Term) ([]domain.WorkflowEntity, error) {
	entities, _, err := s.list(ctx, actor, kind, portsrepo.EntityFilter{Session: session, Term: term})
	return entities, err
}

func (s *workflowService) ListByStatus(ctx context.Context, actor domain.Principal, kind domain.Kind, status domain.Status) ([]domain.WorkflowEntity, error) {
	entities, _, err := s.list(ctx, actor, kind, portsrepo.EntityFilter{Statuses: []domain.Status{status}})
	return entities, err
}

// list applies the read rules: actors who cannot read the whole kind only see their own entities.
func (s *workflowService) list(ctx context.Context, actor domain.Principal, kind domain.Kind, filter portsrepo.EntityFilter) ([]domain.WorkflowEntity, *string, error) {
	policy, err := policyFor(kind)
	if err != nil {
		return nil, nil, err
	}
	filter.Kind = kind
	if !policy.canReadAll(actor.Role) {
		if filter.OwnerID != "" && filter.OwnerID != actor.ID {
			return []domain.WorkflowEntity{}, nil, nil
		}
		filter.OwnerID = actor.ID
	}
	entities, next, err := s.repo.ListEntities(ctx, filter)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list workflow entities", slog.String("kind", string(kind)))
		}
		return nil, nil, err
	}
	return entities, next, nil
}

// History returns an entity's transition records, oldest first.
func (s *workflowService) History(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string) ([]domain.TransitionRecord, error) {
	if _, err := s.GetEntity(ctx, actor, kind, entityID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListTransitions(ctx, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transitions", slog.String("entity_id", entityID))
		return nil, err
	}
	return records, nil
}

// EditEntity replaces the payload of an entity that is still editable. The status is kept.
func (s *workflowService) EditEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, payload json.RawMessage, expectedVersion *int64) (*domain.WorkflowEntity, error) {
	return s.apply(ctx, actor, kind, entityID, domain.ActionEdit, expectedVersion, func(e *domain.WorkflowEntity, _ time.Time) (string, error) {
		normalized, _, err := domain.NormalizePayload(kind, payload)
		if err != nil {
			return "", validationError(err)
		}
		e.Payload = normalized
		return "", nil
	})
}

// SubmitEntity moves a draft or rejected entity into review, optionally replacing its payload.
func (s *workflowService) SubmitEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error) {
	return s.apply(ctx, actor, kind, entityID, domain.ActionSubmit, req.ExpectedVersion, func(e *domain.WorkflowEntity, now time.Time) (string, error) {
		if len(req.Payload) > 0 && string(req.Payload) != "null" {
			normalized, _, err := domain.NormalizePayload(kind, req.Payload)
			if err != nil {
				return "", validationError(err)
			}
			e.Payload = normalized
		}
		e.SubmittedAt = &now
		// A new review round; RejectionReason stays as the record of the previous one.
		e.ReviewedAt = nil
		e.ReviewerID = nil
		e.ReviewerName = nil
		e.ReviewComments = nil
		return optional(req.Comments), nil
	})
}

// ApproveEntity records a positive review.
func (s *workflowService) ApproveEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error) {
	return s.apply(ctx, actor, kind, entityID, domain.ActionApprove, req.ExpectedVersion, func(e *domain.WorkflowEntity, now time.Time) (string, error) {
		setReviewer(e, actor, now)
		e.ReviewComments = trimmed(req.Comments)
		return optional(req.Comments), nil
	})
}

// RejectEntity records a negative review. A blank reason is a validation error.
func (s *workflowService) RejectEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error) {
	return s.apply(ctx, actor, kind, entityID, domain.ActionReject, req.ExpectedVersion, func(e *domain.WorkflowEntity, now time.Time) (string, error) {
		reason := trimmed(req.Reason)
		if reason == nil {
			return "", fmt.Errorf("%w: a rejection reason is required", apperrors.ErrValidation)
		}
		setReviewer(e, actor, now)
		e.ReviewComments = trimmed(req.Comments)
		e.RejectionReason = reason
		return *reason, nil
	})
}

// CompleteEntity marks an approved expenditure as carried out.
func (s *workflowService) CompleteEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error) {
	return s.apply(ctx, actor, kind, entityID, domain.ActionComplete, req.ExpectedVersion, func(e *domain.WorkflowEntity, now time.Time) (string, error) {
		e.CompletedAt = &now
		return optional(req.Comments), nil
	})
}

// DeleteEntity removes an entity that is still editable.
func (s *workflowService) DeleteEntity(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, expectedVersion *int64) error {
	_, err := s.apply(ctx, actor, kind, entityID, domain.ActionDelete, expectedVersion, nil)
	return err
}

// mutation changes a working copy of the entity and returns the note for the audit record.
type mutation func(e *domain.WorkflowEntity, now time.Time) (string, error)

// apply runs one transition through the guards in order: read access, kind applicability,
// state legality, actor guard, input validation, version, write, audit, notify.
func (s *workflowService) apply(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, action domain.Action, expectedVersion *int64, mutate mutation) (*domain.WorkflowEntity, error) {
	policy, err := policyFor(kind)
	if err != nil {
		return nil, err
	}
	current, err := s.GetEntity(ctx, actor, kind, entityID)
	if err != nil {
		return nil, err
	}
	if action == domain.ActionComplete && len(policy.completers) == 0 {
		return nil, apperrors.NewTransitionError(string(kind), string(current.Status), string(action))
	}
	t, ok := transitions[transitionKey{from: current.Status, action: action}]
	if !ok {
		return nil, apperrors.NewTransitionError("", string(current.Status), string(action))
	}
	if err := t.guard(policy, actor, current); err != nil {
		return nil, err
	}

	now := s.now()
	working := current.Clone()
	note := ""
	if mutate != nil {
		if note, err = mutate(&working, now); err != nil {
			return nil, err
		}
	}
	if expectedVersion != nil && *expectedVersion != current.Version {
		return nil, fmt.Errorf("%w: entity %s is at version %d, expected %d",
			apperrors.ErrConflict, entityID, current.Version, *expectedVersion)
	}

	var result *domain.WorkflowEntity
	if action == domain.ActionDelete {
		removed, err := s.repo.DeleteEntity(ctx, entityID, current.Version)
		if err != nil {
			s.logWriteError(ctx, err, "Failed to delete workflow entity", entityID)
			return nil, err
		}
		if !removed {
			return nil, fmt.Errorf("%w: entity %s", apperrors.ErrNotFound, entityID)
		}
		result = current
	} else {
		working.Status = t.to
		working.LastUpdatedAt = now
		working.LastUpdatedBy = actor.ID
		result, err = s.repo.UpdateEntity(ctx, working, current.Version)
		if err != nil {
			s.logWriteError(ctx, err, "Failed to update workflow entity", entityID)
			return nil, err
		}
	}

	s.recordTransition(ctx, actor, result, action, current.Status, note, now)
	s.LogInfo(ctx, "Workflow transition applied",
		slog.String("entity_id", entityID),
		slog.String("kind", string(kind)),
		slog.String("action", string(action)),
		slog.String("from", string(current.Status)),
		slog.String("to", string(t.to)))

	if t.template != "" {
		recipients := []string{result.OwnerID}
		if action == domain.ActionSubmit {
			for _, r := range policy.reviewers {
				recipients = append(recipients, domain.RoleAddress(r))
			}
		}
		s.notify(ctx, actor, result, action, current.Status, note, now, t.template, recipients...)
	}
	if action == domain.ActionDelete {
		return nil, nil
	}
	return result, nil
}

func (s *workflowService) logWriteError(ctx context.Context, err error, msg, entityID string) {
	if errors.Is(err, apperrors.ErrConflict) {
		s.LogInfo(ctx, "Concurrent modification of workflow entity", slog.String("entity_id", entityID))
		return
	}
	s.LogError(ctx, err, msg, slog.String("entity_id", entityID))
}

// recordTransition appends to the audit log. A failure is logged; the transition already happened.
func (s *workflowService) recordTransition(ctx context.Context, actor domain.Principal, e *domain.WorkflowEntity, action domain.Action, from domain.Status, note string, at time.Time) {
	to := e.Status
	if action == domain.ActionDelete {
		to = ""
	}
	record := domain.TransitionRecord{
		RecordID:   uuid.NewString(),
		EntityID:   e.EntityID,
		Kind:       e.Kind,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Note:       note,
		OccurredAt: at,
	}
	if err := s.repo.AppendTransition(ctx, record); err != nil {
		s.LogError(ctx, err, "Failed to record workflow transition",
			slog.String("entity_id", e.EntityID), slog.String("action", string(action)))
	}
}

func (s *workflowService) notify(ctx context.Context, actor domain.Principal, e *domain.WorkflowEntity, action domain.Action, from domain.Status, note string, at time.Time, template string, recipients ...string) {
	if s.notifier == nil {
		return
	}
	event := domain.TransitionEvent{
		EntityID:   e.EntityID,
		Kind:       e.Kind,
		OwnerID:    e.OwnerID,
		OwnerName:  e.OwnerName,
		Period:     e.Period,
		Action:     action,
		FromStatus: from,
		ToStatus:   e.Status,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Note:       note,
		OccurredAt: at,
	}
	if p, err := domain.DecodePayload(e.Kind, e.Payload); err == nil {
		event.Title = p.Title()
	}
	for _, recipient := range recipients {
		s.notifier.Notify(ctx, recipient, template, event)
	}
}

func setReviewer(e *domain.WorkflowEntity, actor domain.Principal, now time.Time) {
	id, name := actor.ID, actor.Name
	e.ReviewedAt = &now
	e.ReviewerID = &id
	e.ReviewerName = &name
}

// trimmed returns nil for a missing or blank string.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func optional(s *string) string {
	if v := trimmed(s); v != nil {
		return *v
	}
	return ""
}
