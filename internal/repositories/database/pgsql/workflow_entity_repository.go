package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	"github.com/SscSPs/school_workflow_app/internal/models"
	"github.com/SscSPs/school_workflow_app/internal/utils/mapping"
	"github.com/SscSPs/school_workflow_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxWorkflowEntityRepository struct {
	BaseRepository
}

// newPgxWorkflowEntityRepository creates a new repository for workflow entities.
func newPgxWorkflowEntityRepository(pool *pgxpool.Pool) portsrepo.WorkflowEntityRepositoryFacade {
	return &PgxWorkflowEntityRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.WorkflowEntityRepositoryFacade = (*PgxWorkflowEntityRepository)(nil)

const workflowEntityColumns = `
	entity_id, kind, owner_id, owner_name, status, payload, academic_session, term,
	submitted_at, reviewed_at, completed_at, reviewer_id, reviewer_name, review_comments, rejection_reason,
	created_at, created_by, last_updated_at, last_updated_by, version`

const transitionColumns = `
	record_id, entity_id, kind, action, from_status, to_status, actor_id, actor_name, note, occurred_at`

func (r *PgxWorkflowEntityRepository) SaveEntity(ctx context.Context, entity domain.WorkflowEntity) error {
	m := mapping.ToModelWorkflowEntity(entity)
	query := `INSERT INTO workflow_entities (` + workflowEntityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.Pool.Exec(ctx, query,
		m.EntityID, m.Kind, m.OwnerID, m.OwnerName, m.Status, m.Payload, m.AcademicSession, m.Term,
		m.SubmittedAt, m.ReviewedAt, m.CompletedAt, m.ReviewerID, m.ReviewerName, m.ReviewComments, m.RejectionReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "workflow entity "+m.EntityID)
	}
	return nil
}

func (r *PgxWorkflowEntityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.WorkflowEntity, error) {
	query := `SELECT ` + workflowEntityColumns + ` FROM workflow_entities WHERE entity_id = $1`
	rows, err := r.Pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow entity %s: %w", entityID, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.WorkflowEntity])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan workflow entity %s: %w", entityID, err)
	}
	e := mapping.ToDomainWorkflowEntity(m)
	return &e, nil
}

func (r *PgxWorkflowEntityRepository) UpdateEntity(ctx context.Context, entity domain.WorkflowEntity, expectedVersion int64) (*domain.WorkflowEntity, error) {
	m := mapping.ToModelWorkflowEntity(entity)
	query := `
		UPDATE workflow_entities SET
			status = $3, payload = $4, submitted_at = $5, reviewed_at = $6, completed_at = $7,
			reviewer_id = $8, reviewer_name = $9, review_comments = $10, rejection_reason = $11,
			last_updated_at = $12, last_updated_by = $13, version = version + 1
		WHERE entity_id = $1 AND version = $2
		RETURNING ` + workflowEntityColumns

	rows, err := r.Pool.Query(ctx, query,
		m.EntityID, expectedVersion,
		m.Status, m.Payload, m.SubmittedAt, m.ReviewedAt, m.CompletedAt,
		m.ReviewerID, m.ReviewerName, m.ReviewComments, m.RejectionReason,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapWriteError(err, "workflow entity "+m.EntityID)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.WorkflowEntity])
	if err == nil {
		e := mapping.ToDomainWorkflowEntity(updated)
		return &e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapWriteError(err, "workflow entity "+m.EntityID)
	}

	// Nothing matched: either the row is gone or its version moved on.
	var current int64
	err = r.Pool.QueryRow(ctx, `SELECT version FROM workflow_entities WHERE entity_id = $1`, m.EntityID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read version of workflow entity %s: %w", m.EntityID, err)
	}
	return nil, fmt.Errorf("%w: workflow entity %s is at version %d, expected %d",
		apperrors.ErrConflict, m.EntityID, current, expectedVersion)
}

func (r *PgxWorkflowEntityRepository) DeleteEntity(ctx context.Context, entityID string, expectedVersion int64) (removed bool, err error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if rbErr := r.Rollback(ctx, tx); rbErr != nil && err == nil {
			err = rbErr
		}
	}()

	var current int64
	err = tx.QueryRow(ctx, `SELECT version FROM workflow_entities WHERE entity_id = $1 FOR UPDATE`, entityID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock workflow entity %s: %w", entityID, err)
	}
	if current != expectedVersion {
		return false, fmt.Errorf("%w: workflow entity %s is at version %d, expected %d",
			apperrors.ErrConflict, entityID, current, expectedVersion)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM workflow_entities WHERE entity_id = $1`, entityID)
	if err != nil {
		return false, fmt.Errorf("failed to delete workflow entity %s: %w", entityID, err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgxWorkflowEntityRepository) ListEntities(ctx context.Context, filter portsrepo.EntityFilter) ([]domain.WorkflowEntity, *string, error) {
	conds := make([]string, 0, 6)
	args := make([]any, 0, 8)
	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Kind != "" {
		conds = append(conds, "kind = "+addArg(string(filter.Kind)))
	}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = "+addArg(filter.OwnerID))
	}
	if filter.Session != "" {
		conds = append(conds, "academic_session = "+addArg(filter.Session))
	}
	if filter.Term != "" {
		conds = append(conds, "term = "+addArg(string(filter.Term)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "status = ANY("+addArg(statuses)+")")
	}
	if filter.NextToken != nil && *filter.NextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		conds = append(conds, fmt.Sprintf("(created_at, entity_id) < (%s, %s)", addArg(cursorAt), addArg(cursorID)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + workflowEntityColumns + ` FROM workflow_entities`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, entity_id DESC")
	if filter.Limit > 0 {
		// Fetch one extra row to know whether another page exists.
		sb.WriteString(" LIMIT " + addArg(filter.Limit+1))
	}

	rows, err := r.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query workflow entities: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.WorkflowEntity])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan workflow entities: %w", err)
	}

	entities := mapping.ToDomainWorkflowEntitySlice(ms)
	if filter.Limit <= 0 || len(entities) <= filter.Limit {
		return entities, nil, nil
	}
	page := entities[:filter.Limit]
	last := page[len(page)-1]
	next := pagination.EncodeToken(last.CreatedAt, last.EntityID)
	return page, &next, nil
}

func (r *PgxWorkflowEntityRepository) AppendTransition(ctx context.Context, record domain.TransitionRecord) error {
	m := mapping.ToModelTransitionRecord(record)
	query := `INSERT INTO workflow_transitions (` + transitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.Pool.Exec(ctx, query,
		m.RecordID, m.EntityID, m.Kind, m.Action, m.FromStatus, m.ToStatus, m.ActorID, m.ActorName, m.Note, m.OccurredAt,
	)
	if err != nil {
		return mapWriteError(err, "transition record "+m.RecordID)
	}
	return nil
}

func (r *PgxWorkflowEntityRepository) ListTransitions(ctx context.Context, entityID string) ([]domain.TransitionRecord, error) {
	query := `SELECT ` + transitionColumns + ` FROM workflow_transitions WHERE entity_id = $1 ORDER BY seq`
	rows, err := r.Pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions of %s: %w", entityID, err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.TransitionRecord])
	if err != nil {
		return nil, fmt.Errorf("failed to scan transitions of %s: %w", entityID, err)
	}
	out := make([]domain.TransitionRecord, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainTransitionRecord(m)
	}
	return out, nil
}
