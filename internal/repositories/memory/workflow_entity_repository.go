package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	"github.com/SscSPs/school_workflow_app/internal/utils/pagination"
)

// WorkflowEntityRepository keeps workflow entities and their history in memory.
// Entities are copied on the way in and on the way out.
type WorkflowEntityRepository struct {
	mutex       sync.RWMutex
	entities    map[string]domain.WorkflowEntity
	transitions map[string][]domain.TransitionRecord
}

func newWorkflowEntityRepository() *WorkflowEntityRepository {
	return &WorkflowEntityRepository{
		entities:    make(map[string]domain.WorkflowEntity),
		transitions: make(map[string][]domain.TransitionRecord),
	}
}

var _ portsrepo.WorkflowEntityRepositoryFacade = (*WorkflowEntityRepository)(nil)

func (r *WorkflowEntityRepository) SaveEntity(ctx context.Context, entity domain.WorkflowEntity) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.entities[entity.EntityID]; exists {
		return fmt.Errorf("%w: workflow entity %s already exists", apperrors.ErrDuplicate, entity.EntityID)
	}
	r.entities[entity.EntityID] = entity.Clone()
	return nil
}

func (r *WorkflowEntityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.WorkflowEntity, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored, ok := r.entities[entityID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := stored.Clone()
	return &c, nil
}

func (r *WorkflowEntityRepository) UpdateEntity(ctx context.Context, entity domain.WorkflowEntity, expectedVersion int64) (*domain.WorkflowEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, ok := r.entities[entity.EntityID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return nil, fmt.Errorf("%w: workflow entity %s is at version %d, expected %d",
			apperrors.ErrConflict, entity.EntityID, stored.Version, expectedVersion)
	}

	updated := entity.Clone()
	updated.Version = expectedVersion + 1
	r.entities[entity.EntityID] = updated

	out := updated.Clone()
	return &out, nil
}

func (r *WorkflowEntityRepository) DeleteEntity(ctx context.Context, entityID string, expectedVersion int64) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, ok := r.entities[entityID]
	if !ok {
		return false, nil
	}
	if stored.Version != expectedVersion {
		return false, fmt.Errorf("%w: workflow entity %s is at version %d, expected %d",
			apperrors.ErrConflict, entityID, stored.Version, expectedVersion)
	}
	delete(r.entities, entityID)
	return true, nil
}

func (r *WorkflowEntityRepository) ListEntities(ctx context.Context, filter portsrepo.EntityFilter) ([]domain.WorkflowEntity, *string, error) {
	var (
		cursorAt  time.Time
		cursorID  string
		hasCursor bool
	)
	if filter.NextToken != nil && *filter.NextToken != "" {
		at, id, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		cursorAt, cursorID, hasCursor = at, id, true
	}

	r.mutex.RLock()
	matched := make([]domain.WorkflowEntity, 0, len(r.entities))
	for _, e := range r.entities {
		if !matchesFilter(e, filter) {
			continue
		}
		if hasCursor && !pagination.After(e.CreatedAt, e.EntityID, cursorAt, cursorID) {
			continue
		}
		matched = append(matched, e.Clone())
	}
	r.mutex.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].EntityID > matched[j].EntityID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Limit <= 0 || len(matched) <= filter.Limit {
		return matched, nil, nil
	}
	page := matched[:filter.Limit]
	last := page[len(page)-1]
	next := pagination.EncodeToken(last.CreatedAt, last.EntityID)
	return page, &next, nil
}

func (r *WorkflowEntityRepository) AppendTransition(ctx context.Context, record domain.TransitionRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.transitions[record.EntityID] = append(r.transitions[record.EntityID], record)
	return nil
}

func (r *WorkflowEntityRepository) ListTransitions(ctx context.Context, entityID string) ([]domain.TransitionRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	history := r.transitions[entityID]
	out := make([]domain.TransitionRecord, len(history))
	copy(out, history)
	return out, nil
}

func matchesFilter(e domain.WorkflowEntity, f portsrepo.EntityFilter) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.OwnerID != "" && e.OwnerID != f.OwnerID {
		return false
	}
	if f.Session != "" && e.Period.AcademicSession != f.Session {
		return false
	}
	if f.Term != "" && e.Period.Term != f.Term {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if e.Status == s {
				return true
			}
		}
		return false
	}
	return true
}
