package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
)

// RevenueRepository keeps period revenue in memory, keyed by Period.
type RevenueRepository struct {
	mutex    sync.RWMutex
	revenues map[domain.Period]domain.PeriodRevenue
}

func newRevenueRepository() *RevenueRepository {
	return &RevenueRepository{revenues: make(map[domain.Period]domain.PeriodRevenue)}
}

var _ portsrepo.RevenueRepositoryFacade = (*RevenueRepository)(nil)

func (r *RevenueRepository) FindRevenue(ctx context.Context, period domain.Period) (*domain.PeriodRevenue, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rev, ok := r.revenues[period]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rev, nil
}

func (r *RevenueRepository) SaveRevenue(ctx context.Context, revenue domain.PeriodRevenue) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.revenues[revenue.Period] = revenue
	return nil
}
