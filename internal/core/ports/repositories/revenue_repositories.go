package repositories

import (
	"context"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
)

// RevenueRepositoryFacade stores the revenue recorded per academic period.
type RevenueRepositoryFacade interface {
	// FindRevenue returns the revenue for the period, or apperrors.ErrNotFound.
	FindRevenue(ctx context.Context, period domain.Period) (*domain.PeriodRevenue, error)

	// SaveRevenue inserts or replaces the revenue for the period.
	SaveRevenue(ctx context.Context, revenue domain.PeriodRevenue) error
}
