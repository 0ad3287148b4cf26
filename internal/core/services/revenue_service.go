package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// revenueRecorders may record the revenue of a period.
var revenueRecorders = []domain.Role{domain.RoleBursar, domain.RoleAdmin}

// revenueService is the repository-backed revenue source.
type revenueService struct {
	BaseService
	repo portsrepo.RevenueRepositoryFacade
}

// NewRevenueService creates the revenue source backed by the revenue repository.
func NewRevenueService(repo portsrepo.RevenueRepositoryFacade) portssvc.RevenueSvcFacade {
	return &revenueService{repo: repo}
}

var _ portssvc.RevenueSvcFacade = (*revenueService)(nil)

func (s *revenueService) GetRevenue(ctx context.Context, period domain.Period) (*domain.PeriodRevenue, error) {
	if err := period.Validate(); err != nil {
		return nil, validationError(err)
	}
	rev, err := s.repo.FindRevenue(ctx, period)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find period revenue", slog.String("period", period.String()))
		}
		return nil, err
	}
	return rev, nil
}

// RecordRevenue inserts or replaces the revenue of a period.
func (s *revenueService) RecordRevenue(ctx context.Context, actor domain.Principal, period domain.Period, amount decimal.Decimal) (*domain.PeriodRevenue, error) {
	if !actor.HasAnyRole(revenueRecorders...) {
		return nil, fmt.Errorf("%w: role %s may not record revenue", apperrors.ErrForbidden, actor.Role)
	}
	if err := period.Validate(); err != nil {
		return nil, validationError(err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: revenue must not be negative", apperrors.ErrValidation)
	}

	rev := domain.PeriodRevenue{
		Period:     period,
		Amount:     amount,
		RecordedBy: actor.ID,
		RecordedAt: s.now(),
	}
	if err := s.repo.SaveRevenue(ctx, rev); err != nil {
		s.LogError(ctx, err, "Failed to save period revenue", slog.String("period", period.String()))
		return nil, err
	}
	s.LogInfo(ctx, "Period revenue recorded", slog.String("period", period.String()), slog.String("amount", amount.String()))
	return &rev, nil
}
