package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// summaryReaders may view the funds summary of a period.
var summaryReaders = []domain.Role{domain.RoleAdmin, domain.RolePrincipal, domain.RoleBursar}

// aggregationService recomputes every figure from a store snapshot on each call.
type aggregationService struct {
	BaseService
	repo     portsrepo.WorkflowEntityReader
	workflow portssvc.WorkflowReaderSvc
	revenue  portssvc.RevenueSource
}

// NewAggregationService creates the aggregation service. workflow enforces the
// read rules for per-entity aggregates; revenue resolves revenue not supplied by the caller.
func NewAggregationService(repo portsrepo.WorkflowEntityReader, workflow portssvc.WorkflowReaderSvc, revenue portssvc.RevenueSource) portssvc.AggregationSvc {
	return &aggregationService{repo: repo, workflow: workflow, revenue: revenue}
}

var _ portssvc.AggregationSvc = (*aggregationService)(nil)

type periodTotals struct {
	approved decimal.Decimal
	pending  decimal.Decimal
}

// totals sums expenditure amounts of the period by status.
func (s *aggregationService) totals(ctx context.Context, period domain.Period, statuses ...domain.Status) (periodTotals, error) {
	if err := period.Validate(); err != nil {
		return periodTotals{}, validationError(err)
	}
	entities, _, err := s.repo.ListEntities(ctx, portsrepo.EntityFilter{
		Kind:     domain.KindExpenditure,
		Session:  period.AcademicSession,
		Term:     period.Term,
		Statuses: statuses,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list expenditures for aggregation", slog.String("period", period.String()))
		return periodTotals{}, err
	}

	t := periodTotals{approved: decimal.Zero, pending: decimal.Zero}
	for _, e := range entities {
		amount, err := expenditureAmount(e)
		if err != nil {
			s.LogError(ctx, err, "Failed to decode expenditure payload", slog.String("entity_id", e.EntityID))
			return periodTotals{}, err
		}
		switch e.Status {
		case domain.StatusApproved, domain.StatusCompleted:
			t.approved = t.approved.Add(amount)
		case domain.StatusPending:
			t.pending = t.pending.Add(amount)
		}
	}
	return t, nil
}

func expenditureAmount(e domain.WorkflowEntity) (decimal.Decimal, error) {
	var p domain.ExpenditurePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return decimal.Zero, fmt.Errorf("expenditure %s payload: %w", e.EntityID, err)
	}
	return p.Amount, nil
}

// TotalApproved sums approved and completed expenditures of the period.
func (s *aggregationService) TotalApproved(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	t, err := s.totals(ctx, period, domain.StatusApproved, domain.StatusCompleted)
	if err != nil {
		return decimal.Zero, err
	}
	return t.approved, nil
}

func (s *aggregationService) AvailableFunds(ctx context.Context, period domain.Period, revenue decimal.Decimal) (decimal.Decimal, error) {
	approved, err := s.TotalApproved(ctx, period)
	if err != nil {
		return decimal.Zero, err
	}
	return revenue.Sub(approved), nil
}

func (s *aggregationService) CheckSufficiency(requestAmount, available decimal.Decimal) domain.Sufficiency {
	return domain.CheckSufficiency(requestAmount, available)
}

// Summary is restricted to the roles that oversee school finances.
func (s *aggregationService) Summary(ctx context.Context, actor domain.Principal, period domain.Period, revenue *decimal.Decimal) (*domain.FundsSummary, error) {
	if !actor.HasAnyRole(summaryReaders...) {
		return nil, fmt.Errorf("%w: role %s may not view the funds summary", apperrors.ErrForbidden, actor.Role)
	}
	return s.summary(ctx, period, revenue)
}

func (s *aggregationService) summary(ctx context.Context, period domain.Period, revenue *decimal.Decimal) (*domain.FundsSummary, error) {
	if err := period.Validate(); err != nil {
		return nil, validationError(err)
	}
	amount, recorded, err := s.resolveRevenue(ctx, period, revenue)
	if err != nil {
		return nil, err
	}
	t, err := s.totals(ctx, period, domain.StatusPending, domain.StatusApproved, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	return &domain.FundsSummary{
		Period:          period,
		Revenue:         amount,
		RevenueRecorded: recorded,
		TotalApproved:   t.approved,
		TotalPending:    t.pending,
		AvailableFunds:  amount.Sub(t.approved),
	}, nil
}

// resolveRevenue prefers the caller's figure, then the revenue source. A period
// with no recorded revenue counts as zero.
func (s *aggregationService) resolveRevenue(ctx context.Context, period domain.Period, supplied *decimal.Decimal) (decimal.Decimal, bool, error) {
	if supplied != nil {
		if supplied.IsNegative() {
			return decimal.Zero, false, fmt.Errorf("%w: revenue must not be negative", apperrors.ErrValidation)
		}
		return *supplied, true, nil
	}
	if s.revenue == nil {
		return decimal.Zero, false, nil
	}
	rev, err := s.revenue.GetRevenue(ctx, period)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return rev.Amount, true, nil
}

// EntityAggregate evaluates an expenditure against the funds of its period. An
// expenditure already counted as approved is checked against the funds that
// were available before it.
func (s *aggregationService) EntityAggregate(ctx context.Context, actor domain.Principal, entityID string, revenue *decimal.Decimal) (*domain.EntityAggregate, error) {
	entity, err := s.workflow.GetEntity(ctx, actor, domain.KindExpenditure, entityID)
	if err != nil {
		return nil, err
	}
	amount, err := expenditureAmount(*entity)
	if err != nil {
		s.LogError(ctx, err, "Failed to decode expenditure payload", slog.String("entity_id", entityID))
		return nil, err
	}
	summary, err := s.summary(ctx, entity.Period, revenue)
	if err != nil {
		return nil, err
	}

	available := summary.AvailableFunds
	if entity.Status == domain.StatusApproved || entity.Status == domain.StatusCompleted {
		available = available.Add(amount)
	}
	return &domain.EntityAggregate{
		EntityID:      entity.EntityID,
		RequestAmount: amount,
		FundsSummary:  *summary,
		Sufficiency:   domain.CheckSufficiency(amount, available),
	}, nil
}
