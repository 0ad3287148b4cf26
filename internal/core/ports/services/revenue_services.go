package services

import (
	"context"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RevenueSource supplies the revenue of a period. A period with no recorded
// revenue returns apperrors.ErrNotFound.
type RevenueSource interface {
	GetRevenue(ctx context.Context, period domain.Period) (*domain.PeriodRevenue, error)
}

// RevenueSvcFacade is the revenue source plus recording by the payments office.
type RevenueSvcFacade interface {
	RevenueSource
	RecordRevenue(ctx context.Context, actor domain.Principal, period domain.Period, amount decimal.Decimal) (*domain.PeriodRevenue, error)
}
