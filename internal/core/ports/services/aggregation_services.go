package services

import (
	"context"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AggregationSvc derives financial figures from the expenditure entities of a period.
// Nothing it returns is cached.
type AggregationSvc interface {
	// TotalApproved sums the amounts of approved and completed expenditures in the period.
	TotalApproved(ctx context.Context, period domain.Period) (decimal.Decimal, error)

	// AvailableFunds is revenue minus TotalApproved. It may be negative.
	AvailableFunds(ctx context.Context, period domain.Period, revenue decimal.Decimal) (decimal.Decimal, error)

	CheckSufficiency(requestAmount, available decimal.Decimal) domain.Sufficiency

	// Summary builds the funds summary. A nil revenue is resolved from the revenue source.
	Summary(ctx context.Context, actor domain.Principal, period domain.Period, revenue *decimal.Decimal) (*domain.FundsSummary, error)

	// EntityAggregate is the summary of an expenditure's period plus the sufficiency of its amount.
	EntityAggregate(ctx context.Context, actor domain.Principal, entityID string, revenue *decimal.Decimal) (*domain.EntityAggregate, error)
}
