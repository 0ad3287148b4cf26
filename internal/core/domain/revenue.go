package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodRevenue is the revenue recorded for one academic period by the payments office.
type PeriodRevenue struct {
	Period     Period          `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedBy string          `json:"recordedBy"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// Sufficiency is the outcome of comparing a requested amount against available funds.
type Sufficiency struct {
	Sufficient bool            `json:"sufficient"`
	Shortfall  decimal.Decimal `json:"shortfall"`
}

// CheckSufficiency compares a request with the funds available for it.
// Shortfall is max(0, request - available).
func CheckSufficiency(requestAmount, available decimal.Decimal) Sufficiency {
	shortfall := requestAmount.Sub(available)
	if !shortfall.IsPositive() {
		return Sufficiency{Sufficient: true, Shortfall: decimal.Zero}
	}
	return Sufficiency{Sufficient: false, Shortfall: shortfall}
}

// FundsSummary is the derived financial view for a period. It is never stored.
// RevenueRecorded is false when no revenue was supplied or recorded and zero was assumed.
type FundsSummary struct {
	Period          Period          `json:"period"`
	Revenue         decimal.Decimal `json:"revenue"`
	RevenueRecorded bool            `json:"revenueRecorded"`
	TotalApproved   decimal.Decimal `json:"totalApproved"`
	TotalPending    decimal.Decimal `json:"totalPending"`
	AvailableFunds  decimal.Decimal `json:"availableFunds"`
}

// EntityAggregate is the funds summary for an expenditure's period plus the
// sufficiency of its requested amount.
type EntityAggregate struct {
	EntityID      string          `json:"entityId"`
	RequestAmount decimal.Decimal `json:"requestAmount"`
	FundsSummary
	Sufficiency Sufficiency `json:"sufficiency"`
}
