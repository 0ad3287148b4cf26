package dto

import (
	"github.com/shopspring/decimal"
)

// RecordRevenueRequest records the revenue of a period.
type RecordRevenueRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"40000.00"`
}
