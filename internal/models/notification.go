package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification is the row shape of the notifications table.
type Notification struct {
	NotificationID string     `db:"notification_id"`
	RecipientID    string     `db:"recipient_id"`
	Template       string     `db:"template"`
	Message        string     `db:"message"`
	Kind           string     `db:"kind"`
	EntityID       string     `db:"entity_id"`
	FromStatus     string     `db:"from_status"`
	ToStatus       string     `db:"to_status"`
	CreatedAt      time.Time  `db:"created_at"`
	ReadAt         *time.Time `db:"read_at"`
}

// PeriodRevenue is the row shape of the period_revenues table.
type PeriodRevenue struct {
	AcademicSession string          `db:"academic_session"`
	Term            string          `db:"term"`
	Amount          decimal.Decimal `db:"amount"`
	RecordedBy      string          `db:"recorded_by"`
	RecordedAt      time.Time       `db:"recorded_at"`
}
