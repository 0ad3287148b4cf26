package models

import "time"

// AuditFields mirrors the audit columns shared by the workflow tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
	Version       int64     `db:"version"`
}
