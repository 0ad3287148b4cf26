package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	"github.com/SscSPs/school_workflow_app/internal/models"
	"github.com/SscSPs/school_workflow_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxRevenueRepository struct {
	BaseRepository
}

func newPgxRevenueRepository(pool *pgxpool.Pool) portsrepo.RevenueRepositoryFacade {
	return &PgxRevenueRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.RevenueRepositoryFacade = (*PgxRevenueRepository)(nil)

func (r *PgxRevenueRepository) FindRevenue(ctx context.Context, period domain.Period) (*domain.PeriodRevenue, error) {
	query := `
		SELECT academic_session, term, amount, recorded_by, recorded_at
		FROM period_revenues
		WHERE academic_session = $1 AND term = $2`
	var m models.PeriodRevenue
	err := r.Pool.QueryRow(ctx, query, period.AcademicSession, string(period.Term)).Scan(
		&m.AcademicSession,
		&m.Term,
		&m.Amount,
		&m.RecordedBy,
		&m.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find revenue for %s: %w", period, err)
	}
	rev := mapping.ToDomainPeriodRevenue(m)
	return &rev, nil
}

func (r *PgxRevenueRepository) SaveRevenue(ctx context.Context, revenue domain.PeriodRevenue) error {
	m := mapping.ToModelPeriodRevenue(revenue)
	query := `
		INSERT INTO period_revenues (academic_session, term, amount, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (academic_session, term) DO UPDATE SET
			amount = EXCLUDED.amount,
			recorded_by = EXCLUDED.recorded_by,
			recorded_at = EXCLUDED.recorded_at`
	_, err := r.Pool.Exec(ctx, query, m.AcademicSession, m.Term, m.Amount, m.RecordedBy, m.RecordedAt)
	if err != nil {
		return mapWriteError(err, "revenue for "+revenue.Period.String())
	}
	return nil
}
