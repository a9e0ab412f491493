package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/postgres/generated"
	"github.com/iho/reconledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// ResolutionRepository implements usecase.ResolutionRepository.
type ResolutionRepository struct {
	queries *generated.Queries
}

// NewResolutionRepository creates a new ResolutionRepository.
func NewResolutionRepository(db generated.DBTX) *ResolutionRepository {
	return &ResolutionRepository{
		queries: generated.New(db),
	}
}

// Create records a decision on a tentative match. A second decision for the
// same match fails with domain.ErrMatchAlreadyResolved.
func (r *ResolutionRepository) Create(ctx context.Context, tx usecase.Transaction, res *domain.MatchResolution) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	err := queries.CreateResolution(ctx, generated.CreateResolutionParams{
		MatchID:             res.MatchID,
		ReportID:            res.ReportID,
		Action:              string(res.Action),
		LedgerTransactionID: res.LedgerTransactionID,
		CreatedAt:           timeToPgTimestamptz(res.CreatedAt),
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return domain.ErrMatchAlreadyResolved
	}

	return err
}

// GetByMatchID returns the decision for a match, or nil when none exists.
func (r *ResolutionRepository) GetByMatchID(ctx context.Context, matchID string) (*domain.MatchResolution, error) {
	row, err := r.queries.GetResolutionByMatchID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return rowToResolution(row), nil
}

// ListByReport lists the decisions taken on a report's matches.
func (r *ResolutionRepository) ListByReport(ctx context.Context, reportID string) ([]*domain.MatchResolution, error) {
	rows, err := r.queries.ListResolutionsByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	resolutions := make([]*domain.MatchResolution, 0, len(rows))
	for _, row := range rows {
		resolutions = append(resolutions, rowToResolution(row))
	}

	return resolutions, nil
}

func rowToResolution(row generated.MatchResolution) *domain.MatchResolution {
	return &domain.MatchResolution{
		MatchID:             row.MatchID,
		ReportID:            row.ReportID,
		Action:              domain.ResolutionAction(row.Action),
		LedgerTransactionID: row.LedgerTransactionID,
		CreatedAt:           row.CreatedAt.Time,
	}
}
