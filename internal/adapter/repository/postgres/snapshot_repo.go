package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/postgres/generated"
	"github.com/iho/reconledger/internal/usecase"
)

// SnapshotRepository implements usecase.SnapshotRepository.
type SnapshotRepository struct {
	queries *generated.Queries
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db generated.DBTX) *SnapshotRepository {
	return &SnapshotRepository{
		queries: generated.New(db),
	}
}

// Create appends a snapshot within a transaction.
func (r *SnapshotRepository) Create(ctx context.Context, tx usecase.Transaction, s *domain.PatrimonySnapshot) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	return queries.CreateSnapshot(ctx, generated.CreateSnapshotParams{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Date:        timeToPgDate(s.Date),
		Assets:      decimalToNumeric(s.Assets),
		Liabilities: decimalToNumeric(s.Liabilities),
		Net:         decimalToNumeric(s.Net),
		Trigger:     string(s.Trigger),
		ReportID:    stringPtrToText(s.ReportID),
		CreatedAt:   timeToPgTimestamptz(s.CreatedAt),
	})
}

// Latest returns the owner's most recent snapshot.
func (r *SnapshotRepository) Latest(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error) {
	row, err := r.queries.GetLatestSnapshot(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}

		return nil, err
	}

	return rowToSnapshot(row), nil
}

// List lists the owner's snapshots, newest first.
func (r *SnapshotRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.PatrimonySnapshot, error) {
	rows, err := r.queries.ListSnapshots(ctx, generated.ListSnapshotsParams{
		OwnerID:    ownerID,
		PageLimit:  int32(limit),
		PageOffset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	snapshots := make([]*domain.PatrimonySnapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, rowToSnapshot(row))
	}

	return snapshots, nil
}

func rowToSnapshot(row generated.PatrimonySnapshot) *domain.PatrimonySnapshot {
	return &domain.PatrimonySnapshot{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Date:        pgDateToTime(row.Date),
		Assets:      numericToDecimal(row.Assets),
		Liabilities: numericToDecimal(row.Liabilities),
		Net:         numericToDecimal(row.Net),
		Trigger:     domain.SnapshotTrigger(row.Trigger),
		ReportID:    textToStringPtr(row.ReportID),
		CreatedAt:   row.CreatedAt.Time,
	}
}
