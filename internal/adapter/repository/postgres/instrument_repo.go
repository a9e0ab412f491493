package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/postgres/generated"
	"github.com/iho/reconledger/internal/usecase"
)

// InstrumentRepository implements usecase.InstrumentRepository.
type InstrumentRepository struct {
	queries *generated.Queries
}

// NewInstrumentRepository creates a new InstrumentRepository.
func NewInstrumentRepository(db generated.DBTX) *InstrumentRepository {
	return &InstrumentRepository{
		queries: generated.New(db),
	}
}

// Create creates a new instrument within a transaction.
func (r *InstrumentRepository) Create(ctx context.Context, tx usecase.Transaction, instrument *domain.Instrument) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	return queries.CreateInstrument(ctx, generated.CreateInstrumentParams{
		ID:             instrument.ID,
		OwnerID:        instrument.OwnerID,
		Name:           instrument.Name,
		Kind:           string(instrument.Kind),
		Currency:       instrument.Currency,
		OpeningBalance: decimalToNumeric(instrument.OpeningBalance),
		BaselineDate:   timeToPgDate(instrument.BaselineDate),
		CreatedAt:      timeToPgTimestamptz(instrument.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(instrument.UpdatedAt),
	})
}

// GetByID retrieves an instrument by ID.
func (r *InstrumentRepository) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	row, err := r.queries.GetInstrumentByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstrumentNotFound
		}

		return nil, err
	}

	return rowToInstrument(row), nil
}

// GetByIDForUpdate retrieves an instrument by ID with a FOR UPDATE lock.
func (r *InstrumentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Instrument, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetInstrumentByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstrumentNotFound
		}

		return nil, err
	}

	return rowToInstrument(row), nil
}

// ListByOwner lists the instruments of an owner.
func (r *InstrumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Instrument, error) {
	rows, err := r.queries.ListInstrumentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	instruments := make([]*domain.Instrument, 0, len(rows))
	for _, row := range rows {
		instruments = append(instruments, rowToInstrument(row))
	}

	return instruments, nil
}

func rowToInstrument(row generated.Instrument) *domain.Instrument {
	return &domain.Instrument{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Name:           row.Name,
		Kind:           domain.InstrumentKind(row.Kind),
		Currency:       row.Currency,
		OpeningBalance: numericToDecimal(row.OpeningBalance),
		BaselineDate:   pgDateToTime(row.BaselineDate),
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}
