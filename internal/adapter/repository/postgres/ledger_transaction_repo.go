package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/postgres/generated"
	"github.com/iho/reconledger/internal/usecase"
)

// LedgerTransactionRepository implements usecase.LedgerTransactionRepository.
type LedgerTransactionRepository struct {
	queries *generated.Queries
}

// NewLedgerTransactionRepository creates a new LedgerTransactionRepository.
func NewLedgerTransactionRepository(db generated.DBTX) *LedgerTransactionRepository {
	return &LedgerTransactionRepository{
		queries: generated.New(db),
	}
}

// Create inserts a ledger transaction within a transaction.
func (r *LedgerTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.LedgerTransaction) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	return queries.CreateLedgerTransaction(ctx, generated.CreateLedgerTransactionParams{
		ID:               t.ID,
		OwnerID:          t.OwnerID,
		InstrumentID:     t.InstrumentID,
		Source:           t.Source,
		SourceMessageID:  stringToText(t.SourceMessageID),
		Label:            t.Label,
		NormalizedLabel:  t.NormalizedLabel,
		Amount:           decimalToNumeric(t.Amount),
		Currency:         t.Currency,
		Date:             timeToPgDate(t.Date),
		Reference:        stringPtrToText(t.Reference),
		State:            string(t.State),
		IsHistorical:     t.IsHistorical,
		ReconciliationID: stringPtrToText(t.ReconciliationID),
		OrphanRunID:      stringPtrToText(t.OrphanRunID),
		PendingMatchID:   stringPtrToText(t.PendingMatchID),
		PendingCycles:    int32(t.PendingCycles),
		ReviewFlag:       t.ReviewFlag,
		OriginalAmount:   decimalPtrToNumeric(t.OriginalAmount),
		AdjustedAmount:   decimalPtrToNumeric(t.AdjustedAmount),
		AdjustmentReason: t.AdjustmentReason,
		CreatedAt:        timeToPgTimestamptz(t.CreatedAt),
		UpdatedAt:        timeToPgTimestamptz(t.UpdatedAt),
	})
}

// Update writes the mutable lifecycle fields of a ledger transaction.
func (r *LedgerTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.LedgerTransaction) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdateLedgerTransaction(ctx, generated.UpdateLedgerTransactionParams{
		Amount:           decimalToNumeric(t.Amount),
		State:            string(t.State),
		ReconciliationID: stringPtrToText(t.ReconciliationID),
		OrphanRunID:      stringPtrToText(t.OrphanRunID),
		PendingMatchID:   stringPtrToText(t.PendingMatchID),
		PendingCycles:    int32(t.PendingCycles),
		ReviewFlag:       t.ReviewFlag,
		OriginalAmount:   decimalPtrToNumeric(t.OriginalAmount),
		AdjustedAmount:   decimalPtrToNumeric(t.AdjustedAmount),
		AdjustmentReason: t.AdjustmentReason,
		UpdatedAt:        timeToPgTimestamptz(t.UpdatedAt),
		ID:               t.ID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// GetByID retrieves a ledger transaction by ID.
func (r *LedgerTransactionRepository) GetByID(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	row, err := r.queries.GetLedgerTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToLedgerTransaction(row), nil
}

// GetByIDsForUpdate retrieves ledger transactions by IDs with FOR UPDATE locks.
func (r *LedgerTransactionRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.LedgerTransaction, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	rows, err := queries.GetLedgerTransactionsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	return rowsToLedgerTransactions(rows), nil
}

// GetBySourceMessage retrieves the transaction recorded for a source message.
func (r *LedgerTransactionRepository) GetBySourceMessage(ctx context.Context, instrumentID, messageID string) (*domain.LedgerTransaction, error) {
	row, err := r.queries.GetLedgerTransactionBySourceMessage(ctx, generated.GetLedgerTransactionBySourceMessageParams{
		InstrumentID:    instrumentID,
		SourceMessageID: stringToText(messageID),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToLedgerTransaction(row), nil
}

// ListCandidates locks and returns the non-cancelled transactions of an
// instrument dated within [from, to].
func (r *LedgerTransactionRepository) ListCandidates(ctx context.Context, tx usecase.Transaction, instrumentID string, from, to time.Time) ([]*domain.LedgerTransaction, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	rows, err := queries.ListCandidateTransactions(ctx, generated.ListCandidateTransactionsParams{
		InstrumentID: instrumentID,
		FromDate:     timeToPgDate(from),
		ToDate:       timeToPgDate(to),
	})
	if err != nil {
		return nil, err
	}

	return rowsToLedgerTransactions(rows), nil
}

// List lists ledger transactions matching filter.
func (r *LedgerTransactionRepository) List(ctx context.Context, filter usecase.LedgerFilter) ([]*domain.LedgerTransaction, error) {
	rows, err := r.queries.ListLedgerTransactions(ctx, generated.ListLedgerTransactionsParams{
		OwnerID:      filter.OwnerID,
		InstrumentID: filter.InstrumentID,
		State:        string(filter.State),
		FromDate:     timePtrToPgDate(filter.From),
		ToDate:       timePtrToPgDate(filter.To),
		PageLimit:    int32(filter.Limit),
		PageOffset:   int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToLedgerTransactions(rows), nil
}

// SumContributing sums counted, non-historical amounts per instrument of an
// owner, optionally only those dated before a day. A nil tx reads from the pool.
func (r *LedgerTransactionRepository) SumContributing(ctx context.Context, tx usecase.Transaction, ownerID string, before *time.Time) (map[string]decimal.Decimal, error) {
	queries := r.queries
	if tx != nil {
		queries = generated.New(tx.(*Tx).PgxTx())
	}

	rows, err := queries.SumContributingByInstrument(ctx, generated.SumContributingByInstrumentParams{
		OwnerID: ownerID,
		Before:  timePtrToPgDate(before),
	})
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.InstrumentID] = numericToDecimal(row.Total)
	}

	return sums, nil
}

// ConfirmPendingBefore confirms pending transactions created before a time.
func (r *LedgerTransactionRepository) ConfirmPendingBefore(ctx context.Context, ownerID string, before, now time.Time) (int64, error) {
	return r.queries.ConfirmPendingBefore(ctx, generated.ConfirmPendingBeforeParams{
		UpdatedAt:     timeToPgTimestamptz(now),
		CreatedBefore: timeToPgTimestamptz(before),
		OwnerID:       ownerID,
	})
}

// CountUnlinkedReconciled counts reconciled transactions without a run reference.
func (r *LedgerTransactionRepository) CountUnlinkedReconciled(ctx context.Context, ownerID string) (int, error) {
	n, err := r.queries.CountUnlinkedReconciled(ctx, ownerID)
	return int(n), err
}

func rowsToLedgerTransactions(rows []generated.LedgerTransaction) []*domain.LedgerTransaction {
	txs := make([]*domain.LedgerTransaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToLedgerTransaction(row))
	}
	return txs
}

func rowToLedgerTransaction(row generated.LedgerTransaction) *domain.LedgerTransaction {
	return &domain.LedgerTransaction{
		ID:               row.ID,
		OwnerID:          row.OwnerID,
		InstrumentID:     row.InstrumentID,
		Source:           row.Source,
		SourceMessageID:  row.SourceMessageID.String,
		Label:            row.Label,
		NormalizedLabel:  row.NormalizedLabel,
		Amount:           numericToDecimal(row.Amount),
		Currency:         row.Currency,
		Date:             pgDateToTime(row.Date),
		Reference:        textToStringPtr(row.Reference),
		State:            domain.TransactionState(row.State),
		IsHistorical:     row.IsHistorical,
		ReconciliationID: textToStringPtr(row.ReconciliationID),
		OrphanRunID:      textToStringPtr(row.OrphanRunID),
		PendingMatchID:   textToStringPtr(row.PendingMatchID),
		PendingCycles:    int(row.PendingCycles),
		ReviewFlag:       row.ReviewFlag,
		OriginalAmount:   numericToDecimalPtr(row.OriginalAmount),
		AdjustedAmount:   numericToDecimalPtr(row.AdjustedAmount),
		AdjustmentReason: row.AdjustmentReason,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}
