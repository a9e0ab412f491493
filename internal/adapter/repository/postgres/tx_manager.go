package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/reconledger/internal/usecase"
)

// txBeginner is the slice of *pgxpool.Pool the manager needs; pgxmock
// satisfies it in tests.
type txBeginner interface {
	BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error)
}

// TxManager opens the unit of work a reconciliation run, a ledger posting or
// a snapshot persists in. Isolation is repeatable read so one run sees a
// single consistent ledger; a concurrent writer surfaces as a serialization
// failure for Retrier.
type TxManager struct {
	pool    txBeginner
	options pgx.TxOptions
}

var _ usecase.TransactionManager = (*TxManager)(nil)

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool txBeginner) *TxManager {
	return &TxManager{pool: pool, options: pgx.TxOptions{IsoLevel: pgx.RepeatableRead}}
}

// Begin opens a transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, m.options)
	if err != nil {
		return nil, fmt.Errorf("begin %s transaction: %w", m.options.IsoLevel, err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is the usecase.Transaction handed to repositories. Repositories unwrap
// it with PgxTx to bind generated queries to the same connection.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback aborts the transaction. It is safe to defer after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
