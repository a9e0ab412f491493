package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
	"github.com/iho/reconledger/internal/reconciliation"
)

// LedgerUseCase records real-time transactions and checks ledger invariants.
type LedgerUseCase struct {
	txManager      TransactionManager
	instrumentRepo InstrumentRepository
	ledgerRepo     LedgerTransactionRepository
	snapshotRepo   SnapshotRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	instrumentRepo InstrumentRepository,
	ledgerRepo LedgerTransactionRepository,
	snapshotRepo SnapshotRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:      txManager,
		instrumentRepo: instrumentRepo,
		ledgerRepo:     ledgerRepo,
		snapshotRepo:   snapshotRepo,
		outboxRepo:     outboxRepo,
		idGen:          idGen,
		metrics:        metrics,
		logger:         logger,
	}
}

// IngestInput is a transaction observed by a real-time source.
type IngestInput struct {
	OwnerID         string
	InstrumentID    string
	Source          string
	SourceMessageID string
	Label           string
	Amount          decimal.Decimal
	Currency        string
	Date            time.Time
	Reference       *string
}

// Ingest records a pending transaction and, unless it predates the
// instrument baseline, appends a manual snapshot in the same transaction.
// Ingesting the same source message twice returns the transaction recorded
// the first time.
func (uc *LedgerUseCase) Ingest(ctx context.Context, input IngestInput) (*domain.LedgerTransaction, error) {
	if err := domain.ValidateLabel(input.Label); err != nil {
		return nil, err
	}
	if err := domain.ValidateSignedAmount(input.Amount); err != nil {
		return nil, err
	}

	instrument, err := uc.instrumentRepo.GetByID(ctx, input.InstrumentID)
	if err != nil {
		return nil, err
	}
	if instrument.OwnerID != input.OwnerID {
		return nil, domain.ErrInstrumentNotFound
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = instrument.Currency
	}
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	if input.SourceMessageID != "" {
		existing, err := uc.ledgerRepo.GetBySourceMessage(ctx, input.InstrumentID, input.SourceMessageID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	source := input.Source
	if source == "" {
		source = domain.SourceNotification
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	label := strings.TrimSpace(input.Label)
	t := &domain.LedgerTransaction{
		ID:              uc.idGen.Generate(),
		OwnerID:         input.OwnerID,
		InstrumentID:    input.InstrumentID,
		Source:          source,
		SourceMessageID: input.SourceMessageID,
		Label:           label,
		NormalizedLabel: reconciliation.NormalizeLabel(label),
		Amount:          input.Amount,
		Currency:        currency,
		Date:            domain.DateOnly(input.Date),
		Reference:       input.Reference,
		State:           domain.StatePending,
		IsHistorical:    instrument.IsHistorical(input.Date),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.ledgerRepo.Create(txCtx, tx, t); err != nil {
		return nil, err
	}
	if err := uc.outboxRepo.Create(txCtx, tx, transactionCreatedEvent(uc.idGen.Generate(), t, now)); err != nil {
		return nil, err
	}
	// A counted transaction moves net worth; the snapshot commits with it.
	if t.Contributes() {
		if _, err := appendSnapshot(txCtx, tx, uc.instrumentRepo, uc.ledgerRepo, uc.snapshotRepo, uc.idGen, t.OwnerID, domain.TriggerManual, nil, now); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LedgerTransactionsCreated.WithLabelValues(source).Inc()
	}
	return t, nil
}

// ConfirmElapsed confirms pending transactions older than olderThan. An empty
// ownerID covers every owner.
func (uc *LedgerUseCase) ConfirmElapsed(ctx context.Context, ownerID string, olderThan time.Duration) (int64, error) {
	now := time.Now().UTC()
	n, err := uc.ledgerRepo.ConfirmPendingBefore(ctx, ownerID, now.Add(-olderThan), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.logger.Info().Str("owner_id", ownerID).Int64("confirmed", n).Msg("pending transactions confirmed")
	}
	return n, nil
}

// RecordCategory stores the category assigned to a transaction as a
// ledger_transaction.categorized outbox event. A redelivered task appends
// another event; consumers keep the latest per transaction.
func (uc *LedgerUseCase) RecordCategory(ctx context.Context, transactionID, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("%w: empty category", domain.ErrInvalidLabel)
	}
	t, err := uc.ledgerRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	if err := uc.outboxRepo.Create(txCtx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   t.ID,
		AggregateType: domain.AggregateTypeLedgerTransaction,
		EventType:     domain.EventTypeTransactionCategorized,
		Payload: map[string]any{
			"transaction_id": t.ID,
			"owner_id":       t.OwnerID,
			"category":       category,
		},
		CreatedAt: now,
	}); err != nil {
		return err
	}
	return tx.Commit(txCtx)
}

// Get returns a ledger transaction.
func (uc *LedgerUseCase) Get(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	return uc.ledgerRepo.GetByID(ctx, id)
}

// List returns ledger transactions matching filter.
func (uc *LedgerUseCase) List(ctx context.Context, filter LedgerFilter) ([]*domain.LedgerTransaction, error) {
	if filter.OwnerID == "" && filter.InstrumentID == "" {
		return nil, fmt.Errorf("%w: owner or instrument is required", domain.ErrInvalidScope)
	}
	filter.Limit, filter.Offset, _ = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.ledgerRepo.List(ctx, filter)
}

// ConsistencyReport is the outcome of CheckConsistency.
type ConsistencyReport struct {
	OwnerID            string
	UnlinkedReconciled int
	SnapshotNet        *decimal.Decimal
	ComputedNet        decimal.Decimal
	Drift              decimal.Decimal
	Consistent         bool
	CheckedAt          time.Time
}

// CheckConsistency verifies that no reconciled transaction lacks its run
// linkage and that the latest snapshot matches a fresh recomputation.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, ownerID string) (*ConsistencyReport, error) {
	unlinked, err := uc.ledgerRepo.CountUnlinkedReconciled(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	instruments, err := uc.instrumentRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sums, err := uc.ledgerRepo.SumContributing(ctx, nil, ownerID, nil)
	if err != nil {
		return nil, err
	}
	_, _, computed := reconciliation.NetWorth(instruments, sums)

	report := &ConsistencyReport{
		OwnerID:            ownerID,
		UnlinkedReconciled: unlinked,
		ComputedNet:        computed,
		CheckedAt:          time.Now().UTC(),
	}

	latest, err := uc.snapshotRepo.Latest(ctx, ownerID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
	case err != nil:
		return nil, err
	default:
		report.SnapshotNet = &latest.Net
		report.Drift = computed.Sub(latest.Net)
	}

	report.Consistent = unlinked == 0 && report.Drift.IsZero()
	if !report.Consistent {
		uc.logger.Warn().
			Str("owner_id", ownerID).
			Int("unlinked_reconciled", unlinked).
			Str("drift", report.Drift.String()).
			Msg("ledger inconsistency detected")
	}
	return report, nil
}
