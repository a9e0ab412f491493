package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
	"github.com/iho/reconledger/internal/reconciliation"
)

// PatrimonyUseCase appends and reads net worth snapshots.
type PatrimonyUseCase struct {
	txManager      TransactionManager
	instrumentRepo InstrumentRepository
	ledgerRepo     LedgerTransactionRepository
	snapshotRepo   SnapshotRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewPatrimonyUseCase creates a new PatrimonyUseCase.
func NewPatrimonyUseCase(
	txManager TransactionManager,
	instrumentRepo InstrumentRepository,
	ledgerRepo LedgerTransactionRepository,
	snapshotRepo SnapshotRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *PatrimonyUseCase {
	return &PatrimonyUseCase{
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

// Recalculate appends a snapshot computed from the current ledger.
func (uc *PatrimonyUseCase) Recalculate(ctx context.Context, ownerID string, trigger domain.SnapshotTrigger) (*domain.PatrimonySnapshot, error) {
	if trigger != domain.TriggerManual && trigger != domain.TriggerPeriodic {
		return nil, fmt.Errorf("%w: trigger %q cannot be requested", domain.ErrInvalidTrigger, trigger)
	}
	return uc.withSnapshot(ctx, ownerID, trigger)
}

// Baseline appends a snapshot of the owner's opening balances.
func (uc *PatrimonyUseCase) Baseline(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error) {
	return uc.withSnapshot(ctx, ownerID, domain.TriggerBaseline)
}

func (uc *PatrimonyUseCase) withSnapshot(ctx context.Context, ownerID string, trigger domain.SnapshotTrigger) (*domain.PatrimonySnapshot, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	var snapshot *domain.PatrimonySnapshot
	if trigger == domain.TriggerBaseline {
		snapshot, err = uc.baselineSnapshot(txCtx, tx, ownerID, now)
	} else {
		snapshot, err = appendSnapshot(txCtx, tx, uc.instrumentRepo, uc.ledgerRepo, uc.snapshotRepo, uc.idGen, ownerID, trigger, nil, now)
	}
	if err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   snapshot.ID,
		AggregateType: domain.AggregateTypeSnapshot,
		EventType:     domain.EventTypeSnapshotAppended,
		Payload: map[string]any{
			"snapshot_id": snapshot.ID,
			"owner_id":    ownerID,
			"trigger":     string(trigger),
			"net":         snapshot.Net.String(),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ObserveSnapshot(ownerID, string(trigger), snapshot.Net)
	}
	uc.logger.Info().
		Str("owner_id", ownerID).
		Str("trigger", string(trigger)).
		Str("net", snapshot.Net.String()).
		Msg("patrimony snapshot appended")

	return snapshot, nil
}

func (uc *PatrimonyUseCase) baselineSnapshot(ctx context.Context, tx Transaction, ownerID string, now time.Time) (*domain.PatrimonySnapshot, error) {
	instruments, err := uc.instrumentRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(instruments) == 0 {
		return nil, domain.ErrInstrumentNotFound
	}

	assets, liabilities, net := reconciliation.NetWorth(instruments, nil)
	snapshot := &domain.PatrimonySnapshot{
		ID:          uc.idGen.Generate(),
		OwnerID:     ownerID,
		Date:        domain.DateOnly(now),
		Assets:      assets,
		Liabilities: liabilities,
		Net:         net,
		Trigger:     domain.TriggerBaseline,
		CreatedAt:   now,
	}
	if err := uc.snapshotRepo.Create(ctx, tx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Latest returns the most recent snapshot of the owner.
func (uc *PatrimonyUseCase) Latest(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error) {
	return uc.snapshotRepo.Latest(ctx, ownerID)
}

// ListSnapshots returns the owner's snapshots, newest first.
func (uc *PatrimonyUseCase) ListSnapshots(ctx context.Context, ownerID string, limit, offset int) ([]*domain.PatrimonySnapshot, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.snapshotRepo.List(ctx, ownerID, limit, offset)
}

// appendSnapshot computes net worth from counted, non-historical amounts as
// visible inside tx and appends it.
func appendSnapshot(
	ctx context.Context,
	tx Transaction,
	instrumentRepo InstrumentRepository,
	ledgerRepo LedgerTransactionRepository,
	snapshotRepo SnapshotRepository,
	idGen IDGenerator,
	ownerID string,
	trigger domain.SnapshotTrigger,
	reportID *string,
	now time.Time,
) (*domain.PatrimonySnapshot, error) {
	instruments, err := instrumentRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sums, err := ledgerRepo.SumContributing(ctx, tx, ownerID, nil)
	if err != nil {
		return nil, err
	}

	assets, liabilities, net := reconciliation.NetWorth(instruments, sums)
	snapshot := &domain.PatrimonySnapshot{
		ID:          idGen.Generate(),
		OwnerID:     ownerID,
		Date:        domain.DateOnly(now),
		Assets:      assets,
		Liabilities: liabilities,
		Net:         net,
		Trigger:     trigger,
		ReportID:    reportID,
		CreatedAt:   now,
	}
	if err := snapshotRepo.Create(ctx, tx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
