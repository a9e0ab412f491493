package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
	"github.com/iho/reconledger/internal/reconciliation"
)

// ReconciliationDeps wires the collaborators of ReconciliationUseCase.
// Cache, Extractor and Metrics are optional.
type ReconciliationDeps struct {
	TxManager      TransactionManager
	InstrumentRepo InstrumentRepository
	LedgerRepo     LedgerTransactionRepository
	ReportRepo     ReportRepository
	SnapshotRepo   SnapshotRepository
	ResolutionRepo ResolutionRepository
	OutboxRepo     OutboxRepository
	IDGen          IDGenerator
	Retrier        Retrier
	Locker         RunLocker
	Cache          ReportCache
	Extractor      StatementExtractor
	Engine         *reconciliation.Engine
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
	Clock          func() time.Time
	// LockTTL and CacheTTL default to RunLockTTL and ReportCacheTTL.
	LockTTL  time.Duration
	CacheTTL time.Duration
}

// ReconciliationUseCase runs statement reconciliations and resolves tentative matches.
type ReconciliationUseCase struct {
	txManager      TransactionManager
	instrumentRepo InstrumentRepository
	ledgerRepo     LedgerTransactionRepository
	reportRepo     ReportRepository
	snapshotRepo   SnapshotRepository
	resolutionRepo ResolutionRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	retrier        Retrier
	locker         RunLocker
	cache          ReportCache
	extractor      StatementExtractor
	engine         *reconciliation.Engine
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	now            func() time.Time
	lockTTL        time.Duration
	cacheTTL       time.Duration
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(deps ReconciliationDeps) *ReconciliationUseCase {
	if deps.Engine == nil {
		deps.Engine = reconciliation.NewEngine(reconciliation.DefaultConfig(), nil)
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = RunLockTTL
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = ReportCacheTTL
	}
	return &ReconciliationUseCase{
		txManager:      deps.TxManager,
		instrumentRepo: deps.InstrumentRepo,
		ledgerRepo:     deps.LedgerRepo,
		reportRepo:     deps.ReportRepo,
		snapshotRepo:   deps.SnapshotRepo,
		resolutionRepo: deps.ResolutionRepo,
		outboxRepo:     deps.OutboxRepo,
		idGen:          deps.IDGen,
		retrier:        deps.Retrier,
		locker:         deps.Locker,
		cache:          deps.Cache,
		extractor:      deps.Extractor,
		engine:         deps.Engine,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		now:            deps.Clock,
		lockTTL:        deps.LockTTL,
		cacheTTL:       deps.CacheTTL,
	}
}

// ReconcileResult is a stored report and the bytes it was stored as.
// Replayed is true when the statement had already been reconciled.
type ReconcileResult struct {
	Report   *domain.ReconciliationReport
	Payload  []byte
	Replayed bool
}

// Reconcile reconciles one statement against the ledger of scope. Submitting
// a statement with a known fingerprint returns the stored report untouched.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, scope domain.Scope, input domain.StatementInput) (*ReconcileResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(input.Rows) == 0 {
		return nil, fmt.Errorf("%w: statement has no rows", domain.ErrExtractionFailed)
	}

	fingerprint, err := reconciliation.Fingerprint(input)
	if err != nil {
		return nil, err
	}
	log := uc.logger.With().
		Str("instrument_id", scope.InstrumentID).
		Str("fingerprint", fingerprint).
		Logger()

	if res, err := uc.replay(ctx, scope, fingerprint); res != nil || err != nil {
		return res, err
	}

	token, err := uc.locker.Acquire(ctx, scope.LockKey(), uc.lockTTL)
	if err != nil {
		uc.observeFailure(err)
		return nil, err
	}
	defer func() {
		if err := uc.locker.Release(context.WithoutCancel(ctx), scope.LockKey(), token); err != nil {
			log.Warn().Err(err).Msg("failed to release run lock")
		}
	}()

	// A concurrent run may have committed the same statement while we waited.
	if res, err := uc.replay(ctx, scope, fingerprint); res != nil || err != nil {
		return res, err
	}

	instrument, err := uc.instrumentRepo.GetByID(ctx, scope.InstrumentID)
	if err != nil {
		return nil, err
	}
	if instrument.OwnerID != scope.OwnerID {
		return nil, domain.ErrInstrumentNotFound
	}

	start := time.Now()
	var stored *StoredReport
	err = uc.retrier.Retry(ctx, func() error {
		var runErr error
		stored, runErr = uc.commitRun(ctx, scope, instrument, input, fingerprint)
		return runErr
	})
	if err != nil {
		uc.observeFailure(err)
		log.Error().Err(err).Msg("reconciliation run failed")
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, scope.InstrumentID, fingerprint, stored.Payload, uc.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache report")
		}
	}

	report := stored.Report
	if uc.metrics != nil {
		uc.metrics.ObserveRun(string(report.Status), time.Since(start))
		for _, m := range report.Matches {
			uc.metrics.MatchResults.WithLabelValues(string(m.Disposition), string(m.Confidence)).Inc()
		}
		if report.NetWorth != nil {
			uc.metrics.ObserveSnapshot(scope.OwnerID, string(domain.TriggerReconciliation), *report.NetWorth)
		}
	}
	log.Info().
		Str("report_id", report.ID).
		Str("status", string(report.Status)).
		Int("matched", report.Counts.Matched).
		Int("new", report.Counts.New).
		Int("orphaned", report.Counts.Orphaned).
		Int("discrepant", report.Counts.Discrepant).
		Msg("reconciliation completed")

	return &ReconcileResult{Report: report, Payload: stored.Payload}, nil
}

// ReconcileDocument extracts rows from a statement document and reconciles them.
func (uc *ReconciliationUseCase) ReconcileDocument(ctx context.Context, scope domain.Scope, format string, raw []byte) (*ReconcileResult, error) {
	if uc.extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", domain.ErrExtractionFailed)
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	input, err := uc.extractor.Extract(ctx, format, raw)
	if err != nil {
		uc.observeFailure(domain.ErrExtractionFailed)
		if errors.Is(err, domain.ErrExtractionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	if input.Raw == nil {
		input.Raw = raw
	}
	return uc.Reconcile(ctx, scope, input)
}

func (uc *ReconciliationUseCase) replay(ctx context.Context, scope domain.Scope, fingerprint string) (*ReconcileResult, error) {
	if uc.cache != nil {
		payload, ok, err := uc.cache.Get(ctx, scope.InstrumentID, fingerprint)
		if err != nil {
			uc.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("report cache lookup failed")
		}
		if ok {
			var report domain.ReconciliationReport
			if err := json.Unmarshal(payload, &report); err == nil {
				uc.observeReplay()
				return &ReconcileResult{Report: &report, Payload: payload, Replayed: true}, nil
			}
		}
	}

	stored, err := uc.reportRepo.GetByFingerprint(ctx, scope.InstrumentID, fingerprint)
	if errors.Is(err, domain.ErrReportNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, scope.InstrumentID, fingerprint, stored.Payload, uc.cacheTTL); err != nil {
			uc.logger.Warn().Err(err).Msg("failed to cache report")
		}
	}
	uc.observeReplay()
	return &ReconcileResult{Report: stored.Report, Payload: stored.Payload, Replayed: true}, nil
}

// commitRun performs one attempt of a run inside a single database transaction.
func (uc *ReconciliationUseCase) commitRun(
	ctx context.Context,
	scope domain.Scope,
	instrument *domain.Instrument,
	input domain.StatementInput,
	fingerprint string,
) (*StoredReport, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	from, to := uc.engine.CandidateWindow(scope)
	pool, err := uc.ledgerRepo.ListCandidates(txCtx, tx, scope.InstrumentID, from, to)
	if err != nil {
		return nil, err
	}

	periodStart := domain.DateOnly(scope.PeriodStart)
	before, err := uc.ledgerRepo.SumContributing(txCtx, tx, scope.OwnerID, &periodStart)
	if err != nil {
		return nil, err
	}
	prior := instrument.BalanceFrom(before[instrument.ID])

	now := uc.now()
	out, err := uc.engine.Run(txCtx, reconciliation.RunInput{
		RunID:        uc.idGen.Generate(),
		Scope:        scope,
		Instrument:   instrument,
		Statement:    input,
		Fingerprint:  fingerprint,
		Pool:         pool,
		PriorBalance: &prior,
		Now:          now,
		NewID:        uc.idGen.Generate,
	})
	if err != nil {
		return nil, err
	}
	report := out.Report

	for _, t := range out.Plan.Updated {
		if err := uc.ledgerRepo.Update(txCtx, tx, t); err != nil {
			return nil, err
		}
	}
	for _, t := range out.Plan.Created {
		if err := uc.ledgerRepo.Create(txCtx, tx, t); err != nil {
			return nil, err
		}
		if err := uc.outboxRepo.Create(txCtx, tx, transactionCreatedEvent(uc.idGen.Generate(), t, now)); err != nil {
			return nil, err
		}
	}

	if out.Mutated {
		snapshot, err := uc.appendSnapshot(txCtx, tx, scope.OwnerID, domain.TriggerReconciliation, &report.ID, now)
		if err != nil {
			return nil, err
		}
		report.SnapshotID = &snapshot.ID
		report.NetWorth = &snapshot.Net
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	stored := &StoredReport{Report: report, Payload: payload}
	if err := uc.reportRepo.Create(txCtx, tx, stored); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   report.ID,
		AggregateType: domain.AggregateTypeReport,
		EventType:     domain.EventTypeReconciliationCompleted,
		Payload: map[string]any{
			"report_id":     report.ID,
			"owner_id":      scope.OwnerID,
			"instrument_id": scope.InstrumentID,
			"status":        string(report.Status),
			"matched":       report.Counts.Matched,
			"new":           report.Counts.New,
			"orphaned":      report.Counts.Orphaned,
			"discrepant":    report.Counts.Discrepant,
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
	return stored, nil
}

// appendSnapshot records the owner's net worth as seen inside tx.
func (uc *ReconciliationUseCase) appendSnapshot(
	ctx context.Context,
	tx Transaction,
	ownerID string,
	trigger domain.SnapshotTrigger,
	reportID *string,
	now time.Time,
) (*domain.PatrimonySnapshot, error) {
	return appendSnapshot(ctx, tx, uc.instrumentRepo, uc.ledgerRepo, uc.snapshotRepo, uc.idGen, ownerID, trigger, reportID, now)
}

// GetReport returns a stored report with the resolutions recorded for it.
func (uc *ReconciliationUseCase) GetReport(ctx context.Context, id string) (*StoredReport, []*domain.MatchResolution, error) {
	stored, err := uc.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	resolutions, err := uc.resolutionRepo.ListByReport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return stored, resolutions, nil
}

// ListReports returns the reports of an instrument, newest first.
func (uc *ReconciliationUseCase) ListReports(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.ReconciliationReport, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.reportRepo.ListByInstrument(ctx, instrumentID, limit, offset)
}

// ConfirmMatch accepts a tentative match. Confirming an already confirmed
// match returns the existing resolution.
func (uc *ReconciliationUseCase) ConfirmMatch(ctx context.Context, matchID string) (*domain.MatchResolution, error) {
	return uc.resolve(ctx, matchID, domain.ResolutionConfirmed)
}

// RejectMatch declares the statement row of a tentative match unrelated to
// the proposed ledger transactions. Repeating it returns the existing resolution.
func (uc *ReconciliationUseCase) RejectMatch(ctx context.Context, matchID string) (*domain.MatchResolution, error) {
	return uc.resolve(ctx, matchID, domain.ResolutionRejected)
}

func (uc *ReconciliationUseCase) resolve(ctx context.Context, matchID string, action domain.ResolutionAction) (*domain.MatchResolution, error) {
	if existing, err := uc.existingResolution(ctx, matchID, action); existing != nil || err != nil {
		return existing, err
	}

	stored, err := uc.reportRepo.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	report := stored.Report
	match, ok := report.Match(matchID)
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	if !match.RequiresConfirmation || match.LedgerTransactionID == nil {
		return nil, domain.ErrMatchNotTentative
	}

	var resolution *domain.MatchResolution
	err = uc.retrier.Retry(ctx, func() error {
		var runErr error
		resolution, runErr = uc.commitResolution(ctx, report, match, action)
		return runErr
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MatchResolutions.WithLabelValues(string(action)).Inc()
	}
	uc.logger.Info().
		Str("match_id", matchID).
		Str("report_id", report.ID).
		Str("action", string(action)).
		Msg("match resolved")

	return resolution, nil
}

func (uc *ReconciliationUseCase) existingResolution(ctx context.Context, matchID string, action domain.ResolutionAction) (*domain.MatchResolution, error) {
	existing, err := uc.resolutionRepo.GetByMatchID(ctx, matchID)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.Action != action {
		return nil, domain.ErrMatchAlreadyResolved
	}
	return existing, nil
}

func (uc *ReconciliationUseCase) commitResolution(
	ctx context.Context,
	report *domain.ReconciliationReport,
	match *domain.MatchResult,
	action domain.ResolutionAction,
) (*domain.MatchResolution, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Re-check under the transaction so concurrent resolutions of the same match collapse.
	if existing, err := uc.existingResolution(txCtx, match.ID, action); existing != nil || err != nil {
		return existing, err
	}

	ids := append([]string{*match.LedgerTransactionID}, match.AlternativeIDs...)
	txs, err := uc.ledgerRepo.GetByIDsForUpdate(txCtx, tx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.LedgerTransaction, len(txs))
	for _, t := range txs {
		byID[t.ID] = t
	}
	primary, ok := byID[*match.LedgerTransactionID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	var alternatives []*domain.LedgerTransaction
	for _, id := range match.AlternativeIDs {
		if t, ok := byID[id]; ok {
			alternatives = append(alternatives, t)
		}
	}

	now := uc.now()
	resolution := &domain.MatchResolution{
		MatchID:             match.ID,
		ReportID:            report.ID,
		Action:              action,
		LedgerTransactionID: primary.ID,
		CreatedAt:           now,
	}

	mutated := false
	switch action {
	case domain.ResolutionConfirmed:
		if err := uc.engine.Confirm(report.ID, match, primary, alternatives, now); err != nil {
			return nil, err
		}
		mutated = !primary.IsHistorical
	case domain.ResolutionRejected:
		instrument, err := uc.instrumentRepo.GetByID(txCtx, report.Scope.InstrumentID)
		if err != nil {
			return nil, err
		}
		created, err := uc.engine.Reject(report, match, instrument, append([]*domain.LedgerTransaction{primary}, alternatives...), uc.idGen.Generate(), now)
		if err != nil {
			return nil, err
		}
		if err := uc.ledgerRepo.Create(txCtx, tx, created); err != nil {
			return nil, err
		}
		if err := uc.outboxRepo.Create(txCtx, tx, transactionCreatedEvent(uc.idGen.Generate(), created, now)); err != nil {
			return nil, err
		}
		resolution.LedgerTransactionID = created.ID
		mutated = !created.IsHistorical
	}

	for _, t := range append([]*domain.LedgerTransaction{primary}, alternatives...) {
		if err := uc.ledgerRepo.Update(txCtx, tx, t); err != nil {
			return nil, err
		}
	}

	if mutated {
		if _, err := uc.appendSnapshot(txCtx, tx, report.Scope.OwnerID, domain.TriggerManual, &report.ID, now); err != nil {
			return nil, err
		}
	}

	if err := uc.resolutionRepo.Create(txCtx, tx, resolution); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   report.ID,
		AggregateType: domain.AggregateTypeReport,
		EventType:     domain.EventTypeMatchResolved,
		Payload: map[string]any{
			"match_id":       match.ID,
			"report_id":      report.ID,
			"action":         string(action),
			"transaction_id": resolution.LedgerTransactionID,
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
	return resolution, nil
}

func (uc *ReconciliationUseCase) observeReplay() {
	if uc.metrics != nil {
		uc.metrics.ReconciliationReplays.Inc()
	}
}

func (uc *ReconciliationUseCase) observeFailure(err error) {
	if uc.metrics == nil {
		return
	}
	reason := "internal"
	switch {
	case errors.Is(err, domain.ErrConcurrentRunConflict):
		reason = "conflict"
	case errors.Is(err, domain.ErrExtractionFailed):
		reason = "extraction"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		reason = "currency"
	}
	uc.metrics.ReconciliationFailures.WithLabelValues(reason).Inc()
}

func transactionCreatedEvent(id string, t *domain.LedgerTransaction, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   t.ID,
		AggregateType: domain.AggregateTypeLedgerTransaction,
		EventType:     domain.EventTypeLedgerTransactionCreated,
		Payload: map[string]any{
			"transaction_id": t.ID,
			"owner_id":       t.OwnerID,
			"instrument_id":  t.InstrumentID,
			"label":          t.Label,
			"amount":         t.Amount.String(),
			"currency":       t.Currency,
		},
		CreatedAt: now,
		Published: false,
	}
}
