package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
	"github.com/iho/reconledger/internal/usecase/mocks"
)

type ledgerFixture struct {
	ledger    *mocks.MockLedgerTransactionRepository
	snapshots *mocks.MockSnapshotRepository
	outbox    *mocks.MockOutboxRepository
	uc        *usecase.LedgerUseCase
}

func newLedgerFixture(txs ...*domain.LedgerTransaction) *ledgerFixture {
	f := &ledgerFixture{
		ledger:    mocks.NewMockLedgerTransactionRepository(txs...),
		snapshots: mocks.NewMockSnapshotRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
	}
	f.uc = usecase.NewLedgerUseCase(
		mocks.NewMockTransactionManager(),
		mocks.NewMockInstrumentRepository(creditCard()),
		f.ledger,
		f.snapshots,
		f.outbox,
		mocks.NewMockIDGenerator(),
		nil,
		zerolog.Nop(),
	)
	return f
}

func TestLedgerUseCase_Ingest(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.IngestInput
		expectedErr error
	}{
		{
			name: "records pending transaction",
			input: usecase.IngestInput{
				OwnerID:         "owner-1",
				InstrumentID:    "card-1",
				SourceMessageID: "msg-1",
				Label:           "Compra COMPASS RUTA 32",
				Amount:          decimal.NewFromInt(-150),
				Date:            day(10, 3),
			},
		},
		{
			name: "empty label",
			input: usecase.IngestInput{
				OwnerID:      "owner-1",
				InstrumentID: "card-1",
				Label:        "  ",
				Amount:       decimal.NewFromInt(-150),
				Date:         day(10, 3),
			},
			expectedErr: domain.ErrInvalidLabel,
		},
		{
			name: "zero amount",
			input: usecase.IngestInput{
				OwnerID:      "owner-1",
				InstrumentID: "card-1",
				Label:        "COMPASS",
				Date:         day(10, 3),
			},
			expectedErr: domain.ErrZeroAmount,
		},
		{
			name: "instrument of another owner",
			input: usecase.IngestInput{
				OwnerID:      "owner-2",
				InstrumentID: "card-1",
				Label:        "COMPASS",
				Amount:       decimal.NewFromInt(-150),
				Date:         day(10, 3),
			},
			expectedErr: domain.ErrInstrumentNotFound,
		},
		{
			name: "unknown currency",
			input: usecase.IngestInput{
				OwnerID:      "owner-1",
				InstrumentID: "card-1",
				Label:        "COMPASS",
				Amount:       decimal.NewFromInt(-150),
				Currency:     "XXX",
				Date:         day(10, 3),
			},
			expectedErr: domain.ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()

			tx, err := f.uc.Ingest(context.Background(), tt.input)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
				if len(f.ledger.All()) != 0 {
					t.Errorf("nothing should be recorded on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tx.State != domain.StatePending {
				t.Errorf("expected pending, got %s", tx.State)
			}
			if tx.Currency != "CLP" {
				t.Errorf("expected instrument currency, got %s", tx.Currency)
			}
			if tx.NormalizedLabel != "COMPRA COMPASS RUTA 32" {
				t.Errorf("unexpected normalized label %q", tx.NormalizedLabel)
			}
			if tx.Source != domain.SourceNotification {
				t.Errorf("expected default source, got %s", tx.Source)
			}
			if n := len(f.outbox.EventsOfType(domain.EventTypeLedgerTransactionCreated)); n != 1 {
				t.Errorf("expected one created event, got %d", n)
			}
		})
	}
}

func TestLedgerUseCase_IngestIsIdempotentPerSourceMessage(t *testing.T) {
	f := newLedgerFixture()
	input := usecase.IngestInput{
		OwnerID:         "owner-1",
		InstrumentID:    "card-1",
		SourceMessageID: "msg-1",
		Label:           "COMPASS",
		Amount:          decimal.NewFromInt(-150),
		Date:            day(10, 3),
	}

	first, err := f.uc.Ingest(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.uc.Ingest(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the same transaction, got %s and %s", first.ID, second.ID)
	}
	if n := len(f.ledger.All()); n != 1 {
		t.Errorf("expected one stored transaction, got %d", n)
	}
}

func TestLedgerUseCase_IngestKeepsSnapshotFresh(t *testing.T) {
	f := newLedgerFixture(notification("tx-1", "TIENDA", "-50", day(10, 1)))
	ctx := context.Background()

	if _, err := f.uc.Ingest(ctx, usecase.IngestInput{
		OwnerID:      "owner-1",
		InstrumentID: "card-1",
		Label:        "COMPASS RUTA 32",
		Amount:       decimal.NewFromInt(-150),
		Date:         day(10, 3),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := f.snapshots.Count(); n != 1 {
		t.Fatalf("expected one snapshot after ingestion, got %d", n)
	}
	latest, err := f.snapshots.Latest(ctx, "owner-1")
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if latest.Trigger != domain.TriggerManual {
		t.Errorf("expected manual trigger, got %s", latest.Trigger)
	}

	report, err := f.uc.CheckConsistency(ctx, "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Consistent || !report.Drift.IsZero() {
		t.Errorf("expected no drift after ingestion, got drift=%s computed=%s", report.Drift, report.ComputedNet)
	}
}

func TestLedgerUseCase_IngestBeforeBaselineAppendsNoSnapshot(t *testing.T) {
	f := newLedgerFixture()

	tx, err := f.uc.Ingest(context.Background(), usecase.IngestInput{
		OwnerID:      "owner-1",
		InstrumentID: "card-1",
		Label:        "COMPASS",
		Amount:       decimal.NewFromInt(-150),
		Date:         time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !tx.IsHistorical {
		t.Fatalf("expected historical transaction")
	}
	if n := f.snapshots.Count(); n != 0 {
		t.Errorf("expected no snapshot for a historical transaction, got %d", n)
	}
}

func TestLedgerUseCase_RecordCategory(t *testing.T) {
	f := newLedgerFixture(notification("tx-1", "UBER *TRIP", "-5200", day(10, 5)))
	ctx := context.Background()

	if err := f.uc.RecordCategory(ctx, "tx-1", " transport "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := f.outbox.EventsOfType(domain.EventTypeTransactionCategorized)
	if len(events) != 1 {
		t.Fatalf("expected one categorized event, got %d", len(events))
	}
	if events[0].AggregateID != "tx-1" || events[0].Payload["category"] != "transport" {
		t.Errorf("unexpected event: %+v", events[0])
	}

	if err := f.uc.RecordCategory(ctx, "missing", "transport"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
	if err := f.uc.RecordCategory(ctx, "tx-1", "  "); err == nil {
		t.Errorf("expected error for empty category")
	}
}

func TestLedgerUseCase_ConfirmElapsed(t *testing.T) {
	old := notification("tx-old", "COMPASS", "-150", day(10, 3))
	old.State = domain.StatePending
	old.CreatedAt = time.Now().UTC().Add(-96 * time.Hour)
	fresh := notification("tx-fresh", "COMPASS", "-150", day(10, 3))
	fresh.State = domain.StatePending
	fresh.CreatedAt = time.Now().UTC()
	f := newLedgerFixture(old, fresh)

	n, err := f.uc.ConfirmElapsed(context.Background(), "owner-1", usecase.DefaultConfirmPendingAfter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n != 1 {
		t.Errorf("expected 1 confirmation, got %d", n)
	}
	if got := f.ledger.Snapshot("tx-old").State; got != domain.StateConfirmed {
		t.Errorf("old transaction: expected confirmed, got %s", got)
	}
	if got := f.ledger.Snapshot("tx-fresh").State; got != domain.StatePending {
		t.Errorf("fresh transaction: expected pending, got %s", got)
	}
}

func TestLedgerUseCase_List(t *testing.T) {
	f := newLedgerFixture(notification("tx-1", "COMPASS", "-150", day(10, 3)))

	if _, err := f.uc.List(context.Background(), usecase.LedgerFilter{}); !errors.Is(err, domain.ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope without owner or instrument, got %v", err)
	}

	txs, err := f.uc.List(context.Background(), usecase.LedgerFilter{InstrumentID: "card-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(txs))
	}
}

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	run := "run-1"
	linked := notification("tx-1", "COMPASS", "-150", day(10, 3))
	linked.State = domain.StateReconciled
	linked.ReconciliationID = &run
	unlinked := notification("tx-2", "TIENDA", "-50", day(10, 4))
	unlinked.State = domain.StateReconciled

	tests := []struct {
		name        string
		txs         []*domain.LedgerTransaction
		snapshotNet *decimal.Decimal
		want        bool
		wantDrift   string
	}{
		{
			name: "no snapshot yet",
			txs:  []*domain.LedgerTransaction{linked},
			want: true,
		},
		{
			name:        "snapshot agrees",
			txs:         []*domain.LedgerTransaction{linked},
			snapshotNet: decPtr("-150"),
			want:        true,
			wantDrift:   "0",
		},
		{
			name:        "snapshot drifted",
			txs:         []*domain.LedgerTransaction{linked},
			snapshotNet: decPtr("-100"),
			want:        false,
			wantDrift:   "-50",
		},
		{
			name: "reconciled without run linkage",
			txs:  []*domain.LedgerTransaction{linked, unlinked},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(tt.txs...)
			if tt.snapshotNet != nil {
				_ = f.snapshots.Create(context.Background(), nil, &domain.PatrimonySnapshot{
					ID:      "snap-1",
					OwnerID: "owner-1",
					Net:     *tt.snapshotNet,
				})
			}

			report, err := f.uc.CheckConsistency(context.Background(), "owner-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if report.Consistent != tt.want {
				t.Errorf("expected consistent=%v, got %v", tt.want, report.Consistent)
			}
			if tt.wantDrift != "" && !report.Drift.Equal(decimal.RequireFromString(tt.wantDrift)) {
				t.Errorf("expected drift %s, got %s", tt.wantDrift, report.Drift)
			}
		})
	}
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
