package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestLedgerTransaction_Confirm(t *testing.T) {
	tests := []struct {
		name        string
		state       TransactionState
		expectState TransactionState
		expectError bool
	}{
		{name: "pending becomes confirmed", state: StatePending, expectState: StateConfirmed},
		{name: "confirmed is a no-op", state: StateConfirmed, expectState: StateConfirmed},
		{name: "reconciled cannot be confirmed", state: StateReconciled, expectState: StateReconciled, expectError: true},
		{name: "cancelled cannot be confirmed", state: StateCancelled, expectState: StateCancelled, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &LedgerTransaction{ID: "tx-1", State: tt.state}
			err := tx.Confirm(testNow)

			if tt.expectError && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tx.State != tt.expectState {
				t.Errorf("expected state %s, got %s", tt.expectState, tx.State)
			}
		})
	}
}

func TestLedgerTransaction_Reconcile(t *testing.T) {
	tx := &LedgerTransaction{
		ID:             "tx-1",
		State:          StateOrphan,
		OrphanRunID:    strPtr("run-0"),
		PendingMatchID: strPtr("m-0"),
		PendingCycles:  2,
	}

	if err := tx.Reconcile("run-1", testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.State != StateReconciled {
		t.Errorf("expected reconciled, got %s", tx.State)
	}
	if tx.ReconciliationID == nil || *tx.ReconciliationID != "run-1" {
		t.Errorf("expected linkage to run-1, got %v", tx.ReconciliationID)
	}
	if tx.OrphanRunID != nil || tx.PendingMatchID != nil || tx.PendingCycles != 0 {
		t.Error("expected orphan and pending markers to be cleared")
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("reconciled transaction should validate: %v", err)
	}

	cancelled := &LedgerTransaction{ID: "tx-2", State: StateCancelled}
	if err := cancelled.Reconcile("run-1", testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for cancelled, got %v", err)
	}
}

func TestLedgerTransaction_Validate(t *testing.T) {
	tests := []struct {
		name      string
		tx        LedgerTransaction
		expectErr error
	}{
		{name: "pending is valid", tx: LedgerTransaction{State: StatePending}},
		{name: "reconciled without linkage", tx: LedgerTransaction{State: StateReconciled}, expectErr: ErrMissingLinkage},
		{name: "reconciled with empty linkage", tx: LedgerTransaction{State: StateReconciled, ReconciliationID: strPtr("")}, expectErr: ErrMissingLinkage},
		{name: "reconciled with linkage", tx: LedgerTransaction{State: StateReconciled, ReconciliationID: strPtr("run-1")}},
		{name: "unknown state", tx: LedgerTransaction{State: "archived"}, expectErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.expectErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectErr != nil && !errors.Is(err, tt.expectErr) {
				t.Errorf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestLedgerTransaction_OrphanEscalation(t *testing.T) {
	tx := &LedgerTransaction{ID: "tx-1", State: StateConfirmed, Amount: decimal.NewFromInt(-40)}

	if err := tx.MarkOrphan("run-1", testNow); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if tx.State != StateOrphan {
		t.Fatalf("expected orphan, got %s", tx.State)
	}
	if err := tx.MarkOrphan("run-1", testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("orphaning twice should fail, got %v", err)
	}
	if err := tx.Cancel("run-1", testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel in the same run should fail, got %v", err)
	}
	if err := tx.Cancel("run-2", testNow); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if tx.State != StateCancelled {
		t.Errorf("expected cancelled, got %s", tx.State)
	}
	if tx.Contributes() {
		t.Error("cancelled transaction must not contribute to balances")
	}
	if err := tx.MarkOrphan("run-3", testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancelled is terminal, got %v", err)
	}
}

func TestLedgerTransaction_ReconciledNeverOrphaned(t *testing.T) {
	tx := &LedgerTransaction{ID: "tx-1", State: StateReconciled, ReconciliationID: strPtr("run-1")}
	if err := tx.MarkOrphan("run-2", testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLedgerTransaction_Adjust(t *testing.T) {
	tx := &LedgerTransaction{ID: "tx-1", State: StateReconciled, Amount: decimal.NewFromInt(-100)}

	tx.Adjust(decimal.NewFromInt(-105), "fee", testNow)
	tx.Adjust(decimal.NewFromInt(-105), "fee", testNow.Add(time.Hour))

	if !tx.Amount.Equal(decimal.NewFromInt(-105)) {
		t.Errorf("expected amount -105, got %s", tx.Amount)
	}
	if tx.OriginalAmount == nil || !tx.OriginalAmount.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("expected original -100, got %v", tx.OriginalAmount)
	}
	if !tx.UpdatedAt.Equal(testNow) {
		t.Error("repeated adjustment should not touch the transaction")
	}

	tx.Adjust(decimal.NewFromInt(-110), "fee", testNow)
	if !tx.OriginalAmount.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("original amount must survive a second adjustment, got %s", tx.OriginalAmount)
	}
}

func TestLedgerTransaction_HoldAndRelease(t *testing.T) {
	tx := &LedgerTransaction{ID: "tx-1", State: StateConfirmed}

	tx.HoldForConfirmation("run-1", "m-1", testNow)
	tx.HoldForConfirmation("run-1", "m-1", testNow)
	if tx.PendingCycles != 0 {
		t.Errorf("same match should not count a new cycle, got %d", tx.PendingCycles)
	}
	tx.HoldForConfirmation("run-2", "m-2", testNow)
	if tx.PendingCycles != 1 {
		t.Errorf("expected 1 cycle, got %d", tx.PendingCycles)
	}
	if tx.State != StateConfirmed {
		t.Errorf("hold must not change state, got %s", tx.State)
	}

	if err := tx.Dispute("run-2", "m-2", testNow); err != nil {
		t.Fatalf("dispute: %v", err)
	}
	tx.Release(testNow)
	if tx.State != StateConfirmed || tx.PendingMatchID != nil || tx.ReviewFlag != "" {
		t.Errorf("release should restore confirmed without pending match, got %s %v %q", tx.State, tx.PendingMatchID, tx.ReviewFlag)
	}
}
