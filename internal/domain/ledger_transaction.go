package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionState is the lifecycle state of a ledger transaction.
type TransactionState string

const (
	StatePending    TransactionState = "pending"
	StateConfirmed  TransactionState = "confirmed"
	StateReconciled TransactionState = "reconciled"
	StateOrphan     TransactionState = "orphan"
	StateCancelled  TransactionState = "cancelled"
	StateDisputed   TransactionState = "disputed"
)

// IsValid reports whether s is a known state.
func (s TransactionState) IsValid() bool {
	switch s {
	case StatePending, StateConfirmed, StateReconciled, StateOrphan, StateCancelled, StateDisputed:
		return true
	}
	return false
}

// Counted reports whether transactions in this state contribute to balances.
func (s TransactionState) Counted() bool {
	return s.IsValid() && s != StateCancelled
}

// Orphanable reports whether a transaction in this state can be orphaned by a run
// that does not find it in the statement.
func (s TransactionState) Orphanable() bool {
	return s == StatePending || s == StateConfirmed || s == StateDisputed || s == StateOrphan
}

// Review flags attached to ledger transactions.
const (
	ReviewNotificationMissing = "notification_not_received"
	ReviewDuplicateSuspect    = "duplicate_suspect"
	ReviewPendingConfirmation = "pending_confirmation"
	ReviewOptional            = "optional_review"
)

// Transaction sources.
const (
	SourceNotification = "notification"
	SourceStatement    = "statement"
	SourceManual       = "manual"
)

// LedgerTransaction is a transaction recorded from a real-time notification,
// or created by reconciliation when the statement shows one the ledger missed.
type LedgerTransaction struct {
	ID              string
	OwnerID         string
	InstrumentID    string
	Source          string
	SourceMessageID string
	Label           string
	NormalizedLabel string
	Amount          decimal.Decimal
	Currency        string
	Date            time.Time
	Reference       *string
	State           TransactionState
	IsHistorical    bool

	// ReconciliationID is the report of the run that last touched the transaction.
	ReconciliationID *string
	// OrphanRunID is the run that first saw the transaction missing.
	OrphanRunID *string
	// PendingMatchID is the tentative match awaiting user confirmation.
	PendingMatchID *string
	PendingCycles  int
	ReviewFlag     string

	OriginalAmount   *decimal.Decimal
	AdjustedAmount   *decimal.Decimal
	AdjustmentReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contributes reports whether the transaction takes part in balance math.
func (t *LedgerTransaction) Contributes() bool {
	return !t.IsHistorical && t.State.Counted()
}

// Validate checks the invariants every stored transaction must hold.
func (t *LedgerTransaction) Validate() error {
	if !t.State.IsValid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, t.State)
	}
	if t.State == StateReconciled && (t.ReconciliationID == nil || *t.ReconciliationID == "") {
		return ErrMissingLinkage
	}
	return nil
}

// Confirm moves a pending transaction to confirmed.
func (t *LedgerTransaction) Confirm(now time.Time) error {
	if t.State == StateConfirmed {
		return nil
	}
	if t.State != StatePending {
		return t.invalid(StateConfirmed)
	}
	t.State = StateConfirmed
	t.UpdatedAt = now
	return nil
}

// Reconcile marks the transaction as present in the statement of run runID.
func (t *LedgerTransaction) Reconcile(runID string, now time.Time) error {
	if t.State == StateCancelled {
		return t.invalid(StateReconciled)
	}
	t.State = StateReconciled
	t.ReconciliationID = &runID
	t.OrphanRunID = nil
	t.PendingMatchID = nil
	t.PendingCycles = 0
	t.UpdatedAt = now
	return nil
}

// Adjust records the statement amount as authoritative. Applying the same
// adjustment twice leaves the transaction unchanged.
func (t *LedgerTransaction) Adjust(amount decimal.Decimal, reason string, now time.Time) {
	if t.Amount.Equal(amount) {
		return
	}
	original := t.Amount
	if t.OriginalAmount != nil {
		original = *t.OriginalAmount
	}
	adjusted := amount
	t.OriginalAmount = &original
	t.AdjustedAmount = &adjusted
	t.AdjustmentReason = reason
	t.Amount = amount
	t.UpdatedAt = now
}

// MarkOrphan records the first cycle in which the transaction was missing.
func (t *LedgerTransaction) MarkOrphan(runID string, now time.Time) error {
	if !t.State.Orphanable() || t.State == StateOrphan {
		return t.invalid(StateOrphan)
	}
	t.State = StateOrphan
	t.OrphanRunID = &runID
	t.ReconciliationID = &runID
	t.UpdatedAt = now
	return nil
}

// Cancel retires an orphan that is still missing in a later run.
func (t *LedgerTransaction) Cancel(runID string, now time.Time) error {
	if t.State != StateOrphan || t.OrphanRunID == nil || *t.OrphanRunID == runID {
		return t.invalid(StateCancelled)
	}
	t.State = StateCancelled
	t.ReconciliationID = &runID
	t.UpdatedAt = now
	return nil
}

// Dispute parks the transaction until the user resolves an amount mismatch.
func (t *LedgerTransaction) Dispute(runID, matchID string, now time.Time) error {
	if t.State == StateCancelled || t.State == StateReconciled {
		return t.invalid(StateDisputed)
	}
	t.State = StateDisputed
	t.ReconciliationID = &runID
	t.PendingMatchID = &matchID
	t.UpdatedAt = now
	return nil
}

// HoldForConfirmation links a tentative match without changing the state.
func (t *LedgerTransaction) HoldForConfirmation(runID, matchID string, now time.Time) {
	if t.PendingMatchID != nil && *t.PendingMatchID != matchID {
		t.PendingCycles++
	}
	t.PendingMatchID = &matchID
	if t.State != StateReconciled {
		t.ReconciliationID = &runID
	}
	t.ReviewFlag = ReviewPendingConfirmation
	t.UpdatedAt = now
}

// HeldBy reports whether the transaction is still waiting on matchID.
func (t *LedgerTransaction) HeldBy(matchID string) bool {
	return t.PendingMatchID != nil && *t.PendingMatchID == matchID
}

// Release drops a tentative match and returns a disputed transaction to confirmed.
func (t *LedgerTransaction) Release(now time.Time) {
	t.PendingMatchID = nil
	t.PendingCycles = 0
	t.ReviewFlag = ""
	if t.State == StateDisputed {
		t.State = StateConfirmed
	}
	t.UpdatedAt = now
}

func (t *LedgerTransaction) invalid(to TransactionState) error {
	return fmt.Errorf("%w: %s -> %s for transaction %s", ErrInvalidTransition, t.State, to, t.ID)
}
