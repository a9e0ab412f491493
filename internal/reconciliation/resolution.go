package reconciliation

import (
	"fmt"
	"time"

	"github.com/iho/reconledger/internal/domain"
)

// Confirm applies a user confirmation of a tentative match. The primary
// transaction becomes reconciled under the report's run, taking the statement
// amount when the two differ. Duplicate alternatives still held by the match
// are released. A primary that a later run resolved or re-held yields
// domain.ErrMatchStale.
func (e *Engine) Confirm(reportID string, m *domain.MatchResult, primary *domain.LedgerTransaction, alternatives []*domain.LedgerTransaction, now time.Time) error {
	if !m.RequiresConfirmation || m.Statement == nil {
		return domain.ErrMatchNotTentative
	}
	if !primary.HeldBy(m.ID) {
		return fmt.Errorf("%w: %s on %s", domain.ErrMatchStale, m.ID, primary.ID)
	}
	ledgerAmount := primary.Amount
	if err := primary.Reconcile(reportID, now); err != nil {
		return err
	}
	primary.ReviewFlag = ""
	if m.Statement.Amount.Sub(ledgerAmount).Abs().GreaterThan(e.cfg.AmountTolerance) {
		primary.Adjust(m.Statement.Amount, AdjustmentReason(m.Statement.Amount, ledgerAmount), now)
	}
	for _, alt := range alternatives {
		if alt.HeldBy(m.ID) {
			alt.Release(now)
		}
	}
	return nil
}

// Reject records that the statement row is unrelated to the proposed ledger
// transactions. Holds still owned by the match are released and the row is
// booked as a new transaction, which is returned. The primary must still be
// held by the match, otherwise domain.ErrMatchStale is returned.
func (e *Engine) Reject(report *domain.ReconciliationReport, m *domain.MatchResult, instrument *domain.Instrument, held []*domain.LedgerTransaction, newID string, now time.Time) (*domain.LedgerTransaction, error) {
	if !m.RequiresConfirmation || m.Statement == nil || m.LedgerTransactionID == nil {
		return nil, domain.ErrMatchNotTentative
	}
	for _, tx := range held {
		if tx.ID == *m.LedgerTransactionID && !tx.HeldBy(m.ID) {
			return nil, fmt.Errorf("%w: %s on %s", domain.ErrMatchStale, m.ID, tx.ID)
		}
	}
	for _, tx := range held {
		if tx.HeldBy(m.ID) {
			tx.Release(now)
		}
	}

	st := m.Statement
	runID := report.ID
	return &domain.LedgerTransaction{
		ID:               newID,
		OwnerID:          report.Scope.OwnerID,
		InstrumentID:     report.Scope.InstrumentID,
		Source:           domain.SourceStatement,
		Label:            st.Label,
		NormalizedLabel:  st.NormalizedLabel,
		Amount:           st.Amount,
		Currency:         st.Currency,
		Date:             st.Date,
		Reference:        st.Reference,
		State:            domain.StateReconciled,
		IsHistorical:     instrument.IsHistorical(st.Date),
		ReconciliationID: &runID,
		ReviewFlag:       domain.ReviewNotificationMissing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
