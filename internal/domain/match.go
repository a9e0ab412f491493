package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Confidence is the tier derived from a match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// ConfidenceFor maps a 0-100 score to its tier.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= 90:
		return ConfidenceHigh
	case score >= 70:
		return ConfidenceMedium
	case score >= 50:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Disposition is the classification of one match outcome.
type Disposition string

const (
	DispositionMatched          Disposition = "matched"
	DispositionNew              Disposition = "new"
	DispositionOrphan           Disposition = "orphan"
	DispositionDiscrepancy      Disposition = "discrepancy"
	DispositionDuplicateSuspect Disposition = "duplicate_suspect"
)

// Reason is one scoring contribution, kept in evaluation order.
type Reason struct {
	Criterion string  `json:"criterion"`
	Detail    string  `json:"detail"`
	Points    float64 `json:"points"`
}

// MatchResult is the outcome for one statement row or one unclaimed ledger transaction.
type MatchResult struct {
	ID                   string                `json:"id"`
	Statement            *StatementTransaction `json:"statement,omitempty"`
	LedgerTransactionID  *string               `json:"ledger_transaction_id,omitempty"`
	AlternativeIDs       []string              `json:"alternative_ids,omitempty"`
	Score                float64               `json:"score"`
	Confidence           Confidence            `json:"confidence"`
	Reasons              []Reason              `json:"reasons"`
	Disposition          Disposition           `json:"disposition"`
	RequiresConfirmation bool                  `json:"requires_confirmation"`
	// Outcome describes what the run did with the ledger side, e.g. "orphaned",
	// "cancelled", "created".
	Outcome        string           `json:"outcome,omitempty"`
	LedgerAmount   *decimal.Decimal `json:"ledger_amount,omitempty"`
	ReversedAmount *decimal.Decimal `json:"reversed_amount,omitempty"`
}

// Match outcomes recorded on results.
const (
	OutcomeReconciled = "reconciled"
	OutcomeAdjusted   = "adjusted"
	OutcomeCreated    = "created"
	OutcomeOrphaned   = "orphaned"
	OutcomeCancelled  = "cancelled"
	OutcomeHeld       = "held_for_confirmation"
	OutcomeDisputed   = "disputed"
	OutcomeFlagged    = "flagged_duplicate"
)

// ResolutionAction is a user decision on a tentative match.
type ResolutionAction string

const (
	ResolutionConfirmed ResolutionAction = "confirmed"
	ResolutionRejected  ResolutionAction = "rejected"
)

// MatchResolution records a user decision on a match. Reports stay immutable;
// resolutions are appended next to them.
type MatchResolution struct {
	MatchID             string
	ReportID            string
	Action              ResolutionAction
	LedgerTransactionID string
	CreatedAt           time.Time
}
