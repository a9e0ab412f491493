package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportStatus is the overall verdict of a run.
type ReportStatus string

const (
	ReportStatusClean       ReportStatus = "clean"
	ReportStatusNeedsReview ReportStatus = "needs_review"
	ReportStatusHasProblems ReportStatus = "has_problems"
)

// ReportCounts aggregates dispositions.
type ReportCounts struct {
	StatementTotal   int `json:"statement_total"`
	LedgerTotal      int `json:"ledger_total"`
	Matched          int `json:"matched"`
	New              int `json:"new"`
	Orphaned         int `json:"orphaned"`
	Cancelled        int `json:"cancelled"`
	Discrepant       int `json:"discrepant"`
	DuplicateSuspect int `json:"duplicate_suspect"`
	PendingReview    int `json:"pending_review"`
	Malformed        int `json:"malformed"`
}

// BalanceCheck compares the statement closing balance with the ledger.
type BalanceCheck struct {
	Performed      bool            `json:"performed"`
	PriorBalance   decimal.Decimal `json:"prior_balance"`
	StatementEnd   decimal.Decimal `json:"statement_end"`
	LedgerComputed decimal.Decimal `json:"ledger_computed"`
	Delta          decimal.Decimal `json:"delta"`
	Mismatch       bool            `json:"mismatch"`
}

// Anomaly is a non-fatal problem found during the run.
type Anomaly struct {
	Kind    string `json:"kind"`
	Ordinal int    `json:"ordinal,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Anomaly kinds.
const (
	AnomalyMalformedRecord = "malformed_record"
	AnomalyBalanceMismatch = "balance_mismatch"
)

// ReconciliationReport is the immutable artifact of one run.
type ReconciliationReport struct {
	ID          string           `json:"id"`
	Scope       Scope            `json:"scope"`
	Fingerprint string           `json:"fingerprint"`
	RunAt       time.Time        `json:"run_at"`
	Counts      ReportCounts     `json:"counts"`
	Balance     BalanceCheck     `json:"balance"`
	Matches     []MatchResult    `json:"matches"`
	Anomalies   []Anomaly        `json:"anomalies"`
	Status      ReportStatus     `json:"status"`
	SnapshotID  *string          `json:"snapshot_id,omitempty"`
	NetWorth    *decimal.Decimal `json:"net_worth,omitempty"`
}

// Match returns the match result with the given id.
func (r *ReconciliationReport) Match(id string) (*MatchResult, bool) {
	for i := range r.Matches {
		if r.Matches[i].ID == id {
			return &r.Matches[i], true
		}
	}
	return nil, false
}
