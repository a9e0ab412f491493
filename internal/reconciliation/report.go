package reconciliation

import (
	"fmt"
	"time"

	"github.com/iho/reconledger/internal/domain"
)

// Tally counts dispositions and outcomes of a set of results.
func Tally(results []domain.MatchResult) domain.ReportCounts {
	var c domain.ReportCounts
	for _, r := range results {
		switch r.Disposition {
		case domain.DispositionMatched:
			c.Matched++
		case domain.DispositionNew:
			c.New++
		case domain.DispositionOrphan:
			c.Orphaned++
			if r.Outcome == domain.OutcomeCancelled {
				c.Cancelled++
			}
		case domain.DispositionDiscrepancy:
			c.Discrepant++
		case domain.DispositionDuplicateSuspect:
			c.DuplicateSuspect++
		}
		if r.RequiresConfirmation {
			c.PendingReview++
		}
	}
	return c
}

// StatusFor derives the overall verdict of a run.
func StatusFor(results []domain.MatchResult, counts domain.ReportCounts, balance domain.BalanceCheck) domain.ReportStatus {
	if counts.Discrepant > 0 || counts.DuplicateSuspect > 0 || counts.Cancelled > 0 || balance.Mismatch {
		return domain.ReportStatusHasProblems
	}
	if counts.New > 0 || counts.Orphaned > 0 || counts.Malformed > 0 {
		return domain.ReportStatusNeedsReview
	}
	for _, r := range results {
		if r.Confidence == domain.ConfidenceMedium || r.Confidence == domain.ConfidenceLow {
			return domain.ReportStatusNeedsReview
		}
	}
	return domain.ReportStatusClean
}

// ReportInput gathers everything the builder needs.
type ReportInput struct {
	ID             string
	Scope          domain.Scope
	Fingerprint    string
	RunAt          time.Time
	StatementTotal int
	LedgerTotal    int
	Results        []domain.MatchResult
	Anomalies      []domain.Anomaly
	Balance        domain.BalanceCheck
}

// BuildReport assembles the immutable report of a run.
func BuildReport(in ReportInput) *domain.ReconciliationReport {
	anomalies := append([]domain.Anomaly{}, in.Anomalies...)
	if in.Balance.Mismatch {
		msg := fmt.Sprintf("statement closing balance %s differs from ledger %s by %s",
			in.Balance.StatementEnd.String(), in.Balance.LedgerComputed.String(), in.Balance.Delta.String())
		anomalies = append(anomalies, domain.Anomaly{
			Kind:    domain.AnomalyBalanceMismatch,
			Message: msg,
		})
	}

	counts := Tally(in.Results)
	counts.StatementTotal = in.StatementTotal
	counts.LedgerTotal = in.LedgerTotal
	for _, a := range in.Anomalies {
		if a.Kind == domain.AnomalyMalformedRecord {
			counts.Malformed++
		}
	}

	results := in.Results
	if results == nil {
		results = []domain.MatchResult{}
	}

	return &domain.ReconciliationReport{
		ID:          in.ID,
		Scope:       in.Scope,
		Fingerprint: in.Fingerprint,
		RunAt:       in.RunAt,
		Counts:      counts,
		Balance:     in.Balance,
		Matches:     results,
		Anomalies:   anomalies,
		Status:      StatusFor(results, counts, in.Balance),
	}
}
