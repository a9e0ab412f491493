package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
)

// InstrumentResponse represents an instrument in API responses.
type InstrumentResponse struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	BaselineDate   string          `json:"baseline_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// InstrumentFromDomain converts a domain instrument to a response.
func InstrumentFromDomain(i *domain.Instrument) *InstrumentResponse {
	return &InstrumentResponse{
		ID:             i.ID,
		OwnerID:        i.OwnerID,
		Name:           i.Name,
		Kind:           string(i.Kind),
		Currency:       i.Currency,
		OpeningBalance: i.OpeningBalance,
		BaselineDate:   i.BaselineDate.Format(DateLayout),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// LedgerTransactionResponse represents a ledger transaction in API responses.
type LedgerTransactionResponse struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	InstrumentID     string           `json:"instrument_id"`
	Source           string           `json:"source"`
	SourceMessageID  string           `json:"source_message_id,omitempty"`
	Label            string           `json:"label"`
	Amount           decimal.Decimal  `json:"amount"`
	Currency         string           `json:"currency"`
	Date             string           `json:"date"`
	Reference        *string          `json:"reference,omitempty"`
	State            string           `json:"state"`
	IsHistorical     bool             `json:"is_historical"`
	ReconciliationID *string          `json:"reconciliation_id,omitempty"`
	PendingMatchID   *string          `json:"pending_match_id,omitempty"`
	ReviewFlag       string           `json:"review_flag,omitempty"`
	OriginalAmount   *decimal.Decimal `json:"original_amount,omitempty"`
	AdjustedAmount   *decimal.Decimal `json:"adjusted_amount,omitempty"`
	AdjustmentReason string           `json:"adjustment_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// LedgerTransactionFromDomain converts a domain transaction to a response.
func LedgerTransactionFromDomain(t *domain.LedgerTransaction) *LedgerTransactionResponse {
	return &LedgerTransactionResponse{
		ID:               t.ID,
		OwnerID:          t.OwnerID,
		InstrumentID:     t.InstrumentID,
		Source:           t.Source,
		SourceMessageID:  t.SourceMessageID,
		Label:            t.Label,
		Amount:           t.Amount,
		Currency:         t.Currency,
		Date:             t.Date.Format(DateLayout),
		Reference:        t.Reference,
		State:            string(t.State),
		IsHistorical:     t.IsHistorical,
		ReconciliationID: t.ReconciliationID,
		PendingMatchID:   t.PendingMatchID,
		ReviewFlag:       t.ReviewFlag,
		OriginalAmount:   t.OriginalAmount,
		AdjustedAmount:   t.AdjustedAmount,
		AdjustmentReason: t.AdjustmentReason,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// LedgerTransactionsFromDomain converts domain transactions to responses.
func LedgerTransactionsFromDomain(txs []*domain.LedgerTransaction) []*LedgerTransactionResponse {
	result := make([]*LedgerTransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = LedgerTransactionFromDomain(t)
	}
	return result
}

// SnapshotResponse represents a patrimony snapshot in API responses.
type SnapshotResponse struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Date        string          `json:"date"`
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Net         decimal.Decimal `json:"net"`
	Trigger     string          `json:"trigger"`
	ReportID    *string         `json:"report_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SnapshotFromDomain converts a domain snapshot to a response.
func SnapshotFromDomain(s *domain.PatrimonySnapshot) *SnapshotResponse {
	return &SnapshotResponse{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Date:        s.Date.Format(DateLayout),
		Assets:      s.Assets,
		Liabilities: s.Liabilities,
		Net:         s.Net,
		Trigger:     string(s.Trigger),
		ReportID:    s.ReportID,
		CreatedAt:   s.CreatedAt,
	}
}

// SnapshotsFromDomain converts domain snapshots to responses.
func SnapshotsFromDomain(snapshots []*domain.PatrimonySnapshot) []*SnapshotResponse {
	result := make([]*SnapshotResponse, len(snapshots))
	for i, s := range snapshots {
		result[i] = SnapshotFromDomain(s)
	}
	return result
}

// ResolutionResponse represents a user decision on a match.
type ResolutionResponse struct {
	MatchID             string    `json:"match_id"`
	ReportID            string    `json:"report_id"`
	Action              string    `json:"action"`
	LedgerTransactionID string    `json:"ledger_transaction_id"`
	CreatedAt           time.Time `json:"created_at"`
}

// ResolutionFromDomain converts a domain resolution to a response.
func ResolutionFromDomain(r *domain.MatchResolution) *ResolutionResponse {
	return &ResolutionResponse{
		MatchID:             r.MatchID,
		ReportID:            r.ReportID,
		Action:              string(r.Action),
		LedgerTransactionID: r.LedgerTransactionID,
		CreatedAt:           r.CreatedAt,
	}
}

// ReportResponse is a stored report exactly as committed, plus the
// resolutions recorded against its matches since.
type ReportResponse struct {
	Report      json.RawMessage       `json:"report"`
	Resolutions []*ResolutionResponse `json:"resolutions"`
}

// ReportFromStored builds a ReportResponse.
func ReportFromStored(stored *usecase.StoredReport, resolutions []*domain.MatchResolution) *ReportResponse {
	resp := &ReportResponse{
		Report:      json.RawMessage(stored.Payload),
		Resolutions: make([]*ResolutionResponse, len(resolutions)),
	}
	for i, r := range resolutions {
		resp.Resolutions[i] = ResolutionFromDomain(r)
	}
	return resp
}

// ReportSummaryResponse is a report without its match details.
type ReportSummaryResponse struct {
	ID          string              `json:"id"`
	Scope       domain.Scope        `json:"scope"`
	Fingerprint string              `json:"fingerprint"`
	RunAt       time.Time           `json:"run_at"`
	Status      string              `json:"status"`
	Counts      domain.ReportCounts `json:"counts"`
	NetWorth    *decimal.Decimal    `json:"net_worth,omitempty"`
}

// ReportSummariesFromDomain converts domain reports to summaries.
func ReportSummariesFromDomain(reports []*domain.ReconciliationReport) []*ReportSummaryResponse {
	result := make([]*ReportSummaryResponse, len(reports))
	for i, r := range reports {
		result[i] = &ReportSummaryResponse{
			ID:          r.ID,
			Scope:       r.Scope,
			Fingerprint: r.Fingerprint,
			RunAt:       r.RunAt,
			Status:      string(r.Status),
			Counts:      r.Counts,
			NetWorth:    r.NetWorth,
		}
	}
	return result
}

// ConsistencyResponse is the outcome of a ledger consistency check.
type ConsistencyResponse struct {
	OwnerID            string           `json:"owner_id"`
	Consistent         bool             `json:"consistent"`
	UnlinkedReconciled int              `json:"unlinked_reconciled"`
	SnapshotNet        *decimal.Decimal `json:"snapshot_net,omitempty"`
	ComputedNet        decimal.Decimal  `json:"computed_net"`
	Drift              decimal.Decimal  `json:"drift"`
	CheckedAt          time.Time        `json:"checked_at"`
}

// ConsistencyFromUseCase converts a consistency report to a response.
func ConsistencyFromUseCase(c *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		OwnerID:            c.OwnerID,
		Consistent:         c.Consistent,
		UnlinkedReconciled: c.UnlinkedReconciled,
		SnapshotNet:        c.SnapshotNet,
		ComputedNet:        c.ComputedNet,
		Drift:              c.Drift,
		CheckedAt:          c.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
