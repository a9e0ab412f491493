package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
)

// ScopeRequest identifies what a reconciliation run covers.
type ScopeRequest struct {
	OwnerID      string `json:"owner_id"      validate:"required"`
	InstrumentID string `json:"instrument_id" validate:"required"`
	PeriodStart  string `json:"period_start"  validate:"required,datetime=2006-01-02"`
	PeriodEnd    string `json:"period_end"    validate:"required,datetime=2006-01-02"`
}

// ToDomain converts to a domain scope. Call after validation.
func (r ScopeRequest) ToDomain() domain.Scope {
	start, _ := time.Parse(DateLayout, r.PeriodStart)
	end, _ := time.Parse(DateLayout, r.PeriodEnd)
	return domain.Scope{
		OwnerID:      strings.TrimSpace(r.OwnerID),
		InstrumentID: strings.TrimSpace(r.InstrumentID),
		PeriodStart:  start,
		PeriodEnd:    end,
	}
}

// ReconcileRequest carries a statement already split into rows. Row contents
// are not validated here: malformed rows are reported by the run.
type ReconcileRequest struct {
	Scope    ScopeRequest             `json:"scope"`
	Rows     []domain.RawRow          `json:"rows"     validate:"required,min=1"`
	Metadata domain.StatementMetadata `json:"metadata"`
}

// ToDomain converts to a statement input.
func (r *ReconcileRequest) ToDomain() domain.StatementInput {
	return domain.StatementInput{Rows: r.Rows, Metadata: r.Metadata}
}

// CreateInstrumentRequest represents a request to register an instrument.
type CreateInstrumentRequest struct {
	OwnerID        string          `json:"owner_id"        validate:"required"`
	Name           string          `json:"name"            validate:"required,max=255"`
	Kind           string          `json:"kind"            validate:"required,oneof=asset liability"`
	Currency       string          `json:"currency"        validate:"required,len=3"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	BaselineDate   string          `json:"baseline_date"   validate:"required,datetime=2006-01-02"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateInstrumentRequest) ToUseCaseInput() usecase.CreateInstrumentInput {
	baseline, _ := time.Parse(DateLayout, r.BaselineDate)
	return usecase.CreateInstrumentInput{
		OwnerID:        r.OwnerID,
		Name:           r.Name,
		Kind:           domain.InstrumentKind(r.Kind),
		Currency:       r.Currency,
		OpeningBalance: r.OpeningBalance,
		BaselineDate:   baseline,
	}
}

// IngestTransactionRequest records a transaction seen by a real-time source.
type IngestTransactionRequest struct {
	OwnerID         string          `json:"owner_id"                    validate:"required"`
	InstrumentID    string          `json:"instrument_id"               validate:"required"`
	Source          string          `json:"source"                      validate:"required,max=64"`
	SourceMessageID string          `json:"source_message_id,omitempty" validate:"max=255"`
	Label           string          `json:"label"                       validate:"required,max=512"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"          validate:"omitempty,len=3"`
	Date            string          `json:"date"                        validate:"required,datetime=2006-01-02"`
	Reference       *string         `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *IngestTransactionRequest) ToUseCaseInput() usecase.IngestInput {
	date, _ := time.Parse(DateLayout, r.Date)
	return usecase.IngestInput{
		OwnerID:         r.OwnerID,
		InstrumentID:    r.InstrumentID,
		Source:          r.Source,
		SourceMessageID: r.SourceMessageID,
		Label:           r.Label,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Date:            date,
		Reference:       r.Reference,
	}
}

// RecalculateRequest asks for a patrimony snapshot. Trigger defaults to manual.
type RecalculateRequest struct {
	Trigger string `json:"trigger,omitempty" validate:"omitempty,oneof=manual periodic baseline"`
}

// TriggerOrDefault returns the requested trigger, manual when unset.
func (r *RecalculateRequest) TriggerOrDefault() domain.SnapshotTrigger {
	if r.Trigger == "" {
		return domain.TriggerManual
	}
	return domain.SnapshotTrigger(r.Trigger)
}
