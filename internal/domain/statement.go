package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Scope identifies what a reconciliation run covers. It is passed explicitly
// to every operation.
type Scope struct {
	OwnerID      string    `json:"owner_id"`
	InstrumentID string    `json:"instrument_id"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
}

// Validate checks the scope is complete and ordered.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.OwnerID) == "" || strings.TrimSpace(s.InstrumentID) == "" {
		return fmt.Errorf("%w: owner and instrument are required", ErrInvalidScope)
	}
	if s.PeriodStart.IsZero() || s.PeriodEnd.IsZero() {
		return fmt.Errorf("%w: period bounds are required", ErrInvalidScope)
	}
	if DateOnly(s.PeriodEnd).Before(DateOnly(s.PeriodStart)) {
		return fmt.Errorf("%w: period end before start", ErrInvalidScope)
	}
	return nil
}

// LockKey is the key used to serialize runs on the same instrument.
func (s Scope) LockKey() string {
	return s.OwnerID + ":" + s.InstrumentID
}

// RawRow is one unvalidated transaction row produced by the extraction service.
type RawRow struct {
	Merchant  string `json:"merchant"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Reference string `json:"reference,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

// StatementMetadata is what the extraction service reports about the document.
type StatementMetadata struct {
	AccountIdentifier string           `json:"account_identifier,omitempty"`
	Currency          string           `json:"currency,omitempty"`
	OpeningBalance    *decimal.Decimal `json:"opening_balance,omitempty"`
	ClosingBalance    *decimal.Decimal `json:"closing_balance,omitempty"`
	PeriodStart       *time.Time       `json:"period_start,omitempty"`
	PeriodEnd         *time.Time       `json:"period_end,omitempty"`
}

// StatementInput is the full reconciliation input for one statement.
// Raw holds the source document bytes when available and is what the run
// fingerprint is computed from.
type StatementInput struct {
	Raw      []byte
	Rows     []RawRow
	Metadata StatementMetadata
}

// StatementTransaction is a normalized, immutable statement row.
type StatementTransaction struct {
	Ordinal         int             `json:"ordinal"`
	Label           string          `json:"label"`
	NormalizedLabel string          `json:"normalized_label"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Date            time.Time       `json:"date"`
	Reference       *string         `json:"reference,omitempty"`
}
