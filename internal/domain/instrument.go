package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentKind tells whether an instrument's balance adds to or subtracts from net worth.
type InstrumentKind string

const (
	InstrumentKindAsset     InstrumentKind = "asset"
	InstrumentKindLiability InstrumentKind = "liability"
)

// IsValid reports whether k is a known instrument kind.
func (k InstrumentKind) IsValid() bool {
	return k == InstrumentKindAsset || k == InstrumentKindLiability
}

// Instrument is a bank account or card owned by a profile.
//
// OpeningBalance is expressed in the instrument's natural sign: money held for
// assets, amount owed for liabilities.
type Instrument struct {
	ID             string
	OwnerID        string
	Name           string
	Kind           InstrumentKind
	Currency       string
	OpeningBalance decimal.Decimal
	BaselineDate   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsHistorical reports whether a transaction dated at date predates the baseline.
func (i *Instrument) IsHistorical(date time.Time) bool {
	return DateOnly(date).Before(DateOnly(i.BaselineDate))
}

// BalanceFrom returns the instrument balance given the sum of counted,
// non-historical signed amounts.
func (i *Instrument) BalanceFrom(sum decimal.Decimal) decimal.Decimal {
	if i.Kind == InstrumentKindLiability {
		return i.OpeningBalance.Sub(sum)
	}
	return i.OpeningBalance.Add(sum)
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	days := int(DateOnly(a).Sub(DateOnly(b)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
