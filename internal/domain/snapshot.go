package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotTrigger tells what caused a patrimony snapshot.
type SnapshotTrigger string

const (
	TriggerBaseline       SnapshotTrigger = "baseline"
	TriggerPeriodic       SnapshotTrigger = "periodic"
	TriggerReconciliation SnapshotTrigger = "reconciliation"
	TriggerManual         SnapshotTrigger = "manual"
)

// IsValid reports whether t is a known trigger.
func (t SnapshotTrigger) IsValid() bool {
	switch t {
	case TriggerBaseline, TriggerPeriodic, TriggerReconciliation, TriggerManual:
		return true
	}
	return false
}

// PatrimonySnapshot is an append-only point-in-time net worth figure.
type PatrimonySnapshot struct {
	ID          string
	OwnerID     string
	Date        time.Time
	Assets      decimal.Decimal
	Liabilities decimal.Decimal
	Net         decimal.Decimal
	Trigger     SnapshotTrigger
	ReportID    *string
	CreatedAt   time.Time
}
