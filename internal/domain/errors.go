package domain

import (
	"errors"
	"fmt"
)

var (
	// Normalization and extraction errors
	ErrMalformedRecord  = errors.New("malformed record")
	ErrExtractionFailed = errors.New("statement extraction failed")

	// Run errors
	ErrConcurrentRunConflict = errors.New("another reconciliation run is in flight for this scope")
	ErrInvalidScope          = errors.New("invalid reconciliation scope")
	ErrCurrencyMismatch      = errors.New("statement currency does not match instrument")

	// Lifecycle errors
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrMissingLinkage    = errors.New("reconciled transaction must reference a reconciliation run")

	// Lookup errors
	ErrInstrumentNotFound  = errors.New("instrument not found")
	ErrTransactionNotFound = errors.New("ledger transaction not found")
	ErrReportNotFound      = errors.New("reconciliation report not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrSnapshotNotFound    = errors.New("patrimony snapshot not found")

	// Snapshot errors
	ErrInvalidTrigger = errors.New("invalid snapshot trigger")

	// Resolution errors
	ErrMatchNotTentative    = errors.New("match does not require confirmation")
	ErrMatchAlreadyResolved = errors.New("match already resolved with a different action")
	ErrMatchStale           = errors.New("ledger transaction is no longer held by this match")
)

// MalformedRecordError describes a statement row that could not be normalized.
type MalformedRecordError struct {
	Ordinal int
	Field   string
	Value   string
	Err     error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Ordinal, e.Field, e.Value, e.Err)
}

// Unwrap lets errors.Is match ErrMalformedRecord.
func (e *MalformedRecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

// IsRetryable reports whether the caller may retry the same request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentRunConflict)
}
