package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 30 * time.Second

	// RunLockTTL bounds how long a crashed run can block its scope
	RunLockTTL = 2 * time.Minute

	// ReportCacheTTL is how long report payloads stay in the replay cache
	ReportCacheTTL = 24 * time.Hour

	// DefaultConfirmPendingAfter is the age after which pending notifications are confirmed
	DefaultConfirmPendingAfter = 72 * time.Hour
)
