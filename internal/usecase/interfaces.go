package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
)

// InstrumentRepository defines data access for instruments.
type InstrumentRepository interface {
	Create(ctx context.Context, tx Transaction, instrument *domain.Instrument) error
	GetByID(ctx context.Context, id string) (*domain.Instrument, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Instrument, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Instrument, error)
}

// LedgerFilter narrows ledger transaction listings.
type LedgerFilter struct {
	OwnerID      string
	InstrumentID string
	From         *time.Time
	To           *time.Time
	State        domain.TransactionState
	Limit        int
	Offset       int
}

// LedgerTransactionRepository defines data access for ledger transactions.
type LedgerTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.LedgerTransaction) error
	Update(ctx context.Context, tx Transaction, t *domain.LedgerTransaction) error
	GetByID(ctx context.Context, id string) (*domain.LedgerTransaction, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.LedgerTransaction, error)
	GetBySourceMessage(ctx context.Context, instrumentID, messageID string) (*domain.LedgerTransaction, error)
	// ListCandidates returns non-cancelled transactions of the instrument dated
	// in [from, to], locked for the rest of the transaction.
	ListCandidates(ctx context.Context, tx Transaction, instrumentID string, from, to time.Time) ([]*domain.LedgerTransaction, error)
	List(ctx context.Context, filter LedgerFilter) ([]*domain.LedgerTransaction, error)
	// SumContributing adds the amounts of counted, non-historical transactions
	// per instrument of the owner. A non-nil before limits it to earlier dates.
	// A nil tx reads outside any transaction.
	SumContributing(ctx context.Context, tx Transaction, ownerID string, before *time.Time) (map[string]decimal.Decimal, error)
	ConfirmPendingBefore(ctx context.Context, ownerID string, before, now time.Time) (int64, error)
	CountUnlinkedReconciled(ctx context.Context, ownerID string) (int, error)
}

// StoredReport pairs a report with the exact bytes it was stored as.
type StoredReport struct {
	Report  *domain.ReconciliationReport
	Payload []byte
}

// ReportRepository defines data access for reconciliation reports.
type ReportRepository interface {
	Create(ctx context.Context, tx Transaction, report *StoredReport) error
	GetByID(ctx context.Context, id string) (*StoredReport, error)
	GetByFingerprint(ctx context.Context, instrumentID, fingerprint string) (*StoredReport, error)
	GetByMatchID(ctx context.Context, matchID string) (*StoredReport, error)
	ListByInstrument(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.ReconciliationReport, error)
}

// SnapshotRepository defines data access for patrimony snapshots.
type SnapshotRepository interface {
	Create(ctx context.Context, tx Transaction, snapshot *domain.PatrimonySnapshot) error
	Latest(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.PatrimonySnapshot, error)
}

// ResolutionRepository stores user decisions on tentative matches.
type ResolutionRepository interface {
	Create(ctx context.Context, tx Transaction, resolution *domain.MatchResolution) error
	// GetByMatchID returns nil without error when the match is unresolved.
	GetByMatchID(ctx context.Context, matchID string) (*domain.MatchResolution, error)
	ListByReport(ctx context.Context, reportID string) ([]*domain.MatchResolution, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete frees a key whose request failed so the client can retry it.
	Delete(ctx context.Context, key string) error
}
