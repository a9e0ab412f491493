package domain

import "time"

// Event types
const (
	EventTypeReconciliationCompleted  = "reconciliation.completed"
	EventTypeLedgerTransactionCreated = "ledger_transaction.created"
	EventTypeTransactionCategorized   = "ledger_transaction.categorized"
	EventTypeMatchResolved            = "match.resolved"
	EventTypeSnapshotAppended         = "patrimony_snapshot.appended"
)

// Aggregate types
const (
	AggregateTypeReport            = "reconciliation_report"
	AggregateTypeLedgerTransaction = "ledger_transaction"
	AggregateTypeSnapshot          = "patrimony_snapshot"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// LedgerTransactionCreatedEvent payload
type LedgerTransactionCreatedEvent struct {
	TransactionID string `json:"transaction_id"`
	OwnerID       string `json:"owner_id"`
	InstrumentID  string `json:"instrument_id"`
	Label         string `json:"label"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}
