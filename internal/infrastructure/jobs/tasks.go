package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/iho/reconledger/internal/domain"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLow holds work nobody waits on.
	QueueLow = "low"

	// TaskCategorize hands a new ledger transaction to the categorizer.
	TaskCategorize = "ledger:categorize"
	// TaskConfirmElapsed confirms pending transactions nobody contradicted in time.
	TaskConfirmElapsed = "ledger:confirm-elapsed"
	// TaskPeriodicSnapshot appends a periodic patrimony snapshot for an owner.
	TaskPeriodicSnapshot = "patrimony:snapshot"
)

// ConfirmElapsedPayload parameterises TaskConfirmElapsed. An empty OwnerID
// covers every owner.
type ConfirmElapsedPayload struct {
	OwnerID   string        `json:"owner_id"`
	OlderThan time.Duration `json:"older_than"`
}

// PeriodicSnapshotPayload parameterises TaskPeriodicSnapshot.
type PeriodicSnapshotPayload struct {
	OwnerID string `json:"owner_id"`
}

// NewCategorizeTask builds a categorization task for a created transaction.
func NewCategorizeTask(event domain.LedgerTransactionCreatedEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCategorize, data, asynq.Queue(QueueLow), asynq.MaxRetry(5)), nil
}

// NewConfirmElapsedTask builds a pending-confirmation sweep task.
func NewConfirmElapsedTask(ownerID string, olderThan time.Duration) (*asynq.Task, error) {
	if olderThan <= 0 {
		return nil, fmt.Errorf("confirm elapsed: non-positive age %s", olderThan)
	}
	data, err := json.Marshal(ConfirmElapsedPayload{OwnerID: ownerID, OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConfirmElapsed, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewPeriodicSnapshotTask builds a periodic snapshot task for an owner.
func NewPeriodicSnapshotTask(ownerID string) (*asynq.Task, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("periodic snapshot: owner required")
	}
	data, err := json.Marshal(PeriodicSnapshotPayload{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPeriodicSnapshot, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
