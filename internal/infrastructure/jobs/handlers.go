package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
)

// PendingConfirmer confirms pending transactions past their contradiction window.
type PendingConfirmer interface {
	ConfirmElapsed(ctx context.Context, ownerID string, olderThan time.Duration) (int64, error)
}

// SnapshotRecalculator appends patrimony snapshots.
type SnapshotRecalculator interface {
	Recalculate(ctx context.Context, ownerID string, trigger domain.SnapshotTrigger) (*domain.PatrimonySnapshot, error)
}

// CategoryRecorder persists the category assigned to a transaction.
type CategoryRecorder interface {
	RecordCategory(ctx context.Context, transactionID, category string) error
}

// CategorizeJob handles TaskCategorize.
type CategorizeJob struct {
	categorizer Categorizer
	recorder    CategoryRecorder
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewCategorizeJob creates a CategorizeJob.
func NewCategorizeJob(categorizer Categorizer, recorder CategoryRecorder, m *metrics.Metrics, logger zerolog.Logger) *CategorizeJob {
	return &CategorizeJob{categorizer: categorizer, recorder: recorder, metrics: m, logger: logger}
}

// Handle classifies the transaction carried by the task and records the
// result. A transaction deleted since the event was staged is skipped.
func (j *CategorizeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var event domain.LedgerTransactionCreatedEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		observe(j.metrics, TaskCategorize, "invalid")
		return fmt.Errorf("decode categorize payload: %v: %w", err, asynq.SkipRetry)
	}

	category, err := j.categorizer.Classify(ctx, CategorizeInput{
		TransactionID: event.TransactionID,
		OwnerID:       event.OwnerID,
		Label:         event.Label,
		Amount:        event.Amount,
		Currency:      event.Currency,
	})
	if err != nil {
		observe(j.metrics, TaskCategorize, "failed")
		return err
	}

	if err := j.recorder.RecordCategory(ctx, event.TransactionID, category); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			observe(j.metrics, TaskCategorize, "invalid")
			return fmt.Errorf("record category: %v: %w", err, asynq.SkipRetry)
		}
		observe(j.metrics, TaskCategorize, "failed")
		return err
	}

	observe(j.metrics, TaskCategorize, "ok")
	j.logger.Info().
		Str("transaction_id", event.TransactionID).
		Str("category", category).
		Msg("transaction categorized")
	return nil
}

// ConfirmElapsedJob handles TaskConfirmElapsed.
type ConfirmElapsedJob struct {
	ledger  PendingConfirmer
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewConfirmElapsedJob creates a ConfirmElapsedJob.
func NewConfirmElapsedJob(ledger PendingConfirmer, m *metrics.Metrics, logger zerolog.Logger) *ConfirmElapsedJob {
	return &ConfirmElapsedJob{ledger: ledger, metrics: m, logger: logger}
}

// Handle runs one confirmation sweep.
func (j *ConfirmElapsedJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ConfirmElapsedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OlderThan <= 0 {
		observe(j.metrics, TaskConfirmElapsed, "invalid")
		return fmt.Errorf("decode confirm payload: %w", asynq.SkipRetry)
	}

	n, err := j.ledger.ConfirmElapsed(ctx, payload.OwnerID, payload.OlderThan)
	if err != nil {
		observe(j.metrics, TaskConfirmElapsed, "failed")
		return err
	}

	observe(j.metrics, TaskConfirmElapsed, "ok")
	j.logger.Debug().Int64("confirmed", n).Msg("confirmation sweep finished")
	return nil
}

// PeriodicSnapshotJob handles TaskPeriodicSnapshot.
type PeriodicSnapshotJob struct {
	patrimony SnapshotRecalculator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewPeriodicSnapshotJob creates a PeriodicSnapshotJob.
func NewPeriodicSnapshotJob(patrimony SnapshotRecalculator, m *metrics.Metrics, logger zerolog.Logger) *PeriodicSnapshotJob {
	return &PeriodicSnapshotJob{patrimony: patrimony, metrics: m, logger: logger}
}

// Handle appends a periodic snapshot for the owner in the task.
func (j *PeriodicSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PeriodicSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OwnerID == "" {
		observe(j.metrics, TaskPeriodicSnapshot, "invalid")
		return fmt.Errorf("decode snapshot payload: %w", asynq.SkipRetry)
	}

	snapshot, err := j.patrimony.Recalculate(ctx, payload.OwnerID, domain.TriggerPeriodic)
	if err != nil {
		observe(j.metrics, TaskPeriodicSnapshot, "failed")
		return err
	}

	observe(j.metrics, TaskPeriodicSnapshot, "ok")
	j.logger.Debug().Str("snapshot_id", snapshot.ID).Msg("periodic snapshot appended")
	return nil
}

func observe(m *metrics.Metrics, task, status string) {
	if m != nil {
		m.JobsProcessed.WithLabelValues(task, status).Inc()
	}
}
