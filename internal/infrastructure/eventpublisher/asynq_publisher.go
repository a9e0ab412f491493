package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/jobs"
)

// Enqueuer submits tasks to the job queue.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher turns outbox events into background tasks. Events without a
// task are handed to the fallback publisher.
type AsynqPublisher struct {
	enqueuer Enqueuer
	fallback Publisher
}

// NewAsynqPublisher creates an AsynqPublisher.
func NewAsynqPublisher(enqueuer Enqueuer, fallback Publisher) *AsynqPublisher {
	return &AsynqPublisher{enqueuer: enqueuer, fallback: fallback}
}

// Publish enqueues the task for event. The event id doubles as the task id so
// a re-published event never runs twice.
func (p *AsynqPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	task, err := taskFor(event)
	if err != nil {
		return err
	}
	if task == nil {
		if p.fallback == nil {
			return nil
		}
		return p.fallback.Publish(ctx, event)
	}

	_, err = p.enqueuer.EnqueueContext(ctx, task, asynq.TaskID(event.ID))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func taskFor(event *domain.OutboxEvent) (*asynq.Task, error) {
	switch event.EventType {
	case domain.EventTypeLedgerTransactionCreated:
		var payload domain.LedgerTransactionCreatedEvent
		if err := decodePayload(event.Payload, &payload); err != nil {
			return nil, fmt.Errorf("event %s: %w", event.ID, err)
		}
		return jobs.NewCategorizeTask(payload)
	default:
		return nil, nil
	}
}

func decodePayload(payload map[string]any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
