package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
)

type fakeConfirmer struct {
	ownerID   string
	olderThan time.Duration
	err       error
}

func (f *fakeConfirmer) ConfirmElapsed(_ context.Context, ownerID string, olderThan time.Duration) (int64, error) {
	f.ownerID, f.olderThan = ownerID, olderThan
	return 3, f.err
}

type fakeRecalculator struct {
	owners []string
}

func (f *fakeRecalculator) Recalculate(_ context.Context, ownerID string, trigger domain.SnapshotTrigger) (*domain.PatrimonySnapshot, error) {
	if trigger != domain.TriggerPeriodic {
		return nil, domain.ErrInvalidTrigger
	}
	f.owners = append(f.owners, ownerID)
	return &domain.PatrimonySnapshot{ID: "snap-1", OwnerID: ownerID, Trigger: trigger}, nil
}

type recordedCategory struct {
	transactionID string
	category      string
}

type fakeRecorder struct {
	recorded []recordedCategory
	err      error
}

func (f *fakeRecorder) RecordCategory(_ context.Context, transactionID, category string) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, recordedCategory{transactionID, category})
	return nil
}

type failingCategorizer struct{}

func (failingCategorizer) Classify(context.Context, CategorizeInput) (string, error) {
	return "", errors.New("classifier unavailable")
}

func jobCount(t *testing.T, m *metrics.Metrics, task, status string) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, m.JobsProcessed.WithLabelValues(task, status).Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestNewConfirmElapsedTask(t *testing.T) {
	task, err := NewConfirmElapsedTask("", 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, TaskConfirmElapsed, task.Type())

	var payload ConfirmElapsedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 72*time.Hour, payload.OlderThan)

	_, err = NewConfirmElapsedTask("owner-1", 0)
	assert.Error(t, err)
}

func TestNewPeriodicSnapshotTaskRequiresOwner(t *testing.T) {
	_, err := NewPeriodicSnapshotTask("")
	assert.Error(t, err)

	task, err := NewPeriodicSnapshotTask("owner-1")
	require.NoError(t, err)
	assert.Equal(t, TaskPeriodicSnapshot, task.Type())
}

func TestConfirmElapsedJob(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())
	confirmer := &fakeConfirmer{}
	job := NewConfirmElapsedJob(confirmer, m, zerolog.Nop())

	task, err := NewConfirmElapsedTask("owner-1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, "owner-1", confirmer.ownerID)
	assert.Equal(t, time.Hour, confirmer.olderThan)
	assert.Equal(t, 1.0, jobCount(t, m, TaskConfirmElapsed, "ok"))

	confirmer.err = errors.New("db down")
	assert.Error(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1.0, jobCount(t, m, TaskConfirmElapsed, "failed"))
}

func TestConfirmElapsedJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewConfirmElapsedJob(&fakeConfirmer{}, nil, zerolog.Nop())

	err := job.Handle(context.Background(), asynq.NewTask(TaskConfirmElapsed, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPeriodicSnapshotJob(t *testing.T) {
	recalc := &fakeRecalculator{}
	job := NewPeriodicSnapshotJob(recalc, nil, zerolog.Nop())

	task, err := NewPeriodicSnapshotTask("owner-7")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"owner-7"}, recalc.owners)
}

func TestCategorizeJob(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())
	categorizer := NewKeywordCategorizer([]string{"Uber", "Lider"}, map[string]string{
		"Uber":  "transport",
		"Lider": "groceries",
	})

	task, err := NewCategorizeTask(domain.LedgerTransactionCreatedEvent{
		TransactionID: "tx-1",
		Label:         "UBER *TRIP",
		Amount:        "-5200",
		Currency:      "CLP",
	})
	require.NoError(t, err)

	recorder := &fakeRecorder{}
	require.NoError(t, NewCategorizeJob(categorizer, recorder, m, zerolog.Nop()).Handle(context.Background(), task))
	assert.Equal(t, 1.0, jobCount(t, m, TaskCategorize, "ok"))
	assert.Equal(t, []recordedCategory{{"tx-1", "transport"}}, recorder.recorded)

	t.Run("classifier failure is retried", func(t *testing.T) {
		err := NewCategorizeJob(failingCategorizer{}, &fakeRecorder{}, m, zerolog.Nop()).Handle(context.Background(), task)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("store failure is retried", func(t *testing.T) {
		failing := &fakeRecorder{err: errors.New("db down")}
		err := NewCategorizeJob(categorizer, failing, m, zerolog.Nop()).Handle(context.Background(), task)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("vanished transaction is skipped", func(t *testing.T) {
		gone := &fakeRecorder{err: domain.ErrTransactionNotFound}
		err := NewCategorizeJob(categorizer, gone, m, zerolog.Nop()).Handle(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestKeywordCategorizer(t *testing.T) {
	c := NewKeywordCategorizer([]string{"Café Central", "Uber", "uber eats"}, map[string]string{
		"Café Central": "restaurants",
		"Uber":         "transport",
		"uber eats":    "restaurants",
	})

	tests := []struct {
		label string
		want  string
	}{
		{label: "CAFE CENTRAL SANTIAGO", want: "restaurants"},
		{label: "Uber Eats", want: "transport"},
		{label: "Netflix", want: Uncategorized},
	}

	for _, tt := range tests {
		got, err := c.Classify(context.Background(), CategorizeInput{Label: tt.label})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.label)
	}
}
