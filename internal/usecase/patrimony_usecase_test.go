package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
	"github.com/iho/reconledger/internal/usecase/mocks"
)

func newPatrimonyUseCase(snapshots *mocks.MockSnapshotRepository, outbox *mocks.MockOutboxRepository, txs ...*domain.LedgerTransaction) *usecase.PatrimonyUseCase {
	checking := &domain.Instrument{
		ID:             "acct-1",
		OwnerID:        "owner-1",
		Name:           "Cuenta corriente",
		Kind:           domain.InstrumentKindAsset,
		Currency:       "CLP",
		OpeningBalance: decimal.NewFromInt(500000),
		BaselineDate:   day(1, 1),
	}
	card := creditCard()
	card.OpeningBalance = decimal.NewFromInt(100000)

	return usecase.NewPatrimonyUseCase(
		mocks.NewMockTransactionManager(),
		mocks.NewMockInstrumentRepository(checking, card),
		mocks.NewMockLedgerTransactionRepository(txs...),
		snapshots,
		outbox,
		mocks.NewMockIDGenerator(),
		nil,
		zerolog.Nop(),
	)
}

func TestPatrimonyUseCase_Baseline(t *testing.T) {
	snapshots := mocks.NewMockSnapshotRepository()
	uc := newPatrimonyUseCase(snapshots, mocks.NewMockOutboxRepository(),
		notification("tx-1", "COMPASS", "-150", day(10, 3)))

	snapshot, err := uc.Baseline(context.Background(), "owner-1")
	require.NoError(t, err)

	assert.Equal(t, domain.TriggerBaseline, snapshot.Trigger)
	assert.True(t, snapshot.Assets.Equal(decimal.NewFromInt(500000)))
	assert.True(t, snapshot.Liabilities.Equal(decimal.NewFromInt(100000)))
	assert.True(t, snapshot.Net.Equal(decimal.NewFromInt(400000)), "baseline ignores recorded transactions")

	_, err = uc.Baseline(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrInstrumentNotFound)
}

func TestPatrimonyUseCase_Recalculate(t *testing.T) {
	historical := notification("tx-old", "OLD", "-999", day(1, 1).AddDate(0, 0, -10))
	historical.IsHistorical = true
	cancelled := notification("tx-gone", "GONE", "-700", day(10, 5))
	cancelled.State = domain.StateCancelled

	snapshots := mocks.NewMockSnapshotRepository()
	outbox := mocks.NewMockOutboxRepository()
	uc := newPatrimonyUseCase(snapshots, outbox,
		notification("tx-1", "COMPASS", "-150", day(10, 3)),
		historical,
		cancelled,
	)

	snapshot, err := uc.Recalculate(context.Background(), "owner-1", domain.TriggerManual)
	require.NoError(t, err)

	// Card debt grows by the 150 charge; historical and cancelled rows are ignored.
	assert.True(t, snapshot.Liabilities.Equal(decimal.NewFromInt(100150)), snapshot.Liabilities.String())
	assert.True(t, snapshot.Net.Equal(decimal.NewFromInt(399850)), snapshot.Net.String())
	assert.Nil(t, snapshot.ReportID)
	assert.Len(t, outbox.EventsOfType(domain.EventTypeSnapshotAppended), 1)

	latest, err := uc.Latest(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, latest.ID)
}

func TestPatrimonyUseCase_RecalculateRejectsInternalTriggers(t *testing.T) {
	uc := newPatrimonyUseCase(mocks.NewMockSnapshotRepository(), mocks.NewMockOutboxRepository())

	for _, trigger := range []domain.SnapshotTrigger{domain.TriggerReconciliation, domain.TriggerBaseline, "weekly"} {
		_, err := uc.Recalculate(context.Background(), "owner-1", trigger)
		assert.ErrorIs(t, err, domain.ErrInvalidTrigger, string(trigger))
	}
}

func TestPatrimonyUseCase_SnapshotsAreAppendOnly(t *testing.T) {
	snapshots := mocks.NewMockSnapshotRepository()
	uc := newPatrimonyUseCase(snapshots, mocks.NewMockOutboxRepository())

	_, err := uc.Baseline(context.Background(), "owner-1")
	require.NoError(t, err)
	_, err = uc.Recalculate(context.Background(), "owner-1", domain.TriggerPeriodic)
	require.NoError(t, err)

	list, err := uc.ListSnapshots(context.Background(), "owner-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.TriggerPeriodic, list[0].Trigger)
	assert.Equal(t, domain.TriggerBaseline, list[1].Trigger)
}

func TestPatrimonyUseCase_WriteFailureSurfaces(t *testing.T) {
	snapshots := mocks.NewMockSnapshotRepository()
	snapshots.CreateFunc = func(context.Context, usecase.Transaction, *domain.PatrimonySnapshot) error {
		return errors.New("disk full")
	}
	uc := newPatrimonyUseCase(snapshots, mocks.NewMockOutboxRepository())

	_, err := uc.Recalculate(context.Background(), "owner-1", domain.TriggerManual)
	assert.EqualError(t, err, "disk full")
}
