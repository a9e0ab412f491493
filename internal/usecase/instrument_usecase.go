package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
)

// InstrumentUseCase manages the accounts and cards of an owner.
type InstrumentUseCase struct {
	txManager      TransactionManager
	instrumentRepo InstrumentRepository
	idGen          IDGenerator
}

// NewInstrumentUseCase creates a new InstrumentUseCase.
func NewInstrumentUseCase(txManager TransactionManager, instrumentRepo InstrumentRepository, idGen IDGenerator) *InstrumentUseCase {
	return &InstrumentUseCase{
		txManager:      txManager,
		instrumentRepo: instrumentRepo,
		idGen:          idGen,
	}
}

// CreateInstrumentInput describes a new instrument.
type CreateInstrumentInput struct {
	OwnerID        string
	Name           string
	Kind           domain.InstrumentKind
	Currency       string
	OpeningBalance decimal.Decimal
	BaselineDate   time.Time
}

// Create registers an instrument. Transactions dated before its baseline are
// historical and never count toward balances.
func (uc *InstrumentUseCase) Create(ctx context.Context, input CreateInstrumentInput) (*domain.Instrument, error) {
	now := time.Now().UTC()
	instrument := &domain.Instrument{
		ID:             uc.idGen.Generate(),
		OwnerID:        strings.TrimSpace(input.OwnerID),
		Name:           strings.TrimSpace(input.Name),
		Kind:           input.Kind,
		Currency:       strings.ToUpper(strings.TrimSpace(input.Currency)),
		OpeningBalance: input.OpeningBalance,
		BaselineDate:   domain.DateOnly(input.BaselineDate),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := domain.ValidateInstrument(instrument); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.instrumentRepo.Create(ctx, tx, instrument); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return instrument, nil
}

// Get returns an instrument.
func (uc *InstrumentUseCase) Get(ctx context.Context, id string) (*domain.Instrument, error) {
	return uc.instrumentRepo.GetByID(ctx, id)
}

// ListByOwner returns the instruments of an owner.
func (uc *InstrumentUseCase) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Instrument, error) {
	return uc.instrumentRepo.ListByOwner(ctx, ownerID)
}
