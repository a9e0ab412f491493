package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/reconledger/internal/adapter/http/dto"
	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Ingest(ctx context.Context, input usecase.IngestInput) (*domain.LedgerTransaction, error)
	Get(ctx context.Context, id string) (*domain.LedgerTransaction, error)
	List(ctx context.Context, filter usecase.LedgerFilter) ([]*domain.LedgerTransaction, error)
	CheckConsistency(ctx context.Context, ownerID string) (*usecase.ConsistencyReport, error)
}

// LedgerHandler handles ledger transactions and consistency checks.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Create records a transaction from a real-time source.
func (h *LedgerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestTransactionRequest
	if err := dto.Decode(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	t, err := h.ledgerUC.Ingest(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to record transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerTransactionFromDomain(t))
}

// Get retrieves a ledger transaction by ID.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	t, err := h.ledgerUC.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerTransactionFromDomain(t))
}

// List lists ledger transactions by owner or instrument and date range.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}

	q := r.URL.Query()
	txs, err := h.ledgerUC.List(r.Context(), usecase.LedgerFilter{
		OwnerID:      q.Get("owner"),
		InstrumentID: q.Get("instrument"),
		From:         from,
		To:           to,
		State:        domain.TransactionState(q.Get("state")),
		Limit:        parseIntQuery(r, "limit", 50),
		Offset:       parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerTransactionsFromDomain(txs))
}

// CheckConsistency verifies the owner's ledger invariants. An inconsistent
// ledger answers 409 with the findings.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "missing owner", "")
		return
	}

	report, err := h.ledgerUC.CheckConsistency(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, r, "failed to check consistency", err)
		return
	}

	status := http.StatusOK
	if !report.Consistent {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ConsistencyFromUseCase(report))
}
