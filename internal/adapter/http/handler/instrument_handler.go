package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/reconledger/internal/adapter/http/dto"
	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
)

// InstrumentService defines the behavior needed by InstrumentHandler.
type InstrumentService interface {
	Create(ctx context.Context, input usecase.CreateInstrumentInput) (*domain.Instrument, error)
	Get(ctx context.Context, id string) (*domain.Instrument, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Instrument, error)
}

// InstrumentHandler handles instrument-related HTTP requests.
type InstrumentHandler struct {
	instrumentUC InstrumentService
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(instrumentUC InstrumentService) *InstrumentHandler {
	return &InstrumentHandler{instrumentUC: instrumentUC}
}

// Create registers an instrument.
func (h *InstrumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInstrumentRequest
	if err := dto.Decode(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	instrument, err := h.instrumentUC.Create(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create instrument", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.InstrumentFromDomain(instrument))
}

// Get retrieves an instrument by ID.
func (h *InstrumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing instrument ID", "")
		return
	}

	instrument, err := h.instrumentUC.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get instrument", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InstrumentFromDomain(instrument))
}

// ListByOwner lists the instruments of an owner.
func (h *InstrumentHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner")

	instruments, err := h.instrumentUC.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, r, "failed to list instruments", err)
		return
	}

	resp := make([]*dto.InstrumentResponse, len(instruments))
	for i, instrument := range instruments {
		resp[i] = dto.InstrumentFromDomain(instrument)
	}
	writeJSON(w, http.StatusOK, resp)
}
