package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/reconledger/internal/adapter/http/dto"
	"github.com/iho/reconledger/internal/domain"
)

// PatrimonyService defines the behavior needed by PatrimonyHandler.
type PatrimonyService interface {
	Recalculate(ctx context.Context, ownerID string, trigger domain.SnapshotTrigger) (*domain.PatrimonySnapshot, error)
	Baseline(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error)
	Latest(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error)
	ListSnapshots(ctx context.Context, ownerID string, limit, offset int) ([]*domain.PatrimonySnapshot, error)
}

// PatrimonyHandler handles patrimony snapshots.
type PatrimonyHandler struct {
	patrimonyUC PatrimonyService
}

// NewPatrimonyHandler creates a new PatrimonyHandler.
func NewPatrimonyHandler(patrimonyUC PatrimonyService) *PatrimonyHandler {
	return &PatrimonyHandler{patrimonyUC: patrimonyUC}
}

// Create appends a snapshot for the owner. An empty body takes a manual one.
func (h *PatrimonyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner")

	var req dto.RecalculateRequest
	if err := dto.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeRequestError(w, r, err)
		return
	}

	var (
		snapshot *domain.PatrimonySnapshot
		err      error
	)
	if trigger := req.TriggerOrDefault(); trigger == domain.TriggerBaseline {
		snapshot, err = h.patrimonyUC.Baseline(r.Context(), ownerID)
	} else {
		snapshot, err = h.patrimonyUC.Recalculate(r.Context(), ownerID, trigger)
	}
	if err != nil {
		writeDomainError(w, r, "failed to append snapshot", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SnapshotFromDomain(snapshot))
}

// List lists the owner's snapshots, newest first.
func (h *PatrimonyHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner")

	snapshots, err := h.patrimonyUC.ListSnapshots(r.Context(), ownerID, parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, "failed to list snapshots", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SnapshotsFromDomain(snapshots))
}

// Latest returns the owner's most recent snapshot.
func (h *PatrimonyHandler) Latest(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.patrimonyUC.Latest(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		writeDomainError(w, r, "failed to get snapshot", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SnapshotFromDomain(snapshot))
}
