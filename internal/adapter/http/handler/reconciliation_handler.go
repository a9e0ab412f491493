package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/reconledger/internal/adapter/http/dto"
	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/extraction"
	"github.com/iho/reconledger/internal/usecase"
)

// ReplayHeader marks a report returned for an already reconciled statement.
const ReplayHeader = "X-Reconciliation-Replay"

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	Reconcile(ctx context.Context, scope domain.Scope, input domain.StatementInput) (*usecase.ReconcileResult, error)
	ReconcileDocument(ctx context.Context, scope domain.Scope, format string, raw []byte) (*usecase.ReconcileResult, error)
	GetReport(ctx context.Context, id string) (*usecase.StoredReport, []*domain.MatchResolution, error)
	ListReports(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.ReconciliationReport, error)
	ConfirmMatch(ctx context.Context, matchID string) (*domain.MatchResolution, error)
	RejectMatch(ctx context.Context, matchID string) (*domain.MatchResolution, error)
}

// ReconciliationHandler handles reconciliation runs and match decisions.
type ReconciliationHandler struct {
	reconUC          ReconciliationService
	maxDocumentBytes int64
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService, maxDocumentBytes int64) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC, maxDocumentBytes: maxDocumentBytes}
}

// Create reconciles a statement submitted as rows.
func (h *ReconciliationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.maxDocumentBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxDocumentBytes)
	}

	var req dto.ReconcileRequest
	if err := dto.Decode(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	result, err := h.reconUC.Reconcile(r.Context(), req.Scope.ToDomain(), req.ToDomain())
	if err != nil {
		writeDomainError(w, r, "reconciliation failed", err)
		return
	}

	writeReport(w, result)
}

// CreateFromDocument reconciles a raw statement document. The scope comes
// from the owner, instrument, from and to query parameters.
func (h *ReconciliationHandler) CreateFromDocument(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scopeReq := dto.ScopeRequest{
		OwnerID:      q.Get("owner"),
		InstrumentID: q.Get("instrument"),
		PeriodStart:  q.Get("from"),
		PeriodEnd:    q.Get("to"),
	}
	if err := dto.Validate(scopeReq); err != nil {
		writeDomainError(w, r, "invalid scope", err)
		return
	}

	format := q.Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}

	body := io.Reader(r.Body)
	if h.maxDocumentBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxDocumentBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "statement too large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.reconUC.ReconcileDocument(r.Context(), scopeReq.ToDomain(), format, raw)
	if err != nil {
		writeDomainError(w, r, "reconciliation failed", err)
		return
	}

	writeReport(w, result)
}

// Get returns a stored report with its resolutions.
func (h *ReconciliationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing report ID", "")
		return
	}

	stored, resolutions, err := h.reconUC.GetReport(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromStored(stored, resolutions))
}

// ListByInstrument lists the reports of an instrument, newest first.
func (h *ReconciliationHandler) ListByInstrument(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "id")
	if instrumentID == "" {
		writeError(w, http.StatusBadRequest, "missing instrument ID", "")
		return
	}

	reports, err := h.reconUC.ListReports(r.Context(), instrumentID, parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, "failed to list reports", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportSummariesFromDomain(reports))
}

// Confirm accepts a tentative match.
func (h *ReconciliationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.reconUC.ConfirmMatch)
}

// Reject declares the sides of a tentative match unrelated.
func (h *ReconciliationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.reconUC.RejectMatch)
}

func (h *ReconciliationHandler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, matchID string) (*domain.MatchResolution, error),
) {
	matchID := chi.URLParam(r, "id")
	if matchID == "" {
		writeError(w, http.StatusBadRequest, "missing match ID", "")
		return
	}

	resolution, err := action(r.Context(), matchID)
	if err != nil {
		writeDomainError(w, r, "failed to resolve match", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ResolutionFromDomain(resolution))
}

// writeReport writes the report bytes exactly as stored.
func writeReport(w http.ResponseWriter, result *usecase.ReconcileResult) {
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
		w.Header().Set(ReplayHeader, "true")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(result.Payload)
}

// writeRequestError answers a body that could not be decoded or validated.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "statement too large", err.Error())
		return
	}
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		writeDomainError(w, r, "invalid request", err)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
}

func formatFromContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "text/csv", "application/csv":
		return extraction.FormatCSV
	case "application/json":
		return extraction.FormatJSON
	}
	return ""
}
