package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/reconledger/internal/adapter/http/dto"
	"github.com/iho/reconledger/internal/domain"
)

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reports?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/reports?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParseDateQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tx?from=2025-03-01&to=03/31/2025", nil)

	from, err := parseDateQuery(req, "from")
	if err != nil || from == nil || from.Day() != 1 {
		t.Fatalf("unexpected from %v (%v)", from, err)
	}
	if _, err := parseDateQuery(req, "to"); !errors.Is(err, domain.ErrInvalidScope) {
		t.Fatalf("expected invalid scope for bad date, got %v", err)
	}
	if missing, err := parseDateQuery(req, "absent"); missing != nil || err != nil {
		t.Fatalf("expected nil for missing date, got %v (%v)", missing, err)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"instrument not found", domain.ErrInstrumentNotFound, http.StatusNotFound},
		{"report not found", domain.ErrReportNotFound, http.StatusNotFound},
		{"match not found", fmt.Errorf("load: %w", domain.ErrMatchNotFound), http.StatusNotFound},
		{"invalid scope", domain.ErrInvalidScope, http.StatusBadRequest},
		{"malformed record", &domain.MalformedRecordError{Ordinal: 2, Field: "amount", Err: errors.New("x")}, http.StatusBadRequest},
		{"zero amount", domain.ErrZeroAmount, http.StatusBadRequest},
		{"concurrent run", domain.ErrConcurrentRunConflict, http.StatusConflict},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict},
		{"already resolved", domain.ErrMatchAlreadyResolved, http.StatusConflict},
		{"stale match", fmt.Errorf("confirm: %w", domain.ErrMatchStale), http.StatusConflict},
		{"extraction failed", domain.ErrExtractionFailed, http.StatusUnprocessableEntity},
		{"currency mismatch", domain.ErrCurrencyMismatch, http.StatusUnprocessableEntity},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteDomainErrorRetryable(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconciliations", nil)

	writeDomainError(rr, req, "reconciliation failed", domain.ErrConcurrentRunConflict)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After on a retryable conflict")
	}
}

func TestWriteDomainErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliations/x", nil)

	writeDomainError(rr, req, "failed to get report", errors.New("pq: connection refused on 10.0.0.3"))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if rr.Code != http.StatusInternalServerError || resp.Message != "" {
		t.Fatalf("expected bare 500, got %d %+v", rr.Code, resp)
	}
}

func TestWriteDomainErrorValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/instruments", nil)

	writeDomainError(rr, req, "invalid request", &dto.ValidationError{Fields: map[string]string{"name": "is required"}})

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if rr.Code != http.StatusBadRequest || resp.Fields["name"] != "is required" {
		t.Fatalf("expected field errors, got %d %+v", rr.Code, resp)
	}
}
