package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/adapter/http/dto"
	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
)

type patrimonyServiceStub struct {
	recalculated []domain.SnapshotTrigger
	baselines    int
}

func (s *patrimonyServiceStub) Recalculate(ctx context.Context, ownerID string, trigger domain.SnapshotTrigger) (*domain.PatrimonySnapshot, error) {
	s.recalculated = append(s.recalculated, trigger)
	return &domain.PatrimonySnapshot{ID: "snap-1", OwnerID: ownerID, Net: decimal.NewFromInt(1200), Trigger: trigger}, nil
}

func (s *patrimonyServiceStub) Baseline(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error) {
	s.baselines++
	return &domain.PatrimonySnapshot{ID: "snap-0", OwnerID: ownerID, Trigger: domain.TriggerBaseline}, nil
}

func (s *patrimonyServiceStub) Latest(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error) {
	return nil, domain.ErrSnapshotNotFound
}

func (s *patrimonyServiceStub) ListSnapshots(ctx context.Context, ownerID string, limit, offset int) ([]*domain.PatrimonySnapshot, error) {
	return []*domain.PatrimonySnapshot{{ID: "snap-1", OwnerID: ownerID}}, nil
}

func TestPatrimonyHandler_CreateDefaultsToManual(t *testing.T) {
	svc := &patrimonyServiceStub{}
	h := NewPatrimonyHandler(svc)

	rec := httptest.NewRecorder()
	h.Create(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/owners/own-1/snapshots", nil), "owner", "own-1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.recalculated) != 1 || svc.recalculated[0] != domain.TriggerManual {
		t.Fatalf("expected one manual recalculation, got %v", svc.recalculated)
	}

	var resp dto.SnapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.OwnerID != "own-1" || !resp.Net.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPatrimonyHandler_CreateBaseline(t *testing.T) {
	svc := &patrimonyServiceStub{}
	h := NewPatrimonyHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/owners/own-1/snapshots", bytes.NewBufferString(`{"trigger":"baseline"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, withURLParam(req, "owner", "own-1"))

	if rec.Code != http.StatusCreated || svc.baselines != 1 || len(svc.recalculated) != 0 {
		t.Fatalf("expected a baseline snapshot, got %d baselines=%d", rec.Code, svc.baselines)
	}
}

func TestPatrimonyHandler_CreateRejectsReconciliationTrigger(t *testing.T) {
	h := NewPatrimonyHandler(&patrimonyServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/owners/own-1/snapshots", bytes.NewBufferString(`{"trigger":"reconciliation"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, withURLParam(req, "owner", "own-1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPatrimonyHandler_ListAndLatest(t *testing.T) {
	h := NewPatrimonyHandler(&patrimonyServiceStub{})

	rec := httptest.NewRecorder()
	h.List(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/owners/own-1/snapshots", nil), "owner", "own-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Latest(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/owners/own-1/snapshots/latest", nil), "owner", "own-1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without snapshots, got %d", rec.Code)
	}
}

type instrumentServiceStub struct {
	created usecase.CreateInstrumentInput
}

func (s *instrumentServiceStub) Create(ctx context.Context, input usecase.CreateInstrumentInput) (*domain.Instrument, error) {
	s.created = input
	return &domain.Instrument{ID: "ins-1", OwnerID: input.OwnerID, Kind: input.Kind, BaselineDate: input.BaselineDate}, nil
}

func (s *instrumentServiceStub) Get(ctx context.Context, id string) (*domain.Instrument, error) {
	return nil, domain.ErrInstrumentNotFound
}

func (s *instrumentServiceStub) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Instrument, error) {
	return []*domain.Instrument{{ID: "ins-1", OwnerID: ownerID}}, nil
}

func TestInstrumentHandler(t *testing.T) {
	svc := &instrumentServiceStub{}
	h := NewInstrumentHandler(svc)

	body := `{"owner_id":"own-1","name":"Visa","kind":"liability","currency":"EUR","opening_balance":"300","baseline_date":"2025-01-01"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/instruments", bytes.NewBufferString(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.Kind != domain.InstrumentKindLiability || !svc.created.OpeningBalance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected input %+v", svc.created)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/instruments/x", nil), "id", "x"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ListByOwner(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/owners/own-1/instruments", nil), "owner", "own-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
