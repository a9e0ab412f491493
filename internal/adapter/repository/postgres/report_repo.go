package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/infrastructure/postgres/generated"
	"github.com/iho/reconledger/internal/usecase"
)

// ReportRepository implements usecase.ReportRepository.
type ReportRepository struct {
	queries *generated.Queries
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db generated.DBTX) *ReportRepository {
	return &ReportRepository{
		queries: generated.New(db),
	}
}

// Create stores a report with its serialized payload and indexes its matches.
func (r *ReportRepository) Create(ctx context.Context, tx usecase.Transaction, stored *usecase.StoredReport) error {
	queries := generated.New(tx.(*Tx).PgxTx())
	report := stored.Report

	err := queries.CreateReport(ctx, generated.CreateReportParams{
		ID:           report.ID,
		OwnerID:      report.Scope.OwnerID,
		InstrumentID: report.Scope.InstrumentID,
		PeriodStart:  timeToPgDate(report.Scope.PeriodStart),
		PeriodEnd:    timeToPgDate(report.Scope.PeriodEnd),
		Fingerprint:  report.Fingerprint,
		Status:       string(report.Status),
		SnapshotID:   stringPtrToText(report.SnapshotID),
		Payload:      stored.Payload,
		RunAt:        timeToPgTimestamptz(report.RunAt),
	})
	if err != nil {
		return err
	}

	for _, m := range report.Matches {
		err := queries.CreateReportMatch(ctx, generated.CreateReportMatchParams{
			MatchID:  m.ID,
			ReportID: report.ID,
		})
		if err != nil {
			return fmt.Errorf("index match %s: %w", m.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*usecase.StoredReport, error) {
	row, err := r.queries.GetReportByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}

		return nil, err
	}

	return rowToStoredReport(row)
}

// GetByFingerprint retrieves the report an instrument stored for a fingerprint.
func (r *ReportRepository) GetByFingerprint(ctx context.Context, instrumentID, fingerprint string) (*usecase.StoredReport, error) {
	row, err := r.queries.GetReportByFingerprint(ctx, generated.GetReportByFingerprintParams{
		InstrumentID: instrumentID,
		Fingerprint:  fingerprint,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}

		return nil, err
	}

	return rowToStoredReport(row)
}

// GetByMatchID retrieves the report that produced a match.
func (r *ReportRepository) GetByMatchID(ctx context.Context, matchID string) (*usecase.StoredReport, error) {
	row, err := r.queries.GetReportByMatchID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}

		return nil, err
	}

	return rowToStoredReport(row)
}

// ListByInstrument lists an instrument's reports, newest first.
func (r *ReportRepository) ListByInstrument(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.ReconciliationReport, error) {
	rows, err := r.queries.ListReportsByInstrument(ctx, generated.ListReportsByInstrumentParams{
		InstrumentID: instrumentID,
		PageLimit:    int32(limit),
		PageOffset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	reports := make([]*domain.ReconciliationReport, 0, len(rows))
	for _, row := range rows {
		stored, err := rowToStoredReport(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, stored.Report)
	}

	return reports, nil
}

func rowToStoredReport(row generated.ReconciliationReport) (*usecase.StoredReport, error) {
	var report domain.ReconciliationReport
	if err := json.Unmarshal(row.Payload, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", row.ID, err)
	}

	return &usecase.StoredReport{Report: &report, Payload: row.Payload}, nil
}
