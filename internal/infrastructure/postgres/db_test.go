package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/iho/reconledger/internal/infrastructure/metrics"
)

func TestNewPoolWithConfigDefaults(t *testing.T) {
	ctx := context.Background()

	// using invalid URL should return error
	if _, err := NewPoolWithConfig(ctx, PoolConfig{DatabaseURL: "not-a-url"}); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx := context.Background()
	cfg := PoolConfig{
		DatabaseURL: "postgres://invalid:5432/db",
		MaxConns:    1,
		MinConns:    0,
	}

	_, err := NewPoolWithConfig(ctx, cfg)
	if err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}

func TestQueryName(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{sql: "-- name: GetReportByID :one\nSELECT 1", want: "GetReportByID"},
		{sql: "  -- name: CreateSnapshot :exec\nINSERT INTO x", want: "CreateSnapshot"},
		{sql: "SELECT 1", want: "select"},
		{sql: "", want: "unknown"},
	}

	for _, tt := range tests {
		if got := queryName(tt.sql); got != tt.want {
			t.Errorf("queryName(%q) = %q, want %q", tt.sql, got, tt.want)
		}
	}
}

func TestQueryTracerRecordsQuery(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())
	tracer := NewQueryTracer(m, zerolog.Nop())

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "-- name: ListSnapshots :many\nSELECT"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("boom")})

	var metric dto.Metric
	if err := m.DBErrors.WithLabelValues("ListSnapshots").Write(&metric); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 error for ListSnapshots, got %v", got)
	}
}
