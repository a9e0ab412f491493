package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/reconledger/internal/infrastructure/metrics"
)

// PoolConfig configures the PostgreSQL connection pool.
type PoolConfig struct {
	DatabaseURL string
	MaxConns    int
	MinConns    int
	// Metrics enables per-query instrumentation when set.
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int) (*pgxpool.Pool, error) {
	return NewPoolWithConfig(ctx, PoolConfig{
		DatabaseURL: databaseURL,
		MaxConns:    maxConns,
		MinConns:    minConns,
		Logger:      zerolog.Nop(),
	})
}

// NewPoolWithConfig creates a connection pool, optionally traced into metrics.
func NewPoolWithConfig(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	}
	config.MinConns = int32(cfg.MinConns)

	if cfg.Metrics != nil {
		config.ConnConfig.Tracer = &QueryTracer{metrics: cfg.Metrics, logger: cfg.Logger}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

type traceKey struct{}

type traceData struct {
	query string
	start time.Time
}

// QueryTracer records every statement into the database metrics, labelled
// with the sqlc query name, and keeps the pool gauge current.
type QueryTracer struct {
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewQueryTracer creates a QueryTracer.
func NewQueryTracer(m *metrics.Metrics, logger zerolog.Logger) *QueryTracer {
	return &QueryTracer{metrics: m, logger: logger}
}

// TraceQueryStart implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceData{query: queryName(data.SQL), start: time.Now()})
}

// TraceQueryEnd implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	td, ok := ctx.Value(traceKey{}).(traceData)
	if !ok {
		return
	}
	elapsed := time.Since(td.start)
	t.metrics.ObserveQuery(td.query, elapsed, data.Err)
	if data.Err != nil {
		t.logger.Debug().Err(data.Err).Str("query", td.query).Dur("elapsed", elapsed).Msg("query failed")
	}
}

// TraceAcquireStart implements pgxpool.AcquireTracer.
func (t *QueryTracer) TraceAcquireStart(ctx context.Context, _ *pgxpool.Pool, _ pgxpool.TraceAcquireStartData) context.Context {
	return ctx
}

// TraceAcquireEnd implements pgxpool.AcquireTracer.
func (t *QueryTracer) TraceAcquireEnd(_ context.Context, pool *pgxpool.Pool, _ pgxpool.TraceAcquireEndData) {
	t.metrics.DBConnections.Set(float64(pool.Stat().TotalConns()))
}

// queryName extracts the name from a "-- name: X :kind" header, falling back
// to the statement keyword for ad hoc SQL.
func queryName(sql string) string {
	sql = strings.TrimSpace(sql)
	if rest, ok := strings.CutPrefix(sql, "-- name: "); ok {
		if name, _, found := strings.Cut(rest, " "); found {
			return name
		}
	}
	keyword, _, _ := strings.Cut(sql, " ")
	if keyword == "" {
		return "unknown"
	}
	return strings.ToLower(keyword)
}
