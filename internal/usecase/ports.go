package usecase

import (
	"context"
	"time"

	"github.com/iho/reconledger/internal/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

// RunLocker serializes reconciliation runs per scope.
type RunLocker interface {
	// Acquire returns domain.ErrConcurrentRunConflict when the key is held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, key, token string) error
}

// ReportCache keeps recently produced report payloads by statement fingerprint.
type ReportCache interface {
	Get(ctx context.Context, instrumentID, fingerprint string) ([]byte, bool, error)
	Set(ctx context.Context, instrumentID, fingerprint string, payload []byte, ttl time.Duration) error
}

// StatementExtractor turns a statement document into raw rows and metadata.
type StatementExtractor interface {
	Extract(ctx context.Context, format string, raw []byte) (domain.StatementInput, error)
}
