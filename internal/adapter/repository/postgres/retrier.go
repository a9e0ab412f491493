package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes a reconciliation run may hit while racing another writer on
// the same instrument.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrClassConnection      = "08"
)

// Retrier re-runs the persistence half of a reconciliation run, or any other
// write unit, when Postgres reports a transient failure. Business errors are
// returned on the first attempt.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier allows maxRetries re-runs after the first attempt.
func NewRetrier(logger zerolog.Logger, maxRetries int) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrier{
		maxRetries:      maxRetries,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          logger.With().Str("component", "db_retrier").Logger(),
	}
}

// Retry runs operation until it succeeds, fails permanently, or the retry
// budget is spent. The last error is returned unwrapped.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	policy.MaxInterval = r.maxInterval
	policy.MaxElapsedTime = r.maxElapsedTime

	attempt := func() error {
		err := operation()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	retry := 0
	notify := func(err error, wait time.Duration) {
		retry++
		r.logger.Warn().
			Err(err).
			Int("retry", retry).
			Dur("wait", wait).
			Msg("transient database error, retrying")
	}

	bounded := backoff.WithMaxRetries(policy, uint64(r.maxRetries))
	return backoff.RetryNotify(attempt, backoff.WithContext(bounded, ctx), notify)
}

// isRetryableError reports whether err is a deadlock, a serialization
// conflict, a dropped connection, or a failure pgx marks safe to retry.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return pgconn.SafeToRetry(err)
	}
	if pgErr.Code == pgErrDeadlock || pgErr.Code == pgErrSerializationFailure {
		return true
	}
	return strings.HasPrefix(pgErr.Code, pgErrClassConnection)
}
