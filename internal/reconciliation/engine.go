package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
)

// Engine runs one reconciliation in memory.
type Engine struct {
	cfg     Config
	matcher *Matcher
}

// NewEngine creates an Engine. A nil similarity uses DefaultSimilarity.
func NewEngine(cfg Config, similarity SimilarityFunc) *Engine {
	return &Engine{cfg: cfg, matcher: NewMatcher(cfg, similarity)}
}

// Config returns the engine tuning.
func (e *Engine) Config() Config {
	return e.cfg
}

// Matcher returns the engine's scorer.
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// RunInput is everything a run reads.
type RunInput struct {
	RunID       string
	Scope       domain.Scope
	Instrument  *domain.Instrument
	Statement   domain.StatementInput
	Fingerprint string
	// Pool is read-only. Members outside the candidate window are ignored.
	Pool []*domain.LedgerTransaction
	// PriorBalance is the ledger balance at period start. When nil the
	// statement opening balance is used instead.
	PriorBalance *decimal.Decimal
	Now          time.Time
	NewID        func() string
}

// RunOutput is the report together with the changes to commit.
type RunOutput struct {
	Report *domain.ReconciliationReport
	Plan   *Plan
	// Mutated is true when a non-historical transaction was changed or created.
	Mutated bool
}

// CandidateWindow returns the date range the candidate pool covers.
func (e *Engine) CandidateWindow(scope domain.Scope) (from, to time.Time) {
	window := time.Duration(e.cfg.DateWindowDays) * 24 * time.Hour
	return domain.DateOnly(scope.PeriodStart).Add(-window), domain.DateOnly(scope.PeriodEnd).Add(window)
}

// FilterPool keeps the non-cancelled transactions of the scope's instrument
// dated inside the candidate window.
func (e *Engine) FilterPool(scope domain.Scope, txs []*domain.LedgerTransaction) []*domain.LedgerTransaction {
	from, to := e.CandidateWindow(scope)
	pool := make([]*domain.LedgerTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.InstrumentID != scope.InstrumentID || tx.State == domain.StateCancelled {
			continue
		}
		d := domain.DateOnly(tx.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		pool = append(pool, tx)
	}
	return pool
}

// Run normalizes the statement, matches it against the pool, classifies the
// outcome and builds the report. It does not modify in.Pool.
func (e *Engine) Run(ctx context.Context, in RunInput) (*RunOutput, error) {
	if err := in.Scope.Validate(); err != nil {
		return nil, err
	}
	if in.Instrument == nil {
		return nil, domain.ErrInstrumentNotFound
	}
	meta := in.Statement.Metadata
	if meta.Currency != "" && !strings.EqualFold(meta.Currency, in.Instrument.Currency) {
		return nil, fmt.Errorf("%w: statement %s, instrument %s", domain.ErrCurrencyMismatch, meta.Currency, in.Instrument.Currency)
	}
	if in.NewID == nil {
		return nil, fmt.Errorf("run %s: missing id generator", in.RunID)
	}

	rows, anomalies := NewNormalizer(in.Instrument.Currency).NormalizeAll(in.Statement.Rows)

	in.Pool = e.FilterPool(in.Scope, in.Pool)
	assignments, err := e.matcher.MatchAll(ctx, rows, in.Pool)
	if err != nil {
		return nil, err
	}

	plan, err := newClassifier(e.cfg, in).classify(rows, assignments)
	if err != nil {
		return nil, err
	}

	period, ledgerTotal := periodView(in.Scope, in.Pool, plan)
	prior := in.PriorBalance
	if prior == nil {
		prior = meta.OpeningBalance
	}
	balance := CheckBalance(in.Instrument.Kind, prior, meta.ClosingBalance, period, e.cfg.BalanceTolerance)

	report := BuildReport(ReportInput{
		ID:             in.RunID,
		Scope:          in.Scope,
		Fingerprint:    in.Fingerprint,
		RunAt:          in.Now,
		StatementTotal: len(in.Statement.Rows),
		LedgerTotal:    ledgerTotal,
		Results:        plan.Results,
		Anomalies:      anomalies,
		Balance:        balance,
	})

	return &RunOutput{Report: report, Plan: plan, Mutated: mutated(plan)}, nil
}

// periodView returns the post-run state of every transaction dated inside the
// period, plus the count of pool members there before the run.
func periodView(scope domain.Scope, pool []*domain.LedgerTransaction, plan *Plan) ([]*domain.LedgerTransaction, int) {
	start, end := domain.DateOnly(scope.PeriodStart), domain.DateOnly(scope.PeriodEnd)
	inPeriod := func(t time.Time) bool {
		d := domain.DateOnly(t)
		return !d.Before(start) && !d.After(end)
	}

	updated := make(map[string]*domain.LedgerTransaction, len(plan.Updated))
	for _, tx := range plan.Updated {
		updated[tx.ID] = tx
	}

	var view []*domain.LedgerTransaction
	total := 0
	for _, tx := range pool {
		if !inPeriod(tx.Date) {
			continue
		}
		total++
		if u, ok := updated[tx.ID]; ok {
			view = append(view, u)
			continue
		}
		view = append(view, tx)
	}
	view = append(view, plan.Created...)
	return view, total
}

func mutated(plan *Plan) bool {
	for _, tx := range plan.Updated {
		if !tx.IsHistorical {
			return true
		}
	}
	for _, tx := range plan.Created {
		if !tx.IsHistorical {
			return true
		}
	}
	return false
}
