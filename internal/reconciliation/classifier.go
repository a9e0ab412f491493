package reconciliation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
)

// Plan is the set of lifecycle changes a run wants to commit.
type Plan struct {
	Results []domain.MatchResult
	// Updated holds mutated copies of pool members, never the pool entries themselves.
	Updated []*domain.LedgerTransaction
	Created []*domain.LedgerTransaction
}

type classifier struct {
	cfg        Config
	runID      string
	scope      domain.Scope
	instrument *domain.Instrument
	now        time.Time
	newID      func() string

	pool    []*domain.LedgerTransaction
	working map[int]*domain.LedgerTransaction
	claimed map[int]bool
}

func newClassifier(cfg Config, in RunInput) *classifier {
	return &classifier{
		cfg:        cfg,
		runID:      in.RunID,
		scope:      in.Scope,
		instrument: in.Instrument,
		now:        in.Now,
		newID:      in.NewID,
		pool:       in.Pool,
		working:    make(map[int]*domain.LedgerTransaction),
		claimed:    make(map[int]bool),
	}
}

// mutable returns the run's private copy of pool member i.
func (c *classifier) mutable(i int) *domain.LedgerTransaction {
	if tx, ok := c.working[i]; ok {
		return tx
	}
	cp := *c.pool[i]
	c.working[i] = &cp
	return &cp
}

func (c *classifier) classify(rows []domain.StatementTransaction, assignments []Assignment) (*Plan, error) {
	plan := &Plan{}

	for _, a := range assignments {
		st := rows[a.Row]
		var (
			result domain.MatchResult
			err    error
		)
		switch {
		case a.Best == nil:
			result = c.newRow(plan, &st, a.Closest)
		case len(a.Alternatives) > 0:
			result = c.duplicateRow(&st, a)
		default:
			result, err = c.matchedRow(plan, &st, *a.Best)
		}
		if err != nil {
			return nil, err
		}
		plan.Results = append(plan.Results, result)
	}

	orphans, err := c.orphans()
	if err != nil {
		return nil, err
	}
	plan.Results = append(plan.Results, orphans...)

	idx := make([]int, 0, len(c.working))
	for i := range c.working {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		plan.Updated = append(plan.Updated, c.working[i])
	}

	return plan, nil
}

func (c *classifier) newRow(plan *Plan, st *domain.StatementTransaction, closest *Scored) domain.MatchResult {
	ref := st.Reference
	tx := &domain.LedgerTransaction{
		ID:               c.newID(),
		OwnerID:          c.scope.OwnerID,
		InstrumentID:     c.scope.InstrumentID,
		Source:           domain.SourceStatement,
		Label:            st.Label,
		NormalizedLabel:  st.NormalizedLabel,
		Amount:           st.Amount,
		Currency:         st.Currency,
		Date:             st.Date,
		Reference:        ref,
		State:            domain.StateReconciled,
		IsHistorical:     c.instrument.IsHistorical(st.Date),
		ReconciliationID: &c.runID,
		ReviewFlag:       domain.ReviewNotificationMissing,
		CreatedAt:        c.now,
		UpdatedAt:        c.now,
	}
	plan.Created = append(plan.Created, tx)

	result := domain.MatchResult{
		ID:                  c.newID(),
		Statement:           st,
		LedgerTransactionID: &tx.ID,
		Confidence:          domain.ConfidenceNone,
		Disposition:         domain.DispositionNew,
		Outcome:             domain.OutcomeCreated,
	}
	if closest != nil {
		result.Score = closest.Score
		result.Reasons = closest.Reasons
	} else {
		result.Reasons = []domain.Reason{{
			Criterion: CriterionPresence,
			Detail:    "no ledger candidate within the matching window",
		}}
	}
	return result
}

func (c *classifier) duplicateRow(st *domain.StatementTransaction, a Assignment) domain.MatchResult {
	matchID := c.newID()
	best := *a.Best
	primary := c.mutable(best.Candidate)
	c.claimed[best.Candidate] = true
	primary.HoldForConfirmation(c.runID, matchID, c.now)
	primary.ReviewFlag = domain.ReviewDuplicateSuspect

	alternatives := make([]string, 0, len(a.Alternatives))
	for _, alt := range a.Alternatives {
		tx := c.mutable(alt.Candidate)
		c.claimed[alt.Candidate] = true
		tx.HoldForConfirmation(c.runID, matchID, c.now)
		tx.ReviewFlag = domain.ReviewDuplicateSuspect
		alternatives = append(alternatives, tx.ID)
	}

	amount := c.pool[best.Candidate].Amount
	return domain.MatchResult{
		ID:                   matchID,
		Statement:            st,
		LedgerTransactionID:  &primary.ID,
		AlternativeIDs:       alternatives,
		Score:                best.Score,
		Confidence:           domain.ConfidenceFor(best.Score),
		Reasons:              best.Reasons,
		Disposition:          domain.DispositionDuplicateSuspect,
		RequiresConfirmation: true,
		Outcome:              domain.OutcomeFlagged,
		LedgerAmount:         &amount,
	}
}

func (c *classifier) matchedRow(plan *Plan, st *domain.StatementTransaction, best Scored) (domain.MatchResult, error) {
	original := c.pool[best.Candidate]
	confidence := domain.ConfidenceFor(best.Score)
	tentative := confidence == domain.ConfidenceLow ||
		(confidence == domain.ConfidenceMedium && !c.cfg.AutoAcceptMedium)

	if tentative && c.expired(original) {
		result := c.newRow(plan, st, &best)
		result.Reasons = append(result.Reasons, domain.Reason{
			Criterion: CriterionPresence,
			Detail:    fmt.Sprintf("tentative match with %s expired after %d cycles", original.ID, c.cfg.LowMatchExpiryCycles),
		})
		return result, nil
	}

	c.claimed[best.Candidate] = true
	differs := best.AmountDelta.GreaterThan(c.cfg.AmountTolerance)
	disposition := domain.DispositionMatched
	if differs {
		disposition = domain.DispositionDiscrepancy
	}

	matchID := c.newID()
	amount := original.Amount
	result := domain.MatchResult{
		ID:                   matchID,
		Statement:            st,
		LedgerTransactionID:  &original.ID,
		Score:                best.Score,
		Confidence:           confidence,
		Reasons:              best.Reasons,
		Disposition:          disposition,
		RequiresConfirmation: tentative,
		LedgerAmount:         &amount,
	}

	if tentative {
		tx := c.mutable(best.Candidate)
		if differs && tx.State != domain.StateReconciled {
			if err := tx.Dispute(c.runID, matchID, c.now); err != nil {
				return domain.MatchResult{}, err
			}
			tx.ReviewFlag = domain.ReviewPendingConfirmation
			result.Outcome = domain.OutcomeDisputed
		} else {
			tx.HoldForConfirmation(c.runID, matchID, c.now)
			result.Outcome = domain.OutcomeHeld
		}
		return result, nil
	}

	result.Outcome = domain.OutcomeReconciled
	if differs {
		result.Outcome = domain.OutcomeAdjusted
	}

	flag := ""
	if confidence == domain.ConfidenceMedium {
		flag = domain.ReviewOptional
	}
	if original.State == domain.StateReconciled && !differs && original.PendingMatchID == nil && original.ReviewFlag == flag {
		return result, nil
	}

	tx := c.mutable(best.Candidate)
	if err := tx.Reconcile(c.runID, c.now); err != nil {
		return domain.MatchResult{}, err
	}
	tx.ReviewFlag = flag
	if differs {
		tx.Adjust(st.Amount, AdjustmentReason(st.Amount, original.Amount), c.now)
	}
	return result, nil
}

// expired reports whether a candidate already held by an earlier tentative
// match has run out of confirmation cycles.
func (c *classifier) expired(tx *domain.LedgerTransaction) bool {
	if c.cfg.LowMatchExpiryCycles <= 0 || tx.PendingMatchID == nil {
		return false
	}
	return tx.PendingCycles+1 >= c.cfg.LowMatchExpiryCycles
}

func (c *classifier) orphans() ([]domain.MatchResult, error) {
	start, end := domain.DateOnly(c.scope.PeriodStart), domain.DateOnly(c.scope.PeriodEnd)

	var candidates []int
	for i, tx := range c.pool {
		if c.claimed[i] || !tx.State.Orphanable() {
			continue
		}
		d := domain.DateOnly(tx.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		candidates = append(candidates, i)
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ta, tb := c.pool[candidates[a]], c.pool[candidates[b]]
		if !ta.Date.Equal(tb.Date) {
			return ta.Date.Before(tb.Date)
		}
		return ta.ID < tb.ID
	})

	results := make([]domain.MatchResult, 0, len(candidates))
	for _, i := range candidates {
		tx := c.mutable(i)
		amount := tx.Amount
		result := domain.MatchResult{
			ID:                  c.newID(),
			LedgerTransactionID: &tx.ID,
			Confidence:          domain.ConfidenceNone,
			Disposition:         domain.DispositionOrphan,
			LedgerAmount:        &amount,
		}

		if tx.State == domain.StateOrphan {
			reversed := decimal.Zero
			if tx.Contributes() {
				reversed = tx.Amount
			}
			if err := tx.Cancel(c.runID, c.now); err != nil {
				return nil, err
			}
			result.Outcome = domain.OutcomeCancelled
			result.ReversedAmount = &reversed
			result.Reasons = []domain.Reason{{
				Criterion: CriterionPresence,
				Detail:    "missing from a second consecutive statement",
			}}
		} else {
			tx.Release(c.now)
			if err := tx.MarkOrphan(c.runID, c.now); err != nil {
				return nil, err
			}
			result.Outcome = domain.OutcomeOrphaned
			result.Reasons = []domain.Reason{{
				Criterion: CriterionPresence,
				Detail:    "not present in the statement",
			}}
		}
		results = append(results, result)
	}
	return results, nil
}

// AdjustmentReason describes a statement-driven amount correction.
func AdjustmentReason(statement, ledger decimal.Decimal) string {
	return fmt.Sprintf("statement amount %s replaces ledger amount %s", statement.String(), ledger.String())
}
