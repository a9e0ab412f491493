package reconciliation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/reconledger/internal/domain"
)

// MatchThreshold is the lowest score that still counts as a match.
const MatchThreshold = 50

// Scoring criteria.
const (
	CriterionReference = "reference"
	CriterionDate      = "date"
	CriterionAmount    = "amount"
	CriterionLabel     = "label"
	CriterionPresence  = "presence"
)

var onePercent = decimal.NewFromFloat(0.01)

// Scored is one qualified (statement row, candidate) pairing.
type Scored struct {
	Row            int
	Candidate      int
	Score          float64
	Reasons        []domain.Reason
	DateDelta      int
	AmountDelta    decimal.Decimal
	ExactReference bool
}

// Assignment is the arbitration outcome for one statement row.
type Assignment struct {
	Row int
	// Best is the claimed pair, nil when the row claimed nothing.
	Best *Scored
	// Alternatives are extra candidates claimed as duplicate suspects.
	Alternatives []Scored
	// Closest is the highest scoring pair seen for the row, claimed or not.
	Closest *Scored
}

// Matcher scores statement rows against ledger candidates.
type Matcher struct {
	cfg        Config
	similarity SimilarityFunc
}

// NewMatcher creates a Matcher. A nil similarity uses DefaultSimilarity.
func NewMatcher(cfg Config, similarity SimilarityFunc) *Matcher {
	if similarity == nil {
		similarity = DefaultSimilarity
	}
	return &Matcher{cfg: cfg, similarity: similarity}
}

// Score evaluates one pair. ok is false when the pair is disqualified.
func (m *Matcher) Score(st *domain.StatementTransaction, c *domain.LedgerTransaction) (s Scored, ok bool) {
	if c.State == domain.StateCancelled {
		return Scored{}, false
	}
	if !strings.EqualFold(st.Currency, c.Currency) {
		return Scored{}, false
	}

	s.DateDelta = domain.DaysBetween(st.Date, c.Date)
	s.AmountDelta = st.Amount.Sub(c.Amount).Abs()

	if sameReference(st.Reference, c.Reference) {
		s.ExactReference = true
		s.Score = 100
		s.Reasons = []domain.Reason{{
			Criterion: CriterionReference,
			Detail:    fmt.Sprintf("bank reference %s matches", *st.Reference),
			Points:    100,
		}}
		return s, true
	}

	datePts, dateDetail, ok := m.datePoints(s.DateDelta)
	if !ok {
		return Scored{}, false
	}
	amountPts, amountDetail, ok := m.amountPoints(st.Amount, c.Amount, s.AmountDelta)
	if !ok {
		return Scored{}, false
	}
	labelPts, labelDetail := m.labelPoints(st.NormalizedLabel, ledgerLabel(c))

	s.Reasons = []domain.Reason{
		{Criterion: CriterionDate, Detail: dateDetail, Points: round2(datePts)},
		{Criterion: CriterionAmount, Detail: amountDetail, Points: round2(amountPts)},
		{Criterion: CriterionLabel, Detail: labelDetail, Points: round2(labelPts)},
	}
	s.Score = round2(math.Min(100, datePts+amountPts+labelPts))
	return s, true
}

func (m *Matcher) datePoints(days int) (float64, string, bool) {
	w := m.cfg.DateWeight
	switch {
	case days > m.cfg.DateWindowDays:
		return 0, "", false
	case days == 0:
		return w, "same day", true
	case days == 1:
		return w * 0.7, "1 day apart", true
	default:
		return w * 0.35, fmt.Sprintf("%d days apart", days), true
	}
}

func (m *Matcher) amountPoints(statement, ledger, delta decimal.Decimal) (float64, string, bool) {
	w := m.cfg.AmountWeight
	if delta.LessThanOrEqual(m.cfg.AmountTolerance) {
		return w, "exact amount", true
	}
	if statement.Sign() != ledger.Sign() || statement.IsZero() {
		return 0, "", false
	}

	rel := delta.Div(statement.Abs())
	switch {
	case rel.LessThanOrEqual(onePercent):
		return w * 0.75, fmt.Sprintf("amount differs by %s (within 1%%)", delta.StringFixed(2)), true
	case rel.LessThanOrEqual(m.cfg.StrictAmountBand):
		return w * 0.5, fmt.Sprintf("amount differs by %s (within %s%%)", delta.StringFixed(2), percent(m.cfg.StrictAmountBand)), true
	case m.cfg.LenientAmount && rel.LessThanOrEqual(m.cfg.LenientAmountBand):
		return w * 0.25, fmt.Sprintf("amount differs by %s (within %s%%)", delta.StringFixed(2), percent(m.cfg.LenientAmountBand)), true
	default:
		return 0, "", false
	}
}

func (m *Matcher) labelPoints(a, b string) (float64, string) {
	w := m.cfg.LabelWeight
	switch {
	case a == "" || b == "":
		return 0, "label missing"
	case a == b:
		return w, "labels identical"
	case strings.Contains(a, b) || strings.Contains(b, a):
		return w * 0.8, "one label contains the other"
	}

	sim := m.similarity(a, b)
	if sim >= m.cfg.LabelFloor {
		return w * 0.8 * sim, fmt.Sprintf("labels %.0f%% similar", sim*100)
	}
	return 0, fmt.Sprintf("labels differ (%.0f%% similar)", sim*100)
}

// Best returns the highest ranked qualified candidate for st without
// claiming it. ok is false when nothing qualifies.
func (m *Matcher) Best(st *domain.StatementTransaction, pool []*domain.LedgerTransaction) (Scored, bool) {
	scores := m.scoreRow(0, st, pool)
	if len(scores) == 0 {
		return Scored{}, false
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return less(scores[i], scores[j], pool, nil)
	})
	return scores[0], true
}

// MatchAll scores every row against the pool in parallel, then arbitrates
// claims in a single deterministic pass. The result does not depend on the
// order of rows or candidates.
func (m *Matcher) MatchAll(ctx context.Context, rows []domain.StatementTransaction, pool []*domain.LedgerTransaction) ([]Assignment, error) {
	perRow := make([][]Scored, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.workers())
	for i := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perRow[i] = m.scoreRow(i, &rows[i], pool)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byRank := func(list []Scored) {
		sort.SliceStable(list, func(i, j int) bool {
			return less(list[i], list[j], pool, rows)
		})
	}

	assignments := make([]Assignment, len(rows))
	var eligible []Scored
	for i, scores := range perRow {
		assignments[i].Row = i
		byRank(scores)
		if len(scores) > 0 {
			closest := scores[0]
			assignments[i].Closest = &closest
		}
		for _, s := range scores {
			if s.Score >= MatchThreshold {
				eligible = append(eligible, s)
			}
		}
	}
	byRank(eligible)

	rowTaken := make([]bool, len(rows))
	candTaken := make([]bool, len(pool))

	var claimed []Scored
	for _, s := range eligible {
		if rowTaken[s.Row] || candTaken[s.Candidate] {
			continue
		}
		best := s
		rowTaken[s.Row] = true
		candTaken[s.Candidate] = true
		assignments[s.Row].Best = &best
		claimed = append(claimed, best)
	}

	// Duplicate suspects come only from candidates no row claimed, so N
	// identical rows still pair with N identical ledger entries.
	for _, best := range claimed {
		for _, alt := range perRow[best.Row] {
			if candTaken[alt.Candidate] {
				continue
			}
			if m.isDuplicateOf(alt, best, &rows[best.Row], pool) {
				candTaken[alt.Candidate] = true
				assignments[best.Row].Alternatives = append(assignments[best.Row].Alternatives, alt)
			}
		}
	}

	return assignments, nil
}

func (m *Matcher) scoreRow(row int, st *domain.StatementTransaction, pool []*domain.LedgerTransaction) []Scored {
	var out []Scored
	for ci, c := range pool {
		s, ok := m.Score(st, c)
		if !ok {
			continue
		}
		s.Row = row
		s.Candidate = ci
		out = append(out, s)
	}
	return out
}

func (m *Matcher) isDuplicateOf(alt, best Scored, st *domain.StatementTransaction, pool []*domain.LedgerTransaction) bool {
	if alt.Score < MatchThreshold || best.Score-alt.Score > m.cfg.DuplicateMargin {
		return false
	}
	c := pool[alt.Candidate]
	if !domain.DateOnly(c.Date).Equal(domain.DateOnly(st.Date)) {
		return false
	}
	return c.Amount.Sub(pool[best.Candidate].Amount).Abs().LessThanOrEqual(m.cfg.AmountTolerance)
}

// less orders pairs by score desc, date delta asc, amount delta asc,
// candidate id asc and row ordinal asc.
func less(a, b Scored, pool []*domain.LedgerTransaction, rows []domain.StatementTransaction) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ExactReference != b.ExactReference {
		return a.ExactReference
	}
	if a.DateDelta != b.DateDelta {
		return a.DateDelta < b.DateDelta
	}
	if c := a.AmountDelta.Cmp(b.AmountDelta); c != 0 {
		return c < 0
	}
	if idA, idB := pool[a.Candidate].ID, pool[b.Candidate].ID; idA != idB {
		return idA < idB
	}
	if rows != nil {
		return rows[a.Row].Ordinal < rows[b.Row].Ordinal
	}
	return a.Row < b.Row
}

func sameReference(a, b *string) bool {
	if a == nil || b == nil {
		return false
	}
	ra, rb := strings.TrimSpace(*a), strings.TrimSpace(*b)
	return ra != "" && strings.EqualFold(ra, rb)
}

func ledgerLabel(c *domain.LedgerTransaction) string {
	if c.NormalizedLabel != "" {
		return c.NormalizedLabel
	}
	return NormalizeLabel(c.Label)
}

func percent(band decimal.Decimal) string {
	return band.Mul(decimal.NewFromInt(100)).String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
