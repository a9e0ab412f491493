package jobs

import (
	"context"
	"strings"

	"github.com/iho/reconledger/internal/reconciliation"
)

// Uncategorized is returned when no rule matches.
const Uncategorized = "uncategorized"

// CategorizeInput is what a categorizer sees of a ledger transaction.
type CategorizeInput struct {
	TransactionID string
	OwnerID       string
	Label         string
	Amount        string
	Currency      string
}

// Categorizer assigns a budget category to a transaction. Implementations
// may call external services; they run after reconciliation has committed.
type Categorizer interface {
	Classify(ctx context.Context, in CategorizeInput) (string, error)
}

// KeywordCategorizer matches normalized labels against keyword rules.
type KeywordCategorizer struct {
	rules map[string]string
	order []string
}

// NewKeywordCategorizer creates a categorizer from keyword -> category rules.
// Keywords are normalized like ledger labels, and earlier keywords win.
func NewKeywordCategorizer(keywords []string, categories map[string]string) *KeywordCategorizer {
	c := &KeywordCategorizer{rules: make(map[string]string, len(keywords))}
	for _, k := range keywords {
		norm := reconciliation.NormalizeLabel(k)
		if norm == "" {
			continue
		}
		if _, dup := c.rules[norm]; dup {
			continue
		}
		c.rules[norm] = categories[k]
		c.order = append(c.order, norm)
	}
	return c
}

// Classify returns the category of the first keyword found in the label.
func (c *KeywordCategorizer) Classify(_ context.Context, in CategorizeInput) (string, error) {
	label := reconciliation.NormalizeLabel(in.Label)
	for _, k := range c.order {
		if strings.Contains(label, k) {
			return c.rules[k], nil
		}
	}
	return Uncategorized, nil
}
