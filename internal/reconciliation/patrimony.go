package reconciliation

import (
	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
)

// NetWorth aggregates instrument balances. sums maps instrument id to the sum
// of counted, non-historical signed amounts recorded for it.
func NetWorth(instruments []*domain.Instrument, sums map[string]decimal.Decimal) (assets, liabilities, net decimal.Decimal) {
	for _, inst := range instruments {
		balance := inst.BalanceFrom(sums[inst.ID])
		if inst.Kind == domain.InstrumentKindLiability {
			liabilities = liabilities.Add(balance)
			continue
		}
		assets = assets.Add(balance)
	}
	return assets, liabilities, assets.Sub(liabilities)
}

// ContributingSum adds up the amounts that take part in balance math.
func ContributingSum(txs []*domain.LedgerTransaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Contributes() {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// CheckBalance compares the statement closing balance with prior plus the
// period's counted amounts. Liability balances move opposite to amounts.
// The check is skipped when either balance is unknown.
func CheckBalance(kind domain.InstrumentKind, prior, closing *decimal.Decimal, period []*domain.LedgerTransaction, tolerance decimal.Decimal) domain.BalanceCheck {
	if prior == nil || closing == nil {
		return domain.BalanceCheck{}
	}

	sum := ContributingSum(period)
	computed := prior.Add(sum)
	if kind == domain.InstrumentKindLiability {
		computed = prior.Sub(sum)
	}
	delta := closing.Sub(computed)

	return domain.BalanceCheck{
		Performed:      true,
		PriorBalance:   *prior,
		StatementEnd:   *closing,
		LedgerComputed: computed,
		Delta:          delta,
		Mismatch:       delta.Abs().GreaterThan(tolerance),
	}
}
