package ledger

import "github.com/shopspring/decimal"

// Totals accumulates figures across many transactions without float drift.
type Totals struct {
	Revenue    decimal.Decimal
	COGS       decimal.Decimal
	Transport  decimal.Decimal
	Unexpected decimal.Decimal
	Other      decimal.Decimal
	Margin     decimal.Decimal
	Count      int
}

// Add folds one transaction's amounts and stored margin into the totals.
func (t *Totals) Add(revenue, cogs, transport, unexpected, other, margin float64) {
	t.Revenue = t.Revenue.Add(decimal.NewFromFloat(revenue))
	t.COGS = t.COGS.Add(decimal.NewFromFloat(cogs))
	t.Transport = t.Transport.Add(decimal.NewFromFloat(transport))
	t.Unexpected = t.Unexpected.Add(decimal.NewFromFloat(unexpected))
	t.Other = t.Other.Add(decimal.NewFromFloat(other))
	t.Margin = t.Margin.Add(decimal.NewFromFloat(margin))
	t.Count++
}

// Expenses is transport + unexpected + other.
func (t Totals) Expenses() decimal.Decimal {
	return t.Transport.Add(t.Unexpected).Add(t.Other)
}

// GrossProfit is revenue - cogs.
func (t Totals) GrossProfit() decimal.Decimal {
	return t.Revenue.Sub(t.COGS)
}

// NetProfit is the sum of the stored per-transaction margins.
func (t Totals) NetProfit() decimal.Decimal {
	return t.Margin
}
