package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finentry/finentry/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// Input carries the raw amounts entered for a transaction.
type Input struct {
	Quantity       int
	BasePrice      float64
	SellPrice      float64
	TransportCost  float64
	UnexpectedCost float64
	OtherCost      float64
	TaxType        TaxType
}

// Figures are the derived amounts persisted with a transaction.
type Figures struct {
	Revenue       float64 `json:"revenue"`
	COGS          float64 `json:"cogs"`
	TotalExpenses float64 `json:"totalExpenses"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"marginPercent"`
	PPNAmount     float64 `json:"ppnAmount"`
}

// Validate enforces quantity > 0 and non-negative amounts.
func (in Input) Validate() error {
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", shared.ErrValidation)
	}
	amounts := []struct {
		name  string
		value float64
	}{
		{"basePrice", in.BasePrice},
		{"sellPrice", in.SellPrice},
		{"transportCost", in.TransportCost},
		{"unexpectedCost", in.UnexpectedCost},
		{"otherCost", in.OtherCost},
	}
	for _, a := range amounts {
		if a.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0", shared.ErrValidation, a.name)
		}
	}
	return nil
}

// Compute derives revenue, cogs, expenses, margin and tax.
func Compute(in Input) Figures {
	qty := decimal.NewFromInt(int64(in.Quantity))
	revenue := qty.Mul(decimal.NewFromFloat(in.SellPrice))
	cogs := qty.Mul(decimal.NewFromFloat(in.BasePrice))
	expenses := decimal.NewFromFloat(in.TransportCost).
		Add(decimal.NewFromFloat(in.UnexpectedCost)).
		Add(decimal.NewFromFloat(in.OtherCost))
	margin := revenue.Sub(cogs).Sub(expenses)

	return Figures{
		Revenue:       revenue.InexactFloat64(),
		COGS:          cogs.InexactFloat64(),
		TotalExpenses: expenses.InexactFloat64(),
		Margin:        margin.InexactFloat64(),
		MarginPercent: Percent(margin, revenue).InexactFloat64(),
		PPNAmount:     Tax(in.TaxType, revenue, margin).InexactFloat64(),
	}
}

// Percent returns part/whole*100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
