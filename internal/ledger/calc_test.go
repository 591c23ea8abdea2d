package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finentry/finentry/internal/shared"
)

func TestComputeVAT(t *testing.T) {
	fig := Compute(Input{Quantity: 100, BasePrice: 5000, SellPrice: 7000, TaxType: TaxVAT11})

	assert.Equal(t, 700000.0, fig.Revenue)
	assert.Equal(t, 500000.0, fig.COGS)
	assert.Equal(t, 200000.0, fig.Margin)
	assert.InDelta(t, 28.5714, fig.MarginPercent, 0.0001)
	assert.Equal(t, 77000.0, fig.PPNAmount)
}

func TestComputeLPGUsesMargin(t *testing.T) {
	fig := Compute(Input{
		Quantity:       10,
		BasePrice:      15000,
		SellPrice:      19000,
		TransportCost:  5000,
		UnexpectedCost: 1000,
		OtherCost:      500,
		TaxType:        TaxLPGPMK62,
	})

	assert.Equal(t, 6500.0, fig.TotalExpenses)
	assert.Equal(t, 33500.0, fig.Margin)
	// 33500 * 1.1 / 101.1 = 364.49...
	assert.Equal(t, 364.0, fig.PPNAmount)
}

func TestComputeLPGNonPositiveMargin(t *testing.T) {
	fig := Compute(Input{Quantity: 1, BasePrice: 1000, SellPrice: 900, TaxType: TaxLPGPMK62})
	assert.Equal(t, -100.0, fig.Margin)
	assert.Equal(t, 0.0, fig.PPNAmount)
}

func TestComputeZeroRevenue(t *testing.T) {
	fig := Compute(Input{Quantity: 3, BasePrice: 10, SellPrice: 0, TaxType: TaxNone})
	assert.Equal(t, 0.0, fig.MarginPercent)
	assert.Equal(t, 0.0, fig.PPNAmount)
}

func TestComputeExtremeLossKeepsFullPrecision(t *testing.T) {
	in := Input{Quantity: 1, BasePrice: 1000000, SellPrice: 1, TaxType: TaxNone}
	require.NoError(t, in.Validate())

	fig := Compute(in)
	assert.Equal(t, -999999.0, fig.Margin)
	assert.Equal(t, -99999900.0, fig.MarginPercent)

	fig = Compute(Input{Quantity: 7, BasePrice: 5, SellPrice: 7, TaxType: TaxNone})
	assert.InDelta(t, 28.571428571, fig.MarginPercent, 1e-9)
}

func TestTaxRoundsHalfAwayFromZero(t *testing.T) {
	// 50 * 0.11 = 5.5
	assert.True(t, Tax(TaxVAT11, decimal.NewFromInt(50), decimal.Zero).Equal(decimal.NewFromInt(6)))
	// 45 * 0.11 = 4.95
	assert.True(t, Tax(TaxVAT11, decimal.NewFromInt(45), decimal.Zero).Equal(decimal.NewFromInt(5)))
}

func TestValidateRejectsBadAmounts(t *testing.T) {
	require.ErrorIs(t, Input{Quantity: 0}.Validate(), shared.ErrValidation)
	require.ErrorIs(t, Input{Quantity: 1, SellPrice: -1}.Validate(), shared.ErrValidation)
	require.ErrorIs(t, Input{Quantity: 1, OtherCost: -0.5}.Validate(), shared.ErrValidation)
	require.NoError(t, Input{Quantity: 1}.Validate())
}

func TestParseTaxType(t *testing.T) {
	tt, ok, err := ParseTaxType("vat_11")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, TaxVAT11, tt)

	_, ok, err = ParseTaxType("")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseTaxType("GST")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTotals(t *testing.T) {
	var totals Totals
	totals.Add(700000, 500000, 10000, 0, 2500, 187500)
	totals.Add(0.1, 0, 0.2, 0, 0, -0.1)

	assert.Equal(t, 2, totals.Count)
	assert.True(t, totals.Revenue.Equal(decimal.RequireFromString("700000.1")))
	assert.True(t, totals.Expenses().Equal(decimal.RequireFromString("12500.2")))
	assert.True(t, totals.NetProfit().Equal(decimal.RequireFromString("187499.9")))
}

func TestTotalsNetProfitSumsStoredMargins(t *testing.T) {
	var totals Totals
	// a margin stored under older cost rules no longer equals revenue - cogs - expenses
	totals.Add(1000, 600, 100, 0, 0, 250)

	assert.True(t, totals.GrossProfit().Equal(decimal.NewFromInt(400)))
	assert.True(t, totals.NetProfit().Equal(decimal.NewFromInt(250)))
}
