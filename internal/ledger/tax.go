package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finentry/finentry/internal/shared"
)

// TaxType enumerates supported PPN regimes.
type TaxType string

const (
	// TaxNone carries no PPN.
	TaxNone TaxType = "NONE"
	// TaxVAT11 is standard 11% PPN on revenue.
	TaxVAT11 TaxType = "VAT_11"
	// TaxLPGPMK62 is the PMK 62 regime for LPG where PPN is embedded in the margin.
	TaxLPGPMK62 TaxType = "LPG_PMK62"
)

var (
	vatRate = decimal.RequireFromString("0.11")
	// PMK 62: ppn = margin * 1.1 / 101.1, expressed as 11/1011.
	lpgNumerator   = decimal.NewFromInt(11)
	lpgDenominator = decimal.NewFromInt(1011)
)

// ParseTaxType validates a tax type. Empty input yields ok=false without error.
func ParseTaxType(raw string) (TaxType, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}
	switch t := TaxType(strings.ToUpper(raw)); t {
	case TaxNone, TaxVAT11, TaxLPGPMK62:
		return t, true, nil
	default:
		return "", false, fmt.Errorf("%w: unknown tax type %q", shared.ErrValidation, raw)
	}
}

// Tax computes the PPN amount rounded to whole currency units.
func Tax(t TaxType, revenue, margin decimal.Decimal) decimal.Decimal {
	switch t {
	case TaxVAT11:
		return revenue.Mul(vatRate).Round(0)
	case TaxLPGPMK62:
		if !margin.IsPositive() {
			return decimal.Zero
		}
		return margin.Mul(lpgNumerator).Div(lpgDenominator).Round(0)
	default:
		return decimal.Zero
	}
}
