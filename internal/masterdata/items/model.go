package items

import (
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/ledger"
)

// Item is a stocked product of a company.
type Item struct {
	ID             uuid.UUID      `json:"id"`
	CompanyID      uuid.UUID      `json:"companyId"`
	Name           string         `json:"name"`
	Unit           string         `json:"unit"`
	Category       *string        `json:"category"`
	DefaultTaxType ledger.TaxType `json:"defaultTaxType"`
	RequiresKTP    bool           `json:"requiresKtp"`
	StockFull      int            `json:"stockFull"`
	StockEmpty     int            `json:"stockEmpty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Input is the writable part of an item. Stock counters are only honoured
// on create as the opening balance.
type Input struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Unit           string  `json:"unit" validate:"required,max=50"`
	Category       *string `json:"category" validate:"omitempty,max=100"`
	DefaultTaxType string  `json:"defaultTaxType" validate:"omitempty,oneof=NONE VAT_11 LPG_PMK62"`
	RequiresKTP    bool    `json:"requiresKtp"`
	StockFull      int     `json:"stockFull"`
	StockEmpty     int     `json:"stockEmpty"`
}
