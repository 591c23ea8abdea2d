package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind is the transaction type driving a stock movement.
type Kind string

const (
	// KindSale ships full units out and takes empties back.
	KindSale Kind = "sale"
	// KindPurchase brings full units in and sends empties out.
	KindPurchase Kind = "purchase"
)

// Movement is the stock-relevant part of a transaction.
type Movement struct {
	ItemID          uuid.UUID
	Kind            Kind
	Quantity        int
	EmptiesReturned int
}

// Delta is a signed change to the full and empty counters.
type Delta struct {
	Full  int `json:"full"`
	Empty int `json:"empty"`
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Full == 0 && d.Empty == 0
}

// Negate flips both components.
func (d Delta) Negate() Delta {
	return Delta{Full: -d.Full, Empty: -d.Empty}
}

// Level is an item's current stock counters.
type Level struct {
	ItemID     uuid.UUID `json:"itemId"`
	CompanyID  uuid.UUID `json:"companyId"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit"`
	StockFull  int       `json:"stockFull"`
	StockEmpty int       `json:"stockEmpty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AdjustmentInput describes a manual correction of stock counters.
type AdjustmentInput struct {
	ItemID     uuid.UUID `json:"itemId" validate:"required"`
	FullDelta  int       `json:"fullDelta"`
	EmptyDelta int       `json:"emptyDelta"`
	Note       string    `json:"note" validate:"max=500"`
}

// Drift is a mismatch between an item's counters and the movement implied
// by its active transactions.
type Drift struct {
	ItemID    uuid.UUID `json:"itemId"`
	CompanyID uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
	Expected  Delta     `json:"expected"`
	Actual    Delta     `json:"actual"`
}

// Difference returns actual minus expected.
func (d Drift) Difference() Delta {
	return Delta{Full: d.Actual.Full - d.Expected.Full, Empty: d.Actual.Empty - d.Expected.Empty}
}

// ErrLevelNotFound indicates the item row is missing or deleted.
var ErrLevelNotFound = errors.New("inventory: item not found")

// ErrEmptyAdjustment indicates an adjustment with no effect.
var ErrEmptyAdjustment = errors.New("inventory: adjustment must change stock")
