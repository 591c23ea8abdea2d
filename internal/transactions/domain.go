// Package transactions records sales and purchases together with their
// derived money figures, invoice numbers and stock effects.
package transactions

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/inventory"
	"github.com/finentry/finentry/internal/ledger"
)

// Type enumerates transaction directions.
type Type string

const (
	// TypeSale moves goods to a customer.
	TypeSale Type = "sale"
	// TypePurchase moves goods in from a vendor.
	TypePurchase Type = "purchase"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t == TypeSale || t == TypePurchase
}

// DeliveryStatus filters on logistics assignment.
type DeliveryStatus string

const (
	DeliveryPending  DeliveryStatus = "pending"
	DeliveryAssigned DeliveryStatus = "assigned"
)

var (
	// ErrDeleted is returned when a soft-deleted transaction is edited.
	ErrDeleted = errors.New("transaction is deleted")
	// ErrMissingFields mirrors the message shown to users for incomplete input.
	ErrMissingFields = errors.New("missing required fields")
)

// Transaction is a persisted sale or purchase.
type Transaction struct {
	ID              uuid.UUID      `json:"id"`
	CompanyID       uuid.UUID      `json:"companyId"`
	Date            time.Time      `json:"date"`
	Type            Type           `json:"type"`
	ItemID          uuid.UUID      `json:"itemId"`
	CustomerID      *uuid.UUID     `json:"customerId"`
	VendorID        *uuid.UUID     `json:"vendorId"`
	DeliveryOrderID *uuid.UUID     `json:"deliveryOrderId"`
	Quantity        int            `json:"quantity"`
	BasePrice       float64        `json:"basePrice"`
	SellPrice       float64        `json:"sellPrice"`
	TransportCost   float64        `json:"transportCost"`
	UnexpectedCost  float64        `json:"unexpectedCost"`
	OtherCost       float64        `json:"otherCost"`
	Notes           *string        `json:"notes"`
	TaxType         ledger.TaxType `json:"taxType"`
	EmptiesReturned int            `json:"emptiesReturned"`
	ledger.Figures
	InvoiceNumber *string   `json:"invoiceNumber"`
	StockApplied  bool      `json:"-"`
	Deleted       bool      `json:"deleted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	ItemName     string  `json:"itemName,omitempty"`
	CustomerName *string `json:"customerName,omitempty"`
	VendorName   *string `json:"vendorName,omitempty"`
}

// Movement is the stock effect of the transaction.
func (t Transaction) Movement() inventory.Movement {
	kind := inventory.KindPurchase
	if t.Type == TypeSale {
		kind = inventory.KindSale
	}
	return inventory.Movement{ItemID: t.ItemID, Kind: kind, Quantity: t.Quantity, EmptiesReturned: t.EmptiesReturned}
}

// Filter narrows List results. Deleted rows are always excluded.
type Filter struct {
	CompanyID      *uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	Type           Type
	CustomerID     *uuid.UUID
	DeliveryStatus DeliveryStatus
}

// ItemRef is the slice of an item the store needs to validate a write.
type ItemRef struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	Name           string
	DefaultTaxType ledger.TaxType
	RequiresKTP    bool
}

// PartyRef is a customer or vendor reference.
type PartyRef struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	Name           string
	IdentityNumber *string
}
