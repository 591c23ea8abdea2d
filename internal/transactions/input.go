package transactions

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/ledger"
	"github.com/finentry/finentry/internal/shared"
)

// Input is the write payload for create and update. Derived figures,
// invoice numbers and company ids are never read from the caller.
type Input struct {
	Date            string     `json:"date"`
	Type            string     `json:"type"`
	CustomerID      *uuid.UUID `json:"customerId"`
	VendorID        *uuid.UUID `json:"vendorId"`
	ItemID          *uuid.UUID `json:"itemId"`
	Quantity        *int       `json:"quantity"`
	BasePrice       *float64   `json:"basePrice"`
	SellPrice       *float64   `json:"sellPrice"`
	TransportCost   float64    `json:"transportCost"`
	UnexpectedCost  float64    `json:"unexpectedCost"`
	OtherCost       float64    `json:"otherCost"`
	Notes           *string    `json:"notes"`
	TaxType         *string    `json:"taxType"`
	EmptiesReturned int        `json:"emptiesReturned"`
}

// draft is a validated Input.
type draft struct {
	Date            time.Time
	Type            Type
	ItemID          uuid.UUID
	CustomerID      *uuid.UUID
	VendorID        *uuid.UUID
	Quantity        int
	BasePrice       float64
	SellPrice       float64
	TransportCost   float64
	UnexpectedCost  float64
	OtherCost       float64
	Notes           *string
	TaxType         ledger.TaxType
	HasTaxType      bool
	EmptiesReturned int
}

func (in Input) draft() (draft, error) {
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Type) == "" ||
		in.ItemID == nil || *in.ItemID == uuid.Nil ||
		in.Quantity == nil || in.BasePrice == nil || in.SellPrice == nil {
		return draft{}, fmt.Errorf("%w: %v", shared.ErrValidation, ErrMissingFields)
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return draft{}, fmt.Errorf("%w: invalid date %q", shared.ErrValidation, in.Date)
	}
	typ := Type(strings.ToLower(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		return draft{}, fmt.Errorf("%w: type must be sale or purchase", shared.ErrValidation)
	}
	taxType, hasTax, err := ledger.ParseTaxType(deref(in.TaxType))
	if err != nil {
		return draft{}, err
	}
	if in.EmptiesReturned < 0 {
		return draft{}, fmt.Errorf("%w: emptiesReturned must be >= 0", shared.ErrValidation)
	}
	d := draft{
		Date:            date,
		Type:            typ,
		ItemID:          *in.ItemID,
		Quantity:        *in.Quantity,
		BasePrice:       *in.BasePrice,
		SellPrice:       *in.SellPrice,
		TransportCost:   in.TransportCost,
		UnexpectedCost:  in.UnexpectedCost,
		OtherCost:       in.OtherCost,
		Notes:           trimmed(in.Notes),
		TaxType:         taxType,
		HasTaxType:      hasTax,
		EmptiesReturned: in.EmptiesReturned,
	}
	// the counterparty follows the type; the other side is always cleared
	switch typ {
	case TypeSale:
		d.CustomerID = nonNil(in.CustomerID)
	case TypePurchase:
		d.VendorID = nonNil(in.VendorID)
	}
	if err := d.amounts(ledger.TaxNone).Validate(); err != nil {
		return draft{}, err
	}
	return d, nil
}

func (d draft) amounts(tax ledger.TaxType) ledger.Input {
	return ledger.Input{
		Quantity:       d.Quantity,
		BasePrice:      d.BasePrice,
		SellPrice:      d.SellPrice,
		TransportCost:  d.TransportCost,
		UnexpectedCost: d.UnexpectedCost,
		OtherCost:      d.OtherCost,
		TaxType:        tax,
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate accepts ISO dates and datetimes. Values without a zone are UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func nonNil(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}

// ParseRange parses optional start and end query values. A date-only end
// covers the whole day.
func ParseRange(start, end string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if strings.TrimSpace(start) != "" {
		t, err := ParseDate(start)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid startDate %q", shared.ErrValidation, start)
		}
		from = &t
	}
	if strings.TrimSpace(end) != "" {
		t, err := ParseDate(end)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid endDate %q", shared.ErrValidation, end)
		}
		if isDateOnly(end) {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("%w: endDate before startDate", shared.ErrValidation)
	}
	return from, to, nil
}

func isDateOnly(raw string) bool {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}
