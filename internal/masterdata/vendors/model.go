package vendors

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes goods suppliers from transport providers.
type Kind string

const (
	KindVendor      Kind = "vendor"
	KindTransporter Kind = "transporter"
)

// Vendor is the counterparty of a purchase.
type Vendor struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
	Type      Kind      `json:"type"`
	Contact   *string   `json:"contact"`
	CreatedAt time.Time `json:"createdAt"`
}

type Input struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Type    string  `json:"type" validate:"required,oneof=vendor transporter"`
	Contact *string `json:"contact" validate:"omitempty,max=100"`
}
