package customers

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the counterparty of a sale.
type Customer struct {
	ID             uuid.UUID `json:"id"`
	CompanyID      uuid.UUID `json:"companyId"`
	Name           string    `json:"name"`
	Contact        *string   `json:"contact"`
	Address        *string   `json:"address"`
	IdentityNumber *string   `json:"identityNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Input struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Contact        *string `json:"contact" validate:"omitempty,max=100"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	IdentityNumber *string `json:"identityNumber" validate:"omitempty,max=32"`
}
