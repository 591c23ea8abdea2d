package companies

import (
	"time"

	"github.com/google/uuid"
)

// Company is a tenant.
type Company struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	UserCount        int       `json:"userCount"`
	CreatedAt        time.Time `json:"createdAt"`
}
