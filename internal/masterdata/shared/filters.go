package shared

import "github.com/google/uuid"

// ListFilters represents standard list filters for master data.
type ListFilters struct {
	Search    string
	CompanyID *uuid.UUID
}
