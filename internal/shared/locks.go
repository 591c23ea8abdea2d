package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvoiceLockKey builds the redis key guarding invoice sequencing for one
// company and calendar month.
func InvoiceLockKey(companyID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("invoice:%s:%04d-%02d:lock", companyID, date.Year(), int(date.Month()))
}

// DeliveryOrderLockKey builds the redis key guarding delivery order numbering.
func DeliveryOrderLockKey(companyID uuid.UUID, year int) string {
	return fmt.Sprintf("delivery-order:%s:%04d:lock", companyID, year)
}
