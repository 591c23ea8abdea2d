package delivery

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a delivery order.
type OrderStatus string

// StatusPending is the state of a newly dispatched order.
const StatusPending OrderStatus = "pending"

// DriverActive marks drivers offered for dispatch.
const DriverActive = "active"

var (
	// ErrMissingAssignment is returned when an order lacks vehicle, driver or invoices.
	ErrMissingAssignment = errors.New("vehicle, driver, and at least one invoice are required")
	// ErrNoMatchingTransactions is returned when none of the listed transactions can be assigned.
	ErrNoMatchingTransactions = errors.New("none of the transactions belong to the company")
)

// Driver is a company's delivery driver.
type Driver struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	LicenseNo *string   `json:"licenseNo"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Vehicle is a company's delivery vehicle.
type Vehicle struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"companyId"`
	PlateNumber string    `json:"plateNumber"`
	Type        *string   `json:"type"`
	Capacity    *float64  `json:"capacity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AssignedTransaction is the slice of a transaction shown on an order.
type AssignedTransaction struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber *string   `json:"invoiceNumber"`
	CustomerName  *string   `json:"customerName"`
}

// Order assigns invoices to one vehicle and driver.
type Order struct {
	ID           uuid.UUID             `json:"id"`
	CompanyID    uuid.UUID             `json:"companyId"`
	Number       string                `json:"doNumber"`
	Date         time.Time             `json:"date"`
	VehicleID    uuid.UUID             `json:"vehicleId"`
	DriverID     uuid.UUID             `json:"driverId"`
	Notes        *string               `json:"notes"`
	Status       OrderStatus           `json:"status"`
	CreatedAt    time.Time             `json:"createdAt"`
	Vehicle      *Vehicle              `json:"vehicle,omitempty"`
	Driver       *Driver               `json:"driver,omitempty"`
	Transactions []AssignedTransaction `json:"transactions"`
}

// DriverInput is the create payload for drivers.
type DriverInput struct {
	Name      string  `json:"name" validate:"required"`
	Phone     *string `json:"phone"`
	LicenseNo *string `json:"licenseNo"`
}

// VehicleInput is the create payload for vehicles.
type VehicleInput struct {
	PlateNumber string   `json:"plateNumber" validate:"required"`
	Type        *string  `json:"type"`
	Capacity    *float64 `json:"capacity" validate:"omitempty,gte=0"`
}

// OrderInput is the create payload for delivery orders.
type OrderInput struct {
	Date           string      `json:"date"`
	VehicleID      *uuid.UUID  `json:"vehicleId"`
	DriverID       *uuid.UUID  `json:"driverId"`
	TransactionIDs []uuid.UUID `json:"transactionIds"`
	Notes          *string     `json:"notes"`
}

// FormatOrderNumber renders DO/yyyy/nnn.
func FormatOrderNumber(year, seq int) string {
	return fmt.Sprintf("DO/%04d/%03d", year, seq)
}
