package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaleCounter counts active sales of a company in [from, to).
type SaleCounter interface {
	CountSales(ctx context.Context, companyID uuid.UUID, from, to time.Time) (int, error)
}

// MonthBounds returns the calendar month containing date as [start, end).
func MonthBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 1, 0)
}

// FormatInvoiceNumber renders INV/{yyyy}/{mm}/{nnn}.
func FormatInvoiceNumber(date time.Time, seq int) string {
	return fmt.Sprintf("INV/%04d/%02d/%03d", date.Year(), int(date.Month()), seq)
}

// NextInvoiceNumber numbers a new sale as one past the company's active
// sales in the same calendar month.
func NextInvoiceNumber(ctx context.Context, c SaleCounter, companyID uuid.UUID, date time.Time) (string, error) {
	from, to := MonthBounds(date)
	n, err := c.CountSales(ctx, companyID, from, to)
	if err != nil {
		return "", fmt.Errorf("count sales: %w", err)
	}
	return FormatInvoiceNumber(date, n+1), nil
}
