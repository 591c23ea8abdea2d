// Package reports aggregates stored transactions into income statements and
// the owner's cross-company overview.
package reports

import "github.com/google/uuid"

// Period echoes the requested range.
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Expenses breaks down operating costs.
type Expenses struct {
	Transport  float64 `json:"transport"`
	Unexpected float64 `json:"unexpected"`
	Other      float64 `json:"other"`
	Total      float64 `json:"total"`
}

// IncomeStatement sums non-deleted transactions over a period.
type IncomeStatement struct {
	Period           Period   `json:"period"`
	TotalRevenue     float64  `json:"totalRevenue"`
	TotalCOGS        float64  `json:"totalCOGS"`
	GrossProfit      float64  `json:"grossProfit"`
	Expenses         Expenses `json:"expenses"`
	NetProfit        float64  `json:"netProfit"`
	TransactionCount int      `json:"transactionCount"`
}

// Trend classifies month-over-month growth.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// CompanyStats is one row of the owner overview.
type CompanyStats struct {
	CompanyID        uuid.UUID `json:"companyId"`
	CompanyName      string    `json:"companyName"`
	Revenue          float64   `json:"revenue"`
	Profit           float64   `json:"profit"`
	Margin           float64   `json:"margin"`
	TransactionCount int       `json:"transactionCount"`
	Trend            Trend     `json:"trend"`
	Growth           float64   `json:"growth"`
}

// CompanyRef names a tenant.
type CompanyRef struct {
	ID   uuid.UUID
	Name string
}
