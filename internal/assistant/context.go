package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/finentry/finentry/internal/ledger"
	"github.com/finentry/finentry/internal/reports"
)

const (
	scopeSingle     = "SINGLE_COMPANY"
	scopeMulti      = "MULTI_COMPANY"
	topCustomerSize = 5
)

var idr = message.NewPrinter(language.Indonesian)

// FormatIDR renders a rupiah amount with Indonesian digit grouping.
func FormatIDR(v decimal.Decimal) string {
	return idr.Sprintf("Rp %v", number.Decimal(v.Round(0).IntPart()))
}

// ContextPeriod is the date window the figures cover.
type ContextPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Financials summarises one company.
type Financials struct {
	Revenue          float64 `json:"revenue"`
	COGS             float64 `json:"cogs"`
	Expenses         float64 `json:"expenses"`
	NetProfit        float64 `json:"net_profit"`
	TransactionCount int     `json:"transaction_count"`
	RevenueIDR       string  `json:"revenue_idr"`
	NetProfitIDR     string  `json:"net_profit_idr"`
}

// ExpenseLine is one expense category total.
type ExpenseLine struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// CustomerRevenue ranks a customer by sales.
type CustomerRevenue struct {
	Name       string  `json:"name"`
	Revenue    float64 `json:"revenue"`
	RevenueIDR string  `json:"revenue_idr"`
}

func newCustomerRevenue(name string, revenue decimal.Decimal) CustomerRevenue {
	return CustomerRevenue{Name: name, Revenue: revenue.InexactFloat64(), RevenueIDR: FormatIDR(revenue)}
}

// CompanyComparison is one company's line in the owner's global view.
type CompanyComparison struct {
	Name          string  `json:"name"`
	Revenue       float64 `json:"revenue"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"margin_percent"`
	RevenueIDR    string  `json:"revenue_idr"`
}

// FinancialContext is serialised into the system prompt and echoed to the
// caller.
type FinancialContext struct {
	Scope            string              `json:"scope"`
	Company          string              `json:"company,omitempty"`
	Period           ContextPeriod       `json:"period"`
	Financials       *Financials         `json:"financials,omitempty"`
	ExpenseBreakdown []ExpenseLine       `json:"expense_breakdown,omitempty"`
	TopCustomers     []CustomerRevenue   `json:"top_customers,omitempty"`
	Summary          []CompanyComparison `json:"summary,omitempty"`
}

// Figures is the read side the context builder needs.
type Figures interface {
	Totals(ctx context.Context, companyID *uuid.UUID, rg reports.Range) (ledger.Totals, error)
	Companies(ctx context.Context) ([]reports.CompanyRef, error)
}

func period(from, to time.Time) ContextPeriod {
	return ContextPeriod{Start: from.Format("2006-01-02"), End: to.Format("2006-01-02")}
}

func (s *Service) singleContext(ctx context.Context, companyID uuid.UUID, from, to time.Time) (*FinancialContext, error) {
	var (
		name   string
		totals ledger.Totals
		top    []CustomerRevenue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		name, err = s.repo.CompanyName(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.figures.Totals(gctx, &companyID, reports.Range{From: from, To: to, Inclusive: true})
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.repo.TopCustomers(gctx, companyID, from, to, topCustomerSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assistant context: %w", err)
	}
	if top == nil {
		top = []CustomerRevenue{}
	}
	net := totals.NetProfit()
	return &FinancialContext{
		Scope:   scopeSingle,
		Company: name,
		Period:  period(from, to),
		Financials: &Financials{
			Revenue:          totals.Revenue.InexactFloat64(),
			COGS:             totals.COGS.InexactFloat64(),
			Expenses:         totals.Expenses().InexactFloat64(),
			NetProfit:        net.InexactFloat64(),
			TransactionCount: totals.Count,
			RevenueIDR:       FormatIDR(totals.Revenue),
			NetProfitIDR:     FormatIDR(net),
		},
		ExpenseBreakdown: []ExpenseLine{
			{Category: "transport", Amount: totals.Transport.InexactFloat64()},
			{Category: "unexpected", Amount: totals.Unexpected.InexactFloat64()},
			{Category: "other", Amount: totals.Other.InexactFloat64()},
		},
		TopCustomers: top,
	}, nil
}

func (s *Service) multiContext(ctx context.Context, from, to time.Time) (*FinancialContext, error) {
	companies, err := s.figures.Companies(ctx)
	if err != nil {
		return nil, fmt.Errorf("assistant context: %w", err)
	}
	summary := make([]CompanyComparison, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, c := range companies {
		i, c := i, c
		g.Go(func() error {
			id := c.ID
			t, err := s.figures.Totals(gctx, &id, reports.Range{From: from, To: to, Inclusive: true})
			if err != nil {
				return err
			}
			profit := t.NetProfit()
			summary[i] = CompanyComparison{
				Name:          c.Name,
				Revenue:       t.Revenue.InexactFloat64(),
				Profit:        profit.InexactFloat64(),
				MarginPercent: ledger.Percent(profit, t.Revenue).Round(2).InexactFloat64(),
				RevenueIDR:    FormatIDR(t.Revenue),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assistant context: %w", err)
	}
	return &FinancialContext{Scope: scopeMulti, Period: period(from, to), Summary: summary}, nil
}
