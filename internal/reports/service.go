package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/finentry/finentry/internal/ledger"
	"github.com/finentry/finentry/internal/shared"
	"github.com/finentry/finentry/internal/transactions"
)

// RepositoryPort abstracts aggregate queries.
type RepositoryPort interface {
	Totals(ctx context.Context, companyID *uuid.UUID, rg Range) (ledger.Totals, error)
	Companies(ctx context.Context) ([]CompanyRef, error)
}

const overviewConcurrency = 4

var (
	hundred          = decimal.NewFromInt(100)
	trendThreshold   = decimal.NewFromInt(5)
	firstMonthGrowth = decimal.NewFromInt(100)
)

// Service builds reports. Results are never cached; concurrent identical
// income statement requests share one query.
type Service struct {
	repo  RepositoryPort
	group singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// IncomeStatement sums active transactions in scope over [start, end].
func (s *Service) IncomeStatement(ctx context.Context, scope shared.Scope, start, end string) (IncomeStatement, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return IncomeStatement{}, fmt.Errorf("%w: startDate and endDate are required", shared.ErrValidation)
	}
	from, to, err := transactions.ParseRange(start, end)
	if err != nil {
		return IncomeStatement{}, err
	}
	companyID := scope.CompanyFilter()
	key := fmt.Sprintf("%s|%s|%s", companyKey(companyID), from.Format(time.RFC3339Nano), to.Format(time.RFC3339Nano))

	ch := s.group.DoChan(key, func() (any, error) {
		return s.repo.Totals(context.WithoutCancel(ctx), companyID, Range{From: *from, To: *to, Inclusive: true})
	})
	select {
	case <-ctx.Done():
		return IncomeStatement{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return IncomeStatement{}, res.Err
		}
		return statement(Period{StartDate: start, EndDate: end}, res.Val.(ledger.Totals)), nil
	}
}

func statement(p Period, t ledger.Totals) IncomeStatement {
	return IncomeStatement{
		Period:       p,
		TotalRevenue: t.Revenue.InexactFloat64(),
		TotalCOGS:    t.COGS.InexactFloat64(),
		GrossProfit:  t.GrossProfit().InexactFloat64(),
		Expenses: Expenses{
			Transport:  t.Transport.InexactFloat64(),
			Unexpected: t.Unexpected.InexactFloat64(),
			Other:      t.Other.InexactFloat64(),
			Total:      t.Expenses().InexactFloat64(),
		},
		NetProfit:        t.NetProfit().InexactFloat64(),
		TransactionCount: t.Count,
	}
}

func companyKey(id *uuid.UUID) string {
	if id == nil {
		return "*"
	}
	return id.String()
}

// CompanyOverview reports this month's figures for every company with growth
// against the previous calendar month. Owner only.
func (s *Service) CompanyOverview(ctx context.Context, scope shared.Scope, now time.Time) ([]CompanyStats, error) {
	if scope.Role != shared.RoleOwner {
		return nil, fmt.Errorf("%w: owner role required", shared.ErrForbidden)
	}
	companies, err := s.repo.Companies(ctx)
	if err != nil {
		return nil, err
	}
	thisMonth, lastMonth := monthStarts(now)
	out := make([]CompanyStats, len(companies))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, c := range companies {
		i, c := i, c
		g.Go(func() error {
			id := c.ID
			current, err := s.repo.Totals(ctx, &id, Range{From: thisMonth})
			if err != nil {
				return fmt.Errorf("company %s current month: %w", c.ID, err)
			}
			previous, err := s.repo.Totals(ctx, &id, Range{From: lastMonth, To: thisMonth})
			if err != nil {
				return fmt.Errorf("company %s previous month: %w", c.ID, err)
			}
			out[i] = stats(c, current, previous)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func monthStarts(now time.Time) (this, last time.Time) {
	this = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return this, this.AddDate(0, -1, 0)
}

func stats(c CompanyRef, current, previous ledger.Totals) CompanyStats {
	profit := current.NetProfit()
	growth := Growth(current.Revenue, previous.Revenue)
	return CompanyStats{
		CompanyID:        c.ID,
		CompanyName:      c.Name,
		Revenue:          current.Revenue.InexactFloat64(),
		Profit:           profit.InexactFloat64(),
		Margin:           ledger.Percent(profit, current.Revenue).Round(2).InexactFloat64(),
		TransactionCount: current.Count,
		Trend:            TrendOf(growth),
		Growth:           growth.Round(2).InexactFloat64(),
	}
}

// Growth is the percent change from previous to current. Revenue appearing
// after an empty month counts as 100.
func Growth(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsPositive() {
		return current.Sub(previous).Div(previous).Mul(hundred)
	}
	if current.IsPositive() {
		return firstMonthGrowth
	}
	return decimal.Zero
}

// TrendOf classifies growth beyond +/-5 percent.
func TrendOf(growth decimal.Decimal) Trend {
	switch {
	case growth.GreaterThan(trendThreshold):
		return TrendUp
	case growth.LessThan(trendThreshold.Neg()):
		return TrendDown
	default:
		return TrendFlat
	}
}
