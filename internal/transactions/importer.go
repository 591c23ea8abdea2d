package transactions

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/ledger"
	"github.com/finentry/finentry/internal/masterdata/shared"
	internalShared "github.com/finentry/finentry/internal/shared"
)

// Lookups are a company's reference records keyed by lower-cased name.
type Lookups struct {
	Items     map[string]ItemRef
	Customers map[string]PartyRef
	Vendors   map[string]PartyRef
}

// ImportResult reports a batch import. Count duplicates SuccessCount for
// older clients.
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	Count        int      `json:"count"`
	Skipped      int      `json:"skipped"`
	Errors       []string `json:"errors"`
	Message      string   `json:"message"`
}

// Import turns loosely typed rows into transactions. Each row is its own
// unit: failures are collected and never abort the batch. Imported rows
// carry tax NONE, no invoice number and no stock effect.
func (s *Service) Import(ctx context.Context, scope internalShared.Scope, rows []map[string]any) (ImportResult, error) {
	if scope.Unscoped {
		return ImportResult{}, fmt.Errorf("%w: company required", internalShared.ErrValidation)
	}
	if len(rows) == 0 {
		return ImportResult{}, fmt.Errorf("%w: no data to import", internalShared.ErrValidation)
	}
	lookups, err := s.repo.Lookups(ctx, scope.CompanyID)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load lookups: %w", err)
	}

	result := ImportResult{Errors: []string{}}
	for i, raw := range rows {
		rowNum := i + 1
		t, reason := s.convertRow(scope.CompanyID, AdaptRow(raw), lookups)
		if reason != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, reason))
			s.metrics.ImportRow("rejected")
			continue
		}
		if err := s.repo.InsertImported(ctx, t); err != nil {
			s.logger.Error("import row failed", "row", rowNum, "company_id", scope.CompanyID, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Database error", rowNum))
			s.metrics.ImportRow("failed")
			continue
		}
		result.SuccessCount++
		s.metrics.ImportRow("imported")
	}
	result.Count = result.SuccessCount
	result.Skipped = len(result.Errors)
	result.Message = fmt.Sprintf("Imported %d transactions. %d failed.", result.SuccessCount, result.Skipped)
	s.record(ctx, scope.ActorID, scope.CompanyID, "transaction:import", "transaction_batch", uuid.NewString(), map[string]any{
		"rows":     len(rows),
		"imported": result.SuccessCount,
		"skipped":  result.Skipped,
	})
	return result, nil
}

// convertRow returns the transaction or a user-facing reason it was rejected.
func (s *Service) convertRow(companyID uuid.UUID, row ImportRow, l Lookups) (Transaction, string) {
	qty, qtyErr := number(row.Quantity)
	if row.Date == nil || row.Type == "" || row.Party == "" || row.Item == "" || qtyErr != nil || qty == 0 {
		return Transaction{}, "Missing required fields"
	}
	if qty != math.Trunc(qty) {
		return Transaction{}, fmt.Sprintf("Invalid quantity '%s'", text(row.Quantity))
	}
	typ := NormalizeType(row.Type)

	item, ok := l.Items[shared.Key(row.Item)]
	if !ok {
		return Transaction{}, fmt.Sprintf("Item '%s' not found", row.Item)
	}
	t := Transaction{
		ID:        uuid.New(),
		CompanyID: companyID,
		Type:      typ,
		ItemID:    item.ID,
		Quantity:  int(qty),
		TaxType:   ledger.TaxNone,
		ItemName:  item.Name,
	}
	if typ == TypeSale {
		c, ok := l.Customers[shared.Key(row.Party)]
		if !ok {
			return Transaction{}, fmt.Sprintf("Customer '%s' not found", row.Party)
		}
		t.CustomerID, t.CustomerName = &c.ID, &c.Name
	} else {
		v, ok := l.Vendors[shared.Key(row.Party)]
		if !ok {
			return Transaction{}, fmt.Sprintf("Vendor '%s' not found", row.Party)
		}
		t.VendorID, t.VendorName = &v.ID, &v.Name
	}

	date, err := ParseImportDate(row.Date)
	if err != nil {
		return Transaction{}, fmt.Sprintf("Invalid Date '%s'", text(row.Date))
	}
	t.Date = date

	amounts := []struct {
		name string
		raw  any
		into *float64
	}{
		{"Base Price", row.BasePrice, &t.BasePrice},
		{"Sell Price", row.SellPrice, &t.SellPrice},
		{"Transport", row.Transport, &t.TransportCost},
		{"Unexpected", row.Unexpected, &t.UnexpectedCost},
		{"Other", row.Other, &t.OtherCost},
	}
	for _, a := range amounts {
		v, err := number(a.raw)
		if err != nil {
			return Transaction{}, fmt.Sprintf("Invalid %s '%s'", a.name, text(a.raw))
		}
		*a.into = v
	}
	if row.Notes != "" {
		notes := row.Notes
		t.Notes = &notes
	}

	in := ledger.Input{
		Quantity:       t.Quantity,
		BasePrice:      t.BasePrice,
		SellPrice:      t.SellPrice,
		TransportCost:  t.TransportCost,
		UnexpectedCost: t.UnexpectedCost,
		OtherCost:      t.OtherCost,
		TaxType:        ledger.TaxNone,
	}
	if err := in.Validate(); err != nil {
		return Transaction{}, strings.TrimPrefix(err.Error(), internalShared.ErrValidation.Error()+": ")
	}
	t.Figures = ledger.Compute(in)
	now := s.clock()
	t.CreatedAt, t.UpdatedAt = now, now
	return t, ""
}
