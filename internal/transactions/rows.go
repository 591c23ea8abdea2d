package transactions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ImportRow is the fixed schema an imported spreadsheet row is mapped onto.
type ImportRow struct {
	Date       any
	Type       string
	Party      string
	Item       string
	Quantity   any
	BasePrice  any
	SellPrice  any
	Transport  any
	Unexpected any
	Other      any
	Notes      string
}

var rowAliases = struct {
	date, typ, party, item, quantity, base, sell, transport, unexpected, other, notes []string
}{
	date:       []string{"Date", "Tanggal"},
	typ:        []string{"Type", "Tipe"},
	party:      []string{"Party", "Pihak", "Customer", "Vendor"},
	item:       []string{"Item", "Barang"},
	quantity:   []string{"Quantity", "Qty", "Jumlah"},
	base:       []string{"Base Price", "Harga Dasar", "COGS"},
	sell:       []string{"Sell Price", "Harga Jual"},
	transport:  []string{"Transport"},
	unexpected: []string{"Unexpected"},
	other:      []string{"Other"},
	notes:      []string{"Notes", "Catatan"},
}

// AdaptRow maps a loosely keyed row onto ImportRow. Aliases are tried in
// order, exact key first, then case-insensitively.
func AdaptRow(raw map[string]any) ImportRow {
	folded := make(map[string]any, len(raw))
	for k, v := range raw {
		folded[strings.ToLower(strings.TrimSpace(k))] = v
	}
	pick := func(aliases []string) any {
		for _, a := range aliases {
			if v, ok := raw[a]; ok && !blank(v) {
				return v
			}
		}
		for _, a := range aliases {
			if v, ok := folded[strings.ToLower(a)]; ok && !blank(v) {
				return v
			}
		}
		return nil
	}
	return ImportRow{
		Date:       pick(rowAliases.date),
		Type:       text(pick(rowAliases.typ)),
		Party:      text(pick(rowAliases.party)),
		Item:       text(pick(rowAliases.item)),
		Quantity:   pick(rowAliases.quantity),
		BasePrice:  pick(rowAliases.base),
		SellPrice:  pick(rowAliases.sell),
		Transport:  pick(rowAliases.transport),
		Unexpected: pick(rowAliases.unexpected),
		Other:      pick(rowAliases.other),
		Notes:      text(pick(rowAliases.notes)),
	}
}

// NormalizeType maps "sale" or anything containing "jual" to a sale and
// everything else to a purchase.
func NormalizeType(raw string) Type {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "sale" || strings.Contains(v, "jual") {
		return TypeSale
	}
	return TypePurchase
}

const excelEpochOffset = 25569

// ExcelSerialToTime converts a spreadsheet serial day count.
func ExcelSerialToTime(serial float64) time.Time {
	ms := math.Round((serial - excelEpochOffset) * 86400 * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

// ParseImportDate accepts ISO strings and Excel serial numbers.
func ParseImportDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case float64:
		return ExcelSerialToTime(d), nil
	case int:
		return ExcelSerialToTime(float64(d)), nil
	case string:
		if t, err := ParseDate(d); err == nil {
			return t, nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(d), 64); err == nil {
			return ExcelSerialToTime(f), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %v", v)
}

// number reads an optional numeric cell; nil reads as zero.
func number(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}

func blank(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	default:
		return false
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
