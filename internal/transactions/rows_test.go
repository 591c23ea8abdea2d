package transactions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptRowAliases(t *testing.T) {
	row := AdaptRow(map[string]any{
		"Tanggal":     "2024-03-01",
		"TIPE":        "Jual",
		"Customer":    " Toko Maju ",
		"barang":      "LPG 3kg",
		"Jumlah":      12.0,
		"COGS":        "5000",
		"Harga Jual":  7000.0,
		"Transport":   "",
		"Catatan":     "first",
		"Unknown Col": "ignored",
	})

	assert.Equal(t, "2024-03-01", row.Date)
	assert.Equal(t, "Jual", row.Type)
	assert.Equal(t, "Toko Maju", row.Party)
	assert.Equal(t, "LPG 3kg", row.Item)
	assert.Equal(t, 12.0, row.Quantity)
	assert.Equal(t, "5000", row.BasePrice)
	assert.Equal(t, 7000.0, row.SellPrice)
	assert.Nil(t, row.Transport)
	assert.Equal(t, "first", row.Notes)
}

func TestAdaptRowPrefersFirstNonBlankAlias(t *testing.T) {
	row := AdaptRow(map[string]any{"Party": "", "Pihak": "Agen A", "Vendor": "Agen B"})
	assert.Equal(t, "Agen A", row.Party)
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, TypeSale, NormalizeType("sale"))
	assert.Equal(t, TypeSale, NormalizeType(" SALE "))
	assert.Equal(t, TypeSale, NormalizeType("Penjualan"))
	assert.Equal(t, TypePurchase, NormalizeType("Pembelian"))
	assert.Equal(t, TypePurchase, NormalizeType("anything"))
}

func TestExcelSerialToTime(t *testing.T) {
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), ExcelSerialToTime(45366))
	assert.Equal(t, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC), ExcelSerialToTime(45366.5))
	assert.Equal(t, time.Unix(0, 0).UTC(), ExcelSerialToTime(25569))
}

func TestParseImportDate(t *testing.T) {
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []any{45366.0, 45366, "45366", "2024-03-15", "2024-03-15T00:00:00Z"} {
		got, err := ParseImportDate(in)
		require.NoError(t, err, "%v", in)
		assert.Equal(t, want, got, "%v", in)
	}
	_, err := ParseImportDate("15 Maret")
	require.Error(t, err)
	_, err = ParseImportDate(true)
	require.Error(t, err)
}

func TestNumber(t *testing.T) {
	v, err := number(nil)
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = number(" 1500.5 ")
	require.NoError(t, err)
	assert.Equal(t, 1500.5, v)

	_, err = number("1.500,00")
	require.Error(t, err)
}

func TestParseRange(t *testing.T) {
	from, to, err := ParseRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2024, time.March, 31, 23, 59, 59, 999999999, time.UTC), *to)

	from, to, err = ParseRange("", "")
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)

	_, _, err = ParseRange("2024-03-02", "2024-03-01")
	require.Error(t, err)
	_, _, err = ParseRange("yesterday", "")
	require.Error(t, err)
}
