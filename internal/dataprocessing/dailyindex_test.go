package dataprocessing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

func TestMapDailyIndexItem(t *testing.T) {
	tests := []struct {
		name          string
		category      string
		commodity     string
		specification string
		expected      string
		ok            bool
	}{
		{name: "exact match", category: "LOWLAND VEGETABLES", commodity: "Tomato", expected: "Tomato", ok: true},
		{name: "case and space insensitive", category: " lowland vegetables ", commodity: " ampalaya", expected: "Bittergourd (Ampalaya)", ok: true},
		{name: "category decides rice", category: "LOCAL COMMERCIAL RICE", commodity: "PREMIUM", expected: "Local Premium", ok: true},
		{name: "misspelled sitao", category: "LOWLAND VEGETABLES", commodity: "POLE SITA0", expected: "String Beans (Sitao)", ok: true},
		{name: "specification hint present", category: "POULTRY PRODUCTS", commodity: "WHOLE CHICKEN, LOCAL", specification: "Fully Dressed", expected: "Whole Chicken", ok: true},
		{name: "specification hint missing", category: "POULTRY PRODUCTS", commodity: "WHOLE CHICKEN, LOCAL", specification: "Live", ok: false},
		{name: "unique fallback ignores category", category: "VEGETABLES", commodity: "SQUASH", expected: "Squash", ok: true},
		{name: "ambiguous fallback", category: "RICE", commodity: "PREMIUM", ok: false},
		{name: "unknown commodity", category: "FISH PRODUCTS", commodity: "BANGUS", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := MapDailyIndexItem(tt.category, tt.commodity, tt.specification)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, item)
		})
	}
}

func TestLoadDailyIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2025-10-14.csv"),
		"category,commodity,specification,price\n"+
			"LOWLAND VEGETABLES,TOMATO,,120.00\n"+
			"LOWLAND VEGETABLES,TOMATO,medium,130\n"+
			"SPICES,GINGER LOCAL,,n/a\n"+
			"FISH PRODUCTS,BANGUS,,200\n")
	writeFile(t, filepath.Join(dir, "october-13-2025.csv"),
		"COMMODITY,SPECIFICATION,PREVAILING RETAIL PRICE\n"+
			"LOWLAND VEGETABLES\n"+
			"Tomato,,\"₱110.00\"\n"+
			"Squash,Suha,\"40-50\"\n"+
			"POULTRY PRODUCTS\n"+
			"\"Whole Chicken, Local\",Fully Dressed,190\n"+
			"\"Chicken Egg (White, Medium)\",,-\n")
	writeFile(t, filepath.Join(dir, "readme.csv"), "ignored\n")

	index, err := LoadDailyIndex(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, index.Files)
	assert.Equal(t, 1, index.Unmapped)
	assert.Equal(t, 2, index.Unpriced)

	got := make(map[domain.PointKey]float64)
	for _, r := range index.Records {
		got[r.Key()] = r.Price
	}
	assert.Equal(t, map[domain.PointKey]float64{
		{Item: "Squash", Date: "2025-10-13"}:        45,
		{Item: "Tomato", Date: "2025-10-13"}:        110,
		{Item: "Tomato", Date: "2025-10-14"}:        125,
		{Item: "Whole Chicken", Date: "2025-10-13"}: 190,
	}, got)

	// sorted by item then date
	require.Len(t, index.Records, 4)
	assert.Equal(t, "Squash", index.Records[0].Item)
	assert.Equal(t, "2025-10-13", index.Records[1].Date.Format(domain.DateLayout))
}

func TestLoadDailyIndexMissingDir(t *testing.T) {
	index, err := LoadDailyIndex(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, index.Records)

	index, err = LoadDailyIndex("")
	require.NoError(t, err)
	assert.Zero(t, index.Files)
}
