package refdata

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

func TestLoad_UTF8WithBOM(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "Product_UOM.csv", []byte("\xEF\xBB\xBFItem, Gallons per Each ,Gallons per Case\n1001,0.5,4\n"))

	tbl, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "utf-8", tbl.Encoding)
	assert.Equal(t, []string{"Item", "Gallons per Each", "Gallons per Case"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "0.5", Cell(tbl.Rows[0], tbl.Index("gallons per each")))
}

func TestLoad_Windows1252WithControlBytes(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("Party Name,Party Site Name,Party Site Number\n" +
		"Caf\xe9 \x93Corner\x94,SITE\x81 ONE,1001\n" +
		"WINCO FOODS,WINCO 014 BOISE,1002\n")
	p := writeFile(t, dir, "Customer_Extract_Report.csv", raw)

	t.Run("cleaned load strips the control range", func(t *testing.T) {
		tbl, err := LoadCleaned(p)
		require.NoError(t, err)
		require.Len(t, tbl.Rows, 2)

		assert.Equal(t, "Café Corner", tbl.Rows[0][0])
		assert.Equal(t, "SITE ONE", tbl.Rows[0][1])
		assert.Equal(t, "1001", tbl.Rows[0][2])
		assert.Equal(t, "WINCO 014 BOISE", tbl.Rows[1][1])
	})

	t.Run("plain load falls back to a latin encoding", func(t *testing.T) {
		tbl, err := Load(p)
		require.NoError(t, err)
		require.Len(t, tbl.Rows, 2)

		assert.NotEqual(t, "utf-8", tbl.Encoding)
		for _, row := range tbl.Rows {
			for _, cell := range row {
				assert.True(t, utf8.ValidString(cell))
				assert.NotContains(t, cell, "\u0081")
				assert.NotContains(t, cell, "�")
			}
		}
		assert.Equal(t, "SITE ONE", tbl.Rows[0][1])
		assert.Equal(t, "1002", tbl.Rows[1][2])
	})
}

func TestLoad_BadRowsAreSkippedOrPadded(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "Pallet_Fee.csv", []byte("Pallet,Mixed Pallet Fee ($/Gal)\nMixed,$0.05\nFull\nA,B,C\n"))

	tbl, err := Load(p)
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, 1, tbl.Skipped)
	assert.Equal(t, []string{"Full", ""}, tbl.Rows[1])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestRequireFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", []byte("x\n1\n"))

	paths, err := RequireFiles(dir, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.csv"), paths["a.csv"])

	_, err = RequireFiles(dir, "a.csv", "b.csv", "c.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), "b.csv, c.csv")
}

func TestLoadRequired_ChecksColumns(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "Milk_Market_Index.csv", []byte("Item,Market Index Name\n1001,CLASS I\n"))

	_, err := LoadRequired(p, "Item", "Market Index Name")
	require.NoError(t, err)

	_, err = LoadRequired(p, "Item", "Region")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), "Region")
}

func TestTable_RenameAndIndex(t *testing.T) {
	tbl := &Table{Header: []string{"Custom Label Bracket (Gal/Yr)", "Drop Fee Tier (lbs/Drop Size)", "Delivery Charge ($/Gal)"}}
	tbl.Rename(CustomLabelAliases)
	tbl.Rename(DeliveryAliases)

	assert.Equal(t, 0, tbl.Index("Custom Label Bracket"))
	assert.Equal(t, 1, tbl.Index("Drop Fee Tier (lbs/Drop)"))
	assert.Equal(t, 2, tbl.Index("delivery charge ($/gal)"))
	assert.Equal(t, -1, tbl.Index("Pallet"))
	assert.Equal(t, 2, tbl.Contains("Delivery Charge"))
}

func TestParseDollar(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1,234.56", 1234.56},
		{" 0.4512 ", 0.4512},
		{"$ 2.10", 2.10},
		{"-0.25", -0.25},
		{"", 0},
		{"n/a", 0},
		{"NaN", 0},
		{"$-", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseDollar(tt.in), 1e-12)
		})
	}
}

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "1001", CanonicalKey("1001.0"))
	assert.Equal(t, "1001", CanonicalKey(" 1001 "))
	assert.Equal(t, "PNW", CanonicalKey(" PNW "))
}
