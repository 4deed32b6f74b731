package quote

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/pricing"
)

func rows() []pricing.PriceComponentRow {
	mk := func(item, desc, plant, sell, pallet string) pricing.PriceComponentRow {
		return pricing.PriceComponentRow{
			Item:            item,
			ItemDescription: desc,
			Plant:           plant,
			SellToBracket:   pricing.ParseTier(sell),
			Pallet:          pallet,
			MileageTier:     "0-50",
			DropTier:        "0-500",
			FOB:             2.052,
		}
	}
	return []pricing.PriceComponentRow{
		mk("1001", "Whole Milk Gallon", "Boise", "A", "Full"),
		mk("1002", "2% Milk Half Gallon", "Boise", "B", "Partial"),
		mk("2001", "Heavy Cream Quart", "Seattle", "A", "Full"),
		mk("10015", "Whole Milk Quart", "Seattle", "C", "Full"),
	}
}

func items(rs []pricing.PriceComponentRow) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Item
	}
	return out
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter", Filter{}, []string{"1001", "1002", "2001", "10015"}},
		{"item substring", Filter{Items: "1001"}, []string{"1001", "10015"}},
		{"multiple items", Filter{Items: " 1002 ; 2001;;"}, []string{"1002", "2001"}},
		{"description any case", Filter{Descriptions: "WHOLE milk"}, []string{"1001", "10015"}},
		{"item and description", Filter{Items: "1001", Descriptions: "gallon"}, []string{"1001"}},
		{"plant", Filter{Plants: []string{"Seattle"}}, []string{"2001", "10015"}},
		{"sell-to and pallet", Filter{SellTo: []string{"A", "C"}, Pallets: []string{"Full"}}, []string{"1001", "2001", "10015"}},
		{"no match", Filter{Drops: []string{"500+"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(rows(), tt.filter)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, items(got))
		})
	}
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"a", "bc"}, Terms(" A ;; Bc ;"))
	assert.Empty(t, Terms(" ; "))
}

func TestAvailableOptions(t *testing.T) {
	opts := AvailableOptions(rows())
	assert.Equal(t, []string{"Boise", "Seattle"}, opts.Plants)
	assert.Equal(t, []string{"A", "B", "C"}, opts.SellTo)
	assert.Equal(t, []string{"Full", "Partial"}, opts.Pallets)
	assert.Equal(t, []string{""}, opts.CustomLabel)
}

func TestDisplayCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pricing.WriteDisplayCSV(&buf, Search(rows(), Filter{Items: "2001"}), DisplayDecimals))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], ",2.0520,")
}
