package pricing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name   string
		sell   string
		custom string
		want   bool
	}{
		{"same letter", "B", "B", true},
		{"lower volume custom", "B", "D", true},
		{"higher volume custom", "C", "A", false},
		{"case and space insensitive", " b ", "c", true},
		{"numeric equal", "2", "2.0", true},
		{"numeric greater", "1", "3", true},
		{"numeric smaller", "4", "3", false},
		{"missing sell", "", "A", true},
		{"missing custom", "E", "nan", true},
		{"mixed compares text", "1", "A", true},
		{"mixed compares text reversed", "A", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(ParseTier(tt.sell), ParseTier(tt.custom)))
		})
	}
}

func TestTierCompare_TotalOrder(t *testing.T) {
	raw := []string{"E", "10", "", "A", "2", "Z", "c", "b"}
	tiers := make([]Tier, len(raw))
	for i, r := range raw {
		tiers[i] = ParseTier(r)
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Compare(tiers[j]) < 0 })

	got := make([]string, len(tiers))
	for i, tr := range tiers {
		got[i] = tr.String()
	}
	assert.Equal(t, []string{"", "2", "10", "A", "b", "c", "E", "Z"}, got)
}

func TestParseTier_Kinds(t *testing.T) {
	assert.True(t, ParseTier(" NULL ").IsMissing())
	assert.Equal(t, TierNumeric, ParseTier("3").Kind)
	assert.Equal(t, TierLabel, ParseTier("b").Kind)
	assert.Equal(t, "B", ParseTier("b").Label)
}
