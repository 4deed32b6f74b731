package pricing

import (
	"math"
	"strconv"
	"strings"
)

// TierKind discriminates the three shapes a volume bracket can take.
type TierKind int

const (
	TierMissing TierKind = iota
	TierNumeric
	TierLabel
)

// Tier is a volume bracket. Brackets are usually letters A (highest volume)
// through E (lowest); some exports use plain numbers instead.
type Tier struct {
	Kind  TierKind
	Num   float64
	Label string // upper-cased, trimmed; also the display text for numeric tiers
	Raw   string
}

// ParseTier classifies a raw bracket cell.
func ParseTier(raw string) Tier {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || s == "NAN" || s == "NONE" || s == "NULL" {
		return Tier{Kind: TierMissing, Raw: raw}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) {
		return Tier{Kind: TierNumeric, Num: n, Label: s, Raw: raw}
	}
	return Tier{Kind: TierLabel, Label: s, Raw: raw}
}

func (t Tier) IsMissing() bool { return t.Kind == TierMissing }

// String returns the bracket as it appeared in the source file.
func (t Tier) String() string { return strings.TrimSpace(t.Raw) }

// Compare orders tiers totally: missing < numeric < label; numerics by value,
// labels lexicographically (A < B < ... < E < anything after).
func (t Tier) Compare(o Tier) int {
	if t.Kind != o.Kind {
		if t.Kind < o.Kind {
			return -1
		}
		return 1
	}
	switch t.Kind {
	case TierNumeric:
		switch {
		case t.Num < o.Num:
			return -1
		case t.Num > o.Num:
			return 1
		}
		return 0
	case TierLabel:
		return strings.Compare(t.Label, o.Label)
	}
	return 0
}

// Allows reports whether a custom-label bracket may be combined with a sell-to
// bracket: the custom-label volume must not exceed the sell-to volume, i.e.
// custom >= sell in tier order. Missing brackets on either side always pass.
// When only one side is numeric the canonical texts are compared.
func Allows(sell, custom Tier) bool {
	if sell.IsMissing() || custom.IsMissing() {
		return true
	}
	if sell.Kind == TierNumeric && custom.Kind == TierNumeric {
		return custom.Num >= sell.Num
	}
	return custom.Label >= sell.Label
}
