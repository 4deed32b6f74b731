package series

import (
	"math"
	"sort"
)

// Normalize drops observations without a usable date or value and sorts the
// rest by series then date. Duplicate dates are kept in input order.
func Normalize(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Date.IsZero() || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Series != out[j].Series {
			return out[i].Series < out[j].Series
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Group splits normalized observations per series, preserving order.
func Group(obs []Observation) (names []string, bySeries map[string][]Observation) {
	bySeries = make(map[string][]Observation)
	for _, o := range obs {
		if _, ok := bySeries[o.Series]; !ok {
			names = append(names, o.Series)
		}
		bySeries[o.Series] = append(bySeries[o.Series], o)
	}
	return names, bySeries
}
