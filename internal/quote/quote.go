// Package quote searches the derived price database for new-customer quotes.
package quote

import (
	"sort"
	"strings"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/pricing"
)

// DisplayDecimals is the precision of exported quote costs.
const DisplayDecimals = 4

// Filter narrows the price database. Search strings hold ';'-separated terms
// matched as case-insensitive substrings; a row matches when any term does.
// Empty value lists do not restrict.
type Filter struct {
	Items        string   `form:"items" json:"items"`
	Descriptions string   `form:"descriptions" json:"descriptions"`
	Plants       []string `form:"plant" json:"plants"`
	SellTo       []string `form:"sell_to" json:"sell_to"`
	CustomLabel  []string `form:"custom_label" json:"custom_label"`
	Pallets      []string `form:"pallet" json:"pallets"`
	Mileages     []string `form:"mileage" json:"mileages"`
	Drops        []string `form:"drop" json:"drops"`
}

// Options are the distinct values offered for each filter.
type Options struct {
	Plants      []string `json:"plants"`
	SellTo      []string `json:"sell_to"`
	CustomLabel []string `json:"custom_label"`
	Pallets     []string `json:"pallets"`
	Mileages    []string `json:"mileages"`
	Drops       []string `json:"drops"`
}

// Terms splits a search string on ';' and drops blank terms.
func Terms(search string) []string {
	var out []string
	for _, t := range strings.Split(search, ";") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

func matchesAny(value string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	v := strings.ToLower(value)
	for _, t := range terms {
		if strings.Contains(v, t) {
			return true
		}
	}
	return false
}

type valueSet map[string]struct{}

func newValueSet(values []string) valueSet {
	if len(values) == 0 {
		return nil
	}
	s := make(valueSet, len(values))
	for _, v := range values {
		s[strings.TrimSpace(v)] = struct{}{}
	}
	return s
}

func (s valueSet) allows(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[strings.TrimSpace(v)]
	return ok
}

// Search returns the rows matching f, in their stored order.
func Search(rows []pricing.PriceComponentRow, f Filter) []pricing.PriceComponentRow {
	items := Terms(f.Items)
	descs := Terms(f.Descriptions)
	plants := newValueSet(f.Plants)
	sell := newValueSet(f.SellTo)
	custom := newValueSet(f.CustomLabel)
	pallets := newValueSet(f.Pallets)
	mileages := newValueSet(f.Mileages)
	drops := newValueSet(f.Drops)

	var out []pricing.PriceComponentRow
	for i := range rows {
		r := &rows[i]
		if !matchesAny(r.Item, items) || !matchesAny(r.ItemDescription, descs) {
			continue
		}
		if !plants.allows(r.Plant) ||
			!sell.allows(r.SellToBracket.String()) ||
			!custom.allows(r.CustomLabelBracket.String()) ||
			!pallets.allows(r.Pallet) ||
			!mileages.allows(r.MileageTier) ||
			!drops.allows(r.DropTier) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// AvailableOptions collects the sorted distinct filter values of rows.
func AvailableOptions(rows []pricing.PriceComponentRow) Options {
	collect := func(get func(r *pricing.PriceComponentRow) string) []string {
		seen := make(map[string]struct{})
		var out []string
		for i := range rows {
			v := get(&rows[i])
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
		sort.Strings(out)
		return out
	}
	return Options{
		Plants:      collect(func(r *pricing.PriceComponentRow) string { return r.Plant }),
		SellTo:      collect(func(r *pricing.PriceComponentRow) string { return r.SellToBracket.String() }),
		CustomLabel: collect(func(r *pricing.PriceComponentRow) string { return r.CustomLabelBracket.String() }),
		Pallets:     collect(func(r *pricing.PriceComponentRow) string { return r.Pallet }),
		Mileages:    collect(func(r *pricing.PriceComponentRow) string { return r.MileageTier }),
		Drops:       collect(func(r *pricing.PriceComponentRow) string { return r.DropTier }),
	}
}
