package vbcs

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/effective"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// KS pricing input files.
const (
	FileCostcoPricing = "Costco_HTST_Pricing.csv"
	FileRegionLookup  = "Costco_HTST_Region_Lookup.csv"
)

const (
	ksChargeStart = "43831" // 2020-01-01 as a spreadsheet serial
	ksDigits      = 2
	colProdNumber = "Prod #"
	colShipToNum  = "Ship To Site Number"
	colRegion     = "Region"
)

// KSRegions are the region price columns of the Costco pricing table.
var KSRegions = []string{
	"PNW",
	"PNW X-Dock",
	"WA/OR Total",
	"Alaska",
	"Montana",
	"SLC, UT",
	"St. George, UT",
	"Denver, CO",
	"Gypsum, CO",
	"Boise, ID",
}

// KSInputs are the tables a KS run needs.
type KSInputs struct {
	PriceBuild    *refdata.Table
	CostcoPricing *refdata.Table
	RegionLookup  *refdata.Table
	Dates         *effective.Rules
}

type regionKey struct {
	item   string
	region string
}

// BuildKS prices Kirkland Signature items per Costco region. Each priced row
// yields an EA and a CA record at the same price.
func BuildKS(in *KSInputs) (*BuildResult, error) {
	if in == nil || in.PriceBuild == nil || in.CostcoPricing == nil || in.RegionLookup == nil {
		return nil, fmt.Errorf("%w: KS pricing tables", refdata.ErrMissingInput)
	}
	period, err := in.Dates.CurrentPeriod(false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve KS pricing period: %w", err)
	}
	if missing := in.RegionLookup.Missing(colShipToNum, colRegion); len(missing) > 0 {
		return nil, refdata.MissingColumns(in.RegionLookup.Name, missing)
	}
	if missing := in.CostcoPricing.Missing(colProdNumber); len(missing) > 0 {
		return nil, refdata.MissingColumns(in.CostcoPricing.Name, missing)
	}

	regions := regionIndex(in.RegionLookup)
	prices := regionPrices(in.CostcoPricing)

	t := in.PriceBuild
	descIdx := t.Index(colItemDescription)
	marketIdx := t.Index(colMarketIndex)
	itemIdx := t.Index(colItem)
	custIdx := t.Index(colCustomer)
	siteIdx := t.Index(colShipToSite)
	numIdx := t.Index(colPartySiteNumber)

	start := period.Start.Format("01/02/2006")
	end := period.MonthEnd.Add(endOfDay).Format("01/02/2006 15:04")

	res := &BuildResult{Skipped: make(map[string]int)}
	var records []Record
	for _, row := range t.Rows {
		if !strings.Contains(refdata.Cell(row, descIdx), "KS") || !strings.Contains(refdata.Cell(row, marketIdx), "CLASS") {
			continue
		}
		number := refdata.Cell(row, numIdx)
		rs, ok := regions[refdata.CanonicalKey(number)]
		if !ok {
			res.Skipped["no_region"]++
			continue
		}
		item := refdata.Cell(row, itemIdx)
		for _, region := range rs {
			price := prices[regionKey{item: refdata.CanonicalKey(item), region: region}]
			if price == 0 {
				res.Skipped["no_price"]++
				continue
			}
			for _, uom := range []string{"EA", "CA"} {
				r := newRecord()
				r.PricingUOM = uom
				r.ChargeStartDate = ksChargeStart
				r.Item = item
				r.Customer = refdata.Cell(row, custIdx)
				r.ShipTo = refdata.Cell(row, siteIdx)
				r.CustomerSiteNumber = number
				r.AdjustmentAmount = NewAmount(price, ksDigits)
				r.Market = refdata.Cell(row, marketIdx)
				r.AdjustmentStart = start
				r.AdjustmentEnd = end
				records = append(records, r)
			}
		}
	}
	res.Records = Dedup(records)

	log.Info().
		Int("records", len(res.Records)).
		Int("duplicates", len(records)-len(res.Records)).
		Interface("skipped", res.Skipped).
		Msg("KS pricing built")

	return res, nil
}

// regionIndex maps ship-to site numbers to trimmed region names. Blank regions
// count as unmatched.
func regionIndex(t *refdata.Table) map[string][]string {
	numIdx := t.Index(colShipToNum)
	regionIdx := t.Index(colRegion)
	out := make(map[string][]string)
	for _, row := range t.Rows {
		region := strings.TrimSpace(refdata.Cell(row, regionIdx))
		if region == "" {
			continue
		}
		k := refdata.CanonicalKey(refdata.Cell(row, numIdx))
		out[k] = append(out[k], region)
	}
	return out
}

// regionPrices reads the per-region price columns. Headers are already
// trimmed on load, so padded exports resolve to the same names.
func regionPrices(t *refdata.Table) map[regionKey]float64 {
	prodIdx := t.Index(colProdNumber)
	cols := make(map[string]int, len(KSRegions))
	for _, region := range KSRegions {
		if idx := exactIndex(t.Header, region); idx >= 0 {
			cols[region] = idx
		}
	}
	out := make(map[regionKey]float64)
	for _, row := range t.Rows {
		item := refdata.CanonicalKey(refdata.Cell(row, prodIdx))
		for region, idx := range cols {
			v, ok := refdata.ParseFloat(refdata.Cell(row, idx))
			if !ok {
				continue
			}
			out[regionKey{item: item, region: region}] = v
		}
	}
	return out
}
