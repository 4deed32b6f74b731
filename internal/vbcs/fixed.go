package vbcs

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/effective"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// FilePriceBuild is last month's price build report.
const FilePriceBuild = "Old_Price_Build.csv"

// Price build report columns.
const (
	colCustomer        = "Customer"
	colShipToSite      = "Ship To Site Name"
	colPartySiteNumber = "Party Site Number"
	colTotalPrice      = "Total Price Per Pricing UOM"
	colPricingUOM      = "Pricing UOM"
	colItem            = "Item"
	colItemDescription = "Item Description"
	colMarketIndex     = "Market Index Name"
	colAdjustmentStart = "Price Adjustment Start Date"
)

const (
	fixedChargeStart = "2020-01-01 00:00:00"
	fixedDateLayout  = "2006-01-02 15:04:05"
	endOfDay         = 23*time.Hour + 59*time.Minute
)

// FixedInputs are the tables a fixed-pricing run needs.
type FixedInputs struct {
	PriceBuild *refdata.Table
	Dates      *effective.Rules
}

// BuildResult is the output of a single-file builder.
type BuildResult struct {
	Records  []Record
	Skipped  map[string]int
	Warnings []string
}

// LoadPriceBuild reads the price build report with the columns both the fixed
// and KS builders use.
func LoadPriceBuild(path string) (*refdata.Table, error) {
	return refdata.LoadRequired(path,
		colCustomer, colShipToSite, colPartySiteNumber, colTotalPrice,
		colPricingUOM, colItem, colItemDescription, colMarketIndex)
}

// BuildFixed carries last month's fixed and quarterly prices into the current
// month. DG items are excluded.
func BuildFixed(in *FixedInputs) (*BuildResult, error) {
	if in == nil || in.PriceBuild == nil {
		return nil, fmt.Errorf("%w: price build report", refdata.ErrMissingInput)
	}
	period, err := in.Dates.CurrentPeriod(true)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fixed pricing period: %w", err)
	}

	t := in.PriceBuild
	marketIdx := t.Index(colMarketIndex)
	descIdx := t.Index(colItemDescription)
	startIdx := t.Index(colAdjustmentStart)
	if startIdx < 0 {
		return nil, refdata.MissingColumns(t.Name, []string{colAdjustmentStart})
	}
	uomIdx := t.Index(colPricingUOM)
	itemIdx := t.Index(colItem)
	custIdx := t.Index(colCustomer)
	siteIdx := t.Index(colShipToSite)
	numIdx := t.Index(colPartySiteNumber)
	priceIdx := t.Index(colTotalPrice)

	start := period.Start.Format(fixedDateLayout)
	end := period.MonthEnd.Add(endOfDay).Format(fixedDateLayout)
	filter := period.Filter.Format("2006-01-02")

	res := &BuildResult{Skipped: make(map[string]int)}
	w := &warnings{}
	for _, row := range t.Rows {
		market := refdata.Cell(row, marketIdx)
		if !strings.Contains(market, "Fixed") && !strings.Contains(market, "Quarterly") {
			res.Skipped["market"]++
			continue
		}
		if strings.HasPrefix(refdata.Cell(row, descIdx), "DG") {
			res.Skipped["dg_item"]++
			continue
		}
		d, err := effective.ParseDate(refdata.Cell(row, startIdx))
		if err != nil || d.Format("2006-01-02") != filter {
			res.Skipped["start_date"]++
			continue
		}
		amount, err := parseMoney(refdata.Cell(row, priceIdx))
		if err != nil {
			res.Skipped["price"]++
			continue
		}

		r := newRecord()
		r.PricingUOM = refdata.Cell(row, uomIdx)
		r.ChargeStartDate = fixedChargeStart
		r.Item = refdata.Cell(row, itemIdx)
		r.Customer = refdata.Cell(row, custIdx)
		r.ShipTo = refdata.Cell(row, siteIdx)
		r.CustomerSiteNumber = refdata.Cell(row, numIdx)
		r.AdjustmentAmount = amount
		r.Market = market
		r.AdjustmentStart = start
		r.AdjustmentEnd = end
		res.Records = append(res.Records, r)
	}
	if n := res.Skipped["price"]; n > 0 {
		w.add("%d fixed rows had an unparsable %s", n, colTotalPrice)
	}
	res.Warnings = w.list

	log.Info().
		Int("records", len(res.Records)).
		Interface("skipped", res.Skipped).
		Str("filter_date", filter).
		Msg("fixed pricing built")

	return res, nil
}

var moneySanitizer = strings.NewReplacer("$", "", ",", "", " ", "")

// parseMoney keeps the precision the report was written with.
func parseMoney(s string) (Amount, error) {
	return ParseAmount(moneySanitizer.Replace(s))
}
