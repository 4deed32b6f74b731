package vbcs

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/crossdock"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/effective"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// Variable pricing input files.
const (
	FileExecution   = "Execution_final.csv"
	FileVariableUOM = "HTST Pricing_UOMS_v1.csv"
	FileDates       = "Effective_Date_Assumptions.csv"
	FileMarketIndex = "Milk_Market_Index.csv"
	FileCustomers   = "Customer_Extract_Report.csv"
)

// Charge start date written on variable rows.
const VariableChargeStart = "1/1/2020 12:00:00 AM"

const (
	colEachPrice     = "Total Price Per Pricing UOM ($/EA)"
	colEachesPerCase = "Eaches per Case"
	colRoundingRule  = "Rounding Rule"
	colEffective     = "Effective Dates"
	colProductID     = "Product ID"
)

// uomLadder lists pricing UOMs in output order with the case multiplier column
// that derives each from the case price.
var uomLadder = []struct {
	uom        string
	multiplier string
}{
	{"EA", ""},
	{"CA", ""},
	{"ST", "CA per ST"},
	{"PL", "CA per PL"},
	{"BC", "CA per BC"},
}

// VariableInputs are the tables a variable-pricing run needs.
type VariableInputs struct {
	Execution   *refdata.Table
	UOM         *refdata.Table
	Dates       *effective.Rules
	MarketIndex *refdata.Table
	Directory   *crossdock.Directory
	Groups      []crossdock.Group
}

// VariableResult is the partitioned output of a variable run.
type VariableResult struct {
	Groups    Groups
	Formatted int
	Expansion []crossdock.GroupResult[Record]
	Warnings  []string
}

// LoadVariableInputs reads the variable-pricing tables from dir.
func LoadVariableInputs(dir string) (*VariableInputs, error) {
	paths, err := refdata.RequireFiles(dir, FileExecution, FileVariableUOM, FileDates, FileMarketIndex, FileCustomers)
	if err != nil {
		return nil, err
	}
	exec, err := refdata.LoadRequired(paths[FileExecution], "Item", "Customer Name", "Party Site Name", "Party Site Number", colEachPrice)
	if err != nil {
		return nil, err
	}
	uom, err := refdata.LoadRequired(paths[FileVariableUOM], colProductID)
	if err != nil {
		return nil, err
	}
	dates, err := effective.Load(paths[FileDates])
	if err != nil {
		return nil, err
	}
	market, err := refdata.Load(paths[FileMarketIndex])
	if err != nil {
		return nil, err
	}
	customers, err := crossdock.LoadDirectory(paths[FileCustomers])
	if err != nil {
		return nil, err
	}
	return &VariableInputs{
		Execution:   exec,
		UOM:         uom,
		Dates:       dates,
		MarketIndex: market,
		Directory:   customers,
		Groups:      crossdock.DefaultGroups(),
	}, nil
}

type pricedRow struct {
	item     string
	customer string
	site     string
	number   string
	uom      string
	price    float64
	rounding int32
	code     string
}

// BuildVariable prices every execution row per UOM, dates and classifies it,
// expands cross-dock groups and partitions the result.
func BuildVariable(in *VariableInputs) (*VariableResult, error) {
	if in == nil || in.Execution == nil {
		return nil, fmt.Errorf("%w: execution table", refdata.ErrMissingInput)
	}
	w := &warnings{}

	priced := priceByUOM(in.Execution, in.UOM, w)
	markets := marketIndex(in.MarketIndex, w)

	var invalidCodes, unmappedCodes, undated, unclassified int
	records := make([]Record, 0, len(priced))
	for _, p := range priced {
		start, end := "", ""
		code, ok := refdata.ParseInt(p.code)
		if !ok {
			invalidCodes++
		} else if _, known := effective.DeliveryRule(code); !known {
			unmappedCodes++
		}
		var dated bool
		if ok {
			start, end, dated = in.Dates.Window(code)
		}
		if !dated {
			undated++
		}

		names, found := markets[refdata.CanonicalKey(p.item)]
		if !found {
			unclassified++
			names = []string{""}
		}
		for _, market := range names {
			r := newRecord()
			r.PricingUOM = p.uom
			r.ChargeStartDate = VariableChargeStart
			r.Item = refdata.CanonicalKey(p.item)
			r.Customer = p.customer
			r.ShipTo = p.site
			r.CustomerSiteNumber = p.number
			r.AdjustmentAmount = NewAmount(p.price, p.rounding)
			r.Market = market
			r.AdjustmentStart = start
			r.AdjustmentEnd = end
			records = append(records, r)
		}
	}

	if invalidCodes > 0 {
		w.add("%d rows with invalid Effective Dates values", invalidCodes)
	}
	if unmappedCodes > 0 {
		w.add("%d rows with unmapped Effective Dates values", unmappedCodes)
	}
	if undated > 0 {
		w.add("%d rows could not be matched with effective date rules", undated)
	}
	if unclassified > 0 {
		w.add("%d rows could not be matched with market index data", unclassified)
	}

	groups := in.Groups
	if groups == nil {
		groups = crossdock.DefaultGroups()
	}
	exp := crossdock.Expand(records, in.Directory, groups)
	res := &VariableResult{
		Groups:    Partition(exp.All(), groups),
		Formatted: len(records),
		Expansion: exp.Groups,
		Warnings:  w.list,
	}

	log.Info().
		Int("formatted", res.Formatted).
		Int("urm_topco", len(res.Groups.URMTopco)).
		Int("winco", len(res.Groups.Winco)).
		Int("batch", len(res.Groups.Batch)).
		Int("warnings", len(res.Warnings)).
		Msg("variable pricing built")

	return res, nil
}

// priceByUOM joins execution rows to the UOM table on Item = Product ID and
// emits one row per non-zero UOM price. Rows come out grouped by UOM, EA first.
func priceByUOM(exec, uom *refdata.Table, w *warnings) []pricedRow {
	itemIdx := exec.Index("Item")
	custIdx := exec.Index("Customer Name")
	siteIdx := exec.Index("Party Site Name")
	numIdx := exec.Index("Party Site Number")
	eachIdx := exec.Index(colEachPrice)
	roundIdx := exec.Index(colRoundingRule)
	codeIdx := exec.Index(colEffective)
	execEachesIdx := exec.Index(colEachesPerCase)

	var uomRows map[string][]int
	uomEachesIdx, uomRoundIdx := -1, -1
	multIdx := make(map[string]int)
	if uom != nil {
		uomRows = make(map[string][]int)
		pidIdx := uom.Index(colProductID)
		for i, row := range uom.Rows {
			k := refdata.CanonicalKey(refdata.Cell(row, pidIdx))
			uomRows[k] = append(uomRows[k], i)
		}
		uomEachesIdx = uom.Index(colEachesPerCase)
		uomRoundIdx = uom.Index(colRoundingRule)
		for _, l := range uomLadder {
			if l.multiplier != "" {
				multIdx[l.multiplier] = uom.Index(l.multiplier)
			}
		}
	}
	if execEachesIdx < 0 && uomEachesIdx < 0 {
		w.add("no %q column found, defaulting to 1", colEachesPerCase)
	}

	type joined struct {
		exec []string
		uom  []string
	}
	var rows []joined
	for _, er := range exec.Rows {
		matches := uomRows[refdata.CanonicalKey(refdata.Cell(er, itemIdx))]
		if len(matches) == 0 {
			rows = append(rows, joined{exec: er})
			continue
		}
		for _, ui := range matches {
			rows = append(rows, joined{exec: er, uom: uom.Rows[ui]})
		}
	}

	num := func(row []string, idx int) float64 {
		v, ok := refdata.ParseFloat(refdata.Cell(row, idx))
		if !ok {
			return math.NaN()
		}
		return v
	}

	var out []pricedRow
	for _, l := range uomLadder {
		for _, j := range rows {
			each := num(j.exec, eachIdx)

			eaches := 1.0
			switch {
			case execEachesIdx >= 0:
				eaches = num(j.exec, execEachesIdx)
			case uomEachesIdx >= 0:
				eaches = num(j.uom, uomEachesIdx)
			}

			var price float64
			switch l.uom {
			case "EA":
				price = each
			case "CA":
				price = each * eaches
			default:
				price = each * eaches * num(j.uom, multIdx[l.multiplier])
			}
			if math.IsNaN(price) || math.IsInf(price, 0) || price == 0 {
				continue
			}

			rounding := 0
			if v, ok := refdata.ParseInt(refdata.Cell(j.exec, roundIdx)); ok {
				rounding = v
			} else if v, ok := refdata.ParseInt(refdata.Cell(j.uom, uomRoundIdx)); ok {
				rounding = v
			}

			out = append(out, pricedRow{
				item:     refdata.Cell(j.exec, itemIdx),
				customer: refdata.Cell(j.exec, custIdx),
				site:     refdata.Cell(j.exec, siteIdx),
				number:   refdata.Cell(j.exec, numIdx),
				uom:      l.uom,
				price:    price,
				rounding: int32(rounding),
				code:     refdata.Cell(j.exec, codeIdx),
			})
		}
	}
	return out
}

// marketIndex maps items to their market index names, in file order.
func marketIndex(t *refdata.Table, w *warnings) map[string][]string {
	out := make(map[string][]string)
	if t == nil {
		w.add("market index table missing, Market left blank")
		return out
	}
	itemIdx := t.Index("Item")
	nameIdx := t.Index("Market Index Name")
	if itemIdx < 0 || nameIdx < 0 {
		w.add("%s lacks Item or Market Index Name, Market left blank", t.Name)
		return out
	}
	for _, row := range t.Rows {
		k := refdata.CanonicalKey(refdata.Cell(row, itemIdx))
		out[k] = append(out[k], refdata.Cell(row, nameIdx))
	}
	return out
}

type warnings struct {
	list []string
}

func (w *warnings) add(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.list = append(w.list, msg)
	log.Warn().Str("component", "vbcs").Msg(msg)
}
