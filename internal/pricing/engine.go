package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/effective"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

type sellOption struct {
	tier Tier
	fee  float32
}

type customOption struct {
	tier Tier
	fee  float32
}

type palletOption struct {
	pallet string
	fee    float32
}

type deliveryOption struct {
	mileage string
	drop    string
	charge  float32
}

type uomEntry struct {
	each float32
	cas  float32
}

// baseRow is a product/plant row after the plant, milk and processing joins.
type baseRow struct {
	month       string
	item        string
	description string
	category    string
	market      string
	plant       string
	classI      float32
	baseMilk    float32
	processing  float32
	packaging   float32
	ingredients float32
}

// warner collects degraded-input warnings once per message.
type warner struct {
	seen map[string]struct{}
	list []string
}

func (w *warner) add(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if _, ok := w.seen[msg]; ok {
		return
	}
	w.seen[msg] = struct{}{}
	w.list = append(w.list, msg)
	log.Warn().Str("component", "pricing").Msg(msg)
}

// column resolves a cost column, warning when it is absent.
func (w *warner) column(t *refdata.Table, file, name string) int {
	idx := t.Index(name)
	if idx < 0 {
		w.add("%s: column %q not found, defaulting to 0", file, name)
	}
	return idx
}

func money(row []string, idx int) float32 {
	if idx < 0 {
		return 0
	}
	return float32(refdata.ParseDollar(refdata.Cell(row, idx)))
}

// Derive joins the reference tables into the full price-component table.
func Derive(ctx context.Context, in *Inputs) (*Result, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: no inputs", refdata.ErrMissingInput)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	w := &warner{}
	bases := joinBaseRows(in, w)

	sells := sellOptions(in.SellToFees, w)
	customs := customOptions(in.CustomLabelFees, w)
	pallets := palletOptions(in.PalletFees, w)
	deliveries := deliveryOptions(in.DeliveryFees, w)
	uoms := uomIndex(in.ProductUOM, w)

	res := &Result{Stats: Stats{BaseRows: len(bases)}}
	seen := make(map[dedupKey]struct{})

	for i := range bases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := &bases[i]
		entries, hasUOM := uoms[refdata.CanonicalKey(b.item)]
		if !hasUOM {
			entries = []uomEntry{{each: nan32(), cas: nan32()}}
		}

		for _, s := range sells {
			for _, c := range customs {
				combos := len(pallets) * len(deliveries)
				res.Stats.Combinations += combos
				if !Allows(s.tier, c.tier) {
					res.Stats.TierFiltered += combos
					continue
				}
				for _, p := range pallets {
					for _, d := range deliveries {
						for _, u := range entries {
							row := PriceComponentRow{
								Month:              b.month,
								Item:               b.item,
								ItemDescription:    b.description,
								ItemCategory:       b.category,
								MarketIndexName:    b.market,
								Plant:              b.plant,
								SellToBracket:      s.tier,
								CustomLabelBracket: c.tier,
								Pallet:             p.pallet,
								MileageTier:        d.mileage,
								DropTier:           d.drop,
								BaseMilkCost:       b.baseMilk,
								ClassIFee:          b.classI,
								Processing:         b.processing,
								Packaging:          b.packaging,
								Ingredients:        b.ingredients,
								SellToFee:          s.fee,
								CustomLabelFee:     c.fee,
								PalletFee:          p.fee,
								DeliveryCharge:     d.charge,
								GallonsPerEach:     u.each,
								GallonsPerCase:     u.cas,
							}
							k := row.key()
							if _, dup := seen[k]; dup {
								res.Stats.Duplicates++
								continue
							}
							seen[k] = struct{}{}
							row.price()
							res.Rows = append(res.Rows, row)
						}
					}
				}
			}
		}
	}

	SortRows(res.Rows)
	res.Warnings = w.list
	res.Stats.Output = len(res.Rows)

	log.Info().
		Int("base_rows", res.Stats.BaseRows).
		Int("combinations", res.Stats.Combinations).
		Int("tier_filtered", res.Stats.TierFiltered).
		Int("duplicates", res.Stats.Duplicates).
		Int("rows", res.Stats.Output).
		Int("warnings", len(res.Warnings)).
		Msg("price components derived")

	return res, nil
}

func joinBaseRows(in *Inputs, w *warner) []baseRow {
	pcp := in.ProductClassPlant
	itemIdx := pcp.Index(ColItem)
	descIdx := pcp.Index(ColItemDescription)
	catIdx := pcp.Index(ColItemCategory)
	plantIdx := pcp.Index(ColPlant)
	marketIdx := pcp.Index(ColMarketIndex)

	// Class I fees normally live in the plant fee table; fall back to the
	// product table when an export carries them there.
	fees := in.PlantFees
	feePlantIdx := fees.Index(ColPlant)
	feeMarketIdx := fees.Index(ColMarketIndex)
	classIFromFees := fees.Contains(classIFeeMarker)
	classIFromProduct := -1
	if classIFromFees < 0 {
		classIFromProduct = pcp.Contains(classIFeeMarker)
		if classIFromProduct < 0 {
			w.add("%s: column %q not found, defaulting to 0", FilePlantFees, ColClassIFee)
		}
	}
	feeGroups := make(map[[2]string][]int)
	for i, row := range fees.Rows {
		k := [2]string{refdata.CanonicalKey(refdata.Cell(row, feePlantIdx)), refdata.Cell(row, feeMarketIdx)}
		feeGroups[k] = append(feeGroups[k], i)
	}

	milk := in.MilkBaseCost
	milkItemIdx := milk.Index(ColItem)
	milkCostIdx := milk.Contains(baseMilkMarker)
	if milkCostIdx < 0 {
		w.add("%s: column %q not found, defaulting to 0", FileMilkBaseCost, ColBaseMilkCost)
	}
	monthIdx := milk.Index(ColMonth)
	fallbackMonth := ""
	if monthIdx < 0 {
		fallbackMonth = currentMonth(in.Dates)
		w.add("%s: column %q not found, using %q", FileMilkBaseCost, ColMonth, fallbackMonth)
	}
	milkGroups := groupByKey(milk, milkItemIdx)

	proc := in.Processing
	procItemIdx := proc.Index(ColItem)
	totalIdx := w.column(proc, FileProcessing, ColProcessing)
	pkgIdx := w.column(proc, FileProcessing, ColPackaging)
	ingIdx := w.column(proc, FileProcessing, ColIngredients)
	procGroups := groupByKey(proc, procItemIdx)

	var out []baseRow
	for _, prow := range pcp.Rows {
		item := refdata.Cell(prow, itemIdx)
		plant := refdata.Cell(prow, plantIdx)
		market := refdata.Cell(prow, marketIdx)
		itemKey := refdata.CanonicalKey(item)

		feeRows := feeGroups[[2]string{refdata.CanonicalKey(plant), market}]
		if len(feeRows) == 0 {
			feeRows = []int{-1}
		}
		milkRows := milkGroups[itemKey]
		if len(milkRows) == 0 {
			milkRows = []int{-1}
		}
		procRows := procGroups[itemKey]
		if len(procRows) == 0 {
			procRows = []int{-1}
		}

		for _, fi := range feeRows {
			var classI float32
			switch {
			case classIFromFees >= 0 && fi >= 0:
				classI = money(fees.Rows[fi], classIFromFees)
			case classIFromProduct >= 0:
				classI = money(prow, classIFromProduct)
			}
			for _, mi := range milkRows {
				var base float32
				month := fallbackMonth
				if mi >= 0 {
					base = money(milk.Rows[mi], milkCostIdx)
					if monthIdx >= 0 {
						month = refdata.Cell(milk.Rows[mi], monthIdx)
					}
				}
				for _, pi := range procRows {
					b := baseRow{
						month:       month,
						item:        item,
						description: refdata.Cell(prow, descIdx),
						category:    refdata.Cell(prow, catIdx),
						market:      market,
						plant:       plant,
						classI:      classI,
						baseMilk:    base,
					}
					if pi >= 0 {
						r := proc.Rows[pi]
						b.processing = money(r, totalIdx)
						b.packaging = money(r, pkgIdx)
						b.ingredients = money(r, ingIdx)
					}
					out = append(out, b)
				}
			}
		}
	}
	return out
}

func currentMonth(rules *effective.Rules) string {
	if rules == nil {
		return ""
	}
	d, err := rules.Date(effective.CurrentMonth)
	if err != nil {
		return ""
	}
	return d.Format("2006-01-02")
}

func groupByKey(t *refdata.Table, idx int) map[string][]int {
	groups := make(map[string][]int)
	if idx < 0 {
		return groups
	}
	for i, row := range t.Rows {
		k := refdata.CanonicalKey(refdata.Cell(row, idx))
		groups[k] = append(groups[k], i)
	}
	return groups
}

func sellOptions(t *refdata.Table, w *warner) []sellOption {
	tierIdx := t.Index(ColSellToBracket)
	if tierIdx < 0 {
		w.add("%s: column %q not found, bracket left blank", FileSellToFees, ColSellToBracket)
	}
	feeIdx := w.column(t, FileSellToFees, ColSellToFee)
	if len(t.Rows) == 0 {
		return []sellOption{{}}
	}
	out := make([]sellOption, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, sellOption{tier: ParseTier(refdata.Cell(row, tierIdx)), fee: money(row, feeIdx)})
	}
	return out
}

func customOptions(t *refdata.Table, w *warner) []customOption {
	tierIdx := t.Index(ColCustomBracket)
	if tierIdx < 0 {
		w.add("%s: column %q not found, bracket left blank", FileCustomLabelFees, ColCustomBracket)
	}
	feeIdx := w.column(t, FileCustomLabelFees, ColCustomLabelFee)
	if len(t.Rows) == 0 {
		return []customOption{{}}
	}
	out := make([]customOption, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, customOption{tier: ParseTier(refdata.Cell(row, tierIdx)), fee: money(row, feeIdx)})
	}
	return out
}

func palletOptions(t *refdata.Table, w *warner) []palletOption {
	nameIdx := t.Index(ColPallet)
	feeIdx := w.column(t, FilePalletFees, ColPalletFee)
	if len(t.Rows) == 0 {
		return []palletOption{{}}
	}
	out := make([]palletOption, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, palletOption{pallet: refdata.Cell(row, nameIdx), fee: money(row, feeIdx)})
	}
	return out
}

func deliveryOptions(t *refdata.Table, w *warner) []deliveryOption {
	mileIdx := t.Index(ColMileageTier)
	dropIdx := t.Index(ColDropTier)
	chargeIdx := w.column(t, FileDeliveryFees, ColDelivery)
	if len(t.Rows) == 0 {
		return []deliveryOption{{}}
	}
	out := make([]deliveryOption, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, deliveryOption{
			mileage: refdata.Cell(row, mileIdx),
			drop:    refdata.Cell(row, dropIdx),
			charge:  money(row, chargeIdx),
		})
	}
	return out
}

func uomIndex(t *refdata.Table, w *warner) map[string][]uomEntry {
	itemIdx := t.Index(ColItem)
	eachIdx := t.Index(ColGallonsEach)
	caseIdx := t.Index(ColGallonsCase)
	if eachIdx < 0 || caseIdx < 0 {
		w.add("%s: gallons columns incomplete, gallons left blank", FileProductUOM)
	}
	out := make(map[string][]uomEntry)
	for _, row := range t.Rows {
		k := refdata.CanonicalKey(refdata.Cell(row, itemIdx))
		out[k] = append(out[k], uomEntry{each: gallons(row, eachIdx), cas: gallons(row, caseIdx)})
	}
	return out
}

func gallons(row []string, idx int) float32 {
	v, ok := refdata.ParseFloat(refdata.Cell(row, idx))
	if !ok {
		return nan32()
	}
	return float32(v)
}

// compareText orders free-text columns the way tiers order: blanks first,
// numbers by value, then text.
func compareText(a, b string) int {
	return ParseTier(a).Compare(ParseTier(b))
}

// SortRows stably orders rows by item, then sell-to, custom-label, pallet,
// mileage and drop tiers.
func SortRows(rows []PriceComponentRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if c := compareText(a.Item, b.Item); c != 0 {
			return c < 0
		}
		if c := a.SellToBracket.Compare(b.SellToBracket); c != 0 {
			return c < 0
		}
		if c := a.CustomLabelBracket.Compare(b.CustomLabelBracket); c != 0 {
			return c < 0
		}
		if c := compareText(a.Pallet, b.Pallet); c != 0 {
			return c < 0
		}
		if c := compareText(a.MileageTier, b.MileageTier); c != 0 {
			return c < 0
		}
		return compareText(a.DropTier, b.DropTier) < 0
	})
}
