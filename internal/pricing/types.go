package pricing

import (
	"math"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/effective"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// Reference file names expected in an input directory.
const (
	FileProductClassPlant = "Product_Class_Plant.csv"
	FilePlantFees         = "Plant_Class_Plant Fees.csv"
	FileMilkBaseCost      = "Product_Milk Base Cost.csv"
	FileProcessing        = "Product_Processing_Pkg_Ing.csv"
	FileSellToFees        = "Sell-to_Volume Bracket_Fee.csv"
	FileCustomLabelFees   = "Custom Label_Volume Bracket_Fee.csv"
	FilePalletFees        = "Pallet_Fee.csv"
	FileDeliveryFees      = "Delivery_Miles Tier_Drop Size Tier_Fee.csv"
	FileProductUOM        = "Product_UOM.csv"
)

// RequiredFiles lists every reference table a derivation run needs.
var RequiredFiles = []string{
	FileProductClassPlant,
	FilePlantFees,
	FileMilkBaseCost,
	FileProcessing,
	FileSellToFees,
	FileCustomLabelFees,
	FilePalletFees,
	FileDeliveryFees,
	FileProductUOM,
}

// Column names of the reference tables and of the derived output.
const (
	ColMonth           = "Month"
	ColItem            = "Item"
	ColItemDescription = "Item Description"
	ColItemCategory    = "Item Category"
	ColMarketIndex     = "Market Index Name"
	ColPlant           = "Plant"
	ColSellToBracket   = "Sell-to Volume Bracket"
	ColCustomBracket   = "Custom Label Bracket"
	ColPallet          = "Pallet"
	ColMileageTier     = "Mileage Fee Tier (Mi)"
	ColDropTier        = "Drop Fee Tier (lbs/Drop)"

	ColClassIFee      = "Class I Location & Plant Fees ($/Gal)"
	ColBaseMilkCost   = "Base Milk Cost per Gallon"
	ColShrink         = "Shrink ($/gal)"
	ColPackaging      = "Packaging ($/Gal)"
	ColIngredients    = "Ingredients ($/Gal)"
	ColProcessing     = "Total Processing ($/Gal)"
	ColSellToFee      = "Sell-to Volume Fee ($/Gal)"
	ColCustomLabelFee = "Custom Label Fee ($/Gal)"
	ColPalletFee      = "Mixed Pallet Fee ($/Gal)"
	ColFOB            = "FOB price w.o. trade ($/gal)"
	ColDelivery       = "Delivery Charge ($/Gal)"
	ColDelivered      = "Delivered price w.o. trade ($/gal)"
	ColGallonsEach    = "Gallons per Each"
	ColGallonsCase    = "Gallons per Case"

	classIFeeMarker = "Class I Location & Plant Fees"
	baseMilkMarker  = "Base Milk Cost per Gallon"
)

// OutputColumns is the column order of the derived price table.
var OutputColumns = []string{
	ColMonth, ColItem, ColItemDescription, ColItemCategory, ColMarketIndex, ColPlant,
	ColSellToBracket, ColCustomBracket, ColPallet, ColMileageTier, ColDropTier,
	ColClassIFee, ColBaseMilkCost, ColShrink,
	ColPackaging, ColIngredients, ColProcessing, ColSellToFee,
	ColCustomLabelFee, ColPalletFee, ColFOB,
	ColDelivery, ColDelivered, ColGallonsEach, ColGallonsCase,
}

// ShrinkRate is the share of base milk plus class I fee lost to shrink.
const ShrinkRate = 0.02

// PriceComponentRow is one SKU x plant x tier combination with its per-gallon costs.
type PriceComponentRow struct {
	Month           string
	Item            string
	ItemDescription string
	ItemCategory    string
	MarketIndexName string
	Plant           string

	SellToBracket      Tier
	CustomLabelBracket Tier
	Pallet             string
	MileageTier        string
	DropTier           string

	BaseMilkCost   float32
	ClassIFee      float32
	Shrink         float32
	Processing     float32
	Packaging      float32
	Ingredients    float32
	SellToFee      float32
	CustomLabelFee float32
	PalletFee      float32

	FOB            float32
	DeliveryCharge float32
	Delivered      float32

	// NaN when the item has no UOM entry.
	GallonsPerEach float32
	GallonsPerCase float32
}

// Components returns the nine per-gallon costs that make up the FOB price, in
// summation order.
func (r *PriceComponentRow) Components() [9]float32 {
	return [9]float32{
		r.BaseMilkCost,
		r.ClassIFee,
		r.Shrink,
		r.Processing,
		r.Packaging,
		r.Ingredients,
		r.SellToFee,
		r.CustomLabelFee,
		r.PalletFee,
	}
}

// price fills Shrink, FOB and Delivered from the stored components.
func (r *PriceComponentRow) price() {
	r.Shrink = float32(ShrinkRate * (float64(r.BaseMilkCost) + float64(r.ClassIFee)))
	var fob float32
	for _, c := range r.Components() {
		fob += c
	}
	r.FOB = fob
	r.Delivered = r.FOB + r.DeliveryCharge
}

// dedupKey identifies a row for de-duplication.
type dedupKey struct {
	item, plant, sell, custom, pallet, mileage, drop, market string
}

func (r *PriceComponentRow) key() dedupKey {
	return dedupKey{
		item:    r.Item,
		plant:   r.Plant,
		sell:    r.SellToBracket.String(),
		custom:  r.CustomLabelBracket.String(),
		pallet:  r.Pallet,
		mileage: r.MileageTier,
		drop:    r.DropTier,
		market:  r.MarketIndexName,
	}
}

// Inputs are the reference tables a derivation run joins.
type Inputs struct {
	ProductClassPlant *refdata.Table
	PlantFees         *refdata.Table
	MilkBaseCost      *refdata.Table
	Processing        *refdata.Table
	SellToFees        *refdata.Table
	CustomLabelFees   *refdata.Table
	PalletFees        *refdata.Table
	DeliveryFees      *refdata.Table
	ProductUOM        *refdata.Table

	// Optional; fills Month when the milk base table carries none.
	Dates *effective.Rules
}

// Stats summarises one derivation.
type Stats struct {
	BaseRows     int
	Combinations int
	TierFiltered int
	Duplicates   int
	Output       int
}

// Result is the derived price table plus degraded-input warnings.
type Result struct {
	Rows     []PriceComponentRow
	Warnings []string
	Stats    Stats
}

func nan32() float32 { return float32(math.NaN()) }
