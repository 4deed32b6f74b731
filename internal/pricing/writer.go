package pricing

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// ComponentsFile is the default name of the derived component table.
const ComponentsFile = "price_components.csv"

func formatFloat32(v float32) string {
	if math.IsNaN(float64(v)) {
		return ""
	}
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// parseFloat32 reads values written by formatFloat32 back to the same float32.
func parseFloat32(s string) (float32, bool) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 32); err == nil && !math.IsNaN(v) {
		return float32(v), true
	}
	v, ok := refdata.ParseFloat(s)
	return float32(v), ok
}

func (r *PriceComponentRow) record() []string { return r.fields(formatFloat32) }

func (r *PriceComponentRow) fields(num func(float32) string) []string {
	return []string{
		r.Month,
		r.Item,
		r.ItemDescription,
		r.ItemCategory,
		r.MarketIndexName,
		r.Plant,
		r.SellToBracket.String(),
		r.CustomLabelBracket.String(),
		r.Pallet,
		r.MileageTier,
		r.DropTier,
		num(r.ClassIFee),
		num(r.BaseMilkCost),
		num(r.Shrink),
		num(r.Packaging),
		num(r.Ingredients),
		num(r.Processing),
		num(r.SellToFee),
		num(r.CustomLabelFee),
		num(r.PalletFee),
		num(r.FOB),
		num(r.DeliveryCharge),
		num(r.Delivered),
		num(r.GallonsPerEach),
		num(r.GallonsPerCase),
	}
}

// WriteComponentsCSV writes rows in OutputColumns order.
func WriteComponentsCSV(w io.Writer, rows []PriceComponentRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputColumns); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(rows[i].record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DisplayFields renders the row in OutputColumns order with every cost fixed
// to decimals places. Missing gallon factors stay blank.
func (r *PriceComponentRow) DisplayFields(decimals int) []string {
	return r.fields(func(v float32) string {
		if math.IsNaN(float64(v)) {
			return ""
		}
		return strconv.FormatFloat(float64(v), 'f', decimals, 64)
	})
}

// WriteDisplayCSV writes rows as DisplayFields.
func WriteDisplayCSV(w io.Writer, rows []PriceComponentRow, decimals int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputColumns); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(rows[i].DisplayFields(decimals)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComponentsFile writes rows to path, creating the parent directory.
func WriteComponentsFile(path string, rows []PriceComponentRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteComponentsCSV(f, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadComponentsFile loads a table previously written by WriteComponentsFile.
func ReadComponentsFile(path string) ([]PriceComponentRow, error) {
	t, err := refdata.LoadRequired(path, ColItem, ColPlant, ColFOB, ColDelivered)
	if err != nil {
		return nil, err
	}
	return RowsFromTable(t), nil
}

// RowsFromTable maps a component table back into rows. Unknown columns are
// ignored and absent ones stay zero.
func RowsFromTable(t *refdata.Table) []PriceComponentRow {
	idx := make(map[string]int, len(OutputColumns))
	for _, c := range OutputColumns {
		idx[c] = t.Index(c)
	}
	text := func(row []string, col string) string { return refdata.Cell(row, idx[col]) }
	num := func(row []string, col string) float32 {
		v, ok := parseFloat32(text(row, col))
		if !ok {
			return 0
		}
		return v
	}
	optional := func(row []string, col string) float32 {
		v, ok := parseFloat32(text(row, col))
		if !ok {
			return nan32()
		}
		return v
	}

	rows := make([]PriceComponentRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		rows = append(rows, PriceComponentRow{
			Month:              text(row, ColMonth),
			Item:               text(row, ColItem),
			ItemDescription:    text(row, ColItemDescription),
			ItemCategory:       text(row, ColItemCategory),
			MarketIndexName:    text(row, ColMarketIndex),
			Plant:              text(row, ColPlant),
			SellToBracket:      ParseTier(text(row, ColSellToBracket)),
			CustomLabelBracket: ParseTier(text(row, ColCustomBracket)),
			Pallet:             text(row, ColPallet),
			MileageTier:        text(row, ColMileageTier),
			DropTier:           text(row, ColDropTier),
			ClassIFee:          num(row, ColClassIFee),
			BaseMilkCost:       num(row, ColBaseMilkCost),
			Shrink:             num(row, ColShrink),
			Packaging:          num(row, ColPackaging),
			Ingredients:        num(row, ColIngredients),
			Processing:         num(row, ColProcessing),
			SellToFee:          num(row, ColSellToFee),
			CustomLabelFee:     num(row, ColCustomLabelFee),
			PalletFee:          num(row, ColPalletFee),
			FOB:                num(row, ColFOB),
			DeliveryCharge:     num(row, ColDelivery),
			Delivered:          num(row, ColDelivered),
			GallonsPerEach:     optional(row, ColGallonsEach),
			GallonsPerCase:     optional(row, ColGallonsCase),
		})
	}
	return rows
}
