package pricing

import (
	"fmt"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// LoadInputs loads the nine reference tables from dir. Any missing file fails
// the whole load with refdata.ErrMissingInput naming every absent file.
func LoadInputs(dir string) (*Inputs, error) {
	paths, err := refdata.RequireFiles(dir, RequiredFiles...)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*refdata.Table, len(paths))
	for _, name := range RequiredFiles {
		t, err := refdata.Load(paths[name])
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		tables[name] = t
	}

	tables[FileCustomLabelFees].Rename(refdata.CustomLabelAliases)
	tables[FileDeliveryFees].Rename(refdata.DeliveryAliases)
	tables[FileMilkBaseCost].Rename(refdata.MilkBaseAliases)

	return &Inputs{
		ProductClassPlant: tables[FileProductClassPlant],
		PlantFees:         tables[FilePlantFees],
		MilkBaseCost:      tables[FileMilkBaseCost],
		Processing:        tables[FileProcessing],
		SellToFees:        tables[FileSellToFees],
		CustomLabelFees:   tables[FileCustomLabelFees],
		PalletFees:        tables[FilePalletFees],
		DeliveryFees:      tables[FileDeliveryFees],
		ProductUOM:        tables[FileProductUOM],
	}, nil
}

func (in *Inputs) validate() error {
	checks := []struct {
		table   *refdata.Table
		file    string
		columns []string
	}{
		{in.ProductClassPlant, FileProductClassPlant, []string{ColItem, ColPlant, ColMarketIndex}},
		{in.PlantFees, FilePlantFees, []string{ColPlant, ColMarketIndex}},
		{in.MilkBaseCost, FileMilkBaseCost, []string{ColItem}},
		{in.Processing, FileProcessing, []string{ColItem}},
		{in.SellToFees, FileSellToFees, nil},
		{in.CustomLabelFees, FileCustomLabelFees, nil},
		{in.PalletFees, FilePalletFees, nil},
		{in.DeliveryFees, FileDeliveryFees, nil},
		{in.ProductUOM, FileProductUOM, []string{ColItem}},
	}
	for _, c := range checks {
		if c.table == nil {
			return fmt.Errorf("%w: %s", refdata.ErrMissingInput, c.file)
		}
		if missing := c.table.Missing(c.columns...); len(missing) > 0 {
			return fmt.Errorf("%w: %s lacks join columns %v", refdata.ErrMissingInput, c.file, missing)
		}
	}
	return nil
}
